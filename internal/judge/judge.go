// Package judge wraps the external code evaluator. The orchestration core
// only ever sees a Verdict; how code gets compiled or executed is the
// evaluator's business.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devdual/BattleRoomManagerService/internal/model"
)

// Verdict is the evaluator's judgment of one submission against one problem.
type Verdict struct {
	Status      string         `json:"status"`
	Passed      bool           `json:"passed"`
	TestsPassed int            `json:"testsPassed"`
	TestsTotal  int            `json:"testsTotal"`
	Error       string         `json:"error,omitempty"`
	Raw         map[string]any `json:"raw,omitempty"`
}

// Judge evaluates submitted source against a problem's test cases.
type Judge interface {
	Evaluate(ctx context.Context, problem *model.Problem, code, language string) (*Verdict, error)
}

// LLMJudge asks a generative-language endpoint to act as the evaluator and
// return a structured verdict.
type LLMJudge struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewLLMJudge(baseURL, apiKey, modelName string) *LLMJudge {
	return &LLMJudge{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   modelName,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type promptPart struct {
	Text string `json:"text"`
}

type promptContent struct {
	Parts []promptPart `json:"parts"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type generateRequest struct {
	Contents         []promptContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content promptContent `json:"content"`
	} `json:"candidates"`
}

// rawVerdict is the JSON contract the evaluator is prompted to return.
type rawVerdict struct {
	Status          string `json:"status"`
	TestCasesPassed int    `json:"testCasesPassed"`
	TotalTestCases  int    `json:"totalTestCases"`
	Error           string `json:"error"`
}

func (j *LLMJudge) Evaluate(ctx context.Context, problem *model.Problem, code, language string) (*Verdict, error) {
	if j.apiKey == "" {
		return nil, fmt.Errorf("evaluator api key not configured")
	}

	prompt, err := buildPrompt(problem, code, language)
	if err != nil {
		return nil, err
	}

	reqBody := generateRequest{
		Contents: []promptContent{{Parts: []promptPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      0.1,
			MaxOutputTokens:  1024,
			ResponseMimeType: "application/json",
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", j.baseURL, j.model, j.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("evaluator request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("evaluator returned %d: %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("failed to decode evaluator response: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty evaluator response")
	}

	text := strings.TrimSpace(genResp.Candidates[0].Content.Parts[0].Text)

	var raw rawVerdict
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse verdict: %w", err)
	}

	var rawMap map[string]any
	_ = json.Unmarshal([]byte(text), &rawMap)

	return &Verdict{
		Status:      raw.Status,
		Passed:      raw.Status == model.VerdictAccepted,
		TestsPassed: raw.TestCasesPassed,
		TestsTotal:  raw.TotalTestCases,
		Error:       raw.Error,
		Raw:         rawMap,
	}, nil
}

func buildPrompt(problem *model.Problem, code, language string) (string, error) {
	testCases, err := json.MarshalIndent(problem.TestCases, "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert code evaluator. Analyze and test this %s code:\n\n", language)
	fmt.Fprintf(&b, "PROBLEM STATEMENT:\n%s\n\n", problem.Title)
	fmt.Fprintf(&b, "PROBLEM DESCRIPTION:\n%s\n\n", problem.Content)
	fmt.Fprintf(&b, "USER CODE:\n```%s\n%s\n```\n\n", language, code)
	fmt.Fprintf(&b, "TEST CASES:\n%s\n\n", testCases)
	b.WriteString(`INSTRUCTIONS:
1. First check for syntax errors. If found, return Syntax Error.
2. If no syntax errors, execute the code against each test case.
3. The code should read input from stdin and write output to stdout.
4. Compare actual output with expected output exactly.
5. Stop at first failure.

RETURN ONLY VALID JSON of the shape:
{"status": "Accepted" | "Wrong Answer" | "Runtime Error" | "Syntax Error" | "Time Limit Exceeded", "testCasesPassed": <int>, "totalTestCases": <int>, "error": "<message, only on error>"}

IMPORTANT: Return ONLY the JSON, no other text.`)

	return b.String(), nil
}
