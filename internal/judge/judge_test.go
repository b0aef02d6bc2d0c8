package judge_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devdual/BattleRoomManagerService/internal/judge"
	"github.com/devdual/BattleRoomManagerService/internal/model"
)

func evaluatorStub(t *testing.T, verdictJSON string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Query().Get("key") == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": verdictJSON}}}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func problem() *model.Problem {
	return &model.Problem{
		ProblemID: "p1",
		Title:     "Two Sum",
		Content:   "Find two numbers that add to a target.",
		TestCases: []model.TestCase{{Input: "1 2 3\n3", ExpectedOutput: "1 2"}},
	}
}

func TestEvaluate_Accepted(t *testing.T) {
	srv := evaluatorStub(t, `{"status":"Accepted","testCasesPassed":3,"totalTestCases":3}`)
	defer srv.Close()

	j := judge.NewLLMJudge(srv.URL, "key123", "test-model")
	v, err := j.Evaluate(context.Background(), problem(), "print(1)", "python3")
	require.NoError(t, err)
	require.True(t, v.Passed)
	require.Equal(t, model.VerdictAccepted, v.Status)
	require.Equal(t, 3, v.TestsPassed)
	require.Equal(t, 3, v.TestsTotal)
}

func TestEvaluate_WrongAnswer(t *testing.T) {
	srv := evaluatorStub(t, `{"status":"Wrong Answer","testCasesPassed":1,"totalTestCases":3,"error":"expected 1 2, got 2 1"}`)
	defer srv.Close()

	j := judge.NewLLMJudge(srv.URL, "key123", "test-model")
	v, err := j.Evaluate(context.Background(), problem(), "print(2)", "python3")
	require.NoError(t, err)
	require.False(t, v.Passed)
	require.Equal(t, model.VerdictWrongAnswer, v.Status)
	require.Equal(t, "expected 1 2, got 2 1", v.Error)
}

func TestEvaluate_NoAPIKey(t *testing.T) {
	j := judge.NewLLMJudge("http://unused", "", "test-model")
	_, err := j.Evaluate(context.Background(), problem(), "x", "python3")
	require.Error(t, err)
}

func TestEvaluate_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	j := judge.NewLLMJudge(srv.URL, "key123", "test-model")
	_, err := j.Evaluate(context.Background(), problem(), "x", "python3")
	require.Error(t, err)
}

func TestEvaluate_MalformedVerdict(t *testing.T) {
	srv := evaluatorStub(t, "this is not json")
	defer srv.Close()

	j := judge.NewLLMJudge(srv.URL, "key123", "test-model")
	_, err := j.Evaluate(context.Background(), problem(), "x", "python3")
	require.Error(t, err)
}
