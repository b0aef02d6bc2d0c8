package model

import "time"

// Verdict statuses as the external evaluator reports them.
const (
	VerdictAccepted          = "Accepted"
	VerdictWrongAnswer       = "Wrong Answer"
	VerdictRuntimeError      = "Runtime Error"
	VerdictSyntaxError       = "Syntax Error"
	VerdictTimeLimitExceeded = "Time Limit Exceeded"
)

var SupportedLanguages = []string{"cpp", "javascript", "python3", "java"}

func IsSupportedLanguage(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// Submission is the append-only audit record of one evaluation attempt. Rows
// are never updated or deleted; the audit append is the durable fact even if
// a later progress update fails.
type Submission struct {
	SubmissionID string `gorm:"column:submission_id;primaryKey" json:"submissionId"`
	UserID       string `gorm:"column:user_id;index:idx_submissions_match_user_problem" json:"userId"`
	ProblemID    string `gorm:"column:problem_id;index:idx_submissions_match_user_problem" json:"problemId"`
	MatchID      string `gorm:"column:match_id;index:idx_submissions_match_user_problem" json:"matchId"`
	Code         string `gorm:"column:code" json:"code"`
	Language     string `gorm:"column:language" json:"language"`
	Status       string `gorm:"column:status" json:"status"`
	TestsPassed  int    `gorm:"column:tests_passed" json:"testsPassed"`
	TestsTotal   int    `gorm:"column:tests_total" json:"testsTotal"`
	Error        string `gorm:"column:error" json:"error,omitempty"`
	// Results carries the evaluator's full verdict payload for later review.
	Results     map[string]any `gorm:"column:results;serializer:json;type:jsonb" json:"results"`
	SubmittedAt time.Time      `gorm:"column:submitted_at" json:"submittedAt"`
}

func (Submission) TableName() string { return "submissions" }
