package model

// TestCase input/output shapes are evaluator-defined; the core never
// interprets them.
type TestCase struct {
	Input          any `bson:"input" json:"input"`
	ExpectedOutput any `bson:"expectedOutput" json:"expectedOutput"`
}

// Problem is opaque to the orchestration core: an identifier plus whatever the
// evaluator needs. Ingestion and normalization happen out of process.
type Problem struct {
	ProblemID string     `bson:"_id" json:"problemId"`
	Title     string     `bson:"title" json:"title"`
	Content   string     `bson:"content" json:"content"`
	TestCases []TestCase `bson:"testCases" json:"testCases"`
}
