package domain

import "time"

// QuestionSummary reports the outcome of one question-generation run for a
// region. A run that falls short of its target is still a normal outcome;
// TargetReached simply stays false.
type QuestionSummary struct {
	Region        string        `json:"region"`
	Target        int           `json:"target"`
	Existing      int           `json:"existing"`
	New           int           `json:"new"`
	Total         int           `json:"total"`
	TargetReached bool          `json:"target_reached"`
	Retries       int           `json:"retries"`
	Duration      time.Duration `json:"duration"`
}

// AnswerSummary reports the outcome of one answer-generation run for a
// region.
type AnswerSummary struct {
	Region          string        `json:"region"`
	TotalQuestions  int           `json:"total_questions"`
	AlreadyAnswered int           `json:"already_answered"`
	Reconciled      int           `json:"reconciled"`
	Generated       int           `json:"generated"`
	Failed          int           `json:"failed"`
	Batches         int           `json:"batches"`
	CompletionRate  float64       `json:"completion_rate"`
	Duration        time.Duration `json:"duration"`
}
