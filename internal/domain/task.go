package domain

// TaskKind discriminates the generation task variants.
type TaskKind string

// Possible task kinds.
const (
	TaskKindQuestion TaskKind = "question"
	TaskKindAnswer   TaskKind = "answer"
)

// Task is the unit of work dispatched to the worker pool. It is a closed
// union: QuestionTask and AnswerTask are the only variants. Tasks are
// transient, created per dispatch and discarded once their result returns.
type Task interface {
	Kind() TaskKind
}

// QuestionTask requests a batch of candidate questions for a region.
// Slot records which parallel slot of the batch the task occupies; it is
// carried through to logs only.
type QuestionTask struct {
	Region      Region
	BatchSize   int
	MaxAttempts int
	Slot        int
}

// Kind implements Task.
func (QuestionTask) Kind() TaskKind { return TaskKindQuestion }

// AnswerTask requests a single answer for a known question text.
type AnswerTask struct {
	Question    string
	MaxAttempts int
	Slot        int
}

// Kind implements Task.
func (AnswerTask) Kind() TaskKind { return TaskKindAnswer }

// TaskResult carries the typed outcome of a task. Exactly one field is
// populated, matching the task kind: Questions for QuestionTask, Answer
// for AnswerTask.
type TaskResult struct {
	Questions []Question
	Answer    *AnswerItem
}
