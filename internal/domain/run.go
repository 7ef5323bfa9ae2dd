package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunKind discriminates the two orchestration modes.
type RunKind string

// Possible run kinds.
const (
	RunKindQuestions RunKind = "questions"
	RunKindAnswers   RunKind = "answers"
)

// RunStatus is the terminal outcome of an orchestration run.
type RunStatus string

// Possible run statuses. A run that falls short of its target still
// completes; RunStatusFailed is reserved for runs aborted by an error.
const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunRecord is the persisted history entry for one orchestration run.
// Records are written once when a run finishes and never updated.
type RunRecord struct {
	ID             uuid.UUID     `json:"id"`
	Region         string        `json:"region"`
	Kind           RunKind       `json:"kind"`
	Status         RunStatus     `json:"status"`
	Requested      int           `json:"requested"`
	NewItems       int           `json:"new_items"`
	Total          int           `json:"total"`
	CompletionRate float64       `json:"completion_rate"`
	Duration       time.Duration `json:"duration"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Validate checks if the RunRecord has valid data.
func (r RunRecord) Validate() error {
	if r.ID == uuid.Nil {
		return ErrInvalidRunID
	}
	if r.Region == "" {
		return ErrEmptyRegionName
	}
	switch r.Kind {
	case RunKindQuestions, RunKindAnswers:
	default:
		return ErrInvalidRunKind
	}
	switch r.Status {
	case RunStatusCompleted, RunStatusFailed:
	default:
		return ErrInvalidRunStatus
	}
	return nil
}
