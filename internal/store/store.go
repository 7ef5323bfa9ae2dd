package store

import (
	"context"

	"github.com/quarryhq/quarry/internal/domain"
)

// QuestionStore persists the per-region question sets.
//
// Save has whole-collection overwrite semantics: every call replaces the
// full persisted set for the region. Load of a region that was never saved
// returns an empty slice, not an error.
type QuestionStore interface {
	// LoadQuestions returns every question stored for the region key.
	LoadQuestions(ctx context.Context, regionKey string) ([]domain.Question, error)

	// SaveQuestions replaces the stored question set for the region key.
	SaveQuestions(ctx context.Context, regionKey string, questions []domain.Question) error
}

// AnswerStore persists the per-region answer sets, with the same
// whole-collection overwrite semantics as QuestionStore.
type AnswerStore interface {
	// LoadAnswers returns every answer stored for the region key.
	LoadAnswers(ctx context.Context, regionKey string) ([]domain.AnswerItem, error)

	// SaveAnswers replaces the stored answer set for the region key.
	SaveAnswers(ctx context.Context, regionKey string, answers []domain.AnswerItem) error
}

// RegionStore combines question and answer persistence for one backend.
type RegionStore interface {
	QuestionStore
	AnswerStore
}

// RunStore persists orchestration run history. Run records are
// insert-only; there is no update or delete.
type RunStore interface {
	// SaveRun inserts one finished run record.
	SaveRun(ctx context.Context, run domain.RunRecord) error

	// ListRuns returns up to limit records, most recent first.
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
}
