package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarryhq/quarry/internal/domain"
	"github.com/quarryhq/quarry/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubDB satisfies DBTX and records ExecContext calls.
type stubDB struct {
	execErr  error
	lastSQL  string
	lastArgs []any
}

func (s *stubDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	s.lastSQL = query
	s.lastArgs = args
	if s.execErr != nil {
		return nil, s.execErr
	}
	return stubResult{}, nil
}

func (s *stubDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, errors.New("stub: not implemented")
}

func (s *stubDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

type stubResult struct{}

func (stubResult) LastInsertId() (int64, error) { return 0, nil }
func (stubResult) RowsAffected() (int64, error) { return 1, nil }

func validRun() domain.RunRecord {
	return domain.RunRecord{
		ID:             uuid.New(),
		Region:         "安徽",
		Kind:           domain.RunKindQuestions,
		Status:         domain.RunStatusCompleted,
		Requested:      100,
		NewItems:       40,
		Total:          100,
		CompletionRate: 1.0,
		Duration:       90 * time.Second,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestNewRunStorePanicsOnNilDB(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		NewRunStore(nil, testLogger())
	})
}

func TestSaveRunInsertsAllColumns(t *testing.T) {
	t.Parallel()

	db := &stubDB{}
	s := NewRunStore(db, testLogger())
	run := validRun()

	require.NoError(t, s.SaveRun(context.Background(), run))

	assert.Contains(t, db.lastSQL, "INSERT INTO generation_runs")
	require.Len(t, db.lastArgs, 11)
	assert.Equal(t, run.ID, db.lastArgs[0])
	assert.Equal(t, run.Region, db.lastArgs[1])
	assert.Equal(t, "questions", db.lastArgs[2])
	assert.Equal(t, "completed", db.lastArgs[3])
	assert.Equal(t, run.Duration.Milliseconds(), db.lastArgs[8])
}

func TestSaveRunRejectsInvalidRecord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*domain.RunRecord)
	}{
		{"nil id", func(r *domain.RunRecord) { r.ID = uuid.Nil }},
		{"empty region", func(r *domain.RunRecord) { r.Region = "" }},
		{"bad kind", func(r *domain.RunRecord) { r.Kind = "sideways" }},
		{"bad status", func(r *domain.RunRecord) { r.Status = "maybe" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := &stubDB{}
			s := NewRunStore(db, testLogger())
			run := validRun()
			tt.mutate(&run)

			err := s.SaveRun(context.Background(), run)
			assert.ErrorIs(t, err, store.ErrInvalidEntity)
			assert.Empty(t, db.lastSQL, "invalid records must not reach the database")
		})
	}
}

func TestSaveRunMapsUniqueViolationToDuplicate(t *testing.T) {
	t.Parallel()

	db := &stubDB{execErr: &pgconn.PgError{Code: uniqueViolationCode}}
	s := NewRunStore(db, testLogger())

	err := s.SaveRun(context.Background(), validRun())
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: uniqueViolationCode}, store.ErrDuplicate},
		{"check violation", &pgconn.PgError{Code: checkViolationCode}, store.ErrInvalidEntity},
		{"not null violation", &pgconn.PgError{Code: notNullViolationCode}, store.ErrInvalidEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := MapError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	t.Run("unmapped errors pass through", func(t *testing.T) {
		t.Parallel()

		plain := fmt.Errorf("connection refused")
		assert.Equal(t, plain, MapError(plain))
	})
}

func TestIsHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))

	assert.True(t, IsNotFoundError(sql.ErrNoRows))
	assert.True(t, IsNotFoundError(fmt.Errorf("wrapped: %w", store.ErrNotFound)))
	assert.False(t, IsNotFoundError(errors.New("plain")))
}
