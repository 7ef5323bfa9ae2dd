package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/quarryhq/quarry/internal/domain"
	"github.com/quarryhq/quarry/internal/store"
)

// DBTX is the slice of database/sql this store needs. Both *sql.DB and
// *sql.Tx satisfy it, so callers choose the transaction boundary.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RunStore implements store.RunStore on PostgreSQL. One row per finished
// orchestration run; rows are insert-only.
type RunStore struct {
	db     DBTX
	logger *slog.Logger
}

// NewRunStore creates a RunStore. It accepts a database connection or
// transaction initialized and managed by the caller. If logger is nil, the
// process default is used.
func NewRunStore(db DBTX, logger *slog.Logger) *RunStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RunStore{
		db:     db,
		logger: logger.With(slog.String("component", "run_store")),
	}
}

// Ensure RunStore implements store.RunStore.
var _ store.RunStore = (*RunStore)(nil)

// SaveRun implements store.RunStore.SaveRun. Returns store.ErrDuplicate
// wrapped when a record with the same ID already exists, and validation
// errors from the domain record when the data is invalid.
func (s *RunStore) SaveRun(ctx context.Context, run domain.RunRecord) error {
	if err := run.Validate(); err != nil {
		s.logger.Warn("run record validation failed",
			slog.String("run_id", run.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO generation_runs (
			id, region, kind, status, requested, new_items, total,
			completion_rate, duration_ms, error_message, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		run.ID,
		run.Region,
		string(run.Kind),
		string(run.Status),
		run.Requested,
		run.NewItems,
		run.Total,
		run.CompletionRate,
		run.Duration.Milliseconds(),
		run.ErrorMessage,
		createdAt,
	)
	if err != nil {
		s.logger.Error("failed to save run record",
			slog.String("run_id", run.ID.String()),
			slog.String("region", run.Region),
			slog.String("error", err.Error()))
		return fmt.Errorf("save run record: %w", MapError(err))
	}

	return nil
}

// ListRuns implements store.RunStore.ListRuns, returning up to limit
// records, most recent first. A non-positive limit uses a default of 50.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, region, kind, status, requested, new_items, total,
		       completion_rate, duration_ms, error_message, created_at
		FROM generation_runs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		s.logger.Error("failed to list run records", slog.String("error", err.Error()))
		return nil, fmt.Errorf("list run records: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	runs := []domain.RunRecord{}
	for rows.Next() {
		var (
			run        domain.RunRecord
			kind       string
			status     string
			durationMS int64
		)
		if err := rows.Scan(
			&run.ID,
			&run.Region,
			&kind,
			&status,
			&run.Requested,
			&run.NewItems,
			&run.Total,
			&run.CompletionRate,
			&durationMS,
			&run.ErrorMessage,
			&run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run record: %w", MapError(err))
		}
		run.Kind = domain.RunKind(kind)
		run.Status = domain.RunStatus(status)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run records: %w", MapError(err))
	}

	return runs, nil
}
