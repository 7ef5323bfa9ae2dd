package generation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quarryhq/quarry/internal/domain"
	"github.com/quarryhq/quarry/internal/events"
	"github.com/quarryhq/quarry/internal/redact"
	"github.com/quarryhq/quarry/internal/store"
)

// RunRecorder persists run-completed events as run records. It subscribes
// to the event emitter so the orchestrators stay unaware of whether run
// history is enabled at all.
type RunRecorder struct {
	runs   store.RunStore
	logger *slog.Logger
}

// NewRunRecorder creates a RunRecorder backed by the given run store.
func NewRunRecorder(runs store.RunStore, logger *slog.Logger) (*RunRecorder, error) {
	if runs == nil {
		return nil, ErrNilStore
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RunRecorder{
		runs:   runs,
		logger: logger.With("component", "run_recorder"),
	}, nil
}

// HandleEvent implements events.Handler. Events other than run completions
// are ignored.
func (r *RunRecorder) HandleEvent(ctx context.Context, event *events.RunEvent) error {
	if event.Type != events.EventTypeRunCompleted {
		return nil
	}

	var payload events.RunCompletedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("decode run payload: %w", err)
	}

	record := domain.RunRecord{
		ID:             event.ID,
		Region:         payload.Region,
		Kind:           domain.RunKind(payload.Kind),
		Status:         domain.RunStatus(payload.Status),
		Requested:      payload.Requested,
		NewItems:       payload.NewItems,
		Total:          payload.Total,
		CompletionRate: payload.CompletionRate,
		Duration:       time.Duration(payload.DurationMS) * time.Millisecond,
		ErrorMessage:   payload.Error,
		CreatedAt:      event.CreatedAt,
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid run record: %w", err)
	}

	if err := r.runs.SaveRun(ctx, record); err != nil {
		return fmt.Errorf("save run record: %w", err)
	}

	r.logger.Debug("run record saved",
		"run_id", record.ID,
		"region", record.Region,
		"kind", string(record.Kind),
		"status", string(record.Status))
	return nil
}

// emitRunCompleted builds and publishes a run-completed event. A nil
// emitter, a marshalling failure, or a handler failure only logs: run
// history is best-effort and never disturbs the run itself.
func emitRunCompleted(
	ctx context.Context,
	emitter events.Emitter,
	logger *slog.Logger,
	payload events.RunCompletedPayload,
) {
	if emitter == nil {
		return
	}
	event, err := events.NewRunEvent(events.EventTypeRunCompleted, payload)
	if err != nil {
		logger.Warn("building run event failed", "error", err)
		return
	}
	// Outcomes are recorded even when the run ended on a cancelled context.
	if err := emitter.EmitEvent(context.WithoutCancel(ctx), event); err != nil {
		logger.Warn("emitting run event failed", "error", err)
	}
}

// runStatus maps a run error to the recorded status.
func runStatus(runErr error) string {
	if runErr != nil {
		return string(domain.RunStatusFailed)
	}
	return string(domain.RunStatusCompleted)
}

// errString renders an error for the run payload, empty for nil. Stored
// and served error messages are redacted: provider and database errors
// tend to echo credentials.
func errString(err error) string {
	return redact.Error(err)
}
