package generation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarryhq/quarry/internal/domain"
	"github.com/quarryhq/quarry/internal/events"
)

func TestNewRunRecorderNilStore(t *testing.T) {
	t.Parallel()

	_, err := NewRunRecorder(nil, testLogger())
	assert.ErrorIs(t, err, ErrNilStore)
}

func TestRunRecorderSavesCompletedRun(t *testing.T) {
	t.Parallel()

	runs := &memRunStore{}
	recorder, err := NewRunRecorder(runs, testLogger())
	require.NoError(t, err)

	event, err := events.NewRunEvent(events.EventTypeRunCompleted, events.RunCompletedPayload{
		Region:         "anhui",
		Kind:           string(domain.RunKindQuestions),
		Status:         string(domain.RunStatusCompleted),
		Requested:      100,
		NewItems:       40,
		Total:          100,
		CompletionRate: 1.0,
		DurationMS:     2500,
	})
	require.NoError(t, err)

	require.NoError(t, recorder.HandleEvent(context.Background(), event))

	saved := runs.savedRuns()
	require.Len(t, saved, 1)
	record := saved[0]
	assert.Equal(t, event.ID, record.ID)
	assert.Equal(t, "anhui", record.Region)
	assert.Equal(t, domain.RunKindQuestions, record.Kind)
	assert.Equal(t, domain.RunStatusCompleted, record.Status)
	assert.Equal(t, 100, record.Requested)
	assert.Equal(t, 40, record.NewItems)
	assert.Equal(t, 100, record.Total)
	assert.Equal(t, 2500*time.Millisecond, record.Duration)
	assert.Equal(t, event.CreatedAt, record.CreatedAt)
}

func TestRunRecorderIgnoresOtherEventTypes(t *testing.T) {
	t.Parallel()

	runs := &memRunStore{}
	recorder, err := NewRunRecorder(runs, testLogger())
	require.NoError(t, err)

	event, err := events.NewRunEvent("some_other_event", map[string]string{"k": "v"})
	require.NoError(t, err)

	require.NoError(t, recorder.HandleEvent(context.Background(), event))
	assert.Empty(t, runs.savedRuns())
}

func TestRunRecorderRejectsMalformedPayload(t *testing.T) {
	t.Parallel()

	runs := &memRunStore{}
	recorder, err := NewRunRecorder(runs, testLogger())
	require.NoError(t, err)

	event := &events.RunEvent{
		ID:        uuid.New(),
		Type:      events.EventTypeRunCompleted,
		Payload:   json.RawMessage(`{"region":`),
		CreatedAt: time.Now(),
	}

	assert.Error(t, recorder.HandleEvent(context.Background(), event))
	assert.Empty(t, runs.savedRuns())
}

func TestRunRecorderRejectsInvalidRecord(t *testing.T) {
	t.Parallel()

	runs := &memRunStore{}
	recorder, err := NewRunRecorder(runs, testLogger())
	require.NoError(t, err)

	event, err := events.NewRunEvent(events.EventTypeRunCompleted, events.RunCompletedPayload{
		Region: "anhui",
		Kind:   "not-a-kind",
		Status: string(domain.RunStatusCompleted),
	})
	require.NoError(t, err)

	err = recorder.HandleEvent(context.Background(), event)
	assert.ErrorIs(t, err, domain.ErrInvalidRunKind)
	assert.Empty(t, runs.savedRuns())
}

func TestRunRecorderPropagatesSaveFailure(t *testing.T) {
	t.Parallel()

	runs := &memRunStore{saveErr: assert.AnError}
	recorder, err := NewRunRecorder(runs, testLogger())
	require.NoError(t, err)

	event, err := events.NewRunEvent(events.EventTypeRunCompleted, events.RunCompletedPayload{
		Region: "anhui",
		Kind:   string(domain.RunKindAnswers),
		Status: string(domain.RunStatusCompleted),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, recorder.HandleEvent(context.Background(), event), assert.AnError)
}
