package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarryhq/quarry/internal/events"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	return NewCollector(prometheus.NewRegistry())
}

func TestTaskCompletedCountsByKindAndOutcome(t *testing.T) {
	t.Parallel()

	c := newTestCollector(t)
	c.TaskCompleted("question", 2*time.Second, nil)
	c.TaskCompleted("question", time.Second, nil)
	c.TaskCompleted("answer", 3*time.Second, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.tasksCompleted.WithLabelValues("question", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tasksCompleted.WithLabelValues("answer", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.taskDuration))
}

func TestGaugesTrackLatestValue(t *testing.T) {
	t.Parallel()

	c := newTestCollector(t)
	c.QueueDepth(7)
	c.QueueDepth(3)
	c.WorkersBusy(2, 5)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.queueDepth))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.workersBusy))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.workersTotal))
}

func TestHandleEventCountsRunCompletions(t *testing.T) {
	t.Parallel()

	c := newTestCollector(t)
	event, err := events.NewRunEvent(events.EventTypeRunCompleted, events.RunCompletedPayload{
		Region:     "安徽",
		Kind:       "questions",
		Status:     "completed",
		NewItems:   42,
		DurationMS: 1500,
	})
	require.NoError(t, err)

	require.NoError(t, c.HandleEvent(context.Background(), event))
	require.NoError(t, c.HandleEvent(context.Background(), event))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.runsCompleted.WithLabelValues("questions", "completed")))
	assert.Equal(t, 84.0, testutil.ToFloat64(c.runNewItems.WithLabelValues("questions")))
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	t.Parallel()

	c := newTestCollector(t)
	require.NoError(t, c.HandleEvent(context.Background(), nil))

	event, err := events.NewRunEvent("something_else", events.RunCompletedPayload{Kind: "questions"})
	require.NoError(t, err)
	require.NoError(t, c.HandleEvent(context.Background(), event))

	assert.Equal(t, 0, testutil.CollectAndCount(c.runsCompleted))
}

func TestHandleEventRejectsMalformedPayload(t *testing.T) {
	t.Parallel()

	c := newTestCollector(t)
	event := &events.RunEvent{
		Type:    events.EventTypeRunCompleted,
		Payload: json.RawMessage(`{"kind":`),
	}
	assert.Error(t, c.HandleEvent(context.Background(), event))
}
