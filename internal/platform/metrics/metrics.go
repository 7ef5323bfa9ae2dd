package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/quarryhq/quarry/internal/events"
	"github.com/quarryhq/quarry/internal/pool"
)

// Collector translates pool activity and run completion events into
// Prometheus metrics. Construct one per process; the metric families
// register on the given Registerer exactly once.
type Collector struct {
	tasksCompleted *prometheus.CounterVec
	taskDuration   *prometheus.HistogramVec
	queueDepth     prometheus.Gauge
	workersBusy    prometheus.Gauge
	workersTotal   prometheus.Gauge

	runsCompleted *prometheus.CounterVec
	runNewItems   *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
}

var (
	_ pool.Observer  = (*Collector)(nil)
	_ events.Handler = (*Collector)(nil)
)

// NewCollector registers the quarry metric families on reg and returns
// the collector feeding them.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		tasksCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quarry_pool_tasks_completed_total",
				Help: "Total number of tasks finished by the worker pool",
			},
			[]string{"kind", "outcome"},
		),
		taskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quarry_pool_task_duration_seconds",
				Help:    "Task execution duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"kind"},
		),
		queueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "quarry_pool_queue_depth",
				Help: "Current number of tasks waiting for an idle worker",
			},
		),
		workersBusy: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "quarry_pool_workers_busy",
				Help: "Current number of workers executing a task",
			},
		),
		workersTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "quarry_pool_workers_total",
				Help: "Size of the worker pool",
			},
		),
		runsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quarry_runs_completed_total",
				Help: "Total number of generation runs by kind and status",
			},
			[]string{"kind", "status"},
		),
		runNewItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quarry_run_new_items_total",
				Help: "Total number of items persisted by generation runs",
			},
			[]string{"kind"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quarry_run_duration_seconds",
				Help:    "Generation run duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"kind"},
		),
	}
}

// TaskCompleted records one finished task with its outcome and duration.
func (c *Collector) TaskCompleted(taskKind string, duration time.Duration, err error) {
	c.tasksCompleted.WithLabelValues(taskKind, outcome(err)).Inc()
	c.taskDuration.WithLabelValues(taskKind).Observe(duration.Seconds())
}

// QueueDepth tracks the number of tasks waiting for a worker.
func (c *Collector) QueueDepth(n int) {
	c.queueDepth.Set(float64(n))
}

// WorkersBusy tracks the busy and total worker counts.
func (c *Collector) WorkersBusy(busy, total int) {
	c.workersBusy.Set(float64(busy))
	c.workersTotal.Set(float64(total))
}

// HandleEvent counts run completions. Event types other than run
// completion are ignored.
func (c *Collector) HandleEvent(_ context.Context, event *events.RunEvent) error {
	if event == nil || event.Type != events.EventTypeRunCompleted {
		return nil
	}
	var payload events.RunCompletedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("decode run completion payload: %w", err)
	}
	c.runsCompleted.WithLabelValues(payload.Kind, payload.Status).Inc()
	c.runNewItems.WithLabelValues(payload.Kind).Add(float64(payload.NewItems))
	c.runDuration.WithLabelValues(payload.Kind).Observe(float64(payload.DurationMS) / 1000)
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
