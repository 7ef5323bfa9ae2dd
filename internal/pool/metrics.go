package pool

import "time"

// Metrics is a point-in-time snapshot of pool activity.
type Metrics struct {
	WorkerCount     int
	BusyWorkers     int
	QueueLength     int
	TasksSubmitted  int64
	TasksCompleted  int64
	TasksFailed     int64
	TasksQueued     int64
	AvgTaskDuration time.Duration
	Utilization     float64
}

// Observer receives pool activity signals as they happen. Implementations
// must be cheap and non-blocking; they are called on the task completion
// path.
type Observer interface {
	// TaskCompleted fires once per finished task, fault or not.
	TaskCompleted(taskKind string, duration time.Duration, err error)
	// QueueDepth fires whenever the queue length changes.
	QueueDepth(n int)
	// WorkersBusy fires on busy-set transitions.
	WorkersBusy(busy, total int)
}

type noopObserver struct{}

func (noopObserver) TaskCompleted(string, time.Duration, error) {}
func (noopObserver) QueueDepth(int)                             {}
func (noopObserver) WorkersBusy(int, int)                       {}

// Metrics returns a read-only snapshot of the pool's counters. TasksQueued
// counts submissions that had to wait for a unit, cumulatively;
// QueueLength is the number waiting right now.
func (p *Pool) Metrics() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()

	m := Metrics{
		WorkerCount:    len(p.units),
		BusyWorkers:    p.busyCountLocked(),
		QueueLength:    len(p.queue),
		TasksSubmitted: p.tasksSubmitted,
		TasksCompleted: p.tasksCompleted,
		TasksFailed:    p.tasksFailed,
		TasksQueued:    p.tasksQueued,
	}
	if done := p.tasksCompleted + p.tasksFailed; done > 0 {
		m.AvgTaskDuration = p.totalTaskTime / time.Duration(done)
	}
	if len(p.units) > 0 {
		m.Utilization = float64(m.BusyWorkers) / float64(len(p.units))
	}
	return m
}
