package pool

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quarryhq/quarry/internal/domain"
)

// MaxPoolSize is the hard ceiling on execution units, applied regardless
// of the requested size to bound resource usage and provider concurrency.
const MaxPoolSize = 50

// Config holds configuration for the worker pool.
type Config struct {
	// Size is the requested number of execution units. Capped at
	// MaxPoolSize; the effective pool may also be smaller if unit
	// creation fails.
	Size int

	// StuckThreshold defines how long a unit may stay busy on one task
	// before the health check flags it. If zero, defaults to 10 minutes.
	StuckThreshold time.Duration

	// HealthCheckInterval defines how often to check for stuck units.
	// If zero, defaults to 1 minute.
	HealthCheckInterval time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Size:                4,
		StuckThreshold:      10 * time.Minute,
		HealthCheckInterval: time.Minute,
	}
}

// Pool schedules generation tasks across a fixed set of execution units.
//
// Submissions dispatch immediately when an idle unit exists, preferring
// the unit with the fewest completed tasks; otherwise they wait in a FIFO
// queue until a unit frees up. Callers block until their task completes,
// which is the system's backpressure: at most pool-size provider calls are
// ever in flight, and everything else waits in process.
type Pool struct {
	cfg      Config
	logger   *slog.Logger
	observer Observer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	units      []*unit
	queue      []*pending
	terminated bool

	tasksSubmitted int64
	tasksCompleted int64
	tasksFailed    int64
	tasksQueued    int64
	totalTaskTime  time.Duration
}

// New creates a pool with up to min(cfg.Size, MaxPoolSize) execution
// units, created eagerly. A factory failure logs a warning and skips that
// unit; the pool tolerates running smaller than requested. Only a pool
// that ends up with zero units fails, with ErrNoUsableWorkers.
//
// obs may be nil; pass an Observer to export pool activity as metrics.
func New(cfg Config, factory ExecutorFactory, logger *slog.Logger, obs Observer) (*Pool, error) {
	if factory == nil {
		return nil, ErrNilExecutorFactory
	}
	if logger == nil {
		logger = slog.Default()
	}
	if obs == nil {
		obs = noopObserver{}
	}
	if cfg.StuckThreshold == 0 {
		cfg.StuckThreshold = 10 * time.Minute
	}
	if cfg.HealthCheckInterval == 0 {
		cfg.HealthCheckInterval = time.Minute
	}

	size := cfg.Size
	if size > MaxPoolSize {
		logger.Warn("requested pool size exceeds ceiling, capping",
			"requested", size,
			"cap", MaxPoolSize)
		size = MaxPoolSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		cfg:      cfg,
		logger:   logger,
		observer: obs,
		ctx:      ctx,
		cancel:   cancel,
	}

	now := time.Now()
	for i := 0; i < size; i++ {
		executor, err := factory(i)
		if err != nil {
			logger.Warn("skipping execution unit, creation failed",
				"worker_id", i,
				"error", err)
			continue
		}
		p.units = append(p.units, &unit{
			id:             i,
			executor:       executor,
			taskCh:         make(chan *pending, 1),
			createdAt:      now,
			lastActivityAt: now,
		})
	}

	if len(p.units) == 0 {
		cancel()
		return nil, ErrNoUsableWorkers
	}
	if len(p.units) < size {
		logger.Warn("pool running below requested size",
			"requested", size,
			"actual", len(p.units))
	}

	for _, u := range p.units {
		p.wg.Add(1)
		go p.worker(u)
	}

	p.wg.Add(1)
	go p.healthMonitor()

	logger.Info("worker pool started",
		"pool_size", len(p.units),
		"stuck_threshold", cfg.StuckThreshold.String())

	return p, nil
}

// Submit schedules one task and blocks until it completes, returning
// whatever the execution unit produced. Application-level failures (an
// empty batch, a fallback answer) come back as normal results; an error
// means the unit itself faulted, the pool was terminated while the task
// waited, or ctx ended first.
//
// A ctx cancellation only releases the caller: a task already dispatched
// keeps running on its unit, and a task still queued is dropped when its
// turn comes.
func (p *Pool) Submit(ctx context.Context, task domain.Task) (domain.TaskResult, error) {
	if task == nil {
		return domain.TaskResult{}, ErrNilTask
	}

	pend := &pending{
		task:   task,
		ctx:    ctx,
		result: make(chan taskOutcome, 1),
	}

	p.mu.Lock()
	if p.terminated {
		p.mu.Unlock()
		return domain.TaskResult{}, ErrTerminated
	}
	p.tasksSubmitted++
	if u := p.idleLeastUsedLocked(); u != nil {
		p.dispatchLocked(u, pend)
	} else {
		p.queue = append(p.queue, pend)
		p.tasksQueued++
		p.observer.QueueDepth(len(p.queue))
	}
	p.mu.Unlock()

	select {
	case out := <-pend.result:
		return out.result, out.err
	case <-ctx.Done():
		return domain.TaskResult{}, ctx.Err()
	}
}

// Terminate stops the health check, disposes every execution unit, and
// fails all queued-but-undispatched submissions with ErrTerminated. It
// does not wait for in-flight tasks; their submitters still receive
// results when the provider call returns. Idempotent. Submitting after
// Terminate returns ErrTerminated.
func (p *Pool) Terminate() {
	p.mu.Lock()
	if p.terminated {
		p.mu.Unlock()
		return
	}
	p.terminated = true
	abandoned := p.queue
	p.queue = nil
	p.mu.Unlock()

	p.cancel()

	for _, pend := range abandoned {
		pend.result <- taskOutcome{err: ErrTerminated}
	}
	if len(abandoned) > 0 {
		p.logger.Warn("terminated with queued tasks abandoned",
			"abandoned", len(abandoned))
	}
	p.observer.QueueDepth(0)
	p.logger.Info("worker pool terminated")
}

// dispatchLocked hands a task to an idle unit. The unit's channel has
// capacity 1 and is empty whenever the unit is idle, so the send cannot
// block. Callers hold p.mu.
func (p *Pool) dispatchLocked(u *unit, pend *pending) {
	now := time.Now()
	u.busy = true
	u.busySince = now
	u.lastActivityAt = now
	u.taskCh <- pend
}

// idleLeastUsedLocked returns the idle unit with the fewest completed
// tasks, ties resolved by creation order, or nil when every unit is busy.
// Callers hold p.mu.
func (p *Pool) idleLeastUsedLocked() *unit {
	var best *unit
	for _, u := range p.units {
		if u.busy {
			continue
		}
		if best == nil || u.completedTasks < best.completedTasks {
			best = u
		}
	}
	return best
}

// onTaskDone returns a unit to the idle set, records accounting, and
// drains the queue onto whatever units are now idle.
func (p *Pool) onTaskDone(u *unit, kind domain.TaskKind, duration time.Duration, err error) {
	p.mu.Lock()
	u.busy = false
	u.completedTasks++
	u.lastActivityAt = time.Now()
	if err != nil {
		p.tasksFailed++
	} else {
		p.tasksCompleted++
	}
	p.totalTaskTime += duration
	p.drainQueueLocked()
	busy := p.busyCountLocked()
	total := len(p.units)
	depth := len(p.queue)
	p.mu.Unlock()

	p.observer.TaskCompleted(string(kind), duration, err)
	p.observer.WorkersBusy(busy, total)
	p.observer.QueueDepth(depth)
}

// drainQueueLocked dispatches queued tasks in strict FIFO order onto idle
// units until either runs out. Submissions whose caller context already
// ended are dropped. Callers hold p.mu.
func (p *Pool) drainQueueLocked() {
	for len(p.queue) > 0 {
		u := p.idleLeastUsedLocked()
		if u == nil {
			return
		}
		pend := p.queue[0]
		p.queue = p.queue[1:]
		if pend.ctx.Err() != nil {
			p.logger.Debug("dropping abandoned queued task",
				"task_kind", string(pend.task.Kind()))
			continue
		}
		p.dispatchLocked(u, pend)
	}
}

func (p *Pool) busyCountLocked() int {
	busy := 0
	for _, u := range p.units {
		if u.busy {
			busy++
		}
	}
	return busy
}
