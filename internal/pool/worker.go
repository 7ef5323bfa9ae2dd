package pool

import (
	"context"
	"time"

	"github.com/quarryhq/quarry/internal/domain"
)

// Executor runs a single generation task to completion. Implementations
// own task semantics end to end; the pool never inspects results. An
// application-level failure (empty batch, fallback answer) is a normal
// return value, not an error. Errors signal a fault of the unit itself.
type Executor interface {
	Execute(ctx context.Context, task domain.Task) (domain.TaskResult, error)
}

// ExecutorFactory builds the executor backing execution unit id. A factory
// error skips that unit; the pool tolerates ending up smaller than
// requested.
type ExecutorFactory func(id int) (Executor, error)

// WorkerState is a read-only snapshot of one execution unit.
type WorkerState struct {
	ID             int
	Busy           bool
	CompletedTasks int
	CreatedAt      time.Time
	LastActivityAt time.Time
}

// unit is the pool-internal state of one execution unit. All fields after
// executor are guarded by the pool mutex.
type unit struct {
	id       int
	executor Executor
	taskCh   chan *pending

	busy           bool
	busySince      time.Time
	completedTasks int
	createdAt      time.Time
	lastActivityAt time.Time
}

// pending is one submitted task waiting for dispatch and completion. The
// result channel has capacity 1 so delivery never blocks, even when the
// submitter has already given up.
type pending struct {
	task   domain.Task
	ctx    context.Context
	result chan taskOutcome
}

type taskOutcome struct {
	result domain.TaskResult
	err    error
}

// worker is the run loop of one execution unit. It exits when the pool
// context is cancelled; any task already handed over but not yet started
// is failed with ErrTerminated on the way out.
func (p *Pool) worker(u *unit) {
	defer p.wg.Done()

	p.logger.Debug("starting execution unit", "worker_id", u.id)

	for {
		select {
		case <-p.ctx.Done():
			select {
			case pend := <-u.taskCh:
				pend.result <- taskOutcome{err: ErrTerminated}
			default:
			}
			p.logger.Debug("stopping execution unit", "worker_id", u.id)
			return

		case pend := <-u.taskCh:
			p.runTask(u, pend)
		}
	}
}

// runTask executes one dispatched task, returns the unit to the idle set,
// and then delivers the outcome to the submitter. Accounting settles before
// the submitter wakes, so a caller observing its own completion sees the
// pool state it implies.
func (p *Pool) runTask(u *unit, pend *pending) {
	logger := p.logger.With(
		"worker_id", u.id,
		"task_kind", string(pend.task.Kind()),
	)
	logger.Debug("executing task")

	started := time.Now()
	result, err := u.executor.Execute(pend.ctx, pend.task)
	duration := time.Since(started)

	if err != nil {
		// A unit fault, not an application-level failure. The submitter
		// decides whether to retry; the unit goes back to idle.
		logger.Error("execution unit fault", "error", err, "duration", duration)
	} else {
		logger.Debug("task finished", "duration", duration)
	}

	p.onTaskDone(u, pend.task.Kind(), duration, err)
	pend.result <- taskOutcome{result: result, err: err}
}

// Workers returns a snapshot of every execution unit's state.
func (p *Pool) Workers() []WorkerState {
	p.mu.Lock()
	defer p.mu.Unlock()

	states := make([]WorkerState, 0, len(p.units))
	for _, u := range p.units {
		states = append(states, WorkerState{
			ID:             u.id,
			Busy:           u.busy,
			CompletedTasks: u.completedTasks,
			CreatedAt:      u.createdAt,
			LastActivityAt: u.lastActivityAt,
		})
	}
	return states
}
