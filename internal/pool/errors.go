package pool

import "errors"

// Pool lifecycle and construction errors.
var (
	// ErrTerminated is returned for submissions that can no longer run
	// because the pool has been terminated. Queued tasks abandoned by
	// Terminate fail with this error as well.
	ErrTerminated = errors.New("worker pool is terminated")

	// ErrNoUsableWorkers is returned by New when every execution unit
	// creation failed. A pool with zero units could never dispatch a task,
	// so this aborts the run.
	ErrNoUsableWorkers = errors.New("no usable execution units")

	// ErrNilExecutorFactory is returned by New when no factory is provided.
	ErrNilExecutorFactory = errors.New("executor factory cannot be nil")

	// ErrNilTask is returned by Submit for a nil task.
	ErrNilTask = errors.New("task cannot be nil")
)
