package generation

import (
	"context"
	"sync"
	"time"

	"github.com/quarryhq/quarry/internal/domain"
)

// slotOutcome pairs one slot's task result with its Submit error, if any.
type slotOutcome struct {
	result domain.TaskResult
	err    error
}

// submitAll dispatches every task on the pool concurrently and waits for
// all of them. Outcomes are slot-indexed: outcomes[i] belongs to tasks[i].
// Each goroutine writes only its own slot, so no locking is needed.
func submitAll(ctx context.Context, p TaskPool, tasks []domain.Task) []slotOutcome {
	outcomes := make([]slotOutcome, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(slot int, t domain.Task) {
			defer wg.Done()
			result, err := p.Submit(ctx, t)
			outcomes[slot] = slotOutcome{result: result, err: err}
		}(i, task)
	}
	wg.Wait()

	return outcomes
}

// sleepCtx blocks for d or until ctx ends, whichever comes first, and
// returns the context error when interrupted.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
