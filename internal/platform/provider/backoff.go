package provider

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// NewLinearBackoff returns a backoff whose nth wait is n times the base
// delay: base, 2*base, 3*base, and so on. Each call returns independent
// state; do not share one backoff across retry loops.
func NewLinearBackoff(base time.Duration) retry.Backoff {
	var attempt int64
	return retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return time.Duration(attempt) * base, false
	})
}

// AttemptBudget converts a max-attempts count into the retry count expected
// by retry.WithMaxRetries: total attempts minus the initial call, never
// negative.
func AttemptBudget(maxAttempts int) uint64 {
	if maxAttempts <= 1 {
		return 0
	}
	return uint64(maxAttempts - 1)
}
