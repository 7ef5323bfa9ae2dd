package generation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quarryhq/quarry/internal/domain"
	"github.com/quarryhq/quarry/internal/pool"
)

// TaskPool is the scheduling surface the orchestrators depend on. It is
// satisfied by *pool.Pool; tests substitute stubs that run tasks inline.
type TaskPool interface {
	// Submit schedules one task and blocks until it completes.
	Submit(ctx context.Context, task domain.Task) (domain.TaskResult, error)
}

// ProviderExecutor runs generation tasks by delegating to a Provider.
// The provider owns per-call retry; the executor only routes by task kind
// and wraps results. One executor backs one pool execution unit, but the
// underlying provider client is shared and must be safe for concurrent use.
type ProviderExecutor struct {
	provider domain.Provider
	logger   *slog.Logger
}

// NewProviderExecutor creates an executor backed by the given provider.
func NewProviderExecutor(provider domain.Provider, logger *slog.Logger) (*ProviderExecutor, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProviderExecutor{
		provider: provider,
		logger:   logger.With("component", "provider_executor"),
	}, nil
}

// Execute implements pool.Executor. Application-level shortfalls (an empty
// question batch, a fallback answer) come back inside the result; an error
// return means the call itself was impossible.
func (e *ProviderExecutor) Execute(ctx context.Context, task domain.Task) (domain.TaskResult, error) {
	switch t := task.(type) {
	case domain.QuestionTask:
		questions, err := e.provider.GenerateQuestions(ctx, t.Region, t.BatchSize, t.MaxAttempts)
		if err != nil {
			return domain.TaskResult{}, fmt.Errorf("generate questions: %w", err)
		}
		e.logger.Debug("question task finished",
			"region", t.Region.Name,
			"slot", t.Slot,
			"requested", t.BatchSize,
			"received", len(questions))
		return domain.TaskResult{Questions: questions}, nil

	case domain.AnswerTask:
		answer, err := e.provider.GenerateAnswer(ctx, t.Question, t.MaxAttempts)
		if err != nil {
			return domain.TaskResult{}, fmt.Errorf("generate answer: %w", err)
		}
		e.logger.Debug("answer task finished",
			"slot", t.Slot,
			"fallback", answer.IsFallback())
		return domain.TaskResult{Answer: &answer}, nil

	default:
		return domain.TaskResult{}, fmt.Errorf("%w: %s", domain.ErrUnknownTaskKind, task.Kind())
	}
}

// NewExecutorFactory returns a pool.ExecutorFactory whose executors all
// share the given provider.
func NewExecutorFactory(provider domain.Provider, logger *slog.Logger) pool.ExecutorFactory {
	return func(id int) (pool.Executor, error) {
		if logger == nil {
			logger = slog.Default()
		}
		return NewProviderExecutor(provider, logger.With("worker_id", id))
	}
}
