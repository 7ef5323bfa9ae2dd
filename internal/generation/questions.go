package generation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quarryhq/quarry/internal/batch"
	"github.com/quarryhq/quarry/internal/domain"
	"github.com/quarryhq/quarry/internal/events"
	"github.com/quarryhq/quarry/internal/similarity"
	"github.com/quarryhq/quarry/internal/store"
)

// QuestionOptions tunes one question-generation run.
type QuestionOptions struct {
	// TargetCount is the number of questions to accumulate for the region,
	// counting what is already stored. Zero or negative means the target is
	// trivially met.
	TargetCount int

	// WorkerCount is how many parallel question tasks each iteration
	// dispatches.
	WorkerCount int

	// MaxPerWorkerBatch caps how many questions one task may request.
	MaxPerWorkerBatch int

	// MaxRetries bounds zero-progress iterations across the whole run. The
	// counter never resets: once MaxRetries iterations have added nothing,
	// the run returns what accumulated.
	MaxRetries int

	// MaxAttempts bounds provider-internal retries per task.
	MaxAttempts int

	// RetryDelay is the base pause after a zero-progress iteration; the
	// actual pause grows linearly with the retry count. Defaults to 5s.
	RetryDelay time.Duration

	// DomainPrefix is stripped from candidate and corpus texts before
	// near-duplicate scoring, so a shared prompt prefix does not inflate
	// similarity. Empty disables stripping.
	DomainPrefix string
}

func (o QuestionOptions) withDefaults() QuestionOptions {
	if o.WorkerCount <= 0 {
		o.WorkerCount = 4
	}
	if o.MaxPerWorkerBatch <= 0 {
		o.MaxPerWorkerBatch = 10
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 10
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 5 * time.Second
	}
	return o
}

// QuestionOrchestrator drives the question convergence loop for a region:
// load what exists, dispatch parallel generation tasks, filter the returns
// against the accumulated corpus, persist, and repeat until the target is
// met or the retry budget runs out.
//
// The orchestrator is stateless across runs; a single instance may serve
// many regions, though each Run mutates only state it created. Falling
// short of the target is a reported outcome, not an error: errors are
// reserved for a failed initial load and context cancellation.
type QuestionOrchestrator struct {
	pool      TaskPool
	questions store.QuestionStore
	emitter   events.Emitter
	logger    *slog.Logger
}

// NewQuestionOrchestrator creates a QuestionOrchestrator. The emitter may
// be nil when no run recording is wanted.
func NewQuestionOrchestrator(
	taskPool TaskPool,
	questions store.QuestionStore,
	emitter events.Emitter,
	logger *slog.Logger,
) (*QuestionOrchestrator, error) {
	if taskPool == nil {
		return nil, ErrNilPool
	}
	if questions == nil {
		return nil, ErrNilStore
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionOrchestrator{
		pool:      taskPool,
		questions: questions,
		emitter:   emitter,
		logger:    logger.With("component", "question_orchestrator"),
	}, nil
}

// RunQuestions generates questions for the region until the stored set
// reaches opts.TargetCount or opts.MaxRetries iterations add nothing new.
// The stored set only ever grows: the final set is a strict superset of
// what was loaded.
func (o *QuestionOrchestrator) RunQuestions(
	ctx context.Context,
	region domain.Region,
	opts QuestionOptions,
) (domain.QuestionSummary, error) {
	opts = opts.withDefaults()
	logger := o.logger.With("region", region.Name)
	start := time.Now()

	loaded, err := o.questions.LoadQuestions(ctx, region.Key())
	if err != nil {
		err = fmt.Errorf("load questions for %q: %w", region.Key(), err)
		summary := domain.QuestionSummary{
			Region:   region.Name,
			Target:   opts.TargetCount,
			Duration: time.Since(start),
		}
		o.emitRun(ctx, summary, err)
		return summary, err
	}

	logger.Info("starting question generation",
		"existing", len(loaded),
		"target", opts.TargetCount,
		"workers", opts.WorkerCount)

	questions := loaded
	seen := make(map[string]struct{}, len(loaded))
	corpus := make([]string, 0, len(loaded))
	for _, q := range loaded {
		seen[q.Text] = struct{}{}
		corpus = append(corpus, q.Text)
	}

	// The scorer and its normalization cache belong to this run alone.
	scorer := similarity.NewScorer()

	retryCount := 0
	var runErr error

	for len(questions) < opts.TargetCount {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		remaining := opts.TargetCount - len(questions)
		sizes := batch.PlanEqualSplit(remaining, opts.WorkerCount, opts.MaxPerWorkerBatch)
		tasks := make([]domain.Task, len(sizes))
		for i, size := range sizes {
			tasks[i] = domain.QuestionTask{
				Region:      region,
				BatchSize:   size,
				MaxAttempts: opts.MaxAttempts,
				Slot:        i,
			}
		}

		logger.Debug("dispatching question batch",
			"remaining", remaining,
			"tasks", len(tasks))

		added := 0
		for _, out := range submitAll(ctx, o.pool, tasks) {
			if out.err != nil {
				logger.Warn("question task failed", "error", out.err)
				continue
			}
			for _, cand := range out.result.Questions {
				if err := cand.Validate(); err != nil {
					logger.Debug("dropping malformed candidate", "error", err)
					continue
				}
				if _, dup := seen[cand.Text]; dup {
					logger.Debug("dropping exact-duplicate candidate")
					continue
				}
				if scorer.TooSimilar(cand.Text, corpus, opts.DomainPrefix) {
					logger.Debug("dropping near-duplicate candidate")
					continue
				}
				questions = append(questions, cand)
				corpus = append(corpus, cand.Text)
				seen[cand.Text] = struct{}{}
				added++
			}
		}

		// Write-after-every-iteration: progress survives a crash mid-run.
		if err := o.questions.SaveQuestions(ctx, region.Key(), questions); err != nil {
			logger.Warn("persisting questions failed, continuing in memory", "error", err)
		}

		logger.Info("question iteration finished",
			"added", added,
			"total", len(questions),
			"target", opts.TargetCount)

		if added == 0 {
			retryCount++
			if retryCount >= opts.MaxRetries {
				logger.Warn("retry budget exhausted, returning what accumulated",
					"retries", retryCount,
					"total", len(questions),
					"target", opts.TargetCount)
				break
			}
			delay := time.Duration(retryCount) * opts.RetryDelay
			logger.Info("iteration added nothing, backing off",
				"retry", retryCount,
				"delay", delay.String())
			if err := sleepCtx(ctx, delay); err != nil {
				runErr = err
				break
			}
		}
	}

	summary := domain.QuestionSummary{
		Region:        region.Name,
		Target:        opts.TargetCount,
		Existing:      len(loaded),
		New:           len(questions) - len(loaded),
		Total:         len(questions),
		TargetReached: len(questions) >= opts.TargetCount,
		Retries:       retryCount,
		Duration:      time.Since(start),
	}
	o.emitRun(ctx, summary, runErr)

	if runErr != nil {
		logger.Warn("question generation aborted",
			"error", runErr,
			"new", summary.New,
			"total", summary.Total)
		return summary, runErr
	}

	logger.Info("question generation finished",
		"new", summary.New,
		"total", summary.Total,
		"target_reached", summary.TargetReached,
		"retries", summary.Retries,
		"duration", summary.Duration.String())
	return summary, nil
}

// emitRun publishes the run outcome for recording. Emission failures are
// logged, never propagated: run history is best-effort.
func (o *QuestionOrchestrator) emitRun(ctx context.Context, summary domain.QuestionSummary, runErr error) {
	rate := 1.0
	if summary.Target > 0 {
		rate = float64(summary.Total) / float64(summary.Target)
		if rate > 1 {
			rate = 1
		}
	}
	emitRunCompleted(ctx, o.emitter, o.logger, events.RunCompletedPayload{
		Region:         summary.Region,
		Kind:           string(domain.RunKindQuestions),
		Status:         runStatus(runErr),
		Requested:      summary.Target,
		NewItems:       summary.New,
		Total:          summary.Total,
		CompletionRate: rate,
		DurationMS:     summary.Duration.Milliseconds(),
		Error:          errString(runErr),
	})
}
