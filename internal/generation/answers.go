package generation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quarryhq/quarry/internal/batch"
	"github.com/quarryhq/quarry/internal/domain"
	"github.com/quarryhq/quarry/internal/events"
	"github.com/quarryhq/quarry/internal/store"
)

// AnswerOptions tunes one answer-generation run.
type AnswerOptions struct {
	// WorkerCount is the per-batch slot count: each batch dispatches one
	// question per worker.
	WorkerCount int

	// MaxAttemptsPerItem bounds provider-internal retries per question.
	MaxAttemptsPerItem int

	// InterBatchDelay is the pause after every batch except the last.
	// Zero disables the pause.
	InterBatchDelay time.Duration
}

func (o AnswerOptions) withDefaults() AnswerOptions {
	if o.WorkerCount <= 0 {
		o.WorkerCount = 4
	}
	if o.MaxAttemptsPerItem <= 0 {
		o.MaxAttemptsPerItem = 3
	}
	return o
}

// AnswerOrchestrator answers every unanswered question of a region in
// sequential batches: reconcile answered flags against the stored answers,
// split the unanswered remainder into batches of WorkerCount, dispatch each
// batch in parallel, and persist after every batch.
//
// Answers are the source of truth for "answered": a question is answered
// exactly when an answer with its text exists, regardless of the stored
// flag. A fallback answer counts; the question it consumed is not retried.
type AnswerOrchestrator struct {
	pool    TaskPool
	regions store.RegionStore
	emitter events.Emitter
	logger  *slog.Logger
}

// NewAnswerOrchestrator creates an AnswerOrchestrator. The emitter may be
// nil when no run recording is wanted.
func NewAnswerOrchestrator(
	taskPool TaskPool,
	regions store.RegionStore,
	emitter events.Emitter,
	logger *slog.Logger,
) (*AnswerOrchestrator, error) {
	if taskPool == nil {
		return nil, ErrNilPool
	}
	if regions == nil {
		return nil, ErrNilStore
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerOrchestrator{
		pool:    taskPool,
		regions: regions,
		emitter: emitter,
		logger:  logger.With("component", "answer_orchestrator"),
	}, nil
}

// RunAnswers generates answers for every unanswered question of the region.
// Individual failures leave their question unanswered for a later run;
// errors are reserved for a failed initial load and context cancellation.
func (o *AnswerOrchestrator) RunAnswers(
	ctx context.Context,
	region domain.Region,
	opts AnswerOptions,
) (domain.AnswerSummary, error) {
	opts = opts.withDefaults()
	logger := o.logger.With("region", region.Name)
	start := time.Now()

	questions, err := o.regions.LoadQuestions(ctx, region.Key())
	if err != nil {
		err = fmt.Errorf("load questions for %q: %w", region.Key(), err)
		summary := domain.AnswerSummary{Region: region.Name, Duration: time.Since(start)}
		o.emitRun(ctx, summary, 0, err)
		return summary, err
	}
	answers, err := o.regions.LoadAnswers(ctx, region.Key())
	if err != nil {
		err = fmt.Errorf("load answers for %q: %w", region.Key(), err)
		summary := domain.AnswerSummary{
			Region:         region.Name,
			TotalQuestions: len(questions),
			Duration:       time.Since(start),
		}
		o.emitRun(ctx, summary, 0, err)
		return summary, err
	}

	// Reconcile flags in both directions before generating anything: a
	// question is answered exactly when an answer with its text exists.
	answeredSet := domain.AnsweredSet(answers)
	reconciled := 0
	for i := range questions {
		_, has := answeredSet[questions[i].Text]
		if questions[i].Answered != has {
			questions[i].Answered = has
			reconciled++
		}
	}
	if reconciled > 0 {
		logger.Info("reconciled answered flags against stored answers", "changed", reconciled)
		if err := o.regions.SaveQuestions(ctx, region.Key(), questions); err != nil {
			logger.Warn("persisting reconciled flags failed, continuing in memory", "error", err)
		}
	}

	indexByText := make(map[string]int, len(questions))
	for i, q := range questions {
		indexByText[q.Text] = i
	}

	var unanswered []int
	for i, q := range questions {
		if !q.Answered {
			unanswered = append(unanswered, i)
		}
	}
	alreadyAnswered := len(questions) - len(unanswered)

	ranges := batch.PlanBoundaries(len(unanswered), opts.WorkerCount)

	logger.Info("starting answer generation",
		"questions", len(questions),
		"unanswered", len(unanswered),
		"batches", len(ranges),
		"workers", opts.WorkerCount)

	generated := 0
	failed := 0
	var runErr error

	for bi, r := range ranges {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		batchLogger := logger.With("batch", bi+1, "batches", len(ranges))

		tasks := make([]domain.Task, 0, r.Len())
		for slot, qi := range unanswered[r.Start:r.End] {
			tasks = append(tasks, domain.AnswerTask{
				Question:    questions[qi].Text,
				MaxAttempts: opts.MaxAttemptsPerItem,
				Slot:        slot,
			})
		}

		answeredInBatch := 0
		for _, out := range submitAll(ctx, o.pool, tasks) {
			if out.err != nil {
				batchLogger.Warn("answer task failed", "error", out.err)
				failed++
				continue
			}
			item := out.result.Answer
			if item == nil {
				batchLogger.Debug("dropping result with no answer")
				failed++
				continue
			}
			if err := item.Validate(); err != nil {
				batchLogger.Debug("dropping invalid answer", "error", err)
				failed++
				continue
			}
			qi, known := indexByText[item.Question]
			if !known {
				batchLogger.Debug("dropping answer for unknown question")
				failed++
				continue
			}
			if questions[qi].Answered {
				batchLogger.Debug("dropping repeat answer for answered question")
				continue
			}
			answers = append(answers, *item)
			questions[qi].Answered = true
			generated++
			answeredInBatch++
		}

		// Persist answers and flipped flags after every batch: at most one
		// batch of progress is lost on a crash.
		if err := o.regions.SaveAnswers(ctx, region.Key(), answers); err != nil {
			batchLogger.Warn("persisting answers failed, continuing in memory", "error", err)
		}
		if err := o.regions.SaveQuestions(ctx, region.Key(), questions); err != nil {
			batchLogger.Warn("persisting answered flags failed, continuing in memory", "error", err)
		}

		batchLogger.Info("answer batch finished",
			"dispatched", len(tasks),
			"answered", answeredInBatch)

		if bi < len(ranges)-1 && opts.InterBatchDelay > 0 {
			if err := sleepCtx(ctx, opts.InterBatchDelay); err != nil {
				runErr = err
				break
			}
		}
	}

	answeredTotal := domain.CountAnswered(questions)
	rate := 0.0
	if len(questions) > 0 {
		rate = float64(answeredTotal) / float64(len(questions))
	}
	summary := domain.AnswerSummary{
		Region:          region.Name,
		TotalQuestions:  len(questions),
		AlreadyAnswered: alreadyAnswered,
		Reconciled:      reconciled,
		Generated:       generated,
		Failed:          failed,
		Batches:         len(ranges),
		CompletionRate:  rate,
		Duration:        time.Since(start),
	}
	o.emitRun(ctx, summary, len(unanswered), runErr)

	if runErr != nil {
		logger.Warn("answer generation aborted",
			"error", runErr,
			"generated", summary.Generated,
			"failed", summary.Failed)
		return summary, runErr
	}

	logger.Info("answer generation finished",
		"generated", summary.Generated,
		"failed", summary.Failed,
		"completion_rate", summary.CompletionRate,
		"duration", summary.Duration.String())
	return summary, nil
}

// emitRun publishes the run outcome for recording. Emission failures are
// logged, never propagated.
func (o *AnswerOrchestrator) emitRun(
	ctx context.Context,
	summary domain.AnswerSummary,
	requested int,
	runErr error,
) {
	answered := summary.AlreadyAnswered + summary.Generated
	emitRunCompleted(ctx, o.emitter, o.logger, events.RunCompletedPayload{
		Region:         summary.Region,
		Kind:           string(domain.RunKindAnswers),
		Status:         runStatus(runErr),
		Requested:      requested,
		NewItems:       summary.Generated,
		Total:          answered,
		CompletionRate: summary.CompletionRate,
		DurationMS:     summary.Duration.Milliseconds(),
		Error:          errString(runErr),
	})
}
