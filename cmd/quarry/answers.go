package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/quarryhq/quarry/internal/domain"
	"github.com/quarryhq/quarry/internal/generation"
)

var answersCmd = &cobra.Command{
	Use:   "answers",
	Short: "Answer every unanswered question in the selected regions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnswers(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(answersCmd)
	answersCmd.Flags().StringSliceVar(&regionNames, "region", nil,
		"region to process, by name or pinyin (repeatable; default: all configured)")
	answersCmd.Flags().IntVar(&parallelRegions, "parallel", 1,
		"regions processed concurrently")
	answersCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "",
		"expose Prometheus metrics on this address for the duration of the run")
}

func runAnswers(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	regions, err := selectRegions(cfg, regionNames)
	if err != nil {
		return err
	}

	env, err := newRunEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	orch, err := generation.NewAnswerOrchestrator(env.pool, env.sets, env.emitter, appLogger)
	if err != nil {
		return err
	}

	opts := generation.AnswerOptions{
		WorkerCount:        cfg.Generation.WorkerCount,
		MaxAttemptsPerItem: cfg.Generation.MaxAttempts,
		InterBatchDelay:    cfg.Generation.InterBatchDelay,
	}

	summaries := make([]domain.AnswerSummary, len(regions))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallelRegions)
	for i, region := range regions {
		group.Go(func() error {
			summary, err := orch.RunAnswers(groupCtx, region, opts)
			if err != nil {
				return fmt.Errorf("region %s: %w", region.Name, err)
			}
			summaries[i] = summary
			return nil
		})
	}
	runErr := group.Wait()

	for _, s := range summaries {
		if s.Region == "" {
			continue
		}
		fmt.Printf("%s: %d new answers, %d failed, %.1f%% of %d questions answered in %s\n",
			s.Region, s.Generated, s.Failed, s.CompletionRate*100, s.TotalQuestions,
			s.Duration.Round(time.Second))
	}
	return runErr
}
