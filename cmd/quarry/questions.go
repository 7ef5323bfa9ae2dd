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

var (
	regionNames     []string
	parallelRegions int
	metricsAddr     string
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Generate questions until each region reaches its target",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuestions(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(questionsCmd)
	questionsCmd.Flags().StringSliceVar(&regionNames, "region", nil,
		"region to process, by name or pinyin (repeatable; default: all configured)")
	questionsCmd.Flags().IntVar(&parallelRegions, "parallel", 1,
		"regions processed concurrently")
	questionsCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "",
		"expose Prometheus metrics on this address for the duration of the run")
}

func runQuestions(ctx context.Context) error {
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

	orch, err := generation.NewQuestionOrchestrator(env.pool, env.sets, env.emitter, appLogger)
	if err != nil {
		return err
	}

	opts := generation.QuestionOptions{
		TargetCount:       cfg.Generation.TargetCount,
		WorkerCount:       cfg.Generation.WorkerCount,
		MaxPerWorkerBatch: cfg.Generation.MaxPerWorkerBatch,
		MaxRetries:        cfg.Generation.MaxRetries,
		MaxAttempts:       cfg.Generation.MaxAttempts,
		DomainPrefix:      cfg.Generation.DomainPrefix,
	}

	summaries := make([]domain.QuestionSummary, len(regions))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallelRegions)
	for i, region := range regions {
		group.Go(func() error {
			summary, err := orch.RunQuestions(groupCtx, region, opts)
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
		status := "target reached"
		if !s.TargetReached {
			status = "target missed"
		}
		fmt.Printf("%s: %d new questions, %d/%d total (%s) in %s\n",
			s.Region, s.New, s.Total, s.Target, status, s.Duration.Round(time.Second))
	}
	return runErr
}
