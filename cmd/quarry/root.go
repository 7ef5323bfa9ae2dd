package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quarryhq/quarry/internal/config"
	"github.com/quarryhq/quarry/internal/platform/logger"
)

var (
	configPath string

	// cfg and appLogger are populated by the root PersistentPreRunE before
	// any subcommand runs.
	cfg       *config.Config
	appLogger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Bulk Q/A dataset generation for Chinese regions",
	Long: `quarry builds region Q/A datasets in bulk through pluggable content
providers: questions first, answers second, with per-region JSON files as
the working store and an optional Postgres run history.

Configuration comes from quarry.yaml (or --config) plus QUARRY_-prefixed
environment variables; environment variables win.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		cfg = loaded
		appLogger = logger.Setup(cfg.Log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to config file (default: quarry.yaml in the working directory)")
}
