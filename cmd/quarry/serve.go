package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/quarryhq/quarry/internal/api"
	"github.com/quarryhq/quarry/internal/platform/jsonfile"
	"github.com/quarryhq/quarry/internal/platform/postgres"
	"github.com/quarryhq/quarry/internal/store"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only admin API and /metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false,
		"apply pending migrations before serving")
}

func runServe(ctx context.Context) error {
	sets, err := jsonfile.New(cfg.Generation.DataDir)
	if err != nil {
		return fmt.Errorf("open data dir: %w", err)
	}

	db, err := openDatabase(ctx, cfg.Database, appLogger)
	if err != nil {
		return err
	}

	var runs store.RunStore
	if db != nil {
		defer func() { _ = db.Close() }()
		if migrateOnStart {
			if err := runMigrations(db, "up"); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
		}
		runs = postgres.NewRunStore(db, appLogger)
	} else if migrateOnStart {
		return errors.New("--migrate requires database.url to be configured")
	}

	handler, err := api.NewHandler(configuredRegions(cfg), sets, runs, cfg.Provider.Name, appLogger)
	if err != nil {
		return err
	}
	router := api.NewRouter(api.RouterConfig{
		Handler: handler,
		Metrics: promhttp.Handler(),
		Logger:  appLogger,
	})

	return startHTTPServer(ctx, router)
}

// startHTTPServer runs the admin server until a shutdown signal or context
// cancellation, then drains in-flight requests with a timeout.
func startHTTPServer(ctx context.Context, router http.Handler) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverCtx, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info("starting admin server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			cancelServer()
		}
	}()

	select {
	case <-shutdownCh:
		appLogger.Info("shutdown signal received")
	case <-serverCtx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	default:
	}
	appLogger.Info("server stopped")
	return nil
}
