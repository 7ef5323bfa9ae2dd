package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quarryhq/quarry/internal/config"
	"github.com/quarryhq/quarry/internal/domain"
	"github.com/quarryhq/quarry/internal/events"
	"github.com/quarryhq/quarry/internal/generation"
	"github.com/quarryhq/quarry/internal/platform/anthropic"
	"github.com/quarryhq/quarry/internal/platform/gemini"
	"github.com/quarryhq/quarry/internal/platform/jsonfile"
	"github.com/quarryhq/quarry/internal/platform/metrics"
	"github.com/quarryhq/quarry/internal/platform/openaicompat"
	"github.com/quarryhq/quarry/internal/platform/postgres"
	"github.com/quarryhq/quarry/internal/platform/provider"
	"github.com/quarryhq/quarry/internal/pool"
)

// configuredRegions maps the configured region list into domain values.
func configuredRegions(cfg *config.Config) []domain.Region {
	regions := make([]domain.Region, 0, len(cfg.Regions))
	for _, rc := range cfg.Regions {
		regions = append(regions, domain.Region{
			Name:        rc.Name,
			Pinyin:      rc.Pinyin,
			Description: rc.Description,
		})
	}
	return regions
}

// selectRegions resolves --region values against the configured list,
// matching display name or pinyin key and deduplicating while preserving
// order. With no names it returns every configured region.
func selectRegions(cfg *config.Config, names []string) ([]domain.Region, error) {
	all := configuredRegions(cfg)
	if len(all) == 0 {
		return nil, errors.New("no regions configured; add a regions list to the config file")
	}
	if len(names) == 0 {
		return all, nil
	}

	selected := make([]domain.Region, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		region, ok := findRegion(all, name)
		if !ok {
			return nil, fmt.Errorf("unknown region %q", name)
		}
		if _, dup := seen[region.Key()]; dup {
			continue
		}
		seen[region.Key()] = struct{}{}
		selected = append(selected, region)
	}
	return selected, nil
}

func findRegion(regions []domain.Region, name string) (domain.Region, bool) {
	for _, r := range regions {
		if r.Name == name || r.Pinyin == name {
			return r, true
		}
	}
	return domain.Region{}, false
}

// buildProvider constructs the content provider named by the configuration.
func buildProvider(ctx context.Context, cfg config.ProviderConfig, logger *slog.Logger) (domain.Provider, error) {
	switch cfg.Name {
	case provider.NameGemini:
		return gemini.New(ctx, gemini.Config{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		}, logger)
	case provider.NameOpenAI, provider.NameDeepSeek:
		return openaicompat.New(openaicompat.Config{
			Name:    cfg.Name,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}, logger)
	case provider.NameAnthropic:
		return anthropic.New(anthropic.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}, logger)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", provider.ErrInvalidConfig, cfg.Name)
	}
}

// openDatabase opens the run-record database when a URL is configured and
// verifies connectivity. Returns nil when persistence is disabled.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("run-record database connected")
	return db, nil
}

// runEnvironment bundles what a generation command composes: the region
// store, the provider-backed worker pool, the event emitter with its
// handlers, and the optional run-record database.
type runEnvironment struct {
	sets        *jsonfile.Store
	pool        *pool.Pool
	emitter     *events.InMemoryEmitter
	db          *sql.DB
	stopMetrics func()
}

// newRunEnvironment wires the generation stack from the loaded config.
// Callers must close the environment when the run finishes.
func newRunEnvironment(ctx context.Context) (*runEnvironment, error) {
	sets, err := jsonfile.New(cfg.Generation.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open data dir: %w", err)
	}

	prov, err := buildProvider(ctx, cfg.Provider, appLogger)
	if err != nil {
		return nil, fmt.Errorf("build provider: %w", err)
	}

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)
	stopMetrics, err := serveMetrics(metricsAddr, appLogger)
	if err != nil {
		return nil, err
	}

	emitter := events.NewInMemoryEmitter(appLogger)
	emitter.RegisterHandler(collector)

	db, err := openDatabase(ctx, cfg.Database, appLogger)
	if err != nil {
		stopMetrics()
		return nil, err
	}
	if db != nil {
		recorder, err := generation.NewRunRecorder(postgres.NewRunStore(db, appLogger), appLogger)
		if err != nil {
			stopMetrics()
			_ = db.Close()
			return nil, err
		}
		emitter.RegisterHandler(recorder)
	}

	taskPool, err := pool.New(pool.Config{
		Size:                cfg.Generation.WorkerCount,
		StuckThreshold:      cfg.Generation.StuckThreshold,
		HealthCheckInterval: cfg.Generation.HealthCheckInterval,
	}, generation.NewExecutorFactory(prov, appLogger), appLogger, collector)
	if err != nil {
		stopMetrics()
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	return &runEnvironment{
		sets:        sets,
		pool:        taskPool,
		emitter:     emitter,
		db:          db,
		stopMetrics: stopMetrics,
	}, nil
}

func (e *runEnvironment) close() {
	e.pool.Terminate()
	e.stopMetrics()
	if e.db != nil {
		_ = e.db.Close()
	}
}

// serveMetrics exposes the Prometheus handler on addr for the duration of a
// run. The returned stop function drains the listener; it is a no-op when
// addr is empty.
func serveMetrics(addr string, logger *slog.Logger) (func(), error) {
	if addr == "" {
		return func() {}, nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on metrics address %q: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Handler: mux}

	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics listener failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics listener shutdown failed", "error", err)
		}
	}, nil
}
