package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Provider   ProviderConfig   `mapstructure:"provider" validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Log        LogConfig        `mapstructure:"log" validate:"required"`

	// Regions can only come from the config file; environment variables
	// cannot express a list of objects. Commands that generate content
	// reject an empty list at startup.
	Regions []RegionConfig `mapstructure:"regions" validate:"omitempty,dive"`
}

// ServerConfig contains settings for the admin API server.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"required,gt=0,lt=65536"`
}

// DatabaseConfig contains the run-record database settings. The store is
// optional: an empty URL disables run records entirely.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty"`
}

// ProviderConfig selects and configures the text-generation provider.
type ProviderConfig struct {
	// Name picks the implementation: gemini, openai, deepseek or anthropic.
	Name   string `mapstructure:"name" validate:"required,oneof=gemini openai deepseek anthropic"`
	APIKey string `mapstructure:"api_key" validate:"required"`
	// BaseURL overrides the provider endpoint, e.g. for OpenAI-compatible
	// gateways. Empty uses the provider's default.
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	// Model overrides the provider's default model when non-empty.
	Model string `mapstructure:"model"`
}

// GenerationConfig tunes the generation engine.
type GenerationConfig struct {
	// DataDir is where per-region question and answer JSON files live.
	DataDir string `mapstructure:"data_dir" validate:"required"`

	// TargetCount is the number of questions to accumulate per region.
	TargetCount int `mapstructure:"target_count" validate:"required,gt=0"`

	// WorkerCount is the requested pool size. The pool applies its own
	// hard ceiling on top.
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`

	// MaxPerWorkerBatch caps how many questions one task may request.
	MaxPerWorkerBatch int `mapstructure:"max_per_worker_batch" validate:"required,gt=0"`

	// MaxRetries bounds consecutive zero-progress iterations of the
	// question convergence loop.
	MaxRetries int `mapstructure:"max_retries" validate:"required,gt=0"`

	// MaxAttempts bounds provider-internal retries per call.
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,gt=0"`

	// InterBatchDelay is the pause between answer batches.
	InterBatchDelay time.Duration `mapstructure:"inter_batch_delay"`

	// StuckThreshold and HealthCheckInterval tune the pool health check.
	// Zero values fall back to the pool defaults.
	StuckThreshold      time.Duration `mapstructure:"stuck_threshold"`
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval"`

	// DomainPrefix is stripped from texts before near-duplicate scoring,
	// so a shared prompt prefix does not inflate similarity.
	DomainPrefix string `mapstructure:"domain_prefix"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// RegionConfig describes one generation subject.
type RegionConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Pinyin      string `mapstructure:"pinyin"`
	Description string `mapstructure:"description"`
}
