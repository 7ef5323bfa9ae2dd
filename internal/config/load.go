package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envKeys lists every nested key bound explicitly, so that configuration
// works from environment variables alone. AutomaticEnv only resolves keys
// viper has already seen; BindEnv makes the mapping unconditional.
var envKeys = []string{
	"server.port",
	"database.url",
	"provider.name",
	"provider.api_key",
	"provider.base_url",
	"provider.model",
	"generation.data_dir",
	"generation.target_count",
	"generation.worker_count",
	"generation.max_per_worker_batch",
	"generation.max_retries",
	"generation.max_attempts",
	"generation.inter_batch_delay",
	"generation.stuck_threshold",
	"generation.health_check_interval",
	"generation.domain_prefix",
	"log.level",
}

// Load reads configuration from an optional YAML file and QUARRY_-prefixed
// environment variables, with env taking precedence. Pass an empty path to
// search for quarry.yaml in the working directory; a missing file is fine
// then, since env vars may carry everything. Returns a validated Config.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("provider.name", "gemini")
	v.SetDefault("generation.data_dir", "data")
	v.SetDefault("generation.target_count", 100)
	v.SetDefault("generation.worker_count", 4)
	v.SetDefault("generation.max_per_worker_batch", 10)
	v.SetDefault("generation.max_retries", 10)
	v.SetDefault("generation.max_attempts", 3)
	v.SetDefault("generation.inter_batch_delay", "3s")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName("quarry")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("QUARRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
