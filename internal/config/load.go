package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Default values applied when a setting is absent from every source.
const (
	defaultPort               = 8080
	defaultLogLevel           = "info"
	defaultModelName          = "gemini-2.0-flash"
	defaultLLMTimeout         = 30 * time.Second
	defaultLLMRetries         = 2
	defaultCacheTTL           = 5 * time.Minute
	defaultCacheCleanup       = 10 * time.Minute
	defaultMaxConcurrent      = 10
	defaultResultTTL          = time.Hour
	defaultCriticalWorkers    = 5
	defaultPerformanceWorkers = 3
	defaultUIWorkers          = 2
	defaultBackgroundWorkers  = 1
	defaultMaxAttempts        = 3
	defaultQueueBuffer        = 256
	defaultHealthInterval     = 10 * time.Second
	defaultHealthTimeout      = 5 * time.Second
	defaultFailureThreshold   = 5
	defaultCooldown           = 30 * time.Second
)

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence and use the GOLFSWARM_ prefix with underscores for nesting,
// e.g. GOLFSWARM_SERVER_PORT. Returns a populated, validated Config.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars and defaults cover it.
	}

	v.SetEnvPrefix("GOLFSWARM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the config against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", defaultPort)
	v.SetDefault("server.log_level", defaultLogLevel)
	v.SetDefault("server.development", false)

	v.SetDefault("llm.model_name", defaultModelName)
	v.SetDefault("llm.request_timeout", defaultLLMTimeout)
	v.SetDefault("llm.max_retries", defaultLLMRetries)

	v.SetDefault("cache.default_ttl", defaultCacheTTL)
	v.SetDefault("cache.cleanup_interval", defaultCacheCleanup)

	v.SetDefault("swarm.max_concurrent", defaultMaxConcurrent)
	v.SetDefault("swarm.result_ttl", defaultResultTTL)

	v.SetDefault("queue.critical_workers", defaultCriticalWorkers)
	v.SetDefault("queue.performance_workers", defaultPerformanceWorkers)
	v.SetDefault("queue.ui_workers", defaultUIWorkers)
	v.SetDefault("queue.background_workers", defaultBackgroundWorkers)
	v.SetDefault("queue.max_attempts", defaultMaxAttempts)
	v.SetDefault("queue.buffer_size", defaultQueueBuffer)

	v.SetDefault("health.check_interval", defaultHealthInterval)
	v.SetDefault("health.check_timeout", defaultHealthTimeout)
	v.SetDefault("health.failure_threshold", defaultFailureThreshold)
	v.SetDefault("health.cooldown", defaultCooldown)

	v.SetDefault("feed.topic", "shot-feed")
}
