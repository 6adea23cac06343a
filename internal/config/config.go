package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Swarm    SwarmConfig    `mapstructure:"swarm"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Health   HealthConfig   `mapstructure:"health"`
	Feed     FeedConfig     `mapstructure:"feed"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port        int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel    string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains token verification settings. Session issuance is
// handled by an external service; this application only verifies tokens.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// LLMConfig contains settings for the external vision/language service.
type LLMConfig struct {
	GeminiAPIKey   string        `mapstructure:"gemini_api_key" validate:"required"`
	ModelName      string        `mapstructure:"model_name"     validate:"required"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

// CacheConfig tunes the task-result cache.
type CacheConfig struct {
	DefaultTTL      time.Duration `mapstructure:"default_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// SwarmConfig tunes the roadmap scheduler.
type SwarmConfig struct {
	// MaxConcurrent is the global cap on concurrently executing tasks
	// shared across all lanes.
	MaxConcurrent int `mapstructure:"max_concurrent" validate:"omitempty,gt=0"`

	// ResultTTL is how long performance-lane results stay cached.
	ResultTTL time.Duration `mapstructure:"result_ttl"`
}

// QueueConfig tunes the durable queue manager.
type QueueConfig struct {
	CriticalWorkers    int `mapstructure:"critical_workers"    validate:"omitempty,gt=0"`
	PerformanceWorkers int `mapstructure:"performance_workers" validate:"omitempty,gt=0"`
	UIWorkers          int `mapstructure:"ui_workers"          validate:"omitempty,gt=0"`
	BackgroundWorkers  int `mapstructure:"background_workers"  validate:"omitempty,gt=0"`
	MaxAttempts        int `mapstructure:"max_attempts"        validate:"omitempty,gt=0"`
	BufferSize         int `mapstructure:"buffer_size"         validate:"omitempty,gt=0"`
}

// HealthConfig tunes the worker health monitor and circuit breaker.
type HealthConfig struct {
	CheckInterval    time.Duration `mapstructure:"check_interval"`
	CheckTimeout     time.Duration `mapstructure:"check_timeout"`
	FailureThreshold int           `mapstructure:"failure_threshold" validate:"omitempty,gt=0"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
}

// FeedConfig configures the fire-and-forget feed publisher. When Brokers is
// empty the application uses a no-op publisher.
type FeedConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}
