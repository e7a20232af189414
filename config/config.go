// Package config manages Crosscast configuration via Viper over a TOML file.
package config

// Config represents the core Crosscast configuration
type Config struct {
	Database  DatabaseConfig            `mapstructure:"database"`
	Server    ServerConfig              `mapstructure:"server"`
	Publish   PublishConfig             `mapstructure:"publish"`
	Quota     QuotaConfig               `mapstructure:"quota"`
	Platforms map[string]PlatformLimits `mapstructure:"platforms"`
}

// DatabaseConfig configures the SQLite database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig configures the status stream server
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// PublishConfig configures the publishing orchestrator
type PublishConfig struct {
	// MaxRetries bounds explicit retry requests per job (default: 3)
	MaxRetries int `mapstructure:"max_retries"`

	// TickerIntervalSeconds controls how often deferred jobs are checked (default: 1)
	TickerIntervalSeconds int `mapstructure:"ticker_interval_seconds"`

	// ProviderCallsPerMinute rate-limits external provider calls per provider
	ProviderCallsPerMinute int `mapstructure:"provider_calls_per_minute"`
}

// QuotaConfig configures provider quota tracking
type QuotaConfig struct {
	// DefaultMonthlyLimit is applied when a channel configures a provider
	// without an explicit limit
	DefaultMonthlyLimit int `mapstructure:"default_monthly_limit"`

	// PeriodDays is the quota reset period (default: 30)
	PeriodDays int `mapstructure:"period_days"`
}

// PlatformLimits describes the per-platform media constraints consulted by
// callers before submission. The core does not enforce these.
type PlatformLimits struct {
	MaxMediaSizeMB     int      `mapstructure:"max_media_size_mb"`
	MaxDurationSeconds int      `mapstructure:"max_duration_seconds"`
	AspectRatios       []string `mapstructure:"aspect_ratios"`
}

// DefaultServerPort is the default status stream server port
const DefaultServerPort = 8492
