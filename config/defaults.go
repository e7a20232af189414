package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "crosscast.db")

	// Server defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"http://127.0.0.1",
	})

	// Publish defaults
	v.SetDefault("publish.max_retries", 3)
	v.SetDefault("publish.ticker_interval_seconds", 1)
	v.SetDefault("publish.provider_calls_per_minute", 30)

	// Quota defaults
	v.SetDefault("quota.default_monthly_limit", 100)
	v.SetDefault("quota.period_days", 30)

	// Per-platform media constraints (consulted by callers, not enforced by the core)
	v.SetDefault("platforms.youtube.max_media_size_mb", 128000)
	v.SetDefault("platforms.youtube.max_duration_seconds", 43200)
	v.SetDefault("platforms.youtube.aspect_ratios", []string{"16:9", "9:16", "1:1"})

	v.SetDefault("platforms.tiktok.max_media_size_mb", 4096)
	v.SetDefault("platforms.tiktok.max_duration_seconds", 600)
	v.SetDefault("platforms.tiktok.aspect_ratios", []string{"9:16"})

	v.SetDefault("platforms.instagram.max_media_size_mb", 1024)
	v.SetDefault("platforms.instagram.max_duration_seconds", 900)
	v.SetDefault("platforms.instagram.aspect_ratios", []string{"1:1", "4:5", "9:16"})

	v.SetDefault("platforms.twitter.max_media_size_mb", 512)
	v.SetDefault("platforms.twitter.max_duration_seconds", 140)
	v.SetDefault("platforms.twitter.aspect_ratios", []string{"16:9", "1:1"})

	v.SetDefault("platforms.facebook.max_media_size_mb", 10240)
	v.SetDefault("platforms.facebook.max_duration_seconds", 14400)
	v.SetDefault("platforms.facebook.aspect_ratios", []string{"16:9", "9:16", "1:1"})

	v.SetDefault("platforms.linkedin.max_media_size_mb", 5120)
	v.SetDefault("platforms.linkedin.max_duration_seconds", 600)
	v.SetDefault("platforms.linkedin.aspect_ratios", []string{"16:9", "1:1"})
}
