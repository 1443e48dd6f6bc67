package config

import "github.com/spf13/viper"

// SetDefaults registers default values for all configuration keys
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "revsync.db")

	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.advance_delay_ms", 100)
	v.SetDefault("sync.redirect_delay_ms", 500)
	v.SetDefault("sync.complete_delay_ms", 800)

	v.SetDefault("jobs.workers", 1)
	v.SetDefault("jobs.poll_interval_seconds", 5)
	v.SetDefault("jobs.rate_per_minute", 60)
	v.SetDefault("jobs.max_retries", 2)
}
