// Package config manages configuration for the revision sync engine.
// Configuration is read from a TOML file with environment variable
// overrides (REVSYNC_ prefix) via Viper.
package config

// Config represents the full engine configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
}

// DatabaseConfig configures the SQLite database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig configures the wiki HTTP server
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SyncConfig configures the staged reconciliation workflow
type SyncConfig struct {
	// Enabled is the process-wide capability toggle: when false no
	// reconciliation logic runs and the staged workflow is skipped entirely.
	Enabled bool `mapstructure:"enabled"`

	// Client-side overlay timing, in milliseconds. The phase-1 overlay waits
	// AdvanceDelayMS before bumping progress and RedirectDelayMS more before
	// navigating to phase 2; the phase-2 overlay waits CompleteDelayMS before
	// marking completion and issuing the purge call.
	AdvanceDelayMS  int `mapstructure:"advance_delay_ms"`
	RedirectDelayMS int `mapstructure:"redirect_delay_ms"`
	CompleteDelayMS int `mapstructure:"complete_delay_ms"`
}

// JobsConfig configures the fallback reconciliation worker pool
type JobsConfig struct {
	Workers             int `mapstructure:"workers"`               // Number of concurrent job workers (default: 1)
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"` // How often to check for queued jobs (default: 5)
	RatePerMinute       int `mapstructure:"rate_per_minute"`       // Reconciliations per minute across the pool (default: 60)
	MaxRetries          int `mapstructure:"max_retries"`           // Retry attempts for failed jobs (default: 2)
}

// DefaultServerPort is used when no port is configured
const DefaultServerPort = 8733
