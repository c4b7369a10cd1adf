// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - External errors are wrapped via this package's error kinds.
package config

// Backend names for the store wiring.
const (
	BackendRedisPostgres = "redis+postgres"
	BackendMemory        = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Backend selects the store wiring: redis+postgres or memory.
	// The memory backend keeps everything in-process, for local runs.
	Backend string `koanf:"backend"`

	// RedisAddr, RedisPassword, RedisDB configure the ranking store and
	// detail cache client.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// DatabaseDSN configures the Postgres durable store.
	DatabaseDSN string `koanf:"database_dsn"`

	// DetailTTLSeconds bounds detail cache entries. Keep it shorter than
	// SyncIntervalMinutes so stale snapshots age out between cycles.
	DetailTTLSeconds int `koanf:"detail_ttl_seconds"`

	// MaxLeaderboardLimit caps GET /leaderboard/{period}?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// SyncIntervalMinutes sets the reconciliation cadence;
	// SyncRetryMinutes the backoff after a failed cycle.
	SyncIntervalMinutes int `koanf:"sync_interval_minutes"`
	SyncRetryMinutes    int `koanf:"sync_retry_minutes"`

	// ResetHour is the local hour (0-23) counters reset at.
	ResetHour int `koanf:"reset_hour"`

	// ResetWeekday is the day the weekly reset fires on, e.g. "sunday".
	ResetWeekday string `koanf:"reset_weekday"`

	// ResetTimezone names the location trigger windows are evaluated in.
	ResetTimezone string `koanf:"reset_timezone"`

	// ResetPollMinutes sets the scheduler tick interval.
	ResetPollMinutes int `koanf:"reset_poll_minutes"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		Backend:             BackendRedisPostgres,
		RedisAddr:           "localhost:6379",
		RedisDB:             0,
		DatabaseDSN:         "host=localhost user=pomorank dbname=pomorank sslmode=disable",
		DetailTTLSeconds:    300,
		MaxLeaderboardLimit: 100,
		SyncIntervalMinutes: 60,
		SyncRetryMinutes:    5,
		ResetHour:           1,
		ResetWeekday:        "sunday",
		ResetTimezone:       "America/New_York",
		ResetPollMinutes:    60,
	}
}
