package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if POMORANK_CONFIG is set
//  3. env (prefix POMORANK_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("POMORANK_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: POMORANK_ADDR, POMORANK_REDIS_ADDR, ...
	// Map env keys like POMORANK_REDIS_ADDR -> redis_addr (flat keys),
	// preserving underscores to match the koanf tags on the struct.
	envProvider := env.Provider("POMORANK_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "pomorank_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.Backend {
	case BackendRedisPostgres, BackendMemory:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	if c.ResetHour < 0 || c.ResetHour > 23 {
		return fmt.Errorf("%w: reset_hour must be in [0,23]", ErrInvalidConfig)
	}
	if _, err := c.Weekday(); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.ResetTimezone); err != nil {
		return fmt.Errorf("%w: reset_timezone: %w", ErrInvalidConfig, err)
	}
	if c.DetailTTLSeconds <= 0 {
		return fmt.Errorf("%w: detail_ttl_seconds must be positive", ErrInvalidConfig)
	}
	if c.MaxLeaderboardLimit < 1 {
		return fmt.Errorf("%w: max_leaderboard_limit must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// Weekday parses the configured weekly reset day.
func (c *Config) Weekday() (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(c.ResetWeekday)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidConfig, c.ResetWeekday)
	}
}

// Location loads the configured reset timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ResetTimezone)
	if err != nil {
		return nil, fmt.Errorf("%w: reset_timezone: %w", ErrInvalidConfig, err)
	}
	return loc, nil
}
