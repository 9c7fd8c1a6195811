// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New(ctx) returns a Config populated with defaults.
// - Load(ctx) layers defaults, an optional YAML file and ELO_* env vars.
// - Validation failures wrap ErrInvalidConfig, loading failures wrap ErrLoadConfig.
package config

import (
	"context"
	"runtime"
	"time"

	"github.com/okian/elo/internal/domain/rating"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// BoutQueueSize bounds the in-memory bout queue.
	BoutQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of rating workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the number of bout ids remembered for idempotency.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// InitialRating, KFactor and BaseRating are applied to new competitors
	// unless the registration overrides the rating.
	InitialRating float64 `koanf:"initial_rating"`
	KFactor       float64 `koanf:"k_factor"`
	BaseRating    float64 `koanf:"base_rating"`

	// AutoRegister creates unknown competitors when a bout names them.
	AutoRegister bool `koanf:"auto_register"`

	// Redis snapshot persistence. Disabled when RedisAddr is empty.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisKey      string `koanf:"redis_key"`

	// SnapshotIntervalMS controls how often ratings are persisted.
	SnapshotIntervalMS int `koanf:"snapshot_interval_ms"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		BoutQueueSize:       100_000,
		WorkerCount:         runtime.NumCPU() * 2,
		DedupeSize:          500_000,
		MaxLeaderboardLimit: 100,
		InitialRating:       rating.DefaultRating,
		KFactor:             rating.DefaultKFactor,
		BaseRating:          rating.DefaultBaseRating,
		AutoRegister:        true,
		RedisKey:            "elo:competitors",
		SnapshotIntervalMS:  30_000,
	}
}

// SnapshotInterval returns SnapshotIntervalMS as a duration.
func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.SnapshotIntervalMS) * time.Millisecond
}

// RatingOptions returns the competitor defaults as rating options.
func (c *Config) RatingOptions() []rating.Option {
	return []rating.Option{
		rating.WithInitialRating(c.InitialRating),
		rating.WithKFactor(c.KFactor),
		rating.WithBaseRating(c.BaseRating),
	}
}
