// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"

	"github.com/okian/wakepoint/internal/domain/params"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: json or text.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the analysis id deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// Store selects the analysis store: memory or sqlite.
	Store string `koanf:"store"`

	// SQLitePath is the database file used when Store is sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// Sensitivity is the default detection sensitivity in [0,1].
	Sensitivity float64 `koanf:"sensitivity"`

	// AnalysisLevel is the default analysis level.
	AnalysisLevel string `koanf:"analysis_level"`

	// MaxMomentsLimit caps GET /moments?limit.
	MaxMomentsLimit int `koanf:"max_moments_limit"`

	// RetentionHours drops analyses older than this. Zero keeps everything.
	RetentionHours int `koanf:"retention_hours"`

	// RetentionSchedule is the cron spec of the retention sweep.
	RetentionSchedule string `koanf:"retention_schedule"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "json",
		Addr:              ":9080",
		QueueSize:         1024,
		WorkerCount:       runtime.NumCPU(),
		DedupeSize:        50_000,
		Store:             StoreMemory,
		SQLitePath:        "wakepoint.db",
		Sensitivity:       params.DefaultSensitivity,
		AnalysisLevel:     string(params.Advanced),
		MaxMomentsLimit:   100,
		RetentionHours:    72,
		RetentionSchedule: "@every 1h",
	}
}

// Validate checks the configuration. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.Store != StoreMemory && c.Store != StoreSQLite:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	case c.Store == StoreSQLite && c.SQLitePath == "":
		return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
	case c.Sensitivity < 0 || c.Sensitivity > 1:
		return fmt.Errorf("%w: sensitivity must be in [0,1], got %v", ErrInvalidConfig, c.Sensitivity)
	case !params.Level(c.AnalysisLevel).Valid():
		return fmt.Errorf("%w: unknown analysis_level %q", ErrInvalidConfig, c.AnalysisLevel)
	case c.MaxMomentsLimit < 1:
		return fmt.Errorf("%w: max_moments_limit must be positive, got %d", ErrInvalidConfig, c.MaxMomentsLimit)
	case c.RetentionHours < 0:
		return fmt.Errorf("%w: retention_hours must not be negative, got %d", ErrInvalidConfig, c.RetentionHours)
	case c.LogFormat != "json" && c.LogFormat != "text":
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
