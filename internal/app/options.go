package service

import (
	"time"

	"github.com/okian/wakepoint/internal/domain/params"
	"github.com/okian/wakepoint/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSQLite persists analyses in the SQLite database at path.
// The default is an in-memory store.
func WithSQLite(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.sqlitePath = path
		}
	}
}

// WithSensitivity sets the default detection sensitivity.
func WithSensitivity(v float64) Option {
	return func(s *Service) {
		if v >= 0 && v <= 1 {
			s.sensitivity = v
		}
	}
}

// WithAnalysisLevel sets the default analysis level.
func WithAnalysisLevel(l params.Level) Option {
	return func(s *Service) {
		if l.Valid() {
			s.level = l
		}
	}
}

// WithRetention drops analyses older than maxAge on the cron schedule spec.
// A non-positive maxAge disables the sweep.
func WithRetention(maxAge time.Duration, schedule string) Option {
	return func(s *Service) {
		s.retention = maxAge
		if schedule != "" {
			s.retentionSchedule = schedule
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
