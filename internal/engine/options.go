package engine

import (
	"time"

	"github.com/okian/wakepoint/internal/domain/detect"
	"github.com/okian/wakepoint/internal/domain/params"
	"github.com/okian/wakepoint/internal/domain/scoring"
	"github.com/okian/wakepoint/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithScorer replaces the impact scorer.
func WithScorer(s scoring.Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithScenarios replaces the what-if generator.
func WithScenarios(g Scenarios) Option {
	return func(e *Engine) {
		if g != nil {
			e.scenarios = g
		}
	}
}

// WithDetectors replaces the detector set. Merge order follows the slice.
func WithDetectors(ds []detect.Detector) Option {
	return func(e *Engine) {
		if len(ds) > 0 {
			e.detectors = ds
		}
	}
}

// WithSensitivity sets the default sensitivity in [0,1].
func WithSensitivity(s float64) Option {
	return func(e *Engine) {
		e.sensitivity = s
	}
}

// WithLevel sets the default analysis level.
func WithLevel(l params.Level) Option {
	return func(e *Engine) {
		e.level = l
	}
}

// WithClock sets the time source used for Result.GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
