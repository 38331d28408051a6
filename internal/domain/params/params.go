// Package params derives detection parameters from sensitivity and analysis level.
package params

import (
	"math"
	"strings"

	"github.com/okian/wakepoint/internal/domain/model"
)

// Level is the qualitative analysis depth.
type Level string

// Analysis levels.
const (
	Basic        Level = "basic"
	Intermediate Level = "intermediate"
	Advanced     Level = "advanced"
	Professional Level = "professional"
)

// DefaultSensitivity is used when the caller supplies none.
const DefaultSensitivity = 0.7

type profile struct {
	decision  float64
	perf      float64
	window    int
	minImpact float64
	maxPoints int
}

var profiles = map[Level]profile{
	Basic:        {decision: 0.30, perf: 0.20, window: 10, minImpact: 6.0, maxPoints: 5},
	Intermediate: {decision: 0.25, perf: 0.15, window: 8, minImpact: 5.0, maxPoints: 8},
	Advanced:     {decision: 0.20, perf: 0.10, window: 6, minImpact: 4.0, maxPoints: 10},
	Professional: {decision: 0.15, perf: 0.08, window: 5, minImpact: 3.0, maxPoints: 15},
}

// ParseLevel maps a name to a Level. Unknown names yield Advanced.
func ParseLevel(s string) Level {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := profiles[l]; ok {
		return l
	}
	return Advanced
}

// Valid reports whether the level is one of the known levels.
func (l Level) Valid() bool {
	_, ok := profiles[l]
	return ok
}

// Configure derives the parameter set for the sensitivity and level.
// Thresholds are scaled by (2 - sensitivity) after clamping sensitivity to [0,1].
func Configure(sensitivity float64, level Level) model.Parameters {
	p, ok := profiles[level]
	if !ok {
		p = profiles[Advanced]
	}
	if math.IsNaN(sensitivity) {
		sensitivity = DefaultSensitivity
	}
	sensitivity = math.Max(0, math.Min(1, sensitivity))
	scale := 2 - sensitivity

	return model.Parameters{
		StrategicDecisionThreshold: p.decision * scale,
		PerformanceChangeThreshold: p.perf * scale,
		WindowSize:                 p.window,
		MinImpactScore:             p.minImpact,
		MaxPoints:                  p.maxPoints,
	}
}
