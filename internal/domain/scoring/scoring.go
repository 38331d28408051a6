// Package scoring assigns a comparable 0-10 impact score to decision points.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/okian/wakepoint/internal/domain/model"
)

// Scoring configuration constants.
const (
	DefaultBaseScore = 5.0
	MaxScore         = 10.0

	timingMultiplier   = 1.2
	timingEdgeFraction = 0.2
	windMultiplier     = 1.3
	strongWindKnots    = 15.0
	poorRoundingBelow  = 5.0
	poorRoundingFactor = 1.5
)

// Modifier names recorded on scored points.
const (
	FactorTiming     = "timing"
	FactorWind       = "wind_condition"
	FactorRounding   = "rounding_quality"
	FactorProximity  = "proximity"
	FactorEfficiency = "maneuver_efficiency"
)

// ErrScoringFallback marks a point that was given its base score after an
// internal failure.
var ErrScoringFallback = errors.New("scoring fell back to base score")

var defaultBaseScores = map[model.PointType]float64{
	model.PointTack:                    6.0,
	model.PointGybe:                    6.5,
	model.PointLayline:                 7.0,
	model.PointWindShiftResponse:       7.5,
	model.PointSpeedImprovement:        5.5,
	model.PointSpeedDeterioration:      6.0,
	model.PointVMGImprovement:          6.5,
	model.PointVMGDeterioration:        7.0,
	model.PointEfficiencyImprovement:   5.0,
	model.PointEfficiencyDeterioration: 5.5,
	model.PointCrossPoint:              7.0,
	model.PointMarkRounding:            8.0,
	model.PointMissedWindShift:         7.5,
	model.PointCompetitorAdvantage:     6.5,
}

// Option applies a configuration option to the InMemoryScorer.
type Option func(*InMemoryScorer)

// WithBaseScores overrides base scores per point type. Non-positive values are ignored.
func WithBaseScores(scores map[model.PointType]float64, defaultScore float64) Option {
	return func(s *InMemoryScorer) {
		for t, v := range scores {
			if v > 0 {
				s.baseScores[t] = v
			}
		}
		if defaultScore > 0 {
			s.defaultScore = defaultScore
		}
	}
}

// Input carries a point and the race context needed for its modifiers.
type Input struct {
	Point model.Point
	Start time.Time // first track timestamp
	End   time.Time // last track timestamp
	Wind  []model.WindSample
}

// Result is the scored impact of one point.
type Result struct {
	Score   float64
	Factors []model.Factor
}

// Scorer computes an impact score for a decision point.
type Scorer interface {
	// Score returns the impact. On an internal failure it returns the base
	// score together with an error wrapping ErrScoringFallback.
	Score(ctx context.Context, in Input) (Result, error)
}

// InMemoryScorer implements Scorer with a fixed base score table.
type InMemoryScorer struct {
	baseScores   map[model.PointType]float64
	defaultScore float64
}

// NewInMemoryScorer creates a scorer with the default base scores.
func NewInMemoryScorer(opts ...Option) *InMemoryScorer {
	s := &InMemoryScorer{
		baseScores:   make(map[model.PointType]float64, len(defaultBaseScores)),
		defaultScore: DefaultBaseScore,
	}
	for t, v := range defaultBaseScores {
		s.baseScores[t] = v
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BaseScore returns the base score of a point type.
func (s *InMemoryScorer) BaseScore(t model.PointType) float64 {
	if v, ok := s.baseScores[t]; ok {
		return v
	}
	return s.defaultScore
}

// Score computes base × modifiers clamped to [0,10].
func (s *InMemoryScorer) Score(ctx context.Context, in Input) (res Result, err error) {
	base := s.BaseScore(in.Point.Type)
	defer func() {
		if r := recover(); r != nil {
			res = Result{Score: clampScore(base)}
			err = fmt.Errorf("%w: %v", ErrScoringFallback, r)
		}
	}()
	if ctx != nil && ctx.Err() != nil {
		return Result{Score: clampScore(base)}, fmt.Errorf("%w: %w", ErrScoringFallback, ctx.Err())
	}

	mods := modifiersFor(in)
	score := mods.fold(base)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return Result{Score: clampScore(base)}, fmt.Errorf("%w: non-finite score for %s", ErrScoringFallback, in.Point.Type)
	}
	return Result{Score: clampScore(score), Factors: mods.factors()}, nil
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(MaxScore, v))
}

func modifiersFor(in Input) modifiers {
	var m modifiers
	m = m.with(FactorTiming, timingFactor(in.Point.Time, in.Start, in.End))
	if len(in.Wind) > 0 {
		m = m.with(FactorWind, windFactor(in.Point.Time, in.Wind))
	}

	switch d := in.Point.Detail.(type) {
	case model.RoundingDetail:
		if d.RoundingQuality < poorRoundingBelow {
			m = m.with(FactorRounding, poorRoundingFactor)
		}
	case model.CrossDetail:
		m = m.with(FactorProximity, clamp(100/math.Max(10, d.Distance), 0.5, 1.5))
	case model.ManeuverDetail:
		m = m.with(FactorEfficiency, clamp(2-d.Efficiency, 0.8, 1.5))
	}
	return m
}

func timingFactor(t, start, end time.Time) float64 {
	span := end.Sub(start)
	if span <= 0 {
		return 1.0
	}
	frac := float64(t.Sub(start)) / float64(span)
	if frac < timingEdgeFraction || frac > 1-timingEdgeFraction {
		return timingMultiplier
	}
	return 1.0
}

// windFactor looks at the latest wind sample at or before t.
func windFactor(t time.Time, wind []model.WindSample) float64 {
	var latest *model.WindSample
	for i := range wind {
		w := &wind[i]
		if w.Time.After(t) {
			continue
		}
		if latest == nil || w.Time.After(latest.Time) {
			latest = w
		}
	}
	if latest != nil && latest.Speed > strongWindKnots {
		return windMultiplier
	}
	return 1.0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
