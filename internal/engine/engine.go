// Package engine identifies, scores and ranks the key decision points of a race.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/wakepoint/internal/domain/detect"
	"github.com/okian/wakepoint/internal/domain/model"
	"github.com/okian/wakepoint/internal/domain/params"
	"github.com/okian/wakepoint/internal/domain/scenario"
	"github.com/okian/wakepoint/internal/domain/scoring"
	"github.com/okian/wakepoint/pkg/logger"
	"github.com/okian/wakepoint/pkg/metrics"
)

// Scenarios produces what-if alternatives for a point.
type Scenarios interface {
	Generate(p model.Point) []model.Alternative
}

// Input is one race to analyse. Sensitivity and Level override the engine
// defaults when set.
type Input struct {
	Track       []model.TrackSample
	Wind        []model.WindSample
	Competitors []model.CompetitorSample
	Course      *model.Course
	Sensitivity *float64
	Level       string
}

// Engine runs the detectors and ranks their output. It keeps no state
// between calls and is safe for concurrent use.
type Engine struct {
	detectors   []detect.Detector
	scorer      scoring.Scorer
	scenarios   Scenarios
	sensitivity float64
	level       params.Level
	logger      logger.Logger
	now         func() time.Time
}

// New creates an engine with the built-in detectors, scorer and scenarios.
func New(opts ...Option) *Engine {
	e := &Engine{
		detectors:   detect.All(),
		scorer:      scoring.NewInMemoryScorer(),
		scenarios:   scenario.NewGenerator(),
		sensitivity: params.DefaultSensitivity,
		level:       params.Advanced,
		logger:      logger.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Parameters returns the parameter set the input will be analysed with.
func (e *Engine) Parameters(in Input) model.Parameters {
	s := e.sensitivity
	if in.Sensitivity != nil {
		s = *in.Sensitivity
	}
	level := e.level
	if in.Level != "" {
		level = params.ParseLevel(in.Level)
	}
	return params.Configure(s, level)
}

// IdentifyKeyPoints runs every detector, scores and ranks the candidates and
// attaches alternatives to the top points. It always returns a well-formed
// Result; failures are reported in it instead of propagated.
func (e *Engine) IdentifyKeyPoints(ctx context.Context, in Input) (res model.Result) {
	start := time.Now()
	p := e.Parameters(in)
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(ctx, "key point identification failed", logger.Any("panic", r))
			res = errorResult(p, fmt.Sprintf("internal error: %v", r), e.now())
		}
		metrics.RecordAnalysisLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if len(in.Track) == 0 {
		return errorResult(p, model.ErrEmptyTrack.Error(), e.now())
	}
	if ctx != nil && ctx.Err() != nil {
		return errorResult(p, fmt.Sprintf("analysis cancelled: %v", ctx.Err()), e.now())
	}

	dIn := detect.Input{
		Track:       in.Track,
		Wind:        in.Wind,
		Competitors: in.Competitors,
		Course:      in.Course,
		Params:      p,
	}
	outcomes := e.runDetectors(ctx, dIn)

	var (
		candidates []model.Point
		counts     model.Counts
		reports    = make([]model.DetectorReport, len(outcomes))
	)
	for i, o := range outcomes {
		name := e.detectors[i].Name
		reports[i] = model.DetectorReport{Name: name, Status: o.Status, Points: len(o.Points), Error: o.Reason}
		switch o.Status {
		case model.DetectorNotEnoughData, model.DetectorNotImplemented:
			metrics.RecordDetectorSkipped(name, string(o.Status))
		}
		for _, pt := range o.Points {
			counts.Add(pt.Type.Category(), 1)
			metrics.RecordPointsDetected(string(pt.Type), 1)
		}
		candidates = append(candidates, o.Points...)
	}

	e.score(ctx, candidates, in)
	rankPoints(candidates)

	top := make([]model.Point, 0, min(len(candidates), max(p.MaxPoints, 0)))
	for _, pt := range candidates {
		if len(top) >= p.MaxPoints {
			break
		}
		if pt.ImpactScore >= p.MinImpactScore {
			top = append(top, pt)
		}
	}
	for i := range top {
		top[i].Alternatives = e.scenarios.Generate(top[i])
	}

	return model.Result{
		Status:           model.StatusOK,
		HighImpactPoints: top,
		Counts:           counts,
		TotalCandidates:  len(candidates),
		Summary:          Summarize(top, counts),
		Parameters:       p,
		Detectors:        reports,
		GeneratedAt:      e.now(),
	}
}

// runDetectors fans the detectors out on goroutines and returns their
// outcomes in detector order. A panicking detector yields a failed outcome.
func (e *Engine) runDetectors(ctx context.Context, in detect.Input) []detect.Outcome {
	outcomes := make([]detect.Outcome, len(e.detectors))
	var wg sync.WaitGroup
	for i, d := range e.detectors {
		wg.Add(1)
		go func(i int, d detect.Detector) {
			defer wg.Done()
			outcomes[i] = e.guard(ctx, d, in)
		}(i, d)
	}
	wg.Wait()
	return outcomes
}

func (e *Engine) guard(ctx context.Context, d detect.Detector, in detect.Input) (out detect.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordDetectorFailure(d.Name)
			e.logger.Error(ctx, "detector failed",
				logger.String("detector", d.Name),
				logger.Any("panic", r),
			)
			out = detect.Outcome{Status: model.DetectorFailed, Reason: fmt.Sprint(r)}
		}
	}()
	out = d.Run(in)
	if out.Status == "" {
		out.Status = model.DetectorOK
	}
	return out
}

// score fills ImpactScore and ImpactFactors in place.
func (e *Engine) score(ctx context.Context, points []model.Point, in Input) {
	if len(points) == 0 {
		return
	}
	first, last := trackSpan(in.Track)
	for i := range points {
		res, err := e.scorer.Score(ctx, scoring.Input{
			Point: points[i],
			Start: first,
			End:   last,
			Wind:  in.Wind,
		})
		if err != nil {
			metrics.RecordScoringFallback()
			e.logger.Warn(ctx, "scoring fallback",
				logger.String("type", string(points[i].Type)),
				logger.Error(err),
			)
		}
		points[i].ImpactScore = res.Score
		points[i].ImpactFactors = res.Factors
	}
}

func trackSpan(track []model.TrackSample) (time.Time, time.Time) {
	first, last := track[0].Time, track[0].Time
	for _, s := range track[1:] {
		if s.Time.Before(first) {
			first = s.Time
		}
		if s.Time.After(last) {
			last = s.Time
		}
	}
	return first, last
}

// rankPoints orders by impact descending, then time, then type.
func rankPoints(points []model.Point) {
	sort.SliceStable(points, func(i, j int) bool {
		a, b := points[i], points[j]
		if a.ImpactScore != b.ImpactScore {
			return a.ImpactScore > b.ImpactScore
		}
		if !a.Time.Equal(b.Time) {
			return a.Time.Before(b.Time)
		}
		return a.Type < b.Type
	})
}

func errorResult(p model.Parameters, msg string, at time.Time) model.Result {
	return model.Result{
		Status:           model.StatusError,
		Error:            msg,
		HighImpactPoints: []model.Point{},
		Summary:          "Analysis failed: " + msg + ".",
		Parameters:       p,
		GeneratedAt:      at,
	}
}
