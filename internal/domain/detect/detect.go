// Package detect scans a race track for candidate decision points.
//
// Each detector is a pure function over read-only input and reports an
// explicit Outcome instead of failing when the data it needs is missing.
package detect

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/wakepoint/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// Input is the shared read-only view handed to every detector.
type Input struct {
	Track       []model.TrackSample
	Wind        []model.WindSample
	Competitors []model.CompetitorSample
	Course      *model.Course
	Params      model.Parameters
}

// Outcome is the result of one detector pass.
type Outcome struct {
	Status model.DetectorStatus
	Points []model.Point
	Reason string
}

// Ok wraps detected points.
func Ok(points []model.Point) Outcome {
	return Outcome{Status: model.DetectorOK, Points: points}
}

// NotEnoughData reports that the input lacks what the detector needs.
func NotEnoughData(format string, args ...any) Outcome {
	return Outcome{Status: model.DetectorNotEnoughData, Reason: fmt.Sprintf(format, args...)}
}

// NotImplemented reports a capability that has no algorithm yet.
func NotImplemented(reason string) Outcome {
	return Outcome{Status: model.DetectorNotImplemented, Reason: reason}
}

// Detector is a named detection pass.
type Detector struct {
	Name string
	Run  func(Input) Outcome
}

// Detector names.
const (
	NameDirectionChange     = "direction_change"
	NameLayline             = "layline"
	NameWindShiftResponse   = "wind_shift_response"
	NameSpeedChange         = "speed_change"
	NameVMGChange           = "vmg_change"
	NameEfficiencyChange    = "efficiency_change"
	NameCrossPoint          = "cross_point"
	NameMarkRounding        = "mark_rounding"
	NameWindShiftLag        = "wind_shift_lag"
	NameCompetitorAdvantage = "competitor_advantage"
	NameMissedLayline       = "missed_layline"
	NameMissedInefficiency  = "missed_inefficiency"
)

// All returns every detector in merge order.
func All() []Detector {
	return []Detector{
		{Name: NameDirectionChange, Run: DirectionChanges},
		{Name: NameLayline, Run: Laylines},
		{Name: NameWindShiftResponse, Run: WindShiftResponses},
		{Name: NameSpeedChange, Run: SpeedChanges},
		{Name: NameVMGChange, Run: VMGChanges},
		{Name: NameEfficiencyChange, Run: EfficiencyChanges},
		{Name: NameCrossPoint, Run: CrossPoints},
		{Name: NameMarkRounding, Run: MarkRoundings},
		{Name: NameWindShiftLag, Run: WindShiftLags},
		{Name: NameCompetitorAdvantage, Run: CompetitorAdvantages},
		{Name: NameMissedLayline, Run: MissedLaylines},
		{Name: NameMissedInefficiency, Run: MissedInefficiencies},
	}
}

func position(s model.TrackSample) model.Position {
	return model.Position{Lat: s.Lat, Lon: s.Lon}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// mean is the arithmetic mean of the finite values, NaN when there are none.
func mean(vals []float64) float64 {
	finite := make([]float64, 0, len(vals))
	for _, v := range vals {
		if isFinite(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return math.NaN()
	}
	return stat.Mean(finite, nil)
}

func headings(track []model.TrackSample) []float64 {
	out := make([]float64, len(track))
	for i, s := range track {
		out[i] = s.Heading
	}
	return out
}

func speeds(track []model.TrackSample) []float64 {
	out := make([]float64, len(track))
	for i, s := range track {
		out[i] = s.Speed
	}
	return out
}

func anyHeading(track []model.TrackSample) bool {
	for _, s := range track {
		if s.HasHeading() {
			return true
		}
	}
	return false
}

func clockTime(t time.Time) string {
	return t.Format("15:04:05")
}

// timed is a time-sorted view over samples of one kind.
type timed[T any] struct {
	items []T
	at    func(T) time.Time
}

func newTimed[T any](items []T, at func(T) time.Time) timed[T] {
	cp := make([]T, len(items))
	copy(cp, items)
	sort.SliceStable(cp, func(i, j int) bool { return at(cp[i]).Before(at(cp[j])) })
	return timed[T]{items: cp, at: at}
}

// between returns the samples with time in [from, to].
func (s timed[T]) between(from, to time.Time) []T {
	lo := sort.Search(len(s.items), func(i int) bool { return !s.at(s.items[i]).Before(from) })
	hi := sort.Search(len(s.items), func(i int) bool { return s.at(s.items[i]).After(to) })
	if lo >= hi {
		return nil
	}
	return s.items[lo:hi]
}
