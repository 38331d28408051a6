package detect

import (
	"fmt"
	"math"

	"github.com/okian/wakepoint/internal/domain/dedupe"
	"github.com/okian/wakepoint/internal/domain/model"
	"github.com/okian/wakepoint/internal/domain/window"
)

// metric describes one performance series.
type metric struct {
	name        string
	unit        string
	improvement model.PointType
	decline     model.PointType
	value       func(model.TrackSample) float64
	threshold   func(perf, seriesMean float64) float64
}

var (
	speedMetric = metric{
		name:        "speed",
		unit:        " kn",
		improvement: model.PointSpeedImprovement,
		decline:     model.PointSpeedDeterioration,
		value:       func(s model.TrackSample) float64 { return s.Speed },
		threshold:   func(perf, m float64) float64 { return perf * m },
	}
	vmgMetric = metric{
		name:        "vmg",
		unit:        " kn",
		improvement: model.PointVMGImprovement,
		decline:     model.PointVMGDeterioration,
		value:       func(s model.TrackSample) float64 { return optional(s.VMG) },
		threshold:   func(perf, m float64) float64 { return perf * math.Abs(m) },
	}
	efficiencyMetric = metric{
		name:        "efficiency",
		unit:        "",
		improvement: model.PointEfficiencyImprovement,
		decline:     model.PointEfficiencyDeterioration,
		value:       func(s model.TrackSample) float64 { return optional(s.Efficiency) },
		threshold:   func(perf, _ float64) float64 { return perf },
	}
)

func optional(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// SpeedChanges detects sustained changes in boat speed.
func SpeedChanges(in Input) Outcome { return windowedChanges(in, speedMetric) }

// VMGChanges detects sustained changes in velocity made good.
func VMGChanges(in Input) Outcome { return windowedChanges(in, vmgMetric) }

// EfficiencyChanges detects sustained changes in VMG/speed efficiency.
func EfficiencyChanges(in Input) Outcome { return windowedChanges(in, efficiencyMetric) }

// change is one windowed comparison around an index.
type change struct {
	index  int
	before float64
	after  float64
	diff   float64
	ratio  float64
}

// windowedChange smooths the series with a centered moving average and then
// compares the mean of the w smoothed values before each index with the mean
// of the w values from it. Indices whose windows touch the unsmoothed edges
// are skipped.
func windowedChange(series []float64, w int) []change {
	smooth := window.Centered(series, w)
	before := window.Trailing(smooth, w)
	var out []change
	for i := w; i+w <= len(smooth); i++ {
		if !isFinite(smooth[i-w]) || !isFinite(smooth[i+w-1]) {
			continue
		}
		pre := before[i-1]
		post := before[i+w-1]
		if !isFinite(pre) || !isFinite(post) || pre == 0 {
			continue
		}
		diff := post - pre
		out = append(out, change{
			index:  i,
			before: pre,
			after:  post,
			diff:   diff,
			ratio:  math.Abs(diff / pre),
		})
	}
	return out
}

func windowedChanges(in Input, m metric) Outcome {
	w := in.Params.WindowSize
	if w < 1 || len(in.Track) < 3*w {
		return NotEnoughData("need at least %d samples, have %d", 3*w, len(in.Track))
	}
	series := make([]float64, len(in.Track))
	available := 0
	for i, s := range in.Track {
		series[i] = m.value(s)
		if isFinite(series[i]) {
			available++
		}
	}
	if available == 0 {
		return NotEnoughData("track has no %s", m.name)
	}

	threshold := m.threshold(in.Params.PerformanceChangeThreshold, mean(series))
	var points []model.Point
	for _, c := range windowedChange(series, w) {
		if c.ratio <= threshold {
			continue
		}
		pt, verb := m.improvement, "improved"
		if c.diff < 0 {
			pt, verb = m.decline, "dropped"
		}
		s := in.Track[c.index]
		points = append(points, model.Point{
			Type:     pt,
			Time:     s.Time,
			Position: position(s),
			Description: fmt.Sprintf("%s %s %.0f%% (%.2f%s to %.2f%s)",
				titleMetric(m.name), verb, c.ratio*100, c.before, m.unit, c.after, m.unit),
			Detail: model.PerformanceDetail{
				Metric:      m.name,
				Before:      c.before,
				After:       c.after,
				Change:      c.diff,
				ChangeRatio: c.ratio,
			},
		})
	}
	return Ok(dedupe.Temporal(points, dedupe.DefaultTolerance))
}

func titleMetric(name string) string {
	switch name {
	case "vmg":
		return "VMG"
	case "efficiency":
		return "Efficiency"
	default:
		return "Speed"
	}
}
