package detect

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/wakepoint/internal/domain/dedupe"
	"github.com/okian/wakepoint/internal/domain/model"
)

const (
	lagWindow        = 120 * time.Second
	lagResponseRatio = 0.3

	advantageStride = 30
	advantageWindow = 15 * time.Second
	advantageRatio  = 1.15
)

// WindShiftLags flags wind shifts the boat did not answer within 120s:
// the heading moved by less than 30% of the shift.
func WindShiftLags(in Input) Outcome {
	if len(in.Track) == 0 {
		return NotEnoughData("empty track")
	}
	if len(in.Wind) < 2*shiftWindow {
		return NotEnoughData("need at least %d wind samples, have %d", 2*shiftWindow, len(in.Wind))
	}

	var points []model.Point
	for _, ws := range windShifts(in.Wind) {
		r, ok := headingResponse(in.Track, ws.at, lagWindow)
		if !ok {
			continue
		}
		magnitude := math.Abs(ws.shift)
		ratio := math.Abs(r.change) / magnitude
		if math.Abs(r.change) >= lagResponseRatio*magnitude {
			continue
		}
		points = append(points, model.Point{
			Type:     model.PointMissedWindShift,
			Time:     ws.at,
			Position: position(r.anchor),
			Description: fmt.Sprintf("Wind shifted %+.0f° with only %.0f° of heading response in %s",
				ws.shift, math.Abs(r.change), lagWindow),
			Detail: model.MissedShiftDetail{
				WindShift:     ws.shift,
				HeadingChange: r.change,
				ResponseRatio: ratio,
			},
		})
	}
	return Ok(points)
}

// CompetitorAdvantages samples every 30th fix and flags stretches where the
// competitors nearby in time were more than 15% faster.
func CompetitorAdvantages(in Input) Outcome {
	if len(in.Track) == 0 {
		return NotEnoughData("empty track")
	}
	if len(in.Competitors) == 0 {
		return NotEnoughData("no competitor data")
	}

	byTime := newTimed(in.Competitors, competitorTime)
	var points []model.Point
	for i := 0; i < len(in.Track); i += advantageStride {
		s := in.Track[i]
		if !s.HasSpeed() || s.Speed <= 0 {
			continue
		}
		near := byTime.between(s.Time.Add(-advantageWindow), s.Time.Add(advantageWindow))
		vals := make([]float64, len(near))
		for j, c := range near {
			vals[j] = c.Speed
		}
		theirs := mean(vals)
		if !isFinite(theirs) || theirs <= advantageRatio*s.Speed {
			continue
		}
		points = append(points, model.Point{
			Type:     model.PointCompetitorAdvantage,
			Time:     s.Time,
			Position: position(s),
			Description: fmt.Sprintf("Competitors %.1f kn faster (%.1f vs %.1f kn) at %s",
				theirs-s.Speed, theirs, s.Speed, clockTime(s.Time)),
			Detail: model.AdvantageDetail{
				OwnSpeed:        s.Speed,
				CompetitorSpeed: theirs,
				SpeedAdvantage:  theirs - s.Speed,
				SpeedRatio:      theirs / s.Speed,
			},
		})
	}
	return Ok(dedupe.Temporal(points, dedupe.AdvantageTolerance))
}

// MissedLaylines would flag overstood or understood laylines. It needs a
// polar model of the boat that callers cannot supply yet.
func MissedLaylines(Input) Outcome {
	return NotImplemented("missed layline detection needs a boat polar model")
}

// MissedInefficiencies would flag stretches sailed below target efficiency.
// It needs target VMG per wind angle, which callers cannot supply yet.
func MissedInefficiencies(Input) Outcome {
	return NotImplemented("missed inefficiency detection needs target VMG data")
}
