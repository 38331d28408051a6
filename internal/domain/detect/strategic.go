package detect

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/wakepoint/internal/domain/dedupe"
	"github.com/okian/wakepoint/internal/domain/geo"
	"github.com/okian/wakepoint/internal/domain/model"
)

const (
	maneuverMinChange = 60.0
	tackMaxChange     = 160.0
	tackDefaultEff    = 0.8
	gybeDefaultEff    = 0.85

	laylineStride = 30

	shiftWindow       = 5
	shiftMinChange    = 10.0
	responseWindow    = 60 * time.Second
	responseMinChange = 5.0
	responseMinimal   = 10.0
	responseManeuver  = 80.0
)

// DirectionChanges finds tacks and gybes by comparing the circular mean
// heading of the windows immediately before and after each index.
func DirectionChanges(in Input) Outcome {
	w := in.Params.WindowSize
	track := in.Track
	if w < 1 || len(track) < 2*w {
		return NotEnoughData("need at least %d samples, have %d", 2*w, len(track))
	}
	if !anyHeading(track) {
		return NotEnoughData("track has no heading")
	}

	hdg := headings(track)
	spd := speeds(track)
	var points []model.Point
	for i := w; i+w <= len(track); i++ {
		pre := geo.CircularMean(hdg[i-w : i])
		post := geo.CircularMean(hdg[i : i+w])
		if math.IsNaN(pre) || math.IsNaN(post) {
			continue
		}
		change := math.Abs(geo.Diff(pre, post))
		if change <= maneuverMinChange {
			continue
		}

		pt := model.PointTack
		eff := tackDefaultEff
		if change > tackMaxChange {
			pt = model.PointGybe
			eff = gybeDefaultEff
		}
		before, after := mean(spd[i-w:i]), mean(spd[i:i+w])
		if isFinite(before) && isFinite(after) && before > 0 {
			eff = clamp(after/before, 0, 1)
		}

		points = append(points, model.Point{
			Type:     pt,
			Time:     track[i].Time,
			Position: position(track[i]),
			Description: fmt.Sprintf("%s: heading changed %.0f° from %.0f° to %.0f°",
				maneuverName(pt), change, pre, post),
			Detail: model.ManeuverDetail{
				HeadingChange: change,
				PreHeading:    pre,
				PostHeading:   post,
				Efficiency:    eff,
			},
		})
	}
	return Ok(dedupe.Temporal(points, dedupe.DefaultTolerance))
}

func maneuverName(t model.PointType) string {
	if t == model.PointGybe {
		return "Gybe"
	}
	return "Tack"
}

// Laylines samples every 30th fix and flags headings sitting on the typical
// upwind or downwind layline angle relative to the mean wind.
func Laylines(in Input) Outcome {
	if len(in.Track) == 0 {
		return NotEnoughData("empty track")
	}
	if len(in.Wind) == 0 {
		return NotEnoughData("no wind data")
	}
	dirs := make([]float64, len(in.Wind))
	for i, w := range in.Wind {
		dirs[i] = w.Direction
	}
	wind := geo.CircularMean(dirs)
	if math.IsNaN(wind) {
		return NotEnoughData("wind has no direction")
	}

	var points []model.Point
	for i := 0; i < len(in.Track); i += laylineStride {
		s := in.Track[i]
		if !s.HasHeading() {
			continue
		}
		angle := math.Abs(geo.Diff(wind, s.Heading))
		var side string
		switch {
		case angle > 35 && angle < 55:
			side = model.LaylineUpwind
		case angle > 125 && angle < 145:
			side = model.LaylineDownwind
		default:
			continue
		}
		points = append(points, model.Point{
			Type:        model.PointLayline,
			Time:        s.Time,
			Position:    position(s),
			Description: fmt.Sprintf("On the %s at %.0f° to the wind", laylineName(side), angle),
			Detail: model.LaylineDetail{
				Side:          side,
				AngleToWind:   angle,
				Heading:       s.Heading,
				WindDirection: wind,
			},
		})
	}
	return Ok(points)
}

func laylineName(side string) string {
	if side == model.LaylineDownwind {
		return "downwind layline"
	}
	return "upwind layline"
}

// windShift is a direction change between two adjacent wind windows.
type windShift struct {
	at    time.Time
	shift float64
}

// windShifts compares non-overlapping adjacent windows of five samples.
func windShifts(wind []model.WindSample) []windShift {
	dirs := make([]float64, len(wind))
	for i, w := range wind {
		dirs[i] = w.Direction
	}
	var out []windShift
	for i := 0; i+2*shiftWindow <= len(wind); i += shiftWindow {
		prev := geo.CircularMean(dirs[i : i+shiftWindow])
		next := geo.CircularMean(dirs[i+shiftWindow : i+2*shiftWindow])
		if math.IsNaN(prev) || math.IsNaN(next) {
			continue
		}
		shift := geo.Diff(prev, next)
		if math.Abs(shift) > shiftMinChange {
			out = append(out, windShift{at: wind[i+shiftWindow].Time, shift: shift})
		}
	}
	return out
}

// response describes how the heading evolved after a wind shift.
type response struct {
	anchor   model.TrackSample
	change   float64 // largest magnitude signed change
	firstAt  float64 // seconds until the first change above 5°
	answered bool
}

// headingResponse inspects the track in [t, t+span] against the heading at t.
func headingResponse(track []model.TrackSample, t time.Time, span time.Duration) (response, bool) {
	var r response
	found := false
	for _, s := range track {
		if s.Time.Before(t) || !s.HasHeading() {
			continue
		}
		if !found || s.Time.Before(r.anchor.Time) {
			r.anchor = s
			found = true
		}
	}
	if !found || r.anchor.Time.Sub(t) > span {
		return r, false
	}

	end := t.Add(span)
	first := time.Duration(math.MaxInt64)
	for _, s := range track {
		if s.Time.Before(r.anchor.Time) || s.Time.After(end) || !s.HasHeading() {
			continue
		}
		d := geo.Diff(r.anchor.Heading, s.Heading)
		if math.Abs(d) > math.Abs(r.change) {
			r.change = d
		}
		if math.Abs(d) > responseMinChange {
			if lag := s.Time.Sub(t); lag < first {
				first = lag
			}
			r.answered = true
		}
	}
	if r.answered {
		r.firstAt = first.Seconds()
	}
	return r, true
}

// WindShiftResponses classifies how the boat answered each wind shift within 60s.
func WindShiftResponses(in Input) Outcome {
	if len(in.Track) == 0 {
		return NotEnoughData("empty track")
	}
	if len(in.Wind) < 2*shiftWindow {
		return NotEnoughData("need at least %d wind samples, have %d", 2*shiftWindow, len(in.Wind))
	}

	var points []model.Point
	for _, ws := range windShifts(in.Wind) {
		r, ok := headingResponse(in.Track, ws.at, responseWindow)
		if !ok || !r.answered {
			continue
		}
		kind := classifyResponse(ws.shift, r.change)
		points = append(points, model.Point{
			Type:     model.PointWindShiftResponse,
			Time:     ws.at,
			Position: position(r.anchor),
			Description: fmt.Sprintf("Wind shifted %+.0f°, heading changed %+.0f° (%s)",
				ws.shift, r.change, kind),
			Detail: model.WindShiftDetail{
				WindShift:     ws.shift,
				HeadingChange: r.change,
				ResponseType:  kind,
				ResponseTime:  r.firstAt,
			},
		})
	}
	return Ok(points)
}

func classifyResponse(shift, change float64) string {
	mag := math.Abs(change)
	switch {
	case mag < responseMinimal:
		return model.ResponseMinimal
	case mag > responseManeuver:
		return model.ResponseTackOrGybe
	case math.Signbit(change) == math.Signbit(shift):
		return model.ResponseFavorable
	default:
		return model.ResponseUnfavorable
	}
}
