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
	crossTimeWindow  = 10 * time.Second
	crossMaxDistance = 100.0

	roundingMaxDistance = 50.0
	roundingWindow      = 30
	roundingBase        = 7.0
	roundingIssueBelow  = 6.0
	abruptHeadingChange = 30.0
)

// groupByBoat splits competitor samples per boat, keeping first-seen order.
func groupByBoat(samples []model.CompetitorSample) ([]string, map[string][]model.CompetitorSample) {
	var order []string
	groups := make(map[string][]model.CompetitorSample)
	for _, c := range samples {
		id := c.Boat()
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], c)
	}
	return order, groups
}

func competitorTime(c model.CompetitorSample) time.Time { return c.Time }

// CrossPoints finds fixes where a competitor was within 100 m at about the
// same time. Encounters with the same boat closer than 30s merge into one.
func CrossPoints(in Input) Outcome {
	if len(in.Track) == 0 {
		return NotEnoughData("empty track")
	}
	if len(in.Competitors) == 0 {
		return NotEnoughData("no competitor data")
	}

	order, groups := groupByBoat(in.Competitors)
	var points []model.Point
	for _, boat := range order {
		byTime := newTimed(groups[boat], competitorTime)
		for _, s := range in.Track {
			for _, c := range byTime.between(s.Time.Add(-crossTimeWindow), s.Time.Add(crossTimeWindow)) {
				d := geo.Distance(s.Lat, s.Lon, c.Lat, c.Lon)
				if math.IsNaN(d) || d >= crossMaxDistance {
					continue
				}
				detail := model.CrossDetail{BoatID: boat, Distance: d}
				if s.HasHeading() && c.Heading != nil && isFinite(*c.Heading) {
					rel := geo.Signed(geo.Bearing(s.Lat, s.Lon, c.Lat, c.Lon) - s.Heading)
					detail.RelativeBearing = &rel
				}
				points = append(points, model.Point{
					Type:        model.PointCrossPoint,
					Time:        s.Time,
					Position:    position(s),
					Description: fmt.Sprintf("Crossed %s at %.0f m", boat, d),
					Detail:      detail,
				})
			}
		}
	}
	return Ok(dedupe.TemporalBy(points, dedupe.DefaultTolerance, func(p model.Point) string {
		return p.Detail.(model.CrossDetail).BoatID
	}))
}

// MarkRoundings evaluates the closest pass of every known mark.
func MarkRoundings(in Input) Outcome {
	if len(in.Track) == 0 {
		return NotEnoughData("empty track")
	}
	if in.Course == nil {
		return NotEnoughData("no course data")
	}
	var marks []model.Mark
	for _, m := range in.Course.Marks {
		if m.Known() {
			marks = append(marks, m)
		}
	}
	if len(marks) == 0 {
		return NotEnoughData("course has no mark with coordinates")
	}

	var points []model.Point
	for _, m := range marks {
		k, dist := closest(in.Track, m)
		if k < 0 || dist >= roundingMaxDistance {
			continue
		}
		approach := in.Track[max(0, k-roundingWindow):k]
		exit := in.Track[k:min(len(in.Track), k+roundingWindow)]
		r := EvaluateRounding(approach, exit)
		s := in.Track[k]
		points = append(points, model.Point{
			Type:        model.PointMarkRounding,
			Time:        s.Time,
			Position:    position(s),
			Description: fmt.Sprintf("Rounded %s (quality %.1f/10)", markLabel(m), r.RoundingQuality),
			Detail: model.RoundingDetail{
				MarkName:        m.Name,
				MarkType:        m.Type,
				Distance:        dist,
				RoundingQuality: r.RoundingQuality,
				ApproachSpeed:   r.ApproachSpeed,
				ExitSpeed:       r.ExitSpeed,
				Issues:          r.Issues,
			},
		})
	}
	return Ok(points)
}

func markLabel(m model.Mark) string {
	if m.Name == "" {
		return "mark"
	}
	return m.Name
}

func closest(track []model.TrackSample, m model.Mark) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i, s := range track {
		d := geo.Distance(s.Lat, s.Lon, m.Lat, m.Lon)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// Rounding is the quality assessment of one mark rounding.
type Rounding struct {
	RoundingQuality float64
	ApproachSpeed   float64
	ExitSpeed       float64
	Issues          []string
}

// EvaluateRounding scores a rounding from the approach and exit windows.
// Quality starts at 7 and is scaled by speed retention and heading smoothness.
func EvaluateRounding(approach, exit []model.TrackSample) Rounding {
	r := Rounding{
		ApproachSpeed: mean(speeds(approach)),
		ExitSpeed:     mean(speeds(exit)),
	}

	retention := math.NaN()
	speedFactor := 1.0
	if isFinite(r.ApproachSpeed) && isFinite(r.ExitSpeed) && r.ApproachSpeed > 0 {
		retention = r.ExitSpeed / r.ApproachSpeed
		speedFactor = clamp(retention, 0.5, 1.2)
	}

	combined := make([]model.TrackSample, 0, len(approach)+len(exit))
	combined = append(combined, approach...)
	combined = append(combined, exit...)

	smoothFactor := 1.0
	if std := geo.CircularStdDev(headings(combined)); !math.IsNaN(std) {
		smoothFactor = clamp(1.5-std/90, 0.5, 1.5)
	}

	r.RoundingQuality = clamp(roundingBase*speedFactor*smoothFactor, 0, 10)
	if r.RoundingQuality < roundingIssueBelow {
		r.Issues = roundingIssues(combined, r.ApproachSpeed, retention)
	}
	if !isFinite(r.ApproachSpeed) {
		r.ApproachSpeed = 0
	}
	if !isFinite(r.ExitSpeed) {
		r.ExitSpeed = 0
	}
	return r
}

func roundingIssues(combined []model.TrackSample, approachSpeed, retention float64) []string {
	var issues []string
	if isFinite(retention) && retention < 0.8 {
		issues = append(issues, model.IssueSpeedLoss)
	}
	if isFinite(approachSpeed) && approachSpeed > 0 {
		minSpeed := math.Inf(1)
		for _, s := range combined {
			if s.HasSpeed() && s.Speed < minSpeed {
				minSpeed = s.Speed
			}
		}
		if minSpeed < 0.6*approachSpeed {
			issues = append(issues, model.IssueDeceleration)
		}
	}
	for i := 1; i < len(combined); i++ {
		a, b := combined[i-1], combined[i]
		if a.HasHeading() && b.HasHeading() && math.Abs(geo.Diff(a.Heading, b.Heading)) > abruptHeadingChange {
			issues = append(issues, model.IssueAbruptTurn)
			break
		}
	}
	if len(issues) == 0 {
		issues = append(issues, model.IssueRoomToImprove)
	}
	return issues
}
