// Package scenario synthesizes what-if alternatives for decision points.
package scenario

import (
	"fmt"
	"math"
	"slices"

	"github.com/okian/wakepoint/internal/domain/model"
)

// FallbackImpact is the impact of the single alternative returned when a
// template fails.
const FallbackImpact = 0.1

type template func(p model.Point) []model.Alternative

// Generator dispatches points to per-type templates.
type Generator struct {
	templates map[model.PointType]template
}

// Option configures a Generator.
type Option func(*Generator)

// WithTemplate replaces the template for one point type.
func WithTemplate(t model.PointType, fn func(model.Point) []model.Alternative) Option {
	return func(g *Generator) {
		if fn != nil {
			g.templates[t] = fn
		}
	}
}

// NewGenerator returns a generator with the built-in templates.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{templates: map[model.PointType]template{
		model.PointTack:                    maneuver,
		model.PointGybe:                    maneuver,
		model.PointLayline:                 layline,
		model.PointWindShiftResponse:       windShift,
		model.PointSpeedImprovement:        performance,
		model.PointSpeedDeterioration:      performance,
		model.PointVMGImprovement:          performance,
		model.PointVMGDeterioration:        performance,
		model.PointEfficiencyImprovement:   performance,
		model.PointEfficiencyDeterioration: performance,
		model.PointCrossPoint:              crossing,
		model.PointMarkRounding:            rounding,
		model.PointMissedWindShift:         missedShift,
		model.PointCompetitorAdvantage:     advantage,
	}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns 2-4 alternatives with impact in [0,1]. It never fails: a
// failing template is replaced by one low-confidence generic alternative.
func (g *Generator) Generate(p model.Point) (alts []model.Alternative) {
	defer func() {
		if r := recover(); r != nil {
			alts = []model.Alternative{{
				Scenario: "Review this moment on video",
				Outcome:  "Not enough structured data to estimate an alternative",
				Impact:   FallbackImpact,
			}}
		}
	}()

	fn, ok := g.templates[p.Type]
	if !ok {
		fn = generic
	}
	out := fn(p)
	if len(out) == 0 {
		out = generic(p)
	}
	for i := range out {
		out[i].Impact = bounded(out[i].Impact)
	}
	return out
}

func bounded(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func maneuver(p model.Point) []model.Alternative {
	d := p.Detail.(model.ManeuverDetail)
	name := "tack"
	if p.Type == model.PointGybe {
		name = "gybe"
	}
	loss := 1 - d.Efficiency
	alts := []model.Alternative{
		{
			Scenario: fmt.Sprintf("Delay the %s by 30 seconds", name),
			Outcome:  "Could reach a better pressure line before turning",
			Impact:   0.3 + 0.2*loss,
		},
		{
			Scenario: fmt.Sprintf("Skip the %s and extend on the current board", name),
			Outcome:  "Saves the maneuver loss but risks overstanding",
			Impact:   0.25,
		},
	}
	if d.Efficiency < 0.8 {
		alts = append(alts, model.Alternative{
			Scenario: fmt.Sprintf("Execute the %s with a wider exit angle", name),
			Outcome:  fmt.Sprintf("Could recover up to %.0f%% of the speed lost", loss*100),
			Impact:   0.4 + 0.4*loss,
		})
	}
	return alts
}

func layline(p model.Point) []model.Alternative {
	d := p.Detail.(model.LaylineDetail)
	return []model.Alternative{
		{
			Scenario: "Approach the layline later",
			Outcome:  "Keeps options open for late shifts",
			Impact:   0.35,
		},
		{
			Scenario: "Tack or gybe onto the layline earlier",
			Outcome:  fmt.Sprintf("Avoids sailing %.0f° off the optimal angle near the mark", math.Abs(d.AngleToWind-45)),
			Impact:   0.3,
		},
	}
}

func windShift(p model.Point) []model.Alternative {
	d := p.Detail.(model.WindShiftDetail)
	alts := []model.Alternative{{
		Scenario: "Respond to the shift within 15 seconds",
		Outcome:  "Earlier response converts more of the shift into gain",
		Impact:   0.3 + math.Min(0.3, d.ResponseTime/200),
	}}
	switch d.ResponseType {
	case model.ResponseUnfavorable:
		alts = append(alts, model.Alternative{
			Scenario: "Turn with the shift instead of against it",
			Outcome:  fmt.Sprintf("Would have used the %.0f° shift as a lift", math.Abs(d.WindShift)),
			Impact:   0.7,
		})
	case model.ResponseMinimal:
		alts = append(alts, model.Alternative{
			Scenario: "Commit to a larger course change",
			Outcome:  "A small adjustment leaves most of the shift unused",
			Impact:   0.5,
		})
	case model.ResponseTackOrGybe:
		alts = append(alts, model.Alternative{
			Scenario: "Hold course and wait for the shift to settle",
			Outcome:  "Avoids a maneuver if the shift is an oscillation",
			Impact:   0.35,
		})
	default:
		alts = append(alts, model.Alternative{
			Scenario: "Hold the new heading longer",
			Outcome:  "Maximizes the gain from a favorable shift",
			Impact:   0.25,
		})
	}
	return alts
}

func performance(p model.Point) []model.Alternative {
	d := p.Detail.(model.PerformanceDetail)
	ratio := math.Abs(d.ChangeRatio)
	if d.Change >= 0 {
		return []model.Alternative{
			{
				Scenario: fmt.Sprintf("Reproduce the %s trim and course earlier", d.Metric),
				Outcome:  "Carrying this setup longer would compound the gain",
				Impact:   0.2 + 0.3*math.Min(1, ratio),
			},
			{
				Scenario: "Note wind and sea state for this setup",
				Outcome:  "Builds a reference for similar conditions",
				Impact:   0.15,
			},
		}
	}
	return []model.Alternative{
		{
			Scenario: fmt.Sprintf("Check sail trim when %s starts to drop", d.Metric),
			Outcome:  fmt.Sprintf("Could limit the %.0f%% loss", ratio*100),
			Impact:   0.3 + 0.4*math.Min(1, ratio),
		},
		{
			Scenario: "Look for better pressure or flatter water",
			Outcome:  "Changing lane may restore target speed",
			Impact:   0.3,
		},
		{
			Scenario: "Adjust heel and crew weight",
			Outcome:  "Small gains in balance reduce drag",
			Impact:   0.2,
		},
	}
}

func crossing(p model.Point) []model.Alternative {
	d := p.Detail.(model.CrossDetail)
	closeness := math.Min(1, 100/math.Max(10, d.Distance)/10)
	alts := []model.Alternative{
		{
			Scenario: fmt.Sprintf("Duck %s", d.BoatID),
			Outcome:  "Keeps clear air and continues to the favored side",
			Impact:   0.3 + 0.3*closeness,
		},
		{
			Scenario: fmt.Sprintf("Lee-bow %s", d.BoatID),
			Outcome:  "Forces the other boat onto the unfavored side",
			Impact:   0.4,
		},
	}
	if d.RelativeBearing != nil {
		side := "starboard"
		if *d.RelativeBearing < 0 {
			side = "port"
		}
		alts = append(alts, model.Alternative{
			Scenario: fmt.Sprintf("Tack early to keep %s on the %s side", d.BoatID, side),
			Outcome:  "Controls the crossing before it is forced",
			Impact:   0.35,
		})
	}
	return alts
}

func rounding(p model.Point) []model.Alternative {
	d := p.Detail.(model.RoundingDetail)
	deficit := math.Max(0, (10-d.RoundingQuality)/10)
	alts := []model.Alternative{{
		Scenario: "Wide-in, tight-out rounding",
		Outcome:  "Exits closer to the mark with more speed",
		Impact:   0.3 + 0.4*deficit,
	}}
	if slices.Contains(d.Issues, model.IssueSpeedLoss) || slices.Contains(d.Issues, model.IssueDeceleration) {
		alts = append(alts, model.Alternative{
			Scenario: "Ease sails progressively through the turn",
			Outcome:  "Keeps flow attached and reduces speed loss",
			Impact:   0.6,
		})
	}
	if slices.Contains(d.Issues, model.IssueAbruptTurn) {
		alts = append(alts, model.Alternative{
			Scenario: "Start the turn earlier with less rudder",
			Outcome:  "A smoother arc loses less speed",
			Impact:   0.5,
		})
	}
	if len(alts) < 2 {
		alts = append(alts, model.Alternative{
			Scenario: "Set up the approach two lengths earlier",
			Outcome:  "Reduces traffic and gives room for a clean exit",
			Impact:   0.25,
		})
	}
	return alts
}

func missedShift(p model.Point) []model.Alternative {
	d := p.Detail.(model.MissedShiftDetail)
	return []model.Alternative{
		{
			Scenario: "Tack on the header",
			Outcome:  fmt.Sprintf("Could have gained from a %.0f° shift", math.Abs(d.WindShift)),
			Impact:   0.4 + math.Min(0.4, math.Abs(d.WindShift)/100),
		},
		{
			Scenario: "Adjust heading by half the shift",
			Outcome:  "Partial response captures some of the gain",
			Impact:   0.3,
		},
	}
}

func advantage(p model.Point) []model.Alternative {
	d := p.Detail.(model.AdvantageDetail)
	return []model.Alternative{
		{
			Scenario: "Match the competitors' lane and mode",
			Outcome:  fmt.Sprintf("Could recover %.1f kn of speed deficit", d.SpeedAdvantage),
			Impact:   0.3 + math.Min(0.5, (d.SpeedRatio-1)),
		},
		{
			Scenario: "Move to the side with more pressure",
			Outcome:  "Faster boats nearby suggest better wind",
			Impact:   0.35,
		},
	}
}

func generic(model.Point) []model.Alternative {
	return []model.Alternative{
		{
			Scenario: "Make the decision earlier",
			Outcome:  "More time to execute cleanly",
			Impact:   0.2,
		},
		{
			Scenario: "Hold the previous plan",
			Outcome:  "Avoids the cost of a change",
			Impact:   0.15,
		},
	}
}
