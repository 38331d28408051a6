package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// PointType tags the variant of a decision point.
type PointType string

// Decision point variants.
const (
	PointTack                    PointType = "tack"
	PointGybe                    PointType = "gybe"
	PointLayline                 PointType = "layline"
	PointWindShiftResponse       PointType = "wind_shift_response"
	PointSpeedImprovement        PointType = "speed_improvement"
	PointSpeedDeterioration      PointType = "speed_deterioration"
	PointVMGImprovement          PointType = "vmg_improvement"
	PointVMGDeterioration        PointType = "vmg_deterioration"
	PointEfficiencyImprovement   PointType = "efficiency_improvement"
	PointEfficiencyDeterioration PointType = "efficiency_deterioration"
	PointCrossPoint              PointType = "cross_point"
	PointMarkRounding            PointType = "mark_rounding"
	PointMissedWindShift         PointType = "missed_wind_shift"
	PointCompetitorAdvantage     PointType = "competitor_advantage"
)

// Category groups point types for result counts.
type Category string

// Result categories.
const (
	CategoryStrategic   Category = "strategic"
	CategoryPerformance Category = "performance"
	CategoryCross       Category = "cross"
	CategoryMark        Category = "mark"
	CategoryMissed      Category = "missed"
)

// Category returns the count bucket of the point type.
func (t PointType) Category() Category {
	switch t {
	case PointTack, PointGybe, PointLayline, PointWindShiftResponse:
		return CategoryStrategic
	case PointSpeedImprovement, PointSpeedDeterioration,
		PointVMGImprovement, PointVMGDeterioration,
		PointEfficiencyImprovement, PointEfficiencyDeterioration:
		return CategoryPerformance
	case PointCrossPoint:
		return CategoryCross
	case PointMarkRounding:
		return CategoryMark
	case PointMissedWindShift, PointCompetitorAdvantage:
		return CategoryMissed
	default:
		return CategoryStrategic
	}
}

// Position is a latitude/longitude pair.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Factor is one applied impact modifier.
type Factor struct {
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

// Alternative is a synthesized what-if outcome. Impact lies in [0,1].
type Alternative struct {
	Scenario string  `json:"scenario"`
	Outcome  string  `json:"outcome"`
	Impact   float64 `json:"impact"`
}

// Point is a detected decision point. Detail holds the variant specific data
// and always matches Type.
type Point struct {
	Type          PointType     `json:"type"`
	Time          time.Time     `json:"time"`
	Position      Position      `json:"position"`
	Description   string        `json:"description"`
	ImpactScore   float64       `json:"impact_score"`
	ImpactFactors []Factor      `json:"impact_factors,omitempty"`
	Alternatives  []Alternative `json:"alternatives,omitempty"`
	Detail        Detail        `json:"detail"`
}

// Detail is the sealed set of variant payloads.
type Detail interface {
	isDetail()
}

// ManeuverDetail describes a tack or gybe.
type ManeuverDetail struct {
	HeadingChange float64 `json:"heading_change"`
	PreHeading    float64 `json:"pre_heading"`
	PostHeading   float64 `json:"post_heading"`
	Efficiency    float64 `json:"efficiency"`
}

// LaylineDetail describes a layline approach.
type LaylineDetail struct {
	Side          string  `json:"side"`
	AngleToWind   float64 `json:"angle_to_wind"`
	Heading       float64 `json:"heading"`
	WindDirection float64 `json:"wind_direction"`
}

// Layline sides.
const (
	LaylineUpwind   = "upwind_layline"
	LaylineDownwind = "downwind_layline"
)

// WindShiftDetail describes how the boat answered a wind shift.
type WindShiftDetail struct {
	WindShift     float64 `json:"wind_shift"`
	HeadingChange float64 `json:"heading_change"`
	ResponseType  string  `json:"response_type"`
	ResponseTime  float64 `json:"response_time"` // seconds
}

// Wind shift response types.
const (
	ResponseMinimal     = "minimal_adjustment"
	ResponseTackOrGybe  = "tack_or_gybe"
	ResponseFavorable   = "favorable_adjustment"
	ResponseUnfavorable = "unfavorable_adjustment"
)

// PerformanceDetail describes a speed, VMG or efficiency change.
type PerformanceDetail struct {
	Metric      string  `json:"metric"`
	Before      float64 `json:"before"`
	After       float64 `json:"after"`
	Change      float64 `json:"change"`
	ChangeRatio float64 `json:"change_ratio"`
}

// CrossDetail describes a close encounter with a competitor.
type CrossDetail struct {
	BoatID          string   `json:"boat_id"`
	Distance        float64  `json:"distance"` // meters
	RelativeBearing *float64 `json:"relative_bearing,omitempty"`
}

// RoundingDetail describes a mark rounding.
type RoundingDetail struct {
	MarkName        string   `json:"mark_name"`
	MarkType        string   `json:"mark_type"`
	Distance        float64  `json:"distance"`
	RoundingQuality float64  `json:"rounding_quality"`
	ApproachSpeed   float64  `json:"approach_speed"`
	ExitSpeed       float64  `json:"exit_speed"`
	Issues          []string `json:"issues,omitempty"`
}

// Rounding issues.
const (
	IssueSpeedLoss     = "large speed loss"
	IssueDeceleration  = "extreme deceleration"
	IssueAbruptTurn    = "abrupt direction change"
	IssueRoomToImprove = "room for efficiency improvement"
)

// MissedShiftDetail describes a wind shift the boat did not answer.
type MissedShiftDetail struct {
	WindShift     float64 `json:"wind_shift"`
	HeadingChange float64 `json:"heading_change"`
	ResponseRatio float64 `json:"response_ratio"`
}

// AdvantageDetail describes a stretch where competitors were faster.
type AdvantageDetail struct {
	OwnSpeed        float64 `json:"own_speed"`
	CompetitorSpeed float64 `json:"competitor_speed"`
	SpeedAdvantage  float64 `json:"speed_advantage"`
	SpeedRatio      float64 `json:"speed_ratio"`
}

func (ManeuverDetail) isDetail()    {}
func (LaylineDetail) isDetail()     {}
func (WindShiftDetail) isDetail()   {}
func (PerformanceDetail) isDetail() {}
func (CrossDetail) isDetail()       {}
func (RoundingDetail) isDetail()    {}
func (MissedShiftDetail) isDetail() {}
func (AdvantageDetail) isDetail()   {}

// decodeDetail decodes the payload matching the point type.
func decodeDetail(t PointType, raw json.RawMessage) (Detail, error) {
	switch t {
	case PointTack, PointGybe:
		return decodeAs[ManeuverDetail](raw)
	case PointLayline:
		return decodeAs[LaylineDetail](raw)
	case PointWindShiftResponse:
		return decodeAs[WindShiftDetail](raw)
	case PointSpeedImprovement, PointSpeedDeterioration,
		PointVMGImprovement, PointVMGDeterioration,
		PointEfficiencyImprovement, PointEfficiencyDeterioration:
		return decodeAs[PerformanceDetail](raw)
	case PointCrossPoint:
		return decodeAs[CrossDetail](raw)
	case PointMarkRounding:
		return decodeAs[RoundingDetail](raw)
	case PointMissedWindShift:
		return decodeAs[MissedShiftDetail](raw)
	case PointCompetitorAdvantage:
		return decodeAs[AdvantageDetail](raw)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPointType, t)
}

func decodeAs[T Detail](raw json.RawMessage) (Detail, error) {
	var d T
	if len(raw) == 0 || string(raw) == "null" {
		return d, nil
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return d, nil
}

// UnmarshalJSON restores the concrete Detail from the type tag.
func (p *Point) UnmarshalJSON(data []byte) error {
	type plain Point
	aux := struct {
		*plain
		Detail json.RawMessage `json:"detail"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d, err := decodeDetail(p.Type, aux.Detail)
	if err != nil {
		return err
	}
	p.Detail = d
	return nil
}
