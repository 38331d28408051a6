// Package model contains domain models passed between layers.
package model

import (
	"math"
	"time"
)

// TrackSample is one recorded GPS fix of the analysed boat.
// Heading is in degrees [0,360), Speed and VMG in knots, Efficiency is
// VMG/speed. Heading and Speed may be NaN when the recorder did not provide them.
type TrackSample struct {
	Time       time.Time `json:"time"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Heading    float64   `json:"heading"`
	Speed      float64   `json:"speed"`
	VMG        *float64  `json:"vmg,omitempty"`
	Efficiency *float64  `json:"efficiency,omitempty"`
}

// HasHeading reports whether the sample carries a usable heading.
func (s TrackSample) HasHeading() bool { return finite(s.Heading) }

// HasSpeed reports whether the sample carries a usable speed.
func (s TrackSample) HasSpeed() bool { return finite(s.Speed) }

// WindSample is one wind observation.
type WindSample struct {
	Time      time.Time `json:"time"`
	Direction float64   `json:"direction"` // degrees the wind blows from
	Speed     float64   `json:"speed"`     // knots
}

// DefaultBoatID groups competitor samples that carry no boat identifier.
const DefaultBoatID = "competitor"

// CompetitorSample is one fix of another boat in the same race.
type CompetitorSample struct {
	BoatID  string    `json:"boat_id"`
	Time    time.Time `json:"time"`
	Lat     float64   `json:"lat"`
	Lon     float64   `json:"lon"`
	Speed   float64   `json:"speed"`
	Heading *float64  `json:"heading,omitempty"`
}

// Boat returns the grouping key of the sample.
func (c CompetitorSample) Boat() string {
	if c.BoatID == "" {
		return DefaultBoatID
	}
	return c.BoatID
}

// Mark is a course mark.
type Mark struct {
	Name string  `json:"name" yaml:"name"`
	Type string  `json:"type" yaml:"type"`
	Lat  float64 `json:"lat" yaml:"lat"`
	Lon  float64 `json:"lon" yaml:"lon"`
}

// Known reports whether the mark has usable coordinates.
func (m Mark) Known() bool {
	return finite(m.Lat) && finite(m.Lon) && !(m.Lat == 0 && m.Lon == 0)
}

// StartLine is the optional start line of a course.
type StartLine struct {
	PinLat       float64 `json:"pin_lat" yaml:"pin_lat"`
	PinLon       float64 `json:"pin_lon" yaml:"pin_lon"`
	CommitteeLat float64 `json:"committee_lat" yaml:"committee_lat"`
	CommitteeLon float64 `json:"committee_lon" yaml:"committee_lon"`
}

// Course describes the marks of the race.
type Course struct {
	Marks     []Mark     `json:"marks" yaml:"marks"`
	StartLine *StartLine `json:"start_line,omitempty" yaml:"start_line,omitempty"`
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
