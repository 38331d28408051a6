package model

import (
	"errors"
	"time"
)

// Sentinel errors for this package.
var (
	ErrUnknownPointType = errors.New("unknown point type")
	ErrEmptyTrack       = errors.New("track data is empty")
)

// Status tags a result as usable or failed.
type Status string

// Result statuses.
const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// DetectorStatus is the outcome of one detector pass.
type DetectorStatus string

// Detector outcomes.
const (
	DetectorOK             DetectorStatus = "ok"
	DetectorNotEnoughData  DetectorStatus = "not_enough_data"
	DetectorNotImplemented DetectorStatus = "not_implemented"
	DetectorFailed         DetectorStatus = "failed"
)

// DetectorReport records what a detector contributed to a result.
type DetectorReport struct {
	Name   string         `json:"name"`
	Status DetectorStatus `json:"status"`
	Points int            `json:"points"`
	Error  string         `json:"error,omitempty"`
}

// Counts holds raw candidate counts per category, before filtering.
type Counts struct {
	Strategic   int `json:"strategic"`
	Performance int `json:"performance"`
	Cross       int `json:"cross"`
	Mark        int `json:"mark"`
	Missed      int `json:"missed"`
}

// Add increments the bucket of the category.
func (c *Counts) Add(cat Category, n int) {
	switch cat {
	case CategoryStrategic:
		c.Strategic += n
	case CategoryPerformance:
		c.Performance += n
	case CategoryCross:
		c.Cross += n
	case CategoryMark:
		c.Mark += n
	case CategoryMissed:
		c.Missed += n
	}
}

// Total returns the sum of all buckets.
func (c Counts) Total() int {
	return c.Strategic + c.Performance + c.Cross + c.Mark + c.Missed
}

// Parameters is the detection parameter set a result was produced with.
type Parameters struct {
	StrategicDecisionThreshold float64 `json:"strategic_decision_threshold"`
	PerformanceChangeThreshold float64 `json:"performance_change_threshold"`
	WindowSize                 int     `json:"window_size"`
	MinImpactScore             float64 `json:"min_impact_score"`
	MaxPoints                  int     `json:"max_points"`
}

// Result is the output of one key point identification call.
type Result struct {
	Status           Status           `json:"status"`
	Error            string           `json:"error,omitempty"`
	HighImpactPoints []Point          `json:"high_impact_points"`
	Counts           Counts           `json:"counts"`
	TotalCandidates  int              `json:"total_candidates"`
	Summary          string           `json:"summary"`
	Parameters       Parameters       `json:"parameters"`
	Detectors        []DetectorReport `json:"detectors,omitempty"`
	GeneratedAt      time.Time        `json:"generated_at"`
}
