package model

import "time"

// AnalysisStatus tracks a submitted analysis through the service.
type AnalysisStatus string

// Analysis lifecycle states.
const (
	AnalysisPending AnalysisStatus = "pending"
	AnalysisDone    AnalysisStatus = "done"
	AnalysisFailed  AnalysisStatus = "failed"
)

// Job is one race analysis request flowing through the queue.
type Job struct {
	AnalysisID    string             // unique id for idempotency
	Sensitivity   *float64           // nil uses the service default
	AnalysisLevel string             // empty uses the service default
	Track         []TrackSample
	Wind          []WindSample
	Competitors   []CompetitorSample
	Course        *Course
	SubmittedAt   time.Time
}

// Analysis is the stored state of a submitted job.
type Analysis struct {
	ID          string         `json:"id"`
	Status      AnalysisStatus `json:"status"`
	SubmittedAt time.Time      `json:"submitted_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Result      *Result        `json:"result,omitempty"`
}

// Moment is one ranked decision point across stored analyses.
type Moment struct {
	Rank        int       `json:"rank"`
	AnalysisID  string    `json:"analysis_id"`
	Index       int       `json:"index"`
	Type        PointType `json:"type"`
	Time        time.Time `json:"time"`
	ImpactScore float64   `json:"impact_score"`
	Description string    `json:"description"`
}
