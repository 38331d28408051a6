package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/wakepoint/internal/domain/model"
	"github.com/okian/wakepoint/internal/domain/params"
	"github.com/okian/wakepoint/internal/trackio"
	"github.com/okian/wakepoint/pkg/metrics"
)

const defaultMaxBodyBytes = 16 << 20

// AnalysisDependencies defines the interface for submission and lookup.
type AnalysisDependencies interface {
	SeenAndRecord(ctx context.Context, id string) bool
	Unrecord(ctx context.Context, id string)
	Enqueue(ctx context.Context, j model.Job) bool
	Analysis(ctx context.Context, id string) (model.Analysis, error)
}

// AnalysesHandler handles analysis submission and retrieval.
type AnalysesHandler struct {
	deps         AnalysisDependencies
	maxBodyBytes int64
	newID        func() string
	now          func() time.Time
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(deps AnalysisDependencies) *AnalysesHandler {
	return &AnalysesHandler{
		deps:         deps,
		maxBodyBytes: defaultMaxBodyBytes,
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

// trackSample accepts heading and speed as optional fields.
type trackSample struct {
	Time       time.Time `json:"time"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Heading    *float64  `json:"heading"`
	Speed      *float64  `json:"speed"`
	VMG        *float64  `json:"vmg"`
	Efficiency *float64  `json:"efficiency"`
}

// analysisRequest is the body of POST /analyses.
type analysisRequest struct {
	AnalysisID    string                   `json:"analysis_id"`
	Sensitivity   *float64                 `json:"sensitivity"`
	AnalysisLevel string                   `json:"analysis_level"`
	Track         []trackSample            `json:"track"`
	Wind          []model.WindSample       `json:"wind"`
	Competitors   []model.CompetitorSample `json:"competitors"`
	Course        *model.Course            `json:"course"`
}

func (r analysisRequest) validate() error {
	switch {
	case len(r.Track) == 0:
		return errors.New("track must not be empty")
	case r.Sensitivity != nil && (math.IsNaN(*r.Sensitivity) || *r.Sensitivity < 0 || *r.Sensitivity > 1):
		return errors.New("sensitivity must be in [0,1]")
	case r.AnalysisLevel != "" && !params.Level(strings.ToLower(r.AnalysisLevel)).Valid():
		return fmt.Errorf("unknown analysis_level %q", r.AnalysisLevel)
	}
	for i, s := range r.Track {
		if s.Time.IsZero() {
			return fmt.Errorf("track[%d]: missing time", i)
		}
		if !validPosition(s.Lat, s.Lon) {
			return fmt.Errorf("track[%d]: invalid position", i)
		}
	}
	for i, w := range r.Wind {
		if w.Time.IsZero() {
			return fmt.Errorf("wind[%d]: missing time", i)
		}
	}
	for i, c := range r.Competitors {
		if c.Time.IsZero() {
			return fmt.Errorf("competitors[%d]: missing time", i)
		}
		if !validPosition(c.Lat, c.Lon) {
			return fmt.Errorf("competitors[%d]: invalid position", i)
		}
	}
	return nil
}

func validPosition(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// job converts the request. Missing headings and speeds are derived from
// consecutive fixes.
func (r analysisRequest) job(id string, at time.Time) model.Job {
	track := make([]model.TrackSample, len(r.Track))
	for i, s := range r.Track {
		track[i] = model.TrackSample{
			Time:       s.Time,
			Lat:        s.Lat,
			Lon:        s.Lon,
			Heading:    orNaN(s.Heading),
			Speed:      orNaN(s.Speed),
			VMG:        s.VMG,
			Efficiency: s.Efficiency,
		}
	}
	trackio.Derive(track)
	return model.Job{
		AnalysisID:    id,
		Sensitivity:   r.Sensitivity,
		AnalysisLevel: r.AnalysisLevel,
		Track:         track,
		Wind:          r.Wind,
		Competitors:   r.Competitors,
		Course:        r.Course,
		SubmittedAt:   at,
	}
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// HandlePostAnalysis handles POST /analyses requests.
func (h *AnalysesHandler) HandlePostAnalysis(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_analysis"
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	id := strings.TrimSpace(req.AnalysisID)
	if id == "" {
		id = h.newID()
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), id) {
		metrics.RecordAnalysisDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", AnalysisID: id, Duplicate: true})
		return
	}

	if ok := h.deps.Enqueue(r.Context(), req.job(id, h.now().UTC())); !ok {
		// Forget the id so the client can retry.
		h.deps.Unrecord(r.Context(), id)
		writeError(w, http.StatusTooManyRequests, "backpressure", wrapKind(op, ErrBackpressure, nil))
		return
	}
	metrics.RecordAnalysisSubmitted()
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", AnalysisID: id})
}

// HandleGetAnalysis handles GET /analyses/{id} requests.
func (h *AnalysesHandler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_analysis"
	id := r.PathValue("id")
	if strings.TrimSpace(id) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, nil))
		return
	}
	a, err := h.deps.Analysis(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", wrapKind(op, ErrNotFound, nil))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", fmt.Errorf("%s: %w", op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}
