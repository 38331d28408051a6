// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/wakepoint/internal/domain/dedupe"
	"github.com/okian/wakepoint/internal/domain/model"
	"github.com/okian/wakepoint/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue records the job as pending and queues it. Returns false on backpressure.
	Enqueue(ctx context.Context, j model.Job) bool

	// Analysis returns a stored analysis; errors wrap ErrNotFound for unknown ids.
	Analysis(ctx context.Context, id string) (model.Analysis, error)

	// TopMoments returns the n highest-impact moments across analyses.
	TopMoments(ctx context.Context, n int) ([]model.Moment, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	analysesHandler *AnalysesHandler
	momentsHandler  *MomentsHandler
	logger          logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxMomentsLimit int, opts ...Option) *Server {
	s := &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		analysesHandler: NewAnalysesHandler(deps),
		momentsHandler:  NewMomentsHandler(deps, maxMomentsLimit),
		logger:          logger.Get().Named("http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	wrap := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return RecoverMiddleware(MetricsMiddleware(h, endpoint), s.logger)
	}
	mux.HandleFunc("GET /healthz", wrap(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", wrap(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /analyses", wrap(s.analysesHandler.HandlePostAnalysis, "analyses"))
	mux.HandleFunc("GET /analyses/{id}", wrap(s.analysesHandler.HandleGetAnalysis, "analysis"))
	mux.HandleFunc("GET /moments", wrap(s.momentsHandler.HandleGetMoments, "moments"))
}

type ackResponse struct {
	Status     string `json:"status"`
	AnalysisID string `json:"analysis_id"`
	Duplicate  bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
