package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/wakepoint/internal/domain/model"
)

const defaultMomentsLimit = 10

// MomentsDependencies defines the interface for moment ranking reads.
type MomentsDependencies interface {
	TopMoments(ctx context.Context, n int) ([]model.Moment, error)
}

// MomentsHandler handles moment ranking requests.
type MomentsHandler struct {
	deps     MomentsDependencies
	maxLimit int
}

// NewMomentsHandler creates a new moments handler.
func NewMomentsHandler(deps MomentsDependencies, maxLimit int) *MomentsHandler {
	if maxLimit < 1 {
		maxLimit = defaultMomentsLimit
	}
	return &MomentsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetMoments handles GET /moments?limit=N requests. A missing limit
// uses min(10, max limit).
func (h *MomentsHandler) HandleGetMoments(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_moments"
	n := min(defaultMomentsLimit, h.maxLimit)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, fmt.Errorf("invalid limit %q", limitStr)))
			return
		}
		if v > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", wrapKind(op, ErrBadRequest, fmt.Errorf("limit must be at most %d", h.maxLimit)))
			return
		}
		n = v
	}
	moments, err := h.deps.TopMoments(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", fmt.Errorf("%s: %w", op, err))
		return
	}
	if moments == nil {
		moments = []model.Moment{}
	}
	writeJSON(w, http.StatusOK, moments)
}
