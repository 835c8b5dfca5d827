package api

import (
	"context"
	"net/http"

	service "github.com/catchbarrels/swinglab/internal/app"
	"github.com/catchbarrels/swinglab/internal/domain/timing"
)

// TimingDependencies defines the interface for pitch timing.
type TimingDependencies interface {
	ComputeTiming(ctx context.Context, req service.TimingRequest) (service.TimingResult, error)
	TimingSummary(ctx context.Context, athleteID string, limit int) (timing.Summary, error)
}

// TimingHandler handles timing requests.
type TimingHandler struct {
	deps TimingDependencies
}

// NewTimingHandler creates a new timing handler.
func NewTimingHandler(deps TimingDependencies) *TimingHandler {
	return &TimingHandler{deps: deps}
}

// HandlePostTiming handles POST /timing. Invalid settings return 422 with
// one message per problem in errors.
func (h *TimingHandler) HandlePostTiming(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_timing"
	var req service.TimingRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.ComputeTiming(r.Context(), req)
	if err != nil {
		respond(w, r, op, err)
		return
	}
	status := http.StatusOK
	if res.ID != "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

// HandleGetSummary handles GET /athletes/{id}/timing.
func (h *TimingHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.timing_summary"
	limit, err := listLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	sum, err := h.deps.TimingSummary(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		respond(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
