package api

import (
	"context"
	"net/http"

	"github.com/catchbarrels/swinglab/internal/domain/flow"
	"github.com/catchbarrels/swinglab/internal/domain/timing"
)

// LeakDependencies defines the interface for flow analysis.
type LeakDependencies interface {
	AnalyzeLeaks(ctx context.Context, in flow.Input) (flow.Output, error)
}

// LeaksHandler handles flow analysis of supplied scores.
type LeaksHandler struct {
	deps LeakDependencies
}

// NewLeaksHandler creates a new leaks handler.
func NewLeaksHandler(deps LeakDependencies) *LeaksHandler {
	return &LeaksHandler{deps: deps}
}

type leaksRequest struct {
	Ground           float64         `json:"ground"`
	Power            float64         `json:"power"`
	Barrel           float64         `json:"barrel"`
	Overall          *float64        `json:"overall,omitempty"`
	GoatyBand        *int            `json:"goaty_band,omitempty"`
	ImpactConfidence *float64        `json:"impact_confidence,omitempty"`
	Timing           *timing.Metrics `json:"timing,omitempty"`
}

// HandlePostLeaks handles POST /leaks.
func (h *LeaksHandler) HandlePostLeaks(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_leaks"
	var req leaksRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.deps.AnalyzeLeaks(r.Context(), flow.Input{
		Scores:           flow.SubScores{Ground: req.Ground, Power: req.Power, Barrel: req.Barrel, Overall: req.Overall},
		GoatyBand:        req.GoatyBand,
		ImpactConfidence: req.ImpactConfidence,
		Timing:           req.Timing,
	})
	if err != nil {
		respond(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
