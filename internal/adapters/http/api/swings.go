package api

import (
	"context"
	"net/http"

	service "github.com/catchbarrels/swinglab/internal/app"
	"github.com/catchbarrels/swinglab/internal/domain/analysis"
)

// SwingDependencies defines the interface for swing analysis.
type SwingDependencies interface {
	SubmitSwing(ctx context.Context, req service.SwingRequest) (service.SubmitResult, error)
	GetAnalysis(ctx context.Context, id string) (analysis.Analysis, error)
}

// SwingsHandler handles swing uploads and status reads.
type SwingsHandler struct {
	deps SwingDependencies
}

// NewSwingsHandler creates a new swings handler.
func NewSwingsHandler(deps SwingDependencies) *SwingsHandler {
	return &SwingsHandler{deps: deps}
}

// HandlePostSwing handles POST /swings. Analysis runs asynchronously; the
// response carries the id to poll.
func (h *SwingsHandler) HandlePostSwing(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_swing"
	var req service.SwingRequest
	if err := decodeJSON(w, r, maxSwingBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ack, err := h.deps.SubmitSwing(r.Context(), req)
	if err != nil {
		respond(w, r, op, err)
		return
	}
	status := http.StatusAccepted
	if ack.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, ackResponse{ID: ack.ID, Status: string(ack.Status), Duplicate: ack.Duplicate})
}

// HandleGetSwing handles GET /swings/{id}.
func (h *SwingsHandler) HandleGetSwing(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_swing"
	a, err := h.deps.GetAnalysis(r.Context(), r.PathValue("id"))
	if err != nil {
		respond(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
