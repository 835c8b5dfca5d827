package api

import (
	"context"
	"net/http"

	service "github.com/catchbarrels/swinglab/internal/app"
	"github.com/catchbarrels/swinglab/internal/domain/barrel"
)

// BarrelDependencies defines the interface for barrel classification.
type BarrelDependencies interface {
	ClassifyBarrel(ctx context.Context, req service.BarrelRequest) (barrel.Classification, error)
}

// BarrelHandler handles single-ball classification.
type BarrelHandler struct {
	deps BarrelDependencies
}

// NewBarrelHandler creates a new barrel handler.
func NewBarrelHandler(deps BarrelDependencies) *BarrelHandler {
	return &BarrelHandler{deps: deps}
}

// HandlePostBarrel handles POST /barrel.
func (h *BarrelHandler) HandlePostBarrel(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_barrel"
	var req service.BarrelRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	c, err := h.deps.ClassifyBarrel(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}
