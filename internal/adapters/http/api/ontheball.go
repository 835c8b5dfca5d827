package api

import (
	"context"
	"io"
	"net/http"

	service "github.com/catchbarrels/swinglab/internal/app"
	"github.com/catchbarrels/swinglab/internal/domain/ontheball"
)

// OnTheBallDependencies defines the interface for batted-ball batches.
type OnTheBallDependencies interface {
	ImportBatch(ctx context.Context, req service.BatchRequest) (service.ImportResult, error)
	ImportCSV(ctx context.Context, athleteID, batchID, level string, src io.Reader) (service.ImportResult, error)
	GetSnapshot(ctx context.Context, id string) (ontheball.Snapshot, error)
	ListSnapshots(ctx context.Context, athleteID string, limit int) ([]ontheball.Snapshot, error)
}

// OnTheBallHandler handles batch imports and snapshot reads.
type OnTheBallHandler struct {
	deps OnTheBallDependencies
}

// NewOnTheBallHandler creates a new on-the-ball handler.
func NewOnTheBallHandler(deps OnTheBallDependencies) *OnTheBallHandler {
	return &OnTheBallHandler{deps: deps}
}

// HandlePostBatch handles POST /on-the-ball.
func (h *OnTheBallHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_batch"
	var req service.BatchRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.ImportBatch(r.Context(), req)
	writeImport(w, r, op, res, err)
}

// HandlePostCSV handles POST /on-the-ball/csv. Batch metadata travels in
// the query string and the body is the raw export.
func (h *OnTheBallHandler) HandlePostCSV(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_batch_csv"
	q := r.URL.Query()
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	res, err := h.deps.ImportCSV(r.Context(), q.Get("athlete_id"), q.Get("batch_id"), q.Get("level"), body)
	writeImport(w, r, op, res, err)
}

func writeImport(w http.ResponseWriter, r *http.Request, op string, res service.ImportResult, err error) {
	if err != nil {
		respond(w, r, op, err)
		return
	}
	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// HandleGetSnapshot handles GET /snapshots/{id}.
func (h *OnTheBallHandler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_snapshot"
	snap, err := h.deps.GetSnapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		respond(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleListSnapshots handles GET /athletes/{id}/snapshots.
func (h *OnTheBallHandler) HandleListSnapshots(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_snapshots"
	limit, err := listLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	snaps, err := h.deps.ListSnapshots(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		respond(w, r, op, err)
		return
	}
	if snaps == nil {
		snaps = []ontheball.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}
