// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	service "github.com/catchbarrels/swinglab/internal/app"
	"github.com/catchbarrels/swinglab/pkg/logger"
)

// Body limits. A 5000-frame swing of 33 keypoints is roughly 20 MiB of JSON.
const (
	maxSwingBodyBytes = 32 << 20
	maxBodyBytes      = 4 << 20
	defaultListLimit  = 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SwingDependencies
	TimingDependencies
	BarrelDependencies
	OnTheBallDependencies
	LeakDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	swingsHandler    *SwingsHandler
	timingHandler    *TimingHandler
	barrelHandler    *BarrelHandler
	onTheBallHandler *OnTheBallHandler
	leaksHandler     *LeaksHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		swingsHandler:    NewSwingsHandler(deps),
		timingHandler:    NewTimingHandler(deps),
		barrelHandler:    NewBarrelHandler(deps),
		onTheBallHandler: NewOnTheBallHandler(deps),
		leaksHandler:     NewLeaksHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /swings", MetricsMiddleware(s.swingsHandler.HandlePostSwing, "swings"))
	mux.HandleFunc("GET /swings/{id}", MetricsMiddleware(s.swingsHandler.HandleGetSwing, "swing"))

	mux.HandleFunc("POST /timing", MetricsMiddleware(s.timingHandler.HandlePostTiming, "timing"))
	mux.HandleFunc("GET /athletes/{id}/timing", MetricsMiddleware(s.timingHandler.HandleGetSummary, "timing_summary"))

	mux.HandleFunc("POST /barrel", MetricsMiddleware(s.barrelHandler.HandlePostBarrel, "barrel"))

	mux.HandleFunc("POST /on-the-ball", MetricsMiddleware(s.onTheBallHandler.HandlePostBatch, "on_the_ball"))
	mux.HandleFunc("POST /on-the-ball/csv", MetricsMiddleware(s.onTheBallHandler.HandlePostCSV, "on_the_ball_csv"))
	mux.HandleFunc("GET /snapshots/{id}", MetricsMiddleware(s.onTheBallHandler.HandleGetSnapshot, "snapshot"))
	mux.HandleFunc("GET /athletes/{id}/snapshots", MetricsMiddleware(s.onTheBallHandler.HandleListSnapshots, "snapshots"))

	mux.HandleFunc("POST /leaks", MetricsMiddleware(s.leaksHandler.HandlePostLeaks, "leaks"))

	logger.Get().Named("api").Debug(ctx, "routes registered")
}

type ackResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
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
	resp := errorResponse{Code: code, Message: msg}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		resp.Errors = verr.Problems
	}
	writeJSON(w, status, resp)
}

// respond translates a service error into a status code.
func respond(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		writeError(w, http.StatusUnprocessableEntity, "invalid", Wrap(op, err))
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", Wrap(op, err))
	default:
		logger.Get().Named("api").Error(r.Context(), "request failed", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// decodeJSON reads one JSON document of at most limit bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// listLimit parses the limit query parameter.
func listLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return n, nil
}
