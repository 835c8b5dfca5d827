// Package service wires the swing analysis pipeline, the batted-ball
// metrics engine and persistence behind the dependencies the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/catchbarrels/swinglab/internal/adapters/ingest"
	"github.com/catchbarrels/swinglab/internal/adapters/mq/queue"
	"github.com/catchbarrels/swinglab/internal/adapters/mq/worker"
	"github.com/catchbarrels/swinglab/internal/adapters/repository"
	"github.com/catchbarrels/swinglab/internal/domain/analysis"
	"github.com/catchbarrels/swinglab/internal/domain/barrel"
	"github.com/catchbarrels/swinglab/internal/domain/dedupe"
	"github.com/catchbarrels/swinglab/internal/domain/flow"
	"github.com/catchbarrels/swinglab/internal/domain/model"
	"github.com/catchbarrels/swinglab/internal/domain/normalize"
	"github.com/catchbarrels/swinglab/internal/domain/ontheball"
	"github.com/catchbarrels/swinglab/internal/domain/pose"
	"github.com/catchbarrels/swinglab/internal/domain/scoring"
	"github.com/catchbarrels/swinglab/internal/domain/timing"
	"github.com/catchbarrels/swinglab/pkg/logger"
	"github.com/catchbarrels/swinglab/pkg/metrics"
)

// Snapshot sources.
const (
	SourceJSON = "json"
	SourceCSV  = "csv"
)

// Service implements the API dependencies for swing analysis.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	deduper  dedupe.Deduper
	queue    queue.Queue
	pool     *worker.Pool
	pipeline *Pipeline
	scorer   scoring.Scorer

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	targetFps     float64
	windowSeconds float64
	defaultLevel  model.Level
	weights       flow.Weights
	maxFrames     int
	maxEvents     int
	now           func() time.Time

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the analysis queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the request-id cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the persistence backend. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithScorer replaces the pass-through sub-score provider.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithTargetFps sets the frame rate swings are resampled to.
func WithTargetFps(fps float64) Option {
	return func(s *Service) {
		if fps > 0 {
			s.targetFps = fps
		}
	}
}

// WithTrimWindow sets the seconds kept on each side of impact.
func WithTrimWindow(seconds float64) Option {
	return func(s *Service) {
		if seconds > 0 {
			s.windowSeconds = seconds
		}
	}
}

// WithDefaultLevel sets the level used when a batch names none.
func WithDefaultLevel(l model.Level) Option {
	return func(s *Service) {
		if l.Valid() {
			s.defaultLevel = l
		}
	}
}

// WithFlowWeights sets the weights used to derive a missing overall score.
func WithFlowWeights(w flow.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithMaxFrames caps frames per swing.
func WithMaxFrames(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxFrames = n
		}
	}
}

// WithMaxEvents caps events per batch.
func WithMaxEvents(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxEvents = n
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		queueSize:     1024,
		dedupeSize:    50_000,
		targetFps:     normalize.CanonicalFps,
		windowSeconds: normalize.DefaultWindowSeconds,
		defaultLevel:  model.LevelHS,
		weights:       flow.DefaultWeights,
		maxFrames:     5000,
		maxEvents:     10_000,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if err := s.weights.Validate(); err != nil {
		return fmt.Errorf("flow weights: %w", err)
	}

	s.logger.Info(ctx, "starting swing analysis service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.scorer == nil {
		s.scorer = scoring.NewProvidedScorer()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pipeline = &Pipeline{
		Scorer:        s.scorer,
		TargetFps:     s.targetFps,
		WindowSeconds: s.windowSeconds,
		Weights:       s.weights,
	}
	s.pool = worker.NewPool(s.workerCount, s.queue, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "swing analysis service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Float64("targetFps", s.targetFps),
	)
	return nil
}

// Stop drains queued analyses and closes the store.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping swing analysis service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "closing store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "swing analysis service stopped")
}

func (s *Service) running() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// SwingRequest is an uploaded pose sequence.
type SwingRequest struct {
	RequestID         string          `json:"request_id"`
	AthleteID         string          `json:"athlete_id"`
	Fps               float64         `json:"fps"`
	Frames            []pose.RawFrame `json:"frames"`
	ManualImpactFrame *int            `json:"manual_impact_frame,omitempty"`
	Scores            *flow.SubScores `json:"scores,omitempty"`
	GoatyBand         *int            `json:"goaty_band,omitempty"`
	Timing            *timing.Input   `json:"timing,omitempty"`
}

// SubmitResult acknowledges a swing submission.
type SubmitResult struct {
	ID        string          `json:"id"`
	Status    analysis.Status `json:"status"`
	Duplicate bool            `json:"duplicate,omitempty"`
}

// SubmitSwing validates req and queues it for analysis. A repeated
// request id returns the analysis created by the first submission.
func (s *Service) SubmitSwing(ctx context.Context, req SwingRequest) (SubmitResult, error) { //nolint:gocritic // hugeParam
	if err := s.running(); err != nil {
		return SubmitResult{}, err
	}
	frames, err := s.validateSwing(&req)
	if err != nil {
		return SubmitResult{}, err
	}

	id := uuid.NewString()
	if prev, seen := s.deduper.SeenAndRecord(ctx, req.RequestID, id); seen {
		metrics.RecordAnalysisDuplicate()
		a, err := s.store.GetAnalysis(ctx, prev)
		if err != nil {
			return SubmitResult{ID: prev, Status: analysis.StatusQueued, Duplicate: true}, nil //nolint:nilerr // first submission still being saved
		}
		return SubmitResult{ID: a.ID, Status: a.Status, Duplicate: true}, nil
	}

	now := s.now()
	a := analysis.Analysis{
		ID:         id,
		RequestID:  req.RequestID,
		AthleteID:  req.AthleteID,
		Status:     analysis.StatusQueued,
		SourceFps:  req.Fps,
		TargetFps:  s.targetFps,
		FrameCount: len(frames),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.SaveAnalysis(ctx, a); err != nil {
		s.deduper.Unrecord(ctx, req.RequestID)
		return SubmitResult{}, fmt.Errorf("save analysis: %w", err)
	}

	err = s.queue.Enqueue(ctx, analysis.Job{
		AnalysisID:   id,
		AthleteID:    req.AthleteID,
		Fps:          req.Fps,
		Frames:       frames,
		ManualImpact: req.ManualImpactFrame,
		Scores:       req.Scores,
		GoatyBand:    req.GoatyBand,
		Timing:       req.Timing,
		EnqueuedAt:   now,
	})
	if err != nil {
		s.deduper.Unrecord(ctx, req.RequestID)
		a.Fail(err, s.now())
		if saveErr := s.store.SaveAnalysis(ctx, a); saveErr != nil {
			s.logger.Error(ctx, "marking rejected analysis", logger.String("analysis_id", id), logger.Error(saveErr))
		}
		if errors.Is(err, queue.ErrFull) || errors.Is(err, queue.ErrClosed) {
			return SubmitResult{}, fmt.Errorf("%w: %v", ErrBackpressure, err)
		}
		return SubmitResult{}, fmt.Errorf("enqueue: %w", err)
	}

	s.logger.Debug(ctx, "swing queued",
		logger.String("analysis_id", id),
		logger.String("athlete_id", req.AthleteID),
		logger.Int("frames", len(frames)),
	)
	return SubmitResult{ID: id, Status: analysis.StatusQueued}, nil
}

func (s *Service) validateSwing(req *SwingRequest) ([]pose.JointFrame, error) {
	var problems []string
	if strings.TrimSpace(req.RequestID) == "" {
		problems = append(problems, "request_id is required")
	}
	if strings.TrimSpace(req.AthleteID) == "" {
		problems = append(problems, "athlete_id is required")
	}
	if len(req.Frames) > s.maxFrames {
		problems = append(problems, fmt.Sprintf("frames exceeds limit of %d", s.maxFrames))
	}
	if req.Scores != nil {
		if err := scoring.Validate(*req.Scores); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if req.GoatyBand != nil {
		if _, err := flow.GoatyLabel(*req.GoatyBand); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if req.Timing != nil {
		problems = append(problems, timing.Validate(*req.Timing)...)
	}
	if len(problems) > 0 {
		return nil, invalid(problems...)
	}

	frames, err := pose.FromRaw(req.Frames, req.Fps)
	if err != nil {
		return nil, invalid(err.Error())
	}
	if req.ManualImpactFrame != nil && (*req.ManualImpactFrame < 0 || *req.ManualImpactFrame >= len(frames)) {
		return nil, invalid(fmt.Sprintf("manual_impact_frame must be in [0,%d]", len(frames)-1))
	}
	return frames, nil
}

// Process runs one queued analysis, persisting each stage transition.
func (s *Service) Process(ctx context.Context, j queue.Job) error { //nolint:gocritic // hugeParam
	ctx = logger.WithFields(ctx, logger.String("analysis_id", j.AnalysisID))
	a, err := s.store.GetAnalysis(ctx, j.AnalysisID)
	if err != nil {
		return fmt.Errorf("load analysis %s: %w", j.AnalysisID, err)
	}

	res, runErr := s.pipeline.Run(ctx, j, func(st analysis.Status) {
		a.Advance(st, s.now())
		s.logger.Debug(ctx, "stage entered", logger.String("stage", string(st)))
		if err := s.store.SaveAnalysis(ctx, a); err != nil {
			s.logger.Warn(ctx, "saving progress", logger.Error(err))
		}
	})

	if res.Impact.Method != "" {
		imp := res.Impact
		a.Impact = &imp
	}
	if res.Normalized.Frames != nil {
		rng := res.Normalized.Range
		a.TrimRange = &rng
	}

	if runErr != nil {
		a.Fail(runErr, s.now())
		metrics.RecordAnalysis(string(analysis.StatusFailed))
		s.logger.Warn(ctx, "analysis failed", logger.Int("progress", a.Progress), logger.Error(runErr))
	} else {
		out := res.Output
		a.Output = &out
		a.Advance(analysis.StatusComplete, s.now())
		metrics.RecordAnalysis(string(analysis.StatusComplete))
	}

	// The final write must land even if the worker context is being torn down.
	if err := s.store.SaveAnalysis(context.WithoutCancel(ctx), a); err != nil {
		return fmt.Errorf("save analysis %s: %w", a.ID, err)
	}
	return runErr
}

// GetAnalysis returns the current state of an analysis.
func (s *Service) GetAnalysis(ctx context.Context, id string) (analysis.Analysis, error) {
	if err := s.running(); err != nil {
		return analysis.Analysis{}, err
	}
	a, err := s.store.GetAnalysis(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return a, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	return a, err
}

// TimingRequest is one pitch to time. AthleteID is required when Persist
// is set.
type TimingRequest struct {
	timing.Input
	AthleteID string `json:"athlete_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Persist   bool   `json:"persist,omitempty"`
}

// TimingResult carries derived metrics and the stored record id, if any.
type TimingResult struct {
	ID      string         `json:"id,omitempty"`
	Metrics timing.Metrics `json:"metrics"`
}

// ComputeTiming validates and times one pitch.
func (s *Service) ComputeTiming(ctx context.Context, req TimingRequest) (TimingResult, error) {
	problems := timing.Validate(req.Input)
	if req.Persist && strings.TrimSpace(req.AthleteID) == "" {
		problems = append(problems, "athlete_id is required to persist")
	}
	if len(problems) > 0 {
		metrics.RecordTimingValidationFailure()
		return TimingResult{}, invalid(problems...)
	}

	res := TimingResult{Metrics: timing.Calculate(req.Input)}
	if !req.Persist {
		return res, nil
	}
	if err := s.running(); err != nil {
		return TimingResult{}, err
	}
	rec := timing.Record{
		ID:        uuid.NewString(),
		AthleteID: req.AthleteID,
		SessionID: req.SessionID,
		Input:     req.Input,
		Metrics:   res.Metrics,
		CreatedAt: s.now(),
	}
	if err := s.store.SaveTiming(ctx, rec); err != nil {
		return TimingResult{}, fmt.Errorf("save timing: %w", err)
	}
	res.ID = rec.ID
	return res, nil
}

// TimingSummary averages an athlete's most recent timing records.
func (s *Service) TimingSummary(ctx context.Context, athleteID string, limit int) (timing.Summary, error) {
	if err := s.running(); err != nil {
		return timing.Summary{}, err
	}
	records, err := s.store.ListTimings(ctx, athleteID, limit)
	if err != nil {
		return timing.Summary{}, mapStoreErr(err)
	}
	m := make([]timing.Metrics, len(records))
	for i := range records {
		m[i] = records[i].Metrics
	}
	return timing.Summarize(m), nil
}

// BarrelRequest is one batted ball to classify.
type BarrelRequest struct {
	ExitVelocity *float64 `json:"exit_velocity"`
	LaunchAngle  *float64 `json:"launch_angle"`
	IsFair       *bool    `json:"is_fair,omitempty"` // defaults to true
	Level        string   `json:"level,omitempty"`
}

// ClassifyBarrel applies the level-adjusted barrel zone to one ball.
func (s *Service) ClassifyBarrel(_ context.Context, req BarrelRequest) (barrel.Classification, error) {
	level, err := s.level(req.Level)
	if err != nil {
		return barrel.Classification{}, err
	}
	fair := req.IsFair == nil || *req.IsFair
	c := barrel.Compute(req.ExitVelocity, req.LaunchAngle, fair, level)
	metrics.RecordBarrel(string(level), c.IsBarrel)
	return c, nil
}

// BatchRequest is an on-the-ball import.
type BatchRequest struct {
	AthleteID string                  `json:"athlete_id"`
	BatchID   string                  `json:"batch_id,omitempty"`
	Level     string                  `json:"level,omitempty"`
	Events    []model.BattedBallEvent `json:"events"`
}

// ImportResult reports the snapshot for a batch.
type ImportResult struct {
	Snapshot  ontheball.Snapshot `json:"snapshot"`
	Duplicate bool               `json:"duplicate,omitempty"`
	Skipped   []ingest.RowError  `json:"skipped,omitempty"`
}

// ImportBatch computes and stores a snapshot for a JSON batch.
func (s *Service) ImportBatch(ctx context.Context, req BatchRequest) (ImportResult, error) {
	return s.importEvents(ctx, req, SourceJSON, nil)
}

// ImportCSV reads a launch-monitor export and stores its snapshot.
func (s *Service) ImportCSV(ctx context.Context, athleteID, batchID, level string, src io.Reader) (ImportResult, error) {
	batch, err := ingest.NewReader(ingest.WithMaxRows(s.maxEvents)).Read(src)
	if err != nil {
		return ImportResult{}, invalid(err.Error())
	}
	req := BatchRequest{AthleteID: athleteID, BatchID: batchID, Level: level, Events: batch.Events}
	return s.importEvents(ctx, req, SourceCSV, batch.Skipped)
}

func (s *Service) importEvents(ctx context.Context, req BatchRequest, source string, skipped []ingest.RowError) (ImportResult, error) {
	if err := s.running(); err != nil {
		return ImportResult{}, err
	}

	var problems []string
	if strings.TrimSpace(req.AthleteID) == "" {
		problems = append(problems, "athlete_id is required")
	}
	if len(req.Events) > s.maxEvents {
		problems = append(problems, fmt.Sprintf("events exceeds limit of %d", s.maxEvents))
	}
	// A batch level overrides every event. Without one, each event is
	// classified at its own level and unlabeled events get the default.
	events := make([]model.BattedBallEvent, len(req.Events))
	for i, e := range req.Events {
		if !e.Result.Valid() {
			problems = append(problems, fmt.Sprintf("events[%d]: unknown result %q", i, e.Result))
		}
		if e.Level == "" {
			e.Level = s.defaultLevel
		} else if l, ok := barrel.ParseLevel(string(e.Level)); ok {
			e.Level = l
		} else {
			problems = append(problems, fmt.Sprintf("events[%d]: unknown level %q", i, e.Level))
		}
		events[i] = e
	}
	level, err := s.level(req.Level)
	if err != nil {
		problems = append(problems, err.Error())
	}
	var override model.Level
	if strings.TrimSpace(req.Level) != "" {
		override = level
	}
	if len(problems) > 0 {
		return ImportResult{}, invalid(problems...)
	}

	if req.BatchID != "" {
		prev, err := s.store.FindSnapshotByBatch(ctx, req.AthleteID, req.BatchID)
		if err == nil {
			return ImportResult{Snapshot: prev, Duplicate: true}, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return ImportResult{}, fmt.Errorf("find batch: %w", err)
		}
	}

	snap := ontheball.Snapshot{
		ID:        uuid.NewString(),
		AthleteID: req.AthleteID,
		BatchID:   req.BatchID,
		Level:     level,
		Source:    source,
		CreatedAt: s.now(),
		Metrics:   ontheball.Compute(events, override),
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		if errors.Is(err, repository.ErrDuplicateBatch) {
			// Lost a race with a concurrent import of the same batch.
			prev, findErr := s.store.FindSnapshotByBatch(ctx, req.AthleteID, req.BatchID)
			if findErr == nil {
				return ImportResult{Snapshot: prev, Duplicate: true}, nil
			}
		}
		return ImportResult{}, fmt.Errorf("save snapshot: %w", err)
	}
	metrics.RecordSnapshotCreated(source)

	s.logger.Debug(ctx, "snapshot created",
		logger.String("snapshot_id", snap.ID),
		logger.String("athlete_id", snap.AthleteID),
		logger.Int("events", snap.Metrics.TotalEvents),
		logger.Int("skipped", len(skipped)),
	)
	return ImportResult{Snapshot: snap, Skipped: skipped}, nil
}

// GetSnapshot returns one snapshot.
func (s *Service) GetSnapshot(ctx context.Context, id string) (ontheball.Snapshot, error) {
	if err := s.running(); err != nil {
		return ontheball.Snapshot{}, err
	}
	snap, err := s.store.GetSnapshot(ctx, id)
	return snap, mapStoreErr(err)
}

// ListSnapshots returns an athlete's snapshots, newest first.
func (s *Service) ListSnapshots(ctx context.Context, athleteID string, limit int) ([]ontheball.Snapshot, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	snaps, err := s.store.ListSnapshots(ctx, athleteID, limit)
	return snaps, mapStoreErr(err)
}

// AnalyzeLeaks runs flow analysis on scores supplied directly.
func (s *Service) AnalyzeLeaks(_ context.Context, in flow.Input) (flow.Output, error) { //nolint:gocritic // hugeParam
	if in.Weights == nil {
		w := s.weights
		in.Weights = &w
	}
	out, err := flow.FormatAnalysisOutput(in)
	if err != nil {
		return flow.Output{}, invalid(err.Error())
	}
	return out, nil
}

// Stats is a point-in-time view of the service.
type Stats struct {
	Started     bool              `json:"started"`
	WorkerCount int               `json:"workerCount"`
	QueueSize   int               `json:"queueSize"`
	DedupeSize  int               `json:"dedupeSize"`
	QueueLength int               `json:"queueLength"`
	DedupeKeys  int64             `json:"dedupeKeys"`
	Workers     worker.Stats      `json:"workers"`
	Store       repository.Counts `json:"store"`
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:     s.started,
		WorkerCount: s.workerCount,
		QueueSize:   s.queueSize,
		DedupeSize:  s.dedupeSize,
	}
	if !s.started {
		return st
	}
	st.QueueLength = s.queue.Len()
	st.DedupeKeys = s.deduper.Size()
	st.Workers = s.pool.Stats()
	counts, err := s.store.Counts(ctx)
	if err != nil {
		s.logger.Warn(ctx, "reading store counts", logger.Error(err))
	}
	st.Store = counts

	metrics.UpdateQueueSize(st.QueueLength)
	metrics.UpdateWorkerActiveCount(s.workerCount)
	return st
}

func (s *Service) level(raw string) (model.Level, error) {
	if strings.TrimSpace(raw) == "" {
		return s.defaultLevel, nil
	}
	l, ok := barrel.ParseLevel(raw)
	if !ok {
		return "", fmt.Errorf("unknown level %q", raw)
	}
	return l, nil
}

func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, repository.ErrInvalidLimit):
		return invalid(err.Error())
	}
	return err
}
