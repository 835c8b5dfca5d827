// Package repository persists swing analyses, on-the-ball snapshots and
// pitch timings.
package repository

import (
	"context"
	"time"

	"github.com/catchbarrels/swinglab/internal/domain/analysis"
	"github.com/catchbarrels/swinglab/internal/domain/ontheball"
	"github.com/catchbarrels/swinglab/internal/domain/timing"
	"github.com/catchbarrels/swinglab/pkg/metrics"
)

// MaxListLimit caps list queries.
const MaxListLimit = 500

// Store provides read/write access to persisted results.
type Store interface {
	// SaveAnalysis inserts or replaces an analysis by id.
	SaveAnalysis(ctx context.Context, a analysis.Analysis) error
	// GetAnalysis returns ErrNotFound for an unknown id.
	GetAnalysis(ctx context.Context, id string) (analysis.Analysis, error)

	// SaveSnapshot stores a new snapshot. A non-empty batch id may be
	// imported once per athlete; a repeat returns ErrDuplicateBatch.
	SaveSnapshot(ctx context.Context, s ontheball.Snapshot) error
	GetSnapshot(ctx context.Context, id string) (ontheball.Snapshot, error)
	FindSnapshotByBatch(ctx context.Context, athleteID, batchID string) (ontheball.Snapshot, error)
	// ListSnapshots returns an athlete's snapshots, newest first.
	ListSnapshots(ctx context.Context, athleteID string, limit int) ([]ontheball.Snapshot, error)

	SaveTiming(ctx context.Context, r timing.Record) error
	// ListTimings returns an athlete's timing records, newest first.
	ListTimings(ctx context.Context, athleteID string, limit int) ([]timing.Record, error)

	Counts(ctx context.Context) (Counts, error)
	Close() error
}

// Counts summarizes store contents for the stats endpoint.
type Counts struct {
	Analyses  int `json:"analyses"`
	Snapshots int `json:"snapshots"`
	Timings   int `json:"timings"`
}

func checkLimit(limit int) error {
	if limit < 1 || limit > MaxListLimit {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return ErrInvalidLimit
	}
	return nil
}

// observe records the latency of op started at start.
func observe(op string, start time.Time) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000)
}
