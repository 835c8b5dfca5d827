package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/catchbarrels/swinglab/internal/domain/analysis"
	"github.com/catchbarrels/swinglab/internal/domain/ontheball"
	"github.com/catchbarrels/swinglab/internal/domain/timing"
)

// MemoryStore is an in-process Store for tests and ephemeral runs.
type MemoryStore struct {
	mu        sync.RWMutex
	analyses  map[string]analysis.Analysis
	snapshots []ontheball.Snapshot // insertion order
	byID      map[string]int
	timings   []timing.Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		analyses: make(map[string]analysis.Analysis),
		byID:     make(map[string]int),
	}
}

// SaveAnalysis implements Store.
func (s *MemoryStore) SaveAnalysis(_ context.Context, a analysis.Analysis) error {
	defer observe("save_analysis", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[a.ID] = a
	return nil
}

// GetAnalysis implements Store.
func (s *MemoryStore) GetAnalysis(_ context.Context, id string) (analysis.Analysis, error) {
	defer observe("get_analysis", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.analyses[id]
	if !ok {
		return analysis.Analysis{}, ErrNotFound
	}
	return a, nil
}

// SaveSnapshot implements Store.
func (s *MemoryStore) SaveSnapshot(_ context.Context, snap ontheball.Snapshot) error {
	defer observe("save_snapshot", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.BatchID != "" {
		for _, existing := range s.snapshots {
			if existing.AthleteID == snap.AthleteID && existing.BatchID == snap.BatchID {
				return ErrDuplicateBatch
			}
		}
	}
	s.byID[snap.ID] = len(s.snapshots)
	s.snapshots = append(s.snapshots, snap)
	return nil
}

// GetSnapshot implements Store.
func (s *MemoryStore) GetSnapshot(_ context.Context, id string) (ontheball.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return ontheball.Snapshot{}, ErrNotFound
	}
	return s.snapshots[i], nil
}

// FindSnapshotByBatch implements Store.
func (s *MemoryStore) FindSnapshotByBatch(_ context.Context, athleteID, batchID string) (ontheball.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, snap := range s.snapshots {
		if snap.AthleteID == athleteID && snap.BatchID == batchID {
			return snap, nil
		}
	}
	return ontheball.Snapshot{}, ErrNotFound
}

// ListSnapshots implements Store.
func (s *MemoryStore) ListSnapshots(_ context.Context, athleteID string, limit int) ([]ontheball.Snapshot, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]ontheball.Snapshot, 0)
	for i := len(s.snapshots) - 1; i >= 0; i-- {
		if s.snapshots[i].AthleteID == athleteID {
			out = append(out, s.snapshots[i])
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveTiming implements Store.
func (s *MemoryStore) SaveTiming(_ context.Context, r timing.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timings = append(s.timings, r)
	return nil
}

// ListTimings implements Store.
func (s *MemoryStore) ListTimings(_ context.Context, athleteID string, limit int) ([]timing.Record, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]timing.Record, 0)
	for i := len(s.timings) - 1; i >= 0; i-- {
		if s.timings[i].AthleteID == athleteID {
			out = append(out, s.timings[i])
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Counts implements Store.
func (s *MemoryStore) Counts(_ context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{Analyses: len(s.analyses), Snapshots: len(s.snapshots), Timings: len(s.timings)}, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
