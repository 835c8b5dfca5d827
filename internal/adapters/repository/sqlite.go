package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/catchbarrels/swinglab/internal/domain/analysis"
	"github.com/catchbarrels/swinglab/internal/domain/ontheball"
	"github.com/catchbarrels/swinglab/internal/domain/timing"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore is a Store backed by a SQLite file. Rows keep queryable
// columns alongside a JSON body holding the full record.
type SQLiteStore struct {
	db          *sql.DB
	busyTimeout time.Duration
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(ctx context.Context, dbPath string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", dbPath, s.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection serializes them.
	db.SetMaxOpenConns(1)
	s.db = db
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS analyses (
  id TEXT PRIMARY KEY,
  request_id TEXT,
  athlete_id TEXT NOT NULL,
  status TEXT NOT NULL,
  progress INTEGER NOT NULL,
  body TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshots (
  id TEXT PRIMARY KEY,
  athlete_id TEXT NOT NULL,
  batch_id TEXT,
  level TEXT NOT NULL,
  source TEXT NOT NULL,
  body TEXT NOT NULL,
  created_at TEXT NOT NULL,
  UNIQUE (athlete_id, batch_id)
);
CREATE INDEX IF NOT EXISTS snapshots_athlete ON snapshots (athlete_id, created_at);
CREATE TABLE IF NOT EXISTS timings (
  id TEXT PRIMARY KEY,
  athlete_id TEXT NOT NULL,
  session_id TEXT,
  body TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS timings_athlete ON timings (athlete_id, created_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveAnalysis implements Store.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, a analysis.Analysis) error {
	defer observe("save_analysis", time.Now())
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	const stmt = `
INSERT INTO analyses (id, request_id, athlete_id, status, progress, body, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  status=excluded.status,
  progress=excluded.progress,
  body=excluded.body,
  updated_at=excluded.updated_at;
`
	_, err = s.db.ExecContext(ctx, stmt,
		a.ID,
		a.RequestID,
		a.AthleteID,
		string(a.Status),
		a.Progress,
		string(body),
		a.CreatedAt.UTC().Format(timeLayout),
		a.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert analysis: %w", err)
	}
	return nil
}

// GetAnalysis implements Store.
func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (analysis.Analysis, error) {
	defer observe("get_analysis", time.Now())
	var a analysis.Analysis
	err := s.getBody(ctx, `SELECT body FROM analyses WHERE id = ?`, &a, id)
	return a, err
}

// SaveSnapshot implements Store.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap ontheball.Snapshot) error {
	defer observe("save_snapshot", time.Now())
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	const stmt = `
INSERT INTO snapshots (id, athlete_id, batch_id, level, source, body, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`
	_, err = s.db.ExecContext(ctx, stmt,
		snap.ID,
		snap.AthleteID,
		nullable(snap.BatchID),
		string(snap.Level),
		snap.Source,
		string(body),
		snap.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBatch
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// GetSnapshot implements Store.
func (s *SQLiteStore) GetSnapshot(ctx context.Context, id string) (ontheball.Snapshot, error) {
	var snap ontheball.Snapshot
	err := s.getBody(ctx, `SELECT body FROM snapshots WHERE id = ?`, &snap, id)
	return snap, err
}

// FindSnapshotByBatch implements Store.
func (s *SQLiteStore) FindSnapshotByBatch(ctx context.Context, athleteID, batchID string) (ontheball.Snapshot, error) {
	var snap ontheball.Snapshot
	err := s.getBody(ctx, `SELECT body FROM snapshots WHERE athlete_id = ? AND batch_id = ?`, &snap, athleteID, batchID)
	return snap, err
}

// ListSnapshots implements Store.
func (s *SQLiteStore) ListSnapshots(ctx context.Context, athleteID string, limit int) ([]ontheball.Snapshot, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	defer observe("list_snapshots", time.Now())
	out := make([]ontheball.Snapshot, 0)
	err := s.listBodies(ctx,
		`SELECT body FROM snapshots WHERE athlete_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		func(body []byte) error {
			var snap ontheball.Snapshot
			if err := json.Unmarshal(body, &snap); err != nil {
				return err
			}
			out = append(out, snap)
			return nil
		}, athleteID, limit)
	return out, err
}

// SaveTiming implements Store.
func (s *SQLiteStore) SaveTiming(ctx context.Context, r timing.Record) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode timing: %w", err)
	}
	const stmt = `
INSERT INTO timings (id, athlete_id, session_id, body, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  body=excluded.body;
`
	_, err = s.db.ExecContext(ctx, stmt,
		r.ID,
		r.AthleteID,
		nullable(r.SessionID),
		string(body),
		r.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert timing: %w", err)
	}
	return nil
}

// ListTimings implements Store.
func (s *SQLiteStore) ListTimings(ctx context.Context, athleteID string, limit int) ([]timing.Record, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	out := make([]timing.Record, 0)
	err := s.listBodies(ctx,
		`SELECT body FROM timings WHERE athlete_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		func(body []byte) error {
			var r timing.Record
			if err := json.Unmarshal(body, &r); err != nil {
				return err
			}
			out = append(out, r)
			return nil
		}, athleteID, limit)
	return out, err
}

// Counts implements Store.
func (s *SQLiteStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	row := s.db.QueryRowContext(ctx, `
SELECT (SELECT COUNT(*) FROM analyses), (SELECT COUNT(*) FROM snapshots), (SELECT COUNT(*) FROM timings)`)
	if err := row.Scan(&c.Analyses, &c.Snapshots, &c.Timings); err != nil {
		return Counts{}, fmt.Errorf("count rows: %w", err)
	}
	return c, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) getBody(ctx context.Context, query string, dst any, args ...any) error {
	var body string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("query: %w", err)
	}
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	return nil
}

func (s *SQLiteStore) listBodies(ctx context.Context, query string, fn func([]byte) error, args ...any) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		if err := fn([]byte(body)); err != nil {
			return fmt.Errorf("decode row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}
	return nil
}

// nullable maps "" to NULL so UNIQUE constraints ignore absent ids.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
