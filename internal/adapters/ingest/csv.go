// Package ingest reads launch-monitor exports into batted-ball events.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/catchbarrels/swinglab/internal/domain/barrel"
	"github.com/catchbarrels/swinglab/internal/domain/model"
)

type column int

const (
	colEV column = iota
	colLA
	colDistance
	colResult
	colZone
	colLevel
)

// headerAliases maps normalized header text to a column.
var headerAliases = map[string]column{
	"exit velocity": colEV, "exitvelo": colEV, "ev": colEV, "exit velo": colEV, "exitspeed": colEV,
	"exit speed": colEV, "exit_velocity": colEV,
	"launch angle": colLA, "la": colLA, "launchangle": colLA, "vertical angle": colLA, "launch_angle": colLA,
	"distance": colDistance, "dist": colDistance,
	"result": colResult, "outcome": colResult, "pitch result": colResult, "pitchresult": colResult,
	"in zone": colZone, "inzone": colZone, "zone": colZone, "in_zone": colZone,
	"level": colLevel,
}

// Batch is the outcome of reading one export.
type Batch struct {
	Events  []model.BattedBallEvent `json:"-"`
	Skipped []RowError              `json:"skipped"`
}

// Option configures a Reader.
type Option func(*Reader)

// WithMaxRows caps the number of data rows accepted.
func WithMaxRows(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxRows = n
		}
	}
}

// Reader parses CSV exports.
type Reader struct {
	maxRows int
}

const defaultMaxRows = 10000

// NewReader creates a Reader.
func NewReader(opts ...Option) *Reader {
	r := &Reader{maxRows: defaultMaxRows}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read parses src. The result column is required; every other column is
// optional. Rows with an unknown result or malformed number are skipped
// and reported in Batch.Skipped.
func (r *Reader) Read(src io.Reader) (Batch, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Batch{}, ErrEmpty
	}
	if err != nil {
		return Batch{}, fmt.Errorf("read header: %w", err)
	}

	index := map[column]int{}
	for i, h := range header {
		key := normalizeHeader(h)
		if c, ok := headerAliases[key]; ok {
			if _, dup := index[c]; !dup {
				index[c] = i
			}
		}
	}
	if _, ok := index[colResult]; !ok {
		return Batch{}, fmt.Errorf("%w: result", ErrMissingColumn)
	}

	var b Batch
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return Batch{}, fmt.Errorf("read line %d: %w", line, err)
		}
		if blank(rec) {
			continue
		}
		if len(b.Events) >= r.maxRows {
			return Batch{}, fmt.Errorf("%w: limit %d", ErrTooManyRows, r.maxRows)
		}
		e, rowErr := parseRow(rec, index)
		if rowErr != "" {
			b.Skipped = append(b.Skipped, RowError{Line: line, Reason: rowErr})
			continue
		}
		b.Events = append(b.Events, e)
	}
	return b, nil
}

func parseRow(rec []string, index map[column]int) (model.BattedBallEvent, string) {
	field := func(c column) string {
		i, ok := index[c]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var e model.BattedBallEvent
	res, ok := model.ParseResult(field(colResult))
	if !ok {
		return e, fmt.Sprintf("unknown result %q", field(colResult))
	}
	e.Result = res

	var err error
	if e.ExitVelocity, err = parseOptional(field(colEV)); err != nil {
		return e, "exit velocity: " + err.Error()
	}
	if e.LaunchAngle, err = parseOptional(field(colLA)); err != nil {
		return e, "launch angle: " + err.Error()
	}
	if e.Distance, err = parseOptional(field(colDistance)); err != nil {
		return e, "distance: " + err.Error()
	}
	e.InZone = parseBool(field(colZone))
	if raw := field(colLevel); raw != "" {
		l, ok := barrel.ParseLevel(raw)
		if !ok {
			return e, fmt.Sprintf("unknown level %q", raw)
		}
		e.Level = l
	}
	return e, ""
}

// parseOptional treats blank and dash placeholders as no measurement.
func parseOptional(s string) (*float64, error) {
	switch s {
	case "", "-", "--", "n/a", "N/A", "null":
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", s)
	}
	return model.Round2(v), nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "yes", "y", "true", "t", "1", "in":
		return true
	}
	return false
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimSuffix(h, " (mph)")
	h = strings.TrimSuffix(h, " (deg)")
	h = strings.TrimSuffix(h, " (ft)")
	return h
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
