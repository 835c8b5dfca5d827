package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn is returned when a required header is absent.
	ErrMissingColumn = errors.New("ingest: missing column")
	// ErrEmpty is returned for input without a header row.
	ErrEmpty = errors.New("ingest: empty input")
	// ErrTooManyRows is returned when the file exceeds the row limit.
	ErrTooManyRows = errors.New("ingest: too many rows")
)

// RowError describes a row that was skipped.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}
