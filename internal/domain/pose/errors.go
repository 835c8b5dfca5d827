package pose

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidFrames = errors.New("invalid frames")
)

// FrameError describes the first malformed frame found during ingestion.
type FrameError struct {
	Frame  int
	Reason string
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d: %s", e.Frame, e.Reason)
}

// Unwrap lets callers match ErrInvalidFrames.
func (e *FrameError) Unwrap() error {
	return ErrInvalidFrames
}
