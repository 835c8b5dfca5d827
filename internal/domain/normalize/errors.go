package normalize

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidRange = errors.New("invalid trim range")
	ErrInvalidFps   = errors.New("invalid frame rate")
	ErrEmptyFrames  = errors.New("no frames to normalize")
)
