package flow

import "errors"

var (
	// ErrScoreOutOfRange is returned when a flow or overall score is outside [0,100].
	ErrScoreOutOfRange = errors.New("flow: score out of range")
	// ErrInvalidWeights is returned when combine weights are negative or sum to zero.
	ErrInvalidWeights = errors.New("flow: invalid weights")
	// ErrBandOutOfRange is returned for a GOATY band outside -3..+3.
	ErrBandOutOfRange = errors.New("flow: goaty band out of range")
)
