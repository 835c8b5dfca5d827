package scoring

import "errors"

var (
	// ErrScoreOutOfRange is returned when an upstream score is outside [0,100].
	ErrScoreOutOfRange = errors.New("scoring: score out of range")
	// ErrScoresUnavailable is returned when no upstream scores were supplied.
	ErrScoresUnavailable = errors.New("scoring: scores unavailable")
)
