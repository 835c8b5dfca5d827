package service

import (
	"errors"
	"strings"
)

// Sentinel kinds returned by the service.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrBackpressure   = errors.New("analysis queue is full")
	ErrNotStarted     = errors.New("service not started")
	ErrNotFound       = errors.New("not found")
)

// ValidationError lists every problem found in a request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Problems, "; ")
}

// Unwrap lets errors.Is match ErrInvalidRequest.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

func invalid(problems ...string) error {
	return &ValidationError{Problems: problems}
}
