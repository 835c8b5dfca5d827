package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateBatch = errors.New("batch already imported")
	ErrInvalidLimit   = errors.New("invalid list limit")
)
