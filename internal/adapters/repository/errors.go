package repository

import "errors"

// Sentinel errors for the analysis store and rank index.
var (
	ErrNotFound     = errors.New("analysis not found")
	ErrInvalidLimit = errors.New("invalid moments limit")
	ErrInvalidID    = errors.New("analysis id is empty")
	ErrClosed       = errors.New("store is closed")
)
