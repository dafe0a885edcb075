package repository

import "errors"

// Sentinel kinds for history store errors.
var (
	// ErrNotFound marks a lookup miss. Not a failure: absent sellers and
	// buyers carry an implicit neutral history.
	ErrNotFound = errors.New("history record not found")

	// ErrUnavailable marks a backing-store failure or timeout. Mutator
	// callers should retry with the same event key.
	ErrUnavailable = errors.New("history store unavailable")
)
