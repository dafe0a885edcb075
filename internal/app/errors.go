package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrDuplicateEvent marks a settlement or payment event id that was
	// already processed. The underlying state is unchanged.
	ErrDuplicateEvent = errors.New("duplicate event")

	// ErrNotStarted marks a call made before Start or after Stop.
	ErrNotStarted = errors.New("service not started")
)
