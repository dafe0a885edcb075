package trust

import "errors"

// Sentinel kinds for engine errors.
var (
	// ErrInvalidInput marks a malformed identifier or non-positive amount.
	// Rejected before any state is touched.
	ErrInvalidInput = errors.New("invalid scoring input")
)
