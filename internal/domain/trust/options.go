package trust

import (
	"time"

	"github.com/govind-32/TrustFlow/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLookupTimeout bounds every history store call made by the engine.
// On expiry, reads degrade to neutral defaults and mutators fail retriably.
func WithLookupTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		if timeout > 0 {
			e.lookupTimeout = timeout
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
