// Package dedupe tracks processed settlement and payment event ids.
package dedupe

// Option applies a configuration option to the event set.
type Option func(*eventSet)

// WithMaxSize sets the maximum number of IDs to keep in memory.
// If maxSize > 0: bounded mode with FIFO eviction.
// If maxSize <= 0: unbounded mode (no eviction, no size limit).
func WithMaxSize(maxSize int) Option {
	return func(d *eventSet) {
		d.maxSize = maxSize
	}
}
