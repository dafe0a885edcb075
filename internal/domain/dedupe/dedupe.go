// Package dedupe tracks processed settlement and payment event ids.
// The engine itself provides no deduplication; callers key retries on the
// originating event, and this guard drops replays before they touch
// financial state.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Default bound on retained event ids.
const defaultMaxSize = 100_000

// Deduper records seen event IDs to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if
	// not. Returns true if id was already seen, false if it was newly
	// recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen set so the event can be
	// retried. Use it when an event was recorded but its downstream
	// mutation failed.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// eventSet implements Deduper with a bounded map plus FIFO eviction
// order. Unbounded when maxSize <= 0.
type eventSet struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion order for FIFO eviction, bounded mode only
	maxSize int
	size    atomic.Int64
}

// NewEventSet creates an in-memory deduper.
func NewEventSet(opts ...Option) Deduper {
	d := &eventSet{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]struct{})

	return d
}

// SeenAndRecord atomically checks and records id.
func (d *eventSet) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize > 0 {
		for len(d.seen) >= d.maxSize && len(d.order) > 0 {
			oldest := d.order[0]
			d.order = d.order[1:]
			if _, ok := d.seen[oldest]; ok {
				delete(d.seen, oldest)
				d.size.Add(-1)
			}
		}
		d.order = append(d.order, id)
	}

	d.seen[id] = struct{}{}
	d.size.Add(1)
	return false
}

// Unrecord removes id from the seen set. The eviction order entry is
// left behind; it is skipped when its turn comes.
func (d *eventSet) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		delete(d.seen, id)
		d.size.Add(-1)
	}
}

// Size returns the current number of recorded ids.
func (d *eventSet) Size() int64 {
	return d.size.Load()
}
