// Package queue defines the contract for buffering score audit records
// between the scoring path and the audit writers.
//
// Audit persistence is asynchronous: the scoring path enqueues and moves
// on, and a best-effort drop policy applies when the buffer is full.
package queue

import (
	"context"
	"sync"

	"github.com/govind-32/TrustFlow/internal/domain/model"
	"github.com/govind-32/TrustFlow/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10000
	defaultBufferSize    = 10000
)

// Record is the payload type flowing through the queue.
// Using the model.ScoreAudit type for type safety.
type Record = model.ScoreAudit

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an audit record to the queue.
	// Returns false if the queue is full and the record was dropped.
	Enqueue(ctx context.Context, r Record) bool

	// Dequeue returns a channel that will receive records as they become available.
	// The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Record

	// Len returns the current number of buffered records.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	// After closing, no new records can be enqueued and the dequeue channel will be closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	records    chan Record
	capacity   int
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.records = make(chan Record, q.bufferSize)

	metrics.UpdateAuditQueueSize(0)

	return q
}

// Enqueue adds an audit record to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Record) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordAuditDropped()
		return false
	}

	if len(q.records) >= q.capacity {
		metrics.RecordAuditDropped()
		return false
	}

	select {
	case q.records <- r:
		metrics.UpdateAuditQueueSize(len(q.records))
		return true
	case <-ctx.Done():
		metrics.RecordAuditDropped()
		return false
	default:
		metrics.RecordAuditDropped()
		return false
	}
}

// Dequeue returns a channel that will receive records as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Record {
	out := make(chan Record)
	go func() {
		defer close(out)
		for record := range q.records {
			select {
			case out <- record:
				metrics.UpdateAuditQueueSize(len(q.records))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of buffered records.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.records)
	metrics.UpdateAuditQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil // already closed
	}

	close(q.records)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
