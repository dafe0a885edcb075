// Package worker drains the audit queue and persists score audit records.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/govind-32/TrustFlow/internal/domain/model"
	"github.com/govind-32/TrustFlow/pkg/logger"
	"github.com/govind-32/TrustFlow/pkg/metrics"
)

// Default worker configuration constants.
const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Record abstracts what workers read off the queue.
// Using the model.ScoreAudit type for consistency.
type Record = model.ScoreAudit

// Sink persists audit records drained from the queue.
type Sink interface {
	WriteScoreAudit(ctx context.Context, audit model.ScoreAudit) error
}

// Queue defines how workers receive records.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Record
}

// Worker drains audit records until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining records before stopping.
	Shutdown(ctx context.Context) error
}

// AuditWriter implements Worker by writing records to a Sink.
type AuditWriter struct {
	queue Queue
	sink  Sink
	name  string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewAuditWriter creates a new worker with configuration options.
func NewAuditWriter(queue Queue, sink Sink, opts ...Option) *AuditWriter {
	w := &AuditWriter{
		queue:    queue,
		sink:     sink,
		name:     "audit-writer", // default name
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("audit-writer"), // will be updated by options
	}

	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "audit-writer" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *AuditWriter) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	recordChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case record, ok := <-recordChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.writeRecord(ctx, record); err != nil {
				w.logger.Error(ctx, "error writing audit record", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *AuditWriter) Shutdown(ctx context.Context) error {
	// Signal shutdown
	close(w.shutdown)

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// writeRecord persists a single audit record.
func (w *AuditWriter) writeRecord(ctx context.Context, record Record) error {
	if err := w.sink.WriteScoreAudit(ctx, record); err != nil {
		metrics.RecordAuditDropped()
		w.logger.Error(ctx, "audit write failed",
			logger.String("audit_id", record.ID),
			logger.String("seller_id", record.SellerID),
			logger.Error(err),
		)
		return fmt.Errorf("write audit %s: %w", record.ID, err)
	}

	metrics.RecordAuditWritten()
	return nil
}

// Pool manages multiple audit writers.
type Pool struct {
	workers []*AuditWriter
	queue   Queue
	sink    Sink

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, sink Sink) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:  make([]*AuditWriter, workerCount),
		queue:    queue,
		sink:     sink,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("audit-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewAuditWriter(
			queue,
			sink,
			WithName("audit-writer-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateAuditWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	// Signal shutdown to all workers
	close(p.shutdown)

	// Wait for all workers to finish
	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}

	metrics.UpdateAuditWorkerCount(0)
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new records
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing audit queue", logger.Error(err))
		}
	}

	// Signal shutdown; workers keep draining until the dequeue channel
	// closes so buffered records are not lost.
	close(p.shutdown)

	// Wait for all workers to finish or context to timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "audit writer shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateAuditWorkerCount(0)

	return nil
}
