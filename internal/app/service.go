// Package service wires the trust engine, history store, idempotency
// guard, and audit pipeline behind the surface the HTTP API depends on.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	auditqueue "github.com/govind-32/TrustFlow/internal/adapters/mq/queue"
	workerpool "github.com/govind-32/TrustFlow/internal/adapters/mq/worker"
	"github.com/govind-32/TrustFlow/internal/adapters/postgres"
	repository "github.com/govind-32/TrustFlow/internal/adapters/repository"
	"github.com/govind-32/TrustFlow/internal/config"
	"github.com/govind-32/TrustFlow/internal/domain/dedupe"
	"github.com/govind-32/TrustFlow/internal/domain/model"
	"github.com/govind-32/TrustFlow/internal/domain/trust"
	"github.com/govind-32/TrustFlow/pkg/logger"
)

// InvoiceScore is the result of scoring one invoice: the score itself
// plus the hash that binds it to the invoice record.
type InvoiceScore struct {
	InvoiceID string
	Score     trust.Score
	TrustHash string
}

// Service implements the API dependencies for the trust score engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.HistoryStore
	engine     *trust.Engine
	deduper    dedupe.Deduper
	auditQueue auditqueue.Queue
	auditPool  *workerpool.Pool

	// Configuration
	storage       string
	databaseURL   string
	maxConns      int
	lookupTimeout time.Duration
	auditQueueLen int
	auditWorkers  int
	dedupeSize    int
	auditCapacity int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStorage selects the history store backend (memory or postgres).
func WithStorage(backend string) Option {
	return func(s *Service) {
		if backend != "" {
			s.storage = backend
		}
	}
}

// WithDatabaseURL sets the Postgres connection URL.
func WithDatabaseURL(url string) Option {
	return func(s *Service) {
		s.databaseURL = url
	}
}

// WithMaxConns sets the Postgres pool size.
func WithMaxConns(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxConns = n
		}
	}
}

// WithLookupTimeout bounds every repository lookup made by the engine.
func WithLookupTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.lookupTimeout = timeout
		}
	}
}

// WithAuditQueueSize sets the capacity of the audit record queue.
func WithAuditQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.auditQueueLen = size
		}
	}
}

// WithAuditWorkerCount sets the number of audit writer goroutines.
func WithAuditWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.auditWorkers = count
		}
	}
}

// WithDedupeSize sets the size of the idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithAuditCapacity bounds the memory backend's audit ring.
func WithAuditCapacity(capacity int) Option {
	return func(s *Service) {
		if capacity > 0 {
			s.auditCapacity = capacity
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storage:       config.StorageMemory,
		maxConns:      10,
		lookupTimeout: 500 * time.Millisecond,
		auditQueueLen: 10_000,
		auditWorkers:  runtime.NumCPU(),
		dedupeSize:    100_000,
		auditCapacity: 10_000,
		logger:        nil, // set on Start when left unset
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting trust score service...")

	switch s.storage {
	case config.StoragePostgres:
		db, err := postgres.Connect(ctx, s.databaseURL, postgres.WithMaxConns(s.maxConns))
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		s.store = db
		s.logger.Info(ctx, "using postgres history store")
	default:
		s.store = repository.NewMemoryStore(repository.WithAuditCapacity(s.auditCapacity))
		s.logger.Info(ctx, "using in-memory history store")
	}

	s.engine = trust.New(s.store,
		trust.WithLookupTimeout(s.lookupTimeout),
	)
	s.deduper = dedupe.NewEventSet(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.auditQueue = auditqueue.NewInMemoryQueue(
		auditqueue.WithCapacity(s.auditQueueLen),
		auditqueue.WithBufferSize(s.auditQueueLen),
	)

	s.auditPool = workerpool.NewPool(s.auditWorkers, s.auditQueue, s.store)
	s.auditPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "trust score service started",
		logger.String("storage", s.storage),
		logger.Int("auditWorkers", s.auditWorkers),
		logger.Int("auditQueueSize", s.auditQueueLen),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service. Buffered audit records are
// drained before the store closes.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping trust score service...")

	if s.auditPool != nil {
		_ = s.auditPool.Shutdown(ctx)
	}

	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "trust score service stopped")
}

// ComputeScore computes a trust score and enqueues an audit record.
func (s *Service) ComputeScore(ctx context.Context, in trust.ScoreInput) (trust.Score, error) {
	engine, err := s.components()
	if err != nil {
		return trust.Score{}, err
	}

	score, err := engine.ComputeScore(ctx, in)
	if err != nil {
		return trust.Score{}, err
	}

	s.enqueueAudit(ctx, "", in, score)

	return score, nil
}

// ScoreInvoice scores one invoice and derives the trust hash that the
// invoice record stores alongside the score.
func (s *Service) ScoreInvoice(ctx context.Context, invoiceID string, in trust.ScoreInput) (InvoiceScore, error) {
	if invoiceID == "" {
		return InvoiceScore{}, fmt.Errorf("%w: invoice id is required", trust.ErrInvalidInput)
	}

	engine, err := s.components()
	if err != nil {
		return InvoiceScore{}, err
	}

	score, err := engine.ComputeScore(ctx, in)
	if err != nil {
		return InvoiceScore{}, err
	}

	s.enqueueAudit(ctx, invoiceID, in, score)

	return InvoiceScore{
		InvoiceID: invoiceID,
		Score:     score,
		TrustHash: trustHash(invoiceID, score.Value),
	}, nil
}

// RecordSettlement applies one settled invoice. The event id keys the
// idempotency guard: replays are rejected with ErrDuplicateEvent, and a
// failed write releases the id so the event can be retried.
func (s *Service) RecordSettlement(ctx context.Context, eventID, sellerID string, amount decimal.Decimal, succeeded bool) (int, error) {
	engine, err := s.components()
	if err != nil {
		return 0, err
	}

	if eventID == "" {
		return 0, fmt.Errorf("%w: event id is required", trust.ErrInvalidInput)
	}

	if s.deduper.SeenAndRecord(ctx, eventID) {
		s.logger.Debug(ctx, "duplicate settlement event",
			logger.String("event_id", eventID),
			logger.String("seller_id", sellerID),
		)
		return 0, ErrDuplicateEvent
	}

	score, err := engine.RecordSettlement(ctx, sellerID, amount, succeeded)
	if err != nil {
		s.deduper.Unrecord(ctx, eventID)
		return 0, err
	}

	return score, nil
}

// RecordBuyerPayment applies one buyer payment. When sellerID is set the
// payment is also appended to that seller's late-payment ledger.
func (s *Service) RecordBuyerPayment(ctx context.Context, eventID, buyerID string, onTime bool, sellerID string) error {
	engine, err := s.components()
	if err != nil {
		return err
	}

	if eventID == "" {
		return fmt.Errorf("%w: event id is required", trust.ErrInvalidInput)
	}

	if s.deduper.SeenAndRecord(ctx, eventID) {
		s.logger.Debug(ctx, "duplicate payment event",
			logger.String("event_id", eventID),
			logger.String("buyer_id", buyerID),
		)
		return ErrDuplicateEvent
	}

	if err := engine.RecordBuyerPayment(ctx, buyerID, onTime); err != nil {
		s.deduper.Unrecord(ctx, eventID)
		return err
	}

	if sellerID != "" {
		if err := s.store.RecordInvoicePayment(ctx, sellerID, !onTime); err != nil {
			// Buyer history already advanced; the ledger write is
			// retriable on its own, so the event id stays recorded.
			s.logger.Error(ctx, "ledger write failed",
				logger.String("event_id", eventID),
				logger.String("seller_id", sellerID),
				logger.Error(err),
			)
			return err
		}
	}

	return nil
}

// SellerStats returns the seller's aggregate history.
func (s *Service) SellerStats(ctx context.Context, sellerID string) (model.SellerHistory, error) {
	engine, err := s.components()
	if err != nil {
		return model.SellerHistory{}, err
	}
	return engine.SellerStats(ctx, sellerID)
}

// BuyerStats returns the buyer's aggregate history.
func (s *Service) BuyerStats(ctx context.Context, buyerID string) (model.BuyerHistory, error) {
	engine, err := s.components()
	if err != nil {
		return model.BuyerHistory{}, err
	}
	return engine.BuyerStats(ctx, buyerID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"storage":      s.storage,
		"auditWorkers": s.auditWorkers,
		"dedupeSize":   s.dedupeSize,
	}

	if s.started {
		stats["auditQueueLength"] = s.auditQueue.Len(context.Background())
		stats["dedupeEntries"] = s.deduper.Size()
	}

	return stats
}

// components returns the engine under the read lock, or ErrNotStarted.
func (s *Service) components() (*trust.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	return s.engine, nil
}

// enqueueAudit submits an audit record for asynchronous persistence.
// A full queue drops the record; scoring never blocks on the trail.
func (s *Service) enqueueAudit(ctx context.Context, invoiceID string, in trust.ScoreInput, score trust.Score) {
	audit := model.ScoreAudit{
		ID:              uuid.NewString(),
		SellerID:        in.SellerID,
		BuyerID:         in.BuyerID,
		InvoiceID:       invoiceID,
		Amount:          in.Amount,
		Score:           score.Value,
		SellerHistory:   score.Breakdown.SellerHistory,
		BuyerReputation: score.Breakdown.BuyerReputation,
		InvoiceSize:     score.Breakdown.InvoiceSize,
		Penalties:       score.Breakdown.Penalties,
		Degraded:        score.Breakdown.Degraded,
		ComputedAt:      time.Now().UTC(),
	}

	if !s.auditQueue.Enqueue(ctx, audit) {
		s.logger.Warn(ctx, "audit record dropped",
			logger.String("seller_id", in.SellerID),
			logger.Int("score", score.Value),
		)
	}
}

// trustHash binds a score to its invoice: sha256 over "invoiceID|score".
func trustHash(invoiceID string, score int) string {
	sum := sha256.Sum256([]byte(invoiceID + "|" + strconv.Itoa(score)))
	return hex.EncodeToString(sum[:])
}
