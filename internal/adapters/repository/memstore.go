package repository

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/govind-32/TrustFlow/internal/domain/model"
	"github.com/govind-32/TrustFlow/pkg/metrics"
)

// Default memory store configuration constants.
const (
	defaultShardCount    = 8
	defaultAuditCapacity = 10_000
)

// shard holds one partition of seller/buyer state. Sharding keeps lock
// contention low when many sellers are scored concurrently.
type shard struct {
	mu      sync.RWMutex
	sellers map[string]model.SellerHistory
	buyers  map[string]model.BuyerHistory
	// payments per seller: total count and how many were late
	latePayments map[string]int
}

// MemoryStore implements HistoryStore with sharded in-process maps.
// It is the fallback backend for local runs and tests; state does not
// survive process restart.
type MemoryStore struct {
	shardCount int
	shards     []*shard

	auditMu  sync.Mutex
	auditCap int
	audits   []model.ScoreAudit

	closed bool
	mu     sync.RWMutex
}

// NewMemoryStore creates a memory-backed history store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		shardCount: defaultShardCount,
		auditCap:   defaultAuditCapacity,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{
			sellers:      make(map[string]model.SellerHistory),
			buyers:       make(map[string]model.BuyerHistory),
			latePayments: make(map[string]int),
		}
	}

	return s
}

func (s *MemoryStore) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[int(h.Sum32())%s.shardCount]
}

func (s *MemoryStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// SellerHistory returns the seller's aggregate record.
func (s *MemoryStore) SellerHistory(ctx context.Context, sellerID string) (model.SellerHistory, error) {
	defer observe("seller_history", time.Now())
	if s.isClosed() {
		return model.SellerHistory{}, ErrUnavailable
	}
	sh := s.shardFor(sellerID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	h, ok := sh.sellers[sellerID]
	if !ok {
		return model.SellerHistory{}, ErrNotFound
	}
	return h, nil
}

// BuyerHistory returns the buyer's aggregate record.
func (s *MemoryStore) BuyerHistory(ctx context.Context, buyerID string) (model.BuyerHistory, error) {
	defer observe("buyer_history", time.Now())
	if s.isClosed() {
		return model.BuyerHistory{}, ErrUnavailable
	}
	sh := s.shardFor(buyerID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	h, ok := sh.buyers[buyerID]
	if !ok {
		return model.BuyerHistory{}, ErrNotFound
	}
	return h, nil
}

// CountLatePayments returns the seller's late payment count.
func (s *MemoryStore) CountLatePayments(ctx context.Context, sellerID string) (int, error) {
	defer observe("count_late_payments", time.Now())
	if s.isClosed() {
		return 0, ErrUnavailable
	}
	sh := s.shardFor(sellerID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.latePayments[sellerID], nil
}

// WriteSellerHistory upserts the seller's aggregate record.
func (s *MemoryStore) WriteSellerHistory(ctx context.Context, sellerID string, h model.SellerHistory) error {
	defer observe("write_seller_history", time.Now())
	if s.isClosed() {
		metrics.RecordRepositoryError("write_seller_history")
		return ErrUnavailable
	}
	sh := s.shardFor(sellerID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.sellers[sellerID] = h
	return nil
}

// WriteBuyerHistory upserts the buyer's aggregate record.
func (s *MemoryStore) WriteBuyerHistory(ctx context.Context, buyerID string, h model.BuyerHistory) error {
	defer observe("write_buyer_history", time.Now())
	if s.isClosed() {
		metrics.RecordRepositoryError("write_buyer_history")
		return ErrUnavailable
	}
	sh := s.shardFor(buyerID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.buyers[buyerID] = h
	return nil
}

// RecordInvoicePayment appends one payment to the seller's ledger.
func (s *MemoryStore) RecordInvoicePayment(ctx context.Context, sellerID string, late bool) error {
	defer observe("record_invoice_payment", time.Now())
	if s.isClosed() {
		metrics.RecordRepositoryError("record_invoice_payment")
		return ErrUnavailable
	}
	if !late {
		return nil
	}
	sh := s.shardFor(sellerID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.latePayments[sellerID]++
	return nil
}

// WriteScoreAudit appends an audit record to the bounded ring.
func (s *MemoryStore) WriteScoreAudit(ctx context.Context, audit model.ScoreAudit) error {
	defer observe("write_score_audit", time.Now())
	if s.isClosed() {
		metrics.RecordRepositoryError("write_score_audit")
		return ErrUnavailable
	}
	s.auditMu.Lock()
	defer s.auditMu.Unlock()
	if len(s.audits) >= s.auditCap {
		// Drop the oldest record to stay within capacity.
		s.audits = s.audits[1:]
	}
	s.audits = append(s.audits, audit)
	return nil
}

// ScoreAudits returns a copy of the retained audit records, oldest first.
func (s *MemoryStore) ScoreAudits() []model.ScoreAudit {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()
	out := make([]model.ScoreAudit, len(s.audits))
	copy(out, s.audits)
	return out
}

// Close marks the store closed. Subsequent calls fail with ErrUnavailable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryOp(op, float64(time.Since(start).Nanoseconds())/1e6)
}
