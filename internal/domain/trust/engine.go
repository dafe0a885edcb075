package trust

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	repository "github.com/govind-32/TrustFlow/internal/adapters/repository"
	"github.com/govind-32/TrustFlow/internal/domain/model"
	"github.com/govind-32/TrustFlow/pkg/logger"
	"github.com/govind-32/TrustFlow/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Default engine configuration constants.
const (
	defaultLookupTimeout = 500 * time.Millisecond
)

// Store is the slice of the history repository the engine depends on.
// Implementations must return repository.ErrNotFound on lookup misses.
type Store interface {
	SellerHistory(ctx context.Context, sellerID string) (model.SellerHistory, error)
	BuyerHistory(ctx context.Context, buyerID string) (model.BuyerHistory, error)
	CountLatePayments(ctx context.Context, sellerID string) (int, error)
	WriteSellerHistory(ctx context.Context, sellerID string, h model.SellerHistory) error
	WriteBuyerHistory(ctx context.Context, buyerID string, h model.BuyerHistory) error
}

// Engine computes trust scores and records settlement and payment
// outcomes. It keeps no score state of its own: every computation is a
// function of the store snapshot it reads.
type Engine struct {
	store         Store
	lookupTimeout time.Duration
	logger        logger.Logger

	// Per-key mutexes serializing settlements per seller and payments
	// per buyer. Entries are never evicted; the key space is bounded by
	// the number of active sellers and buyers.
	locks sync.Map
}

// New creates an Engine backed by store.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		lookupTimeout: defaultLookupTimeout,
		logger:        logger.Get().Named("trust"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ComputeScore computes the trust score for one invoice.
//
// Lookup misses and store failures never fail the caller: the affected
// factors fall back to their neutral defaults, and when no lookup can be
// served at all the fixed base score is returned with a degraded
// breakdown. Only malformed input is rejected.
func (e *Engine) ComputeScore(ctx context.Context, in ScoreInput) (Score, error) {
	start := time.Now()
	defer func() {
		metrics.RecordScoringDuration(float64(time.Since(start).Nanoseconds()) / 1e6)
	}()

	if err := validateScoreInput(in); err != nil {
		return Score{}, err
	}

	seller, sellerErr := e.lookupSeller(ctx, in.SellerID)
	var (
		buyer    model.BuyerHistory
		buyerErr error
	)
	if in.BuyerID != "" {
		buyer, buyerErr = e.lookupBuyer(ctx, in.BuyerID)
	}
	lateCount, lateErr := e.countLate(ctx, in.SellerID)

	if e.allLookupsDown(sellerErr, buyerErr, lateErr, in.BuyerID != "") {
		metrics.RecordScoreDegraded()
		e.logger.Warn(ctx, "degraded score computation, returning base score",
			logger.String("sellerID", in.SellerID),
			logger.Error(sellerErr),
		)
		return Score{Value: BaseScore, Breakdown: Breakdown{Degraded: true}}, nil
	}

	b := Breakdown{
		SellerHistory:   sellerHistoryFactor(seller, sellerErr),
		BuyerReputation: buyerReputationFactor(buyer, buyerErr, in.BuyerID != ""),
		InvoiceSize:     invoiceSizeFactor(seller, sellerErr, in.Amount),
		Penalties:       penaltyFactor(lateCount, lateErr),
	}

	metrics.RecordScoreComputed()
	return Score{Value: b.Total(), Breakdown: b}, nil
}

// RecordSettlement records one invoice outcome for a seller: it bumps the
// settlement counters, recomputes the trust score from the updated
// snapshot and persists both in a single write. It is the only mutator of
// seller history. Settlements for the same seller are serialized;
// failures surface as retriable errors and leave no partial state.
func (e *Engine) RecordSettlement(ctx context.Context, sellerID string, amount decimal.Decimal, succeeded bool) (int, error) {
	if strings.TrimSpace(sellerID) == "" {
		return 0, fmt.Errorf("%w: missing seller id", ErrInvalidInput)
	}
	if amount.Sign() <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	mu := e.lockFor("seller:" + sellerID)
	mu.Lock()
	defer mu.Unlock()

	h, err := e.lookupSeller(ctx, sellerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return 0, fmt.Errorf("read seller history: %w", err)
	}

	h.TotalInvoices++
	if succeeded {
		h.SuccessfulInvoices++
		h.TotalRaised = h.TotalRaised.Add(amount)
	} else {
		h.DefaultedInvoices++
	}

	score := e.scoreSnapshot(ctx, sellerID, h, amount)
	h.CurrentTrustScore = score.Value

	wctx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()
	if err := e.store.WriteSellerHistory(wctx, sellerID, h); err != nil {
		return 0, fmt.Errorf("write seller history: %w", err)
	}

	metrics.RecordSettlement(succeeded)
	e.logger.Debug(ctx, "settlement recorded",
		logger.String("sellerID", sellerID),
		logger.Bool("succeeded", succeeded),
		logger.Int("trustScore", score.Value),
	)
	return score.Value, nil
}

// RecordBuyerPayment records one payment event for a buyer. A late
// payment bumps the late counter and applies the reputation penalty step,
// floored at zero. Calls are not idempotent: each represents one real
// payment.
func (e *Engine) RecordBuyerPayment(ctx context.Context, buyerID string, onTime bool) error {
	if strings.TrimSpace(buyerID) == "" {
		return fmt.Errorf("%w: missing buyer id", ErrInvalidInput)
	}

	mu := e.lockFor("buyer:" + buyerID)
	mu.Lock()
	defer mu.Unlock()

	h, err := e.lookupBuyer(ctx, buyerID)
	if errors.Is(err, repository.ErrNotFound) {
		h = model.NewBuyerHistory()
	} else if err != nil {
		return fmt.Errorf("read buyer history: %w", err)
	}

	h.InvoicesPaid++
	if !onTime {
		h.LatePayments++
		h.ReputationScore -= reputationPenaltyStep
		if h.ReputationScore < 0 {
			h.ReputationScore = 0
		}
	}

	wctx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()
	if err := e.store.WriteBuyerHistory(wctx, buyerID, h); err != nil {
		return fmt.Errorf("write buyer history: %w", err)
	}

	metrics.RecordBuyerPayment(onTime)
	return nil
}

// SellerStats returns the seller's history, or the implicit neutral
// history when no record exists.
func (e *Engine) SellerStats(ctx context.Context, sellerID string) (model.SellerHistory, error) {
	h, err := e.lookupSeller(ctx, sellerID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.SellerHistory{CurrentTrustScore: BaseScore}, nil
	}
	if err != nil {
		return model.SellerHistory{CurrentTrustScore: BaseScore}, fmt.Errorf("read seller history: %w", err)
	}
	return h, nil
}

// BuyerStats returns the buyer's history, or the implicit neutral history
// when no record exists.
func (e *Engine) BuyerStats(ctx context.Context, buyerID string) (model.BuyerHistory, error) {
	h, err := e.lookupBuyer(ctx, buyerID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewBuyerHistory(), nil
	}
	if err != nil {
		return model.NewBuyerHistory(), fmt.Errorf("read buyer history: %w", err)
	}
	return h, nil
}

// scoreSnapshot scores an invoice against an already-loaded seller
// snapshot, consulting the store only for the penalty ledger. Used by
// RecordSettlement so the recomputed score reflects the updated counters
// before they are persisted.
func (e *Engine) scoreSnapshot(ctx context.Context, sellerID string, h model.SellerHistory, amount decimal.Decimal) Score {
	lateCount, lateErr := e.countLate(ctx, sellerID)

	b := Breakdown{
		SellerHistory:   sellerHistoryFactor(h, nil),
		BuyerReputation: buyerReputationFactor(model.BuyerHistory{}, nil, false),
		InvoiceSize:     invoiceSizeFactor(h, nil, amount),
		Penalties:       penaltyFactor(lateCount, lateErr),
	}
	metrics.RecordScoreComputed()
	return Score{Value: b.Total(), Breakdown: b}
}

func (e *Engine) lockFor(key string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (e *Engine) lookupSeller(ctx context.Context, sellerID string) (model.SellerHistory, error) {
	lctx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()
	return e.store.SellerHistory(lctx, sellerID)
}

func (e *Engine) lookupBuyer(ctx context.Context, buyerID string) (model.BuyerHistory, error) {
	lctx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()
	return e.store.BuyerHistory(lctx, buyerID)
}

func (e *Engine) countLate(ctx context.Context, sellerID string) (int, error) {
	lctx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()
	return e.store.CountLatePayments(lctx, sellerID)
}

// allLookupsDown reports whether every attempted lookup failed with a
// store error (misses do not count). In that case no factor has real
// data behind it and the computation is degraded.
func (e *Engine) allLookupsDown(sellerErr, buyerErr, lateErr error, buyerLookedUp bool) bool {
	if !storeDown(sellerErr) || !storeDown(lateErr) {
		return false
	}
	if buyerLookedUp && !storeDown(buyerErr) {
		return false
	}
	return true
}

func storeDown(err error) bool {
	return err != nil && !errors.Is(err, repository.ErrNotFound)
}

func validateScoreInput(in ScoreInput) error {
	if strings.TrimSpace(in.SellerID) == "" {
		return fmt.Errorf("%w: missing seller id", ErrInvalidInput)
	}
	if in.Amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	return nil
}

// sellerHistoryFactor weighs the seller's past success rate. New or
// unresolvable sellers get neutral half-credit. This is the one factor
// rounded individually; the final sum is rounded once more in Total.
func sellerHistoryFactor(h model.SellerHistory, err error) float64 {
	if err != nil || h.TotalInvoices == 0 {
		return newSellerFactor
	}
	rate := float64(h.SuccessfulInvoices) / float64(h.TotalInvoices)
	return math.Round(rate * sellerHistoryWeight)
}

// buyerReputationFactor scales the buyer's reputation to the factor
// weight. Unknown or unresolvable buyers contribute the neutral default
// reputation, i.e. 12.5.
func buyerReputationFactor(h model.BuyerHistory, err error, lookedUp bool) float64 {
	rep := model.DefaultReputationScore
	if lookedUp && err == nil {
		rep = h.ReputationScore
	}
	return float64(rep) / 100 * buyerReputationWeight
}

// invoiceSizeFactor weighs how far the invoice amount deviates from the
// seller's historical average.
func invoiceSizeFactor(h model.SellerHistory, err error, amount decimal.Decimal) float64 {
	if err != nil || h.TotalInvoices == 0 || h.TotalRaised.Sign() <= 0 {
		return neutralSizeFactor
	}

	avg := h.TotalRaised.Div(decimal.NewFromInt(int64(h.TotalInvoices)))
	deviation, _ := amount.Sub(avg).Abs().Div(avg).Float64()

	switch {
	case deviation < tightDeviation:
		return tightSizeFactor
	case deviation < nearDeviation:
		return nearSizeFactor
	case deviation < looseDeviation:
		return looseSizeFactor
	default:
		return outlierSizeFactor
	}
}

// penaltyFactor weighs the seller's late payment count. With no ledger
// available the neutral half-weight applies.
func penaltyFactor(lateCount int, err error) float64 {
	if err != nil {
		return unavailablePenaltyFactor
	}
	switch {
	case lateCount == 0:
		return cleanPenaltyFactor
	case lateCount < fewLateThreshold:
		return fewLatePenalty
	default:
		return manyLatePenalty
	}
}
