// Package trust implements the trust score engine: a bounded 0-100
// creditworthiness score for a seller's invoice, blended from historical
// performance, counterparty reputation, size consistency and penalty signals.
package trust

import (
	"math"

	"github.com/shopspring/decimal"
)

// Scoring weights. The four factor weights sum to 100; the base score is
// added on top, so the pre-clamp maximum exceeds 100 and clamping is
// load-bearing.
const (
	// BaseScore is the starting score before any factor is applied, and
	// the score returned when every lookup fails.
	BaseScore = 50

	// MaxScore bounds the final score.
	MaxScore = 100

	sellerHistoryWeight   = 40
	buyerReputationWeight = 25
	invoiceSizeWeight     = 20
	penaltyWeight         = 15
)

// Factor values and thresholds.
const (
	// newSellerFactor is the neutral half-credit for sellers with no
	// settled invoices yet.
	newSellerFactor = 20

	// neutralSizeFactor applies when there is no history to compare
	// an invoice amount against.
	neutralSizeFactor = 10

	// Deviation tiers for the invoice-size consistency factor.
	tightDeviation    = 0.2
	nearDeviation     = 0.5
	looseDeviation    = 1.0
	tightSizeFactor   = 20
	nearSizeFactor    = 15
	looseSizeFactor   = 10
	outlierSizeFactor = 5

	// Penalty tiers keyed on the seller's late payment count.
	cleanPenaltyFactor = 15
	fewLatePenalty     = 10
	manyLatePenalty    = 5
	fewLateThreshold   = 3

	// unavailablePenaltyFactor applies when no payments ledger can be
	// consulted.
	unavailablePenaltyFactor = 7.5

	// reputationPenaltyStep is subtracted from a buyer's reputation on
	// each late payment, floored at zero.
	reputationPenaltyStep = 5
)

// ScoreInput carries the invoice attributes relevant to scoring.
// BuyerID is optional: when empty, the buyer-reputation factor uses the
// neutral default reputation.
type ScoreInput struct {
	SellerID string
	BuyerID  string
	Amount   decimal.Decimal
}

// Breakdown holds the exact factor values that produced a score. It is
// recomputed on every scoring call; persisted copies are an audit trail
// only. Summing the factors onto the base and clamping reconstructs the
// score (see Total).
type Breakdown struct {
	SellerHistory   float64 `json:"seller_history"`
	BuyerReputation float64 `json:"buyer_reputation"`
	InvoiceSize     float64 `json:"invoice_size"`
	Penalties       float64 `json:"penalties"`

	// Degraded marks a computation that fell back to the base score
	// because no lookup could be served.
	Degraded bool `json:"degraded,omitempty"`
}

// Total reconstructs the final score from the breakdown: base plus all
// factors, rounded once, clamped to [0, MaxScore]. A degraded breakdown
// has all-zero factors and totals to the base score.
func (b Breakdown) Total() int {
	sum := BaseScore + b.SellerHistory + b.BuyerReputation + b.InvoiceSize + b.Penalties
	return clampScore(int(math.Round(sum)))
}

// Score is the result of one trust score computation.
type Score struct {
	Value     int
	Breakdown Breakdown
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
