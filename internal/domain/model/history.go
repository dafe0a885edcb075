// Package model contains domain records passed between layers.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultReputationScore is the neutral reputation every buyer starts with.
const DefaultReputationScore = 50

// SellerHistory aggregates a seller's settled-invoice track record.
// Counters only ever grow; settlement recording is the sole mutator.
type SellerHistory struct {
	TotalInvoices      int             // settled invoices, successful or defaulted
	SuccessfulInvoices int             // invoices paid in full
	DefaultedInvoices  int             // invoices that defaulted
	TotalRaised        decimal.Decimal // sum of amounts across successful invoices
	CurrentTrustScore  int             // last persisted trust score, [0,100]
}

// BuyerHistory aggregates a buyer's payment reliability.
type BuyerHistory struct {
	ReputationScore   int // [0,100], starts at DefaultReputationScore
	InvoicesConfirmed int
	InvoicesPaid      int
	LatePayments      int
}

// NewBuyerHistory returns the implicit neutral history of an unseen buyer.
func NewBuyerHistory() BuyerHistory {
	return BuyerHistory{ReputationScore: DefaultReputationScore}
}

// ScoreAudit is one persisted record of a score computation. Audit rows are
// a cache for inspection only; the breakdown returned by the engine is
// authoritative at the moment of scoring.
type ScoreAudit struct {
	ID              string
	SellerID        string
	BuyerID         string
	InvoiceID       string
	Amount          decimal.Decimal
	Score           int
	SellerHistory   float64
	BuyerReputation float64
	InvoiceSize     float64
	Penalties       float64
	Degraded        bool
	ComputedAt      time.Time
}
