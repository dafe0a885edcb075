// Package repository defines the history store contract and errors.
package repository

import (
	"context"

	"github.com/govind-32/TrustFlow/internal/domain/model"
)

// HistoryStore provides read/write access to seller and buyer history,
// the late-payment ledger, and the score audit trail. One implementation
// is backed by Postgres, one by process memory; the engine is written
// against this interface only.
type HistoryStore interface {
	// SellerHistory returns the seller's aggregate record.
	// Returns ErrNotFound when the seller has no history row.
	SellerHistory(ctx context.Context, sellerID string) (model.SellerHistory, error)

	// BuyerHistory returns the buyer's aggregate record.
	// Returns ErrNotFound when the buyer has no history row.
	BuyerHistory(ctx context.Context, buyerID string) (model.BuyerHistory, error)

	// CountLatePayments returns the number of late-marked payments
	// associated with the seller's invoices.
	CountLatePayments(ctx context.Context, sellerID string) (int, error)

	// WriteSellerHistory upserts the seller's aggregate record.
	WriteSellerHistory(ctx context.Context, sellerID string, h model.SellerHistory) error

	// WriteBuyerHistory upserts the buyer's aggregate record.
	WriteBuyerHistory(ctx context.Context, buyerID string, h model.BuyerHistory) error

	// RecordInvoicePayment appends one payment to the seller's ledger,
	// marking it late when late is true. Feeds CountLatePayments.
	RecordInvoicePayment(ctx context.Context, sellerID string, late bool) error

	// WriteScoreAudit persists one score audit record.
	WriteScoreAudit(ctx context.Context, audit model.ScoreAudit) error

	// Close releases backend resources.
	Close() error
}
