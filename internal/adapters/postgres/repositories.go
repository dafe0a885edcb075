package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/govind-32/TrustFlow/internal/adapters/repository"
	"github.com/govind-32/TrustFlow/internal/domain/model"
	"github.com/govind-32/TrustFlow/pkg/metrics"
)

// SellerHistory returns the seller's aggregate record.
func (db *DB) SellerHistory(ctx context.Context, sellerID string) (model.SellerHistory, error) {
	defer observe("seller_history", time.Now())

	var h model.SellerHistory
	var raised string
	err := db.pool.QueryRow(ctx, `
		SELECT total_invoices, successful_invoices, defaulted_invoices, total_raised::text, current_trust_score
		FROM seller_histories
		WHERE seller_id = $1
	`, sellerID).Scan(&h.TotalInvoices, &h.SuccessfulInvoices, &h.DefaultedInvoices, &raised, &h.CurrentTrustScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.SellerHistory{}, repository.ErrNotFound
	}
	if err != nil {
		metrics.RecordRepositoryError("seller_history")
		return model.SellerHistory{}, fmt.Errorf("%w: seller history: %v", repository.ErrUnavailable, err)
	}

	h.TotalRaised, err = decimal.NewFromString(raised)
	if err != nil {
		metrics.RecordRepositoryError("seller_history")
		return model.SellerHistory{}, fmt.Errorf("%w: total raised: %v", repository.ErrUnavailable, err)
	}

	return h, nil
}

// BuyerHistory returns the buyer's aggregate record.
func (db *DB) BuyerHistory(ctx context.Context, buyerID string) (model.BuyerHistory, error) {
	defer observe("buyer_history", time.Now())

	var h model.BuyerHistory
	err := db.pool.QueryRow(ctx, `
		SELECT reputation_score, invoices_confirmed, invoices_paid, late_payments
		FROM buyer_histories
		WHERE buyer_id = $1
	`, buyerID).Scan(&h.ReputationScore, &h.InvoicesConfirmed, &h.InvoicesPaid, &h.LatePayments)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.BuyerHistory{}, repository.ErrNotFound
	}
	if err != nil {
		metrics.RecordRepositoryError("buyer_history")
		return model.BuyerHistory{}, fmt.Errorf("%w: buyer history: %v", repository.ErrUnavailable, err)
	}

	return h, nil
}

// CountLatePayments returns the seller's late-marked payment count.
func (db *DB) CountLatePayments(ctx context.Context, sellerID string) (int, error) {
	defer observe("count_late_payments", time.Now())

	var count int
	err := db.pool.QueryRow(ctx, `
		SELECT count(*) FROM invoice_payments
		WHERE seller_id = $1 AND late
	`, sellerID).Scan(&count)
	if err != nil {
		metrics.RecordRepositoryError("count_late_payments")
		return 0, fmt.Errorf("%w: count late payments: %v", repository.ErrUnavailable, err)
	}

	return count, nil
}

// WriteSellerHistory upserts the seller's aggregate record.
func (db *DB) WriteSellerHistory(ctx context.Context, sellerID string, h model.SellerHistory) error {
	defer observe("write_seller_history", time.Now())

	_, err := db.pool.Exec(ctx, `
		INSERT INTO seller_histories (seller_id, total_invoices, successful_invoices, defaulted_invoices, total_raised, current_trust_score, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (seller_id) DO UPDATE SET
			total_invoices      = EXCLUDED.total_invoices,
			successful_invoices = EXCLUDED.successful_invoices,
			defaulted_invoices  = EXCLUDED.defaulted_invoices,
			total_raised        = EXCLUDED.total_raised,
			current_trust_score = EXCLUDED.current_trust_score,
			updated_at          = now()
	`, sellerID, h.TotalInvoices, h.SuccessfulInvoices, h.DefaultedInvoices, h.TotalRaised.String(), h.CurrentTrustScore)
	if err != nil {
		metrics.RecordRepositoryError("write_seller_history")
		return fmt.Errorf("%w: write seller history: %v", repository.ErrUnavailable, err)
	}

	return nil
}

// WriteBuyerHistory upserts the buyer's aggregate record.
func (db *DB) WriteBuyerHistory(ctx context.Context, buyerID string, h model.BuyerHistory) error {
	defer observe("write_buyer_history", time.Now())

	_, err := db.pool.Exec(ctx, `
		INSERT INTO buyer_histories (buyer_id, reputation_score, invoices_confirmed, invoices_paid, late_payments, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (buyer_id) DO UPDATE SET
			reputation_score   = EXCLUDED.reputation_score,
			invoices_confirmed = EXCLUDED.invoices_confirmed,
			invoices_paid      = EXCLUDED.invoices_paid,
			late_payments      = EXCLUDED.late_payments,
			updated_at         = now()
	`, buyerID, h.ReputationScore, h.InvoicesConfirmed, h.InvoicesPaid, h.LatePayments)
	if err != nil {
		metrics.RecordRepositoryError("write_buyer_history")
		return fmt.Errorf("%w: write buyer history: %v", repository.ErrUnavailable, err)
	}

	return nil
}

// RecordInvoicePayment appends one payment to the seller's ledger.
func (db *DB) RecordInvoicePayment(ctx context.Context, sellerID string, late bool) error {
	defer observe("record_invoice_payment", time.Now())

	_, err := db.pool.Exec(ctx, `
		INSERT INTO invoice_payments (seller_id, late) VALUES ($1, $2)
	`, sellerID, late)
	if err != nil {
		metrics.RecordRepositoryError("record_invoice_payment")
		return fmt.Errorf("%w: record invoice payment: %v", repository.ErrUnavailable, err)
	}

	return nil
}

// WriteScoreAudit persists one score audit record.
func (db *DB) WriteScoreAudit(ctx context.Context, audit model.ScoreAudit) error {
	defer observe("write_score_audit", time.Now())

	_, err := db.pool.Exec(ctx, `
		INSERT INTO score_audits (id, seller_id, buyer_id, invoice_id, amount, score, seller_history_factor, buyer_reputation_factor, invoice_size_factor, penalty_factor, degraded, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`, audit.ID, audit.SellerID, audit.BuyerID, audit.InvoiceID, audit.Amount.String(), audit.Score,
		audit.SellerHistory, audit.BuyerReputation, audit.InvoiceSize, audit.Penalties, audit.Degraded, audit.ComputedAt)
	if err != nil {
		metrics.RecordRepositoryError("write_score_audit")
		return fmt.Errorf("%w: write score audit: %v", repository.ErrUnavailable, err)
	}

	return nil
}

// observe records one repository operation's latency in milliseconds.
func observe(op string, start time.Time) {
	metrics.RecordRepositoryOp(op, float64(time.Since(start).Microseconds())/1000.0)
}
