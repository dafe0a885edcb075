// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

type sellerStatsResponse struct {
	SellerID           string          `json:"seller_id"`
	TotalInvoices      int             `json:"total_invoices"`
	SuccessfulInvoices int             `json:"successful_invoices"`
	DefaultedInvoices  int             `json:"defaulted_invoices"`
	TotalRaised        decimal.Decimal `json:"total_raised"`
	CurrentTrustScore  int             `json:"current_trust_score"`
}

type buyerStatsResponse struct {
	BuyerID           string `json:"buyer_id"`
	ReputationScore   int    `json:"reputation_score"`
	InvoicesConfirmed int    `json:"invoices_confirmed"`
	InvoicesPaid      int    `json:"invoices_paid"`
	LatePayments      int    `json:"late_payments"`
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	deps Dependencies
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(deps Dependencies) *StatsHandler {
	return &StatsHandler{deps: deps}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.GetStats())
}

// HandleSellerStats handles GET /v1/sellers/{id}/stats requests.
func (h *StatsHandler) HandleSellerStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	stats, err := h.deps.SellerStats(r.Context(), id)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sellerStatsResponse{
		SellerID:           id,
		TotalInvoices:      stats.TotalInvoices,
		SuccessfulInvoices: stats.SuccessfulInvoices,
		DefaultedInvoices:  stats.DefaultedInvoices,
		TotalRaised:        stats.TotalRaised,
		CurrentTrustScore:  stats.CurrentTrustScore,
	})
}

// HandleBuyerStats handles GET /v1/buyers/{id}/stats requests.
func (h *StatsHandler) HandleBuyerStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	stats, err := h.deps.BuyerStats(r.Context(), id)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, buyerStatsResponse{
		BuyerID:           id,
		ReputationScore:   stats.ReputationScore,
		InvoicesConfirmed: stats.InvoicesConfirmed,
		InvoicesPaid:      stats.InvoicesPaid,
		LatePayments:      stats.LatePayments,
	})
}
