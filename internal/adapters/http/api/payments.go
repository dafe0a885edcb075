// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// paymentRequest mirrors the request schema for POST /v1/payments.
// SellerID is optional; when present the payment also lands on that
// seller's late-payment ledger.
type paymentRequest struct {
	EventID  string `json:"event_id"`
	BuyerID  string `json:"buyer_id"`
	OnTime   bool   `json:"on_time"`
	SellerID string `json:"seller_id,omitempty"`
}

func (p paymentRequest) validate() error {
	switch {
	case strings.TrimSpace(p.EventID) == "":
		return errors.New("missing event_id")
	case strings.TrimSpace(p.BuyerID) == "":
		return errors.New("missing buyer_id")
	}
	return nil
}

// PaymentsHandler handles buyer payment recording requests.
type PaymentsHandler struct {
	deps Dependencies
}

// NewPaymentsHandler creates a new payments handler.
func NewPaymentsHandler(deps Dependencies) *PaymentsHandler {
	return &PaymentsHandler{deps: deps}
}

// HandlePostPayment handles POST /v1/payments requests.
func (h *PaymentsHandler) HandlePostPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.deps.RecordBuyerPayment(r.Context(), req.EventID, req.BuyerID, req.OnTime, req.SellerID); err != nil {
		writeMutationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ackResponse{Status: "recorded"})
}
