// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/govind-32/TrustFlow/internal/adapters/repository"
	service "github.com/govind-32/TrustFlow/internal/app"
	"github.com/govind-32/TrustFlow/internal/domain/trust"
)

// settlementRequest mirrors the request schema for POST /v1/settlements.
// EventID keys the idempotency guard.
type settlementRequest struct {
	EventID   string          `json:"event_id"`
	SellerID  string          `json:"seller_id"`
	Amount    decimal.Decimal `json:"amount"`
	Succeeded bool            `json:"succeeded"`
}

func (s settlementRequest) validate() error {
	switch {
	case strings.TrimSpace(s.EventID) == "":
		return errors.New("missing event_id")
	case strings.TrimSpace(s.SellerID) == "":
		return errors.New("missing seller_id")
	case !s.Amount.IsPositive():
		return errors.New("amount must be positive")
	}
	return nil
}

// SettlementsHandler handles settlement recording requests.
type SettlementsHandler struct {
	deps Dependencies
}

// NewSettlementsHandler creates a new settlements handler.
func NewSettlementsHandler(deps Dependencies) *SettlementsHandler {
	return &SettlementsHandler{deps: deps}
}

// HandlePostSettlement handles POST /v1/settlements requests.
func (h *SettlementsHandler) HandlePostSettlement(w http.ResponseWriter, r *http.Request) {
	var req settlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	score, err := h.deps.RecordSettlement(r.Context(), req.EventID, req.SellerID, req.Amount, req.Succeeded)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ackResponse{Status: "recorded", Score: &score})
}

// writeMutationError maps settlement and payment failures onto status
// codes: duplicates acknowledge with 200, store outages are retriable
// with 503.
func writeMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrDuplicateEvent):
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
	case errors.Is(err, trust.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
