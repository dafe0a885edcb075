// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/govind-32/TrustFlow/internal/domain/trust"
)

// scoreRequest mirrors the request schema for POST /v1/scores. InvoiceID
// is optional; when present the response carries the invoice trust hash.
type scoreRequest struct {
	SellerID  string          `json:"seller_id"`
	BuyerID   string          `json:"buyer_id,omitempty"`
	InvoiceID string          `json:"invoice_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
}

func (s scoreRequest) validate() error {
	switch {
	case strings.TrimSpace(s.SellerID) == "":
		return errors.New("missing seller_id")
	case !s.Amount.IsPositive():
		return errors.New("amount must be positive")
	}
	return nil
}

type scoreResponse struct {
	Score     int             `json:"score"`
	Breakdown trust.Breakdown `json:"breakdown"`
	InvoiceID string          `json:"invoice_id,omitempty"`
	TrustHash string          `json:"trust_hash,omitempty"`
}

// ScoresHandler handles score computation requests.
type ScoresHandler struct {
	deps Dependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps Dependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// HandlePostScore handles POST /v1/scores requests.
func (h *ScoresHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	in := trust.ScoreInput{
		SellerID: req.SellerID,
		BuyerID:  req.BuyerID,
		Amount:   req.Amount,
	}

	if req.InvoiceID != "" {
		result, err := h.deps.ScoreInvoice(r.Context(), req.InvoiceID, in)
		if err != nil {
			writeScoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, scoreResponse{
			Score:     result.Score.Value,
			Breakdown: result.Score.Breakdown,
			InvoiceID: result.InvoiceID,
			TrustHash: result.TrustHash,
		})
		return
	}

	score, err := h.deps.ComputeScore(r.Context(), in)
	if err != nil {
		writeScoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{
		Score:     score.Value,
		Breakdown: score.Breakdown,
	})
}

func writeScoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, trust.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}
