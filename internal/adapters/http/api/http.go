// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	service "github.com/govind-32/TrustFlow/internal/app"
	"github.com/govind-32/TrustFlow/internal/domain/model"
	"github.com/govind-32/TrustFlow/internal/domain/trust"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ComputeScore(ctx context.Context, in trust.ScoreInput) (trust.Score, error)
	ScoreInvoice(ctx context.Context, invoiceID string, in trust.ScoreInput) (service.InvoiceScore, error)
	RecordSettlement(ctx context.Context, eventID, sellerID string, amount decimal.Decimal, succeeded bool) (int, error)
	RecordBuyerPayment(ctx context.Context, eventID, buyerID string, onTime bool, sellerID string) error
	SellerStats(ctx context.Context, sellerID string) (model.SellerHistory, error)
	BuyerStats(ctx context.Context, buyerID string) (model.BuyerHistory, error)

	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	scoresHandler     *ScoresHandler
	settlementHandler *SettlementsHandler
	paymentsHandler   *PaymentsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps),
		scoresHandler:     NewScoresHandler(deps),
		settlementHandler: NewSettlementsHandler(deps),
		paymentsHandler:   NewPaymentsHandler(deps),
	}
}

// Router builds the chi router with all routes attached.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/scores", MetricsMiddleware(s.scoresHandler.HandlePostScore, "scores"))
		r.Post("/settlements", MetricsMiddleware(s.settlementHandler.HandlePostSettlement, "settlements"))
		r.Post("/payments", MetricsMiddleware(s.paymentsHandler.HandlePostPayment, "payments"))
		r.Get("/sellers/{id}/stats", MetricsMiddleware(s.statsHandler.HandleSellerStats, "seller_stats"))
		r.Get("/buyers/{id}/stats", MetricsMiddleware(s.statsHandler.HandleBuyerStats, "buyer_stats"))
	})

	return r
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	Score     *int   `json:"score,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
