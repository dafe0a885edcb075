package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/govind-32/TrustFlow/internal/adapters/http/api"
	"github.com/govind-32/TrustFlow/internal/adapters/repository"
	service "github.com/govind-32/TrustFlow/internal/app"
	"github.com/govind-32/TrustFlow/internal/domain/model"
	"github.com/govind-32/TrustFlow/internal/domain/trust"
	"github.com/govind-32/TrustFlow/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDeps is a scripted Dependencies implementation.
type mockDeps struct {
	score          trust.Score
	scoreErr       error
	invoiceScore   service.InvoiceScore
	settleScore    int
	settleErr      error
	paymentErr     error
	sellerStats    model.SellerHistory
	buyerStats     model.BuyerHistory
	statsErr       error
	lastSettlement struct {
		eventID  string
		sellerID string
	}
	lastPayment struct {
		eventID  string
		buyerID  string
		sellerID string
		onTime   bool
	}
}

func (m *mockDeps) ComputeScore(ctx context.Context, in trust.ScoreInput) (trust.Score, error) {
	return m.score, m.scoreErr
}

func (m *mockDeps) ScoreInvoice(ctx context.Context, invoiceID string, in trust.ScoreInput) (service.InvoiceScore, error) {
	if m.scoreErr != nil {
		return service.InvoiceScore{}, m.scoreErr
	}
	out := m.invoiceScore
	out.InvoiceID = invoiceID
	return out, nil
}

func (m *mockDeps) RecordSettlement(ctx context.Context, eventID, sellerID string, amount decimal.Decimal, succeeded bool) (int, error) {
	m.lastSettlement.eventID = eventID
	m.lastSettlement.sellerID = sellerID
	return m.settleScore, m.settleErr
}

func (m *mockDeps) RecordBuyerPayment(ctx context.Context, eventID, buyerID string, onTime bool, sellerID string) error {
	m.lastPayment.eventID = eventID
	m.lastPayment.buyerID = buyerID
	m.lastPayment.sellerID = sellerID
	m.lastPayment.onTime = onTime
	return m.paymentErr
}

func (m *mockDeps) SellerStats(ctx context.Context, sellerID string) (model.SellerHistory, error) {
	return m.sellerStats, m.statsErr
}

func (m *mockDeps) BuyerStats(ctx context.Context, buyerID string) (model.BuyerHistory, error) {
	return m.buyerStats, m.statsErr
}

func (m *mockDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestServer(deps api.Dependencies) *httptest.Server {
	return httptest.NewServer(api.NewServer(deps).Router())
}

func postJSON(ts *httptest.Server, path, body string) (*http.Response, error) {
	return http.Post(ts.URL+path, "application/json", strings.NewReader(body))
}

func TestPostScore(t *testing.T) {
	Convey("Given a server with a healthy engine", t, func() {
		deps := &mockDeps{
			score: trust.Score{
				Value: 87,
				Breakdown: trust.Breakdown{
					SellerHistory:   32,
					BuyerReputation: 12.5,
					InvoiceSize:     15,
					Penalties:       10,
				},
			},
			invoiceScore: service.InvoiceScore{
				Score:     trust.Score{Value: 87},
				TrustHash: "deadbeef",
			},
		}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When posting a valid score request", func() {
			resp, err := postJSON(ts, "/v1/scores",
				`{"seller_id":"seller-1","buyer_id":"buyer-1","amount":"1500"}`)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should return the score and breakdown", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var body struct {
					Score     int             `json:"score"`
					Breakdown trust.Breakdown `json:"breakdown"`
					TrustHash string          `json:"trust_hash"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body.Score, ShouldEqual, 87)
				So(body.Breakdown.SellerHistory, ShouldEqual, 32)
				So(body.TrustHash, ShouldBeEmpty)
			})
		})

		Convey("When posting with an invoice id", func() {
			resp, err := postJSON(ts, "/v1/scores",
				`{"seller_id":"seller-1","invoice_id":"inv-7","amount":"1500"}`)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should include the trust hash", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var body struct {
					InvoiceID string `json:"invoice_id"`
					TrustHash string `json:"trust_hash"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body.InvoiceID, ShouldEqual, "inv-7")
				So(body.TrustHash, ShouldEqual, "deadbeef")
			})
		})

		Convey("When the seller id is missing", func() {
			resp, err := postJSON(ts, "/v1/scores", `{"amount":"1500"}`)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should reject with 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the amount is not positive", func() {
			resp, err := postJSON(ts, "/v1/scores", `{"seller_id":"s","amount":"0"}`)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should reject with 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the body is not JSON", func() {
			resp, err := postJSON(ts, "/v1/scores", `not json`)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should reject with 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the engine rejects the input", func() {
			deps.scoreErr = trust.ErrInvalidInput

			resp, err := postJSON(ts, "/v1/scores", `{"seller_id":"s","amount":"10"}`)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should reject with 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestPostSettlement(t *testing.T) {
	Convey("Given a server", t, func() {
		deps := &mockDeps{settleScore: 92}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When posting a valid settlement", func() {
			resp, err := postJSON(ts, "/v1/settlements",
				`{"event_id":"evt-1","seller_id":"seller-1","amount":"2000","succeeded":true}`)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should record and return the new score", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var body struct {
					Status string `json:"status"`
					Score  *int   `json:"score"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body.Status, ShouldEqual, "recorded")
				So(*body.Score, ShouldEqual, 92)
				So(deps.lastSettlement.eventID, ShouldEqual, "evt-1")
				So(deps.lastSettlement.sellerID, ShouldEqual, "seller-1")
			})
		})

		Convey("When the event id is missing", func() {
			resp, err := postJSON(ts, "/v1/settlements",
				`{"seller_id":"seller-1","amount":"2000","succeeded":true}`)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should reject with 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the event is a duplicate", func() {
			deps.settleErr = service.ErrDuplicateEvent

			resp, err := postJSON(ts, "/v1/settlements",
				`{"event_id":"evt-1","seller_id":"seller-1","amount":"2000","succeeded":true}`)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should acknowledge the duplicate", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var body struct {
					Status    string `json:"status"`
					Duplicate bool   `json:"duplicate"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body.Status, ShouldEqual, "duplicate")
				So(body.Duplicate, ShouldBeTrue)
			})
		})

		Convey("When the store is unavailable", func() {
			deps.settleErr = repository.ErrUnavailable

			resp, err := postJSON(ts, "/v1/settlements",
				`{"event_id":"evt-2","seller_id":"seller-1","amount":"2000","succeeded":true}`)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should return 503", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})
}

func TestPostPayment(t *testing.T) {
	Convey("Given a server", t, func() {
		deps := &mockDeps{}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When posting a valid payment", func() {
			resp, err := postJSON(ts, "/v1/payments",
				`{"event_id":"pay-1","buyer_id":"buyer-1","on_time":false,"seller_id":"seller-1"}`)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should record the payment", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(deps.lastPayment.eventID, ShouldEqual, "pay-1")
				So(deps.lastPayment.buyerID, ShouldEqual, "buyer-1")
				So(deps.lastPayment.sellerID, ShouldEqual, "seller-1")
				So(deps.lastPayment.onTime, ShouldBeFalse)
			})
		})

		Convey("When the buyer id is missing", func() {
			resp, err := postJSON(ts, "/v1/payments", `{"event_id":"pay-2","on_time":true}`)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should reject with 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the event is a duplicate", func() {
			deps.paymentErr = service.ErrDuplicateEvent

			resp, err := postJSON(ts, "/v1/payments",
				`{"event_id":"pay-1","buyer_id":"buyer-1","on_time":true}`)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should acknowledge the duplicate", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var body struct {
					Duplicate bool `json:"duplicate"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body.Duplicate, ShouldBeTrue)
			})
		})
	})
}

func TestGetStats(t *testing.T) {
	Convey("Given a server with known stats", t, func() {
		deps := &mockDeps{
			sellerStats: model.SellerHistory{
				TotalInvoices:      12,
				SuccessfulInvoices: 10,
				DefaultedInvoices:  2,
				TotalRaised:        decimal.NewFromInt(48_000),
				CurrentTrustScore:  88,
			},
			buyerStats: model.BuyerHistory{
				ReputationScore: 45,
				InvoicesPaid:    7,
				LatePayments:    1,
			},
		}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When requesting seller stats", func() {
			resp, err := http.Get(ts.URL + "/v1/sellers/seller-1/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should return the history", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var body struct {
					SellerID          string `json:"seller_id"`
					TotalInvoices     int    `json:"total_invoices"`
					CurrentTrustScore int    `json:"current_trust_score"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body.SellerID, ShouldEqual, "seller-1")
				So(body.TotalInvoices, ShouldEqual, 12)
				So(body.CurrentTrustScore, ShouldEqual, 88)
			})
		})

		Convey("When requesting buyer stats", func() {
			resp, err := http.Get(ts.URL + "/v1/buyers/buyer-1/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should return the history", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var body struct {
					BuyerID         string `json:"buyer_id"`
					ReputationScore int    `json:"reputation_score"`
					LatePayments    int    `json:"late_payments"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body.BuyerID, ShouldEqual, "buyer-1")
				So(body.ReputationScore, ShouldEqual, 45)
				So(body.LatePayments, ShouldEqual, 1)
			})
		})

		Convey("When requesting service stats", func() {
			resp, err := http.Get(ts.URL + "/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should return the stats map", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var body map[string]interface{}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body["started"], ShouldEqual, true)
			})
		})
	})
}

func TestHealthz(t *testing.T) {
	Convey("Given a server", t, func() {
		ts := newTestServer(&mockDeps{})
		defer ts.Close()

		Convey("When requesting the health endpoint", func() {
			resp, err := http.Get(ts.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should serve the metrics registry", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestMethodRouting(t *testing.T) {
	Convey("Given a server", t, func() {
		ts := newTestServer(&mockDeps{})
		defer ts.Close()

		Convey("When using GET on a POST-only route", func() {
			resp, err := http.Get(ts.URL + "/v1/scores")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the router rejects the method", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}
