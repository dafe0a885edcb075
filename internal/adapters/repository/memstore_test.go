package repository_test

import (
	"context"
	"sync"
	"testing"

	repository "github.com/govind-32/TrustFlow/internal/adapters/repository"
	"github.com/govind-32/TrustFlow/internal/domain/model"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStoreHistories(t *testing.T) {
	Convey("Given a memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()

		Convey("When reading an unknown seller", func() {
			_, err := store.SellerHistory(ctx, "seller-x")

			Convey("Then it should report a lookup miss", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When writing and reading back a seller history", func() {
			h := model.SellerHistory{
				TotalInvoices:      3,
				SuccessfulInvoices: 2,
				DefaultedInvoices:  1,
				TotalRaised:        decimal.NewFromInt(250),
				CurrentTrustScore:  72,
			}
			So(store.WriteSellerHistory(ctx, "seller-1", h), ShouldBeNil)

			got, err := store.SellerHistory(ctx, "seller-1")

			Convey("Then the record should round-trip exactly", func() {
				So(err, ShouldBeNil)
				So(got.TotalInvoices, ShouldEqual, 3)
				So(got.SuccessfulInvoices, ShouldEqual, 2)
				So(got.DefaultedInvoices, ShouldEqual, 1)
				So(got.TotalRaised.Equal(decimal.NewFromInt(250)), ShouldBeTrue)
				So(got.CurrentTrustScore, ShouldEqual, 72)
			})
		})

		Convey("When reading an unknown buyer", func() {
			_, err := store.BuyerHistory(ctx, "buyer-x")

			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("When writing and reading back a buyer history", func() {
			h := model.BuyerHistory{ReputationScore: 45, InvoicesPaid: 4, LatePayments: 1}
			So(store.WriteBuyerHistory(ctx, "buyer-1", h), ShouldBeNil)

			got, err := store.BuyerHistory(ctx, "buyer-1")
			So(err, ShouldBeNil)
			So(got.ReputationScore, ShouldEqual, 45)
			So(got.InvoicesPaid, ShouldEqual, 4)
			So(got.LatePayments, ShouldEqual, 1)
		})
	})
}

func TestMemoryStoreLedger(t *testing.T) {
	Convey("Given a memory store ledger", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()

		Convey("When no payments were recorded", func() {
			n, err := store.CountLatePayments(ctx, "seller-1")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
		})

		Convey("When recording on-time and late payments", func() {
			So(store.RecordInvoicePayment(ctx, "seller-1", false), ShouldBeNil)
			So(store.RecordInvoicePayment(ctx, "seller-1", true), ShouldBeNil)
			So(store.RecordInvoicePayment(ctx, "seller-1", true), ShouldBeNil)
			So(store.RecordInvoicePayment(ctx, "seller-2", true), ShouldBeNil)

			Convey("Then only late ones count, per seller", func() {
				n, err := store.CountLatePayments(ctx, "seller-1")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)

				n, err = store.CountLatePayments(ctx, "seller-2")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})
	})
}

func TestMemoryStoreAudits(t *testing.T) {
	Convey("Given a memory store with a small audit ring", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(repository.WithAuditCapacity(2))

		Convey("When writing more audits than the capacity", func() {
			for _, id := range []string{"a", "b", "c"} {
				So(store.WriteScoreAudit(ctx, model.ScoreAudit{ID: id, Score: 50}), ShouldBeNil)
			}

			Convey("Then only the newest records are retained, oldest first", func() {
				audits := store.ScoreAudits()
				So(len(audits), ShouldEqual, 2)
				So(audits[0].ID, ShouldEqual, "b")
				So(audits[1].ID, ShouldEqual, "c")
			})
		})
	})
}

func TestMemoryStoreClose(t *testing.T) {
	Convey("Given a closed memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		So(store.Close(), ShouldBeNil)

		Convey("Then every operation reports the store unavailable", func() {
			_, err := store.SellerHistory(ctx, "s")
			So(err, ShouldEqual, repository.ErrUnavailable)

			_, err = store.BuyerHistory(ctx, "b")
			So(err, ShouldEqual, repository.ErrUnavailable)

			_, err = store.CountLatePayments(ctx, "s")
			So(err, ShouldEqual, repository.ErrUnavailable)

			So(store.WriteSellerHistory(ctx, "s", model.SellerHistory{}), ShouldEqual, repository.ErrUnavailable)
			So(store.WriteBuyerHistory(ctx, "b", model.BuyerHistory{}), ShouldEqual, repository.ErrUnavailable)
			So(store.RecordInvoicePayment(ctx, "s", true), ShouldEqual, repository.ErrUnavailable)
			So(store.WriteScoreAudit(ctx, model.ScoreAudit{}), ShouldEqual, repository.ErrUnavailable)
		})
	})
}

func TestMemoryStoreConcurrency(t *testing.T) {
	Convey("Given concurrent writers on different keys", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(repository.WithShardCount(4))

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				id := string(rune('a' + n))
				_ = store.WriteSellerHistory(ctx, id, model.SellerHistory{TotalInvoices: n})
				_ = store.RecordInvoicePayment(ctx, id, n%2 == 0)
				_, _ = store.SellerHistory(ctx, id)
			}(i)
		}
		wg.Wait()

		Convey("Then all records should be present", func() {
			for i := 0; i < 16; i++ {
				id := string(rune('a' + i))
				h, err := store.SellerHistory(ctx, id)
				So(err, ShouldBeNil)
				So(h.TotalInvoices, ShouldEqual, i)
			}
		})
	})
}
