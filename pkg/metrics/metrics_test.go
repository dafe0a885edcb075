package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with empty or nil option values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults should hold and creation should succeed", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording scoring metrics", func() {
			So(func() {
				RecordScoreComputed()
				RecordScoreDegraded()
				RecordScoringDuration(1.5)
				RecordScoringDuration(0.0)
			}, ShouldNotPanic)
		})

		Convey("When recording mutation metrics", func() {
			So(func() {
				RecordSettlement(true)
				RecordSettlement(false)
				RecordBuyerPayment(true)
				RecordBuyerPayment(false)
			}, ShouldNotPanic)
		})

		Convey("When recording audit metrics", func() {
			So(func() {
				RecordAuditWritten()
				RecordAuditDropped()
				UpdateAuditQueueSize(10)
				UpdateAuditQueueSize(0)
				UpdateAuditWorkerCount(4)
			}, ShouldNotPanic)
		})

		Convey("When recording repository metrics", func() {
			So(func() {
				RecordRepositoryOp("seller_history", 2.0)
				RecordRepositoryOp("write_seller_history", 3.0)
				RecordRepositoryError("buyer_history")
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("scores", "POST", "200")
				RecordHTTPRequestDuration("scores", "POST", "200", 12.5)
				RecordHTTPRequest("", "", "500")
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent metric recording", t, func() {
		done := make(chan bool, 10)

		for i := 0; i < 10; i++ {
			go func() {
				for j := 0; j < 100; j++ {
					RecordScoreComputed()
					UpdateAuditQueueSize(j)
					RecordScoringDuration(float64(j))
					RecordHTTPRequest("scores", "POST", "200")
				}
				done <- true
			}()
		}

		for i := 0; i < 10; i++ {
			<-done
		}

		Convey("Then concurrent access should not panic", func() {
			So(true, ShouldBeTrue)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the package registry", t, func() {
		Convey("When fetching it", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
