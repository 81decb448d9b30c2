package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "medcost")
				So(manager.subsystem, ShouldEqual, "estimator")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithCostBuckets([]float64{1000, 5000}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "unit")
				So(manager.latencyBuckets, ShouldResemble, []float64{1, 5, 10})
				So(manager.costBuckets, ShouldResemble, []float64{1000, 5000})
			})
		})

		Convey("When empty options are passed", func() {
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "medcost")
				So(manager.latencyBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When estimates are recorded", func() {
			manager.RecordEstimate("simulated", 5225)
			manager.RecordEstimate("simulated", 13063)
			manager.RecordEstimate("model-based", 9999.99)

			Convey("Then they are counted per provenance", func() {
				So(testutil.ToFloat64(manager.estimatesTotal.WithLabelValues("simulated")), ShouldEqual, 2)
				So(testutil.ToFloat64(manager.estimatesTotal.WithLabelValues("model-based")), ShouldEqual, 1)
			})
		})

		Convey("When failures and fallbacks are recorded", func() {
			manager.RecordEstimationFailure("validation")
			manager.RecordFallback()
			manager.RecordFallback()

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(manager.estimationFailures.WithLabelValues("validation")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.fallbacksTotal), ShouldEqual, 2)
			})
		})

		Convey("When predictor availability changes", func() {
			manager.SetPredictorAvailable(true)
			So(testutil.ToFloat64(manager.predictorAvailable), ShouldEqual, 1)
			manager.SetPredictorAvailable(false)
			So(testutil.ToFloat64(manager.predictorAvailable), ShouldEqual, 0)
		})

		Convey("When model loads are recorded", func() {
			manager.RecordModelLoad("failure")
			So(testutil.ToFloat64(manager.modelLoads.WithLabelValues("failure")), ShouldEqual, 1)
		})

		Convey("When a batch runs", func() {
			manager.RecordBatchSize(4)
			manager.RecordWorkerJobLatency(2)

			Convey("Then both histograms are collected", func() {
				So(testutil.CollectAndCount(manager.batchSize), ShouldEqual, 1)
				So(testutil.CollectAndCount(manager.workerJobLatency), ShouldEqual, 1)
			})
		})

		Convey("When HTTP requests are recorded", func() {
			manager.RecordHTTPRequest("/api/v1/estimate", "POST", "200", 3.5)
			manager.RecordErrorByEndpoint("/api/v1/estimate", "POST", "invalid_record")

			Convey("Then the request and error counters move", func() {
				So(testutil.ToFloat64(manager.httpRequests.WithLabelValues("/api/v1/estimate", "POST", "200")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.errorRateByEndpoint.WithLabelValues("/api/v1/estimate", "POST", "invalid_record")), ShouldEqual, 1)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then the package helpers do not panic", func() {
			So(func() {
				RecordEstimate("simulated", 5225)
				RecordEstimationFailure("predictor")
				RecordFallback()
				RecordPredictorLatency(12)
				SetPredictorAvailable(true)
				RecordModelLoad("success")
				RecordBatchSize(3)
				RecordWorkerJobLatency(1)
				RecordHTTPRequest("/healthz", "GET", "200", 1)
				RecordErrorByEndpoint("/api/v1/estimate", "POST", "predictor_error")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(8)
				RecordSystemGCPauseTime(0.5)
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry exposes them", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)

			names := map[string]bool{}
			for _, f := range families {
				names[f.GetName()] = true
			}
			So(names["medcost_estimator_estimates_total"], ShouldBeTrue)
			So(names["medcost_estimator_predictor_available"], ShouldBeTrue)
			So(names["medcost_system_goroutines"], ShouldBeTrue)
		})
	})
}
