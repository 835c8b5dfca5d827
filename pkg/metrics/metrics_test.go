package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func gatherValues(reg *prometheus.Registry) map[string]float64 {
	out := map[string]float64{}
	families, err := reg.Gather()
	So(err, ShouldBeNil)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				out[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				out[mf.GetName()] += float64(m.GetHistogram().GetSampleCount())
			case m.GetGauge() != nil:
				out[mf.GetName()] += m.GetGauge().GetValue()
			}
		}
	}
	return out
}

func TestManagerCreation(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(WithPrometheusRegistry(registry))

		Convey("Then it is created with the default names", func() {
			So(manager, ShouldNotBeNil)
			So(manager.namespace, ShouldEqual, "swinglab")
			So(manager.subsystem, ShouldEqual, "analysis")
		})

		Convey("When domain events are recorded", func() {
			manager.RecordAnalysis("complete")
			manager.RecordAnalysis("complete")
			manager.RecordAnalysis("failed")
			manager.RecordImpact("auto", 0.1, true)
			manager.RecordImpact("manual", 1, false)
			manager.RecordBarrel("mlb", true)

			Convey("Then the counters reflect them", func() {
				v := gatherValues(registry)
				So(v["swinglab_analysis_analyses_total"], ShouldEqual, 3)
				So(v["swinglab_analysis_impact_detections_total"], ShouldEqual, 2)
				So(v["swinglab_analysis_impact_fallback_total"], ShouldEqual, 1)
				So(v["swinglab_analysis_impact_confidence"], ShouldEqual, 2)
				So(v["swinglab_analysis_barrel_classifications_total"], ShouldEqual, 1)
			})
		})
	})

	Convey("Given custom options", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(
			WithNamespace("test_ns"),
			WithSubsystem("swing"),
			WithHistogramBuckets([]float64{1, 10}),
			WithPrometheusRegistry(registry),
		)
		manager.RecordImpact("auto", 0.9, true)

		Convey("Then metric names use them", func() {
			v := gatherValues(registry)
			So(v["test_ns_swing_impact_fallback_total"], ShouldEqual, 1)
			So(manager.histogramBuckets, ShouldResemble, []float64{1, 10})
		})
	})

	Convey("Given empty option values", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

		Convey("Then defaults are kept", func() {
			So(manager.namespace, ShouldEqual, "swinglab")
			So(manager.subsystem, ShouldEqual, "analysis")
			So(manager.histogramBuckets, ShouldResemble, defaultLatencyBuckets)
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given a reconfigured package manager", t, func() {
		Configure(WithNamespace("cb"), WithSubsystem("swing"), WithHistogramBuckets([]float64{1, 2}))
		defer Configure()

		RecordAnalysisDuplicate()
		RecordStageLatency("scoring", 1.5)

		Convey("Then the recorders write under the new names", func() {
			v := gatherValues(GetRegistry())
			So(v["cb_swing_analyses_duplicate_total"], ShouldEqual, 1)
			So(v["cb_swing_stage_latency_milliseconds"], ShouldEqual, 1)
			So(v, ShouldNotContainKey, "swinglab_analysis_analyses_duplicate_total")
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then every recorder accepts values without panicking", func() {
			So(func() {
				RecordAnalysis("complete")
				RecordAnalysisDuplicate()
				RecordImpact("auto", 0.75, false)
				RecordStageLatency("detecting", 12)
				RecordBarrel("hs", false)
				RecordSnapshotCreated("csv")
				RecordTimingValidationFailure()
				RecordHTTPRequest("/swings", "POST", "202")
				RecordHTTPRequestDuration("/swings", "POST", "202", 3.5)
				RecordRepositoryLatency("save_snapshot", 1.2)
				UpdateQueueSize(3)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.03)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerActiveCount(4)
				RecordWorkerProcessingLatency(40)
				RecordWorkerError()
				RecordErrorByComponent("worker", "impact")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)
		})

		Convey("And the custom registry exposes them", func() {
			RecordSnapshotCreated("json")
			v := gatherValues(GetRegistry())
			So(v["swinglab_analysis_snapshots_created_total"], ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given concurrent recorders", t, func() {
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordAnalysis("complete")
					UpdateQueueSize(j)
					RecordStageLatency("scoring", float64(j))
					RecordHTTPRequest("/barrel", "POST", "200")
				}
			}(i)
		}
		wg.Wait()
		So(true, ShouldBeTrue)
	})
}
