package metrics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a dedicated registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			So(manager, ShouldNotBeNil)
			So(manager.namespace, ShouldEqual, "mimicoo")
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithRefreshInterval(time.Second),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.levelUps.Inc()

			Convey("Then collectors carry the configured names and labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_level_ups_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
				So(manager.refreshInterval, ShouldEqual, time.Second)
			})
		})

		Convey("When options carry zero values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(-time.Second),
				WithConstLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "mimicoo")
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestRecordAnalysis(t *testing.T) {
	Convey("Given the global manager", t, func() {
		before := testutil.ToFloat64(globalManager.analyses.WithLabelValues(SourceFallbackNetwork))

		Convey("When recording a known source", func() {
			So(RecordAnalysis(SourceFallbackNetwork, 12), ShouldBeNil)
			So(testutil.ToFloat64(globalManager.analyses.WithLabelValues(SourceFallbackNetwork)), ShouldEqual, before+1)
		})

		Convey("When recording an unknown source", func() {
			So(RecordAnalysis("guess", 1), ShouldEqual, ErrUnknownAnalysisSource)
		})
	})
}

func TestGamificationCounters(t *testing.T) {
	Convey("Given gamification counters", t, func() {
		points := testutil.ToFloat64(globalManager.pointsAwarded)
		levels := testutil.ToFloat64(globalManager.levelUps)

		RecordPoints(150)
		RecordPoints(0)
		RecordPoints(-5)
		RecordLevelUps(2)
		RecordLevelUps(0)
		RecordAchievementUnlocked("first_practice")

		So(testutil.ToFloat64(globalManager.pointsAwarded), ShouldEqual, points+150)
		So(testutil.ToFloat64(globalManager.levelUps), ShouldEqual, levels+2)
		So(testutil.ToFloat64(globalManager.achievementsUnlocked.WithLabelValues("first_practice")), ShouldBeGreaterThanOrEqualTo, 1)
	})
}

func TestOperationalRecorders(t *testing.T) {
	Convey("Given operational recorders", t, func() {
		So(func() {
			RecordAnalysisDuplicate()
			RecordRecordingStarted()
			RecordPermissionDenied()
			UpdateActiveSessions(3)
			RecordUploadProcessed()
			RecordReportRendered()
			RecordRiskPercentage("Hearing Impairment", 9)
			RecordInferenceRequest("analyze", "success", 420)
			RecordInferenceRetry()
			UpdateWSConnections(1)
			UpdateWSConnections(-1)
			RecordWSFrame("status")
			UpdateQueueSize(2)
			UpdateQueueCapacity(64)
			RecordQueueEnqueue()
			RecordQueueDequeue()
			RecordQueueEnqueueError()
			UpdateWorkerCount(4)
			UpdateWorkerActive(1)
			UpdateWorkerActive(-1)
			RecordWorkerProcessingLatency(30)
			RecordWorkerError()
			RecordHTTPRequest("/healthz", "GET", "200")
			RecordHTTPRequestDuration("/healthz", "GET", "200", 1.5)
			RecordError("inference", "rate_limited")
		}, ShouldNotPanic)

		So(testutil.ToFloat64(globalManager.activeSessions), ShouldEqual, 3)
		So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 64)
	})
}

func TestRuntimeSampler(t *testing.T) {
	Convey("Given a manager with a short refresh interval", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(WithPrometheusRegistry(registry), WithRefreshInterval(5*time.Millisecond))
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		manager.RunRuntimeSampler(ctx)

		Convey("Then runtime gauges are populated", func() {
			So(testutil.ToFloat64(manager.systemGoroutineCount), ShouldBeGreaterThan, 0)
			So(testutil.ToFloat64(manager.systemMemoryUsage), ShouldBeGreaterThan, 0)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		RecordReportRendered()
		families, err := GetRegistry().Gather()
		So(err, ShouldBeNil)

		names := make([]string, 0, len(families))
		for _, f := range families {
			names = append(names, f.GetName())
		}
		So(strings.Join(names, ","), ShouldContainSubstring, "mimicoo_backend_reports_rendered_total")
	})
}
