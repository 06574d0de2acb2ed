// Package metrics exposes the prometheus collectors used across the app.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReportDuration tracks how long each report build takes.
	ReportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "couponhub",
			Subsystem: "reports",
			Name:      "duration_seconds",
			Help:      "Duration of report builds in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"report", "status"}, // status: success or failure
	)

	// FanOutReads counts secondary and tertiary reads issued by reports.
	FanOutReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "couponhub",
			Subsystem: "reports",
			Name:      "fanout_reads_total",
			Help:      "Number of per-item reads issued while building reports",
		},
		[]string{"kind"},
	)

	// ActiveSubscriptions is the number of open realtime subscriptions.
	ActiveSubscriptions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "couponhub",
			Subsystem: "realtime",
			Name:      "active_subscriptions",
			Help:      "Open realtime subscriptions by feed",
		},
		[]string{"feed"},
	)

	// SnapshotReloads counts snapshot reloads triggered by change events.
	SnapshotReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "couponhub",
			Subsystem: "realtime",
			Name:      "snapshot_reloads_total",
			Help:      "Snapshot reloads by feed and status",
		},
		[]string{"feed", "status"},
	)

	// SignIns counts sign-in attempts by outcome.
	SignIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "couponhub",
			Subsystem: "account",
			Name:      "sign_ins_total",
			Help:      "Sign-in attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordReport records the duration of one report build.
func RecordReport(report string, err error, seconds float64) {
	ReportDuration.WithLabelValues(report, status(err)).Observe(seconds)
}

// RecordFanOut counts one per-item read.
func RecordFanOut(kind string) {
	FanOutReads.WithLabelValues(kind).Inc()
}

// RecordReload counts one snapshot reload.
func RecordReload(feed string, err error) {
	SnapshotReloads.WithLabelValues(feed, status(err)).Inc()
}

// RecordSignIn counts one sign-in attempt.
func RecordSignIn(outcome string) {
	SignIns.WithLabelValues(outcome).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
