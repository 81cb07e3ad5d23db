// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	LaunchesIngested  prometheus.Counter
	LaunchesDuplicate prometheus.Counter
	LaunchesRejected  *prometheus.CounterVec
	OutcomesApplied   prometheus.Counter
	OutcomesDropped   *prometheus.CounterVec
	NetworkLinks      prometheus.Counter

	// Scoring metrics
	WalletsScored     prometheus.Counter
	ScoreDistribution prometheus.Histogram
	ScoringLatency    prometheus.Histogram
	RecomputeRuns     *prometheus.CounterVec
	RecomputeDuration prometheus.Histogram

	// Alerting metrics
	AlertsEmitted    *prometheus.CounterVec
	AlertsSuppressed *prometheus.CounterVec
	AlertsDuplicate  prometheus.Counter
	NotifyFailures   prometheus.Counter

	// Store metrics
	StoreQueryDuration *prometheus.HistogramVec
	StoreQueryErrors   *prometheus.CounterVec

	// Feed metrics
	FeedMessages    *prometheus.CounterVec
	FeedDecodeError *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "anubis_watch"
	}

	return &Metrics{
		LaunchesIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "launches_ingested_total",
			Help:      "Total number of launch events accepted into profiles",
		}),
		LaunchesDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "launches_duplicate_total",
			Help:      "Total number of launch events rejected as duplicate mints",
		}),
		LaunchesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "launches_rejected_total",
			Help:      "Total number of launch events rejected by reason",
		}, []string{"reason"}),
		OutcomesApplied: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "outcomes_applied_total",
			Help:      "Total number of token outcomes applied to profiles",
		}),
		OutcomesDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "outcomes_dropped_total",
			Help:      "Total number of token outcomes dropped by reason",
		}, []string{"reason"}),
		NetworkLinks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "network_links_total",
			Help:      "Total number of network link upserts",
		}),

		WalletsScored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "wallets_scored_total",
			Help:      "Total number of scoring passes",
		}),
		ScoreDistribution: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "anubis_score",
			Help:      "Distribution of computed composite scores",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		ScoringLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "latency_seconds",
			Help:      "Scoring pass latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		RecomputeRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "recompute_runs_total",
			Help:      "Total number of rolling-window recompute runs by status",
		}, []string{"status"}),
		RecomputeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "recompute_duration_seconds",
			Help:      "Rolling-window recompute duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),

		AlertsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerting",
			Name:      "alerts_emitted_total",
			Help:      "Total number of alerts persisted by level",
		}, []string{"level"}),
		AlertsSuppressed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerting",
			Name:      "alerts_suppressed_total",
			Help:      "Total number of alert decisions suppressed by reason",
		}, []string{"reason"}),
		AlertsDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerting",
			Name:      "alerts_duplicate_total",
			Help:      "Total number of alerts dropped as duplicates for a (wallet, mint) pair",
		}),
		NotifyFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerting",
			Name:      "notify_failures_total",
			Help:      "Total number of notifier deliveries that exhausted retries",
		}),

		StoreQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "query_duration_seconds",
			Help:      "Store query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store", "operation"}),
		StoreQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "query_errors_total",
			Help:      "Total number of store query errors",
		}, []string{"store", "operation"}),

		FeedMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "messages_total",
			Help:      "Total number of feed messages received by type",
		}, []string{"type"}),
		FeedDecodeError: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "decode_errors_total",
			Help:      "Total number of feed messages that failed to decode",
		}, []string{"type"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordLaunchIngested increments the launches ingested counter.
func RecordLaunchIngested() {
	DefaultMetrics.LaunchesIngested.Inc()
}

// RecordLaunchDuplicate increments the duplicate launches counter.
func RecordLaunchDuplicate() {
	DefaultMetrics.LaunchesDuplicate.Inc()
}

// RecordLaunchRejected records a rejected launch event.
func RecordLaunchRejected(reason string) {
	DefaultMetrics.LaunchesRejected.WithLabelValues(reason).Inc()
}

// RecordNetworkLink increments the network link upsert counter.
func RecordNetworkLink() {
	DefaultMetrics.NetworkLinks.Inc()
}

// RecordOutcomeApplied increments the outcomes applied counter.
func RecordOutcomeApplied() {
	DefaultMetrics.OutcomesApplied.Inc()
}

// RecordOutcomeDropped records a dropped outcome.
func RecordOutcomeDropped(reason string) {
	DefaultMetrics.OutcomesDropped.WithLabelValues(reason).Inc()
}

// RecordScore records one scoring pass and its composite value.
func RecordScore(anubisScore float64, seconds float64) {
	DefaultMetrics.WalletsScored.Inc()
	DefaultMetrics.ScoreDistribution.Observe(anubisScore)
	DefaultMetrics.ScoringLatency.Observe(seconds)
}

// RecordRecompute records a rolling-window recompute run.
func RecordRecompute(status string, seconds float64) {
	DefaultMetrics.RecomputeRuns.WithLabelValues(status).Inc()
	DefaultMetrics.RecomputeDuration.Observe(seconds)
}

// RecordAlertEmitted records a persisted alert.
func RecordAlertEmitted(level string) {
	DefaultMetrics.AlertsEmitted.WithLabelValues(level).Inc()
}

// RecordAlertSuppressed records a suppressed alert decision.
func RecordAlertSuppressed(reason string) {
	DefaultMetrics.AlertsSuppressed.WithLabelValues(reason).Inc()
}

// RecordAlertDuplicate increments the duplicate alert counter.
func RecordAlertDuplicate() {
	DefaultMetrics.AlertsDuplicate.Inc()
}

// RecordNotifyFailure increments the notifier failure counter.
func RecordNotifyFailure() {
	DefaultMetrics.NotifyFailures.Inc()
}

// RecordStoreQuery records store query metrics.
func RecordStoreQuery(store, operation string, seconds float64, err error) {
	DefaultMetrics.StoreQueryDuration.WithLabelValues(store, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.StoreQueryErrors.WithLabelValues(store, operation).Inc()
	}
}

// RecordFeedMessage records a received feed message.
func RecordFeedMessage(msgType string) {
	DefaultMetrics.FeedMessages.WithLabelValues(msgType).Inc()
}

// RecordFeedDecodeError records a feed decode failure.
func RecordFeedDecodeError(msgType string) {
	DefaultMetrics.FeedDecodeError.WithLabelValues(msgType).Inc()
}
