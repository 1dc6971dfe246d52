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
	// Collection metrics
	PoolsMatched      prometheus.Gauge
	RecordsCollected  prometheus.Counter
	RecordsDropped    *prometheus.CounterVec
	APICallLatency    *prometheus.HistogramVec
	APICallErrors     *prometheus.CounterVec

	// Analysis metrics
	PoolsNormalized    prometheus.Counter
	PoolsSkipped       *prometheus.CounterVec
	DecisionsComputed  prometheus.Counter
	UndefinedDates     *prometheus.CounterVec
	AnalysisRunsTotal  *prometheus.CounterVec
	AnalysisDuration   *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulCollection prometheus.Gauge
	LastSuccessfulAnalysis   prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "defi_yield_lab"
	}

	return &Metrics{
		// Collection metrics
		PoolsMatched: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collection",
			Name:      "pools_matched",
			Help:      "Number of pools matched by the universe filter in the last run",
		}),
		RecordsCollected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collection",
			Name:      "records_collected_total",
			Help:      "Total number of daily records collected",
		}),
		RecordsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collection",
			Name:      "records_dropped_total",
			Help:      "Total number of malformed records dropped by reason",
		}, []string{"reason"}),
		APICallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "defillama",
			Name:      "api_call_latency_seconds",
			Help:      "DefiLlama API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		APICallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "defillama",
			Name:      "api_call_errors_total",
			Help:      "Total number of failed DefiLlama API calls",
		}, []string{"endpoint"}),

		// Analysis metrics
		PoolsNormalized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "pools_normalized_total",
			Help:      "Total number of pool series normalized",
		}),
		PoolsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "pools_skipped_total",
			Help:      "Total number of pools skipped by reason",
		}, []string{"reason"}),
		DecisionsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "decisions_computed_total",
			Help:      "Total number of allocation decisions computed",
		}),
		UndefinedDates: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "undefined_dates_total",
			Help:      "Total number of dates with no defined aggregate or decision",
		}, []string{"metric"}),
		AnalysisRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total number of analysis runs by status",
		}, []string{"status"}),
		AnalysisDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Analysis stage duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"stage"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulCollection: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_collection_timestamp",
			Help:      "Unix timestamp of last successful collection run",
		}),
		LastSuccessfulAnalysis: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_analysis_timestamp",
			Help:      "Unix timestamp of last successful analysis run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordDropped records a malformed record dropped during normalization.
func RecordDropped(reason string) {
	DefaultMetrics.RecordsDropped.WithLabelValues(reason).Inc()
}

// RecordAPICall records an API call's latency, and its failure if any.
func RecordAPICall(endpoint string, seconds float64, err error) {
	DefaultMetrics.APICallLatency.WithLabelValues(endpoint).Observe(seconds)
	if err != nil {
		DefaultMetrics.APICallErrors.WithLabelValues(endpoint).Inc()
	}
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordAnalysisRun records an analysis run outcome.
func RecordAnalysisRun(status string) {
	DefaultMetrics.AnalysisRunsTotal.WithLabelValues(status).Inc()
}

// RecordUndefinedDate records a date whose aggregate or decision is undefined.
func RecordUndefinedDate(metric string) {
	DefaultMetrics.UndefinedDates.WithLabelValues(metric).Inc()
}
