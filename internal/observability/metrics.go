// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Acquisition metrics
	RecordsFetched     *prometheus.CounterVec
	MissingRows        *prometheus.CounterVec
	SourceFetchLatency *prometheus.HistogramVec
	VendorRequests     *prometheus.CounterVec
	CacheLookups       *prometheus.CounterVec
	CacheErrors        *prometheus.CounterVec

	// Adjustment metrics
	MalformedSplits  prometheus.Counter
	AdjustmentErrors *prometheus.CounterVec
	AdjustLatency    prometheus.Histogram

	// Feature metrics
	FeaturesComputed prometheus.Counter
	FeatureLatency   prometheus.Histogram

	// Pipeline metrics
	InstrumentsProcessed *prometheus.CounterVec
	PipelineRunsTotal    *prometheus.CounterVec
	PipelineDuration     prometheus.Histogram
	WorkersBusy          prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulPipeline prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "equity_feature_lab"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Acquisition metrics
		RecordsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "records_fetched_total",
			Help:      "Total number of daily records fetched by source",
		}, []string{"source"}),
		MissingRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "missing_rows_total",
			Help:      "Total number of trading days without a row, by source",
		}, []string{"source"}),
		SourceFetchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "fetch_latency_seconds",
			Help:      "Source fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		VendorRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vendor",
			Name:      "requests_total",
			Help:      "Total number of vendor API requests by endpoint and status",
		}, []string{"endpoint", "status"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of cache lookups by result",
		}, []string{"result"}),
		CacheErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Total number of failed cache operations by operation",
		}, []string{"op"}),

		// Adjustment metrics
		MalformedSplits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "adjust",
			Name:      "malformed_splits_total",
			Help:      "Total number of split ratios replaced by the neutral ratio",
		}),
		AdjustmentErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "adjust",
			Name:      "errors_total",
			Help:      "Total number of series rejected by the adjuster",
		}, []string{"reason"}),
		AdjustLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "adjust",
			Name:      "latency_seconds",
			Help:      "Per-instrument adjustment latency in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),

		// Feature metrics
		FeaturesComputed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "computed_total",
			Help:      "Total number of feature columns computed",
		}),
		FeatureLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "latency_seconds",
			Help:      "Per-instrument feature computation latency in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),

		// Pipeline metrics
		InstrumentsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "instruments_processed_total",
			Help:      "Total number of instruments processed by status and error kind",
		}, []string{"status", "kind"}),
		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		WorkersBusy: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "workers_busy",
			Help:      "Number of instrument jobs currently running",
		}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulPipeline: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordFetch records the outcome of one source fetch.
func (m *Metrics) RecordFetch(source string, records, missing int, seconds float64) {
	if m == nil {
		return
	}
	m.RecordsFetched.WithLabelValues(source).Add(float64(records))
	m.MissingRows.WithLabelValues(source).Add(float64(missing))
	m.SourceFetchLatency.WithLabelValues(source).Observe(seconds)
}

// RecordVendorRequest records one vendor API call.
func (m *Metrics) RecordVendorRequest(endpoint, status string) {
	if m == nil {
		return
	}
	m.VendorRequests.WithLabelValues(endpoint, status).Inc()
}

// RecordCacheError records a failed cache operation (get, set, del, encode).
func (m *Metrics) RecordCacheError(op string) {
	if m == nil {
		return
	}
	m.CacheErrors.WithLabelValues(op).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// RecordMalformedSplit increments the malformed split counter.
func (m *Metrics) RecordMalformedSplit() {
	if m == nil {
		return
	}
	m.MalformedSplits.Inc()
}

// RecordAdjustment records adjuster latency and, on failure, the rejection reason.
func (m *Metrics) RecordAdjustment(seconds float64, reason string) {
	if m == nil {
		return
	}
	m.AdjustLatency.Observe(seconds)
	if reason != "" {
		m.AdjustmentErrors.WithLabelValues(reason).Inc()
	}
}

// RecordFeatures records one instrument's feature computation.
func (m *Metrics) RecordFeatures(columns int, seconds float64) {
	if m == nil {
		return
	}
	m.FeaturesComputed.Add(float64(columns))
	m.FeatureLatency.Observe(seconds)
}

// RecordInstrument records the final status of one instrument job.
func (m *Metrics) RecordInstrument(status, kind string) {
	if m == nil {
		return
	}
	m.InstrumentsProcessed.WithLabelValues(status, kind).Inc()
}

// WorkerStarted and WorkerDone track the busy worker gauge.
func (m *Metrics) WorkerStarted() {
	if m == nil {
		return
	}
	m.WorkersBusy.Inc()
}

func (m *Metrics) WorkerDone() {
	if m == nil {
		return
	}
	m.WorkersBusy.Dec()
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordPipelineRun records a pipeline run.
func (m *Metrics) RecordPipelineRun(status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues(status).Inc()
	m.PipelineDuration.Observe(durationSeconds)
	if status == "success" {
		m.LastSuccessfulPipeline.Set(float64(time.Now().Unix()))
	}
}

// RecordDBQuery records database query metrics on DefaultMetrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.RecordDBQuery(database, operation, seconds, err)
}

// RecordPipelineRun records a pipeline run on DefaultMetrics.
func RecordPipelineRun(status string, durationSeconds float64) {
	DefaultMetrics.RecordPipelineRun(status, durationSeconds)
}
