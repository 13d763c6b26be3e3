// Package metrics defines the Prometheus collectors for conversion runs and
// the control server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for wavconv
type Metrics struct {
	// Run metrics
	RunsStarted  prometheus.Counter
	RunsFinished *prometheus.CounterVec
	ActiveRuns   prometheus.Gauge

	// Job metrics
	Jobs        *prometheus.CounterVec
	JobErrors   *prometheus.CounterVec
	JobDuration prometheus.Histogram
	OutputBytes prometheus.Counter

	// Scan metrics
	FilesExcluded *prometheus.CounterVec

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "wavconv_runs_started_total",
			Help: "Total number of conversion runs started",
		}),
		RunsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wavconv_runs_finished_total",
			Help: "Total number of conversion runs finished, by final state",
		}, []string{"state"}),
		ActiveRuns: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wavconv_active_runs",
			Help: "Number of conversion runs in progress",
		}),

		Jobs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wavconv_jobs_total",
			Help: "Total number of conversion jobs attempted, by outcome and target format",
		}, []string{"outcome", "target"}),
		JobErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wavconv_job_errors_total",
			Help: "Total number of failed conversion jobs, by error kind",
		}, []string{"kind"}),
		JobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wavconv_job_duration_seconds",
			Help:    "Wall time of conversion jobs",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		}),
		OutputBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "wavconv_output_bytes_total",
			Help: "Total bytes written to destination files",
		}),

		FilesExcluded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wavconv_files_excluded_total",
			Help: "Total number of files or targets excluded while scanning, by reason",
		}, []string{"reason"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wavconv_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wavconv_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

// RecordRunStarted counts a run and marks it active
func (m *Metrics) RecordRunStarted() {
	m.RunsStarted.Inc()
	m.ActiveRuns.Inc()
}

// RecordRunFinished records the final state and output volume of a run
func (m *Metrics) RecordRunFinished(state string, outputBytes int64) {
	m.RunsFinished.WithLabelValues(state).Inc()
	m.ActiveRuns.Dec()
	if outputBytes > 0 {
		m.OutputBytes.Add(float64(outputBytes))
	}
}

// RecordJob records one attempted job. errorKind is empty unless the job failed.
func (m *Metrics) RecordJob(outcome, target, errorKind string, elapsed time.Duration) {
	m.Jobs.WithLabelValues(outcome, target).Inc()
	if errorKind != "" {
		m.JobErrors.WithLabelValues(errorKind).Inc()
	}
	m.JobDuration.Observe(elapsed.Seconds())
}

// RecordExcluded records a scan-time exclusion
func (m *Metrics) RecordExcluded(reason string) {
	m.FilesExcluded.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}
