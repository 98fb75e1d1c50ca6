// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "threshold_lab"

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Scan metrics
	EntriesScanned *prometheus.CounterVec
	MalformedBars  prometheus.Counter
	ExitsResolved  *prometheus.CounterVec

	// Simulation metrics
	SimulatorDecisions *prometheus.CounterVec
	LedgerRows         prometheus.Counter

	// Provider metrics
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec

	// Run metrics
	RunsTotal         *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	LastSuccessfulRun prometheus.Gauge

	// API metrics
	HTTPRequests *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		EntriesScanned: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "entries_total",
			Help:      "Total number of entries scanned by result",
		}, []string{"result"}),
		MalformedBars: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "malformed_bars_total",
			Help:      "Total number of price bars skipped as malformed",
		}),
		ExitsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "exits_resolved_total",
			Help:      "Total number of governing exits by reason",
		}, []string{"reason"}),

		SimulatorDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "decisions_total",
			Help:      "Total number of simulator decisions by outcome",
		}, []string{"decision"}),
		LedgerRows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "ledger_rows_total",
			Help:      "Total number of trade ledger rows built",
		}),

		ProviderRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Total number of price provider requests by status",
		}, []string{"provider", "status"}),
		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "request_latency_seconds",
			Help:      "Price provider request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "cache_lookups_total",
			Help:      "Total number of price cache lookups by result",
		}, []string{"result"}),

		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of study runs by status",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Study run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful study run",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests by route and status",
		}, []string{"route", "status"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordScan counts one scanned entry. result is ok, unavailable or error.
func (m *Metrics) RecordScan(result string) {
	if m == nil {
		return
	}
	m.EntriesScanned.WithLabelValues(result).Inc()
}

// RecordMalformedBar counts a skipped bar.
func (m *Metrics) RecordMalformedBar() {
	if m == nil {
		return
	}
	m.MalformedBars.Inc()
}

// RecordExit counts a governing exit.
func (m *Metrics) RecordExit(reason string) {
	if m == nil {
		return
	}
	m.ExitsResolved.WithLabelValues(reason).Inc()
}

// RecordDecision counts a simulator decision.
func (m *Metrics) RecordDecision(decision string) {
	if m == nil {
		return
	}
	m.SimulatorDecisions.WithLabelValues(decision).Inc()
}

// RecordLedgerRows counts built ledger rows.
func (m *Metrics) RecordLedgerRows(n int) {
	if m == nil {
		return
	}
	m.LedgerRows.Add(float64(n))
}

// RecordProviderRequest records a provider call and its latency.
func (m *Metrics) RecordProviderRequest(provider string, err error, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		var te interface{ Timeout() bool }
		if errors.As(err, &te) && te.Timeout() {
			status = "timeout"
		}
	}
	m.ProviderRequests.WithLabelValues(provider, status).Inc()
	m.ProviderLatency.WithLabelValues(provider).Observe(seconds)
}

// RecordCacheLookup counts a cache lookup. result is hit, miss or error.
func (m *Metrics) RecordCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// RecordRun records a study run.
func (m *Metrics) RecordRun(status string, durationSeconds float64, finishedUnix int64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(durationSeconds)
	if status == "success" {
		m.LastSuccessfulRun.Set(float64(finishedUnix))
	}
}

// RecordHTTPRequest counts an API request.
func (m *Metrics) RecordHTTPRequest(route, status string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, status).Inc()
}
