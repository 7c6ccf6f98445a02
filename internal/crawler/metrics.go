package crawler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawl engine on a
// dedicated registry. All methods are nil-safe so components can run
// without metrics wired.
type Metrics struct {
	Registry         *prometheus.Registry
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  prometheus.Histogram
	NamesDiscovered  prometheus.Counter
	PrefixesExplored prometheus.Counter
	RetriesTotal     prometheus.Counter
	ErrorsTotal      *prometheus.CounterVec
	FrontierSize     prometheus.Gauge
	AdaptiveDelay    prometheus.Gauge
}

// NewMetrics constructs and registers all collectors on a fresh
// registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "namesweep_requests_total",
			Help: "Total lookup requests issued, by outcome.",
		},
		[]string{"outcome"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "namesweep_request_duration_seconds",
			Help:    "Lookup latency including retries and backoff sleeps.",
			Buckets: prometheus.DefBuckets,
		},
	)
	namesDiscovered := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "namesweep_names_discovered_total",
			Help: "Total distinct names discovered.",
		},
	)
	prefixesExplored := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "namesweep_prefixes_explored_total",
			Help: "Total prefixes fully processed.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "namesweep_retries_total",
			Help: "Total retry attempts across all lookups.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "namesweep_errors_total",
			Help: "Total lookup failures by classification.",
		},
		[]string{"error_type"},
	)
	frontierSize := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "namesweep_frontier_size",
			Help: "Prefixes currently queued in the frontier.",
		},
	)
	adaptiveDelay := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "namesweep_adaptive_delay_seconds",
			Help: "Current shared inter-request delay.",
		},
	)

	registry.MustRegister(
		requests, requestDuration, namesDiscovered, prefixesExplored,
		retries, errorsTotal, frontierSize, adaptiveDelay,
	)

	return &Metrics{
		Registry:         registry,
		RequestsTotal:    requests,
		RequestDuration:  requestDuration,
		NamesDiscovered:  namesDiscovered,
		PrefixesExplored: prefixesExplored,
		RetriesTotal:     retries,
		ErrorsTotal:      errorsTotal,
		FrontierSize:     frontierSize,
		AdaptiveDelay:    adaptiveDelay,
	}
}

// ObserveFetch records one completed lookup.
func (m *Metrics) ObserveFetch(outcome string, d time.Duration, retries int) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(outcome).Inc()
	m.RequestDuration.Observe(d.Seconds())
	if retries > 0 {
		m.RetriesTotal.Add(float64(retries))
	}
}

// AddNames counts newly discovered names.
func (m *Metrics) AddNames(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.NamesDiscovered.Add(float64(n))
}

// IncExplored counts one fully processed prefix.
func (m *Metrics) IncExplored() {
	if m == nil {
		return
	}
	m.PrefixesExplored.Inc()
}

// IncError counts one classified lookup failure.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// SetFrontierSize updates the frontier depth gauge.
func (m *Metrics) SetFrontierSize(n int) {
	if m == nil {
		return
	}
	m.FrontierSize.Set(float64(n))
}

// SetAdaptiveDelay updates the shared delay gauge.
func (m *Metrics) SetAdaptiveDelay(d time.Duration) {
	if m == nil {
		return
	}
	m.AdaptiveDelay.Set(d.Seconds())
}
