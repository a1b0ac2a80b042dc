package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for one batch run.
type Metrics struct {
	FetchRequests  *prometheus.CounterVec // labels: outcome={success,retryable,failure,breaker_open}
	FetchRetries   prometheus.Counter
	CacheFallbacks prometheus.Counter

	BuilderRuns      *prometheus.CounterVec // labels: builder, outcome={success,partial,skipped,failure}
	DocumentsWritten *prometheus.CounterVec // labels: dataset
	ACSFallbackDepth prometheus.Histogram   // attempts consumed before a usable row
}

// NewMetrics creates and registers all batch metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchRetries,
		m.CacheFallbacks,
		m.BuilderRuns,
		m.DocumentsWritten,
		m.ACSFallbackDepth,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hna_etl",
			Name:      "fetch_requests_total",
			Help:      "Upstream HTTP requests by outcome.",
		}, []string{"outcome"}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hna_etl",
			Name:      "fetch_retries_total",
			Help:      "Retry attempts after retryable statuses or transport failures.",
		}),
		CacheFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hna_etl",
			Name:      "cache_fallbacks_total",
			Help:      "Times a failed download was served from the on-disk CSV cache.",
		}),
		BuilderRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hna_etl",
			Name:      "builder_runs_total",
			Help:      "Dataset builder executions by outcome.",
		}, []string{"builder", "outcome"}),
		DocumentsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hna_etl",
			Name:      "documents_written_total",
			Help:      "Snapshot JSON documents written, by dataset.",
		}, []string{"dataset"}),
		ACSFallbackDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hna_etl",
			Name:      "acs_fallback_depth",
			Help:      "Endpoint attempts consumed before an ACS chain produced a usable row.",
			Buckets:   []float64{1, 2, 3, 4, 6, 9, 12},
		}),
	}
}
