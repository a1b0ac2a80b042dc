package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetricsForTesting()

	m.FetchRequests.WithLabelValues("success").Inc()
	m.FetchRequests.WithLabelValues("retryable").Add(2)
	m.FetchRetries.Inc()
	m.CacheFallbacks.Inc()
	m.BuilderRuns.WithLabelValues("summary", "partial").Inc()
	m.DocumentsWritten.WithLabelValues("lehd").Add(64)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchRequests.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchRequests.WithLabelValues("retryable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheFallbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BuilderRuns.WithLabelValues("summary", "partial")))
	assert.Equal(t, 64.0, testutil.ToFloat64(m.DocumentsWritten.WithLabelValues("lehd")))
}

func TestMetricsForTestingIsIsolated(t *testing.T) {
	// Two instances must not collide in a shared registry.
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()
	a.FetchRetries.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.FetchRetries))
}
