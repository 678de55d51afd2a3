package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartMetricsCountsByOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)

	m.CartMutation("add", true)
	m.CartMutation("add", true)
	m.CartMutation("add", false)
	m.StorageFailure("")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.mutations.WithLabelValues("add", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("add", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storageFailures.WithLabelValues("unknown")))
}

func TestUpstreamMetricsObserveAndGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewUpstreamMetrics(reg)

	m.ObserveRequest("price", 200, 120*time.Millisecond)
	m.ObserveRequest("price", 0, time.Second)
	m.SetUp(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.up))
	m.SetUp(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.up))

	count, err := testutil.GatherAndCount(reg, "upstream_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var cart *CartMetrics
	var upstream *UpstreamMetrics
	assert.NotPanics(t, func() {
		cart.CartMutation("add", true)
		cart.StorageFailure("add")
		upstream.ObserveRequest("price", 200, time.Millisecond)
		upstream.SetUp(true)
		NewCartMetrics(nil).CartMutation("clear", true)
	})
}
