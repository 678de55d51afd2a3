package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics records calls to the price API.
type UpstreamMetrics struct {
	duration *prometheus.HistogramVec
	up       prometheus.Gauge
}

// NewUpstreamMetrics registers the upstream metrics on the provided registerer.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of price API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "status"})
	up := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "upstream_up",
		Help: "1 when the last price API health check succeeded.",
	})
	reg.MustRegister(duration, up)
	return &UpstreamMetrics{duration: duration, up: up}
}

// ObserveRequest records one request. status 0 means the request never got a
// response.
func (u *UpstreamMetrics) ObserveRequest(endpoint string, status int, elapsed time.Duration) {
	if u == nil || u.duration == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	u.duration.WithLabelValues(normalizeLabel(endpoint), code).Observe(elapsed.Seconds())
}

// SetUp sets the health gauge.
func (u *UpstreamMetrics) SetUp(healthy bool) {
	if u == nil || u.up == nil {
		return
	}
	if healthy {
		u.up.Set(1)
		return
	}
	u.up.Set(0)
}
