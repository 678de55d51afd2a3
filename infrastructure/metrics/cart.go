package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics counts cart mutations and durable storage failures.
type CartMetrics struct {
	mutations       *prometheus.CounterVec
	storageFailures *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and result.",
	}, []string{"op", "result"})
	storageFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_storage_failures_total",
		Help: "Durable cart storage reads or writes that failed.",
	}, []string{"op"})
	reg.MustRegister(mutations, storageFailures)
	return &CartMetrics{
		mutations:       mutations,
		storageFailures: storageFailures,
	}
}

// CartMutation records the outcome of a cart operation.
func (c *CartMetrics) CartMutation(op string, ok bool) {
	if c == nil || c.mutations == nil {
		return
	}
	result := "rejected"
	if ok {
		result = "applied"
	}
	c.mutations.WithLabelValues(normalizeLabel(op), result).Inc()
}

// StorageFailure records a failed durable storage access.
func (c *CartMetrics) StorageFailure(op string) {
	if c == nil || c.storageFailures == nil {
		return
	}
	c.storageFailures.WithLabelValues(normalizeLabel(op)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
