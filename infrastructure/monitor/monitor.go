package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pricescanner/infrastructure/activity"
	"pricescanner/infrastructure/metrics"
	"pricescanner/infrastructure/priceapi"
)

// DefaultInterval is the polling period for the upstream health check.
const DefaultInterval = 30 * time.Second

// Checker is the upstream health probe.
type Checker interface {
	Health(ctx context.Context) (priceapi.HealthStatus, error)
}

// Status is the last observed upstream state.
type Status struct {
	Known     bool
	Healthy   bool
	Message   string
	CheckedAt time.Time
}

// Monitor polls the upstream health endpoint and records state transitions.
type Monitor struct {
	checker  Checker
	interval time.Duration
	activity *activity.Log
	metrics  *metrics.UpstreamMetrics
	log      zerolog.Logger
	now      func() time.Time

	mu     sync.RWMutex
	status Status
}

func New(checker Checker, interval time.Duration, activityLog *activity.Log, m *metrics.UpstreamMetrics, log zerolog.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		checker:  checker,
		interval: interval,
		activity: activityLog,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// Run checks immediately and then every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	m.activity.Info("Upstream monitoring started")
	m.log.Info().Dur("interval", m.interval).Msg("monitor.started")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		m.Check(ctx)
		select {
		case <-ctx.Done():
			m.log.Info().Msg("monitor.stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Check probes upstream once and returns the new status.
func (m *Monitor) Check(ctx context.Context) Status {
	checkCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	health, err := m.checker.Health(checkCtx)
	next := Status{Known: true, CheckedAt: m.now()}
	switch {
	case err != nil:
		next.Message = err.Error()
	case !health.Healthy():
		next.Message = health.Message
		if next.Message == "" {
			next.Message = fmt.Sprintf("status %q", health.Status)
		}
	default:
		next.Healthy = true
		next.Message = health.Message
	}

	m.mu.Lock()
	prev := m.status
	m.status = next
	m.mu.Unlock()

	m.metrics.SetUp(next.Healthy)
	if prev.Known && prev.Healthy == next.Healthy {
		return next
	}
	if next.Healthy {
		m.activity.Success("Upstream connection restored")
		m.log.Info().Msg("monitor.upstream.restored")
	} else {
		m.activity.Error("Upstream connection lost: " + next.Message)
		m.log.Warn().Str("reason", next.Message).Msg("monitor.upstream.lost")
	}
	return next
}

// Status returns the last observed state.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}
