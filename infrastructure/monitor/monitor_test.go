package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricescanner/infrastructure/activity"
	"pricescanner/infrastructure/priceapi"
)

type scriptedChecker struct {
	mu      sync.Mutex
	results []error
	calls   int
}

func (s *scriptedChecker) Health(context.Context) (priceapi.HealthStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	if err := s.results[i]; err != nil {
		return priceapi.HealthStatus{}, err
	}
	return priceapi.HealthStatus{Status: "healthy"}, nil
}

func (s *scriptedChecker) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestCheckLogsOnlyTransitions(t *testing.T) {
	down := errors.New("connection refused")
	checker := &scriptedChecker{results: []error{nil, nil, down, down, nil}}
	log := activity.NewLog(10)
	m := New(checker, time.Minute, log, nil, zerolog.Nop())

	for i := 0; i < 5; i++ {
		m.Check(context.Background())
	}

	entries := log.Recent(0)
	require.Len(t, entries, 3)
	assert.Equal(t, activity.LevelSuccess, entries[0].Level)
	assert.Equal(t, activity.LevelError, entries[1].Level)
	assert.Contains(t, entries[1].Message, "connection refused")
	assert.Equal(t, activity.LevelSuccess, entries[2].Level)
	assert.True(t, m.Status().Healthy)
}

func TestRunChecksUntilCancelled(t *testing.T) {
	checker := &scriptedChecker{results: []error{nil}}
	m := New(checker, 10*time.Millisecond, activity.NewLog(10), nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return checker.Calls() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestUnhealthyStatusPayload(t *testing.T) {
	m := New(checkerFunc(func() (priceapi.HealthStatus, error) {
		return priceapi.HealthStatus{Status: "unhealthy", Message: "db down"}, nil
	}), time.Minute, activity.NewLog(10), nil, zerolog.Nop())

	status := m.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.Equal(t, "db down", status.Message)
}

type checkerFunc func() (priceapi.HealthStatus, error)

func (f checkerFunc) Health(context.Context) (priceapi.HealthStatus, error) { return f() }
