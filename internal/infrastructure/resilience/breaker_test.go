package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFeed = errors.New("feed unavailable")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 28, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func succeed(context.Context) error { return nil }
func fail(context.Context) error    { return errFeed }

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		requests      []bool // true = success, false = failure
		expectedState State
	}{
		{"stays closed on successes", []bool{true, true, true}, StateClosed},
		{"stays closed below threshold", []bool{false, false, true, false}, StateClosed},
		{"opens after consecutive failures", []bool{false, false, false}, StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker := New("test", Settings{Timeout: time.Minute, Now: newFakeClock().Now})

			for _, success := range tt.requests {
				fn := fail
				if success {
					fn = succeed
				}
				_ = breaker.Do(context.Background(), fn)
			}

			assert.Equal(t, tt.expectedState, breaker.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	breaker := New("test", Settings{Now: newFakeClock().Now})

	require.NoError(t, breaker.Do(context.Background(), succeed))
	counts := breaker.Counts()
	assert.Equal(t, uint32(1), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)
	assert.Equal(t, uint32(1), counts.ConsecutiveSuccesses)
	assert.Equal(t, uint32(0), counts.TotalFailures)

	assert.ErrorIs(t, breaker.Do(context.Background(), fail), errFeed)
	counts = breaker.Counts()
	assert.Equal(t, uint32(2), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalFailures)
	assert.Equal(t, uint32(1), counts.ConsecutiveFailures)
	assert.Equal(t, uint32(0), counts.ConsecutiveSuccesses)
}

func TestBreakerOpenFailsFast(t *testing.T) {
	breaker := New("test", Settings{Timeout: time.Minute, Now: newFakeClock().Now})
	for i := 0; i < 3; i++ {
		_ = breaker.Do(context.Background(), fail)
	}
	require.Equal(t, StateOpen, breaker.State())

	called := false
	err := breaker.Do(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpen(t *testing.T) {
	clock := newFakeClock()
	breaker := New("test", Settings{
		MaxRequests: 2,
		Timeout:     time.Minute,
		Now:         clock.Now,
	})
	for i := 0; i < 3; i++ {
		_ = breaker.Do(context.Background(), fail)
	}

	clock.Advance(time.Minute + time.Second)
	assert.Equal(t, StateHalfOpen, breaker.State())

	for i := 0; i < 2; i++ {
		require.NoError(t, breaker.Do(context.Background(), succeed))
	}
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := newFakeClock()
	breaker := New("test", Settings{Timeout: time.Minute, Now: clock.Now})
	for i := 0; i < 3; i++ {
		_ = breaker.Do(context.Background(), fail)
	}
	clock.Advance(2 * time.Minute)

	assert.ErrorIs(t, breaker.Do(context.Background(), fail), errFeed)
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerIntervalClearsCounts(t *testing.T) {
	clock := newFakeClock()
	breaker := New("test", Settings{Interval: time.Minute, Now: clock.Now})

	_ = breaker.Do(context.Background(), fail)
	_ = breaker.Do(context.Background(), fail)
	clock.Advance(2 * time.Minute)
	_ = breaker.Do(context.Background(), fail)

	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, uint32(1), breaker.Counts().ConsecutiveFailures)
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	breaker := New("test", Settings{Now: newFakeClock().Now})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 5; i++ {
		err := breaker.Do(ctx, func(ctx context.Context) error { return ctx.Err() })
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, Counts{}, breaker.Counts())
}

func TestCallReturnsValue(t *testing.T) {
	breaker := New("test", Settings{})
	v, err := Call(context.Background(), breaker, func(context.Context) (string, error) {
		return "2025.2.1", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "2025.2.1", v)
}

func TestBreakerCallbacks(t *testing.T) {
	clock := newFakeClock()
	var transitions []string

	breaker := New("feed", Settings{
		Timeout: time.Minute,
		Now:     clock.Now,
		OnStateChange: func(name string, from State, to State) {
			assert.Equal(t, "feed", name)
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	for i := 0; i < 3; i++ {
		_ = breaker.Do(context.Background(), fail)
	}
	clock.Advance(2 * time.Minute)
	require.NoError(t, breaker.Do(context.Background(), succeed))

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	breaker := New("test", Settings{})
	assert.Panics(t, func() {
		_ = breaker.Do(context.Background(), func(context.Context) error { panic("boom") })
	})
	assert.Equal(t, uint32(1), breaker.Counts().TotalFailures)
}
