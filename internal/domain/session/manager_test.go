package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/apps"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/desktop"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
)

func testFactory(id.SessionID) (*desktop.Desktop, error) {
	return desktop.New(desktop.DefaultConfig())
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
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

func TestCreateAndGet(t *testing.T) {
	m := NewManager(testFactory)
	defer m.Close()

	s, err := m.Create()
	require.NoError(t, err)
	assert.NoError(t, id.CheckPrefixed(string(s.ID), id.SessionPrefix))

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Get(id.NewSessionID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionsAreIsolated(t *testing.T) {
	m := NewManager(testFactory)
	defer m.Close()

	a, _ := m.Create()
	b, _ := m.Create()

	_, err := a.Desktop.Windows.Open(apps.Chat)
	require.NoError(t, err)

	assert.Len(t, a.Desktop.Windows.Windows(), 1)
	assert.Empty(t, b.Desktop.Windows.Windows())
}

func TestDelete(t *testing.T) {
	m := NewManager(testFactory)

	s, _ := m.Create()
	require.NoError(t, m.Delete(s.ID))

	_, err := m.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(s.ID), ErrNotFound)
}

func TestMaxSessions(t *testing.T) {
	m := NewManager(testFactory, WithMaxSessions(2))
	defer m.Close()

	first, err := m.Create()
	require.NoError(t, err)
	_, err = m.Create()
	require.NoError(t, err)

	_, err = m.Create()
	assert.ErrorIs(t, err, ErrLimit)

	require.NoError(t, m.Delete(first.ID))
	_, err = m.Create()
	assert.NoError(t, err)

	stats := m.Stats()
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, uint64(3), stats.Created)
	assert.Equal(t, 2, stats.Max)
}

func TestFactoryError(t *testing.T) {
	boom := errors.New("boom")
	m := NewManager(func(id.SessionID) (*desktop.Desktop, error) { return nil, boom })

	_, err := m.Create()
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, m.Stats().Active)
}

func TestList(t *testing.T) {
	m := NewManager(testFactory)
	defer m.Close()

	a, _ := m.Create()
	b, _ := m.Create()
	_, err := b.Desktop.Windows.Open(apps.Terminal)
	require.NoError(t, err)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Zero(t, list[0].Windows)
	assert.Empty(t, list[0].ActiveApp)
	assert.Equal(t, 1, list[1].Windows)
	assert.Equal(t, "terminal", list[1].ActiveApp)
}

func TestPruneIdle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 28, 9, 0, 0, 0, time.UTC)}
	m := NewManager(testFactory, WithClock(clock.Now))
	defer m.Close()

	stale, _ := m.Create()
	clock.Advance(30 * time.Minute)
	fresh, _ := m.Create()
	clock.Advance(40 * time.Minute)

	assert.Equal(t, 1, m.Prune(time.Hour))

	_, err := m.Get(stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(fresh.ID)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), m.Stats().Pruned)
}

func TestGetKeepsSessionAlive(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 28, 9, 0, 0, 0, time.UTC)}
	m := NewManager(testFactory, WithClock(clock.Now))
	defer m.Close()

	s, _ := m.Create()
	clock.Advance(50 * time.Minute)
	_, err := m.Get(s.ID)
	require.NoError(t, err)
	clock.Advance(50 * time.Minute)

	assert.Zero(t, m.Prune(time.Hour))
}

func TestAttachedStreamKeepsSessionAlive(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 28, 9, 0, 0, 0, time.UTC)}
	m := NewManager(testFactory, WithClock(clock.Now))
	defer m.Close()

	s, _ := m.Create()
	got, detach, err := m.Attach(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, s.Streams())
	assert.Equal(t, 1, m.List()[0].Streams)

	clock.Advance(3 * time.Hour)
	assert.Zero(t, m.Prune(time.Hour), "a watched desktop is never idle")

	detach()
	detach()
	assert.Zero(t, s.Streams())
	assert.Zero(t, m.Prune(time.Hour), "idle time counts from the end of the stream")

	clock.Advance(2 * time.Hour)
	assert.Equal(t, 1, m.Prune(time.Hour))

	_, _, err = m.Attach(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTouch(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 28, 9, 0, 0, 0, time.UTC)}
	m := NewManager(testFactory, WithClock(clock.Now))
	defer m.Close()

	s, _ := m.Create()
	clock.Advance(50 * time.Minute)
	assert.True(t, m.Touch(s.ID))
	assert.True(t, clock.Now().Equal(s.LastSeen()))
	clock.Advance(50 * time.Minute)
	assert.Zero(t, m.Prune(time.Hour))

	assert.False(t, m.Touch(id.NewSessionID()))
}

func TestMetricsTrackSessions(t *testing.T) {
	metrics := monitoring.NewMetrics()
	m := NewManager(testFactory).WithMetrics(metrics)

	s, _ := m.Create()
	_, _ = m.Create()
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SessionsActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SessionsCreated))

	require.NoError(t, m.Delete(s.ID))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionsActive))

	m.Close()
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.SessionsActive))
}

func TestConcurrentCreate(t *testing.T) {
	m := NewManager(testFactory, WithMaxSessions(10))
	defer m.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Create(); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 10, m.Stats().Active)
}
