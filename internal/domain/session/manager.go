package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/desktop"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrLimit    = errors.New("session limit reached")
)

// Factory builds the desktop of a new session
type Factory func(sid id.SessionID) (*desktop.Desktop, error)

// Session is one live desktop
type Session struct {
	ID        id.SessionID
	Desktop   *desktop.Desktop
	CreatedAt time.Time
	lastSeen  atomic.Int64 // unix nanos
	streams   atomic.Int32 // attached live streams
}

// LastSeen is the last time the session was looked up
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Streams is the number of live streams attached to the session
func (s *Session) Streams() int {
	return int(s.streams.Load())
}

// Info summarises the session
func (s *Session) Info() Info {
	info := Info{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		LastSeen:  s.LastSeen(),
		Windows:   len(s.Desktop.Windows.Windows()),
		Streams:   s.Streams(),
	}
	if w, ok := s.Desktop.Windows.ActiveWindow(); ok {
		info.ActiveApp = string(w.AppID)
	}
	return info
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// Info summarises a session for listings
type Info struct {
	ID        id.SessionID `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	LastSeen  time.Time    `json:"last_seen"`
	Windows   int          `json:"windows"`
	Streams   int          `json:"streams"`
	ActiveApp string       `json:"active_app,omitempty"`
}

// Stats are manager counters
type Stats struct {
	Active  int    `json:"active"`
	Created uint64 `json:"created"`
	Pruned  uint64 `json:"pruned"`
	Max     int    `json:"max"`
}

// Manager creates, finds and retires sessions
type Manager struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*Session // Protected by mu

	factory Factory
	max     int
	created atomic.Uint64
	pruned  atomic.Uint64

	now     func() time.Time
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// Option configures a Manager
type Option func(*Manager)

// WithMaxSessions caps the number of live sessions; zero means unlimited
func WithMaxSessions(n int) Option {
	return func(m *Manager) { m.max = n }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a session manager
func NewManager(factory Factory, options ...Option) *Manager {
	m := &Manager{
		sessions: make(map[id.SessionID]*Session),
		factory:  factory,
		now:      time.Now,
		logger:   logging.NewNop(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Create starts a new session
func (m *Manager) Create() (*Session, error) {
	m.mu.RLock()
	full := m.max > 0 && len(m.sessions) >= m.max
	m.mu.RUnlock()
	if full {
		return nil, fmt.Errorf("%w: %d live sessions", ErrLimit, m.max)
	}

	sid := id.NewSessionID()
	d, err := m.factory(sid)
	if err != nil {
		return nil, fmt.Errorf("failed to create desktop: %w", err)
	}

	now := m.now()
	s := &Session{ID: sid, Desktop: d, CreatedAt: now}
	s.touch(now)

	m.mu.Lock()
	// re-check, the factory ran unlocked
	if m.max > 0 && len(m.sessions) >= m.max {
		m.mu.Unlock()
		d.Close()
		return nil, fmt.Errorf("%w: %d live sessions", ErrLimit, m.max)
	}
	m.sessions[sid] = s
	count := len(m.sessions)
	m.mu.Unlock()

	m.created.Add(1)
	if m.metrics != nil {
		m.metrics.IncSessionsCreated()
		m.metrics.SetSessionsActive(count)
	}
	m.logger.Debug("session created", zap.String("session_id", sid.String()), zap.Int("active", count))
	return s, nil
}

// Get returns a live session and marks it as seen
func (m *Manager) Get(sid id.SessionID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[sid]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sid)
	}
	s.touch(m.now())
	return s, nil
}

// Touch marks a session as seen without handing it out. It reports
// whether the session is still live.
func (m *Manager) Touch(sid id.SessionID) bool {
	m.mu.RLock()
	s, ok := m.sessions[sid]
	m.mu.RUnlock()
	if ok {
		s.touch(m.now())
	}
	return ok
}

// Attach is Get for a long-lived stream. The session is not pruned while
// attached; the returned detach func (safe to call twice) marks it seen
// once more so the idle clock starts when the stream ends.
func (m *Manager) Attach(sid id.SessionID) (*Session, func(), error) {
	m.mu.RLock()
	s, ok := m.sessions[sid]
	if ok {
		// under mu so Prune cannot pick the session in between
		s.streams.Add(1)
	}
	m.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, sid)
	}
	s.touch(m.now())

	var once sync.Once
	return s, func() {
		once.Do(func() {
			s.streams.Add(-1)
			s.touch(m.now())
		})
	}, nil
}

// Delete retires a session and releases its desktop
func (m *Manager) Delete(sid id.SessionID) error {
	m.mu.Lock()
	s, ok := m.sessions[sid]
	delete(m.sessions, sid)
	count := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, sid)
	}

	m.release(s, count)
	m.logger.Debug("session deleted", zap.String("session_id", sid.String()))
	return nil
}

// List returns every live session, oldest first
func (m *Manager) List() []Info {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	out := make([]Info, len(all))
	for i, s := range all {
		out[i] = s.Info()
	}
	return out
}

// Stats returns manager counters
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	active := len(m.sessions)
	m.mu.RUnlock()

	return Stats{
		Active:  active,
		Created: m.created.Load(),
		Pruned:  m.pruned.Load(),
		Max:     m.max,
	}
}

// Prune retires sessions not seen for idle and returns how many went.
// Sessions with an attached stream are kept whatever their age.
func (m *Manager) Prune(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	var stale []*Session
	for sid, s := range m.sessions {
		if s.streams.Load() == 0 && s.LastSeen().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, sid)
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	for _, s := range stale {
		m.release(s, count)
	}
	if len(stale) > 0 {
		m.pruned.Add(uint64(len(stale)))
		m.logger.Info("pruned idle sessions", zap.Int("count", len(stale)), zap.Int("active", count))
	}
	return len(stale)
}

// Run prunes idle sessions every interval until ctx is done
func (m *Manager) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Prune(idle)
		}
	}
}

// Close retires every session
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[id.SessionID]*Session)
	m.mu.Unlock()

	for _, s := range all {
		m.release(s, 0)
	}
}

func (m *Manager) release(s *Session, remaining int) {
	open := len(s.Desktop.Windows.Windows())
	s.Desktop.Close()
	if m.metrics != nil {
		m.metrics.ReleaseWindows(open)
		m.metrics.SetSessionsActive(remaining)
	}
}
