// Package updater checks for new MoltBot releases on an interval and
// reports whether the installed version is behind.
package updater

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/notify"
)

const (
	CurrentVersion = "2025.1.28"
	Repo           = "moltbot/moltbot"
	UpdateCommand  = "npm install -g moltbot@latest && moltbot update"

	serviceName = "updater"
)

// Info describes the latest release
type Info struct {
	HasUpdate      bool      `json:"has_update"`
	CurrentVersion string    `json:"current_version"`
	LatestVersion  string    `json:"latest_version"`
	ReleaseURL     string    `json:"release_url"`
	ReleaseNotes   string    `json:"release_notes,omitempty"`
	PublishedAt    time.Time `json:"published_at"`
}

// State is what the update banner renders
type State struct {
	Checking    bool       `json:"is_checking"`
	LastChecked *time.Time `json:"last_checked,omitempty"`
	Available   *Info      `json:"update_available,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Release is a published version
type Release struct {
	Version     string
	Notes       string
	PublishedAt time.Time
}

// Source finds the latest release
type Source interface {
	Latest(ctx context.Context) (Release, error)
}

// Config tunes the updater
type Config struct {
	Interval   time.Duration
	CheckDelay time.Duration
	ApplyDelay time.Duration
}

// DefaultConfig checks every 30 minutes
func DefaultConfig() Config {
	return Config{
		Interval:   30 * time.Minute,
		CheckDelay: time.Second,
		ApplyDelay: 2 * time.Second,
	}
}

// Service tracks release availability
type Service struct {
	mu    sync.Mutex
	state State

	cfg     Config
	source  Source
	now     func() time.Time
	metrics *monitoring.Metrics
	logger  *logging.Logger
	subs    notify.Broadcaster[State]
}

// Option configures a Service
type Option func(*Service)

// WithSource replaces the simulated release feed
func WithSource(src Source) Option {
	return func(s *Service) { s.source = src }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics records every check
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates an updater that has not checked yet
func NewService(cfg Config, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Service{
		cfg:    cfg,
		now:    time.Now,
		logger: logger.Named(serviceName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		s.source = NewSimulatedSource(cfg.CheckDelay, s.now, nil)
	}
	return s
}

// Run checks immediately and then every interval until ctx is done
func (s *Service) Run(ctx context.Context) {
	s.Check(ctx)
	if s.cfg.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// Check asks the source for the latest release. Failures are reported in
// the state rather than returned.
func (s *Service) Check(ctx context.Context) *Info {
	timer := monitoring.NewTimer(s.metrics, serviceName, "check")
	s.update(func(st *State) {
		st.Checking = true
		st.Error = ""
	})

	rel, err := s.source.Latest(ctx)
	checked := s.now()
	if err != nil {
		s.logger.Warn("update check failed", zap.Error(err))
		s.update(func(st *State) {
			st.Checking = false
			st.LastChecked = &checked
			st.Error = err.Error()
		})
		timer.Stop("error")
		return nil
	}

	info := &Info{
		HasUpdate:      CompareVersions(rel.Version, CurrentVersion) > 0,
		CurrentVersion: CurrentVersion,
		LatestVersion:  rel.Version,
		ReleaseURL:     ReleaseURL(rel.Version),
		ReleaseNotes:   rel.Notes,
		PublishedAt:    rel.PublishedAt,
	}
	if !info.HasUpdate {
		info = nil
	}
	s.update(func(st *State) {
		st.Checking = false
		st.LastChecked = &checked
		st.Available = info
	})
	if info != nil {
		s.logger.Info("update available", zap.String("version", info.LatestVersion))
	}
	timer.Stop("success")
	return info
}

// Apply installs the pending update
func (s *Service) Apply(ctx context.Context) error {
	timer := monitoring.NewTimer(s.metrics, serviceName, "apply")
	if s.cfg.ApplyDelay > 0 {
		t := time.NewTimer(s.cfg.ApplyDelay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			timer.Stop("cancelled")
			return ctx.Err()
		case <-t.C:
		}
	}
	s.update(func(st *State) { st.Available = nil })
	timer.Stop("success")
	return nil
}

// State returns the current state
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn and calls it once with the current state
func (s *Service) Subscribe(fn func(State)) func() {
	cancel := s.subs.Subscribe(fn)
	fn(s.State())
	return cancel
}

func (s *Service) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	st := s.state
	s.mu.Unlock()

	s.subs.Publish(st)
}

// ReleaseURL is the release page of version
func ReleaseURL(version string) string {
	return fmt.Sprintf("https://github.com/%s/releases/tag/v%s", Repo, version)
}

// CompareVersions compares dotted numeric versions. Missing or
// non-numeric parts count as zero.
func CompareVersions(a, b string) int {
	pa, pb := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < max(len(pa), len(pb)); i++ {
		x, y := part(pa, i), part(pb, i)
		switch {
		case x > y:
			return 1
		case x < y:
			return -1
		}
	}
	return 0
}

func part(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	n, err := strconv.Atoi(parts[i])
	if err != nil {
		return 0
	}
	return n
}

// SimulatedSource reports a newer release 30% of the time
type SimulatedSource struct {
	mu    sync.Mutex
	rng   *rand.Rand
	delay time.Duration
	now   func() time.Time
}

const simulatedLatest = "2025.1.30"

// NewSimulatedSource creates the demo release feed
func NewSimulatedSource(delay time.Duration, now func() time.Time, rng *rand.Rand) *SimulatedSource {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x0bd))
	}
	if now == nil {
		now = time.Now
	}
	return &SimulatedSource{rng: rng, delay: delay, now: now}
}

func (s *SimulatedSource) Latest(ctx context.Context) (Release, error) {
	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return Release{}, ctx.Err()
		case <-t.C:
		}
	}

	s.mu.Lock()
	newer := s.rng.Float64() > 0.7
	s.mu.Unlock()

	if !newer {
		return Release{Version: CurrentVersion, PublishedAt: s.now()}, nil
	}
	return Release{
		Version:     simulatedLatest,
		Notes:       releaseNotes(simulatedLatest),
		PublishedAt: s.now(),
	}, nil
}

func releaseNotes(version string) string {
	return fmt.Sprintf(`## What's New in v%s

### Features
- 🚀 Improved performance for large workspaces
- 🎨 New theme options in Settings
- 🤖 Enhanced agent collaboration

### Bug Fixes
- Fixed memory leak in long-running sessions
- Resolved WebSocket reconnection issues
- Improved error handling in Terminal

### Security
- Updated dependencies to patch vulnerabilities`, version)
}
