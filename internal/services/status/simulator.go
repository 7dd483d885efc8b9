// Package status simulates the system status shown in the menu bar and the
// Monitor app. A Simulator refreshes CPU, memory and network figures on a
// fixed interval and notifies subscribers of every new reading.
package status

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/notify"
)

// Gateway connection state shown in the menu bar
type Gateway string

const (
	GatewayConnected    Gateway = "connected"
	GatewayDisconnected Gateway = "disconnected"
	GatewayConnecting   Gateway = "connecting"
)

// Network throughput in MB/s
type Network struct {
	Upload   float64 `json:"upload"`
	Download float64 `json:"download"`
}

// Status is one reading of the simulated system
type Status struct {
	CPU     int       `json:"cpu"`
	Memory  int       `json:"memory"`
	Disk    int       `json:"disk"`
	Network Network   `json:"network"`
	Gateway Gateway   `json:"gateway_status"`
	Battery int       `json:"battery"`
	WiFi    string    `json:"wifi"`
	At      time.Time `json:"at"`
}

// Initial is the reading before the first refresh
func Initial() Status {
	return Status{
		CPU:     23,
		Memory:  45,
		Disk:    67,
		Network: Network{Upload: 1.2, Download: 5.8},
		Gateway: GatewayConnected,
		Battery: 87,
		WiFi:    "connected",
	}
}

// Config tunes the simulator
type Config struct {
	Interval time.Duration
	History  int
}

// DefaultConfig refreshes every 3s and keeps two minutes of history
func DefaultConfig() Config {
	return Config{Interval: 3 * time.Second, History: 40}
}

// Simulator produces periodic status readings
type Simulator struct {
	mu      sync.RWMutex
	current Status   // Protected by mu
	history []Status // Protected by mu, oldest first

	cfg    Config
	rng    *rand.Rand
	now    func() time.Time
	logger *logging.Logger
	subs   notify.Broadcaster[Status]
}

// Option configures a Simulator
type Option func(*Simulator)

// WithRand sets the random source
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rng = r }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// NewSimulator creates a simulator seeded with the initial reading
func NewSimulator(cfg Config, logger *logging.Logger, opts ...Option) *Simulator {
	if cfg.History <= 0 {
		cfg.History = DefaultConfig().History
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Simulator{
		cfg:    cfg,
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		now:    time.Now,
		logger: logger.Named("status"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current = Initial()
	s.current.At = s.now()
	s.history = []Status{s.current}
	return s
}

// Run refreshes the status every interval until ctx is done
func (s *Simulator) Run(ctx context.Context) {
	if s.cfg.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("Status simulation started", zap.Duration("interval", s.cfg.Interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Status simulation stopped")
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick produces one new reading and notifies subscribers
func (s *Simulator) Tick() Status {
	s.mu.Lock()
	next := s.current
	next.CPU = 15 + s.rng.IntN(25)
	next.Memory = 40 + s.rng.IntN(20)
	next.Network = Network{
		Upload:   s.rng.Float64() * 3,
		Download: s.rng.Float64() * 10,
	}
	next.At = s.now()
	s.record(next)
	s.mu.Unlock()

	s.subs.Publish(next)
	return next
}

// SetGateway updates the gateway indicator
func (s *Simulator) SetGateway(g Gateway) {
	s.mu.Lock()
	if s.current.Gateway == g {
		s.mu.Unlock()
		return
	}
	next := s.current
	next.Gateway = g
	next.At = s.now()
	s.record(next)
	s.mu.Unlock()

	s.subs.Publish(next)
}

// record appends a reading (must hold lock)
func (s *Simulator) record(st Status) {
	s.current = st
	s.history = append(s.history, st)
	if over := len(s.history) - s.cfg.History; over > 0 {
		s.history = append([]Status(nil), s.history[over:]...)
	}
}

// Current returns the latest reading
func (s *Simulator) Current() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// History returns the retained readings, oldest first
func (s *Simulator) History() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Status, len(s.history))
	copy(out, s.history)
	return out
}

// Subscribe registers fn for new readings
func (s *Simulator) Subscribe(fn func(Status)) func() {
	return s.subs.Subscribe(fn)
}
