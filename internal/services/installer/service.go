// Package installer simulates installing MoltBot and driving its local
// gateway. Every delay is timer based and ends early when the caller's
// context is cancelled.
package installer

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/notify"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/utils"
)

const serviceName = "installer"

// Service is the MoltBot installer and gateway client
type Service struct {
	mu         sync.Mutex
	status     InstallStatus
	running    bool
	config     *BotConfig
	progress   *Progress
	installing bool

	timing  Timing
	rng     *rand.Rand // Protected by mu
	gateway func(running bool)
	metrics *monitoring.Metrics
	logger  *logging.Logger
	subs    notify.Broadcaster[State]
}

// Option configures a Service
type Option func(*Service)

// WithRand sets the random source for delays and replies
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rng = r }
}

// WithGatewayHook is called whenever the gateway starts or stops
func WithGatewayHook(fn func(running bool)) Option {
	return func(s *Service) { s.gateway = fn }
}

// WithMetrics records every call
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates an installer for a machine without MoltBot
func NewService(timing Timing, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Service{
		status: StatusNotInstalled,
		timing: timing,
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0xb07)),
		logger: logger.Named(serviceName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current status
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Subscribe registers fn for status changes
func (s *Service) Subscribe(fn func(State)) func() {
	return s.subs.Subscribe(fn)
}

// Check looks for an install and a running gateway
func (s *Service) Check(ctx context.Context) (State, error) {
	timer := monitoring.NewTimer(s.metrics, serviceName, "check")

	s.mu.Lock()
	if s.installing {
		st := s.stateLocked()
		s.mu.Unlock()
		timer.Stop("busy")
		return st, nil
	}
	s.status = StatusChecking
	s.mu.Unlock()
	s.publish()

	if err := s.wait(ctx, s.timing.Check); err != nil {
		// a Reset or gateway change may have landed during the wait
		s.update(s.settleLocked)
		timer.Stop("cancelled")
		return s.State(), err
	}

	st := s.update(s.settleLocked)
	timer.Stop("success")
	return st, nil
}

// Install runs the install steps, reporting each to progress. A cancelled
// install leaves nothing behind.
func (s *Service) Install(ctx context.Context, method Method, progress func(Progress)) error {
	if _, err := ParseMethod(string(method)); err != nil {
		return err
	}
	timer := monitoring.NewTimer(s.metrics, serviceName, "install")

	s.mu.Lock()
	if s.installing {
		s.mu.Unlock()
		timer.Stop("busy")
		return ErrBusy
	}
	s.installing = true
	s.status = StatusInstalling
	s.progress = nil
	s.mu.Unlock()
	s.publish()
	s.logger.Info("install started", zap.String("method", string(method)))

	for _, step := range Steps {
		if err := s.wait(ctx, s.stepDelay()); err != nil {
			s.update(func() {
				s.installing = false
				s.progress = nil
				s.settleLocked()
			})
			s.logger.Info("install cancelled", zap.Error(err))
			timer.Stop("cancelled")
			return err
		}
		s.update(func() { s.progress = &step })
		if progress != nil {
			progress(step)
		}
	}

	cfg := DefaultBotConfig()
	s.update(func() {
		s.installing = false
		s.progress = nil
		s.config = &cfg
		s.running = false
		s.status = StatusConfigured
	})
	s.logger.Info("install complete", zap.String("version", cfg.Version))
	timer.Stop("success")
	return nil
}

// Configure merges patch into the installed configuration
func (s *Service) Configure(ctx context.Context, patch ConfigPatch) (BotConfig, error) {
	timer := monitoring.NewTimer(s.metrics, serviceName, "configure")
	if patch.GatewayPort < 0 || patch.GatewayPort > 65535 {
		timer.Stop("error")
		return BotConfig{}, fmt.Errorf("%w: gateway port %d", utils.ErrInvalid, patch.GatewayPort)
	}
	if !s.State().Installed() {
		timer.Stop("error")
		return BotConfig{}, ErrNotInstalled
	}
	if err := s.wait(ctx, s.timing.Configure); err != nil {
		timer.Stop("cancelled")
		return BotConfig{}, err
	}

	var out BotConfig
	var err error
	s.update(func() {
		if s.config == nil {
			err = ErrNotInstalled
			return
		}
		next := patch.apply(*s.config)
		s.config = &next
		out = next
	})
	if err != nil {
		timer.Stop("error")
		return BotConfig{}, err
	}
	timer.Stop("success")
	return out, nil
}

// StartGateway launches the gateway daemon
func (s *Service) StartGateway(ctx context.Context) error {
	return s.setGateway(ctx, "start_gateway", s.timing.Start, true)
}

// StopGateway stops the gateway daemon
func (s *Service) StopGateway(ctx context.Context) error {
	return s.setGateway(ctx, "stop_gateway", s.timing.Stop, false)
}

// Connect opens the session with the gateway, starting it if needed
func (s *Service) Connect(ctx context.Context) (State, error) {
	err := s.setGateway(ctx, "connect", s.timing.Connect, true)
	return s.State(), err
}

func (s *Service) setGateway(ctx context.Context, method string, delay time.Duration, running bool) error {
	timer := monitoring.NewTimer(s.metrics, serviceName, method)
	if !s.State().Installed() {
		timer.Stop("error")
		return ErrNotInstalled
	}
	if err := s.wait(ctx, delay); err != nil {
		timer.Stop("cancelled")
		return err
	}

	var changed bool
	s.update(func() {
		if s.config == nil {
			return
		}
		changed = s.running != running
		s.running = running
		s.settleLocked()
	})
	if changed && s.gateway != nil {
		s.gateway(running)
	}
	s.logger.Debug("gateway state", zap.String("call", method), zap.Bool("running", running))
	timer.Stop("success")
	return nil
}

// SendMessage sends a message through the gateway and returns the reply
func (s *Service) SendMessage(ctx context.Context, message string) (string, error) {
	if err := utils.ValidateMessage(message); err != nil {
		return "", err
	}
	timer := monitoring.NewTimer(s.metrics, serviceName, "send_message")

	s.mu.Lock()
	connected := s.status == StatusConnected
	delay := s.timing.ReplyMin
	if s.timing.ReplySpan > 0 {
		delay += time.Duration(s.rng.Int64N(int64(s.timing.ReplySpan)))
	}
	pick := s.rng.IntN(3)
	s.mu.Unlock()

	if !connected {
		timer.Stop("error")
		return "", ErrNotConnected
	}
	if err := s.wait(ctx, delay); err != nil {
		timer.Stop("cancelled")
		return "", err
	}
	timer.Stop("success")
	return reply(message, pick), nil
}

func reply(message string, pick int) string {
	switch pick {
	case 0:
		r := []rune(message)
		if len(r) > 30 {
			r = r[:30]
		}
		return fmt.Sprintf("I understand you're asking about %q... Let me help you with that.", string(r))
	case 1:
		return "Great question! Here's what I found..."
	}
	return "I've processed your request. Here's the result..."
}

// Commands returns the shell commands for method
func (s *Service) Commands(method Method) ([]string, error) {
	switch method {
	case MethodNPM:
		return []string{
			"npm install -g moltbot@latest",
			"moltbot onboard --install-daemon",
		}, nil
	case MethodScript:
		return []string{
			"curl -fsSL https://molt.bot/install-cli.sh | bash",
			"moltbot onboard --install-daemon",
		}, nil
	case MethodManual:
		return []string{
			"git clone https://github.com/moltbot/moltbot.git",
			"cd moltbot",
			"pnpm install && pnpm build",
			"pnpm moltbot onboard --install-daemon",
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, string(method))
}

// Reset forgets the install. An install in progress keeps running.
func (s *Service) Reset() State {
	var wasRunning bool
	st := s.update(func() {
		wasRunning = s.running
		s.config = nil
		s.running = false
		if !s.installing {
			s.status = StatusNotInstalled
		}
	})
	if wasRunning && s.gateway != nil {
		s.gateway(false)
	}
	s.logger.Info("install reset")
	return st
}

// settleLocked derives the status from the install and gateway flags
// unless an install is in flight (must hold lock)
func (s *Service) settleLocked() {
	switch {
	case s.installing:
	case s.config == nil:
		s.status = StatusNotInstalled
	case s.running:
		s.status = StatusConnected
	default:
		s.status = StatusConfigured
	}
}

// stateLocked must hold lock
func (s *Service) stateLocked() State {
	st := State{InstallStatus: s.status, GatewayRunning: s.running}
	if s.config != nil {
		cfg := *s.config
		st.Config = &cfg
		st.Version = cfg.Version
		st.Model = cfg.Model
	}
	if s.progress != nil {
		p := *s.progress
		st.Progress = &p
	}
	return st
}

func (s *Service) update(fn func()) State {
	s.mu.Lock()
	fn()
	st := s.stateLocked()
	s.mu.Unlock()

	s.subs.Publish(st)
	return st
}

func (s *Service) publish() {
	s.subs.Publish(s.State())
}

func (s *Service) stepDelay() time.Duration {
	d := s.timing.Step
	if s.timing.StepJitter > 0 {
		s.mu.Lock()
		d += time.Duration(s.rng.Int64N(int64(s.timing.StepJitter)))
		s.mu.Unlock()
	}
	return d
}

func (s *Service) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
