package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/MoltOS/backend/internal/api/http"
	"github.com/GriffinCanCode/MoltOS/backend/internal/api/middleware"
	"github.com/GriffinCanCode/MoltOS/backend/internal/api/ws"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/desktop"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/gesture"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/panels"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/setup"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/window"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/MoltOS/backend/internal/services/installer"
	"github.com/GriffinCanCode/MoltOS/backend/internal/services/status"
	"github.com/GriffinCanCode/MoltOS/backend/internal/services/updater"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/paths"
)

const maxPruneInterval = time.Minute

// Server wraps the HTTP server and dependencies
type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	tracer    *tracing.Tracer
	status    *status.Simulator
	installer *installer.Service
	updater   *updater.Service
	setup     *setup.Service
	sessions  *session.Manager

	// ctx outlives requests; background work started by handlers uses it
	ctx    context.Context
	cancel context.CancelFunc
}

// Option customises a server
type Option func(*options)

type options struct {
	logger       *logging.Logger
	updateSource updater.Source
}

// WithLogger replaces the logger built from the config
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithUpdateSource replaces the simulated release feed
func WithUpdateSource(src updater.Source) Option {
	return func(o *options) { o.updateSource = src }
}

// New creates a server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = logging.NewFromSettings(cfg.Logging.Level, cfg.Logging.Development)
	}

	logger.Info("Initializing MoltOS desktop server",
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Dir),
		zap.Int("max_sessions", cfg.Server.MaxSessions),
	)

	// Metrics first, the services below record into them
	metrics := monitoring.NewMetrics()

	sim := status.NewSimulator(status.Config{
		Interval: cfg.Simulation.StatusInterval,
		History:  cfg.Simulation.StatusHistory,
	}, logger)

	timing := installer.DefaultTiming()
	timing.Step = cfg.Simulation.InstallStepDelay
	inst := installer.NewService(timing, logger,
		installer.WithMetrics(metrics),
		installer.WithGatewayHook(func(running bool) {
			if running {
				sim.SetGateway(status.GatewayConnected)
			} else {
				sim.SetGateway(status.GatewayDisconnected)
			}
		}),
	)

	updCfg := updater.DefaultConfig()
	updCfg.Interval = cfg.Simulation.UpdateInterval
	var feed updater.Source = updater.NewSimulatedSource(updCfg.CheckDelay, time.Now, nil)
	if o.updateSource != nil {
		feed = o.updateSource
	}
	feedLog := logger.Named("release-feed")
	feed = updater.NewGuardedSource(feed, resilience.New("release-feed", resilience.Settings{
		Timeout: 4 * updCfg.Interval,
		OnStateChange: func(name string, from, to resilience.State) {
			feedLog.Warn("Release feed breaker changed state",
				zap.Stringer("from", from), zap.Stringer("to", to))
		},
	}))
	upd := updater.NewService(updCfg, logger, updater.WithSource(feed), updater.WithMetrics(metrics))

	layout := paths.New(cfg.Storage.Dir)
	if err := layout.Ensure(); err != nil {
		return nil, fmt.Errorf("prepare storage: %w", err)
	}
	store, err := setup.NewFileStore(layout)
	if err != nil {
		return nil, fmt.Errorf("open setup store: %w", err)
	}
	setupSvc, err := setup.NewService(store, logger)
	if err != nil {
		return nil, fmt.Errorf("load setup state: %w", err)
	}

	sessions := session.NewManager(desktopFactory(cfg, sim, metrics),
		session.WithMaxSessions(cfg.Server.MaxSessions),
		session.WithLogger(logger),
	).WithMetrics(metrics)

	ctx, cancel := context.WithCancel(context.Background())
	tracer := tracing.New("moltos-desktop", logger)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(middleware.AccessLog(logger, "/health", "/metrics"))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.CORSForOrigins(cfg.Server.AllowedOrigins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}
	router.Use(middleware.Gzip(middleware.DefaultGzipConfig()))

	handlers := apihttp.NewHandlers(apihttp.Deps{
		Sessions:  sessions,
		Status:    sim,
		Installer: inst,
		Updater:   upd,
		Setup:     setupSvc,
		Metrics:   metrics,
		Logger:    logger,
		Tracer:    tracer,
		Context:   ctx,
	})
	handlers.Register(router)

	wsHandler := ws.NewHandler(sessions, logger).
		WithMetrics(metrics).
		WithFeeds(sim, inst, upd)
	router.GET("/sessions/:id/stream", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:    router,
		config:    cfg,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		status:    sim,
		installer: inst,
		updater:   upd,
		setup:     setupSvc,
		sessions:  sessions,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// desktopFactory builds one desktop per session from the configured
// geometry, counting window operations into metrics.
func desktopFactory(cfg *config.Config, sim *status.Simulator, metrics *monitoring.Metrics) session.Factory {
	d := cfg.Desktop
	return func(sid id.SessionID) (*desktop.Desktop, error) {
		dc := desktop.DefaultConfig()
		dc.Window.MenuBarHeight = d.MenuBarHeight
		dc.Window.DockHeight = d.DockHeight
		dc.Window.MinWidth = d.MinWindowWidth
		dc.Window.MinHeight = d.MinWindowHeight
		dc.Viewport = window.Viewport{Width: d.ViewportWidth, Height: d.ViewportHeight}
		dc.Gesture = gesture.Config{
			DoubleClickInterval: d.DoubleClickInterval,
			DoubleClickSlop:     d.DoubleClickSlop,
		}
		dc.Panels = panels.Options{
			ChatReplyMin: cfg.Simulation.ChatReplyMin,
			ChatReplyMax: cfg.Simulation.ChatReplyMax,
			Status:       sim,
		}
		return desktop.New(dc, window.WithObserver(func(ev window.Event) {
			metrics.RecordWindowOp(string(ev.Kind), string(ev.AppID))
		}))
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is done
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and runs the simulations until ctx is
// done, then drains in-flight requests within the shutdown grace period.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	s.background(&wg)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("Graceful shutdown incomplete", zap.Error(err))
	}

	s.cancel()
	wg.Wait()
	s.Close()
	return serveErr
}

func (s *Server) background(wg *sync.WaitGroup) {
	run := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(s.ctx)
		}()
	}

	run(s.status.Run)
	run(s.updater.Run)
	if idle := s.config.Server.SessionIdle; idle > 0 {
		interval := min(idle/4, maxPruneInterval)
		run(func(ctx context.Context) { s.sessions.Run(ctx, interval, idle) })
	}
}

// Close retires every session, drains the tracer and flushes the logger
func (s *Server) Close() {
	s.cancel()
	s.sessions.Close()
	s.tracer.Close()
	_ = s.logger.Sync()
}
