package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/setup"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/MoltOS/backend/internal/services/installer"
	"github.com/GriffinCanCode/MoltOS/backend/internal/services/status"
	"github.com/GriffinCanCode/MoltOS/backend/internal/services/updater"
)

const (
	serviceName = "MoltOS Desktop Service"
	Version     = "0.3.0"
)

// Deps are the components the handlers serve
type Deps struct {
	Sessions  *session.Manager
	Status    *status.Simulator
	Installer *installer.Service
	Updater   *updater.Service
	Setup     *setup.Service
	Metrics   *monitoring.Metrics
	Logger    *logging.Logger
	// Tracer receives the child spans of window and pointer operations;
	// nil disables them
	Tracer *tracing.Tracer
	// Context bounds background work started by requests, such as an
	// install; it ends when the server shuts down
	Context context.Context
}

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions  *session.Manager
	status    *status.Simulator
	installer *installer.Service
	updater   *updater.Service
	setup     *setup.Service
	metrics   *monitoring.Metrics
	logger    *logging.Logger
	tracer    *tracing.Tracer
	ctx       context.Context
}

// NewHandlers creates a new handler set
func NewHandlers(d Deps) *Handlers {
	logger := d.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx := d.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return &Handlers{
		sessions:  d.Sessions,
		status:    d.Status,
		installer: d.Installer,
		updater:   d.Updater,
		setup:     d.Setup,
		metrics:   d.Metrics,
		logger:    logger.Named("http"),
		tracer:    d.Tracer,
		ctx:       ctx,
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/apps", h.ListApps)

	r.POST("/sessions", h.CreateSession)
	r.GET("/sessions", h.ListSessions)

	s := r.Group("/sessions/:id")
	s.GET("", h.GetSession)
	s.DELETE("", h.DeleteSession)

	s.GET("/windows", h.Snapshot)
	s.POST("/windows", h.OpenWindow)
	s.POST("/windows/minimize-all", h.MinimizeAll)
	s.DELETE("/windows/:wid", h.CloseWindow)
	s.POST("/windows/:wid/minimize", h.MinimizeWindow)
	s.POST("/windows/:wid/maximize", h.MaximizeWindow)
	s.POST("/windows/:wid/restore", h.RestoreWindow)
	s.POST("/windows/:wid/focus", h.FocusWindow)
	s.PUT("/windows/:wid/position", h.MoveWindow)
	s.PUT("/windows/:wid/size", h.ResizeWindow)
	s.POST("/windows/:wid/pointer", h.Pointer)
	s.GET("/gestures", h.Gestures)

	s.GET("/dock", h.Dock)
	s.GET("/menubar", h.MenuBar)
	s.GET("/scene", h.Scene)
	s.GET("/scene/hit", h.HitTest)
	s.PUT("/viewport", h.SetViewport)

	s.GET("/chat", h.ChatMessages)
	s.POST("/chat", h.SendChat)
	s.GET("/terminal", h.TerminalState)
	s.POST("/terminal", h.ExecuteCommand)
	s.DELETE("/terminal", h.ClearTerminal)
	s.GET("/skills", h.ListSkills)
	s.POST("/skills/:item/toggle", h.ToggleSkill)
	s.GET("/store", h.ListStore)
	s.POST("/store/:item/toggle", h.ToggleStoreItem)
	s.GET("/files", h.ListFiles)
	s.GET("/files/search", h.SearchFiles)
	s.GET("/files/preview", h.PreviewFile)
	s.GET("/calendar", h.ListEvents)
	s.POST("/calendar", h.AddEvent)
	s.DELETE("/calendar/:eid", h.RemoveEvent)
	s.GET("/mail", h.ListMail)
	s.GET("/mail/:mid", h.GetMail)
	s.POST("/mail/:mid/read", h.ToggleMailRead)
	s.POST("/mail/:mid/star", h.ToggleMailStar)
	s.GET("/agents", h.ListAgents)
	s.POST("/agents/:aid/cycle", h.CycleAgent)
	s.GET("/settings", h.GetSettings)
	s.PUT("/settings", h.UpdateSettings)
	s.GET("/monitor", h.Monitor)

	r.GET("/status", h.Status)
	r.GET("/status/history", h.StatusHistory)

	r.GET("/setup", h.SetupStatus)
	r.POST("/setup/complete", h.CompleteSetup)
	r.POST("/setup/skip", h.SkipSetup)
	r.PUT("/setup/wizard", h.SetWizard)

	r.GET("/installer", h.InstallerState)
	r.POST("/installer/check", h.CheckInstall)
	r.POST("/installer/install", h.Install)
	r.GET("/installer/commands", h.InstallCommands)
	r.PUT("/installer/config", h.ConfigureBot)
	r.POST("/installer/gateway/start", h.StartGateway)
	r.POST("/installer/gateway/stop", h.StopGateway)
	r.POST("/installer/connect", h.Connect)
	r.POST("/installer/messages", h.SendBotMessage)
	r.POST("/installer/reset", h.ResetInstaller)

	r.GET("/updates", h.UpdateState)
	r.POST("/updates/check", h.CheckUpdates)
	r.POST("/updates/apply", h.ApplyUpdate)

	r.GET("/metrics/json", h.MetricsJSON)
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": serviceName,
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":   "healthy",
		"sessions": h.sessions.Stats(),
		"setup":    h.setup.Status(),
	}
	if h.installer != nil {
		st := h.installer.State()
		body["gateway"] = gin.H{
			"install_status": st.InstallStatus,
			"running":        st.GatewayRunning,
		}
	}
	c.JSON(http.StatusOK, body)
}
