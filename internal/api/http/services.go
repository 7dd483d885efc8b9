package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/MoltOS/backend/internal/services/installer"
	"github.com/GriffinCanCode/MoltOS/backend/internal/services/updater"
)

type installRequest struct {
	Method string `json:"method" binding:"required"`
}

type wizardRequest struct {
	Show *bool `json:"show" binding:"required"`
}

type botMessageRequest struct {
	Message string `json:"message"`
}

// Status returns the latest system status reading
func (h *Handlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.status.Current())
}

// StatusHistory returns the retained readings, oldest first
func (h *Handlers) StatusHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"history": h.status.History()})
}

// SetupStatus reports whether the setup wizard should show
func (h *Handlers) SetupStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.setup.Status())
}

// CompleteSetup persists wizard completion
func (h *Handlers) CompleteSetup(c *gin.Context) {
	st, err := h.setup.Complete()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// SkipSetup dismisses the wizard for good
func (h *Handlers) SkipSetup(c *gin.Context) {
	st, err := h.setup.Skip()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// SetWizard shows or hides the wizard without touching completion
func (h *Handlers) SetWizard(c *gin.Context) {
	var req wizardRequest
	if !h.bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.setup.SetShowWizard(*req.Show))
}

// InstallerState returns the install and gateway state
func (h *Handlers) InstallerState(c *gin.Context) {
	c.JSON(http.StatusOK, h.installer.State())
}

// CheckInstall probes for an existing install
func (h *Handlers) CheckInstall(c *gin.Context) {
	st, err := h.installer.Check(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Install starts an install in the background. Progress is visible in the
// installer state and on the session streams.
func (h *Handlers) Install(c *gin.Context) {
	var req installRequest
	if !h.bind(c, &req) {
		return
	}
	method, err := installer.ParseMethod(req.Method)
	if err != nil {
		h.fail(c, err)
		return
	}
	if h.installer.State().InstallStatus == installer.StatusInstalling {
		h.fail(c, installer.ErrBusy)
		return
	}

	go func() {
		if err := h.installer.Install(h.ctx, method, nil); err != nil {
			h.logger.Warn("install did not finish", zap.String("method", string(method)), zap.Error(err))
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"method": method, "steps": len(installer.Steps)})
}

// InstallCommands returns the shell commands for ?method=
func (h *Handlers) InstallCommands(c *gin.Context) {
	method, err := installer.ParseMethod(c.DefaultQuery("method", string(installer.MethodNPM)))
	if err != nil {
		h.fail(c, err)
		return
	}
	cmds, err := h.installer.Commands(method)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"method": method, "commands": cmds})
}

// ConfigureBot updates the installed configuration
func (h *Handlers) ConfigureBot(c *gin.Context) {
	var patch installer.ConfigPatch
	if !h.bind(c, &patch) {
		return
	}
	cfg, err := h.installer.Configure(c.Request.Context(), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// StartGateway starts the gateway daemon
func (h *Handlers) StartGateway(c *gin.Context) {
	if err := h.installer.StartGateway(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.installer.State())
}

// StopGateway stops the gateway daemon
func (h *Handlers) StopGateway(c *gin.Context) {
	if err := h.installer.StopGateway(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.installer.State())
}

// Connect opens the gateway session
func (h *Handlers) Connect(c *gin.Context) {
	st, err := h.installer.Connect(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// SendBotMessage sends a message through the gateway
func (h *Handlers) SendBotMessage(c *gin.Context) {
	var req botMessageRequest
	if !h.bind(c, &req) {
		return
	}
	reply, err := h.installer.SendMessage(c.Request.Context(), req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// ResetInstaller forgets the install
func (h *Handlers) ResetInstaller(c *gin.Context) {
	c.JSON(http.StatusOK, h.installer.Reset())
}

// UpdateState returns the update banner state
func (h *Handlers) UpdateState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":           h.updater.State(),
		"current_version": updater.CurrentVersion,
		"update_command":  updater.UpdateCommand,
	})
}

// CheckUpdates asks for the latest release now
func (h *Handlers) CheckUpdates(c *gin.Context) {
	info := h.updater.Check(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"update_available": info,
		"state":            h.updater.State(),
	})
}

// ApplyUpdate installs the pending update
func (h *Handlers) ApplyUpdate(c *gin.Context) {
	if err := h.updater.Apply(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.updater.State())
}

// MetricsJSON returns the metrics snapshot for dashboards
func (h *Handlers) MetricsJSON(c *gin.Context) {
	if h.metrics == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}
