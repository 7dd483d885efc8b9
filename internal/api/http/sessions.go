package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/apps"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
)

// ListApps returns the application catalog in dock order
func (h *Handlers) ListApps(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"apps": apps.Catalog()})
}

// CreateSession starts a new desktop
func (h *Handlers) CreateSession(c *gin.Context) {
	s, err := h.sessions.Create()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.Info())
}

// ListSessions lists live desktops
func (h *Handlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessions": h.sessions.List(),
		"stats":    h.sessions.Stats(),
	})
}

// GetSession describes one desktop
func (h *Handlers) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": s.Info(),
		"stats":   s.Desktop.Windows.Stats(),
	})
}

// DeleteSession ends a desktop
func (h *Handlers) DeleteSession(c *gin.Context) {
	sid, err := id.ParseSessionID(c.Param("id"))
	if err != nil {
		h.fail(c, session.ErrNotFound)
		return
	}
	if err := h.sessions.Delete(sid); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// session resolves the :id parameter. Malformed ids are reported as
// unknown sessions.
func (h *Handlers) session(c *gin.Context) (*session.Session, bool) {
	sid, err := id.ParseSessionID(c.Param("id"))
	if err != nil {
		h.fail(c, session.ErrNotFound)
		return nil, false
	}
	s, err := h.sessions.Get(sid)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return s, true
}

// span opens a child of the request span tagged with the session. The
// returned func finishes and submits it.
func (h *Handlers) span(c *gin.Context, s *session.Session, name string) (*tracing.Span, func()) {
	span, _ := h.tracer.StartSpan(c.Request.Context(), name)
	span.SetTag("session_id", s.ID.String())
	return span, func() {
		span.Finish()
		h.tracer.Submit(span)
	}
}
