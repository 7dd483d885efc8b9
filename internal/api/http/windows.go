package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/apps"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/gesture"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/window"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/utils"
)

type openRequest struct {
	AppID string `json:"app_id" binding:"required"`
}

type moveRequest struct {
	X *int `json:"x" binding:"required"`
	Y *int `json:"y" binding:"required"`
}

type resizeRequest struct {
	Width  *int `json:"width" binding:"required"`
	Height *int `json:"height" binding:"required"`
}

type viewportRequest struct {
	Width  int `json:"width" binding:"required,min=1"`
	Height int `json:"height" binding:"required,min=1"`
}

// Snapshot returns the window list. Clients polling the desktop send the
// last ETag back and get 304 while nothing changed.
func (h *Handlers) Snapshot(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	snap := s.Desktop.Windows.Snapshot()
	digest, err := utils.HashJSON(snap)
	if err != nil {
		h.fail(c, err)
		return
	}
	etag := utils.ETag(digest)
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// OpenWindow opens an app, or focuses its existing window. The answer is
// 201 when a window was created and 200 when an existing one was reused.
func (h *Handlers) OpenWindow(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req openRequest
	if !h.bind(c, &req) {
		return
	}
	appID, err := apps.Parse(req.AppID)
	if err != nil {
		h.fail(c, err)
		return
	}

	span, finish := h.span(c, s, "window.open")
	span.SetTag("app_id", string(appID))
	wid, created, err := s.Desktop.Windows.Launch(appID)
	if err != nil {
		span.SetError(err)
	}
	finish()
	if err != nil {
		h.fail(c, err)
		return
	}

	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	w, _ := s.Desktop.Windows.Get(wid)
	c.JSON(code, gin.H{
		"window_id": wid,
		"window":    w,
		"created":   created,
	})
}

// MinimizeAll hides every window ("show desktop")
func (h *Handlers) MinimizeAll(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	span, finish := h.span(c, s, "window.minimize_all")
	n := s.Desktop.Windows.MinimizeAll()
	span.SetTag("minimized", strconv.Itoa(n))
	finish()

	c.JSON(http.StatusOK, gin.H{
		"minimized":        n,
		"active_window_id": s.Desktop.Windows.ActiveWindowID(),
	})
}

// CloseWindow closes a window
func (h *Handlers) CloseWindow(c *gin.Context) {
	h.windowOp(c, "close", (*window.Manager).Close)
}

// MinimizeWindow minimizes a window
func (h *Handlers) MinimizeWindow(c *gin.Context) {
	h.windowOp(c, "minimize", (*window.Manager).Minimize)
}

// MaximizeWindow toggles maximized state
func (h *Handlers) MaximizeWindow(c *gin.Context) {
	h.windowOp(c, "maximize", (*window.Manager).Maximize)
}

// RestoreWindow restores a window from the dock
func (h *Handlers) RestoreWindow(c *gin.Context) {
	h.windowOp(c, "restore", (*window.Manager).Restore)
}

// FocusWindow brings a window to the front
func (h *Handlers) FocusWindow(c *gin.Context) {
	h.windowOp(c, "focus", (*window.Manager).Focus)
}

// MoveWindow sets a window position
func (h *Handlers) MoveWindow(c *gin.Context) {
	var req moveRequest
	h.windowOpWithBody(c, "move", &req, func(m *window.Manager, wid id.WindowID) bool {
		return m.Move(wid, *req.X, *req.Y)
	})
}

// ResizeWindow sets a window size, clamped to the minimum
func (h *Handlers) ResizeWindow(c *gin.Context) {
	var req resizeRequest
	h.windowOpWithBody(c, "resize", &req, func(m *window.Manager, wid id.WindowID) bool {
		return m.Resize(wid, *req.Width, *req.Height)
	})
}

func (h *Handlers) windowOp(c *gin.Context, name string, op func(*window.Manager, id.WindowID) bool) {
	h.windowOpWithBody(c, name, nil, op)
}

// windowOpWithBody runs op on the :wid window inside a window.<name> span.
// Unknown windows are not an error: the response reports applied=false.
func (h *Handlers) windowOpWithBody(c *gin.Context, name string, body any, op func(*window.Manager, id.WindowID) bool) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	wid, ok := h.windowID(c)
	if !ok {
		return
	}
	if body != nil && !h.bind(c, body) {
		return
	}

	span, finish := h.span(c, s, "window."+name)
	span.SetTag("window_id", wid.String())
	applied := op(s.Desktop.Windows, wid)
	span.SetTag("applied", strconv.FormatBool(applied))
	finish()

	h.windowResult(c, s, wid, applied)
}

func (h *Handlers) windowResult(c *gin.Context, s *session.Session, wid id.WindowID, applied bool) {
	body := gin.H{
		"applied":          applied,
		"window_id":        wid,
		"active_window_id": s.Desktop.Windows.ActiveWindowID(),
	}
	if w, ok := s.Desktop.Windows.Get(wid); ok {
		body["window"] = w
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handlers) windowID(c *gin.Context) (id.WindowID, bool) {
	wid, err := id.ParseWindowID(c.Param("wid"))
	if err != nil {
		h.fail(c, err)
		return "", false
	}
	return wid, true
}

// Pointer feeds one pointer event to the gesture tracker of a window
func (h *Handlers) Pointer(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	wid, ok := h.windowID(c)
	if !ok {
		return
	}
	var ev gesture.Event
	if !h.bind(c, &ev) {
		return
	}
	if err := ev.Validate(); err != nil {
		h.fail(c, err)
		return
	}
	span, finish := h.span(c, s, "desktop.pointer")
	span.SetTag("window_id", wid.String())
	span.SetTag("pointer", string(ev.Kind))
	res := s.Desktop.Pointer(wid, ev)
	span.SetTag("action", string(res.Action))
	finish()

	if h.metrics != nil {
		h.metrics.RecordGesture(string(res.Action))
	}
	c.JSON(http.StatusOK, res)
}

// Gestures lists windows with a drag or resize in progress
func (h *Handlers) Gestures(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": s.Desktop.Gestures.Active()})
}

// Dock returns the dock entries
func (h *Handlers) Dock(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": s.Desktop.Dock()})
}

// MenuBar returns the menu bar contents
func (h *Handlers) MenuBar(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Desktop.MenuBar())
}

// Scene returns the render list for the session viewport
func (h *Handlers) Scene(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"layout": s.Desktop.Layout(),
		"scene":  s.Desktop.Scene(),
	})
}

// HitTest returns the topmost window under ?x=&y=
func (h *Handlers) HitTest(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	x, errX := strconv.Atoi(c.Query("x"))
	y, errY := strconv.Atoi(c.Query("y"))
	if errX != nil || errY != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "x and y must be integers"})
		return
	}
	w, hit := s.Desktop.Scene().WindowAt(x, y)
	body := gin.H{"hit": hit}
	if hit {
		body["window"] = w
	}
	c.JSON(http.StatusOK, body)
}

// SetViewport records the browser viewport size
func (h *Handlers) SetViewport(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req viewportRequest
	if !h.bind(c, &req) {
		return
	}
	s.Desktop.SetViewport(window.Viewport{Width: req.Width, Height: req.Height})
	c.JSON(http.StatusOK, s.Desktop.Layout())
}
