package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/panels"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/utils"
)

// DateLayout is the wire format of calendar days
const DateLayout = "2006-01-02"

type chatRequest struct {
	Content string `json:"content"`
}

type commandRequest struct {
	Command string `json:"command"`
}

type eventRequest struct {
	Title string `json:"title"`
	Date  string `json:"date" binding:"required"`
	Time  string `json:"time"`
}

type settingsRequest struct {
	Mode panels.Mode `json:"mode" binding:"required"`
}

// workspace resolves the panels of the :id session
func (h *Handlers) workspace(c *gin.Context) (*panels.Workspace, bool) {
	s, ok := h.session(c)
	if !ok {
		return nil, false
	}
	return s.Desktop.Panels, true
}

// ChatMessages returns the conversation
func (h *Handlers) ChatMessages(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"messages": ws.Chat.Messages(),
		"typing":   ws.Chat.Typing(),
	})
}

// SendChat posts a user message; the reply arrives later
func (h *Handlers) SendChat(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req chatRequest
	if !h.bind(c, &req) {
		return
	}
	msg, err := ws.Chat.Send(req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, msg)
}

// TerminalState returns the output buffer and history
func (h *Handlers) TerminalState(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"output":  ws.Terminal.Output(),
		"history": ws.Terminal.History(),
	})
}

// ExecuteCommand runs one terminal command line
func (h *Handlers) ExecuteCommand(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req commandRequest
	if !h.bind(c, &req) {
		return
	}
	lines, err := ws.Terminal.Execute(req.Command)
	if err != nil {
		h.fail(c, err)
		return
	}
	if lines == nil {
		lines = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

// ClearTerminal empties the output buffer
func (h *Handlers) ClearTerminal(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	ws.Terminal.Clear()
	c.Status(http.StatusNoContent)
}

// ListSkills returns the skills marketplace, filtered by ?q= and ?category=
func (h *Handlers) ListSkills(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"skills":     ws.Skills.Search(c.Query("q"), c.Query("category")),
		"installed":  len(ws.Skills.Installed()),
		"categories": ws.Skills.Categories(),
	})
}

// ToggleSkill installs or removes a skill
func (h *Handlers) ToggleSkill(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	toggle(h, c, "skill", ws.Skills.ToggleInstall)
}

// ListStore returns the App Store listings, filtered like ListSkills
func (h *Handlers) ListStore(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":      ws.Store.Search(c.Query("q"), c.Query("category")),
		"installed":  len(ws.Store.Installed()),
		"categories": ws.Store.Categories(),
	})
}

// ToggleStoreItem installs or removes an App Store item
func (h *Handlers) ToggleStoreItem(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	toggle(h, c, "store item", ws.Store.ToggleInstall)
}

func toggle[T any](h *Handlers, c *gin.Context, kind string, fn func(string) (T, bool)) {
	itemID := c.Param("item")
	if err := utils.ValidateID(itemID, "item"); err != nil {
		h.fail(c, err)
		return
	}
	item, ok := fn(itemID)
	if !ok {
		h.fail(c, fmt.Errorf("%w: %s %s", panels.ErrNotFound, kind, itemID))
		return
	}
	c.JSON(http.StatusOK, item)
}

// ListFiles lists ?dir= (default "/")
func (h *Handlers) ListFiles(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	dir := c.DefaultQuery("dir", "/")
	items, err := ws.Files.List(dir)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dir": dir, "items": items})
}

// SearchFiles matches ?pattern= against every path
func (h *Handlers) SearchFiles(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	pattern := c.Query("pattern")
	if err := utils.ValidateString(pattern, "pattern", 1, utils.MaxPatternSize, true); err != nil {
		h.fail(c, err)
		return
	}
	items, err := ws.Files.Search(pattern)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pattern": pattern, "items": items})
}

// PreviewFile returns the head of ?path=
func (h *Handlers) PreviewFile(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	p, err := ws.Files.Preview(c.Query("path"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListEvents returns every event, or those of ?date=YYYY-MM-DD
func (h *Handlers) ListEvents(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	day := c.Query("date")
	if day == "" {
		c.JSON(http.StatusOK, gin.H{"events": ws.Calendar.List()})
		return
	}
	d, err := parseDate(day)
	if err != nil {
		h.fail(c, err)
		return
	}
	events := ws.Calendar.On(d)
	if events == nil {
		events = []panels.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"date": day, "events": events})
}

// AddEvent creates a calendar event
func (h *Handlers) AddEvent(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req eventRequest
	if !h.bind(c, &req) {
		return
	}
	d, err := parseDate(req.Date)
	if err != nil {
		h.fail(c, err)
		return
	}
	ev, err := ws.Calendar.Add(req.Title, d, req.Time)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

// RemoveEvent deletes a calendar event
func (h *Handlers) RemoveEvent(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	eid := id.EventID(c.Param("eid"))
	if err := id.CheckPrefixed(string(eid), id.EventPrefix); err != nil {
		h.fail(c, err)
		return
	}
	if !ws.Calendar.Remove(eid) {
		h.fail(c, fmt.Errorf("%w: event %s", panels.ErrNotFound, eid))
		return
	}
	c.Status(http.StatusNoContent)
}

func parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", utils.ErrInvalid)
	}
	return d, nil
}

// ListMail returns the inbox
func (h *Handlers) ListMail(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"emails": ws.Mail.List(),
		"unread": ws.Mail.Unread(),
	})
}

// GetMail returns one message
func (h *Handlers) GetMail(c *gin.Context) {
	h.mailOp(c, func(mb *panels.Mailbox, mid string) (panels.Email, bool) { return mb.Get(mid) })
}

// ToggleMailRead flips the read flag of a message
func (h *Handlers) ToggleMailRead(c *gin.Context) {
	h.mailOp(c, (*panels.Mailbox).ToggleRead)
}

// ToggleMailStar flips the starred flag of a message
func (h *Handlers) ToggleMailStar(c *gin.Context) {
	h.mailOp(c, (*panels.Mailbox).ToggleStar)
}

func (h *Handlers) mailOp(c *gin.Context, op func(*panels.Mailbox, string) (panels.Email, bool)) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	mid := c.Param("mid")
	if err := utils.ValidateID(mid, "email"); err != nil {
		h.fail(c, err)
		return
	}
	email, ok := op(ws.Mail, mid)
	if !ok {
		h.fail(c, fmt.Errorf("%w: email %s", panels.ErrNotFound, mid))
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": email, "unread": ws.Mail.Unread()})
}

// ListAgents returns every agent with per-status counts
func (h *Handlers) ListAgents(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"agents": ws.Agents.List(),
		"counts": gin.H{
			string(panels.AgentActive):  ws.Agents.Count(panels.AgentActive),
			string(panels.AgentIdle):    ws.Agents.Count(panels.AgentIdle),
			string(panels.AgentOffline): ws.Agents.Count(panels.AgentOffline),
		},
	})
}

// CycleAgent advances an agent to its next status
func (h *Handlers) CycleAgent(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	aid := c.Param("aid")
	if err := utils.ValidateID(aid, "agent"); err != nil {
		h.fail(c, err)
		return
	}
	agent, ok := ws.Agents.Cycle(aid)
	if !ok {
		h.fail(c, fmt.Errorf("%w: agent %s", panels.ErrNotFound, aid))
		return
	}
	c.JSON(http.StatusOK, agent)
}

// GetSettings returns the settings of the session
func (h *Handlers) GetSettings(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": ws.Settings.Mode()})
}

// UpdateSettings switches the settings mode
func (h *Handlers) UpdateSettings(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req settingsRequest
	if !h.bind(c, &req) {
		return
	}
	if err := ws.Settings.SetMode(req.Mode); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": ws.Settings.Mode()})
}

// Monitor returns the system statistics view
func (h *Handlers) Monitor(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	if ws.Monitor == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "system monitor is not available"})
		return
	}
	c.JSON(http.StatusOK, ws.Monitor.View())
}
