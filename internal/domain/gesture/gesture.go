// Package gesture turns raw pointer input on a window into window manager
// operations. Each window has a small state machine: Idle, Dragging (title
// bar held) and Resizing (resize handle held).
package gesture

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/window"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/utils"
)

// State of a gesture handler
type State string

const (
	Idle     State = "idle"
	Dragging State = "dragging"
	Resizing State = "resizing"
)

// Kind of pointer event
type Kind string

const (
	Down Kind = "down"
	Move Kind = "move"
	Up   Kind = "up"
)

// Region of the window that was hit by a press
type Region string

const (
	TitleBar     Region = "title_bar"
	Control      Region = "control"
	ResizeHandle Region = "resize_handle"
	Content      Region = "content"
)

// Event is one pointer event in screen coordinates
type Event struct {
	Kind   Kind      `json:"kind"`
	Region Region    `json:"region,omitempty"`
	X      int       `json:"x"`
	Y      int       `json:"y"`
	At     time.Time `json:"at,omitempty"`
}

// Validate rejects events arriving from a client with an unknown kind or
// region. An empty region is allowed for move and up.
func (ev Event) Validate() error {
	switch ev.Kind {
	case Down, Move, Up:
	default:
		return fmt.Errorf("%w: unknown pointer event kind %q", utils.ErrInvalid, ev.Kind)
	}
	switch ev.Region {
	case TitleBar, Control, ResizeHandle, Content:
	case "":
		if ev.Kind == Down {
			return fmt.Errorf("%w: press without a region", utils.ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown region %q", utils.ErrInvalid, ev.Region)
	}
	return nil
}

// Action names what a handled event did
type Action string

const (
	ActionNone     Action = "none"
	ActionFocus    Action = "focus"
	ActionDrag     Action = "drag"
	ActionResize   Action = "resize"
	ActionMove     Action = "move"
	ActionMaximize Action = "maximize"
	ActionRelease  Action = "release"
)

// Result reports the outcome of one event
type Result struct {
	State   State  `json:"state"`
	Action  Action `json:"action"`
	Applied bool   `json:"applied"`
}

// Target is the window manager surface a gesture drives
type Target interface {
	Get(wid id.WindowID) (window.Window, bool)
	Focus(wid id.WindowID) bool
	Move(wid id.WindowID, x, y int) bool
	Resize(wid id.WindowID, width, height int) bool
	Maximize(wid id.WindowID) bool
}

// Config tunes double-click detection
type Config struct {
	DoubleClickInterval time.Duration
	DoubleClickSlop     int
}

// DefaultConfig returns a 500ms double-click window with 4px of slop
func DefaultConfig() Config {
	return Config{DoubleClickInterval: 500 * time.Millisecond, DoubleClickSlop: 4}
}

type press struct {
	at   time.Time
	x, y int
}

// Handler is the gesture state machine of one window. It is not safe for
// concurrent use; Tracker serializes access.
type Handler struct {
	wid    id.WindowID
	target Target
	cfg    Config

	state     State
	startX    int
	startY    int
	startPos  window.Position
	startSize window.Size
	lastPress *press
}

// NewHandler creates an idle handler for wid
func NewHandler(wid id.WindowID, target Target, cfg Config) *Handler {
	return &Handler{wid: wid, target: target, cfg: cfg, state: Idle}
}

// State returns the current state
func (h *Handler) State() State {
	return h.state
}

// Handle applies one pointer event
func (h *Handler) Handle(ev Event) Result {
	switch ev.Kind {
	case Down:
		return h.down(ev)
	case Move:
		return h.move(ev)
	case Up:
		h.state = Idle
		return Result{State: Idle, Action: ActionRelease, Applied: true}
	}
	return h.result(ActionNone, false)
}

// Cancel drops any gesture in progress
func (h *Handler) Cancel() {
	h.state = Idle
	h.lastPress = nil
}

func (h *Handler) down(ev Event) Result {
	// a press while a gesture is active restarts it
	h.state = Idle

	switch ev.Region {
	case Control:
		// controls take priority over the title bar hit region
		h.lastPress = nil
		return h.result(ActionNone, false)

	case TitleBar:
		if h.isDoubleClick(ev) {
			h.lastPress = nil
			return h.result(ActionMaximize, h.target.Maximize(h.wid))
		}
		h.lastPress = &press{at: ev.At, x: ev.X, y: ev.Y}
		return h.begin(ev, Dragging)

	case ResizeHandle:
		h.lastPress = nil
		return h.begin(ev, Resizing)

	default:
		h.lastPress = nil
		return h.result(ActionFocus, h.target.Focus(h.wid))
	}
}

func (h *Handler) begin(ev Event, next State) Result {
	if !h.target.Focus(h.wid) {
		return h.result(ActionNone, false)
	}
	w, ok := h.target.Get(h.wid)
	if !ok {
		return h.result(ActionNone, false)
	}
	// a maximized window has no free geometry to drag
	if w.IsMaximized {
		return h.result(ActionFocus, true)
	}

	h.state = next
	h.startX, h.startY = ev.X, ev.Y
	h.startPos = w.Position
	h.startSize = w.Size
	if next == Dragging {
		return h.result(ActionDrag, true)
	}
	return h.result(ActionResize, true)
}

func (h *Handler) move(ev Event) Result {
	dx, dy := ev.X-h.startX, ev.Y-h.startY

	switch h.state {
	case Dragging:
		ok := h.target.Move(h.wid, h.startPos.X+dx, h.startPos.Y+dy)
		if !ok {
			h.state = Idle
		}
		return h.result(ActionMove, ok)
	case Resizing:
		ok := h.target.Resize(h.wid, h.startSize.Width+dx, h.startSize.Height+dy)
		if !ok {
			h.state = Idle
		}
		return h.result(ActionResize, ok)
	}
	return h.result(ActionNone, false)
}

func (h *Handler) isDoubleClick(ev Event) bool {
	if h.lastPress == nil || ev.At.IsZero() || h.lastPress.at.IsZero() {
		return false
	}
	elapsed := ev.At.Sub(h.lastPress.at)
	if elapsed < 0 || elapsed > h.cfg.DoubleClickInterval {
		return false
	}
	return abs(ev.X-h.lastPress.x) <= h.cfg.DoubleClickSlop && abs(ev.Y-h.lastPress.y) <= h.cfg.DoubleClickSlop
}

func (h *Handler) result(a Action, applied bool) Result {
	return Result{State: h.state, Action: a, Applied: applied}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
