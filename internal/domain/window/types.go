package window

import (
	"time"

	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/apps"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
)

// Position is the top-left screen coordinate of a window
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is the content-area size of a window
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Window is one open application instance
type Window struct {
	ID          id.WindowID `json:"id"`
	AppID       apps.ID     `json:"app_id"`
	Title       string      `json:"title"`
	Position    Position    `json:"position"`
	Size        Size        `json:"size"`
	IsMinimized bool        `json:"is_minimized"`
	IsMaximized bool        `json:"is_maximized"`
	ZIndex      int         `json:"z_index"`
	OpenedAt    time.Time   `json:"opened_at"`
}

// Snapshot is a consistent copy of the manager state
type Snapshot struct {
	Windows        []Window    `json:"windows"`
	ActiveWindowID id.WindowID `json:"active_window_id,omitempty"`
	MaxZIndex      int         `json:"max_z_index"`
}

// Stats summarises the window list
type Stats struct {
	Total          int         `json:"total"`
	Visible        int         `json:"visible"`
	Minimized      int         `json:"minimized"`
	Maximized      int         `json:"maximized"`
	ActiveWindowID id.WindowID `json:"active_window_id,omitempty"`
	MaxZIndex      int         `json:"max_z_index"`
}

// EventKind names a mutation of the window list
type EventKind string

const (
	EventOpened    EventKind = "opened"
	EventClosed    EventKind = "closed"
	EventMinimized EventKind = "minimized"
	EventMaximized EventKind = "maximized"
	EventRestored  EventKind = "restored"
	EventFocused   EventKind = "focused"
	EventMoved     EventKind = "moved"
	EventResized   EventKind = "resized"
)

// Event is delivered to observers after a mutation has been applied
type Event struct {
	Kind           EventKind   `json:"kind"`
	WindowID       id.WindowID `json:"window_id"`
	AppID          apps.ID     `json:"app_id"`
	ActiveWindowID id.WindowID `json:"active_window_id,omitempty"`
	At             time.Time   `json:"at"`
}

// Observer receives window events. It is called without the manager lock
// held, so it may query the manager.
type Observer func(Event)
