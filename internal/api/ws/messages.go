package ws

import (
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/desktop"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/gesture"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/window"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
)

// Inbound message types
const (
	TypePointer = "pointer"
	TypeWindow  = "window"
	TypePing    = "ping"
)

// Outbound message types
const (
	TypeHello         = "hello"
	TypeDesktop       = "desktop"
	TypePointerResult = "pointer_result"
	TypeAck           = "ack"
	TypeChatMessage   = "chat_message"
	TypeStatus        = "status"
	TypeInstaller     = "installer"
	TypeUpdate        = "update"
	TypePong          = "pong"
	TypeError         = "error"
)

// Window operations accepted in a window message
const (
	OpOpen     = "open"
	OpClose    = "close"
	OpMinimize = "minimize"
	OpMaximize = "maximize"
	OpRestore  = "restore"
	OpFocus    = "focus"
	OpMove     = "move"
	OpResize   = "resize"
	// OpMinimizeAll needs no window id
	OpMinimizeAll = "minimize_all"
)

// Inbound is a message sent by the browser
type Inbound struct {
	Type     string         `json:"type"`
	Seq      uint64         `json:"seq,omitempty"`
	WindowID string         `json:"window_id,omitempty"`
	Event    *gesture.Event `json:"event,omitempty"`
	Op       string         `json:"op,omitempty"`
	AppID    string         `json:"app_id,omitempty"`
	X        int            `json:"x,omitempty"`
	Y        int            `json:"y,omitempty"`
	Width    int            `json:"width,omitempty"`
	Height   int            `json:"height,omitempty"`
}

// Frame is a message pushed to the browser
type Frame struct {
	Type  string `json:"type"`
	Seq   uint64 `json:"seq,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// DesktopView is the payload of a desktop frame
type DesktopView struct {
	Layout  window.Layout       `json:"layout"`
	Scene   desktop.SceneView   `json:"scene"`
	Dock    []desktop.DockItem  `json:"dock"`
	MenuBar desktop.MenuBarView `json:"menu_bar"`
}

// Ack answers a window message
type Ack struct {
	Op             string      `json:"op"`
	Applied        bool        `json:"applied"`
	WindowID       id.WindowID `json:"window_id,omitempty"`
	ActiveWindowID id.WindowID `json:"active_window_id,omitempty"`
	// Minimized counts the windows hidden by minimize_all
	Minimized int `json:"minimized,omitempty"`
}

// PointerReply answers a pointer message
type PointerReply struct {
	WindowID id.WindowID    `json:"window_id"`
	Result   gesture.Result `json:"result"`
}

// Hello is the first frame of a connection
type Hello struct {
	ConnectionID string       `json:"connection_id"`
	SessionID    id.SessionID `json:"session_id"`
}

func viewOf(d *desktop.Desktop) DesktopView {
	return DesktopView{
		Layout:  d.Layout(),
		Scene:   d.Scene(),
		Dock:    d.Dock(),
		MenuBar: d.MenuBar(),
	}
}
