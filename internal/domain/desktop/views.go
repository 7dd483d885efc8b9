package desktop

import (
	"sort"
	"time"

	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/apps"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/window"
	"github.com/GriffinCanCode/MoltOS/backend/internal/services/status"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
)

const (
	// DefaultAppName is shown in the menu bar when nothing is focused
	DefaultAppName = "Finder"

	dateLayout  = "Mon Jan 2"
	clockLayout = "3:04 PM"
)

// WindowSource is the read side of a window manager
type WindowSource interface {
	IsOpen(appID apps.ID) bool
	ActiveWindow() (window.Window, bool)
	Snapshot() window.Snapshot
}

// DockItem is one dock icon
type DockItem struct {
	apps.Info
	Open bool `json:"open"`
}

// MenuBarView is the top bar
type MenuBarView struct {
	AppName string        `json:"app_name"`
	Date    string        `json:"date"`
	Clock   string        `json:"clock"`
	Status  status.Status `json:"status"`
}

// SceneWindow is a visible window with its effective bounds
type SceneWindow struct {
	window.Window
	Bounds window.Rect `json:"bounds"`
	Active bool        `json:"active"`
}

// SceneView is the ordered render list, bottom window first
type SceneView struct {
	Windows        []SceneWindow `json:"windows"`
	ActiveWindowID id.WindowID   `json:"active_window_id,omitempty"`
	MaxZIndex      int           `json:"max_z_index"`
}

// Dock lists every app in dock order with its running indicator
func Dock(src WindowSource) []DockItem {
	catalog := apps.Catalog()
	items := make([]DockItem, len(catalog))
	for i, info := range catalog {
		items[i] = DockItem{Info: info, Open: src.IsOpen(info.ID)}
	}
	return items
}

// MenuBar builds the top bar for the given status and time
func MenuBar(src WindowSource, st status.Status, now time.Time) MenuBarView {
	name := DefaultAppName
	if w, ok := src.ActiveWindow(); ok && w.Title != "" {
		name = w.Title
	}
	return MenuBarView{
		AppName: name,
		Date:    now.Format(dateLayout),
		Clock:   now.Format(clockLayout),
		Status:  st,
	}
}

// Scene returns the visible windows in stacking order with the bounds they
// occupy under layout
func Scene(src WindowSource, layout window.Layout) SceneView {
	snap := src.Snapshot()

	out := SceneView{
		Windows:        make([]SceneWindow, 0, len(snap.Windows)),
		ActiveWindowID: snap.ActiveWindowID,
		MaxZIndex:      snap.MaxZIndex,
	}
	for _, w := range snap.Windows {
		if w.IsMinimized {
			continue
		}
		out.Windows = append(out.Windows, SceneWindow{
			Window: w,
			Bounds: layout.Bounds(w),
			Active: w.ID == snap.ActiveWindowID,
		})
	}
	sort.Slice(out.Windows, func(i, j int) bool {
		return out.Windows[i].ZIndex < out.Windows[j].ZIndex
	})
	return out
}

// WindowAt returns the topmost visible window containing (x, y)
func (s SceneView) WindowAt(x, y int) (SceneWindow, bool) {
	for i := len(s.Windows) - 1; i >= 0; i-- {
		if s.Windows[i].Bounds.Contains(x, y) {
			return s.Windows[i], true
		}
	}
	return SceneWindow{}, false
}
