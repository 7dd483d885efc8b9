package window

import (
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/apps"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
)

// Manager owns the window list, the focused window and the stacking counter
// of one desktop. Operations on unknown window ids return false and change
// nothing.
type Manager struct {
	mu        sync.RWMutex
	windows   []*Window   // Protected by mu, creation order
	activeID  id.WindowID // Protected by mu, empty when nothing is focused
	maxZIndex int         // Protected by mu

	opts      Options
	jitter    Jitter
	observers []Observer
	now       func() time.Time
}

// NewManager creates an empty window manager
func NewManager(options ...Option) *Manager {
	m := &Manager{
		opts:   DefaultOptions(),
		jitter: RandomJitter,
		now:    time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Options returns the geometry constants in use
func (m *Manager) Options() Options {
	return m.opts
}

// Open launches appID. An existing window for the app is focused (and
// un-minimized) instead of creating a second one.
func (m *Manager) Open(appID apps.ID) (id.WindowID, error) {
	wid, _, err := m.Launch(appID)
	return wid, err
}

// Launch is Open that also reports whether a new window was created
func (m *Manager) Launch(appID apps.ID) (id.WindowID, bool, error) {
	defaults, err := apps.DefaultsFor(appID)
	if err != nil {
		return "", false, err
	}

	m.mu.Lock()
	var events []Event
	created := false

	if w := m.findApp(appID, false); w != nil {
		m.focusLocked(w)
		events = append(events, m.event(EventFocused, w))
	} else if w := m.findApp(appID, true); w != nil {
		w.IsMinimized = false
		m.focusLocked(w)
		events = append(events, m.event(EventRestored, w))
	} else {
		w := m.create(appID, defaults)
		events = append(events, m.event(EventOpened, w))
		created = true
	}
	wid := m.activeID
	m.mu.Unlock()

	m.emit(events)
	return wid, created, nil
}

// create appends a new focused window (must hold lock)
func (m *Manager) create(appID apps.ID, d apps.Defaults) *Window {
	dx, dy := m.jitter.Offset()
	m.maxZIndex++
	w := &Window{
		ID:       id.NewWindowID(),
		AppID:    appID,
		Title:    d.Title,
		Position: Position{X: m.opts.BaseX + dx, Y: m.clampY(m.opts.BaseY + dy)},
		Size:     Size{Width: d.Width, Height: d.Height},
		ZIndex:   m.maxZIndex,
		OpenedAt: m.now(),
	}
	m.windows = append(m.windows, w)
	m.activeID = w.ID
	return w
}

// Close removes a window. Closing an absent window is a no-op.
func (m *Manager) Close(wid id.WindowID) bool {
	m.mu.Lock()
	idx := m.indexOf(wid)
	if idx < 0 {
		m.mu.Unlock()
		return false
	}

	w := m.windows[idx]
	m.windows = append(m.windows[:idx], m.windows[idx+1:]...)
	if m.activeID == wid {
		m.activeID = m.topVisibleLocked()
	}
	ev := m.event(EventClosed, w)
	m.mu.Unlock()

	m.emit([]Event{ev})
	return true
}

// Minimize hides a window, moving focus to the topmost visible survivor
// when it was focused.
func (m *Manager) Minimize(wid id.WindowID) bool {
	return m.mutate(wid, EventMinimized, func(w *Window) {
		w.IsMinimized = true
		if m.activeID == wid {
			m.activeID = m.topVisibleLocked()
		}
	})
}

// MinimizeAll hides every visible window at once ("show desktop") and
// returns how many were hidden. Focus is recomputed once against the final
// list, which leaves nothing focused. Stacking values are kept so a later
// restore brings windows back in their old order.
func (m *Manager) MinimizeAll() int {
	m.mu.Lock()
	var hidden []*Window
	for _, w := range m.windows {
		if !w.IsMinimized {
			w.IsMinimized = true
			hidden = append(hidden, w)
		}
	}
	if len(hidden) == 0 {
		m.mu.Unlock()
		return 0
	}
	m.activeID = m.topVisibleLocked()
	events := make([]Event, len(hidden))
	for i, w := range hidden {
		events[i] = m.event(EventMinimized, w)
	}
	m.mu.Unlock()

	m.emit(events)
	return len(hidden)
}

// Maximize toggles the maximized flag. Geometry, stacking and focus are
// left alone.
func (m *Manager) Maximize(wid id.WindowID) bool {
	return m.mutate(wid, EventMaximized, func(w *Window) {
		w.IsMaximized = !w.IsMaximized
	})
}

// Restore un-minimizes a window and focuses it
func (m *Manager) Restore(wid id.WindowID) bool {
	return m.mutate(wid, EventRestored, func(w *Window) {
		w.IsMinimized = false
		m.focusLocked(w)
	})
}

// Focus raises a window above every other one and makes it active.
// A minimized window is un-minimized first, since the active window
// is never hidden.
func (m *Manager) Focus(wid id.WindowID) bool {
	return m.mutate(wid, EventFocused, func(w *Window) {
		w.IsMinimized = false
		m.focusLocked(w)
	})
}

// Move sets the position, keeping the window below the menu bar
func (m *Manager) Move(wid id.WindowID, x, y int) bool {
	return m.mutate(wid, EventMoved, func(w *Window) {
		w.Position = Position{X: x, Y: m.clampY(y)}
	})
}

// Resize sets the size, floored at the minimum dimensions
func (m *Manager) Resize(wid id.WindowID, width, height int) bool {
	return m.mutate(wid, EventResized, func(w *Window) {
		w.Size = Size{Width: max(width, m.opts.MinWidth), Height: max(height, m.opts.MinHeight)}
	})
}

func (m *Manager) mutate(wid id.WindowID, kind EventKind, fn func(*Window)) bool {
	m.mu.Lock()
	idx := m.indexOf(wid)
	if idx < 0 {
		m.mu.Unlock()
		return false
	}
	w := m.windows[idx]
	fn(w)
	ev := m.event(kind, w)
	m.mu.Unlock()

	m.emit([]Event{ev})
	return true
}

// focusLocked gives w the next stacking value (must hold lock)
func (m *Manager) focusLocked(w *Window) {
	m.maxZIndex++
	w.ZIndex = m.maxZIndex
	m.activeID = w.ID
}

// topVisibleLocked picks the non-minimized window with the highest zIndex.
// Strict comparison keeps the first window on ties.
func (m *Manager) topVisibleLocked() id.WindowID {
	var top *Window
	for _, w := range m.windows {
		if w.IsMinimized {
			continue
		}
		if top == nil || w.ZIndex > top.ZIndex {
			top = w
		}
	}
	if top == nil {
		return ""
	}
	return top.ID
}

func (m *Manager) findApp(appID apps.ID, minimized bool) *Window {
	for _, w := range m.windows {
		if w.AppID == appID && w.IsMinimized == minimized {
			return w
		}
	}
	return nil
}

func (m *Manager) indexOf(wid id.WindowID) int {
	for i, w := range m.windows {
		if w.ID == wid {
			return i
		}
	}
	return -1
}

func (m *Manager) clampY(y int) int {
	return max(y, m.opts.MenuBarHeight)
}

func (m *Manager) event(kind EventKind, w *Window) Event {
	return Event{Kind: kind, WindowID: w.ID, AppID: w.AppID, ActiveWindowID: m.activeID, At: m.now()}
}

func (m *Manager) emit(events []Event) {
	for _, ev := range events {
		for _, fn := range m.observers {
			fn(ev)
		}
	}
}

// Get returns a copy of a window
func (m *Manager) Get(wid id.WindowID) (Window, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx := m.indexOf(wid)
	if idx < 0 {
		return Window{}, false
	}
	return *m.windows[idx], true
}

// Windows returns copies of all windows in creation order
func (m *Manager) Windows() []Window {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyLocked()
}

// Visible returns non-minimized windows from back to front
func (m *Manager) Visible() []Window {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Window, 0, len(m.windows))
	for _, w := range m.windows {
		if !w.IsMinimized {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

// ActiveWindowID returns the focused window id, empty when none
func (m *Manager) ActiveWindowID() id.WindowID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeID
}

// ActiveWindow returns a copy of the focused window
func (m *Manager) ActiveWindow() (Window, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.activeID == "" {
		return Window{}, false
	}
	idx := m.indexOf(m.activeID)
	if idx < 0 {
		return Window{}, false
	}
	return *m.windows[idx], true
}

// MaxZIndex returns the highest stacking value issued so far
func (m *Manager) MaxZIndex() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxZIndex
}

// IsOpen reports whether any window exists for appID
func (m *Manager) IsOpen(appID apps.ID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, w := range m.windows {
		if w.AppID == appID {
			return true
		}
	}
	return false
}

// Snapshot returns the window list and focus state taken under one lock
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		Windows:        m.copyLocked(),
		ActiveWindowID: m.activeID,
		MaxZIndex:      m.maxZIndex,
	}
}

// Stats returns manager statistics
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{Total: len(m.windows), ActiveWindowID: m.activeID, MaxZIndex: m.maxZIndex}
	for _, w := range m.windows {
		if w.IsMinimized {
			s.Minimized++
		} else {
			s.Visible++
		}
		if w.IsMaximized {
			s.Maximized++
		}
	}
	return s
}

func (m *Manager) copyLocked() []Window {
	out := make([]Window, len(m.windows))
	for i, w := range m.windows {
		out[i] = *w
	}
	return out
}
