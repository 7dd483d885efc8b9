package desktop

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/gesture"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/panels"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/window"
	"github.com/GriffinCanCode/MoltOS/backend/internal/services/status"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/notify"
)

// Config describes a desktop session
type Config struct {
	Window   window.Options
	Gesture  gesture.Config
	Viewport window.Viewport
	Panels   panels.Options
	// Seed for the panels; nil uses the embedded catalog
	Seed *panels.Seed
}

// DefaultConfig returns the stock geometry on a 1440x900 viewport
func DefaultConfig() Config {
	return Config{
		Window:   window.DefaultOptions(),
		Gesture:  gesture.DefaultConfig(),
		Viewport: window.Viewport{Width: 1440, Height: 900},
		Panels: panels.Options{
			ChatReplyMin: time.Second,
			ChatReplyMax: 2 * time.Second,
		},
	}
}

// Desktop is the state of one browser session
type Desktop struct {
	Windows  *window.Manager
	Gestures *gesture.Tracker
	Panels   *panels.Workspace

	mu       sync.RWMutex
	viewport window.Viewport // Protected by mu

	status    panels.StatusSource
	now       func() time.Time
	createdAt time.Time
	events    notify.Broadcaster[window.Event]
}

// New builds a desktop. Extra window options (observers, jitter) are
// applied after the geometry from cfg.
func New(cfg Config, options ...window.Option) (*Desktop, error) {
	seed := cfg.Seed
	if seed == nil {
		var err error
		if seed, err = panels.DefaultSeed(); err != nil {
			return nil, err
		}
	}
	now := cfg.Panels.Now
	if now == nil {
		now = time.Now
	}

	ws, err := panels.NewWorkspace(seed, cfg.Panels)
	if err != nil {
		return nil, err
	}

	d := &Desktop{
		Panels:    ws,
		viewport:  cfg.Viewport,
		status:    cfg.Panels.Status,
		now:       now,
		createdAt: now(),
	}

	// The tracker must see closes before anyone else reacts to them
	opts := []window.Option{
		window.WithOptions(cfg.Window),
		window.WithObserver(func(ev window.Event) { d.Gestures.Observe(ev) }),
	}
	opts = append(opts, options...)
	opts = append(opts, window.WithObserver(d.events.Publish))

	d.Windows = window.NewManager(opts...)
	d.Gestures = gesture.NewTracker(d.Windows, cfg.Gesture)
	return d, nil
}

// Pointer feeds one pointer event to the gesture tracker
func (d *Desktop) Pointer(wid id.WindowID, ev gesture.Event) gesture.Result {
	return d.Gestures.Dispatch(wid, ev)
}

// Subscribe registers fn for window events of this desktop
func (d *Desktop) Subscribe(fn func(window.Event)) func() {
	return d.events.Subscribe(fn)
}

// Viewport returns the current screen size
func (d *Desktop) Viewport() window.Viewport {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.viewport
}

// SetViewport records a new screen size. Only effective bounds of maximized
// windows depend on it; stored geometry is untouched.
func (d *Desktop) SetViewport(vp window.Viewport) {
	d.mu.Lock()
	d.viewport = vp
	d.mu.Unlock()
}

// Layout returns the layout for the current viewport
func (d *Desktop) Layout() window.Layout {
	return window.NewLayout(d.Viewport(), d.Windows.Options())
}

// Status returns the shared system status, or the initial values when the
// desktop has no status source
func (d *Desktop) Status() status.Status {
	if d.status == nil {
		return status.Initial()
	}
	return d.status.Current()
}

// CreatedAt is when the session started
func (d *Desktop) CreatedAt() time.Time {
	return d.createdAt
}

// Dock returns the dock view model
func (d *Desktop) Dock() []DockItem {
	return Dock(d.Windows)
}

// MenuBar returns the menu bar view model for the current time
func (d *Desktop) MenuBar() MenuBarView {
	return MenuBar(d.Windows, d.Status(), d.now())
}

// Scene returns the render list for the current viewport
func (d *Desktop) Scene() SceneView {
	return Scene(d.Windows, d.Layout())
}

// Close releases the panel timers
func (d *Desktop) Close() {
	d.Panels.Close()
}
