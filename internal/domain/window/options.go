package window

import (
	"math/rand/v2"
	"time"
)

const (
	DefaultMenuBarHeight = 28
	DefaultDockHeight    = 80
	DefaultMinWidth      = 200
	DefaultMinHeight     = 150
)

// Options holds the geometry constants of a manager
type Options struct {
	MenuBarHeight int
	DockHeight    int
	MinWidth      int
	MinHeight     int
	// Spawn base for new windows, before jitter
	BaseX int
	BaseY int
}

// DefaultOptions returns the stock desktop geometry
func DefaultOptions() Options {
	return Options{
		MenuBarHeight: DefaultMenuBarHeight,
		DockHeight:    DefaultDockHeight,
		MinWidth:      DefaultMinWidth,
		MinHeight:     DefaultMinHeight,
		BaseX:         100,
		BaseY:         50,
	}
}

// Jitter offsets the spawn position of new windows
type Jitter interface {
	Offset() (dx, dy int)
}

// JitterFunc adapts a function to Jitter
type JitterFunc func() (int, int)

func (f JitterFunc) Offset() (int, int) { return f() }

// RandomJitter spreads new windows over [0,100)x[0,50)
var RandomJitter Jitter = JitterFunc(func() (int, int) {
	return rand.IntN(100), rand.IntN(50)
})

// NoJitter places every new window at the spawn base
var NoJitter Jitter = JitterFunc(func() (int, int) { return 0, 0 })

// StepJitter cascades windows by step pixels per window, wrapping after n
func StepJitter(step, n int) Jitter {
	i := 0
	return JitterFunc(func() (int, int) {
		off := (i % n) * step
		i++
		return off, off
	})
}

// Option configures a Manager
type Option func(*Manager)

// WithOptions replaces the geometry constants
func WithOptions(o Options) Option {
	return func(m *Manager) { m.opts = o }
}

// WithJitter sets the spawn offset source
func WithJitter(j Jitter) Option {
	return func(m *Manager) { m.jitter = j }
}

// WithObserver registers an observer for window events
func WithObserver(fn Observer) Option {
	return func(m *Manager) { m.observers = append(m.observers, fn) }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}
