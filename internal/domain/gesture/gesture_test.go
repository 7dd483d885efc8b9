package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/apps"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/window"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/utils"
)

type mockTarget struct {
	mock.Mock
}

func (m *mockTarget) Get(wid id.WindowID) (window.Window, bool) {
	args := m.Called(wid)
	return args.Get(0).(window.Window), args.Bool(1)
}

func (m *mockTarget) Focus(wid id.WindowID) bool {
	return m.Called(wid).Bool(0)
}

func (m *mockTarget) Move(wid id.WindowID, x, y int) bool {
	return m.Called(wid, x, y).Bool(0)
}

func (m *mockTarget) Resize(wid id.WindowID, width, height int) bool {
	return m.Called(wid, width, height).Bool(0)
}

func (m *mockTarget) Maximize(wid id.WindowID) bool {
	return m.Called(wid).Bool(0)
}

var t0 = time.Date(2025, 1, 28, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*window.Manager, id.WindowID, *Handler) {
	t.Helper()
	m := window.NewManager(window.WithJitter(window.NoJitter))
	wid, err := m.Open(apps.Terminal)
	require.NoError(t, err)
	return m, wid, NewHandler(wid, m, DefaultConfig())
}

func TestDragUsesDeltaFromStart(t *testing.T) {
	m, wid, h := setup(t)

	res := h.Handle(Event{Kind: Down, Region: TitleBar, X: 150, Y: 60, At: t0})
	assert.Equal(t, Dragging, res.State)
	assert.Equal(t, ActionDrag, res.Action)

	h.Handle(Event{Kind: Move, X: 160, Y: 70})
	h.Handle(Event{Kind: Move, X: 170, Y: 80})
	h.Handle(Event{Kind: Move, X: 200, Y: 100})

	w, _ := m.Get(wid)
	assert.Equal(t, window.Position{X: 150, Y: 90}, w.Position)

	res = h.Handle(Event{Kind: Up, X: 200, Y: 100})
	assert.Equal(t, Idle, res.State)

	// moves after release are ignored
	res = h.Handle(Event{Kind: Move, X: 900, Y: 900})
	assert.False(t, res.Applied)
	w, _ = m.Get(wid)
	assert.Equal(t, window.Position{X: 150, Y: 90}, w.Position)
}

func TestDragClampsBelowMenuBar(t *testing.T) {
	m, wid, h := setup(t)

	h.Handle(Event{Kind: Down, Region: TitleBar, X: 150, Y: 60, At: t0})
	h.Handle(Event{Kind: Move, X: 150, Y: -500})

	w, _ := m.Get(wid)
	assert.Equal(t, window.DefaultMenuBarHeight, w.Position.Y)
}

func TestTitleBarPressFocuses(t *testing.T) {
	m, wid, h := setup(t)
	other, _ := m.Open(apps.Chat)
	require.Equal(t, other, m.ActiveWindowID())

	h.Handle(Event{Kind: Down, Region: TitleBar, X: 150, Y: 60, At: t0})
	assert.Equal(t, wid, m.ActiveWindowID())
}

func TestContentPressFocusesOnly(t *testing.T) {
	m, wid, h := setup(t)
	m.Open(apps.Chat)

	res := h.Handle(Event{Kind: Down, Region: Content, X: 300, Y: 300, At: t0})
	assert.Equal(t, Idle, res.State)
	assert.Equal(t, ActionFocus, res.Action)
	assert.Equal(t, wid, m.ActiveWindowID())
}

func TestControlPressNeverDrags(t *testing.T) {
	target := new(mockTarget)
	wid := id.NewWindowID()
	h := NewHandler(wid, target, DefaultConfig())

	res := h.Handle(Event{Kind: Down, Region: Control, X: 10, Y: 10, At: t0})
	assert.Equal(t, Idle, res.State)
	assert.False(t, res.Applied)

	res = h.Handle(Event{Kind: Move, X: 50, Y: 50})
	assert.False(t, res.Applied)

	target.AssertNotCalled(t, "Focus", mock.Anything)
	target.AssertNotCalled(t, "Move", mock.Anything, mock.Anything, mock.Anything)
}

func TestDoubleClickMaximizes(t *testing.T) {
	m, wid, h := setup(t)

	h.Handle(Event{Kind: Down, Region: TitleBar, X: 150, Y: 60, At: t0})
	h.Handle(Event{Kind: Up, X: 150, Y: 60, At: t0.Add(80 * time.Millisecond)})
	res := h.Handle(Event{Kind: Down, Region: TitleBar, X: 152, Y: 61, At: t0.Add(200 * time.Millisecond)})

	assert.Equal(t, ActionMaximize, res.Action)
	assert.Equal(t, Idle, res.State)
	w, _ := m.Get(wid)
	assert.True(t, w.IsMaximized)

	// third press starts a fresh click sequence
	res = h.Handle(Event{Kind: Down, Region: TitleBar, X: 152, Y: 61, At: t0.Add(300 * time.Millisecond)})
	assert.NotEqual(t, ActionMaximize, res.Action)
}

func TestSlowOrDistantClicksDoNotMaximize(t *testing.T) {
	tests := []struct {
		name   string
		offset time.Duration
		dx     int
	}{
		{"too slow", 700 * time.Millisecond, 0},
		{"too far", 100 * time.Millisecond, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, wid, h := setup(t)

			h.Handle(Event{Kind: Down, Region: TitleBar, X: 150, Y: 60, At: t0})
			h.Handle(Event{Kind: Up, X: 150, Y: 60})
			res := h.Handle(Event{Kind: Down, Region: TitleBar, X: 150 + tt.dx, Y: 60, At: t0.Add(tt.offset)})

			assert.Equal(t, Dragging, res.State)
			w, _ := m.Get(wid)
			assert.False(t, w.IsMaximized)
		})
	}
}

func TestResize(t *testing.T) {
	m, wid, h := setup(t)

	res := h.Handle(Event{Kind: Down, Region: ResizeHandle, X: 800, Y: 500, At: t0})
	assert.Equal(t, Resizing, res.State)

	h.Handle(Event{Kind: Move, X: 850, Y: 560})
	w, _ := m.Get(wid)
	assert.Equal(t, window.Size{Width: 750, Height: 510}, w.Size)

	h.Handle(Event{Kind: Move, X: 0, Y: 0})
	w, _ = m.Get(wid)
	assert.Equal(t, window.Size{Width: window.DefaultMinWidth, Height: window.DefaultMinHeight}, w.Size)

	h.Handle(Event{Kind: Up})
	assert.Equal(t, Idle, h.State())
}

func TestMaximizedWindowDoesNotDrag(t *testing.T) {
	m, wid, h := setup(t)
	require.True(t, m.Maximize(wid))
	before, _ := m.Get(wid)

	res := h.Handle(Event{Kind: Down, Region: TitleBar, X: 150, Y: 60, At: t0})
	assert.Equal(t, Idle, res.State)
	h.Handle(Event{Kind: Move, X: 400, Y: 400})

	after, _ := m.Get(wid)
	assert.Equal(t, before.Position, after.Position)
}

func TestWindowClosedMidDrag(t *testing.T) {
	m, wid, h := setup(t)

	h.Handle(Event{Kind: Down, Region: TitleBar, X: 150, Y: 60, At: t0})
	require.True(t, m.Close(wid))

	res := h.Handle(Event{Kind: Move, X: 200, Y: 200})
	assert.False(t, res.Applied)
	assert.Equal(t, Idle, res.State)
}

func TestEventValidate(t *testing.T) {
	valid := []Event{
		{Kind: Down, Region: TitleBar},
		{Kind: Down, Region: Content},
		{Kind: Move, X: 10, Y: 20},
		{Kind: Up},
	}
	for _, ev := range valid {
		assert.NoError(t, ev.Validate(), "%+v", ev)
	}

	invalid := []Event{
		{Kind: "click", Region: TitleBar},
		{Kind: Down},
		{Kind: Down, Region: "border"},
	}
	for _, ev := range invalid {
		assert.ErrorIs(t, ev.Validate(), utils.ErrInvalid, "%+v", ev)
	}
}
