package window

// Viewport is the size of the browser viewport hosting the desktop
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect is an on-screen rectangle
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether the point lies inside r
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Layout computes effective window bounds for a viewport
type Layout struct {
	Viewport      Viewport `json:"viewport"`
	MenuBarHeight int      `json:"menu_bar_height"`
	DockHeight    int      `json:"dock_height"`
}

// NewLayout builds a layout from manager options
func NewLayout(vp Viewport, o Options) Layout {
	return Layout{Viewport: vp, MenuBarHeight: o.MenuBarHeight, DockHeight: o.DockHeight}
}

// Bounds returns where w is drawn. Maximized windows fill the area between
// the menu bar and the dock; stored geometry is left untouched so that
// un-maximizing restores it exactly.
func (l Layout) Bounds(w Window) Rect {
	if !w.IsMaximized {
		return Rect{X: w.Position.X, Y: w.Position.Y, Width: w.Size.Width, Height: w.Size.Height}
	}
	h := l.Viewport.Height - l.MenuBarHeight - l.DockHeight
	if h < 0 {
		h = 0
	}
	width := l.Viewport.Width
	if width < 0 {
		width = 0
	}
	return Rect{X: 0, Y: l.MenuBarHeight, Width: width, Height: h}
}
