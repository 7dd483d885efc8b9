// Package desktop assembles one desktop session: the window manager, the
// gesture tracker wired to it, the application panels, and the view models
// the frontend renders (dock, menu bar, scene).
//
// Window events fan out, in order, to the gesture tracker, the observers
// passed at construction (metrics) and the scene subscribers (WebSocket
// streams). All of them run after the window manager has released its lock.
//
// Example Usage:
//
//	d, err := desktop.New(desktop.DefaultConfig())
//	wid, _ := d.Windows.Open(apps.Terminal)
//	d.Pointer(wid, gesture.Event{Kind: gesture.Down, Region: gesture.TitleBar, X: 10, Y: 60})
//	scene := d.Scene()
package desktop
