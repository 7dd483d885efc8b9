// Package window implements the window manager of a desktop session.
//
// A Manager owns the list of open windows, the id of the focused window and
// the stacking counter. Every mutation goes through its operations:
//
//	m := window.NewManager()
//	wid, _ := m.Open(apps.Terminal)   // creates, or focuses the existing one
//	m.Move(wid, 40, 0)                // y is clamped below the menu bar
//	m.Minimize(wid)                   // focus moves to the topmost survivor
//	m.MinimizeAll()                   // show desktop, nothing focused
//
// Operations that reference a window which no longer exists report false and
// leave the state untouched, so late UI events never corrupt the desktop.
package window
