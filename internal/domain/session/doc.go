// Package session owns the live desktop sessions of the backend.
//
// Each browser tab gets its own session, and with it its own window
// manager, gesture tracker and panel workspace. Sessions live in memory
// only; nothing from a desktop is written to disk. Idle sessions are
// pruned so abandoned tabs do not pin memory.
//
// Example Usage:
//
//	mgr := session.NewManager(factory, session.WithMaxSessions(256))
//	s, err := mgr.Create()
//	d := s.Desktop
//	mgr.Delete(s.ID)
package session
