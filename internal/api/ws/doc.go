// Package ws streams a desktop session over WebSocket.
//
// The server pushes a "desktop" frame (scene, layout, dock and menu bar)
// whenever the window list changes, coalescing bursts such as a drag into
// the latest state. Chat messages, system status, installer and updater
// state are pushed as they change.
//
// Message Types (Client → Server):
//   - pointer: {window_id, event} drives the gesture tracker
//   - window: {op, window_id | app_id, x, y, width, height} window operation;
//     op "minimize_all" takes no window id
//   - ping: keep-alive ping
//
// Message Types (Server → Client):
//   - hello: connection and session ids
//   - desktop: current view models
//   - pointer_result, ack: replies carrying the client seq
//   - chat_message, status, installer, update: pushed state
//   - pong, error
//
// Example Usage:
//
//	handler := ws.NewHandler(sessions, logger).WithMetrics(metrics)
//	router.GET("/sessions/:id/stream", handler.HandleConnection)
package ws
