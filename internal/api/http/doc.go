// Package http exposes the desktop over JSON REST.
//
// Global routes cover the application catalog, sessions, the system status,
// the setup flag, the MoltBot installer and the updater. Everything a single
// browser tab owns lives under /sessions/:id: windows, pointer input, the
// dock, menu bar and scene view models, and the application panels.
//
// Window operations on ids that no longer exist answer 200 with
// applied=false. Unknown sessions answer 404 and unknown applications 400.
package http
