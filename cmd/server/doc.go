// Package main is the entry point for the MoltOS desktop backend.
//
// The server keeps one simulated desktop per browser session: windows,
// gestures, the dock and menu bar, the panel apps, plus the shared status,
// installer and updater simulations.
//
// Configuration:
//   - Environment variables (see internal/infrastructure/config)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./moltos-server --port 8000 --storage /var/lib/moltos
//
//	# Development mode (colored logs, debug level)
//	./moltos-server --dev
//
//	# Show the configuration that would be used
//	./moltos-server config
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
