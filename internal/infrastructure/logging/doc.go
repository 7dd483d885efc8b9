// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components take a *Logger and derive a child with Named, so log lines
// carry the component name ("window", "ws", "installer", ...).
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Named("server").Info("Server starting", zap.String("port", "8000"))
//	logger.Error("Failed to upgrade connection", zap.Error(err))
package logging
