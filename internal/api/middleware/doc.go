// Package middleware provides the gin middleware stack of the desktop API.
//
// Middleware stack includes:
//   - RequestID: req_ ULID per request, echoed in X-Request-ID
//   - AccessLog: one zap line per request, level chosen by status
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: Per-IP token bucket rate limiting with idle eviction
//   - Gzip: pooled klauspost/compress writers, skipped for WebSocket upgrades
//
// Example Usage:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.AccessLog(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
//	router.Use(middleware.Gzip(middleware.DefaultGzipConfig()))
package middleware
