/*
Package monitoring provides Prometheus metrics for the desktop backend.

# Overview

Each Metrics value owns a private registry. The server mounts its Handler at
/metrics and wires the HTTP middleware, window observers, the WebSocket hub
and the simulated services into it.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metrics.RecordWindowOp("opened", "terminal")

	timer := monitoring.NewTimer(metrics, "installer", "install")
	// ... perform operation ...
	timer.Stop("success")
*/
package monitoring
