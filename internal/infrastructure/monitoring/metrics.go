package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Window manager metrics
	WindowOps     *prometheus.CounterVec
	WindowsOpen   prometheus.Gauge
	GestureEvents *prometheus.CounterVec

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsCreated prometheus.Counter

	// Simulated service metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot
	mu       sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	WindowsOpen       int64   `json:"windows_open"`
	SessionsActive    int64   `json:"sessions_active"`
	ActiveConnections int64   `json:"active_connections"`
	AvgDurationSec    float64 `json:"avg_duration_seconds"`
	UptimeSec         float64 `json:"uptime_seconds"`

	totalDuration float64
}

// NewMetrics creates a metrics collector on its own registry, so several
// collectors can coexist in one process (tests create one per server).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moltos_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moltos_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moltos_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		WindowOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moltos_window_operations_total",
				Help: "Window manager mutations by kind",
			},
			[]string{"op", "app"},
		),
		WindowsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "moltos_windows_open",
				Help: "Windows currently open across all sessions",
			},
		),
		GestureEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moltos_gesture_events_total",
				Help: "Pointer events handled by gesture handlers",
			},
			[]string{"action"},
		),

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "moltos_sessions_active",
				Help: "Number of live desktop sessions",
			},
		),
		SessionsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "moltos_sessions_created_total",
				Help: "Total number of desktop sessions created",
			},
		),

		ServiceCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moltos_service_calls_total",
				Help: "Calls into simulated services",
			},
			[]string{"service", "method", "status"},
		),
		ServiceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moltos_service_duration_seconds",
				Help:    "Simulated service call duration in seconds",
				Buckets: []float64{.01, .1, .5, 1, 2.5, 5, 10},
			},
			[]string{"service", "method"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "moltos_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moltos_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "moltos_uptime_seconds",
			Help: "Backend uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the registry holding every collector
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordWindowOp records a window manager mutation
func (m *Metrics) RecordWindowOp(op, app string) {
	m.WindowOps.WithLabelValues(op, app).Inc()
	switch op {
	case "opened":
		m.addWindows(1)
	case "closed":
		m.addWindows(-1)
	}
}

// ReleaseWindows drops n windows from the open gauge when a session ends
func (m *Metrics) ReleaseWindows(n int) {
	m.addWindows(-n)
}

func (m *Metrics) addWindows(delta int) {
	m.WindowsOpen.Add(float64(delta))
	m.mu.Lock()
	m.snapshot.WindowsOpen += int64(delta)
	m.mu.Unlock()
}

// RecordGesture records a handled pointer event
func (m *Metrics) RecordGesture(action string) {
	m.GestureEvents.WithLabelValues(action).Inc()
}

// RecordServiceCall records a simulated service call
func (m *Metrics) RecordServiceCall(service, method, status string, duration time.Duration) {
	m.ServiceCalls.WithLabelValues(service, method, status).Inc()
	m.ServiceDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// SetSessionsActive sets the number of live sessions
func (m *Metrics) SetSessionsActive(count int) {
	m.SessionsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.SessionsActive = int64(count)
	m.mu.Unlock()
}

// IncSessionsCreated increments the sessions created counter
func (m *Metrics) IncSessionsCreated() {
	m.SessionsCreated.Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns current values for the JSON API
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.TotalRequests > 0 {
		s.AvgDurationSec = s.totalDuration / float64(s.TotalRequests)
	}
	s.UptimeSec = time.Since(m.startTime).Seconds()
	return s
}
