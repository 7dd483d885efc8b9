package tracing

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
)

const (
	// TraceHeader carries the trace id in both directions
	TraceHeader = "X-Trace-ID"
	// SpanHeader carries the caller's span id in, and the request span out
	SpanHeader = "X-Span-ID"

	spanBuffer = 1000
)

// TraceID identifies one request flow
type TraceID string

// SpanID identifies one operation within a trace
type SpanID string

// Span is a single timed operation
type Span struct {
	TraceID    TraceID
	SpanID     SpanID
	ParentID   SpanID
	Name       string
	Service    string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Tags       map[string]string
	Error      error
	StatusCode int
}

// Finish stamps the end time
func (s *Span) Finish() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// SetTag adds a tag to the span
func (s *Span) SetTag(key, value string) {
	s.Tags[key] = value
}

// SetError records a failure
func (s *Span) SetError(err error) {
	s.Error = err
	if s.StatusCode == 0 {
		s.StatusCode = 500
	}
}

// SetStatus sets the HTTP status code
func (s *Span) SetStatus(code int) {
	s.StatusCode = code
}

// Tracer hands out spans and logs them once finished. A nil *Tracer is
// valid: spans are still created so callers can tag them, but Submit
// drops them.
type Tracer struct {
	service string
	logger  *logging.Logger
	spans   chan *Span

	// sink receives every collected span; tests use it
	sink func(Span)

	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// Option customises a tracer
type Option func(*Tracer)

// WithSink passes a copy of every collected span to fn, on the collector
// goroutine
func WithSink(fn func(Span)) Option {
	return func(t *Tracer) { t.sink = fn }
}

// New starts a tracer for service. Close stops its collector.
func New(service string, logger *logging.Logger, opts ...Option) *Tracer {
	if logger == nil {
		logger = logging.NewNop()
	}
	t := &Tracer{
		service: service,
		logger:  logger.Named("trace"),
		spans:   make(chan *Span, spanBuffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	go t.collect()
	return t
}

// StartSpan opens a span that continues the trace in ctx, or starts a new
// trace. The returned context carries the new span as parent for children.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	traceID := GetTraceID(ctx)
	if traceID == "" {
		traceID = TraceID(id.Default().GenerateWithPrefix(id.TracePrefix))
	}

	span := &Span{
		TraceID:   traceID,
		SpanID:    SpanID(id.Default().GenerateWithPrefix(id.SpanPrefix)),
		ParentID:  GetSpanID(ctx),
		Name:      name,
		StartTime: time.Now(),
		Tags:      make(map[string]string),
	}
	if t != nil {
		span.Service = t.service
	}

	ctx = context.WithValue(ctx, traceIDKey, traceID)
	ctx = context.WithValue(ctx, spanIDKey, span.SpanID)
	return span, ctx
}

// Submit hands a finished span to the collector. Spans are dropped when
// the buffer is full or the tracer is closed.
func (t *Tracer) Submit(span *Span) {
	if t == nil {
		return
	}
	select {
	case <-t.done:
		return
	default:
	}
	select {
	case t.spans <- span:
	default:
		t.logger.Warn("Span buffer full, dropping span",
			zap.String("trace_id", string(span.TraceID)),
			zap.String("span_id", string(span.SpanID)),
		)
	}
}

// Close stops the collector after it has drained buffered spans
func (t *Tracer) Close() {
	if t == nil {
		return
	}
	t.stopOnce.Do(func() { close(t.done) })
	<-t.stopped
}

func (t *Tracer) collect() {
	defer close(t.stopped)
	for {
		select {
		case span := <-t.spans:
			t.process(span)
		case <-t.done:
			for {
				select {
				case span := <-t.spans:
					t.process(span)
				default:
					return
				}
			}
		}
	}
}

func (t *Tracer) process(span *Span) {
	fields := []zap.Field{
		zap.String("trace_id", string(span.TraceID)),
		zap.String("span_id", string(span.SpanID)),
		zap.String("operation", span.Name),
		zap.Duration("duration", span.Duration),
	}
	if span.ParentID != "" {
		fields = append(fields, zap.String("parent_id", string(span.ParentID)))
	}
	if span.StatusCode != 0 {
		fields = append(fields, zap.Int("status", span.StatusCode))
	}
	for k, v := range span.Tags {
		fields = append(fields, zap.String(k, v))
	}

	if span.Error != nil {
		t.logger.Warn("Span failed", append(fields, zap.Error(span.Error))...)
	} else {
		t.logger.Debug("Span completed", fields...)
	}

	if t.sink != nil {
		cp := *span
		cp.Tags = maps.Clone(span.Tags)
		t.sink(cp)
	}
}

type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	spanIDKey  contextKey = "span_id"
)

// WithParent returns ctx carrying a trace and parent span received from
// a caller. Empty values are ignored.
func WithParent(ctx context.Context, traceID TraceID, parentID SpanID) context.Context {
	if traceID != "" {
		ctx = context.WithValue(ctx, traceIDKey, traceID)
	}
	if parentID != "" {
		ctx = context.WithValue(ctx, spanIDKey, parentID)
	}
	return ctx
}

// GetTraceID returns the trace id in ctx, or ""
func GetTraceID(ctx context.Context) TraceID {
	if v, ok := ctx.Value(traceIDKey).(TraceID); ok {
		return v
	}
	return ""
}

// GetSpanID returns the current span id in ctx, or ""
func GetSpanID(ctx context.Context) SpanID {
	if v, ok := ctx.Value(spanIDKey).(SpanID); ok {
		return v
	}
	return ""
}

// FormatTrace renders a trace position for log lines
func FormatTrace(traceID TraceID, spanID SpanID) string {
	return fmt.Sprintf("[trace:%s span:%s]", traceID, spanID)
}
