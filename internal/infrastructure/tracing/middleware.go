package tracing

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// maxHeaderID bounds ids accepted from callers; longer values start a
// fresh trace
const maxHeaderID = 128

// HTTPMiddleware opens a span per request. An X-Trace-ID (and optional
// X-Span-ID) sent by the browser is continued; the response echoes the
// trace id and the request span id.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := TraceID(headerID(c, TraceHeader))
		parentID := SpanID(headerID(c, SpanHeader))
		if traceID == "" {
			parentID = ""
		}
		ctx := WithParent(c.Request.Context(), traceID, parentID)

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+name)
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.path", c.Request.URL.Path)

		c.Request = c.Request.WithContext(ctx)
		c.Header(TraceHeader, string(span.TraceID))
		c.Header(SpanHeader, string(span.SpanID))

		c.Next()

		span.SetStatus(c.Writer.Status())
		span.SetTag("http.status", strconv.Itoa(c.Writer.Status()))
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}
		span.Finish()
		tracer.Submit(span)
	}
}

func headerID(c *gin.Context, name string) string {
	v := c.GetHeader(name)
	if len(v) > maxHeaderID {
		return ""
	}
	return v
}
