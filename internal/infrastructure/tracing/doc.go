/*
Package tracing provides lightweight request tracing for the desktop API.

Every HTTP request gets a span; handlers open child spans around the
operations worth timing on their own (window operations, pointer events).
Finished spans are logged by a background collector through zap, so a
slow drag or a stuck open can be followed from the browser's X-Trace-ID
to the log lines it produced.

# Usage

	tracer := tracing.New("moltos-desktop", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(c.Request.Context(), "window.move")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

# Propagation

  - X-Trace-ID: identifies the whole flow; continued when the client sends one
  - X-Span-ID: the caller's span on the way in, the request span on the way out

Span collection is buffered (1000 spans); a full buffer drops spans
rather than blocking requests.
*/
package tracing
