package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader echoes the active trace ID back to the client.
const TraceIDHeader = "X-Trace-ID"

// Tracing creates HTTP middleware that instruments requests with OpenTelemetry spans.
// It uses W3C Trace Context propagation and sets TraceIDHeader on the response when
// a span is recording. Place it after RequestID in the chain.
func Tracing(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		withHeader := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if traceID := GetTraceID(r); traceID != "" {
				w.Header().Set(TraceIDHeader, traceID)
			}
			next.ServeHTTP(w, r)
		})
		return otelhttp.NewHandler(withHeader, serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				// e.g. "POST /api/v1/workflow/transitions"
				return r.Method + " " + r.URL.Path
			}),
		)
	}
}

// GetTraceID extracts the trace ID from the request context.
// Returns empty string if no trace is active.
func GetTraceID(r *http.Request) string {
	spanCtx := trace.SpanContextFromContext(r.Context())
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}
