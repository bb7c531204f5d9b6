package observe

import (
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

// TraceHeader carries the trace ID of a diagnostics response.
const TraceHeader = "X-Trace-ID"

// diagnosticRoutes bounds the path label; anything else is "other".
var diagnosticRoutes = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/statusz": true,
	"/metrics": true,
}

func routeLabel(path string) string {
	if diagnosticRoutes[path] {
		return path
	}
	return "other"
}

// Diagnostics instruments the diagnostics server. otelhttp continues any W3C
// traceparent and opens the server span; inside it the handler is timed into
// [Metrics.HTTPRequestDuration] and the trace ID is echoed in [TraceHeader].
// Scrapes and health checks are frequent, so only error responses are logged
// above debug.
func Diagnostics(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		measured := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			traceID := TraceID(ctx)
			if traceID != "" {
				w.Header().Set(TraceHeader, traceID)
			}

			snoop := httpsnoop.CaptureMetrics(next, w, r)

			route := routeLabel(r.URL.Path)
			m.HTTPRequestDuration.Record(ctx, snoop.Duration.Seconds(),
				metric.WithAttributes(Attr("method", r.Method), Attr("path", route)))

			level := slog.LevelDebug
			if snoop.Code >= http.StatusBadRequest {
				level = slog.LevelWarn
			}
			Logger(ctx).LogAttrs(ctx, level, "diagnostics request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", snoop.Code),
				slog.Int64("bytes", snoop.Written),
				slog.Duration("duration", snoop.Duration),
			)
		})

		return otelhttp.NewHandler(measured, "diagnostics",
			otelhttp.WithPropagators(propagation.TraceContext{}),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + routeLabel(r.URL.Path)
			}),
		)
	}
}
