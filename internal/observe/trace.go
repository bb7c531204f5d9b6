package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/MrWong99/aura/internal/observe"

// Span names.
const (
	SpanTurn     = "aura.turn"
	SpanProvider = "aura.provider"
)

func tracer() trace.Tracer {
	return otel.Tracer(instrumentation)
}

// StartTurn opens the span covering one user utterance. The caller ends it.
func StartTurn(ctx context.Context) (context.Context, trace.Span) {
	return tracer().Start(ctx, SpanTurn, trace.WithSpanKind(trace.SpanKindInternal))
}

// StartProviderCall opens a client span for one backend request, labelled with
// the provider kind (see the Kind constants) and its configured name.
func StartProviderCall(ctx context.Context, kind, name string) (context.Context, trace.Span) {
	return tracer().Start(ctx, SpanProvider,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("aura.provider.kind", kind),
			attribute.String("aura.provider.name", name),
		),
	)
}

// EndSpan marks span failed when err is non-nil and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// TraceID returns the hex trace ID of the span in ctx, or "".
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger is slog.Default with trace_id and span_id added when ctx carries a
// span, so turn logs can be matched with exported spans.
func Logger(ctx context.Context) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return slog.Default()
	}
	return slog.Default().With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}
