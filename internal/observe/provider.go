package observe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Span exporters accepted by [TelemetryOptions.Exporter].
const (
	ExporterNone   = ""
	ExporterStdout = "stdout"
)

// TelemetryOptions describes the process for [Setup].
type TelemetryOptions struct {
	// AssistantName becomes the service name, lower-cased with spaces
	// replaced by dashes. Empty means "aura".
	AssistantName string

	// Version is reported as service.version.
	Version string

	// Exporter is ExporterNone or ExporterStdout.
	Exporter string

	// SpanWriter receives stdout spans. Defaults to os.Stderr so spans never
	// interleave with the conversation on stdout.
	SpanWriter io.Writer

	// Registerer receives the Prometheus bridge collectors. Defaults to
	// prometheus.DefaultRegisterer, which /metrics serves.
	Registerer prometheus.Registerer
}

// Telemetry owns the global meter and tracer providers.
type Telemetry struct {
	meters *sdkmetric.MeterProvider
	traces *sdktrace.TracerProvider
}

// ServiceName derives the telemetry service name from an assistant name.
func ServiceName(assistant string) string {
	name := strings.ToLower(strings.Join(strings.Fields(assistant), "-"))
	if name == "" {
		return "aura"
	}
	return name
}

// Setup builds the meter and tracer providers and installs them as the OTel
// globals. Metrics go to Prometheus; spans are recorded for log correlation
// and exported only when opts.Exporter asks for it.
func Setup(ctx context.Context, opts TelemetryOptions) (*Telemetry, error) {
	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName(opts.AssistantName)),
			semconv.ServiceVersion(opts.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: build resource: %w", err)
	}

	spanExporter, err := newSpanExporter(opts)
	if err != nil {
		return nil, err
	}

	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	bridge, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("observe: prometheus bridge: %w", err)
	}

	t := &Telemetry{
		meters: sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(bridge)),
	}
	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if spanExporter != nil {
		traceOpts = append(traceOpts, sdktrace.WithBatcher(spanExporter))
	}
	t.traces = sdktrace.NewTracerProvider(traceOpts...)

	otel.SetMeterProvider(t.meters)
	otel.SetTracerProvider(t.traces)
	return t, nil
}

func newSpanExporter(opts TelemetryOptions) (sdktrace.SpanExporter, error) {
	switch opts.Exporter {
	case ExporterNone:
		return nil, nil
	case ExporterStdout:
		w := opts.SpanWriter
		if w == nil {
			w = os.Stderr
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("observe: stdout exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("observe: unknown trace exporter %q", opts.Exporter)
	}
}

// Shutdown flushes pending spans and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(t.traces.Shutdown(ctx), t.meters.Shutdown(ctx))
}
