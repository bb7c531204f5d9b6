// Package observe provides the observability primitives of Aura: OpenTelemetry
// metrics, tracing helpers, trace-aware logging, and HTTP middleware for the
// diagnostics server.
//
// Metrics go through the OpenTelemetry Metrics API and are exposed for
// Prometheus scraping via [Setup]. [DefaultMetrics] returns a shared
// instance bound to the global meter provider; tests should call [NewMetrics]
// with their own [metric.MeterProvider].
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Aura metrics.
const meterName = "github.com/MrWong99/aura"

// Provider kinds used as the "kind" attribute on provider metrics.
const (
	KindLLM       = "llm"
	KindSTT       = "stt"
	KindTTS       = "tts"
	KindImage     = "image"
	KindCaptioner = "captioner"
	KindUploader  = "uploader"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// STTDuration tracks speech-to-text transcription latency.
	STTDuration metric.Float64Histogram

	// LLMDuration tracks chat completion latency.
	LLMDuration metric.Float64Histogram

	// TTSDuration tracks speech synthesis latency (playback excluded).
	TTSDuration metric.Float64Histogram

	// ImageDuration tracks image generation, upload, and captioning latency.
	ImageDuration metric.Float64Histogram

	// Turns counts handled user turns. Attributes: intent, language.
	Turns metric.Int64Counter

	// ProviderRequests counts provider API calls. Attributes: provider,
	// kind, status.
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts failed provider calls. Attributes: provider, kind.
	ProviderErrors metric.Int64Counter

	// HTTPRequestDuration tracks diagnostics server request time.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets are histogram bucket boundaries in seconds. Image generation
// routinely takes tens of seconds, hence the long tail.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&met.STTDuration, "aura.stt.duration", "Latency of speech-to-text transcription."},
		{&met.LLMDuration, "aura.llm.duration", "Latency of chat completions."},
		{&met.TTSDuration, "aura.tts.duration", "Latency of speech synthesis."},
		{&met.ImageDuration, "aura.image.duration", "Latency of image generation, upload, and captioning."},
	}
	for _, h := range histograms {
		if *h.dst, err = m.Float64Histogram(h.name,
			metric.WithDescription(h.desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(latencyBuckets...),
		); err != nil {
			return nil, err
		}
	}

	if met.Turns, err = m.Int64Counter("aura.turns",
		metric.WithDescription("Total handled user turns by intent and language."),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("aura.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("aura.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("aura.http.request.duration",
		metric.WithDescription("Diagnostics HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails, which does not happen with the global provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest increments the provider request counter.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError increments the provider error counter.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordTurn increments the turn counter.
func (m *Metrics) RecordTurn(ctx context.Context, intent, language string) {
	m.Turns.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("intent", intent),
			attribute.String("language", language),
		),
	)
}

// RecordCall records the outcome of one provider call started at start: the
// latency on h, a request with status "ok" or "error", and an error count
// when err is non-nil.
func (m *Metrics) RecordCall(ctx context.Context, h metric.Float64Histogram, provider, kind string, start time.Time, err error) {
	h.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("provider", provider)),
	)
	status := "ok"
	if err != nil {
		status = "error"
		m.RecordProviderError(ctx, provider, kind)
	}
	m.RecordProviderRequest(ctx, provider, kind, status)
}
