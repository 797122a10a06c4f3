package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// TracerConfig describes where spans go and how many are kept.
type TracerConfig struct {
	ServiceName    string
	ServiceVersion string
	// Endpoint is the OTLP gRPC collector address.
	Endpoint string
	// SampleRatio is the fraction of new traces recorded. Spans with a
	// sampled remote parent are always recorded.
	SampleRatio float64
}

// InitTracerProvider installs a global TracerProvider exporting over OTLP
// gRPC and the W3C trace context and baggage propagators.
func InitTracerProvider(ctx context.Context, cfg TracerConfig) (func(context.Context) error, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter for %s: %w", cfg.Endpoint, err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithSampler(newSampler(cfg.SampleRatio)),
		trace.WithResource(newResource(cfg.ServiceName, cfg.ServiceVersion)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

func newSampler(ratio float64) trace.Sampler {
	switch {
	case ratio >= 1:
		return trace.ParentBased(trace.AlwaysSample())
	case ratio <= 0:
		return trace.ParentBased(trace.NeverSample())
	default:
		return trace.ParentBased(trace.TraceIDRatioBased(ratio))
	}
}

// WithHTTPRoute tags the current span with the matched mux pattern.
func WithHTTPRoute(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Pattern != "" {
			span := oteltrace.SpanFromContext(r.Context())
			span.SetAttributes(semconv.HTTPRoute(r.Pattern))
		}
		h(w, r)
	}
}

// SpanNameFormatter names server spans after the matched mux pattern.
func SpanNameFormatter(_ string, r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return r.Method + " " + r.URL.Path
}
