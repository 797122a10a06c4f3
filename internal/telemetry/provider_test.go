package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestWithHTTPRoute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products/{id}", WithHTTPRoute(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ctx, span := tp.Tracer("test").Start(context.Background(), "request")
	req := httptest.NewRequest(http.MethodGet, "/products/lamp", nil).WithContext(ctx)
	mux.ServeHTTP(httptest.NewRecorder(), req)
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	var route string
	for _, kv := range ended[0].Attributes() {
		if kv.Key == attribute.Key("http.route") {
			route = kv.Value.AsString()
		}
	}
	if route != "GET /products/{id}" {
		t.Errorf("expected http.route %q, got %q", "GET /products/{id}", route)
	}
}

func TestSpanNameFormatterAdminRoute(t *testing.T) {
	mux := http.NewServeMux()
	var name string
	mux.HandleFunc("PUT /admin/orders", func(w http.ResponseWriter, r *http.Request) {
		name = SpanNameFormatter("", r)
	})
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/admin/orders", nil))
	if name != "PUT /admin/orders" {
		t.Errorf("expected pattern span name, got %q", name)
	}

	unmatched := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	if got := SpanNameFormatter("", unmatched); got != "GET /nowhere" {
		t.Errorf("expected method and path, got %q", got)
	}
}

func TestNewSampler(t *testing.T) {
	cases := []struct {
		ratio   float64
		sampled bool
	}{
		{1, true},
		{2, true},
		{0, false},
		{-1, false},
	}

	for _, c := range cases {
		tp := trace.NewTracerProvider(trace.WithSampler(newSampler(c.ratio)))
		_, span := tp.Tracer("test").Start(context.Background(), "root")
		if got := span.SpanContext().IsSampled(); got != c.sampled {
			t.Errorf("ratio %v: expected sampled=%v, got %v", c.ratio, c.sampled, got)
		}
		span.End()
		_ = tp.Shutdown(context.Background())
	}
}
