package telemetry

import (
	"context"
	"io"
	"log/slog"

	oteltrace "go.opentelemetry.io/otel/trace"
)

// NewLogger returns a JSON logger that stamps trace_id and span_id on records
// logged with a context carrying a valid span.
func NewLogger(w io.Writer, service string) *slog.Logger {
	handler := &traceHandler{Handler: slog.NewJSONHandler(w, nil)}
	return slog.New(handler).With("service", service)
}

type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := oteltrace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, record)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}
