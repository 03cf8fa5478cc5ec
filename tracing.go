package goserdes

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies spans emitted by this package in a shared trace
// provider; it has no bearing on handle behavior.
const tracerName = "github.com/amient/goserdes"

// startRegistrySpan opens a span around one blocking registry exchange. A
// handle without an explicit TracerProvider uses the otel global provider,
// which defaults to a no-op implementation until the application installs
// one.
func (h *Handle) startRegistrySpan(ctx context.Context, method, path string) (context.Context, trace.Span) {
	tracer := h.tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return tracer.Start(ctx, "serdes.registry."+method,
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		),
	)
}
