package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TraceID returns the W3C trace ID (32 lowercase hex chars) of the active
// span in ctx, or "" when no span is recording, e.g. in unit tests.
// The order status history stores it so an audit row can be joined with the
// full trace.
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
