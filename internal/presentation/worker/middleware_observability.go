package workerpresentation

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

// identified is implemented by events that carry their own id.
type identified interface {
	ID() string
}

// WithEventContext injects a request-scoped logger for background/worker executions.
// Dynamic fields only: trace_id/span_id (if valid), event_id (generated if empty),
// plus caller-provided low-cardinality attributes (e.g. "event", "queue").
func WithEventContext(
	ctx context.Context,
	base observability.Logger,
	tel observability.Observability,
	traceID trace.TraceID,
	spanID trace.SpanID,
	attrs map[string]string,
) context.Context {
	if base == nil {
		base = observability.LoggerOf(tel)
	}

	fields := make([]observability.Field, 0, 4+len(attrs))

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields = append(fields, observability.F("event_id", evtID))

	if traceID.IsValid() {
		fields = append(fields, observability.F("trace_id", traceID.String()))
	}
	if spanID.IsValid() {
		fields = append(fields, observability.F("span_id", spanID.String()))
	}

	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	return logctx.With(ctx, base.With(fields...))
}

// Middleware wraps an event handler so it runs with a logger bound to the
// event and to the trace continued from the publisher.
func Middleware(base observability.Logger, tel observability.Observability) func(domoutbox.Handler) domoutbox.Handler {
	if base == nil {
		base = observability.LoggerOf(tel)
	}
	base = base.With(observability.F("component", "event_worker"))

	return func(next domoutbox.Handler) domoutbox.Handler {
		return func(ctx context.Context, e domoutbox.Event) error {
			attrs := map[string]string{"event": e.EventName()}
			if id, ok := e.(identified); ok {
				attrs["event_id"] = id.ID()
			}
			sc := trace.SpanContextFromContext(ctx)
			ctx = WithEventContext(ctx, base, tel, sc.TraceID(), sc.SpanID(), attrs)

			return next(ctx, e)
		}
	}
}
