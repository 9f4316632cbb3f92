package workerpresentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/purchase"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

func TestMiddlewareBindsEventFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zaplogger.Wrap(zap.New(core))

	var seen bool
	h := Middleware(base, nil)(func(ctx context.Context, e domoutbox.Event) error {
		logctx.From(ctx).Info("handled")
		seen = true
		return nil
	})

	require.NoError(t, h(context.Background(), purchase.CompletedEvent{EventID: "evt-1"}))
	require.True(t, seen)

	entries := logs.FilterMessage("handled").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "evt-1", fields["event_id"])
	assert.Equal(t, "purchase.completed", fields["event"])
	assert.Equal(t, "event_worker", fields["component"])
	assert.NotContains(t, fields, "trace_id")
}

func TestMiddlewarePassesHandlerError(t *testing.T) {
	boom := errors.New("boom")
	h := Middleware(nil, nil)(func(context.Context, domoutbox.Event) error {
		return boom
	})

	assert.ErrorIs(t, h(context.Background(), purchase.CompletedEvent{}), boom)
}

func TestWithEventContextGeneratesEventID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := WithEventContext(context.Background(), zaplogger.Wrap(zap.New(core)), nil, trace.TraceID{}, trace.SpanID{}, nil)

	logctx.From(ctx).Info("x")
	fields := logs.All()[0].ContextMap()
	assert.NotEmpty(t, fields["event_id"])
}
