package logctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

type recordingLogger struct {
	fields []observability.Field
}

func (l *recordingLogger) With(fields ...observability.Field) observability.Logger {
	return &recordingLogger{fields: append(append([]observability.Field(nil), l.fields...), fields...)}
}
func (l *recordingLogger) Debug(string, ...observability.Field) {}
func (l *recordingLogger) Info(string, ...observability.Field)  {}
func (l *recordingLogger) Warn(string, ...observability.Field)  {}
func (l *recordingLogger) Error(string, ...observability.Field) {}

func TestFromOrFallsBack(t *testing.T) {
	fallback := &recordingLogger{}
	assert.Same(t, fallback, FromOr(context.Background(), fallback))
	assert.NotNil(t, FromOr(context.Background(), nil))
	assert.Nil(t, From(context.Background()))
}

func TestEnrichStoresLoggerOnContext(t *testing.T) {
	base := &recordingLogger{fields: []observability.Field{observability.F("request_id", "r-1")}}
	ctx := With(context.Background(), base)

	ctx, logger := Enrich(ctx, nil, observability.F("use_case", "cart.create"))

	got, ok := From(ctx).(*recordingLogger)
	require.True(t, ok)
	assert.Same(t, logger, From(ctx))
	assert.Equal(t, []observability.Field{
		observability.F("request_id", "r-1"),
		observability.F("use_case", "cart.create"),
	}, got.fields)
}

func TestEnrichUsesFallbackWithoutContextLogger(t *testing.T) {
	fallback := &recordingLogger{}

	ctx, _ := Enrich(context.Background(), fallback, observability.F("component", "lock"))

	got, ok := From(ctx).(*recordingLogger)
	require.True(t, ok)
	assert.Equal(t, []observability.Field{observability.F("component", "lock")}, got.fields)
	assert.Empty(t, fallback.fields)
}
