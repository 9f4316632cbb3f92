package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/purchase"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

func newTestInstruments(t *testing.T) (Instruments, *prometheus.Registry, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	reg := prometheus.NewRegistry()
	counters, histograms := prometrics.Standard(prometrics.New("", "", reg))
	tel := telemetry.New(nil, zaplogger.Wrap(zap.New(core)), counters, histograms)
	return NewInstruments(tel, "test-service"), reg, logs
}

func TestRunRecordsSuccess(t *testing.T) {
	inst, reg, logs := newTestInstruments(t)

	ctx, run := inst.Begin(context.Background(), "user.get", "GetUser")
	require.NotNil(t, logctx.From(ctx))
	run.Add(observability.F("user_id", 7))
	run.End(nil)

	expected := `
# HELP usecase_requests_total Total number of use case invocations.
# TYPE usecase_requests_total counter
usecase_requests_total{outcome="success",use_case="user.get"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "usecase_requests_total"))

	entries := logs.FilterMessage("use_case_done").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "success", fields["outcome"])
	assert.Equal(t, "OK", fields["status"])
	assert.Equal(t, "user.get", fields["use_case"])
	assert.Equal(t, "test-service", fields["service"])
	assert.EqualValues(t, 7, fields["user_id"])
}

func TestRunDerivesStatusFromError(t *testing.T) {
	inst, _, logs := newTestInstruments(t)

	_, run := inst.Begin(context.Background(), "purchase.buy_item", "BuyItem")
	run.End(fmt.Errorf("wrapped: %w", purchase.ErrInsufficientFunds))

	fields := logs.FilterMessage("use_case_done").All()[0].ContextMap()
	assert.Equal(t, "error", fields["outcome"])
	assert.Equal(t, "INSUFFICIENT_FUNDS", fields["status"])
	assert.Contains(t, fields["error"], "insufficient funds")
}

func TestExplicitFailWins(t *testing.T) {
	inst, _, logs := newTestInstruments(t)

	_, run := inst.Begin(context.Background(), "ledger.worker.purchase_completed", "RecordPurchase")
	run.Fail("LEDGER_APPEND_FAILED")
	run.End(errors.New("disk full"))

	fields := logs.FilterMessage("use_case_done").All()[0].ContextMap()
	assert.Equal(t, "LEDGER_APPEND_FAILED", fields["status"])
}

type publisherFunc func(ctx context.Context, e domoutbox.Event) error

func (f publisherFunc) Publish(ctx context.Context, e domoutbox.Event) error { return f(ctx, e) }

func TestPublishFailureIsNotFatal(t *testing.T) {
	inst, reg, logs := newTestInstruments(t)

	_, run := inst.Begin(context.Background(), "purchase.checkout", "Checkout")
	run.Publish(publisherFunc(func(context.Context, domoutbox.Event) error {
		return errors.New("bus down")
	}), purchase.CompletedEvent{EventID: "e1"})
	run.End(nil)

	fields := logs.FilterMessage("use_case_done").All()[0].ContextMap()
	assert.Equal(t, "success", fields["outcome"])
	assert.Equal(t, "EVENT_PUBLISH_FAILED", fields["status"])
	assert.Equal(t, 1, logs.FilterMessage("event_publish_failed").Len())

	expected := `
# HELP external_requests_total Total number of calls to external peers (event bus, lock service).
# TYPE external_requests_total counter
external_requests_total{endpoint="purchase.completed",outcome="error",peer="outbox"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "external_requests_total"))
}

func TestPublishCarriesRunContext(t *testing.T) {
	inst, _, _ := newTestInstruments(t)

	ctx, run := inst.Begin(context.Background(), "purchase.buy_item", "BuyItem")
	var got context.Context
	run.Publish(publisherFunc(func(ctx context.Context, _ domoutbox.Event) error {
		got = ctx
		return nil
	}), purchase.CompletedEvent{})
	run.End(nil)

	require.NotNil(t, got)
	_, hasDeadline := got.Deadline()
	assert.True(t, hasDeadline)
	assert.Equal(t, logctx.From(ctx), logctx.From(got))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, "USER_NOT_FOUND", statusFor(fmt.Errorf("x: %w", user.ErrNotFound)))
	assert.Equal(t, "VALIDATION_FAILED", statusFor(user.ErrInvalid))
	assert.Equal(t, "CONTEXT_CANCELED", statusFor(context.Canceled))
	assert.Equal(t, "LOCK_UNAVAILABLE", statusFor(fmt.Errorf("user:1: %w", ErrLockNotAcquired)))
	assert.Equal(t, "INTERNAL", statusFor(errors.New("boom")))
}

type countingLocker struct {
	held    map[string]bool
	err     error
	release int
}

func (l *countingLocker) Lock(_ context.Context, key string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.held[key] = true
	return func() {
		l.release++
		delete(l.held, key)
	}, nil
}

func TestWithLockReleasesAfterFn(t *testing.T) {
	l := &countingLocker{held: map[string]bool{}}
	key := UserLockKey(42)
	assert.Equal(t, "user:42", key)

	err := WithLock(context.Background(), l, key, func(context.Context) error {
		assert.True(t, l.held[key])
		return errors.New("fn failed")
	})
	assert.EqualError(t, err, "fn failed")
	assert.Equal(t, 1, l.release)
	assert.Empty(t, l.held)
}

func TestWithLockSkipsFnWhenLockFails(t *testing.T) {
	l := &countingLocker{held: map[string]bool{}, err: ErrLockNotAcquired}
	called := false
	err := WithLock(context.Background(), l, "user:1", func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrLockNotAcquired)
	assert.False(t, called)
}
