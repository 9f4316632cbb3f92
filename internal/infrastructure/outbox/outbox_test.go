package outbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/goleak"

	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type pinged struct{ n int }

func (pinged) EventName() string { return "test.pinged" }

func TestPublishFansOutToEverySubscriber(t *testing.T) {
	bus := NewBus(nil, Options{})
	var got int32
	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		bus.Subscribe("test.pinged", func(_ context.Context, e domoutbox.Event) error {
			atomic.AddInt32(&got, int32(e.(pinged).n))
			wg.Done()
			return nil
		})
	}

	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), pinged{n: 3}))
	wg.Wait()
	bus.Stop(context.Background())

	assert.Equal(t, int32(6), got)
}

func TestStopDrainsQueuedEvents(t *testing.T) {
	bus := NewBus(nil, Options{})
	var got int32
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
		atomic.AddInt32(&got, 1)
		return nil
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(context.Background(), pinged{}))
	}
	bus.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	bus.Stop(ctx)

	assert.Equal(t, int32(5), atomic.LoadInt32(&got))
}

func TestEveryAcceptedEventIsDispatchedWhenStopRaces(t *testing.T) {
	for round := 0; round < 20; round++ {
		bus := NewBus(nil, Options{QueueSize: 64})
		var handled int32
		bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
			atomic.AddInt32(&handled, 1)
			return nil
		})
		bus.Start(context.Background())

		var accepted int32
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for j := 0; j < 20; j++ {
					err := bus.Publish(context.Background(), pinged{})
					if err == nil {
						atomic.AddInt32(&accepted, 1)
						continue
					}
					assert.ErrorIs(t, err, ErrClosed)
					return
				}
			}()
		}
		close(start)
		bus.Stop(context.Background())
		wg.Wait()

		assert.Equal(t, atomic.LoadInt32(&accepted), atomic.LoadInt32(&handled), "round %d", round)
	}
}

func TestPublishAfterStopFails(t *testing.T) {
	bus := NewBus(nil, Options{})
	bus.Start(context.Background())
	bus.Stop(context.Background())
	bus.Stop(context.Background())

	assert.ErrorIs(t, bus.Publish(context.Background(), pinged{}), ErrClosed)
}

func TestPublishHonoursContextWhenQueueFull(t *testing.T) {
	bus := NewBus(nil, Options{QueueSize: 1})
	require.NoError(t, bus.Publish(context.Background(), pinged{}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := bus.Publish(ctx, pinged{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	bus.Stop(context.Background())
}

func TestHandlerPanicAndErrorDoNotStopDispatch(t *testing.T) {
	bus := NewBus(nil, Options{})
	done := make(chan struct{})
	bus.Subscribe("test.pinged", func(_ context.Context, e domoutbox.Event) error {
		switch e.(pinged).n {
		case 0:
			panic("boom")
		case 1:
			return errors.New("handler failed")
		default:
			close(done)
			return nil
		}
	})
	bus.Start(context.Background())
	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(context.Background(), pinged{n: i}))
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("third event was not dispatched")
	}
	bus.Stop(context.Background())
}

func TestHandlerContinuesPublisherTrace(t *testing.T) {
	bus := NewBus(nil, Options{})
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{2},
		TraceFlags: trace.FlagsSampled,
	})
	seen := make(chan trace.SpanContext, 1)
	bus.Subscribe("test.pinged", func(ctx context.Context, _ domoutbox.Event) error {
		seen <- trace.SpanContextFromContext(ctx)
		return nil
	})
	bus.Start(context.Background())

	require.NoError(t, bus.Publish(trace.ContextWithSpanContext(context.Background(), sc), pinged{}))
	got := <-seen
	bus.Stop(context.Background())

	assert.Equal(t, sc.TraceID(), got.TraceID())
	assert.True(t, got.IsRemote())
}
