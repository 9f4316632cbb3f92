package outbox

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

var ErrClosed = errors.New("outbox: bus stopped")

const (
	componentOutbox = "outbox"

	defaultQueueSize      = 1024
	defaultConcurrency    = 8
	defaultHandlerTimeout = 30 * time.Second
)

type Options struct {
	QueueSize      int
	Concurrency    int // per-event handler fanout cap
	HandlerTimeout time.Duration
}

// Bus is an in-memory event bus for outbox-like fanout. It is not durable:
// events still queued when the process dies are lost.
type Bus struct {
	mu        sync.RWMutex
	subs      map[string][]domoutbox.Handler
	queue     chan envelope
	done      chan struct{} // closed first on Stop; wakes blocked publishers
	drain     chan struct{} // closed once no publisher can enqueue any more
	stopped   chan struct{}
	sendMu    sync.RWMutex
	closed    bool
	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
	opts      Options
	log       observability.Logger
}

// envelope keeps the publisher's span so handlers continue the same trace.
type envelope struct {
	event domoutbox.Event
	span  trace.SpanContext
}

var _ domoutbox.Bus = (*Bus)(nil)

func NewBus(logger observability.Logger, opts Options) *Bus {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = defaultHandlerTimeout
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Bus{
		subs:    make(map[string][]domoutbox.Handler),
		queue:   make(chan envelope, opts.QueueSize),
		done:    make(chan struct{}),
		drain:   make(chan struct{}),
		stopped: make(chan struct{}),
		opts:    opts,
		log:     logger.With(observability.F("component", componentOutbox)),
	}
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		b.mu.Lock()
		b.started = true
		b.mu.Unlock()

		go b.dispatchLoop(context.WithoutCancel(ctx))
		logctx.FromOr(ctx, b.log).Info("event_bus_started")
	})
}

// Stop refuses new events, lets the dispatcher drain what is queued and waits
// for it until ctx ends.
func (b *Bus) Stop(ctx context.Context) {
	b.stopOnce.Do(func() {
		close(b.done)
		b.sendMu.Lock()
		b.closed = true
		b.sendMu.Unlock()
		close(b.drain)

		b.mu.RLock()
		started := b.started
		b.mu.RUnlock()

		logger := logctx.FromOr(ctx, b.log)
		if started {
			select {
			case <-b.stopped:
			case <-ctx.Done():
				logger.Warn("event_bus_stop_timeout", observability.F("queued", len(b.queue)))
				return
			}
		}
		logger.Info("event_bus_stopped")
	})
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	// Holding sendMu keeps the final drain from starting mid-send, so an
	// accepted event is always dispatched.
	b.sendMu.RLock()
	defer b.sendMu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	env := envelope{event: e, span: trace.SpanContextFromContext(ctx)}
	select {
	case b.queue <- env:
		logctx.FromOr(ctx, b.log).Debug("event_enqueued", observability.F("event", e.EventName()))
		return nil
	case <-b.done:
		return ErrClosed
	case <-ctx.Done():
		logctx.FromOr(ctx, b.log).Warn("event_enqueue_aborted",
			observability.F("event", e.EventName()),
			observability.F("error", ctx.Err()),
		)
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.stopped)
	for {
		select {
		case env := <-b.queue:
			b.fanout(ctx, env)
		case <-b.drain:
			for {
				select {
				case env := <-b.queue:
					b.fanout(ctx, env)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) fanout(ctx context.Context, env envelope) {
	e := env.event
	name := e.EventName()

	b.mu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	b.mu.RUnlock()

	logger := b.log.With(observability.F("event", name))
	if len(handlers) == 0 {
		logger.Debug("event_dropped_no_subscriber")
		return
	}

	if env.span.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, env.span)
	}
	ctx = logctx.With(ctx, logger)

	sem := make(chan struct{}, b.opts.Concurrency)
	var wg sync.WaitGroup

	for _, h := range handlers {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("event_handler_panic",
						observability.F("panic", r),
						observability.F("stack", string(debug.Stack())),
					)
				}
				<-sem
				wg.Done()
			}()

			hctx, cancel := context.WithTimeout(ctx, b.opts.HandlerTimeout)
			defer cancel()
			if err := h(hctx, e); err != nil {
				logger.Warn("event_handler_error", observability.F("error", err))
			}
		}()
	}

	wg.Wait()
	logger.Debug("event_fanned_out", observability.F("handlers", len(handlers)))
}
