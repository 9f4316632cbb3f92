package ledger

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	dompurchase "github.com/Zhima-Mochi/minishop-storefront/internal/domain/purchase"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

const (
	workerService = "ledger-worker"

	useCaseRecord = "ledger.worker.purchase_completed"
)

// Worker records settled purchases into the ledger as they are published.
type Worker struct {
	repo dompurchase.LedgerRepository
	inst application.Instruments
}

func NewWorker(repo dompurchase.LedgerRepository, tel observability.Observability) *Worker {
	return &Worker{repo: repo, inst: application.NewInstruments(tel, workerService)}
}

// Start subscribes the worker, wrapping its handler with the given middleware
// outermost first.
func (w *Worker) Start(sub domoutbox.Subscriber, middleware ...func(domoutbox.Handler) domoutbox.Handler) {
	if sub == nil || w.repo == nil {
		return
	}
	h := domoutbox.Handler(w.HandlePurchaseCompleted)
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	sub.Subscribe(dompurchase.CompletedEvent{}.EventName(), h)
}

func (w *Worker) HandlePurchaseCompleted(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(dompurchase.CompletedEvent)
	if !ok {
		return nil
	}

	ctx, run := w.inst.Begin(ctx, useCaseRecord, "RecordPurchase",
		attribute.String("event", e.EventName()),
		attribute.Int64("user.id", evt.UserID),
	)
	defer func() { run.End(err) }()
	run.Add(
		observability.F("event_id", evt.EventID),
		observability.F("user_id", evt.UserID),
	)

	if err := w.repo.Append(ctx, dompurchase.EntryFromEvent(evt)); err != nil {
		run.Fail("LEDGER_APPEND_FAILED")
		return fmt.Errorf("ledger: append: %w", err)
	}
	return nil
}
