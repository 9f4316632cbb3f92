package purchase

import (
	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	dompurchase "github.com/Zhima-Mochi/minishop-storefront/internal/domain/purchase"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

const (
	purchaseService = "purchase-service"

	useCaseBuyItem  = "purchase.buy_item"
	useCaseCheckout = "purchase.checkout"

	checkoutMessage = "cart checked out"
)

// Deps bundles what both settlement use cases need.
type Deps struct {
	Store     store.Store
	Locker    application.Locker
	Publisher domoutbox.Publisher
	IDs       application.IDGenerator
	Policy    dompurchase.Policy
	Tel       observability.Observability
}

type settlement struct {
	Deps
	inst    application.Instruments
	settled observability.Counter // settlement_amount_total{kind}
}

func newSettlement(d Deps) settlement {
	return settlement{
		Deps:    d,
		inst:    application.NewInstruments(d.Tel, purchaseService),
		settled: observability.MetricsOf(d.Tel).Counter(observability.MSettledAmount),
	}
}

func (s settlement) completed(run *application.Run, r *dompurchase.Receipt) {
	s.settled.Add(float64(r.Total), observability.L("kind", string(r.Kind)))
	if s.Publisher == nil || s.IDs == nil {
		return
	}
	run.Publish(s.Publisher, dompurchase.NewCompletedEvent(s.IDs.NewID(), r))
}
