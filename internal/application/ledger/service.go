package ledger

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	dompurchase "github.com/Zhima-Mochi/minishop-storefront/internal/domain/purchase"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

const (
	historyService = "ledger-service"
	useCaseHistory = "ledger.history"
)

// History reads a user's recorded purchases.
type History struct {
	repo dompurchase.LedgerRepository
	inst application.Instruments
}

func NewHistory(repo dompurchase.LedgerRepository, tel observability.Observability) *History {
	return &History{repo: repo, inst: application.NewInstruments(tel, historyService)}
}

func (h *History) List(ctx context.Context, userID int64) (_ []dompurchase.Entry, err error) {
	ctx, run := h.inst.Begin(ctx, useCaseHistory, "PurchaseHistory", attribute.Int64("user.id", userID))
	defer func() { run.End(err) }()

	entries, err := h.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	run.Add(observability.F("count", len(entries)))
	return entries, nil
}
