package purchase

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/item"
	dompurchase "github.com/Zhima-Mochi/minishop-storefront/internal/domain/purchase"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

type BuyItemInput struct {
	UserID int64
	ItemID int64
}

// BuyItemUseCase debits the price of one item from the buyer's balance.
// Stock and ownership are left untouched.
type BuyItemUseCase struct {
	settlement
}

var _ application.UseCase[BuyItemInput, *dompurchase.Receipt] = (*BuyItemUseCase)(nil)

func NewBuyItemUseCase(d Deps) *BuyItemUseCase {
	return &BuyItemUseCase{settlement: newSettlement(d)}
}

func (uc *BuyItemUseCase) Execute(ctx context.Context, cmd BuyItemInput) (_ *dompurchase.Receipt, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseBuyItem, "BuyItem",
		attribute.Int64("user.id", cmd.UserID),
		attribute.Int64("item.id", cmd.ItemID),
	)
	defer func() { run.End(err) }()

	var receipt *dompurchase.Receipt
	err = application.WithLock(ctx, uc.Locker, application.UserLockKey(cmd.UserID), func(ctx context.Context) error {
		return uc.Store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
			buyer, getErr := tx.Users().GetForUpdate(ctx, cmd.UserID)
			if getErr != nil {
				return getErr
			}
			target, getErr := tx.Items().Get(ctx, cmd.ItemID)
			if getErr != nil {
				return getErr
			}
			if checkErr := uc.Policy.Check(buyer, target.Price, []*item.Item{target}); checkErr != nil {
				return checkErr
			}
			buyer.Balance = dompurchase.Debit(buyer.Balance, target.Price)
			if updErr := tx.Users().Update(ctx, buyer); updErr != nil {
				return updErr
			}
			receipt = &dompurchase.Receipt{
				UserID:  buyer.ID,
				Kind:    dompurchase.KindItem,
				ItemIDs: []int64{target.ID},
				Total:   target.Price,
				Balance: buyer.Balance,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	run.Span().AddEvent("purchase.settled", trace.WithAttributes(
		attribute.Int64("purchase.total", receipt.Total),
		attribute.Float64("user.balance", receipt.Balance),
	))
	run.Add(
		observability.F("total", receipt.Total),
		observability.F("balance", receipt.Balance),
	)
	uc.completed(run, receipt)
	return receipt, nil
}
