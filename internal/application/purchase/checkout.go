package purchase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domcart "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	dompurchase "github.com/Zhima-Mochi/minishop-storefront/internal/domain/purchase"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

type CheckoutInput struct {
	UserID int64
}

// CheckoutUseCase settles the whole cart: ids of items deleted since the cart
// was created are dropped, the rest are priced, gated and paid for, and the
// cart is removed.
type CheckoutUseCase struct {
	settlement
}

var _ application.UseCase[CheckoutInput, *dompurchase.Receipt] = (*CheckoutUseCase)(nil)

func NewCheckoutUseCase(d Deps) *CheckoutUseCase {
	return &CheckoutUseCase{settlement: newSettlement(d)}
}

func (uc *CheckoutUseCase) Execute(ctx context.Context, cmd CheckoutInput) (_ *dompurchase.Receipt, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseCheckout, "Checkout", attribute.Int64("user.id", cmd.UserID))
	defer func() { run.End(err) }()

	var receipt *dompurchase.Receipt
	err = application.WithLock(ctx, uc.Locker, application.UserLockKey(cmd.UserID), func(ctx context.Context) error {
		return uc.Store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
			buyer, getErr := tx.Users().GetForUpdate(ctx, cmd.UserID)
			if getErr != nil {
				return getErr
			}
			basket, findErr := tx.Carts().FindByUser(ctx, cmd.UserID)
			if findErr != nil {
				return findErr
			}
			if basket.IsEmpty() {
				return fmt.Errorf("%w: cart %d", domcart.ErrEmpty, basket.ID)
			}

			resolved, resolveErr := tx.Items().GetMany(ctx, basket.ItemIDs)
			if resolveErr != nil {
				return resolveErr
			}
			if dropped := len(basket.ItemIDs) - len(resolved); dropped > 0 {
				run.Add(observability.F("dropped_items", dropped))
			}

			total, sumErr := dompurchase.Total(resolved)
			if sumErr != nil {
				return sumErr
			}
			if checkErr := uc.Policy.Check(buyer, total, resolved); checkErr != nil {
				return checkErr
			}

			if delErr := tx.Carts().Delete(ctx, basket.ID); delErr != nil {
				return delErr
			}
			buyer.Balance = dompurchase.Debit(buyer.Balance, total)
			buyer.DetachCart()
			if updErr := tx.Users().Update(ctx, buyer); updErr != nil {
				return updErr
			}

			ids := make([]int64, 0, len(resolved))
			for _, it := range resolved {
				ids = append(ids, it.ID)
			}
			receipt = &dompurchase.Receipt{
				UserID:  buyer.ID,
				Kind:    dompurchase.KindCheckout,
				ItemIDs: ids,
				Total:   total,
				Balance: buyer.Balance,
				Message: checkoutMessage,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	run.Span().AddEvent("purchase.settled", trace.WithAttributes(
		attribute.Int64("purchase.total", receipt.Total),
		attribute.Int("purchase.item_count", len(receipt.ItemIDs)),
	))
	run.Add(
		observability.F("total", receipt.Total),
		observability.F("balance", receipt.Balance),
	)
	uc.completed(run, receipt)
	return receipt, nil
}
