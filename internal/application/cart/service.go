package cart

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domcart "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

const (
	cartService = "cart-service"

	useCaseCreate = "cart.create"
	useCaseGet    = "cart.get"
	useCaseDelete = "cart.delete"
)

// Service keeps one cart per user and the user's cart id in step with it.
type Service struct {
	store  store.Store
	locker application.Locker
	inst   application.Instruments
}

func NewService(st store.Store, locker application.Locker, tel observability.Observability) *Service {
	return &Service{store: st, locker: locker, inst: application.NewInstruments(tel, cartService)}
}

func (s *Service) Create(ctx context.Context, userID int64, itemIDs []int64) (_ *domcart.Cart, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseCreate, "CreateCart",
		attribute.Int64("user.id", userID),
		attribute.Int("cart.item_count", len(itemIDs)),
	)
	defer func() { run.End(err) }()

	created := domcart.New(userID, itemIDs)
	err = application.WithLock(ctx, s.locker, application.UserLockKey(userID), func(ctx context.Context) error {
		return s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
			owner, getErr := tx.Users().GetForUpdate(ctx, userID)
			if getErr != nil {
				return getErr
			}
			existing, findErr := tx.Carts().FindByUser(ctx, userID)
			switch {
			case findErr == nil:
				return fmt.Errorf("%w: user %d has cart %d", domcart.ErrAlreadyExists, userID, existing.ID)
			case !errors.Is(findErr, domcart.ErrNotFound):
				return findErr
			}
			if insErr := tx.Carts().Insert(ctx, created); insErr != nil {
				return insErr
			}
			owner.AttachCart(created.ID)
			return tx.Users().Update(ctx, owner)
		})
	})
	if err != nil {
		return nil, err
	}
	run.Span().SetAttributes(attribute.Int64("cart.id", created.ID))
	run.Add(observability.F("cart_id", created.ID))
	return created, nil
}

func (s *Service) Get(ctx context.Context, userID int64) (_ *domcart.Cart, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseGet, "GetCart", attribute.Int64("user.id", userID))
	defer func() { run.End(err) }()

	var found *domcart.Cart
	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var findErr error
		found, findErr = tx.Carts().FindByUser(ctx, userID)
		return findErr
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Delete removes the user's cart and clears the user's cart id together. A
// cart whose owner is already gone is still removed.
func (s *Service) Delete(ctx context.Context, userID int64) (err error) {
	ctx, run := s.inst.Begin(ctx, useCaseDelete, "DeleteCart", attribute.Int64("user.id", userID))
	defer func() { run.End(err) }()

	return application.WithLock(ctx, s.locker, application.UserLockKey(userID), func(ctx context.Context) error {
		return s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
			owner, getErr := tx.Users().GetForUpdate(ctx, userID)
			if getErr != nil && !errors.Is(getErr, user.ErrNotFound) {
				return getErr
			}
			found, findErr := tx.Carts().FindByUser(ctx, userID)
			if findErr != nil {
				return findErr
			}
			if delErr := tx.Carts().Delete(ctx, found.ID); delErr != nil {
				return delErr
			}
			run.Add(observability.F("cart_id", found.ID))
			if owner == nil {
				return nil
			}
			owner.DetachCart()
			return tx.Users().Update(ctx, owner)
		})
	})
}
