package account

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/item"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

const (
	accountService = "account-service"

	useCaseCreate    = "user.create"
	useCaseGet       = "user.get"
	useCaseList      = "user.list"
	useCaseUpdate    = "user.update"
	useCaseDelete    = "user.delete"
	useCaseWithItems = "user.with_items"
)

type Service struct {
	store  store.Store
	locker application.Locker
	inst   application.Instruments
}

func NewService(st store.Store, locker application.Locker, tel observability.Observability) *Service {
	return &Service{store: st, locker: locker, inst: application.NewInstruments(tel, accountService)}
}

type CreateInput struct {
	FirstName string
	LastName  string
	Email     string
	Age       int
	Password  string
	Sex       string
	Balance   float64
}

// WithItems is a user's short profile joined with the items they own.
type WithItems struct {
	User  user.Summary
	Items []item.Summary
}

func (s *Service) Create(ctx context.Context, in CreateInput) (_ *user.User, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseCreate, "CreateUser")
	defer func() { run.End(err) }()

	entity := &user.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Age:       in.Age,
		Password:  in.Password,
		Sex:       in.Sex,
		Balance:   in.Balance,
	}
	if err := entity.Validate(); err != nil {
		return nil, err
	}
	err = s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Users().Insert(ctx, entity)
	})
	if err != nil {
		return nil, fmt.Errorf("account: create: %w", err)
	}
	run.Span().SetAttributes(attribute.Int64("user.id", entity.ID))
	run.Add(observability.F("user_id", entity.ID))
	return entity, nil
}

func (s *Service) Get(ctx context.Context, id int64) (_ *user.User, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseGet, "GetUser", attribute.Int64("user.id", id))
	defer func() { run.End(err) }()

	var found *user.User
	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var getErr error
		found, getErr = tx.Users().Get(ctx, id)
		return getErr
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (s *Service) List(ctx context.Context) (_ []user.Summary, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseList, "ListUsers")
	defer func() { run.End(err) }()

	var users []*user.User
	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var listErr error
		users, listErr = tx.Users().List(ctx)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	out := make([]user.Summary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	run.Add(observability.F("count", len(out)))
	return out, nil
}

// Update applies a partial change. Balance top-ups go through here, so it
// shares the per-user lock with settlement.
func (s *Service) Update(ctx context.Context, id int64, patch user.Patch) (_ *user.User, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseUpdate, "UpdateUser", attribute.Int64("user.id", id))
	defer func() { run.End(err) }()

	var updated *user.User
	err = application.WithLock(ctx, s.locker, application.UserLockKey(id), func(ctx context.Context) error {
		return s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
			current, getErr := tx.Users().GetForUpdate(ctx, id)
			if getErr != nil {
				return getErr
			}
			next, applyErr := current.Apply(patch)
			if applyErr != nil {
				return applyErr
			}
			if updErr := tx.Users().Update(ctx, next); updErr != nil {
				return updErr
			}
			updated = next
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the user and, in the same unit of work, their cart.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	ctx, run := s.inst.Begin(ctx, useCaseDelete, "DeleteUser", attribute.Int64("user.id", id))
	defer func() { run.End(err) }()

	return application.WithLock(ctx, s.locker, application.UserLockKey(id), func(ctx context.Context) error {
		return s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
			if _, getErr := tx.Users().GetForUpdate(ctx, id); getErr != nil {
				return getErr
			}
			owned, findErr := tx.Carts().FindByUser(ctx, id)
			switch {
			case findErr == nil:
				if delErr := tx.Carts().Delete(ctx, owned.ID); delErr != nil {
					return delErr
				}
				run.Add(observability.F("cart_id", owned.ID))
			case !errors.Is(findErr, cart.ErrNotFound):
				return findErr
			}
			return tx.Users().Delete(ctx, id)
		})
	})
}

func (s *Service) WithItems(ctx context.Context, id int64) (_ *WithItems, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseWithItems, "GetUserWithItems", attribute.Int64("user.id", id))
	defer func() { run.End(err) }()

	var out WithItems
	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		u, getErr := tx.Users().Get(ctx, id)
		if getErr != nil {
			return getErr
		}
		owned, listErr := tx.Items().ListByOwner(ctx, id)
		if listErr != nil {
			return listErr
		}
		out.User = u.Summary()
		out.Items = make([]item.Summary, 0, len(owned))
		for _, it := range owned {
			out.Items = append(out.Items, it.Summary())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
