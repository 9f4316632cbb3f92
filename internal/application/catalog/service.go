package catalog

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/item"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

const (
	catalogService = "catalog-service"

	useCaseCreate      = "item.create"
	useCaseGet         = "item.get"
	useCaseList        = "item.list"
	useCaseUpdate      = "item.update"
	useCaseDelete      = "item.delete"
	useCaseListByOwner = "item.list_by_owner"
	useCaseSumPrices   = "item.sum_prices"
)

// Service implements the item catalog.
type Service struct {
	store store.Store
	inst  application.Instruments
}

func NewService(st store.Store, tel observability.Observability) *Service {
	return &Service{store: st, inst: application.NewInstruments(tel, catalogService)}
}

// CreateInput is the payload for a new item. Any ID on it is ignored.
type CreateInput struct {
	Name            string
	Description     string
	Price           int64
	QuantityInStock int
	OwnerID         *int64
	AdultProduct    bool
}

func (s *Service) Create(ctx context.Context, in CreateInput) (_ *item.Item, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseCreate, "CreateItem")
	defer func() { run.End(err) }()

	entity := &item.Item{
		Name:            in.Name,
		Description:     in.Description,
		Price:           in.Price,
		QuantityInStock: in.QuantityInStock,
		AdultProduct:    in.AdultProduct,
	}
	if in.OwnerID != nil {
		owner := *in.OwnerID
		entity.OwnerID = &owner
	}
	if err := entity.Validate(); err != nil {
		return nil, err
	}

	err = s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Items().Insert(ctx, entity)
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: create: %w", err)
	}
	run.Span().SetAttributes(attribute.Int64("item.id", entity.ID))
	run.Add(observability.F("item_id", entity.ID))
	return entity, nil
}

func (s *Service) Get(ctx context.Context, id int64) (_ *item.Item, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseGet, "GetItem", attribute.Int64("item.id", id))
	defer func() { run.End(err) }()

	var found *item.Item
	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var getErr error
		found, getErr = tx.Items().Get(ctx, id)
		return getErr
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (s *Service) List(ctx context.Context) (_ []item.Summary, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseList, "ListItems")
	defer func() { run.End(err) }()

	var items []*item.Item
	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var listErr error
		items, listErr = tx.Items().List(ctx)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	out := make([]item.Summary, 0, len(items))
	for _, it := range items {
		out = append(out, it.Summary())
	}
	run.Add(observability.F("count", len(out)))
	return out, nil
}

func (s *Service) Update(ctx context.Context, id int64, patch item.Patch) (_ *item.Item, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseUpdate, "UpdateItem", attribute.Int64("item.id", id))
	defer func() { run.End(err) }()

	var updated *item.Item
	err = s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		current, getErr := tx.Items().Get(ctx, id)
		if getErr != nil {
			return getErr
		}
		next, applyErr := current.Apply(patch)
		if applyErr != nil {
			return applyErr
		}
		if updErr := tx.Items().Update(ctx, next); updErr != nil {
			return updErr
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	ctx, run := s.inst.Begin(ctx, useCaseDelete, "DeleteItem", attribute.Int64("item.id", id))
	defer func() { run.End(err) }()

	return s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Items().Delete(ctx, id)
	})
}

// ListByOwner returns item.ErrNotFound when the owner has no items.
func (s *Service) ListByOwner(ctx context.Context, ownerID int64) (_ []*item.Item, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseListByOwner, "ListItemsByOwner", attribute.Int64("owner.id", ownerID))
	defer func() { run.End(err) }()

	var items []*item.Item
	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var listErr error
		items, listErr = tx.Items().ListByOwner(ctx, ownerID)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items for owner %d", item.ErrNotFound, ownerID)
	}
	return items, nil
}

// SumPrices fails on the first missing id. Repeated ids count once per occurrence.
func (s *Service) SumPrices(ctx context.Context, ids []int64) (_ int64, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseSumPrices, "SumPrices", attribute.Int("item.count", len(ids)))
	defer func() { run.End(err) }()

	var total int64
	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		for _, id := range ids {
			it, getErr := tx.Items().Get(ctx, id)
			if getErr != nil {
				return getErr
			}
			if total, getErr = item.AddPrice(total, it.Price); getErr != nil {
				return getErr
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	run.Add(observability.F("total", total))
	return total, nil
}
