package item

import "context"

type Repository interface {
	Get(ctx context.Context, id int64) (*Item, error)
	// GetMany returns the items that exist among ids, in ids order; missing ids are skipped.
	GetMany(ctx context.Context, ids []int64) ([]*Item, error)
	List(ctx context.Context) ([]*Item, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*Item, error)
	// Insert assigns the ID.
	Insert(ctx context.Context, item *Item) error
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id int64) error
}
