package cart

import "context"

type Repository interface {
	Get(ctx context.Context, id int64) (*Cart, error)
	// FindByUser returns ErrNotFound when the user has no cart.
	FindByUser(ctx context.Context, userID int64) (*Cart, error)
	Insert(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id int64) error
}
