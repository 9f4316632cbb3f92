package store

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/item"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/user"
)

var ErrClosed = errors.New("store: closed")

// Tx exposes the repositories bound to one unit of work.
type Tx interface {
	Users() user.Repository
	Items() item.Repository
	Carts() cart.Repository
}

// Store runs functions against the record backend. Atomic commits every write
// made through tx when fn returns nil and discards them otherwise.
type Store interface {
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}
