package cart

import "errors"

var (
	ErrNotFound      = errors.New("cart: not found")
	ErrAlreadyExists = errors.New("cart: user already has a cart")
	ErrEmpty         = errors.New("cart: cart is empty")
)

// Cart is a per-user staging list of item ids. At most one exists per user.
type Cart struct {
	ID      int64
	UserID  int64
	ItemIDs []int64
}

func New(userID int64, itemIDs []int64) *Cart {
	return &Cart{UserID: userID, ItemIDs: append([]int64(nil), itemIDs...)}
}

func (c *Cart) IsEmpty() bool { return len(c.ItemIDs) == 0 }

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.ItemIDs = append([]int64(nil), c.ItemIDs...)
	return &clone
}
