package item

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrNotFound = errors.New("item: not found")
	ErrInvalid  = errors.New("item: invalid")
	// ErrTotalOverflow wraps ErrInvalid so callers treat it as a bad request.
	ErrTotalOverflow = fmt.Errorf("%w: price total exceeds %d", ErrInvalid, int64(math.MaxInt64))
)

// Item is a catalog entry. OwnerID is who listed it, not who bought it.
type Item struct {
	ID              int64
	Name            string
	Description     string
	Price           int64
	QuantityInStock int
	OwnerID         *int64
	AdultProduct    bool
}

// Summary is the short view returned by list endpoints.
type Summary struct {
	ID           int64
	Name         string
	Price        int64
	AdultProduct bool
}

// Patch carries a partial update; nil fields are left untouched. ClearOwner
// distinguishes an explicit null owner from an absent one.
type Patch struct {
	Name            *string
	Description     *string
	Price           *int64
	QuantityInStock *int
	OwnerID         *int64
	ClearOwner      bool
	AdultProduct    *bool
}

func (i *Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if i.Price < 0 {
		return fmt.Errorf("%w: price must be zero or greater", ErrInvalid)
	}
	return nil
}

// Apply merges p into a copy of the item and validates the result.
func (i *Item) Apply(p Patch) (*Item, error) {
	next := i.Clone()
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Price != nil {
		next.Price = *p.Price
	}
	if p.QuantityInStock != nil {
		next.QuantityInStock = *p.QuantityInStock
	}
	switch {
	case p.ClearOwner:
		next.OwnerID = nil
	case p.OwnerID != nil:
		owner := *p.OwnerID
		next.OwnerID = &owner
	}
	if p.AdultProduct != nil {
		next.AdultProduct = *p.AdultProduct
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}

// AddPrice adds price to a running total of non-negative prices.
func AddPrice(total, price int64) (int64, error) {
	if price > math.MaxInt64-total {
		return 0, ErrTotalOverflow
	}
	return total + price, nil
}

func (i *Item) Summary() Summary {
	return Summary{ID: i.ID, Name: i.Name, Price: i.Price, AdultProduct: i.AdultProduct}
}

func (i *Item) OwnedBy(userID int64) bool {
	return i.OwnerID != nil && *i.OwnerID == userID
}

func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	clone := *i
	if i.OwnerID != nil {
		owner := *i.OwnerID
		clone.OwnerID = &owner
	}
	return &clone
}
