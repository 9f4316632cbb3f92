package application

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/item"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/purchase"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/user"
)

// statusFor derives the status text of a failed run from its error.
func statusFor(err error) string {
	switch {
	case errors.Is(err, user.ErrNotFound):
		return "USER_NOT_FOUND"
	case errors.Is(err, item.ErrNotFound):
		return "ITEM_NOT_FOUND"
	case errors.Is(err, cart.ErrNotFound):
		return "CART_NOT_FOUND"
	case errors.Is(err, cart.ErrAlreadyExists):
		return "CART_EXISTS"
	case errors.Is(err, cart.ErrEmpty):
		return "EMPTY_CART"
	case errors.Is(err, purchase.ErrInsufficientFunds):
		return "INSUFFICIENT_FUNDS"
	case errors.Is(err, purchase.ErrAgeRestricted):
		return "AGE_RESTRICTED"
	case errors.Is(err, user.ErrInvalid), errors.Is(err, item.ErrInvalid):
		return "VALIDATION_FAILED"
	case errors.Is(err, ErrLockNotAcquired):
		return "LOCK_UNAVAILABLE"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CONTEXT_CANCELED"
	default:
		return "INTERNAL"
	}
}
