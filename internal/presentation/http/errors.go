package httppresentation

import (
	"context"
	"errors"
	"net/http"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/item"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/purchase"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

var errBadRequest = errors.New("bad request")

const (
	codeNotFound          = "NOT_FOUND"
	codeConflict          = "CONFLICT"
	codeEmptyCart         = "EMPTY_CART"
	codeInsufficientFunds = "INSUFFICIENT_FUNDS"
	codeAgeRestricted     = "AGE_RESTRICTED"
	codeValidation        = "VALIDATION"
	codeUnavailable       = "UNAVAILABLE"
	codeInternal          = "INTERNAL"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, item.ErrNotFound),
		errors.Is(err, cart.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, cart.ErrAlreadyExists):
		return http.StatusBadRequest, codeConflict
	case errors.Is(err, cart.ErrEmpty):
		return http.StatusBadRequest, codeEmptyCart
	case errors.Is(err, purchase.ErrInsufficientFunds):
		return http.StatusPaymentRequired, codeInsufficientFunds
	case errors.Is(err, purchase.ErrAgeRestricted):
		return http.StatusForbidden, codeAgeRestricted
	case errors.Is(err, user.ErrInvalid),
		errors.Is(err, item.ErrInvalid),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, codeValidation
	case errors.Is(err, application.ErrLockNotAcquired),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, codeUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// writeDomainError maps err onto a status and error code. Internal errors are
// logged and their detail is not sent to the client.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := classify(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		logctx.FromOr(ctx, nil).Error("http_internal_error", observability.F("error", err))
		detail = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: detail, Code: code})
}
