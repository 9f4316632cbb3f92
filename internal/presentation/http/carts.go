package httppresentation

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	apppurchase "github.com/Zhima-Mochi/minishop-storefront/internal/application/purchase"
)

// handleCreateCart godoc
// @Summary Create the user's cart
// @Tags carts
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param cart body cartRequest false "Item IDs"
// @Success 201 {object} cartResponse
// @Failure 400 {object} errorResponse "user already has a cart"
// @Failure 404 {object} errorResponse
// @Router /users/{id}/cart [post]
func (h *Handler) handleCreateCart(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	var req cartRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeDomainError(r.Context(), w, err)
		return
	}
	created, err := h.svc.Carts.Create(r.Context(), userID, req.ItemIDs)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartResponse(created))
}

// handleGetCart godoc
// @Summary Read the user's cart
// @Tags carts
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} cartResponse
// @Failure 404 {object} errorResponse
// @Router /users/{id}/cart [get]
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	found, err := h.svc.Carts.Get(r.Context(), userID)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(found))
}

// handleDeleteCart godoc
// @Summary Delete the user's cart
// @Tags carts
// @Produce json
// @Param id path int true "User ID"
// @Success 202 {string} string "confirmation"
// @Failure 404 {object} errorResponse
// @Router /users/{id}/cart [delete]
func (h *Handler) handleDeleteCart(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	if err := h.svc.Carts.Delete(r.Context(), userID); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, fmt.Sprintf("cart of user %d deleted", userID))
}

// handleCheckout godoc
// @Summary Pay for the whole cart
// @Description Items deleted since the cart was created are skipped.
// @Tags purchases
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} checkoutResponse
// @Failure 400 {object} errorResponse "empty cart"
// @Failure 402 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /users/{id}/cart/checkout [post]
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	receipt, err := h.svc.Checkout.Execute(r.Context(), apppurchase.CheckoutInput{UserID: userID})
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{Balance: receipt.Balance, Message: receipt.Message})
}

// handleBuyItem godoc
// @Summary Buy a single item
// @Tags purchases
// @Produce json
// @Param id path int true "User ID"
// @Param itemId path int true "Item ID"
// @Success 200 {object} balanceResponse
// @Failure 402 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /users/{id}/buy/{itemId} [post]
func (h *Handler) handleBuyItem(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	receipt, err := h.svc.BuyItem.Execute(r.Context(), apppurchase.BuyItemInput{UserID: userID, ItemID: itemID})
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Balance: receipt.Balance})
}

// handlePurchaseHistory godoc
// @Summary Settled purchases of a user, oldest first
// @Tags purchases
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} purchaseResponse
// @Router /users/{id}/purchases [get]
func (h *Handler) handlePurchaseHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	entries, err := h.svc.History.List(r.Context(), userID)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchaseResponses(entries))
}
