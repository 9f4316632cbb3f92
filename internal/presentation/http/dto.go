package httppresentation

import (
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application/account"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/item"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/purchase"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/user"
)

// itemRequest creates an item. id is accepted and ignored.
type itemRequest struct {
	ID              *int64 `json:"id,omitempty"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Price           int64  `json:"price"`
	QuantityInStock int    `json:"quantity_in_stock"`
	OwnerID         *int64 `json:"owner_id"`
	AdultProduct    bool   `json:"adult_product"`
}

type itemPatchRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Price           *int64  `json:"price"`
	QuantityInStock *int    `json:"quantity_in_stock"`
	OwnerID         *int64  `json:"owner_id"`
	AdultProduct    *bool   `json:"adult_product"`
}

type itemResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Price           int64  `json:"price"`
	QuantityInStock int    `json:"quantity_in_stock"`
	OwnerID         *int64 `json:"owner_id"`
	AdultProduct    bool   `json:"adult_product"`
}

type itemSummaryResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	AdultProduct bool   `json:"adult_product"`
}

type totalResponse struct {
	Total int64 `json:"total"`
}

// userRequest creates a user. id and cart_id are accepted and ignored.
type userRequest struct {
	ID        *int64  `json:"id,omitempty"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Age       int     `json:"age"`
	Password  string  `json:"password,omitempty"`
	Sex       string  `json:"sex"`
	Balance   float64 `json:"balance"`
	CartID    *int64  `json:"cart_id,omitempty"`
}

type userPatchRequest struct {
	FirstName *string  `json:"first_name"`
	LastName  *string  `json:"last_name"`
	Email     *string  `json:"email"`
	Age       *int     `json:"age"`
	Password  *string  `json:"password"`
	Sex       *string  `json:"sex"`
	Balance   *float64 `json:"balance"`
	CartID    *int64   `json:"cart_id,omitempty"`
}

// userResponse never carries the password.
type userResponse struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Age       int     `json:"age"`
	Sex       string  `json:"sex"`
	Balance   float64 `json:"balance"`
	CartID    *int64  `json:"cart_id"`
}

type userSummaryResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type userWithItemsResponse struct {
	userSummaryResponse
	Items []itemSummaryResponse `json:"items"`
}

// cartRequest creates a cart; the owner comes from the path, so user_id is ignored.
type cartRequest struct {
	UserID  *int64  `json:"user_id,omitempty"`
	ItemIDs []int64 `json:"item_ids"`
}

type cartResponse struct {
	ID      int64   `json:"id"`
	UserID  int64   `json:"user_id"`
	ItemIDs []int64 `json:"item_ids"`
}

type balanceResponse struct {
	Balance float64 `json:"balance"`
}

type checkoutResponse struct {
	Balance float64 `json:"balance"`
	Message string  `json:"message"`
}

type purchaseResponse struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	ItemIDs      []int64   `json:"item_ids"`
	Total        int64     `json:"total"`
	BalanceAfter float64   `json:"balance_after"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func toItemResponse(it *item.Item) itemResponse {
	return itemResponse{
		ID:              it.ID,
		Name:            it.Name,
		Description:     it.Description,
		Price:           it.Price,
		QuantityInStock: it.QuantityInStock,
		OwnerID:         it.OwnerID,
		AdultProduct:    it.AdultProduct,
	}
}

func toItemSummaries(in []item.Summary) []itemSummaryResponse {
	out := make([]itemSummaryResponse, 0, len(in))
	for _, s := range in {
		out = append(out, itemSummaryResponse{ID: s.ID, Name: s.Name, Price: s.Price, AdultProduct: s.AdultProduct})
	}
	return out
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Age:       u.Age,
		Sex:       u.Sex,
		Balance:   u.Balance,
		CartID:    u.CartID,
	}
}

func toUserSummary(s user.Summary) userSummaryResponse {
	return userSummaryResponse{ID: s.ID, FirstName: s.FirstName, LastName: s.LastName, Email: s.Email}
}

func toUserWithItems(v *account.WithItems) userWithItemsResponse {
	return userWithItemsResponse{
		userSummaryResponse: toUserSummary(v.User),
		Items:               toItemSummaries(v.Items),
	}
}

func toCartResponse(c *cart.Cart) cartResponse {
	ids := c.ItemIDs
	if ids == nil {
		ids = []int64{}
	}
	return cartResponse{ID: c.ID, UserID: c.UserID, ItemIDs: ids}
}

func toPurchaseResponses(in []purchase.Entry) []purchaseResponse {
	out := make([]purchaseResponse, 0, len(in))
	for _, e := range in {
		out = append(out, purchaseResponse{
			ID:           e.ID,
			Kind:         string(e.Kind),
			ItemIDs:      e.ItemIDs,
			Total:        e.Total,
			BalanceAfter: e.BalanceAfter,
			OccurredAt:   e.OccurredAt,
		})
	}
	return out
}
