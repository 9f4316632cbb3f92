package jsonfile

import (
	"fmt"
	"strconv"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/item"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/memory"
)

// document is the on-disk layout: one object per collection, keyed by the
// stringified record id.
type document struct {
	Users map[string]userRecord `json:"users"`
	Items map[string]itemRecord `json:"items"`
	Cart  map[string]cartRecord `json:"cart"`
}

type userRecord struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Age       int     `json:"age"`
	Password  string  `json:"password,omitempty"`
	Sex       string  `json:"sex"`
	Balance   float64 `json:"balance"`
	CartID    *int64  `json:"cart_id"`
}

type itemRecord struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Price           int64  `json:"price"`
	QuantityInStock int    `json:"quantity_in_stock"`
	OwnerID         *int64 `json:"owner_id"`
	AdultProduct    bool   `json:"adult_product"`
}

type cartRecord struct {
	ID      int64   `json:"id"`
	UserID  int64   `json:"user_id"`
	ItemIDs []int64 `json:"item_ids"`
}

func emptyDocument() document {
	return document{
		Users: map[string]userRecord{},
		Items: map[string]itemRecord{},
		Cart:  map[string]cartRecord{},
	}
}

// toState converts the document, failing on any key that is not an integer.
func (d document) toState() (*memory.State, error) {
	users := make([]*user.User, 0, len(d.Users))
	for key, rec := range d.Users {
		id, err := parseKey("users", key)
		if err != nil {
			return nil, err
		}
		users = append(users, &user.User{
			ID:        id,
			FirstName: rec.FirstName,
			LastName:  rec.LastName,
			Email:     rec.Email,
			Age:       rec.Age,
			Password:  rec.Password,
			Sex:       rec.Sex,
			Balance:   rec.Balance,
			CartID:    rec.CartID,
		})
	}
	items := make([]*item.Item, 0, len(d.Items))
	for key, rec := range d.Items {
		id, err := parseKey("items", key)
		if err != nil {
			return nil, err
		}
		items = append(items, &item.Item{
			ID:              id,
			Name:            rec.Name,
			Description:     rec.Description,
			Price:           rec.Price,
			QuantityInStock: rec.QuantityInStock,
			OwnerID:         rec.OwnerID,
			AdultProduct:    rec.AdultProduct,
		})
	}
	carts := make([]*cart.Cart, 0, len(d.Cart))
	for key, rec := range d.Cart {
		id, err := parseKey("cart", key)
		if err != nil {
			return nil, err
		}
		carts = append(carts, &cart.Cart{ID: id, UserID: rec.UserID, ItemIDs: rec.ItemIDs})
	}
	return memory.NewStateFrom(users, items, carts), nil
}

func fromState(s *memory.State) document {
	users, items, carts := s.Snapshot()
	doc := emptyDocument()
	for _, u := range users {
		doc.Users[formatKey(u.ID)] = userRecord{
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			Age:       u.Age,
			Password:  u.Password,
			Sex:       u.Sex,
			Balance:   u.Balance,
			CartID:    u.CartID,
		}
	}
	for _, it := range items {
		doc.Items[formatKey(it.ID)] = itemRecord{
			Name:            it.Name,
			Description:     it.Description,
			Price:           it.Price,
			QuantityInStock: it.QuantityInStock,
			OwnerID:         it.OwnerID,
			AdultProduct:    it.AdultProduct,
		}
	}
	for _, c := range carts {
		doc.Cart[formatKey(c.ID)] = cartRecord{ID: c.ID, UserID: c.UserID, ItemIDs: c.ItemIDs}
	}
	return doc
}

func parseKey(collection, key string) (int64, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("jsonfile: %s key %q is not an integer id", collection, key)
	}
	return id, nil
}

func formatKey(id int64) string { return strconv.FormatInt(id, 10) }
