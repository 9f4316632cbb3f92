package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/item"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/user"
)

const (
	userColumns = "id, first_name, last_name, email, age, password, sex, balance, cart_id"
	itemColumns = "id, name, description, price, quantity_in_stock, owner_id, adult_product"
	cartColumns = "id, user_id, item_ids"
)

type scanner interface {
	Scan(dest ...any) error
}

type userRepo struct{ q querier }

func scanUser(row scanner) (*user.User, error) {
	var (
		u      user.User
		cartID sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Age, &u.Password, &u.Sex, &u.Balance, &cartID); err != nil {
		return nil, err
	}
	u.CartID = idPtr(cartID)
	return &u, nil
}

func (r userRepo) get(ctx context.Context, query string, id int64) (*user.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", user.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get user: %w", err)
	}
	return u, nil
}

func (r userRepo) Get(ctx context.Context, id int64) (*user.User, error) {
	return r.get(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

// GetForUpdate row-locks the user until the transaction ends.
func (r userRepo) GetForUpdate(ctx context.Context, id int64) (*user.User, error) {
	return r.get(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1 FOR UPDATE", id)
}

func (r userRepo) List(ctx context.Context) ([]*user.User, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("postgres: list users: %w", err)
	}
	defer rows.Close()
	var out []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r userRepo) Insert(ctx context.Context, u *user.User) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO users (first_name, last_name, email, age, password, sex, balance, cart_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		u.FirstName, u.LastName, u.Email, u.Age, u.Password, u.Sex, u.Balance, nullableID(u.CartID),
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("postgres: insert user: %w", err)
	}
	return nil
}

func (r userRepo) Update(ctx context.Context, u *user.User) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET first_name = $2, last_name = $3, email = $4, age = $5, password = $6,
		sex = $7, balance = $8, cart_id = $9 WHERE id = $1`,
		u.ID, u.FirstName, u.LastName, u.Email, u.Age, u.Password, u.Sex, u.Balance, nullableID(u.CartID),
	)
	if err != nil {
		return fmt.Errorf("postgres: update user: %w", err)
	}
	return expectOne(res, user.ErrNotFound, u.ID)
}

func (r userRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("postgres: delete user: %w", err)
	}
	return expectOne(res, user.ErrNotFound, id)
}

type itemRepo struct{ q querier }

func scanItem(row scanner) (*item.Item, error) {
	var (
		it    item.Item
		owner sql.NullInt64
	)
	if err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.QuantityInStock, &owner, &it.AdultProduct); err != nil {
		return nil, err
	}
	it.OwnerID = idPtr(owner)
	return &it, nil
}

func (r itemRepo) query(ctx context.Context, query string, args ...any) ([]*item.Item, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query items: %w", err)
	}
	defer rows.Close()
	var out []*item.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r itemRepo) Get(ctx context.Context, id int64) (*item.Item, error) {
	it, err := scanItem(r.q.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM items WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", item.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get item: %w", err)
	}
	return it, nil
}

// GetMany fetches the distinct ids in one query and expands the result back
// to ids order, repeats included.
func (r itemRepo) GetMany(ctx context.Context, ids []int64) ([]*item.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := r.query(ctx, "SELECT "+itemColumns+" FROM items WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*item.Item, len(found))
	for _, it := range found {
		byID[it.ID] = it
	}
	out := make([]*item.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			out = append(out, it.Clone())
		}
	}
	return out, nil
}

func (r itemRepo) List(ctx context.Context) ([]*item.Item, error) {
	return r.query(ctx, "SELECT "+itemColumns+" FROM items ORDER BY id")
}

func (r itemRepo) ListByOwner(ctx context.Context, ownerID int64) ([]*item.Item, error) {
	return r.query(ctx, "SELECT "+itemColumns+" FROM items WHERE owner_id = $1 ORDER BY id", ownerID)
}

func (r itemRepo) Insert(ctx context.Context, it *item.Item) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO items (name, description, price, quantity_in_stock, owner_id, adult_product)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		it.Name, it.Description, it.Price, it.QuantityInStock, nullableID(it.OwnerID), it.AdultProduct,
	).Scan(&it.ID)
	if err != nil {
		return fmt.Errorf("postgres: insert item: %w", err)
	}
	return nil
}

func (r itemRepo) Update(ctx context.Context, it *item.Item) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE items SET name = $2, description = $3, price = $4, quantity_in_stock = $5,
		owner_id = $6, adult_product = $7 WHERE id = $1`,
		it.ID, it.Name, it.Description, it.Price, it.QuantityInStock, nullableID(it.OwnerID), it.AdultProduct,
	)
	if err != nil {
		return fmt.Errorf("postgres: update item: %w", err)
	}
	return expectOne(res, item.ErrNotFound, it.ID)
}

func (r itemRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM items WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("postgres: delete item: %w", err)
	}
	return expectOne(res, item.ErrNotFound, id)
}

type cartRepo struct{ q querier }

func (r cartRepo) scan(row scanner, notFound string) (*cart.Cart, error) {
	var (
		c   cart.Cart
		ids pq.Int64Array
	)
	err := row.Scan(&c.ID, &c.UserID, &ids)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", cart.ErrNotFound, notFound)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get cart: %w", err)
	}
	c.ItemIDs = []int64(ids)
	return &c, nil
}

func (r cartRepo) Get(ctx context.Context, id int64) (*cart.Cart, error) {
	row := r.q.QueryRowContext(ctx, "SELECT "+cartColumns+" FROM carts WHERE id = $1", id)
	return r.scan(row, fmt.Sprintf("id %d", id))
}

func (r cartRepo) FindByUser(ctx context.Context, userID int64) (*cart.Cart, error) {
	row := r.q.QueryRowContext(ctx, "SELECT "+cartColumns+" FROM carts WHERE user_id = $1", userID)
	return r.scan(row, fmt.Sprintf("user %d has no cart", userID))
}

func (r cartRepo) Insert(ctx context.Context, c *cart.Cart) error {
	ids := c.ItemIDs
	if ids == nil {
		ids = []int64{}
	}
	err := r.q.QueryRowContext(ctx,
		"INSERT INTO carts (user_id, item_ids) VALUES ($1, $2) RETURNING id",
		c.UserID, pq.Array(ids),
	).Scan(&c.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: user %d", cart.ErrAlreadyExists, c.UserID)
		}
		return fmt.Errorf("postgres: insert cart: %w", err)
	}
	return nil
}

func (r cartRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM carts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("postgres: delete cart: %w", err)
	}
	return expectOne(res, cart.ErrNotFound, id)
}
