package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/item"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/user"
)

// State holds every record in maps keyed by id and serves as a store.Tx. It is
// not safe for concurrent use; Store and the file store serialize access.
type State struct {
	users map[int64]*user.User
	items map[int64]*item.Item
	carts map[int64]*cart.Cart

	nextUser int64
	nextItem int64
	nextCart int64
}

var _ store.Tx = (*State)(nil)

func NewState() *State {
	return &State{
		users:    make(map[int64]*user.User),
		items:    make(map[int64]*item.Item),
		carts:    make(map[int64]*cart.Cart),
		nextUser: 1,
		nextItem: 1,
		nextCart: 1,
	}
}

// NewStateFrom builds a state from existing records, keeping their ids. Each id
// sequence starts at max(existing)+1.
func NewStateFrom(users []*user.User, items []*item.Item, carts []*cart.Cart) *State {
	s := NewState()
	for _, u := range users {
		s.users[u.ID] = u.Clone()
	}
	for _, it := range items {
		s.items[it.ID] = it.Clone()
	}
	for _, c := range carts {
		s.carts[c.ID] = c.Clone()
	}
	s.nextUser = nextAfter(s.users)
	s.nextItem = nextAfter(s.items)
	s.nextCart = nextAfter(s.carts)
	return s
}

// Snapshot returns copies of every record ordered by id.
func (s *State) Snapshot() ([]*user.User, []*item.Item, []*cart.Cart) {
	users := make([]*user.User, 0, len(s.users))
	for _, id := range sortedKeys(s.users) {
		users = append(users, s.users[id].Clone())
	}
	items := make([]*item.Item, 0, len(s.items))
	for _, id := range sortedKeys(s.items) {
		items = append(items, s.items[id].Clone())
	}
	carts := make([]*cart.Cart, 0, len(s.carts))
	for _, id := range sortedKeys(s.carts) {
		carts = append(carts, s.carts[id].Clone())
	}
	return users, items, carts
}

func nextAfter[V any](m map[int64]V) int64 {
	var top int64
	for id := range m {
		if id > top {
			top = id
		}
	}
	return top + 1
}

// Clone returns a deep copy, id sequences included.
func (s *State) Clone() *State {
	out := &State{
		users:    make(map[int64]*user.User, len(s.users)),
		items:    make(map[int64]*item.Item, len(s.items)),
		carts:    make(map[int64]*cart.Cart, len(s.carts)),
		nextUser: s.nextUser,
		nextItem: s.nextItem,
		nextCart: s.nextCart,
	}
	for id, u := range s.users {
		out.users[id] = u.Clone()
	}
	for id, it := range s.items {
		out.items[id] = it.Clone()
	}
	for id, c := range s.carts {
		out.carts[id] = c.Clone()
	}
	return out
}

func (s *State) Users() user.Repository { return userRepo{s} }
func (s *State) Items() item.Repository { return itemRepo{s} }
func (s *State) Carts() cart.Repository { return cartRepo{s} }

func sortedKeys[V any](m map[int64]V) []int64 {
	return slices.Sorted(maps.Keys(m))
}

type userRepo struct{ s *State }

func (r userRepo) Get(_ context.Context, id int64) (*user.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", user.ErrNotFound, id)
	}
	return u.Clone(), nil
}

// GetForUpdate is Get; the owning store already holds the write lock.
func (r userRepo) GetForUpdate(ctx context.Context, id int64) (*user.User, error) {
	return r.Get(ctx, id)
}

func (r userRepo) List(context.Context) ([]*user.User, error) {
	out := make([]*user.User, 0, len(r.s.users))
	for _, id := range sortedKeys(r.s.users) {
		out = append(out, r.s.users[id].Clone())
	}
	return out, nil
}

func (r userRepo) Insert(_ context.Context, u *user.User) error {
	if u == nil {
		return fmt.Errorf("user repository: user is required")
	}
	u.ID = r.s.nextUser
	r.s.nextUser++
	r.s.users[u.ID] = u.Clone()
	return nil
}

func (r userRepo) Update(_ context.Context, u *user.User) error {
	if u == nil {
		return fmt.Errorf("user repository: user is required")
	}
	if _, ok := r.s.users[u.ID]; !ok {
		return fmt.Errorf("%w: id %d", user.ErrNotFound, u.ID)
	}
	r.s.users[u.ID] = u.Clone()
	return nil
}

func (r userRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.users[id]; !ok {
		return fmt.Errorf("%w: id %d", user.ErrNotFound, id)
	}
	delete(r.s.users, id)
	return nil
}

type itemRepo struct{ s *State }

func (r itemRepo) Get(_ context.Context, id int64) (*item.Item, error) {
	it, ok := r.s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", item.ErrNotFound, id)
	}
	return it.Clone(), nil
}

func (r itemRepo) GetMany(_ context.Context, ids []int64) ([]*item.Item, error) {
	out := make([]*item.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := r.s.items[id]; ok {
			out = append(out, it.Clone())
		}
	}
	return out, nil
}

func (r itemRepo) List(context.Context) ([]*item.Item, error) {
	out := make([]*item.Item, 0, len(r.s.items))
	for _, id := range sortedKeys(r.s.items) {
		out = append(out, r.s.items[id].Clone())
	}
	return out, nil
}

func (r itemRepo) ListByOwner(_ context.Context, ownerID int64) ([]*item.Item, error) {
	var out []*item.Item
	for _, id := range sortedKeys(r.s.items) {
		if it := r.s.items[id]; it.OwnedBy(ownerID) {
			out = append(out, it.Clone())
		}
	}
	return out, nil
}

func (r itemRepo) Insert(_ context.Context, it *item.Item) error {
	if it == nil {
		return fmt.Errorf("item repository: item is required")
	}
	it.ID = r.s.nextItem
	r.s.nextItem++
	r.s.items[it.ID] = it.Clone()
	return nil
}

func (r itemRepo) Update(_ context.Context, it *item.Item) error {
	if it == nil {
		return fmt.Errorf("item repository: item is required")
	}
	if _, ok := r.s.items[it.ID]; !ok {
		return fmt.Errorf("%w: id %d", item.ErrNotFound, it.ID)
	}
	r.s.items[it.ID] = it.Clone()
	return nil
}

func (r itemRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.items[id]; !ok {
		return fmt.Errorf("%w: id %d", item.ErrNotFound, id)
	}
	delete(r.s.items, id)
	return nil
}

type cartRepo struct{ s *State }

func (r cartRepo) Get(_ context.Context, id int64) (*cart.Cart, error) {
	c, ok := r.s.carts[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", cart.ErrNotFound, id)
	}
	return c.Clone(), nil
}

// FindByUser scans every cart; carts are not indexed by user.
func (r cartRepo) FindByUser(_ context.Context, userID int64) (*cart.Cart, error) {
	for _, id := range sortedKeys(r.s.carts) {
		if c := r.s.carts[id]; c.UserID == userID {
			return c.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: user %d has no cart", cart.ErrNotFound, userID)
}

func (r cartRepo) Insert(_ context.Context, c *cart.Cart) error {
	if c == nil {
		return fmt.Errorf("cart repository: cart is required")
	}
	c.ID = r.s.nextCart
	r.s.nextCart++
	r.s.carts[c.ID] = c.Clone()
	return nil
}

func (r cartRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.carts[id]; !ok {
		return fmt.Errorf("%w: id %d", cart.ErrNotFound, id)
	}
	delete(r.s.carts, id)
	return nil
}
