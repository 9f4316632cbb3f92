package purchase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domcart "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/item"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	dompurchase "github.com/Zhima-Mochi/minishop-storefront/internal/domain/purchase"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/lock"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []dompurchase.CompletedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e.(dompurchase.CompletedEvent))
	return nil
}

func (p *recordingPublisher) Events() []dompurchase.CompletedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]dompurchase.CompletedEvent(nil), p.events...)
}

type fixture struct {
	store *memory.Store
	pub   *recordingPublisher
	deps  Deps
}

func newFixture(t *testing.T, users []*user.User, items []*item.Item, carts []*domcart.Cart) *fixture {
	t.Helper()
	st := memory.NewStoreWith(memory.NewStateFrom(users, items, carts))
	pub := &recordingPublisher{}
	return &fixture{
		store: st,
		pub:   pub,
		deps: Deps{
			Store:     st,
			Locker:    lock.NewKeyedMutex(),
			Publisher: pub,
			IDs:       id.NewUUIDGenerator(),
			Policy:    dompurchase.Policy{AdultAge: 18},
		},
	}
}

func (f *fixture) user(t *testing.T, id int64) *user.User {
	t.Helper()
	var u *user.User
	require.NoError(t, f.store.View(context.Background(), func(ctx context.Context, tx store.Tx) error {
		var err error
		u, err = tx.Users().Get(ctx, id)
		return err
	}))
	return u
}

func (f *fixture) cartOf(userID int64) error {
	return f.store.View(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Carts().FindByUser(ctx, userID)
		return err
	})
}

func ptr[T any](v T) *T { return &v }

func buyer(id int64, age int, balance float64) *user.User {
	return &user.User{ID: id, FirstName: "B", LastName: "Y", Email: "b@example.com", Age: age, Balance: balance}
}

func TestBuyItemDebitsBalance(t *testing.T) {
	f := newFixture(t,
		[]*user.User{buyer(1, 30, 100)},
		[]*item.Item{{ID: 1, Name: "wine", Price: 30, QuantityInStock: 2, AdultProduct: true}},
		nil,
	)

	receipt, err := NewBuyItemUseCase(f.deps).Execute(context.Background(), BuyItemInput{UserID: 1, ItemID: 1})
	require.NoError(t, err)
	assert.Equal(t, 70.0, receipt.Balance)
	assert.Equal(t, int64(30), receipt.Total)
	assert.Equal(t, dompurchase.KindItem, receipt.Kind)
	assert.Equal(t, 70.0, f.user(t, 1).Balance)

	events := f.pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, int64(1), events[0].UserID)
	assert.Equal(t, []int64{1}, events[0].ItemIDs)
	assert.NotEmpty(t, events[0].EventID)
}

func TestBuyItemLeavesStockAndOwnerAlone(t *testing.T) {
	f := newFixture(t,
		[]*user.User{buyer(1, 30, 100)},
		[]*item.Item{{ID: 1, Name: "lamp", Price: 10, QuantityInStock: 2, OwnerID: ptr(int64(5))}},
		nil,
	)
	_, err := NewBuyItemUseCase(f.deps).Execute(context.Background(), BuyItemInput{UserID: 1, ItemID: 1})
	require.NoError(t, err)

	require.NoError(t, f.store.View(context.Background(), func(ctx context.Context, tx store.Tx) error {
		it, err := tx.Items().Get(ctx, 1)
		if err != nil {
			return err
		}
		assert.Equal(t, 2, it.QuantityInStock)
		assert.Equal(t, int64(5), *it.OwnerID)
		return nil
	}))
}

func TestBuyItemFailures(t *testing.T) {
	tests := []struct {
		name    string
		buyer   *user.User
		input   BuyItemInput
		wantErr error
	}{
		{"unknown user", buyer(1, 30, 100), BuyItemInput{UserID: 2, ItemID: 1}, user.ErrNotFound},
		{"unknown item", buyer(1, 30, 100), BuyItemInput{UserID: 1, ItemID: 9}, item.ErrNotFound},
		{"insufficient funds", buyer(1, 30, 29.99), BuyItemInput{UserID: 1, ItemID: 1}, dompurchase.ErrInsufficientFunds},
		{"under age", buyer(1, 17, 100), BuyItemInput{UserID: 1, ItemID: 1}, dompurchase.ErrAgeRestricted},
		{"funds are checked before age", buyer(1, 17, 1), BuyItemInput{UserID: 1, ItemID: 1}, dompurchase.ErrInsufficientFunds},
		{"price at int64 limit", buyer(1, 30, 10), BuyItemInput{UserID: 1, ItemID: 5}, dompurchase.ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t,
				[]*user.User{tt.buyer},
				[]*item.Item{{ID: 1, Name: "wine", Price: 30, AdultProduct: true}, {ID: 5, Name: "yacht", Price: math.MaxInt64}},
				nil,
			)
			_, err := NewBuyItemUseCase(f.deps).Execute(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.buyer.Balance, f.user(t, 1).Balance)
			assert.Empty(t, f.pub.Events())
		})
	}
}

func TestBuyItemSucceedsWhenPublishFails(t *testing.T) {
	f := newFixture(t, []*user.User{buyer(1, 30, 100)}, []*item.Item{{ID: 1, Name: "a", Price: 10}}, nil)
	f.pub.err = errors.New("bus stopped")

	receipt, err := NewBuyItemUseCase(f.deps).Execute(context.Background(), BuyItemInput{UserID: 1, ItemID: 1})
	require.NoError(t, err)
	assert.Equal(t, 90.0, receipt.Balance)
}

func TestConcurrentBuysNeverOverdraw(t *testing.T) {
	f := newFixture(t,
		[]*user.User{buyer(1, 30, 100)},
		[]*item.Item{{ID: 1, Name: "ticket", Price: 30}},
		nil,
	)
	uc := NewBuyItemUseCase(f.deps)

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Execute(context.Background(), BuyItemInput{UserID: 1, ItemID: 1})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, dompurchase.ErrInsufficientFunds)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 10.0, f.user(t, 1).Balance)
	assert.Len(t, f.pub.Events(), 3)
}

func cartFor(userID int64, ids ...int64) *domcart.Cart {
	c := domcart.New(userID, ids)
	c.ID = 1
	return c
}

func withCart(u *user.User) *user.User {
	u.AttachCart(1)
	return u
}

func TestCheckoutSettlesCart(t *testing.T) {
	f := newFixture(t,
		[]*user.User{withCart(buyer(1, 30, 50))},
		[]*item.Item{{ID: 1, Name: "a", Price: 10}, {ID: 2, Name: "b", Price: 15}},
		[]*domcart.Cart{cartFor(1, 1, 2, 2, 404)},
	)

	receipt, err := NewCheckoutUseCase(f.deps).Execute(context.Background(), CheckoutInput{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(40), receipt.Total)
	assert.Equal(t, 10.0, receipt.Balance)
	assert.Equal(t, []int64{1, 2, 2}, receipt.ItemIDs)
	assert.Equal(t, checkoutMessage, receipt.Message)

	assert.ErrorIs(t, f.cartOf(1), domcart.ErrNotFound)
	settled := f.user(t, 1)
	assert.Nil(t, settled.CartID)
	assert.Equal(t, 10.0, settled.Balance)

	events := f.pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, dompurchase.KindCheckout, events[0].Kind)
}

func TestCheckoutFailuresKeepCart(t *testing.T) {
	tests := []struct {
		name    string
		buyer   *user.User
		cart    *domcart.Cart
		wantErr error
	}{
		{"empty cart", withCart(buyer(1, 30, 50)), cartFor(1), domcart.ErrEmpty},
		{"insufficient funds", withCart(buyer(1, 30, 5)), cartFor(1, 1), dompurchase.ErrInsufficientFunds},
		{"adult item for minor", withCart(buyer(1, 16, 500)), cartFor(1, 1, 3), dompurchase.ErrAgeRestricted},
		{"total overflows int64", withCart(buyer(1, 30, 10)), cartFor(1, 5, 5), item.ErrTotalOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t,
				[]*user.User{tt.buyer},
				[]*item.Item{{ID: 1, Name: "a", Price: 10}, {ID: 3, Name: "beer", Price: 4, AdultProduct: true}, {ID: 5, Name: "yacht", Price: math.MaxInt64}},
				[]*domcart.Cart{tt.cart},
			)
			_, err := NewCheckoutUseCase(f.deps).Execute(context.Background(), CheckoutInput{UserID: 1})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NoError(t, f.cartOf(1))
			assert.Equal(t, tt.buyer.Balance, f.user(t, 1).Balance)
			assert.Empty(t, f.pub.Events())
		})
	}
}

func TestCheckoutWithoutCart(t *testing.T) {
	f := newFixture(t, []*user.User{buyer(1, 30, 50)}, nil, nil)
	_, err := NewCheckoutUseCase(f.deps).Execute(context.Background(), CheckoutInput{UserID: 1})
	assert.ErrorIs(t, err, domcart.ErrNotFound)
}

func TestCheckoutOfDeletedItemsOnlyCostsNothing(t *testing.T) {
	f := newFixture(t,
		[]*user.User{withCart(buyer(1, 30, 50))},
		nil,
		[]*domcart.Cart{cartFor(1, 8, 9)},
	)
	receipt, err := NewCheckoutUseCase(f.deps).Execute(context.Background(), CheckoutInput{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(0), receipt.Total)
	assert.Equal(t, 50.0, receipt.Balance)
}
