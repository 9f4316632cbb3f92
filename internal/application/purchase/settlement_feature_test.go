package purchase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	domcart "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/item"
	dompurchase "github.com/Zhima-Mochi/minishop-storefront/internal/domain/purchase"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/lock"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/memory"
)

const deletedItemID = 9999

type settlementScenario struct {
	store  *memory.Store
	deps   Deps
	userID int64
	items  map[string]int64
	err    error
}

func (s *settlementScenario) reset() {
	s.store = memory.NewStore()
	s.deps = Deps{
		Store:  s.store,
		Locker: lock.NewKeyedMutex(),
		Policy: dompurchase.Policy{AdultAge: dompurchase.DefaultAdultAge},
	}
	s.userID = 0
	s.items = map[string]int64{}
	s.err = nil
}

func (s *settlementScenario) atomic(fn func(ctx context.Context, tx store.Tx) error) error {
	return s.store.Atomic(context.Background(), fn)
}

func (s *settlementScenario) aUserAgedWithBalance(age int, balance float64) error {
	u := &user.User{FirstName: "Sam", LastName: "Doe", Email: "sam@example.com", Age: age, Balance: balance}
	if err := s.atomic(func(ctx context.Context, tx store.Tx) error { return tx.Users().Insert(ctx, u) }); err != nil {
		return err
	}
	s.userID = u.ID
	return nil
}

func (s *settlementScenario) addItem(name string, price int64, adult bool) error {
	it := &item.Item{Name: name, Price: price, AdultProduct: adult}
	if err := s.atomic(func(ctx context.Context, tx store.Tx) error { return tx.Items().Insert(ctx, it) }); err != nil {
		return err
	}
	s.items[name] = it.ID
	return nil
}

func (s *settlementScenario) anAdultItemPriced(name string, price int64) error {
	return s.addItem(name, price, true)
}

func (s *settlementScenario) anItemPriced(name string, price int64) error {
	return s.addItem(name, price, false)
}

func (s *settlementScenario) putCart(ids []int64) error {
	return s.atomic(func(ctx context.Context, tx store.Tx) error {
		c := domcart.New(s.userID, ids)
		if err := tx.Carts().Insert(ctx, c); err != nil {
			return err
		}
		u, err := tx.Users().Get(ctx, s.userID)
		if err != nil {
			return err
		}
		u.AttachCart(c.ID)
		return tx.Users().Update(ctx, u)
	})
}

// theCartHolds accepts a list such as `"pen", "ink" and a deleted item`.
func (s *settlementScenario) theCartHolds(list string) error {
	var ids []int64
	list = strings.ReplaceAll(list, " and ", ", ")
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "a deleted item" {
			ids = append(ids, deletedItemID)
			continue
		}
		id, ok := s.items[strings.Trim(part, `"`)]
		if !ok {
			return fmt.Errorf("unknown item %s", part)
		}
		ids = append(ids, id)
	}
	return s.putCart(ids)
}

func (s *settlementScenario) theCartIsEmpty() error {
	return s.putCart(nil)
}

func (s *settlementScenario) theUserBuys(name string) error {
	id, ok := s.items[name]
	if !ok {
		return fmt.Errorf("unknown item %q", name)
	}
	_, s.err = NewBuyItemUseCase(s.deps).Execute(context.Background(), BuyItemInput{UserID: s.userID, ItemID: id})
	return nil
}

func (s *settlementScenario) theUserChecksOut() error {
	_, s.err = NewCheckoutUseCase(s.deps).Execute(context.Background(), CheckoutInput{UserID: s.userID})
	return nil
}

func (s *settlementScenario) thePurchaseSucceeds() error {
	return s.err
}

func (s *settlementScenario) thePurchaseFailsWith(code string) error {
	if s.err == nil {
		return fmt.Errorf("expected %s, purchase succeeded", code)
	}
	if got := failureCode(s.err); got != code {
		return fmt.Errorf("expected %s, got %s (%v)", code, got, s.err)
	}
	return nil
}

func failureCode(err error) string {
	switch {
	case errors.Is(err, dompurchase.ErrInsufficientFunds):
		return "INSUFFICIENT_FUNDS"
	case errors.Is(err, dompurchase.ErrAgeRestricted):
		return "AGE_RESTRICTED"
	case errors.Is(err, domcart.ErrEmpty):
		return "EMPTY_CART"
	case errors.Is(err, domcart.ErrNotFound):
		return "CART_NOT_FOUND"
	default:
		return "OTHER"
	}
}

func (s *settlementScenario) buyer() (*user.User, error) {
	var u *user.User
	err := s.store.View(context.Background(), func(ctx context.Context, tx store.Tx) error {
		var getErr error
		u, getErr = tx.Users().Get(ctx, s.userID)
		return getErr
	})
	return u, err
}

func (s *settlementScenario) theBalanceIs(want float64) error {
	u, err := s.buyer()
	if err != nil {
		return err
	}
	if u.Balance != want {
		return fmt.Errorf("balance is %v, want %v", u.Balance, want)
	}
	return nil
}

func (s *settlementScenario) cartExists() (bool, error) {
	err := s.store.View(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, findErr := tx.Carts().FindByUser(ctx, s.userID)
		return findErr
	})
	if errors.Is(err, domcart.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *settlementScenario) theUserHasNoCart() error {
	exists, err := s.cartExists()
	if err != nil {
		return err
	}
	u, err := s.buyer()
	if err != nil {
		return err
	}
	if exists || u.CartID != nil {
		return errors.New("cart is still present")
	}
	return nil
}

func (s *settlementScenario) theUserStillHasACart() error {
	exists, err := s.cartExists()
	if err != nil {
		return err
	}
	if !exists {
		return errors.New("cart was removed")
	}
	return nil
}

func InitializeSettlementScenario(ctx *godog.ScenarioContext) {
	s := &settlementScenario{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		s.reset()
		return ctx, nil
	})

	ctx.Step(`^a user aged (\d+) with balance (\d+(?:\.\d+)?)$`, s.aUserAgedWithBalance)
	ctx.Step(`^an item "([^"]*)" priced (\d+) for adults only$`, s.anAdultItemPriced)
	ctx.Step(`^an item "([^"]*)" priced (\d+)$`, s.anItemPriced)
	ctx.Step(`^the user's cart holds (.+)$`, s.theCartHolds)
	ctx.Step(`^the user's cart is empty$`, s.theCartIsEmpty)

	ctx.Step(`^the user buys "([^"]*)"$`, s.theUserBuys)
	ctx.Step(`^the user checks out$`, s.theUserChecksOut)

	ctx.Step(`^the purchase succeeds$`, s.thePurchaseSucceeds)
	ctx.Step(`^the purchase fails with "([^"]*)"$`, s.thePurchaseFailsWith)
	ctx.Step(`^the user's balance is (\d+(?:\.\d+)?)$`, s.theBalanceIs)
	ctx.Step(`^the user has no cart$`, s.theUserHasNoCart)
	ctx.Step(`^the user still has a cart$`, s.theUserStillHasACart)
}

func TestSettlementFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeSettlementScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
