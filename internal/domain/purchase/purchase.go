package purchase

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/item"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/user"
)

var (
	ErrInsufficientFunds = errors.New("purchase: insufficient funds")
	ErrAgeRestricted     = errors.New("purchase: age restricted")
)

const DefaultAdultAge = 18

type Kind string

const (
	KindItem     Kind = "item"
	KindCheckout Kind = "checkout"
)

// Policy holds the settlement gates. The zero value uses DefaultAdultAge.
type Policy struct {
	AdultAge int
}

func (p Policy) adultAge() int {
	if p.AdultAge <= 0 {
		return DefaultAdultAge
	}
	return p.AdultAge
}

// Check applies the funds gate and then the age gate. It reports the first
// adult item the buyer is too young for.
func (p Policy) Check(buyer *user.User, total int64, items []*item.Item) error {
	if decimal.NewFromFloat(buyer.Balance).LessThan(decimal.NewFromInt(total)) {
		return fmt.Errorf("%w: balance %v is below total %d", ErrInsufficientFunds, buyer.Balance, total)
	}
	if buyer.Age >= p.adultAge() {
		return nil
	}
	for _, it := range items {
		if it.AdultProduct {
			return fmt.Errorf("%w: item %d requires age %d", ErrAgeRestricted, it.ID, p.adultAge())
		}
	}
	return nil
}

// Total sums the item prices, once per occurrence. It fails with
// item.ErrTotalOverflow rather than wrap around.
func Total(items []*item.Item) (int64, error) {
	var total int64
	for _, it := range items {
		next, err := item.AddPrice(total, it.Price)
		if err != nil {
			return 0, err
		}
		total = next
	}
	return total, nil
}

// Debit subtracts total from balance with decimal arithmetic.
func Debit(balance float64, total int64) float64 {
	return decimal.NewFromFloat(balance).Sub(decimal.NewFromInt(total)).InexactFloat64()
}

// Receipt is the outcome of a successful settlement.
type Receipt struct {
	UserID  int64
	Kind    Kind
	ItemIDs []int64
	Total   int64
	Balance float64
	Message string
}
