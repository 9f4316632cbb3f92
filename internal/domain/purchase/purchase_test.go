package purchase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/item"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/user"
)

func TestCheckFundsGate(t *testing.T) {
	buyer := &user.User{Age: 30, Balance: 20}
	err := Policy{}.Check(buyer, 30, []*item.Item{{ID: 1, Price: 30}})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	assert.NoError(t, Policy{}.Check(buyer, 20, []*item.Item{{ID: 1, Price: 20}}))
}

func TestCheckFundsBeforeAge(t *testing.T) {
	buyer := &user.User{Age: 16, Balance: 5}
	err := Policy{}.Check(buyer, 10, []*item.Item{{ID: 1, Price: 10, AdultProduct: true}})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestCheckAgeGateReportsFirstAdultItem(t *testing.T) {
	buyer := &user.User{Age: 16, Balance: 100}
	items := []*item.Item{{ID: 1, Price: 1}, {ID: 2, Price: 1, AdultProduct: true}, {ID: 3, Price: 1, AdultProduct: true}}

	total, err := Total(items)
	require.NoError(t, err)

	err = Policy{AdultAge: 18}.Check(buyer, total, items)
	require.ErrorIs(t, err, ErrAgeRestricted)
	assert.Contains(t, err.Error(), "item 2")
}

func TestCheckCustomAdultAge(t *testing.T) {
	buyer := &user.User{Age: 19, Balance: 100}
	items := []*item.Item{{ID: 1, Price: 1, AdultProduct: true}}

	assert.NoError(t, Policy{}.Check(buyer, 1, items))
	assert.ErrorIs(t, Policy{AdultAge: 21}.Check(buyer, 1, items), ErrAgeRestricted)
}

func TestTotalCountsDuplicates(t *testing.T) {
	lamp := &item.Item{ID: 1, Price: 30}
	total, err := Total([]*item.Item{lamp, lamp, {ID: 2, Price: 15}})
	require.NoError(t, err)
	assert.Equal(t, int64(75), total)

	total, err = Total(nil)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestTotalRefusesToWrapAround(t *testing.T) {
	huge := &item.Item{ID: 1, Price: math.MaxInt64}

	total, err := Total([]*item.Item{huge})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), total)

	_, err = Total([]*item.Item{huge, huge})
	assert.ErrorIs(t, err, item.ErrTotalOverflow)
	assert.ErrorIs(t, err, item.ErrInvalid)

	_, err = Total([]*item.Item{huge, {ID: 2, Price: 1}})
	assert.ErrorIs(t, err, item.ErrTotalOverflow)
}

func TestDebitIsExact(t *testing.T) {
	assert.Equal(t, 70.0, Debit(100, 30))
	assert.Equal(t, 0.3, Debit(10.3, 10))
	assert.Equal(t, 0.0, Debit(30, 30))
}

func TestEntryFromEvent(t *testing.T) {
	ev := NewCompletedEvent("ev-1", &Receipt{UserID: 3, Kind: KindCheckout, ItemIDs: []int64{1, 2}, Total: 40, Balance: 60})
	entry := EntryFromEvent(ev)

	assert.Equal(t, "purchase.completed", ev.EventName())
	assert.Equal(t, "ev-1", entry.ID)
	assert.Equal(t, int64(3), entry.UserID)
	assert.Equal(t, KindCheckout, entry.Kind)
	assert.Equal(t, 60.0, entry.BalanceAfter)
	assert.False(t, entry.OccurredAt.IsZero())
}
