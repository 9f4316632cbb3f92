package item

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestApplyOnlyTouchesSuppliedFields(t *testing.T) {
	orig := &Item{ID: 7, Name: "lamp", Description: "desk lamp", Price: 30, QuantityInStock: 3, OwnerID: ptr(int64(1))}

	next, err := orig.Apply(Patch{Price: ptr(int64(45))})
	require.NoError(t, err)

	assert.Equal(t, int64(45), next.Price)
	assert.Equal(t, "lamp", next.Name)
	assert.Equal(t, "desk lamp", next.Description)
	assert.Equal(t, 3, next.QuantityInStock)
	assert.Equal(t, int64(1), *next.OwnerID)
	assert.Equal(t, int64(30), orig.Price, "original must not change")
}

func TestApplyClearOwner(t *testing.T) {
	orig := &Item{Name: "lamp", OwnerID: ptr(int64(1))}

	next, err := orig.Apply(Patch{ClearOwner: true})
	require.NoError(t, err)
	assert.Nil(t, next.OwnerID)

	next, err = orig.Apply(Patch{OwnerID: ptr(int64(9))})
	require.NoError(t, err)
	assert.True(t, next.OwnedBy(9))
	assert.False(t, orig.OwnedBy(9))
}

func TestApplyRejectsNegativePrice(t *testing.T) {
	_, err := (&Item{Name: "lamp"}).Apply(Patch{Price: ptr(int64(-1))})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidateRequiresName(t *testing.T) {
	assert.ErrorIs(t, (&Item{Name: "  "}).Validate(), ErrInvalid)
	assert.NoError(t, (&Item{Name: "wine", Price: 0}).Validate())
}

func TestCloneIsDeep(t *testing.T) {
	orig := &Item{OwnerID: ptr(int64(2))}
	clone := orig.Clone()
	*clone.OwnerID = 5
	assert.Equal(t, int64(2), *orig.OwnerID)
	assert.Nil(t, (*Item)(nil).Clone())
}

func TestAddPrice(t *testing.T) {
	total, err := AddPrice(40, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(42), total)

	total, err = AddPrice(0, math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), total)

	_, err = AddPrice(math.MaxInt64, 1)
	assert.ErrorIs(t, err, ErrTotalOverflow)
	assert.ErrorIs(t, err, ErrInvalid)
}
