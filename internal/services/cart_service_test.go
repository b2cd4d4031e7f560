package services_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbot/internal/services"
)

const buyer int64 = 1001

func TestCartAddItem_MergesAndReportsHeadroom(t *testing.T) {
	e := newEnv(t)
	e.seedProduct(t, "milk-tea", 60, 5)

	qty, err := e.cart.AddItem(buyer, "milk-tea", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, qty)

	// same product merges into the existing line
	qty, err = e.cart.AddItem(buyer, "milk-tea", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, qty)

	cv, err := e.cart.Totals(buyer)
	require.NoError(t, err)
	assert.Len(t, cv.Lines, 1)

	// 4 in cart, stock 5: adding 2 more must fail and report 1 unit of headroom
	_, err = e.cart.AddItem(buyer, "milk-tea", 2, nil)
	var oos *services.OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, 1, oos.Available)
	assert.ErrorIs(t, err, services.ErrOutOfStock)
}

func TestCartAddItem_InactiveProduct(t *testing.T) {
	e := newEnv(t)
	e.seedProduct(t, "egg-roll", 150, 8)
	require.NoError(t, e.prods.SetActive("egg-roll", false))

	_, err := e.cart.AddItem(buyer, "egg-roll", 1, nil)
	assert.ErrorIs(t, err, services.ErrProductInactive)

	_, err = e.cart.AddItem(buyer, "no-such-product", 1, nil)
	assert.ErrorIs(t, err, services.ErrProductInactive)
}

func TestCartAdjustQuantity_Bounds(t *testing.T) {
	e := newEnv(t)
	e.seedProduct(t, "milk-tea", 60, 3)
	_, err := e.cart.AddItem(buyer, "milk-tea", 1, nil)
	require.NoError(t, err)

	// floor is 1; the line is only removed explicitly
	_, err = e.cart.AdjustQuantity(buyer, "milk-tea", -1)
	assert.ErrorIs(t, err, services.ErrInvalidQuantity)

	qty, err := e.cart.AdjustQuantity(buyer, "milk-tea", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, qty)

	_, err = e.cart.AdjustQuantity(buyer, "milk-tea", 1)
	assert.ErrorIs(t, err, services.ErrOutOfStock)

	// unknown line
	_, err = e.cart.AdjustQuantity(buyer, "nope", 1)
	assert.ErrorIs(t, err, services.ErrLineNotFound)
}

func TestCartRemoveAndClear(t *testing.T) {
	e := newEnv(t)
	e.seedProduct(t, "a", 10, 5)
	e.seedProduct(t, "b", 20, 5)
	_, err := e.cart.AddItem(buyer, "a", 1, nil)
	require.NoError(t, err)
	_, err = e.cart.AddItem(buyer, "b", 1, nil)
	require.NoError(t, err)

	require.NoError(t, e.cart.RemoveLine(buyer, "a"))
	assert.ErrorIs(t, e.cart.RemoveLine(buyer, "a"), services.ErrLineNotFound)

	require.NoError(t, e.cart.Clear(buyer))
	cv, err := e.cart.Totals(buyer)
	require.NoError(t, err)
	assert.Empty(t, cv.Lines)
}

func TestCartTotals_RecomputedFromLiveCatalog(t *testing.T) {
	e := newEnv(t)
	e.seedProduct(t, "milk-tea", 100, 5)
	e.seedOption(t, "opt-pearl", "milk-tea", "Pearls", 20)

	_, err := e.cart.AddItem(buyer, "milk-tea", 2, []string{"opt-pearl"})
	require.NoError(t, err)

	cv, err := e.cart.Totals(buyer)
	require.NoError(t, err)
	require.Len(t, cv.Lines, 1)
	assert.Equal(t, 120.0, cv.Lines[0].UnitPrice)
	assert.Equal(t, 240.0, cv.Total)
	assert.Equal(t, 2, cv.ItemCount)

	// carts do not cache prices: a catalog price change shows on the next read
	p, err := e.prods.Get("milk-tea")
	require.NoError(t, err)
	p.Price = 150
	require.NoError(t, e.prods.Save(p))

	cv, err = e.cart.Totals(buyer)
	require.NoError(t, err)
	assert.Equal(t, 170.0, cv.Lines[0].UnitPrice)
	assert.Equal(t, 340.0, cv.Total)
}

func TestCartAddItem_RejectsForeignOption(t *testing.T) {
	e := newEnv(t)
	e.seedProduct(t, "milk-tea", 60, 5)
	e.seedProduct(t, "lemon", 55, 5)
	e.seedOption(t, "opt-large", "lemon", "Large", 15)

	_, err := e.cart.AddItem(buyer, "milk-tea", 1, []string{"opt-large"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, services.ErrOutOfStock))
}
