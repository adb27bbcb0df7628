package cart_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumisonnn/MEDICO/internal/apperr"
	"github.com/sumisonnn/MEDICO/internal/cart"
	"github.com/sumisonnn/MEDICO/internal/catalog"
	"github.com/sumisonnn/MEDICO/internal/memstore"
)

func setup(t *testing.T) (cart.Service, catalog.Repository) {
	t.Helper()
	store := memstore.New()
	return cart.NewService(store.Carts(), store.Medicines()), store.Medicines()
}

func addMedicine(t *testing.T, repo catalog.Repository, price string, stock int) catalog.Medicine {
	t.Helper()
	m := &catalog.Medicine{Name: "Medicine", Category: "General", Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(t, repo.Create(context.Background(), m))
	return *m
}

func TestCartService_GetOrCreateActiveCart_Idempotent(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	first, err := svc.GetOrCreateActiveCart(ctx, 1)
	require.NoError(t, err)
	second, err := svc.GetOrCreateActiveCart(ctx, 1)
	require.NoError(t, err)
	other, err := svc.GetOrCreateActiveCart(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, first.ID, other.ID)
	assert.Equal(t, cart.StatusActive, first.Status)
}

func TestCartService_AddLine_ToEmptyCart(t *testing.T) {
	svc, medicines := setup(t)
	ctx := context.Background()
	m := addMedicine(t, medicines, "4.50", 10)

	require.NoError(t, svc.AddLine(ctx, 1, m.ID, 3))

	view, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 3, view.Lines[0].Quantity)
	assert.Equal(t, 1, view.TotalItems)
	assert.Equal(t, 3, view.TotalQuantity)
	assert.Equal(t, "13.50", view.TotalPrice.StringFixed(2))
	assert.Equal(t, 10, view.Lines[0].Stock, "adding to cart never touches stock")
}

func TestCartService_AddLine_SecondAddExceedsStock(t *testing.T) {
	svc, medicines := setup(t)
	ctx := context.Background()
	m := addMedicine(t, medicines, "1.00", 5)

	require.NoError(t, svc.AddLine(ctx, 1, m.ID, 3))
	err := svc.AddLine(ctx, 1, m.ID, 3)

	var stockErr *apperr.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 6, stockErr.Requested)

	view, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 3, view.Lines[0].Quantity)
}

func TestCartService_AddLine_MergesAndRecapturesPrice(t *testing.T) {
	svc, medicines := setup(t)
	ctx := context.Background()
	m := addMedicine(t, medicines, "2.00", 10)

	require.NoError(t, svc.AddLine(ctx, 1, m.ID, 1))
	m.Price = decimal.RequireFromString("2.50")
	require.NoError(t, medicines.Update(ctx, &m))
	require.NoError(t, svc.AddLine(ctx, 1, m.ID, 2))

	view, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 3, view.Lines[0].Quantity)
	assert.Equal(t, "2.50", view.Lines[0].Price.StringFixed(2))
}

func TestCartService_AddLine_Errors(t *testing.T) {
	svc, medicines := setup(t)
	ctx := context.Background()
	m := addMedicine(t, medicines, "2.00", 2)

	assert.ErrorIs(t, svc.AddLine(ctx, 1, m.ID, 0), apperr.ErrValidation)
	assert.ErrorIs(t, svc.AddLine(ctx, 1, 999, 1), apperr.ErrNotFound)
	assert.ErrorIs(t, svc.AddLine(ctx, 1, m.ID, 3), apperr.ErrInsufficientStock)
}

func TestCartService_UpdateLineQuantity(t *testing.T) {
	svc, medicines := setup(t)
	ctx := context.Background()
	m := addMedicine(t, medicines, "2.00", 4)
	other := addMedicine(t, medicines, "1.00", 4)

	assert.ErrorIs(t, svc.UpdateLineQuantity(ctx, 1, m.ID, 2), apperr.ErrNotFound, "no active cart")

	require.NoError(t, svc.AddLine(ctx, 1, m.ID, 1))
	require.NoError(t, svc.UpdateLineQuantity(ctx, 1, m.ID, 4))
	assert.ErrorIs(t, svc.UpdateLineQuantity(ctx, 1, m.ID, 5), apperr.ErrInsufficientStock)
	assert.ErrorIs(t, svc.UpdateLineQuantity(ctx, 1, other.ID, 1), apperr.ErrNotFound, "no such line")

	view, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Lines[0].Quantity)

	require.NoError(t, svc.UpdateLineQuantity(ctx, 1, m.ID, 0))
	view, err = svc.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
}

func TestCartService_RemoveAndClear(t *testing.T) {
	svc, medicines := setup(t)
	ctx := context.Background()
	a := addMedicine(t, medicines, "2.00", 4)
	b := addMedicine(t, medicines, "3.00", 4)

	require.NoError(t, svc.Clear(ctx, 1), "clearing a missing cart succeeds")
	assert.ErrorIs(t, svc.RemoveLine(ctx, 1, a.ID), apperr.ErrNotFound)

	require.NoError(t, svc.AddLine(ctx, 1, a.ID, 1))
	require.NoError(t, svc.AddLine(ctx, 1, b.ID, 2))
	require.NoError(t, svc.RemoveLine(ctx, 1, a.ID))
	assert.ErrorIs(t, svc.RemoveLine(ctx, 1, a.ID), apperr.ErrNotFound)

	before, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "6.00", before.TotalPrice.StringFixed(2))

	require.NoError(t, svc.Clear(ctx, 1))
	require.NoError(t, svc.Clear(ctx, 1))

	after, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, after.Lines)
	assert.Equal(t, before.CartID, after.CartID)
	assert.True(t, after.TotalPrice.IsZero())
}
