package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumisonnn/MEDICO/internal/apperr"
	"github.com/sumisonnn/MEDICO/internal/auth"
	"github.com/sumisonnn/MEDICO/internal/cart"
	"github.com/sumisonnn/MEDICO/internal/catalog"
	"github.com/sumisonnn/MEDICO/internal/order"
	"github.com/sumisonnn/MEDICO/internal/user"
)

func TestStore_InTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := &catalog.Medicine{Name: "Aspirin", Category: "Pain", Price: decimal.NewFromInt(3), Stock: 5}
	require.NoError(t, s.Medicines().Create(ctx, m))

	boom := errors.New("boom")
	err := s.InTx(ctx, func(ctx context.Context, repos order.Repositories) error {
		require.NoError(t, repos.Medicines.DecrementStock(ctx, m.ID, 2))
		require.NoError(t, repos.Orders.Create(ctx, &order.Order{UserID: 1, OrderNumber: "ORD-X", Status: order.StatusConfirmed}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Medicines().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)

	orders, err := s.Orders().ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestStore_InTxCommits(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := &catalog.Medicine{Name: "Aspirin", Category: "Pain", Price: decimal.NewFromInt(3), Stock: 5}
	require.NoError(t, s.Medicines().Create(ctx, m))

	err := s.InTx(ctx, func(ctx context.Context, repos order.Repositories) error {
		return repos.Medicines.DecrementStock(ctx, m.ID, 5)
	})
	require.NoError(t, err)

	got, err := s.Medicines().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)

	err = s.Medicines().DecrementStock(ctx, m.ID, 1)
	var stockErr *apperr.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 0, stockErr.Available)
}

func TestStore_InTxHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := New().InTx(ctx, func(context.Context, order.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestStore_CartLinesAreUniquePerMedicine(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := &catalog.Medicine{Name: "Aspirin", Category: "Pain", Price: decimal.NewFromInt(3), Stock: 5}
	require.NoError(t, s.Medicines().Create(ctx, m))

	carts := s.Carts()
	c, err := carts.GetOrCreateActive(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, carts.SaveLine(ctx, &cart.Line{CartID: c.ID, MedicineID: m.ID, Quantity: 1, Price: m.Price}))
	require.NoError(t, carts.SaveLine(ctx, &cart.Line{CartID: c.ID, MedicineID: m.ID, Quantity: 4, Price: m.Price}))

	lines, err := carts.ListLines(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].Quantity)
	assert.Equal(t, "Aspirin", lines[0].Name)
}

func TestStore_ReferentialRules(t *testing.T) {
	ctx := context.Background()
	s := New()

	u := &user.User{Username: "a", Email: "a@example.com", Role: auth.RoleUser}
	require.NoError(t, s.Users().Create(ctx, u))
	assert.ErrorIs(t, s.Users().Create(ctx, &user.User{Email: "A@example.com"}), apperr.ErrConflict)

	carted := &catalog.Medicine{Name: "Carted", Category: "X", Price: decimal.NewFromInt(1), Stock: 5}
	ordered := &catalog.Medicine{Name: "Ordered", Category: "X", Price: decimal.NewFromInt(1), Stock: 5}
	require.NoError(t, s.Medicines().Create(ctx, carted))
	require.NoError(t, s.Medicines().Create(ctx, ordered))

	c, err := s.Carts().GetOrCreateActive(ctx, u.ID)
	require.NoError(t, err)
	require.NoError(t, s.Carts().SaveLine(ctx, &cart.Line{CartID: c.ID, MedicineID: carted.ID, Quantity: 1, Price: carted.Price}))
	require.NoError(t, s.Orders().Create(ctx, &order.Order{
		UserID:      u.ID,
		OrderNumber: "ORD-1",
		Status:      order.StatusConfirmed,
		Items:       []order.Item{{MedicineID: ordered.ID, Quantity: 1, Price: ordered.Price}},
	}))

	require.NoError(t, s.Medicines().Delete(ctx, carted.ID))
	lines, err := s.Carts().ListLines(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	assert.ErrorIs(t, s.Medicines().Delete(ctx, ordered.ID), apperr.ErrConflict)
	assert.ErrorIs(t, s.Users().Delete(ctx, u.ID), apperr.ErrConflict)

	got, err := s.Orders().GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.UserEmail)
	assert.Equal(t, "Ordered", got.Items[0].MedicineName)
}
