package db

import (
	"context"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumisonnn/MEDICO/internal/apperr"
	"github.com/sumisonnn/MEDICO/internal/auth"
	"github.com/sumisonnn/MEDICO/internal/cart"
	"github.com/sumisonnn/MEDICO/internal/catalog"
	"github.com/sumisonnn/MEDICO/internal/config"
	"github.com/sumisonnn/MEDICO/internal/order"
	"github.com/sumisonnn/MEDICO/internal/user"
)

func TestMigrationDSN(t *testing.T) {
	dsn := MigrationDSN(config.PostgresConfig{
		Host:     "db.local",
		Port:     "5433",
		User:     "medico",
		Password: "p@ss word",
		DBName:   "medico",
		SSLMode:  "disable",
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "pgx5", u.Scheme)
	assert.Equal(t, "db.local:5433", u.Host)
	assert.Equal(t, "/medico", u.Path)
	password, _ := u.User.Password()
	assert.Equal(t, "p@ss word", password)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
}

// setupPostgres needs TEST_DATABASE_URL pointing at a disposable database.
func setupPostgres(t *testing.T) *Postgres {
	t.Helper()
	raw := os.Getenv("TEST_DATABASE_URL")
	if raw == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	m, err := migrate.New("file://../../migrations", "pgx5://"+strings.SplitN(raw, "://", 2)[1])
	require.NoError(t, err)
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err)
	}
	_, _ = m.Close()

	pool, err := pgxpool.New(ctx, raw)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE order_items, orders, cart_items, carts, medicines, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return &Postgres{Pool: pool}
}

func TestPostgres_Checkout(t *testing.T) {
	pg := setupPostgres(t)
	ctx := context.Background()

	users := user.NewPostgresRepository(pg.Pool)
	medicines := catalog.NewPostgresRepository(pg.Pool)
	carts := cart.NewService(cart.NewPostgresRepository(pg.Pool), medicines)
	orders := order.NewService(NewTransactor(pg), order.NewPostgresRepository(pg.Pool))

	buyer := &user.User{Username: "buyer", Email: "buyer@example.com", PasswordHash: "x", Role: auth.RoleUser}
	require.NoError(t, users.Create(ctx, buyer))
	assert.ErrorIs(t, users.Create(ctx, &user.User{Username: "dup", Email: "buyer@example.com", PasswordHash: "x", Role: auth.RoleUser}), apperr.ErrConflict)

	a := &catalog.Medicine{Name: "Paracetamol", Category: "Pain", Price: decimal.RequireFromString("10.00"), Stock: 5}
	b := &catalog.Medicine{Name: "Cetirizine", Category: "Allergy", Price: decimal.RequireFromString("5.00"), Stock: 1}
	require.NoError(t, medicines.Create(ctx, a))
	require.NoError(t, medicines.Create(ctx, b))

	require.NoError(t, carts.AddLine(ctx, buyer.ID, a.ID, 2))
	require.NoError(t, carts.AddLine(ctx, buyer.ID, b.ID, 1))

	placed, err := orders.PlaceOrder(ctx, buyer.ID, order.Delivery{Address: "x", Phone: "1", Email: "buyer@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "25.00", placed.TotalAmount.StringFixed(2))

	got, err := medicines.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)

	view, err := carts.GetCart(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	all, err := orders.ListAllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "buyer@example.com", all[0].UserEmail)
	assert.Len(t, all[0].Items, 2)

	assert.ErrorIs(t, medicines.DecrementStock(ctx, b.ID, 1), apperr.ErrInsufficientStock)
	assert.ErrorIs(t, medicines.Delete(ctx, a.ID), apperr.ErrConflict)
}
