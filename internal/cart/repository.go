package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sumisonnn/MEDICO/internal/apperr"
)

type Repository interface {
	// GetOrCreateActive upserts the user's single active cart.
	GetOrCreateActive(ctx context.Context, userID int64) (*Cart, error)
	FindActive(ctx context.Context, userID int64) (*Cart, error)
	ListLines(ctx context.Context, cartID int64) ([]LineView, error)
	GetLine(ctx context.Context, cartID, medicineID int64) (*Line, error)
	// SaveLine inserts the line or overwrites quantity and price of the
	// existing (cart, medicine) line.
	SaveLine(ctx context.Context, line *Line) error
	UpdateLineQuantity(ctx context.Context, cartID, medicineID int64, quantity int) error
	DeleteLine(ctx context.Context, cartID, medicineID int64) error
	DeleteLines(ctx context.Context, cartID int64) (int64, error)
}

// DB is satisfied by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresRepository struct {
	db DB
}

func NewPostgresRepository(db DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetOrCreateActive(ctx context.Context, userID int64) (*Cart, error) {
	// carts_one_active_per_user makes concurrent callers converge on one row.
	_, err := r.db.Exec(ctx, `
		INSERT INTO carts (user_id, status)
		VALUES ($1, 'active')
		ON CONFLICT (user_id) WHERE status = 'active' DO NOTHING
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to upsert active cart for user %d: %w", userID, err)
	}
	return r.FindActive(ctx, userID)
}

func (r *postgresRepository) FindActive(ctx context.Context, userID int64) (*Cart, error) {
	var c Cart
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, status, created_at, updated_at
		FROM carts
		WHERE user_id = $1 AND status = 'active'
	`, userID).Scan(&c.ID, &c.UserID, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("cart")
		}
		return nil, fmt.Errorf("repository: failed to select active cart for user %d: %w", userID, err)
	}
	return &c, nil
}

func (r *postgresRepository) ListLines(ctx context.Context, cartID int64) ([]LineView, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ci.id, ci.cart_id, ci.medicine_id, ci.quantity, ci.price, ci.created_at, ci.updated_at,
		       m.name, m.category, m.stock, m.image, m.price
		FROM cart_items ci
		JOIN medicines m ON m.id = ci.medicine_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at, ci.id
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query lines of cart %d: %w", cartID, err)
	}
	defer rows.Close()

	lines := make([]LineView, 0)
	for rows.Next() {
		var l LineView
		err := rows.Scan(
			&l.ID, &l.CartID, &l.MedicineID, &l.Quantity, &l.Price, &l.CreatedAt, &l.UpdatedAt,
			&l.Name, &l.Category, &l.Stock, &l.Image, &l.CurrentPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan line of cart %d: %w", cartID, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating lines of cart %d: %w", cartID, err)
	}
	return lines, nil
}

func (r *postgresRepository) GetLine(ctx context.Context, cartID, medicineID int64) (*Line, error) {
	var l Line
	err := r.db.QueryRow(ctx, `
		SELECT id, cart_id, medicine_id, quantity, price, created_at, updated_at
		FROM cart_items
		WHERE cart_id = $1 AND medicine_id = $2
	`, cartID, medicineID).Scan(&l.ID, &l.CartID, &l.MedicineID, &l.Quantity, &l.Price, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("cart item")
		}
		return nil, fmt.Errorf("repository: failed to select line for medicine %d in cart %d: %w", medicineID, cartID, err)
	}
	return &l, nil
}

func (r *postgresRepository) SaveLine(ctx context.Context, line *Line) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO cart_items (cart_id, medicine_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, medicine_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, price = EXCLUDED.price, updated_at = now()
		RETURNING id, created_at, updated_at
	`, line.CartID, line.MedicineID, line.Quantity, line.Price).Scan(&line.ID, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to save line for medicine %d in cart %d: %w", line.MedicineID, line.CartID, err)
	}
	return nil
}

func (r *postgresRepository) UpdateLineQuantity(ctx context.Context, cartID, medicineID int64, quantity int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE cart_items
		SET quantity = $1, updated_at = now()
		WHERE cart_id = $2 AND medicine_id = $3
	`, quantity, cartID, medicineID)
	if err != nil {
		return fmt.Errorf("repository: failed to update line for medicine %d in cart %d: %w", medicineID, cartID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("cart item")
	}
	return nil
}

func (r *postgresRepository) DeleteLine(ctx context.Context, cartID, medicineID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND medicine_id = $2`, cartID, medicineID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete line for medicine %d in cart %d: %w", medicineID, cartID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("cart item")
	}
	return nil
}

func (r *postgresRepository) DeleteLines(ctx context.Context, cartID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to clear cart %d: %w", cartID, err)
	}
	return tag.RowsAffected(), nil
}
