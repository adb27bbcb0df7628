package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/sumisonnn/MEDICO/internal/apperr"
)

type Repository interface {
	// Create inserts the header and its items. It must run inside the
	// caller's transaction so that both land or neither does.
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	// RepairInvalidStatuses moves every order whose status is outside valid
	// to the given status and returns the number of rows changed.
	RepairInvalidStatuses(ctx context.Context, valid []Status, to Status) (int64, error)
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

func (r *postgresRepository) Create(ctx context.Context, o *Order) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO orders (user_id, order_number, status, total_amount, delivery_address, delivery_phone, delivery_email, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`,
		o.UserID,
		o.OrderNumber,
		string(o.Status),
		o.TotalAmount,
		o.DeliveryAddress,
		o.DeliveryPhone,
		o.DeliveryEmail,
		o.PaymentMethod,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return apperr.Conflict(fmt.Sprintf("order number %s already exists", o.OrderNumber))
		}
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID

		err := r.db.QueryRow(ctx, `
			INSERT INTO order_items (order_id, medicine_id, quantity, price)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`, item.OrderID, item.MedicineID, item.Quantity, item.Price).Scan(&item.ID, &item.CreatedAt)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order item for order %d: %w", o.ID, err)
		}
	}
	return nil
}

const orderColumns = `o.id, o.user_id, COALESCE(u.email, ''), o.order_number, o.status, o.total_amount,
	o.delivery_address, o.delivery_phone, o.delivery_email, o.payment_method, o.created_at, o.updated_at`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(
		&o.ID,
		&o.UserID,
		&o.UserEmail,
		&o.OrderNumber,
		&o.Status,
		&o.TotalAmount,
		&o.DeliveryAddress,
		&o.DeliveryPhone,
		&o.DeliveryEmail,
		&o.PaymentMethod,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := scanOrder(r.db.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		WHERE o.id = $1
	`, id), &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("order")
		}
		return nil, fmt.Errorf("repository: failed to select order by id %d: %w", id, err)
	}

	orders := []Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	return r.list(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id DESC
	`, userID)
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]Order, error) {
	return r.list(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC, o.id DESC
	`)
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $1, updated_at = now()
		WHERE id = $2
	`, string(status), id)
	if err != nil {
		log.Error().Err(err).Int64("order_id", id).Stringer("new_status", status).Msg("repository: failed to update order status")
		return fmt.Errorf("repository: failed to update order status %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		log.Warn().Int64("order_id", id).Stringer("new_status", status).Msg("repository: order not found for status update")
		return apperr.NotFound("order")
	}
	return nil
}

func (r *postgresRepository) RepairInvalidStatuses(ctx context.Context, valid []Status, to Status) (int64, error) {
	names := make([]string, len(valid))
	for i, s := range valid {
		names[i] = string(s)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $1, updated_at = now()
		WHERE status <> ALL($2)
	`, string(to), names)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to repair order statuses: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *postgresRepository) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the items of all given orders in one round trip.
func (r *postgresRepository) attachItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}

	index := make(map[int64]int, len(orders))
	ids := make([]int64, len(orders))
	for i := range orders {
		orders[i].Items = make([]Item, 0)
		index[orders[i].ID] = i
		ids[i] = orders[i].ID
	}

	rows, err := r.db.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.medicine_id, COALESCE(m.name, ''), oi.quantity, oi.price, oi.created_at
		FROM order_items oi
		LEFT JOIN medicines m ON m.id = oi.medicine_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id
	`, ids)
	if err != nil {
		return fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item Item
		err := rows.Scan(&item.ID, &item.OrderID, &item.MedicineID, &item.MedicineName, &item.Quantity, &item.Price, &item.CreatedAt)
		if err != nil {
			return fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: failed iterating order items: %w", err)
	}
	return nil
}
