package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sumisonnn/MEDICO/internal/apperr"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Medicine, error)
	List(ctx context.Context) ([]Medicine, error)
	ListByCategory(ctx context.Context, category string) ([]Medicine, error)
	Search(ctx context.Context, query string) ([]Medicine, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, m *Medicine) error
	Update(ctx context.Context, m *Medicine) error
	Delete(ctx context.Context, id int64) error
	// LockForUpdate loads the given medicines and holds their rows until the
	// surrounding transaction ends. Missing ids are absent from the map.
	LockForUpdate(ctx context.Context, ids []int64) (map[int64]Medicine, error)
	DecrementStock(ctx context.Context, id int64, amount int) error
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

const medicineColumns = `id, name, category, price, stock, image, created_at, updated_at`

func scanMedicine(row pgx.Row, m *Medicine) error {
	return row.Scan(&m.ID, &m.Name, &m.Category, &m.Price, &m.Stock, &m.Image, &m.CreatedAt, &m.UpdatedAt)
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Medicine, error) {
	var m Medicine
	err := scanMedicine(r.db.QueryRow(ctx, `SELECT `+medicineColumns+` FROM medicines WHERE id = $1`, id), &m)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("medicine")
		}
		return nil, fmt.Errorf("repository: failed to select medicine %d: %w", id, err)
	}
	return &m, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]Medicine, error) {
	return r.queryMany(ctx, `SELECT `+medicineColumns+` FROM medicines ORDER BY created_at DESC, id DESC`)
}

func (r *postgresRepository) ListByCategory(ctx context.Context, category string) ([]Medicine, error) {
	return r.queryMany(ctx, `SELECT `+medicineColumns+` FROM medicines WHERE category = $1 ORDER BY created_at DESC, id DESC`, category)
}

func (r *postgresRepository) Search(ctx context.Context, query string) ([]Medicine, error) {
	return r.queryMany(ctx, `
		SELECT `+medicineColumns+`
		FROM medicines
		WHERE name ILIKE '%' || $1 || '%' OR category ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC, id DESC
	`, query)
}

func (r *postgresRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM medicines WHERE lower(name) = lower($1))`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repository: failed to check medicine name %q: %w", name, err)
	}
	return exists, nil
}

func (r *postgresRepository) Create(ctx context.Context, m *Medicine) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO medicines (name, category, price, stock, image)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, m.Name, m.Category, m.Price, m.Stock, m.Image).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "failed to insert medicine")
	}
	return nil
}

func (r *postgresRepository) Update(ctx context.Context, m *Medicine) error {
	err := r.db.QueryRow(ctx, `
		UPDATE medicines
		SET name = $1, category = $2, price = $3, stock = $4, image = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at
	`, m.Name, m.Category, m.Price, m.Stock, m.Image, m.ID).Scan(&m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("medicine")
		}
		return mapWriteError(err, fmt.Sprintf("failed to update medicine %d", m.ID))
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return apperr.Conflict("medicine is referenced by existing orders")
		}
		return fmt.Errorf("repository: failed to delete medicine %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("medicine")
	}
	return nil
}

func (r *postgresRepository) LockForUpdate(ctx context.Context, ids []int64) (map[int64]Medicine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+medicineColumns+`
		FROM medicines
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to lock medicines: %w", err)
	}
	defer rows.Close()

	locked := make(map[int64]Medicine, len(ids))
	for rows.Next() {
		var m Medicine
		if err := scanMedicine(rows, &m); err != nil {
			return nil, fmt.Errorf("repository: failed to scan locked medicine: %w", err)
		}
		locked[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating locked medicines: %w", err)
	}
	return locked, nil
}

func (r *postgresRepository) DecrementStock(ctx context.Context, id int64, amount int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE medicines
		SET stock = stock - $1, updated_at = now()
		WHERE id = $2 AND stock >= $1
	`, amount, id)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("failed to decrement stock of medicine %d", id))
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return &apperr.InsufficientStockError{
		MedicineID: id,
		Name:       current.Name,
		Available:  current.Stock,
		Requested:  amount,
	}
}

func (r *postgresRepository) queryMany(ctx context.Context, query string, args ...any) ([]Medicine, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query medicines: %w", err)
	}
	defer rows.Close()

	medicines := make([]Medicine, 0)
	for rows.Next() {
		var m Medicine
		if err := scanMedicine(rows, &m); err != nil {
			return nil, fmt.Errorf("repository: failed to scan medicine: %w", err)
		}
		medicines = append(medicines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating medicines: %w", err)
	}
	return medicines, nil
}

func mapWriteError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.CheckViolation:
			if pgErr.ConstraintName == "medicines_stock_check" {
				return apperr.ErrInsufficientStock
			}
			return apperr.Validation(pgErr.Message)
		case pgerrcode.UniqueViolation:
			return apperr.Conflict("medicine already exists")
		}
	}
	return fmt.Errorf("repository: %s: %w", msg, err)
}
