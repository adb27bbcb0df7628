package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Medicine is a catalog entry. Price carries two fractional digits and
// Stock never drops below zero.
type Medicine struct {
	ID        int64           `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Category  string          `json:"category" db:"category"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Stock     int             `json:"stock" db:"stock"`
	Image     *string         `json:"image,omitempty" db:"image"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// CreateInput carries the fields of a new medicine.
type CreateInput struct {
	Name     string
	Category string
	Price    decimal.Decimal
	Stock    int
	Image    *string
}

// UpdateInput is a partial update; nil fields keep their current value.
type UpdateInput struct {
	Name     *string
	Category *string
	Price    *decimal.Decimal
	Stock    *int
	Image    *string
}
