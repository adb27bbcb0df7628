package order

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultPaymentMethod = "Cash on Delivery"

type Item struct {
	ID           int64           `json:"id" db:"id"`
	OrderID      int64           `json:"order_id" db:"order_id"`
	MedicineID   int64           `json:"medicine_id" db:"medicine_id"`
	MedicineName string          `json:"medicine_name,omitempty" db:"-"` // read side only, joined from medicines
	Quantity     int             `json:"quantity" db:"quantity"`
	Price        decimal.Decimal `json:"price" db:"price"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is immutable once created except for Status.
type Order struct {
	ID              int64           `json:"id" db:"id"`
	UserID          int64           `json:"user_id" db:"user_id"`
	UserEmail       string          `json:"user_email,omitempty" db:"-"` // admin listing only
	OrderNumber     string          `json:"order_number" db:"order_number"`
	Status          Status          `json:"status" db:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	DeliveryAddress string          `json:"delivery_address" db:"delivery_address"`
	DeliveryPhone   string          `json:"delivery_phone" db:"delivery_phone"`
	DeliveryEmail   string          `json:"delivery_email" db:"delivery_email"`
	PaymentMethod   string          `json:"payment_method" db:"payment_method"`
	Items           []Item          `json:"items" db:"-"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Delivery is captured verbatim at checkout.
type Delivery struct {
	Address       string
	Phone         string
	Email         string
	PaymentMethod string
}
