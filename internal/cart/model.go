package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

func (s Status) String() string {
	return string(s)
}

// Cart is a user's basket. A user has at most one active cart.
type Cart struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Line binds a cart to a medicine. Price is the unit price captured when the
// line was last added to, not a live join.
type Line struct {
	ID         int64           `json:"id" db:"id"`
	CartID     int64           `json:"cart_id" db:"cart_id"`
	MedicineID int64           `json:"medicine_id" db:"medicine_id"`
	Quantity   int             `json:"quantity" db:"quantity"`
	Price      decimal.Decimal `json:"price" db:"price"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// LineView is a line joined with the live catalog entry it references.
type LineView struct {
	Line
	Name         string
	Category     string
	Stock        int
	Image        *string
	CurrentPrice decimal.Decimal
}

func (l LineView) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// View is the display form of a cart. TotalItems counts lines,
// TotalQuantity counts units.
type View struct {
	CartID        int64
	Lines         []LineView
	TotalItems    int
	TotalQuantity int
	TotalPrice    decimal.Decimal
}

func newView(cartID int64, lines []LineView) *View {
	v := &View{CartID: cartID, Lines: lines, TotalItems: len(lines), TotalPrice: decimal.Zero}
	for _, l := range lines {
		v.TotalQuantity += l.Quantity
		v.TotalPrice = v.TotalPrice.Add(l.Subtotal())
	}
	return v
}
