package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sumisonnn/MEDICO/internal/cart"
	"github.com/sumisonnn/MEDICO/internal/catalog"
	"github.com/sumisonnn/MEDICO/internal/order"
	"github.com/sumisonnn/MEDICO/internal/user"
)

// Money is always rendered as a string with two fractional digits.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=2,max=100"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
}

type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type CreateMedicineRequest struct {
	Name     string           `json:"name" validate:"required,max=255"`
	Category string           `json:"category" validate:"required,max=100"`
	Price    *decimal.Decimal `json:"price" validate:"required"`
	Stock    *int             `json:"stock" validate:"required,min=0"`
	Image    *string          `json:"image,omitempty"`
}

type UpdateMedicineRequest struct {
	Name     *string          `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Category *string          `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Stock    *int             `json:"stock,omitempty" validate:"omitempty,min=0"`
	Image    *string          `json:"image,omitempty"`
}

type MedicineResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     string    `json:"price"`
	Stock     int       `json:"stock"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toMedicineResponse(m *catalog.Medicine) MedicineResponse {
	return MedicineResponse{
		ID:        m.ID,
		Name:      m.Name,
		Category:  m.Category,
		Price:     money(m.Price),
		Stock:     m.Stock,
		Image:     m.Image,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toMedicineResponses(ms []catalog.Medicine) []MedicineResponse {
	out := make([]MedicineResponse, len(ms))
	for i := range ms {
		out[i] = toMedicineResponse(&ms[i])
	}
	return out
}

// CartItemRequest serves both add and update. On add a missing quantity
// means one; on update zero removes the line.
type CartItemRequest struct {
	MedicineID int64 `json:"medicine_id" validate:"required,gt=0"`
	Quantity   *int  `json:"quantity,omitempty"`
}

type CartLineResponse struct {
	ID           int64   `json:"id"`
	MedicineID   int64   `json:"medicine_id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Image        *string `json:"image"`
	Stock        int     `json:"stock"`
	Quantity     int     `json:"quantity"`
	Price        string  `json:"price"`
	CurrentPrice string  `json:"current_price"`
	Subtotal     string  `json:"subtotal"`
}

type CartResponse struct {
	CartID        int64              `json:"cart_id"`
	Items         []CartLineResponse `json:"items"`
	TotalItems    int                `json:"total_items"`
	TotalQuantity int                `json:"total_quantity"`
	TotalPrice    string             `json:"total_price"`
}

func toCartResponse(v *cart.View) CartResponse {
	items := make([]CartLineResponse, len(v.Lines))
	for i, l := range v.Lines {
		items[i] = CartLineResponse{
			ID:           l.ID,
			MedicineID:   l.MedicineID,
			Name:         l.Name,
			Category:     l.Category,
			Image:        l.Image,
			Stock:        l.Stock,
			Quantity:     l.Quantity,
			Price:        money(l.Price),
			CurrentPrice: money(l.CurrentPrice),
			Subtotal:     money(l.Subtotal()),
		}
	}
	return CartResponse{
		CartID:        v.CartID,
		Items:         items,
		TotalItems:    v.TotalItems,
		TotalQuantity: v.TotalQuantity,
		TotalPrice:    money(v.TotalPrice),
	}
}

type PlaceOrderRequest struct {
	DeliveryAddress string `json:"delivery_address" validate:"required,max=500"`
	DeliveryPhone   string `json:"delivery_phone" validate:"required,max=50"`
	DeliveryEmail   string `json:"delivery_email" validate:"required,email"`
	PaymentMethod   string `json:"payment_method,omitempty" validate:"omitempty,max=100"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type OrderItemResponse struct {
	ID           int64  `json:"id"`
	MedicineID   int64  `json:"medicine_id"`
	MedicineName string `json:"medicine_name"`
	Quantity     int    `json:"quantity"`
	Price        string `json:"price"`
	Subtotal     string `json:"subtotal"`
}

type OrderResponse struct {
	ID              int64               `json:"id"`
	OrderNumber     string              `json:"order_number"`
	UserID          int64               `json:"user_id"`
	UserEmail       string              `json:"user_email,omitempty"`
	Status          string              `json:"status"`
	TotalAmount     string              `json:"total_amount"`
	DeliveryAddress string              `json:"delivery_address"`
	DeliveryPhone   string              `json:"delivery_phone"`
	DeliveryEmail   string              `json:"delivery_email"`
	PaymentMethod   string              `json:"payment_method"`
	Items           []OrderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ID:           item.ID,
			MedicineID:   item.MedicineID,
			MedicineName: item.MedicineName,
			Quantity:     item.Quantity,
			Price:        money(item.Price),
			Subtotal:     money(item.Subtotal()),
		}
	}
	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		UserEmail:       o.UserEmail,
		Status:          string(o.Status),
		TotalAmount:     money(o.TotalAmount),
		DeliveryAddress: o.DeliveryAddress,
		DeliveryPhone:   o.DeliveryPhone,
		DeliveryEmail:   o.DeliveryEmail,
		PaymentMethod:   o.PaymentMethod,
		Items:           items,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toOrderResponses(orders []order.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	return out
}
