package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sumisonnn/MEDICO/internal/apperr"
	"github.com/sumisonnn/MEDICO/internal/auth"
	"github.com/sumisonnn/MEDICO/internal/cart"
	"github.com/sumisonnn/MEDICO/internal/catalog"
)

// MedicineStore is the part of the catalog the checkout writes to.
type MedicineStore interface {
	LockForUpdate(ctx context.Context, ids []int64) (map[int64]catalog.Medicine, error)
	DecrementStock(ctx context.Context, id int64, amount int) error
}

// CartStore is the part of the cart store the checkout reads and empties.
type CartStore interface {
	FindActive(ctx context.Context, userID int64) (*cart.Cart, error)
	ListLines(ctx context.Context, cartID int64) ([]cart.LineView, error)
	DeleteLines(ctx context.Context, cartID int64) (int64, error)
}

// Repositories are bound to one transaction for the duration of InTx.
type Repositories struct {
	Medicines MedicineStore
	Carts     CartStore
	Orders    Repository
}

// Transactor runs fn in a single transaction. The transaction commits when
// fn returns nil and rolls back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

type Service interface {
	PlaceOrder(ctx context.Context, userID int64, delivery Delivery) (*Order, error)
	GetOrder(ctx context.Context, caller auth.Caller, id int64) (*Order, error)
	ListUserOrders(ctx context.Context, userID int64) ([]Order, error)
	ListAllOrders(ctx context.Context) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, rawStatus string) (*Order, error)
	RepairInvalidStatuses(ctx context.Context) (int64, error)
}

const maxPlaceAttempts = 3

type service struct {
	tx        Transactor
	orders    Repository
	publisher Publisher
	now       func() time.Time
	newNumber NumberGenerator
}

type Option func(*service)

func WithPublisher(p Publisher) Option {
	return func(s *service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithNumberGenerator(gen NumberGenerator) Option {
	return func(s *service) { s.newNumber = gen }
}

func NewService(tx Transactor, orders Repository, opts ...Option) Service {
	s := &service{
		tx:        tx,
		orders:    orders,
		publisher: nopPublisher{},
		now:       time.Now,
		newNumber: GenerateNumber,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) GetOrder(ctx context.Context, caller auth.Caller, id int64) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Warn().Int64("order_id", id).Int64("user_id", caller.UserID).Msg("service: order not found by id")
			return nil, err
		}
		log.Error().Err(err).Int64("order_id", id).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	// Someone else's order is reported as missing rather than forbidden.
	if !caller.IsAdmin() && o.UserID != caller.UserID {
		log.Warn().Int64("order_id", id).Int64("user_id", caller.UserID).Msg("service: order belongs to another user")
		return nil, apperr.NotFound("order")
	}
	return o, nil
}

func (s *service) ListUserOrders(ctx context.Context, userID int64) ([]Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("service: failed to fetch user orders in repository")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}
	return orders, nil
}

func (s *service) ListAllOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to fetch all orders in repository")
		return nil, fmt.Errorf("service: failed to fetch all orders: %w", err)
	}
	return orders, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, id int64, rawStatus string) (*Order, error) {
	newStatus, err := ParseStatus(rawStatus)
	if err != nil {
		log.Warn().Int64("order_id", id).Str("new_status", rawStatus).Msg("service: unknown order status")
		return nil, err
	}

	current, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Warn().Int64("order_id", id).Stringer("new_status", newStatus).Msg("service: order not found, cannot update status")
			return nil, err
		}
		log.Error().Err(err).Int64("order_id", id).Msg("service: failed to get order for status update")
		return nil, fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if current.Status == newStatus {
		log.Info().Int64("order_id", id).Stringer("status", newStatus).Msg("service: order status is already the same, no update needed")
		return current, nil
	}

	if !CanTransition(current.Status, newStatus) {
		log.Warn().
			Int64("order_id", id).
			Stringer("current_status", current.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return nil, apperr.InvalidStatus(fmt.Sprintf("cannot change order status from %s to %s", current.Status, newStatus))
	}

	if err := s.orders.UpdateStatus(ctx, id, newStatus); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		log.Error().Err(err).Int64("order_id", id).Stringer("new_status", newStatus).Msg("service: failed to update order status in repository")
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	oldStatus := current.Status
	current.Status = newStatus
	current.UpdatedAt = s.now()

	log.Info().Int64("order_id", id).Stringer("old_status", oldStatus).Stringer("new_status", newStatus).Msg("service: order status updated successfully")
	s.publisher.Publish(newEvent(EventStatusChanged, current, s.now()))
	return current, nil
}

// RepairInvalidStatuses moves orders left in a status the storefront no
// longer produces (legacy pending rows, stray values) to confirmed.
func (s *service) RepairInvalidStatuses(ctx context.Context) (int64, error) {
	repaired, err := s.orders.RepairInvalidStatuses(ctx, LiveStatuses, StatusConfirmed)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to repair order statuses")
		return 0, fmt.Errorf("service: failed to repair order statuses: %w", err)
	}
	if repaired > 0 {
		log.Info().Int64("repaired", repaired).Msg("service: order statuses repaired")
	}
	return repaired, nil
}
