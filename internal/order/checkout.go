package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/sumisonnn/MEDICO/internal/apperr"
	"github.com/sumisonnn/MEDICO/internal/cart"
)

// PlaceOrder converts the user's active cart into an order. Stock is checked
// against locked catalog rows, the order is priced from the live catalog and
// the cart is emptied, all in one transaction.
func (s *service) PlaceOrder(ctx context.Context, userID int64, delivery Delivery) (*Order, error) {
	delivery, err := normalizeDelivery(delivery)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("service: invalid delivery details")
		return nil, err
	}

	var placed *Order
	for attempt := 1; attempt <= maxPlaceAttempts; attempt++ {
		placed = nil
		err = s.tx.InTx(ctx, func(ctx context.Context, repos Repositories) error {
			o, err := s.checkout(ctx, repos, userID, delivery)
			if err != nil {
				return err
			}
			placed = o
			return nil
		})
		if err == nil {
			break
		}
		if errors.Is(err, apperr.ErrConflict) && attempt < maxPlaceAttempts {
			log.Warn().Err(err).Int64("user_id", userID).Int("attempt", attempt).Msg("service: order number collision, retrying")
			continue
		}
		return nil, checkoutError(err, userID)
	}

	log.Info().
		Int64("order_id", placed.ID).
		Int64("user_id", userID).
		Str("order_number", placed.OrderNumber).
		Str("total_amount", placed.TotalAmount.StringFixed(2)).
		Msg("service: order placed successfully")

	s.publisher.Publish(newEvent(EventCreated, placed, s.now()))
	return placed, nil
}

func (s *service) checkout(ctx context.Context, repos Repositories, userID int64, delivery Delivery) (*Order, error) {
	c, err := repos.Carts.FindActive(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrEmptyCart
		}
		return nil, fmt.Errorf("failed to find active cart: %w", err)
	}

	lines, err := repos.Carts.ListLines(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, apperr.ErrEmptyCart
	}

	locked, err := repos.Medicines.LockForUpdate(ctx, medicineIDs(lines))
	if err != nil {
		return nil, fmt.Errorf("failed to lock medicines: %w", err)
	}

	// Every line is checked before anything is written.
	total := decimal.Zero
	items := make([]Item, 0, len(lines))
	for _, line := range lines {
		m, ok := locked[line.MedicineID]
		if !ok {
			return nil, apperr.NotFound(fmt.Sprintf("medicine %d", line.MedicineID))
		}
		if line.Quantity > m.Stock {
			return nil, &apperr.InsufficientStockError{
				MedicineID: m.ID,
				Name:       m.Name,
				Available:  m.Stock,
				Requested:  line.Quantity,
			}
		}

		item := Item{MedicineID: m.ID, MedicineName: m.Name, Quantity: line.Quantity, Price: m.Price}
		total = total.Add(item.Subtotal())
		items = append(items, item)
	}

	number, err := s.newNumber(s.now())
	if err != nil {
		return nil, err
	}

	o := &Order{
		UserID:          userID,
		OrderNumber:     number,
		Status:          StatusConfirmed,
		TotalAmount:     total.Round(2),
		DeliveryAddress: delivery.Address,
		DeliveryPhone:   delivery.Phone,
		DeliveryEmail:   delivery.Email,
		PaymentMethod:   delivery.PaymentMethod,
		Items:           items,
	}
	if err := repos.Orders.Create(ctx, o); err != nil {
		return nil, err
	}

	for _, item := range o.Items {
		if err := repos.Medicines.DecrementStock(ctx, item.MedicineID, item.Quantity); err != nil {
			return nil, err
		}
	}

	if _, err := repos.Carts.DeleteLines(ctx, c.ID); err != nil {
		return nil, fmt.Errorf("failed to clear cart %d: %w", c.ID, err)
	}
	return o, nil
}

func checkoutError(err error, userID int64) error {
	switch {
	case errors.Is(err, apperr.ErrEmptyCart):
		log.Warn().Int64("user_id", userID).Msg("service: checkout attempted with empty cart")
		return err
	case errors.Is(err, apperr.ErrInsufficientStock),
		errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrConflict):
		log.Warn().Err(err).Int64("user_id", userID).Msg("service: checkout rejected")
		return err
	default:
		log.Error().Err(err).Int64("user_id", userID).Msg("service: checkout failed")
		return fmt.Errorf("service: failed to place order: %w", err)
	}
}

func normalizeDelivery(d Delivery) (Delivery, error) {
	d.Address = strings.TrimSpace(d.Address)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Email = strings.TrimSpace(d.Email)
	d.PaymentMethod = strings.TrimSpace(d.PaymentMethod)

	var problems []string
	if d.Address == "" {
		problems = append(problems, "delivery address is required")
	}
	if d.Phone == "" {
		problems = append(problems, "delivery phone is required")
	}
	if d.Email == "" {
		problems = append(problems, "delivery email is required")
	}
	if len(problems) > 0 {
		return d, apperr.Validation(strings.Join(problems, "; "))
	}

	if d.PaymentMethod == "" {
		d.PaymentMethod = DefaultPaymentMethod
	}
	return d, nil
}

// medicineIDs returns the distinct ids in ascending order so that
// concurrent checkouts take row locks in the same order.
func medicineIDs(lines []cart.LineView) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.MedicineID]; ok {
			continue
		}
		seen[l.MedicineID] = struct{}{}
		ids = append(ids, l.MedicineID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
