package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sumisonnn/MEDICO/internal/apperr"
	"github.com/sumisonnn/MEDICO/internal/catalog"
)

// MedicineReader is the slice of the catalog the cart needs: stock is only
// ever read here, never written.
type MedicineReader interface {
	GetByID(ctx context.Context, id int64) (*catalog.Medicine, error)
}

type Service interface {
	GetOrCreateActiveCart(ctx context.Context, userID int64) (*Cart, error)
	GetCart(ctx context.Context, userID int64) (*View, error)
	AddLine(ctx context.Context, userID, medicineID int64, quantity int) error
	UpdateLineQuantity(ctx context.Context, userID, medicineID int64, quantity int) error
	RemoveLine(ctx context.Context, userID, medicineID int64) error
	Clear(ctx context.Context, userID int64) error
}

type service struct {
	carts     Repository
	medicines MedicineReader
}

func NewService(carts Repository, medicines MedicineReader) Service {
	return &service{carts: carts, medicines: medicines}
}

func (s *service) GetOrCreateActiveCart(ctx context.Context, userID int64) (*Cart, error) {
	c, err := s.carts.GetOrCreateActive(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("service: failed to get or create active cart")
		return nil, fmt.Errorf("service: failed to get active cart: %w", err)
	}
	return c, nil
}

func (s *service) GetCart(ctx context.Context, userID int64) (*View, error) {
	c, err := s.GetOrCreateActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines, err := s.carts.ListLines(ctx, c.ID)
	if err != nil {
		log.Error().Err(err).Int64("cart_id", c.ID).Msg("service: failed to list cart lines")
		return nil, fmt.Errorf("service: failed to list cart lines: %w", err)
	}

	return newView(c.ID, lines), nil
}

func (s *service) AddLine(ctx context.Context, userID, medicineID int64, quantity int) error {
	if quantity < 1 {
		return apperr.Validation("quantity must be at least 1")
	}

	medicine, err := s.loadMedicine(ctx, medicineID)
	if err != nil {
		return err
	}
	if quantity > medicine.Stock {
		return insufficient(medicine, quantity)
	}

	c, err := s.GetOrCreateActiveCart(ctx, userID)
	if err != nil {
		return err
	}

	newQuantity := quantity
	existing, err := s.carts.GetLine(ctx, c.ID, medicineID)
	switch {
	case err == nil:
		newQuantity = existing.Quantity + quantity
	case errors.Is(err, apperr.ErrNotFound):
	default:
		log.Error().Err(err).Int64("cart_id", c.ID).Int64("medicine_id", medicineID).Msg("service: failed to load cart line")
		return fmt.Errorf("service: failed to load cart line: %w", err)
	}

	if newQuantity > medicine.Stock {
		log.Warn().Int64("user_id", userID).Int64("medicine_id", medicineID).
			Int("stock", medicine.Stock).Int("requested", newQuantity).
			Msg("service: add to cart exceeds stock")
		return insufficient(medicine, newQuantity)
	}

	line := &Line{CartID: c.ID, MedicineID: medicineID, Quantity: newQuantity, Price: medicine.Price}
	if err := s.carts.SaveLine(ctx, line); err != nil {
		log.Error().Err(err).Int64("cart_id", c.ID).Int64("medicine_id", medicineID).Msg("service: failed to save cart line")
		return fmt.Errorf("service: failed to save cart line: %w", err)
	}

	log.Debug().Int64("cart_id", c.ID).Int64("medicine_id", medicineID).Int("quantity", newQuantity).Msg("service: cart line saved")
	return nil
}

// UpdateLineQuantity sets the quantity of an existing line. A quantity of
// zero or less removes the line.
func (s *service) UpdateLineQuantity(ctx context.Context, userID, medicineID int64, quantity int) error {
	if quantity <= 0 {
		return s.RemoveLine(ctx, userID, medicineID)
	}

	c, err := s.findActive(ctx, userID)
	if err != nil {
		return err
	}

	if _, err := s.carts.GetLine(ctx, c.ID, medicineID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		return fmt.Errorf("service: failed to load cart line: %w", err)
	}

	medicine, err := s.loadMedicine(ctx, medicineID)
	if err != nil {
		return err
	}
	if quantity > medicine.Stock {
		return insufficient(medicine, quantity)
	}

	if err := s.carts.UpdateLineQuantity(ctx, c.ID, medicineID, quantity); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		log.Error().Err(err).Int64("cart_id", c.ID).Int64("medicine_id", medicineID).Msg("service: failed to update cart line")
		return fmt.Errorf("service: failed to update cart line: %w", err)
	}
	return nil
}

func (s *service) RemoveLine(ctx context.Context, userID, medicineID int64) error {
	c, err := s.findActive(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.carts.DeleteLine(ctx, c.ID, medicineID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		log.Error().Err(err).Int64("cart_id", c.ID).Int64("medicine_id", medicineID).Msg("service: failed to delete cart line")
		return fmt.Errorf("service: failed to delete cart line: %w", err)
	}
	return nil
}

// Clear empties the active cart. A user without a cart has nothing to clear.
func (s *service) Clear(ctx context.Context, userID int64) error {
	c, err := s.findActive(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return err
	}

	removed, err := s.carts.DeleteLines(ctx, c.ID)
	if err != nil {
		log.Error().Err(err).Int64("cart_id", c.ID).Msg("service: failed to clear cart")
		return fmt.Errorf("service: failed to clear cart: %w", err)
	}

	log.Debug().Int64("cart_id", c.ID).Int64("removed", removed).Msg("service: cart cleared")
	return nil
}

func (s *service) findActive(ctx context.Context, userID int64) (*Cart, error) {
	c, err := s.carts.FindActive(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		log.Error().Err(err).Int64("user_id", userID).Msg("service: failed to find active cart")
		return nil, fmt.Errorf("service: failed to find active cart: %w", err)
	}
	return c, nil
}

func (s *service) loadMedicine(ctx context.Context, id int64) (*catalog.Medicine, error) {
	m, err := s.medicines.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		log.Error().Err(err).Int64("medicine_id", id).Msg("service: failed to load medicine")
		return nil, fmt.Errorf("service: failed to load medicine: %w", err)
	}
	return m, nil
}

func insufficient(m *catalog.Medicine, requested int) error {
	return &apperr.InsufficientStockError{
		MedicineID: m.ID,
		Name:       m.Name,
		Available:  m.Stock,
		Requested:  requested,
	}
}
