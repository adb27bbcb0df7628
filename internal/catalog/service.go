package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/sumisonnn/MEDICO/internal/apperr"
)

type Service interface {
	GetMedicine(ctx context.Context, id int64) (*Medicine, error)
	ListMedicines(ctx context.Context) ([]Medicine, error)
	ListByCategory(ctx context.Context, category string) ([]Medicine, error)
	SearchMedicines(ctx context.Context, query string) ([]Medicine, error)
	CreateMedicine(ctx context.Context, in CreateInput) (*Medicine, error)
	UpdateMedicine(ctx context.Context, id int64, in UpdateInput) (*Medicine, error)
	DeleteMedicine(ctx context.Context, id int64) error
	SeedFromCSV(ctx context.Context, path string) (int, error)
	ExportXLSX(ctx context.Context, w io.Writer) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetMedicine(ctx context.Context, id int64) (*Medicine, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		log.Error().Err(err).Int64("medicine_id", id).Msg("service: failed to fetch medicine")
		return nil, fmt.Errorf("service: failed to fetch medicine: %w", err)
	}
	return m, nil
}

func (s *service) ListMedicines(ctx context.Context) ([]Medicine, error) {
	medicines, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list medicines")
		return nil, fmt.Errorf("service: failed to list medicines: %w", err)
	}
	return medicines, nil
}

func (s *service) ListByCategory(ctx context.Context, category string) ([]Medicine, error) {
	medicines, err := s.repo.ListByCategory(ctx, strings.TrimSpace(category))
	if err != nil {
		log.Error().Err(err).Str("category", category).Msg("service: failed to list medicines by category")
		return nil, fmt.Errorf("service: failed to list medicines by category: %w", err)
	}
	return medicines, nil
}

// SearchMedicines matches name or category case-insensitively. An empty
// query returns the whole catalog.
func (s *service) SearchMedicines(ctx context.Context, query string) ([]Medicine, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListMedicines(ctx)
	}
	medicines, err := s.repo.Search(ctx, query)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("service: failed to search medicines")
		return nil, fmt.Errorf("service: failed to search medicines: %w", err)
	}
	return medicines, nil
}

func (s *service) CreateMedicine(ctx context.Context, in CreateInput) (*Medicine, error) {
	m := &Medicine{
		Name:     strings.TrimSpace(in.Name),
		Category: strings.TrimSpace(in.Category),
		Price:    in.Price.Round(2),
		Stock:    in.Stock,
		Image:    normalizeImage(in.Image),
	}
	if err := validate(m); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, m); err != nil {
		if errors.Is(err, apperr.ErrConflict) || errors.Is(err, apperr.ErrValidation) {
			return nil, err
		}
		log.Error().Err(err).Str("name", m.Name).Msg("service: failed to create medicine")
		return nil, fmt.Errorf("service: failed to create medicine: %w", err)
	}

	log.Info().Int64("medicine_id", m.ID).Str("name", m.Name).Msg("service: medicine created")
	return m, nil
}

func (s *service) UpdateMedicine(ctx context.Context, id int64, in UpdateInput) (*Medicine, error) {
	m, err := s.GetMedicine(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		m.Name = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		m.Category = strings.TrimSpace(*in.Category)
	}
	if in.Price != nil {
		m.Price = in.Price.Round(2)
	}
	if in.Stock != nil {
		m.Stock = *in.Stock
	}
	if in.Image != nil {
		m.Image = normalizeImage(in.Image)
	}
	if err := validate(m); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, m); err != nil {
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrConflict) || errors.Is(err, apperr.ErrValidation) {
			return nil, err
		}
		log.Error().Err(err).Int64("medicine_id", id).Msg("service: failed to update medicine")
		return nil, fmt.Errorf("service: failed to update medicine: %w", err)
	}

	log.Info().Int64("medicine_id", id).Msg("service: medicine updated")
	return m, nil
}

func (s *service) DeleteMedicine(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrConflict) {
			return err
		}
		log.Error().Err(err).Int64("medicine_id", id).Msg("service: failed to delete medicine")
		return fmt.Errorf("service: failed to delete medicine: %w", err)
	}

	log.Info().Int64("medicine_id", id).Msg("service: medicine deleted")
	return nil
}

func validate(m *Medicine) error {
	var problems []string
	if m.Name == "" {
		problems = append(problems, "name is required")
	}
	if m.Category == "" {
		problems = append(problems, "category is required")
	}
	if m.Price.IsNegative() {
		problems = append(problems, "price cannot be negative")
	}
	if m.Stock < 0 {
		problems = append(problems, "stock cannot be negative")
	}
	if len(problems) > 0 {
		return apperr.Validation(strings.Join(problems, "; "))
	}
	return nil
}

func normalizeImage(image *string) *string {
	if image == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*image)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// ParsePrice parses a decimal price string, rejecting values with more than
// two fractional digits.
func ParsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, apperr.Validation(fmt.Sprintf("invalid price %q", raw))
	}
	if !price.Equal(price.Round(2)) {
		return decimal.Zero, apperr.Validation(fmt.Sprintf("price %q has more than two decimal places", raw))
	}
	return price, nil
}
