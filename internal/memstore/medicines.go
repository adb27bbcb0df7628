package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/sumisonnn/MEDICO/internal/apperr"
	"github.com/sumisonnn/MEDICO/internal/catalog"
)

type medicineRepository struct {
	view
}

func (r *medicineRepository) GetByID(_ context.Context, id int64) (*catalog.Medicine, error) {
	var out *catalog.Medicine
	err := r.do(func(st *state) error {
		m, ok := st.medicines[id]
		if !ok {
			return apperr.NotFound("medicine")
		}
		out = &m
		return nil
	})
	return out, err
}

func (r *medicineRepository) List(_ context.Context) ([]catalog.Medicine, error) {
	return r.filter(func(catalog.Medicine) bool { return true })
}

func (r *medicineRepository) ListByCategory(_ context.Context, category string) ([]catalog.Medicine, error) {
	return r.filter(func(m catalog.Medicine) bool { return m.Category == category })
}

func (r *medicineRepository) Search(_ context.Context, query string) ([]catalog.Medicine, error) {
	q := strings.ToLower(query)
	return r.filter(func(m catalog.Medicine) bool {
		return strings.Contains(strings.ToLower(m.Name), q) || strings.Contains(strings.ToLower(m.Category), q)
	})
}

func (r *medicineRepository) ExistsByName(_ context.Context, name string) (bool, error) {
	var exists bool
	err := r.do(func(st *state) error {
		for _, m := range st.medicines {
			if strings.EqualFold(m.Name, name) {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

func (r *medicineRepository) Create(_ context.Context, m *catalog.Medicine) error {
	return r.do(func(st *state) error {
		if m.Stock < 0 {
			return apperr.ErrInsufficientStock
		}
		st.seq.medicine++
		now := r.store.now()
		m.ID = st.seq.medicine
		m.CreatedAt, m.UpdatedAt = now, now
		st.medicines[m.ID] = *m
		return nil
	})
}

func (r *medicineRepository) Update(_ context.Context, m *catalog.Medicine) error {
	return r.do(func(st *state) error {
		current, ok := st.medicines[m.ID]
		if !ok {
			return apperr.NotFound("medicine")
		}
		if m.Stock < 0 {
			return apperr.ErrInsufficientStock
		}
		m.CreatedAt = current.CreatedAt
		m.UpdatedAt = r.store.now()
		st.medicines[m.ID] = *m
		return nil
	})
}

// Delete mirrors the schema: cart lines cascade, order items restrict.
func (r *medicineRepository) Delete(_ context.Context, id int64) error {
	return r.do(func(st *state) error {
		if _, ok := st.medicines[id]; !ok {
			return apperr.NotFound("medicine")
		}
		for _, o := range st.orders {
			for _, item := range o.Items {
				if item.MedicineID == id {
					return apperr.Conflict("medicine is referenced by existing orders")
				}
			}
		}
		for lineID, l := range st.lines {
			if l.MedicineID == id {
				delete(st.lines, lineID)
			}
		}
		delete(st.medicines, id)
		return nil
	})
}

func (r *medicineRepository) LockForUpdate(_ context.Context, ids []int64) (map[int64]catalog.Medicine, error) {
	locked := make(map[int64]catalog.Medicine, len(ids))
	err := r.do(func(st *state) error {
		for _, id := range ids {
			if m, ok := st.medicines[id]; ok {
				locked[id] = m
			}
		}
		return nil
	})
	return locked, err
}

func (r *medicineRepository) DecrementStock(_ context.Context, id int64, amount int) error {
	return r.do(func(st *state) error {
		m, ok := st.medicines[id]
		if !ok {
			return apperr.NotFound("medicine")
		}
		if m.Stock < amount {
			return &apperr.InsufficientStockError{MedicineID: id, Name: m.Name, Available: m.Stock, Requested: amount}
		}
		m.Stock -= amount
		m.UpdatedAt = r.store.now()
		st.medicines[id] = m
		return nil
	})
}

func (r *medicineRepository) filter(keep func(catalog.Medicine) bool) ([]catalog.Medicine, error) {
	out := make([]catalog.Medicine, 0)
	err := r.do(func(st *state) error {
		for _, m := range st.medicines {
			if keep(m) {
				out = append(out, m)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}
