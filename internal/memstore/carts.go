package memstore

import (
	"context"
	"sort"

	"github.com/sumisonnn/MEDICO/internal/apperr"
	"github.com/sumisonnn/MEDICO/internal/cart"
)

type cartRepository struct {
	view
}

func findActive(st *state, userID int64) (cart.Cart, bool) {
	for _, c := range st.carts {
		if c.UserID == userID && c.Status == cart.StatusActive {
			return c, true
		}
	}
	return cart.Cart{}, false
}

func findLine(st *state, cartID, medicineID int64) (cart.Line, bool) {
	for _, l := range st.lines {
		if l.CartID == cartID && l.MedicineID == medicineID {
			return l, true
		}
	}
	return cart.Line{}, false
}

func (r *cartRepository) GetOrCreateActive(_ context.Context, userID int64) (*cart.Cart, error) {
	var out cart.Cart
	err := r.do(func(st *state) error {
		if c, ok := findActive(st, userID); ok {
			out = c
			return nil
		}
		st.seq.cart++
		now := r.store.now()
		out = cart.Cart{ID: st.seq.cart, UserID: userID, Status: cart.StatusActive, CreatedAt: now, UpdatedAt: now}
		st.carts[out.ID] = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *cartRepository) FindActive(_ context.Context, userID int64) (*cart.Cart, error) {
	var out cart.Cart
	err := r.do(func(st *state) error {
		c, ok := findActive(st, userID)
		if !ok {
			return apperr.NotFound("cart")
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *cartRepository) ListLines(_ context.Context, cartID int64) ([]cart.LineView, error) {
	out := make([]cart.LineView, 0)
	err := r.do(func(st *state) error {
		for _, l := range st.lines {
			if l.CartID != cartID {
				continue
			}
			m, ok := st.medicines[l.MedicineID]
			if !ok {
				continue
			}
			out = append(out, cart.LineView{
				Line:         l,
				Name:         m.Name,
				Category:     m.Category,
				Stock:        m.Stock,
				Image:        m.Image,
				CurrentPrice: m.Price,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *cartRepository) GetLine(_ context.Context, cartID, medicineID int64) (*cart.Line, error) {
	var out cart.Line
	err := r.do(func(st *state) error {
		l, ok := findLine(st, cartID, medicineID)
		if !ok {
			return apperr.NotFound("cart item")
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *cartRepository) SaveLine(_ context.Context, line *cart.Line) error {
	return r.do(func(st *state) error {
		if _, ok := st.medicines[line.MedicineID]; !ok {
			return apperr.NotFound("medicine")
		}
		now := r.store.now()
		if existing, ok := findLine(st, line.CartID, line.MedicineID); ok {
			line.ID = existing.ID
			line.CreatedAt = existing.CreatedAt
		} else {
			st.seq.line++
			line.ID = st.seq.line
			line.CreatedAt = now
		}
		line.UpdatedAt = now
		st.lines[line.ID] = *line
		return nil
	})
}

func (r *cartRepository) UpdateLineQuantity(_ context.Context, cartID, medicineID int64, quantity int) error {
	return r.do(func(st *state) error {
		l, ok := findLine(st, cartID, medicineID)
		if !ok {
			return apperr.NotFound("cart item")
		}
		l.Quantity = quantity
		l.UpdatedAt = r.store.now()
		st.lines[l.ID] = l
		return nil
	})
}

func (r *cartRepository) DeleteLine(_ context.Context, cartID, medicineID int64) error {
	return r.do(func(st *state) error {
		l, ok := findLine(st, cartID, medicineID)
		if !ok {
			return apperr.NotFound("cart item")
		}
		delete(st.lines, l.ID)
		return nil
	})
}

func (r *cartRepository) DeleteLines(_ context.Context, cartID int64) (int64, error) {
	var removed int64
	err := r.do(func(st *state) error {
		for id, l := range st.lines {
			if l.CartID == cartID {
				delete(st.lines, id)
				removed++
			}
		}
		return nil
	})
	return removed, err
}
