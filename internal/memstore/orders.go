package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/sumisonnn/MEDICO/internal/apperr"
	"github.com/sumisonnn/MEDICO/internal/order"
)

type orderRepository struct {
	view
}

func (r *orderRepository) Create(_ context.Context, o *order.Order) error {
	return r.do(func(st *state) error {
		for _, existing := range st.orders {
			if existing.OrderNumber == o.OrderNumber {
				return apperr.Conflict(fmt.Sprintf("order number %s already exists", o.OrderNumber))
			}
		}

		now := r.store.now()
		st.seq.order++
		o.ID = st.seq.order
		o.CreatedAt, o.UpdatedAt = now, now
		for i := range o.Items {
			st.seq.item++
			o.Items[i].ID = st.seq.item
			o.Items[i].OrderID = o.ID
			o.Items[i].CreatedAt = now
		}

		stored := *o
		stored.UserEmail = ""
		stored.Items = append([]order.Item(nil), o.Items...)
		st.orders[o.ID] = stored
		return nil
	})
}

func (r *orderRepository) GetByID(_ context.Context, id int64) (*order.Order, error) {
	var out order.Order
	err := r.do(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return apperr.NotFound("order")
		}
		out = hydrate(st, o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *orderRepository) ListByUser(_ context.Context, userID int64) ([]order.Order, error) {
	return r.filter(func(o order.Order) bool { return o.UserID == userID })
}

func (r *orderRepository) ListAll(_ context.Context) ([]order.Order, error) {
	return r.filter(func(order.Order) bool { return true })
}

func (r *orderRepository) UpdateStatus(_ context.Context, id int64, status order.Status) error {
	return r.do(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return apperr.NotFound("order")
		}
		o.Status = status
		o.UpdatedAt = r.store.now()
		st.orders[id] = o
		return nil
	})
}

func (r *orderRepository) RepairInvalidStatuses(_ context.Context, valid []order.Status, to order.Status) (int64, error) {
	var repaired int64
	err := r.do(func(st *state) error {
		now := r.store.now()
		for id, o := range st.orders {
			if slices.Contains(valid, o.Status) {
				continue
			}
			o.Status = to
			o.UpdatedAt = now
			st.orders[id] = o
			repaired++
		}
		return nil
	})
	return repaired, err
}

func (r *orderRepository) filter(keep func(order.Order) bool) ([]order.Order, error) {
	out := make([]order.Order, 0)
	err := r.do(func(st *state) error {
		for _, o := range st.orders {
			if keep(o) {
				out = append(out, hydrate(st, o))
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

// hydrate fills the read-side joins: owner email and medicine names.
func hydrate(st *state, o order.Order) order.Order {
	if u, ok := st.users[o.UserID]; ok {
		o.UserEmail = u.Email
	}
	items := make([]order.Item, len(o.Items))
	for i, item := range o.Items {
		if m, ok := st.medicines[item.MedicineID]; ok {
			item.MedicineName = m.Name
		}
		items[i] = item
	}
	o.Items = items
	return o
}
