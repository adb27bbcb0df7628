package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/sumisonnn/MEDICO/internal/apperr"
	"github.com/sumisonnn/MEDICO/internal/user"
)

type userRepository struct {
	view
}

func emailTaken(st *state, email string, exceptID int64) bool {
	for _, u := range st.users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *userRepository) Create(_ context.Context, u *user.User) error {
	return r.do(func(st *state) error {
		if emailTaken(st, u.Email, 0) {
			return apperr.Conflict("email already exists")
		}
		st.seq.user++
		now := r.store.now()
		u.ID = st.seq.user
		u.CreatedAt, u.UpdatedAt = now, now
		st.users[u.ID] = *u
		return nil
	})
}

func (r *userRepository) GetByID(_ context.Context, id int64) (*user.User, error) {
	var out user.User
	err := r.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return apperr.NotFound("user")
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	var out user.User
	err := r.do(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				out = u
				return nil
			}
		}
		return apperr.NotFound("user")
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepository) List(_ context.Context) ([]user.User, error) {
	out := make([]user.User, 0)
	err := r.do(func(st *state) error {
		for _, u := range st.users {
			out = append(out, u)
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

func (r *userRepository) Update(_ context.Context, u *user.User) error {
	return r.do(func(st *state) error {
		current, ok := st.users[u.ID]
		if !ok {
			return apperr.NotFound("user")
		}
		if emailTaken(st, u.Email, u.ID) {
			return apperr.Conflict("email already exists")
		}
		u.CreatedAt = current.CreatedAt
		u.UpdatedAt = r.store.now()
		st.users[u.ID] = *u
		return nil
	})
}

// Delete mirrors the schema: carts cascade, orders restrict.
func (r *userRepository) Delete(_ context.Context, id int64) error {
	return r.do(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return apperr.NotFound("user")
		}
		for _, o := range st.orders {
			if o.UserID == id {
				return apperr.Conflict("user has orders and cannot be deleted")
			}
		}
		for cartID, c := range st.carts {
			if c.UserID != id {
				continue
			}
			for lineID, l := range st.lines {
				if l.CartID == cartID {
					delete(st.lines, lineID)
				}
			}
			delete(st.carts, cartID)
		}
		delete(st.users, id)
		return nil
	})
}
