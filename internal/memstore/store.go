// Package memstore is an in-memory implementation of every repository. A
// transaction works on a cloned copy of the state that replaces the live
// state only when the transaction function succeeds.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/sumisonnn/MEDICO/internal/cart"
	"github.com/sumisonnn/MEDICO/internal/catalog"
	"github.com/sumisonnn/MEDICO/internal/order"
	"github.com/sumisonnn/MEDICO/internal/user"
)

type sequences struct {
	medicine, cart, line, order, item, user int64
}

type state struct {
	medicines map[int64]catalog.Medicine
	carts     map[int64]cart.Cart
	lines     map[int64]cart.Line
	orders    map[int64]order.Order
	users     map[int64]user.User
	seq       sequences
}

func newState() *state {
	return &state{
		medicines: map[int64]catalog.Medicine{},
		carts:     map[int64]cart.Cart{},
		lines:     map[int64]cart.Line{},
		orders:    map[int64]order.Order{},
		users:     map[int64]user.User{},
	}
}

func (s *state) clone() *state {
	c := &state{
		medicines: make(map[int64]catalog.Medicine, len(s.medicines)),
		carts:     make(map[int64]cart.Cart, len(s.carts)),
		lines:     make(map[int64]cart.Line, len(s.lines)),
		orders:    make(map[int64]order.Order, len(s.orders)),
		users:     make(map[int64]user.User, len(s.users)),
		seq:       s.seq,
	}
	for k, v := range s.medicines {
		c.medicines[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = v
	}
	for k, v := range s.orders {
		v.Items = append([]order.Item(nil), v.Items...)
		c.orders[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{state: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// view binds repositories either to the live state (tx == nil, each call
// takes the store lock) or to the working copy of a running transaction,
// whose lock is already held.
type view struct {
	store *Store
	tx    *state
}

func (v view) do(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.state)
}

func (s *Store) Medicines() catalog.Repository { return &medicineRepository{view{store: s}} }
func (s *Store) Carts() cart.Repository { return &cartRepository{view{store: s}} }
func (s *Store) Orders() order.Repository { return &orderRepository{view{store: s}} }
func (s *Store) Users() user.Repository { return &userRepository{view{store: s}} }

// InTx serializes transactions behind the store lock. Changes made through
// repos become visible only if fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, repos order.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	v := view{store: s, tx: working}
	repos := order.Repositories{
		Medicines: &medicineRepository{v},
		Carts:     &cartRepository{v},
		Orders:    &orderRepository{v},
	}

	if err := fn(ctx, repos); err != nil {
		return err
	}
	s.state = working
	return nil
}
