package http_test

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/sumisonnn/MEDICO/internal/auth"
	"github.com/sumisonnn/MEDICO/internal/cart"
	"github.com/sumisonnn/MEDICO/internal/catalog"
	"github.com/sumisonnn/MEDICO/internal/order"
	"github.com/sumisonnn/MEDICO/internal/user"
)

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) GetMedicine(ctx context.Context, id int64) (*catalog.Medicine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Medicine), args.Error(1)
}

func (m *MockCatalogService) ListMedicines(ctx context.Context) ([]catalog.Medicine, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Medicine), args.Error(1)
}

func (m *MockCatalogService) ListByCategory(ctx context.Context, category string) ([]catalog.Medicine, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Medicine), args.Error(1)
}

func (m *MockCatalogService) SearchMedicines(ctx context.Context, query string) ([]catalog.Medicine, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Medicine), args.Error(1)
}

func (m *MockCatalogService) CreateMedicine(ctx context.Context, in catalog.CreateInput) (*catalog.Medicine, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Medicine), args.Error(1)
}

func (m *MockCatalogService) UpdateMedicine(ctx context.Context, id int64, in catalog.UpdateInput) (*catalog.Medicine, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Medicine), args.Error(1)
}

func (m *MockCatalogService) DeleteMedicine(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCatalogService) SeedFromCSV(ctx context.Context, path string) (int, error) {
	args := m.Called(ctx, path)
	return args.Int(0), args.Error(1)
}

func (m *MockCatalogService) ExportXLSX(ctx context.Context, w io.Writer) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) GetOrCreateActiveCart(ctx context.Context, userID int64) (*cart.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) GetCart(ctx context.Context, userID int64) (*cart.View, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.View), args.Error(1)
}

func (m *MockCartService) AddLine(ctx context.Context, userID, medicineID int64, quantity int) error {
	args := m.Called(ctx, userID, medicineID, quantity)
	return args.Error(0)
}

func (m *MockCartService) UpdateLineQuantity(ctx context.Context, userID, medicineID int64, quantity int) error {
	args := m.Called(ctx, userID, medicineID, quantity)
	return args.Error(0)
}

func (m *MockCartService) RemoveLine(ctx context.Context, userID, medicineID int64) error {
	args := m.Called(ctx, userID, medicineID)
	return args.Error(0)
}

func (m *MockCartService) Clear(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, userID int64, delivery order.Delivery) (*order.Order, error) {
	args := m.Called(ctx, userID, delivery)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, caller auth.Caller, id int64) (*order.Order, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListUserOrders(ctx context.Context, userID int64) ([]order.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) ListAllOrders(ctx context.Context) ([]order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, id int64, rawStatus string) (*order.Order, error) {
	args := m.Called(ctx, id, rawStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) RepairInvalidStatuses(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, username, email, password string) (*user.User, error) {
	args := m.Called(ctx, username, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]user.User), args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id int64, input user.UpdateInput) (*user.User, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, callerID, id int64) error {
	args := m.Called(ctx, callerID, id)
	return args.Error(0)
}

func (m *MockUserService) EnsureAdmin(ctx context.Context, email, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}
