package catalog_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"github.com/sumisonnn/MEDICO/internal/apperr"
	"github.com/sumisonnn/MEDICO/internal/catalog"
)

type MockMedicineRepository struct {
	mock.Mock
}

func (m *MockMedicineRepository) GetByID(ctx context.Context, id int64) (*catalog.Medicine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) List(ctx context.Context) ([]catalog.Medicine, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) ListByCategory(ctx context.Context, category string) ([]catalog.Medicine, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) Search(ctx context.Context, query string) ([]catalog.Medicine, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockMedicineRepository) Create(ctx context.Context, med *catalog.Medicine) error {
	args := m.Called(ctx, med)
	return args.Error(0)
}

func (m *MockMedicineRepository) Update(ctx context.Context, med *catalog.Medicine) error {
	args := m.Called(ctx, med)
	return args.Error(0)
}

func (m *MockMedicineRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMedicineRepository) LockForUpdate(ctx context.Context, ids []int64) (map[int64]catalog.Medicine, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]catalog.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) DecrementStock(ctx context.Context, id int64, amount int) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func TestCatalogService_CreateMedicine_Success(t *testing.T) {
	mockRepo := new(MockMedicineRepository)
	svc := catalog.NewService(mockRepo)

	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *catalog.Medicine) bool {
		return m.Name == "Paracetamol" && m.Category == "Analgesic" && m.Price.Equal(decimal.RequireFromString("4.50")) && m.Image == nil
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*catalog.Medicine).ID = 7
	}).Return(nil).Once()

	blank := "   "
	created, err := svc.CreateMedicine(context.Background(), catalog.CreateInput{
		Name:     "  Paracetamol ",
		Category: "Analgesic",
		Price:    decimal.RequireFromString("4.5"),
		Stock:    10,
		Image:    &blank,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)
	assert.Equal(t, "Paracetamol", created.Name)
	mockRepo.AssertExpectations(t)
}

func TestCatalogService_CreateMedicine_Validation(t *testing.T) {
	mockRepo := new(MockMedicineRepository)
	svc := catalog.NewService(mockRepo)

	_, err := svc.CreateMedicine(context.Background(), catalog.CreateInput{
		Price: decimal.NewFromInt(-1),
		Stock: -3,
	})

	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "category is required")
	assert.Contains(t, err.Error(), "price cannot be negative")
	assert.Contains(t, err.Error(), "stock cannot be negative")
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCatalogService_UpdateMedicine_Partial(t *testing.T) {
	mockRepo := new(MockMedicineRepository)
	svc := catalog.NewService(mockRepo)

	existing := &catalog.Medicine{ID: 3, Name: "Ibuprofen", Category: "NSAID", Price: decimal.RequireFromString("6.00"), Stock: 4}
	mockRepo.On("GetByID", mock.Anything, int64(3)).Return(existing, nil).Once()
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(m *catalog.Medicine) bool {
		return m.Name == "Ibuprofen" && m.Stock == 40
	})).Return(nil).Once()

	stock := 40
	updated, err := svc.UpdateMedicine(context.Background(), 3, catalog.UpdateInput{Stock: &stock})

	require.NoError(t, err)
	assert.Equal(t, 40, updated.Stock)
	assert.Equal(t, "NSAID", updated.Category)
	mockRepo.AssertExpectations(t)
}

func TestCatalogService_UpdateMedicine_NotFound(t *testing.T) {
	mockRepo := new(MockMedicineRepository)
	svc := catalog.NewService(mockRepo)

	mockRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, apperr.NotFound("medicine")).Once()

	_, err := svc.UpdateMedicine(context.Background(), 99, catalog.UpdateInput{})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestCatalogService_DeleteMedicine_WrapsUnexpected(t *testing.T) {
	mockRepo := new(MockMedicineRepository)
	svc := catalog.NewService(mockRepo)

	mockRepo.On("Delete", mock.Anything, int64(1)).Return(errors.New("connection reset")).Once()

	err := svc.DeleteMedicine(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestCatalogService_SearchMedicines_EmptyQueryListsAll(t *testing.T) {
	mockRepo := new(MockMedicineRepository)
	svc := catalog.NewService(mockRepo)

	all := []catalog.Medicine{{ID: 1, Name: "Aspirin"}}
	mockRepo.On("List", mock.Anything).Return(all, nil).Once()

	got, err := svc.SearchMedicines(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, all, got)
	mockRepo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestParsePrice(t *testing.T) {
	price, err := catalog.ParsePrice(" 12.30 ")
	require.NoError(t, err)
	assert.Equal(t, "12.30", price.StringFixed(2))

	_, err = catalog.ParsePrice("1.234")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = catalog.ParsePrice("abc")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCatalogService_SeedFromCSV(t *testing.T) {
	mockRepo := new(MockMedicineRepository)
	svc := catalog.NewService(mockRepo)

	path := filepath.Join(t.TempDir(), "medicines.csv")
	content := "name,category,price,stock,image\n" +
		"Aspirin,Analgesic,3.20,100,aspirin.png\n" +
		"Cetirizine,Antihistamine,5.00,40\n" +
		"Broken,Antibiotic,not-a-price,10\n" +
		"Amoxicillin,Antibiotic,12.75,25\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	mockRepo.On("ExistsByName", mock.Anything, "Aspirin").Return(false, nil).Once()
	mockRepo.On("ExistsByName", mock.Anything, "Cetirizine").Return(true, nil).Once()
	mockRepo.On("ExistsByName", mock.Anything, "Amoxicillin").Return(false, nil).Once()
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*catalog.Medicine")).Return(nil).Twice()

	inserted, err := svc.SeedFromCSV(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	mockRepo.AssertExpectations(t)
}

func TestCatalogService_ExportXLSX(t *testing.T) {
	mockRepo := new(MockMedicineRepository)
	svc := catalog.NewService(mockRepo)

	image := "aspirin.png"
	mockRepo.On("List", mock.Anything).Return([]catalog.Medicine{
		{ID: 1, Name: "Aspirin", Category: "Analgesic", Price: decimal.RequireFromString("3.2"), Stock: 100, Image: &image},
		{ID: 2, Name: "Cetirizine", Category: "Antihistamine", Price: decimal.NewFromInt(5), Stock: 0},
	}, nil).Once()

	var buf bytes.Buffer
	require.NoError(t, svc.ExportXLSX(context.Background(), &buf))

	book, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, book.Sheets, 1)

	rows := book.Sheets[0].Rows
	require.Len(t, rows, 3)
	assert.Equal(t, "Name", rows[0].Cells[1].String())
	assert.Equal(t, "Aspirin", rows[1].Cells[1].String())
	assert.Equal(t, "3.20", rows[1].Cells[3].String())
	assert.Equal(t, "aspirin.png", rows[1].Cells[5].String())
	assert.Equal(t, "5.00", rows[2].Cells[3].String())
}
