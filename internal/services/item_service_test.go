package services_test

import (
	"context"
	"testing"
	"time"

	"inventaris/internal/models"
	"inventaris/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockItemRepository is a mock implementation of repositories.ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) GetAll() ([]models.Item, error) {
	args := m.Called()
	return args.Get(0).([]models.Item), args.Error(1)
}

func (m *MockItemRepository) GetByID(id string) (*models.Item, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *MockItemRepository) Create(item *models.Item, now time.Time) error {
	args := m.Called(item, now)
	return args.Error(0)
}

func (m *MockItemRepository) Update(item *models.Item) error {
	args := m.Called(item)
	return args.Error(0)
}

func (m *MockItemRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockItemRepository) DecreaseAvailable(ctx context.Context, id string, quantity int) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func (m *MockItemRepository) IncreaseAvailable(ctx context.Context, id string, quantity int) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func (m *MockItemRepository) AdjustTotalStock(ctx context.Context, id string, newTotal int) error {
	args := m.Called(ctx, id, newTotal)
	return args.Error(0)
}

// MockBorrowingRepository is a mock implementation of repositories.BorrowingRepository
type MockBorrowingRepository struct {
	mock.Mock
}

func (m *MockBorrowingRepository) GetAll() ([]models.Borrowing, error) {
	args := m.Called()
	return args.Get(0).([]models.Borrowing), args.Error(1)
}

func (m *MockBorrowingRepository) GetByID(id string) (*models.Borrowing, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Borrowing), args.Error(1)
}

func (m *MockBorrowingRepository) GetByUser(userID string) ([]models.Borrowing, error) {
	args := m.Called(userID)
	return args.Get(0).([]models.Borrowing), args.Error(1)
}

func (m *MockBorrowingRepository) Create(ctx context.Context, borrowing *models.Borrowing, now time.Time) error {
	args := m.Called(ctx, borrowing, now)
	return args.Error(0)
}

func (m *MockBorrowingRepository) Update(borrowing *models.Borrowing) error {
	args := m.Called(borrowing)
	return args.Error(0)
}

func (m *MockBorrowingRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockBorrowingRepository) ListActiveDueBefore(ctx context.Context, cutoff time.Time) ([]models.Borrowing, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]models.Borrowing), args.Error(1)
}

func (m *MockBorrowingRepository) ListActiveDueOn(ctx context.Context, day time.Time) ([]models.Borrowing, error) {
	args := m.Called(ctx, day)
	return args.Get(0).([]models.Borrowing), args.Error(1)
}

func (m *MockBorrowingRepository) HasOpenForItem(itemID string) (bool, error) {
	args := m.Called(itemID)
	return args.Bool(0), args.Error(1)
}

// MockCategoryRepository is a mock implementation of repositories.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) GetAll() ([]models.Category, error) {
	args := m.Called()
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByID(id string) (*models.Category, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) Create(category *models.Category) error {
	args := m.Called(category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Update(category *models.Category) error {
	args := m.Called(category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func TestItemService_CreateItem(t *testing.T) {
	mockItems := new(MockItemRepository)
	mockBorrowings := new(MockBorrowingRepository)
	mockCategories := new(MockCategoryRepository)
	service := services.NewItemService(mockItems, mockBorrowings, mockCategories)

	newItem := &models.Item{Name: "Whiteboard", CategoryID: "cat-1", Stock: 5}

	mockCategories.On("GetByID", "cat-1").Return(&models.Category{ID: "cat-1", Name: "Office"}, nil).Once()
	mockItems.On("Create", newItem, testNow).Return(nil).Once()

	err := service.CreateItem(newItem, testNow)
	assert.NoError(t, err)
	// Condition defaults to good when unset
	assert.Equal(t, models.ConditionGood, newItem.Condition)
	mockItems.AssertExpectations(t)
	mockCategories.AssertExpectations(t)
}

func TestItemService_CreateItem_UnknownCategory(t *testing.T) {
	mockItems := new(MockItemRepository)
	mockBorrowings := new(MockBorrowingRepository)
	mockCategories := new(MockCategoryRepository)
	service := services.NewItemService(mockItems, mockBorrowings, mockCategories)

	newItem := &models.Item{Name: "Whiteboard", CategoryID: "cat-99", Stock: 5}
	mockCategories.On("GetByID", "cat-99").Return(nil, models.ErrCategoryNotFound).Once()

	err := service.CreateItem(newItem, testNow)
	assert.ErrorIs(t, err, models.ErrCategoryNotFound)
	mockItems.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestItemService_CreateItem_InvalidCondition(t *testing.T) {
	mockItems := new(MockItemRepository)
	mockBorrowings := new(MockBorrowingRepository)
	mockCategories := new(MockCategoryRepository)
	service := services.NewItemService(mockItems, mockBorrowings, mockCategories)

	newItem := &models.Item{Name: "Whiteboard", CategoryID: "cat-1", Stock: 5, Condition: "broken"}
	mockCategories.On("GetByID", "cat-1").Return(&models.Category{ID: "cat-1"}, nil).Once()

	err := service.CreateItem(newItem, testNow)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid item condition")
}

func TestItemService_DeleteItem_BlockedByOpenBorrowings(t *testing.T) {
	mockItems := new(MockItemRepository)
	mockBorrowings := new(MockBorrowingRepository)
	service := services.NewItemService(mockItems, mockBorrowings, nil)

	mockBorrowings.On("HasOpenForItem", "item-1").Return(true, nil).Once()

	err := service.DeleteItem("item-1")
	assert.ErrorIs(t, err, models.ErrItemInUse)
	mockItems.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestItemService_DeleteItem(t *testing.T) {
	mockItems := new(MockItemRepository)
	mockBorrowings := new(MockBorrowingRepository)
	service := services.NewItemService(mockItems, mockBorrowings, nil)

	mockBorrowings.On("HasOpenForItem", "item-1").Return(false, nil).Once()
	mockItems.On("Delete", "item-1").Return(nil).Once()

	err := service.DeleteItem("item-1")
	assert.NoError(t, err)
	mockItems.AssertExpectations(t)
	mockBorrowings.AssertExpectations(t)
}

func TestItemService_AdjustStock(t *testing.T) {
	mockItems := new(MockItemRepository)
	mockBorrowings := new(MockBorrowingRepository)
	service := services.NewItemService(mockItems, mockBorrowings, nil)

	ctx := context.Background()
	mockItems.On("AdjustTotalStock", ctx, "item-1", 12).Return(nil).Once()

	err := service.AdjustStock(ctx, "item-1", 12)
	assert.NoError(t, err)
	mockItems.AssertExpectations(t)
}
