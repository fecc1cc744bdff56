package repositories

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"inventaris/internal/models"

	"github.com/google/uuid"
)

// MockItemRepository is an in-memory implementation of ItemRepository. It
// mirrors the locking semantics of the GORM implementation with a single
// mutex, so the stock operations stay atomic under concurrent use.
type MockItemRepository struct {
	items    map[string]models.Item
	counters map[string]int // prefix+day -> last sequence
	mu       sync.Mutex
}

// NewMockItemRepository creates a new instance of MockItemRepository.
func NewMockItemRepository() *MockItemRepository {
	return &MockItemRepository{
		items:    make(map[string]models.Item),
		counters: make(map[string]int),
	}
}

// GetAll returns all items.
func (r *MockItemRepository) GetAll() ([]models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	itemList := make([]models.Item, 0, len(r.items))
	for _, item := range r.items {
		itemList = append(itemList, item)
	}
	return itemList, nil
}

// GetByID returns an item by its ID.
func (r *MockItemRepository) GetByID(id string) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return nil, models.ErrItemNotFound
	}
	return &item, nil
}

// Create adds a new item, generating an ID and an ITM code when missing.
func (r *MockItemRepository) Create(item *models.Item, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Code == "" {
		item.Code = r.nextCodeLocked(ItemCodePrefix, now)
	}
	item.AvailableStock = item.Stock
	r.items[item.ID] = *item
	return nil
}

// Update modifies an existing item's descriptive fields.
func (r *MockItemRepository) Update(item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[item.ID]
	if !ok {
		return models.ErrItemNotFound
	}
	existing.Name = item.Name
	existing.Description = item.Description
	existing.CategoryID = item.CategoryID
	existing.Condition = item.Condition
	existing.Image = item.Image
	r.items[item.ID] = existing
	return nil
}

// Delete removes an item by its ID.
func (r *MockItemRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return models.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

// DecreaseAvailable reserves quantity units, failing when not enough are
// available. Check and decrement happen under the repository mutex.
func (r *MockItemRepository) DecreaseAvailable(_ context.Context, id string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return models.ErrItemNotFound
	}
	if item.Condition != models.ConditionGood {
		return &models.InsufficientStockError{
			ItemID:    id,
			Requested: quantity,
			Available: 0,
		}
	}
	if item.AvailableStock < quantity {
		return &models.InsufficientStockError{
			ItemID:    id,
			Requested: quantity,
			Available: item.AvailableStock,
		}
	}
	item.AvailableStock -= quantity
	r.items[id] = item
	return nil
}

// IncreaseAvailable releases quantity units back, clamped at total stock.
func (r *MockItemRepository) IncreaseAvailable(_ context.Context, id string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return models.ErrItemNotFound
	}
	newAvailable := item.AvailableStock + quantity
	if newAvailable > item.Stock {
		log.Printf("increase of %d on item %s would exceed total stock %d (available %d); clamping",
			quantity, id, item.Stock, item.AvailableStock)
		newAvailable = item.Stock
	}
	item.AvailableStock = newAvailable
	r.items[id] = item
	return nil
}

// AdjustTotalStock sets a new total, shifting available stock by the delta.
func (r *MockItemRepository) AdjustTotalStock(_ context.Context, id string, newTotal int) error {
	if newTotal < 0 {
		return fmt.Errorf("total stock cannot be negative, got %d", newTotal)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return models.ErrItemNotFound
	}
	newAvailable := item.AvailableStock + (newTotal - item.Stock)
	if newAvailable < 0 {
		return &models.WouldUnderflowAvailableError{
			ItemID: id,
			OnLoan: item.OnLoan(),
		}
	}
	item.Stock = newTotal
	item.AvailableStock = newAvailable
	r.items[id] = item
	return nil
}

// nextCodeLocked claims the next per-day sequence. Callers must hold r.mu.
func (r *MockItemRepository) nextCodeLocked(prefix string, now time.Time) string {
	key := prefix + now.Format("20060102")
	r.counters[key]++
	return models.FormatCode(prefix, now, r.counters[key])
}
