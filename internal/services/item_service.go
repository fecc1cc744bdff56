package services

import (
	"context"
	"fmt"
	"time"

	"inventaris/internal/models"
	"inventaris/internal/repositories"
)

// ItemService handles business logic related to inventory items.
type ItemService struct {
	itemRepo     repositories.ItemRepository
	borrowRepo   repositories.BorrowingRepository
	categoryRepo repositories.CategoryRepository
}

// NewItemService creates a new ItemService.
func NewItemService(
	itemRepo repositories.ItemRepository,
	borrowRepo repositories.BorrowingRepository,
	categoryRepo repositories.CategoryRepository,
) *ItemService {
	return &ItemService{
		itemRepo:     itemRepo,
		borrowRepo:   borrowRepo,
		categoryRepo: categoryRepo,
	}
}

// GetAllItems retrieves all items.
func (s *ItemService) GetAllItems() ([]models.Item, error) {
	return s.itemRepo.GetAll()
}

// GetItemByID retrieves a single item by its ID.
func (s *ItemService) GetItemByID(id string) (*models.Item, error) {
	return s.itemRepo.GetByID(id)
}

// CreateItem creates a new item. The category must exist, the condition
// defaults to good, and available stock starts equal to total stock.
func (s *ItemService) CreateItem(item *models.Item, now time.Time) error {
	if s.categoryRepo != nil && item.CategoryID != "" {
		if _, err := s.categoryRepo.GetByID(item.CategoryID); err != nil {
			return err
		}
	}
	if item.Condition == "" {
		item.Condition = models.ConditionGood
	}
	if !item.Condition.Valid() {
		return fmt.Errorf("invalid item condition: %s", item.Condition)
	}
	return s.itemRepo.Create(item, now)
}

// UpdateItem updates an item's descriptive fields. Stock changes go through
// AdjustStock so the available-stock bookkeeping stays intact.
func (s *ItemService) UpdateItem(item *models.Item) error {
	if item.Condition != "" && !item.Condition.Valid() {
		return fmt.Errorf("invalid item condition: %s", item.Condition)
	}
	return s.itemRepo.Update(item)
}

// AdjustStock sets a new total stock for the item, shifting available stock
// by the same delta. A reduction below the number of units on loan fails
// with models.WouldUnderflowAvailableError.
func (s *ItemService) AdjustStock(ctx context.Context, id string, newTotal int) error {
	return s.itemRepo.AdjustTotalStock(ctx, id, newTotal)
}

// DeleteItem deletes an item, refusing while it has pending or out-on-loan
// borrowings.
func (s *ItemService) DeleteItem(id string) error {
	open, err := s.borrowRepo.HasOpenForItem(id)
	if err != nil {
		return err
	}
	if open {
		return fmt.Errorf("cannot delete item %s: %w", id, models.ErrItemInUse)
	}
	return s.itemRepo.Delete(id)
}
