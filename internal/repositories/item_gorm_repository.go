package repositories

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"inventaris/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMItemRepository is a GORM implementation of ItemRepository.
type GORMItemRepository struct {
	db *gorm.DB
}

// NewGORMItemRepository creates a new instance of GORMItemRepository.
func NewGORMItemRepository(db *gorm.DB) *GORMItemRepository {
	return &GORMItemRepository{
		db: db,
	}
}

// GetAll retrieves all items from the database.
func (r *GORMItemRepository) GetAll() ([]models.Item, error) {
	var items []models.Item
	if err := r.db.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to get all items: %w", err)
	}
	return items, nil
}

// GetByID retrieves a single item by its ID from the database.
func (r *GORMItemRepository) GetByID(id string) (*models.Item, error) {
	var item models.Item
	if err := r.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item by ID %s: %w", id, err)
	}
	return &item, nil
}

// Create creates a new item in the database. A unique ITM code is generated
// in the same transaction when the item has none, and available stock starts
// equal to total stock.
func (r *GORMItemRepository) Create(item *models.Item, now time.Time) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.AvailableStock = item.Stock

	return withRetry("item create", func() error {
		return r.db.Transaction(func(tx *gorm.DB) error {
			if item.Code == "" {
				code, err := nextCode(tx, ItemCodePrefix, now)
				if err != nil {
					return err
				}
				item.Code = code
			}
			return tx.Create(item).Error
		})
	})
}

// Update updates an existing item in the database. Stock counters are not
// touched here; they change only through the atomic stock operations below.
func (r *GORMItemRepository) Update(item *models.Item) error {
	res := r.db.Model(item).Updates(map[string]interface{}{
		"name":        item.Name,
		"description": item.Description,
		"category_id": item.CategoryID,
		"condition":   item.Condition,
		"image":       item.Image,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrItemNotFound
	}
	return nil
}

// Delete deletes an item by its ID from the database.
func (r *GORMItemRepository) Delete(id string) error {
	res := r.db.Delete(&models.Item{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrItemNotFound
	}
	return nil
}

// DecreaseAvailable reserves quantity units of the item. The condition and
// availability checks and the decrement run inside one transaction with the
// item row locked, so concurrent reservations or condition changes serialize
// instead of racing.
func (r *GORMItemRepository) DecreaseAvailable(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}
	return withRetry("decrease available stock", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			item, err := lockItem(tx, id)
			if err != nil {
				return err
			}
			if item.Condition != models.ConditionGood {
				// Damaged or lost items are never lendable, whatever the
				// counters say.
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
			return tx.Model(item).Update("available_stock", item.AvailableStock-quantity).Error
		})
	})
}

// IncreaseAvailable releases quantity units back to the item. The result is
// clamped at total stock; reaching the clamp means some other path released
// units it never reserved, so it is logged rather than silently ignored.
func (r *GORMItemRepository) IncreaseAvailable(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}
	return withRetry("increase available stock", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			item, err := lockItem(tx, id)
			if err != nil {
				return err
			}
			newAvailable := item.AvailableStock + quantity
			if newAvailable > item.Stock {
				log.Printf("increase of %d on item %s would exceed total stock %d (available %d); clamping",
					quantity, id, item.Stock, item.AvailableStock)
				newAvailable = item.Stock
			}
			return tx.Model(item).Update("available_stock", newAvailable).Error
		})
	})
}

// AdjustTotalStock sets a new total stock and shifts available stock by the
// same delta, preserving the number of units out on loan.
func (r *GORMItemRepository) AdjustTotalStock(ctx context.Context, id string, newTotal int) error {
	if newTotal < 0 {
		return fmt.Errorf("total stock cannot be negative, got %d", newTotal)
	}
	return withRetry("adjust total stock", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			item, err := lockItem(tx, id)
			if err != nil {
				return err
			}
			newAvailable := item.AvailableStock + (newTotal - item.Stock)
			if newAvailable < 0 {
				return &models.WouldUnderflowAvailableError{
					ItemID: id,
					OnLoan: item.OnLoan(),
				}
			}
			return tx.Model(item).Updates(map[string]interface{}{
				"stock":           newTotal,
				"available_stock": newAvailable,
			}).Error
		})
	})
}

// lockItem loads the item row with a FOR UPDATE lock inside tx.
func lockItem(tx *gorm.DB, id string) (*models.Item, error) {
	var item models.Item
	err := forUpdate(tx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
