package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventaris/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMBorrowingRepository is a GORM implementation of BorrowingRepository.
type GORMBorrowingRepository struct {
	db *gorm.DB
}

// NewGORMBorrowingRepository creates a new instance of GORMBorrowingRepository.
func NewGORMBorrowingRepository(db *gorm.DB) *GORMBorrowingRepository {
	return &GORMBorrowingRepository{
		db: db,
	}
}

// GetAll retrieves all borrowings from the database.
func (r *GORMBorrowingRepository) GetAll() ([]models.Borrowing, error) {
	var borrowings []models.Borrowing
	if err := r.db.Order("created_at DESC").Find(&borrowings).Error; err != nil {
		return nil, fmt.Errorf("failed to get all borrowings: %w", err)
	}
	return borrowings, nil
}

// GetByID retrieves a single borrowing by its ID from the database.
func (r *GORMBorrowingRepository) GetByID(id string) (*models.Borrowing, error) {
	var borrowing models.Borrowing
	if err := r.db.First(&borrowing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrBorrowingNotFound
		}
		return nil, fmt.Errorf("failed to get borrowing by ID %s: %w", id, err)
	}
	return &borrowing, nil
}

// GetByUser retrieves all borrowings created by the given user.
func (r *GORMBorrowingRepository) GetByUser(userID string) ([]models.Borrowing, error) {
	var borrowings []models.Borrowing
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&borrowings).Error; err != nil {
		return nil, fmt.Errorf("failed to get borrowings for user %s: %w", userID, err)
	}
	return borrowings, nil
}

// Create inserts a new borrowing, claiming its BRW code from the per-day
// counter inside the same transaction. A lost race on the first counter row
// of the day surfaces as a key conflict and is retried.
func (r *GORMBorrowingRepository) Create(ctx context.Context, borrowing *models.Borrowing, now time.Time) error {
	if borrowing.ID == "" {
		borrowing.ID = uuid.New().String()
	}
	return withRetry("borrowing create", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			code, err := nextCode(tx, BorrowCodePrefix, now)
			if err != nil {
				return err
			}
			borrowing.Code = code
			return tx.Create(borrowing).Error
		})
	})
}

// Update saves the borrowing's current state.
func (r *GORMBorrowingRepository) Update(borrowing *models.Borrowing) error {
	res := r.db.Save(borrowing)
	if res.Error != nil {
		return fmt.Errorf("failed to update borrowing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrBorrowingNotFound
	}
	return nil
}

// Delete removes a borrowing by its ID.
func (r *GORMBorrowingRepository) Delete(id string) error {
	res := r.db.Delete(&models.Borrowing{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete borrowing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrBorrowingNotFound
	}
	return nil
}

// ListActiveDueBefore returns active borrowings due strictly before cutoff.
func (r *GORMBorrowingRepository) ListActiveDueBefore(ctx context.Context, cutoff time.Time) ([]models.Borrowing, error) {
	var borrowings []models.Borrowing
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", models.StatusActive, cutoff).
		Find(&borrowings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue candidates: %w", err)
	}
	return borrowings, nil
}

// ListActiveDueOn returns active borrowings due on the given calendar day.
func (r *GORMBorrowingRepository) ListActiveDueOn(ctx context.Context, day time.Time) ([]models.Borrowing, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	nextDay := dayStart.AddDate(0, 0, 1)

	var borrowings []models.Borrowing
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date >= ? AND due_date < ?", models.StatusActive, dayStart, nextDay).
		Find(&borrowings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list borrowings due on %s: %w", dayStart.Format("2006-01-02"), err)
	}
	return borrowings, nil
}

// HasOpenForItem reports whether the item has pending or out-on-loan borrowings.
func (r *GORMBorrowingRepository) HasOpenForItem(itemID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Borrowing{}).
		Where("item_id = ? AND status IN ?", itemID,
			[]models.BorrowStatus{models.StatusPending, models.StatusActive, models.StatusOverdue}).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count open borrowings for item %s: %w", itemID, err)
	}
	return count > 0, nil
}
