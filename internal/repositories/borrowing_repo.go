package repositories

import (
	"context"
	"time"

	"inventaris/internal/models"
)

// BorrowingRepository defines the interface for borrowing data access.
//
// Create generates the borrowing's unique BRW code atomically: the per-day
// sequence is claimed inside the same transaction that inserts the row, so
// concurrent creates on the same day never collide.
type BorrowingRepository interface {
	GetAll() ([]models.Borrowing, error)
	GetByID(id string) (*models.Borrowing, error)
	GetByUser(userID string) ([]models.Borrowing, error)
	Create(ctx context.Context, borrowing *models.Borrowing, now time.Time) error
	Update(borrowing *models.Borrowing) error
	// Delete removes a borrowing outright. The service only permits this for
	// pending (non-committed) rows.
	Delete(id string) error

	// ListActiveDueBefore returns active borrowings whose due date falls
	// strictly before the cutoff, the overdue sweep's read set.
	ListActiveDueBefore(ctx context.Context, cutoff time.Time) ([]models.Borrowing, error)
	// ListActiveDueOn returns active borrowings due on the given calendar
	// day, the reminder sweep's read set.
	ListActiveDueOn(ctx context.Context, day time.Time) ([]models.Borrowing, error)
	// HasOpenForItem reports whether the item has any pending or out-on-loan
	// borrowing, which blocks item deletion and stock underflow.
	HasOpenForItem(itemID string) (bool, error)
}
