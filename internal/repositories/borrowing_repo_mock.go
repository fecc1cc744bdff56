package repositories

import (
	"context"
	"sync"
	"time"

	"inventaris/internal/models"

	"github.com/google/uuid"
)

// MockBorrowingRepository is an in-memory implementation of BorrowingRepository.
type MockBorrowingRepository struct {
	borrowings map[string]models.Borrowing
	counters   map[string]int // prefix+day -> last sequence
	mu         sync.Mutex
}

// NewMockBorrowingRepository creates a new instance of MockBorrowingRepository.
func NewMockBorrowingRepository() *MockBorrowingRepository {
	return &MockBorrowingRepository{
		borrowings: make(map[string]models.Borrowing),
		counters:   make(map[string]int),
	}
}

// GetAll returns all borrowings.
func (r *MockBorrowingRepository) GetAll() ([]models.Borrowing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	borrowingList := make([]models.Borrowing, 0, len(r.borrowings))
	for _, b := range r.borrowings {
		borrowingList = append(borrowingList, b)
	}
	return borrowingList, nil
}

// GetByID returns a borrowing by its ID.
func (r *MockBorrowingRepository) GetByID(id string) (*models.Borrowing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	borrowing, ok := r.borrowings[id]
	if !ok {
		return nil, models.ErrBorrowingNotFound
	}
	return &borrowing, nil
}

// GetByUser returns all borrowings created by the given user.
func (r *MockBorrowingRepository) GetByUser(userID string) ([]models.Borrowing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var borrowingList []models.Borrowing
	for _, b := range r.borrowings {
		if b.UserID == userID {
			borrowingList = append(borrowingList, b)
		}
	}
	return borrowingList, nil
}

// Create adds a new borrowing, claiming its code under the repository mutex
// so concurrent creates get distinct sequence numbers.
func (r *MockBorrowingRepository) Create(_ context.Context, borrowing *models.Borrowing, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if borrowing.ID == "" {
		borrowing.ID = uuid.New().String()
	}
	key := BorrowCodePrefix + now.Format("20060102")
	r.counters[key]++
	borrowing.Code = models.FormatCode(BorrowCodePrefix, now, r.counters[key])
	borrowing.CreatedAt = now
	borrowing.UpdatedAt = now
	r.borrowings[borrowing.ID] = *borrowing
	return nil
}

// Update modifies an existing borrowing.
func (r *MockBorrowingRepository) Update(borrowing *models.Borrowing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.borrowings[borrowing.ID]; !ok {
		return models.ErrBorrowingNotFound
	}
	r.borrowings[borrowing.ID] = *borrowing
	return nil
}

// Delete removes a borrowing by its ID.
func (r *MockBorrowingRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.borrowings[id]; !ok {
		return models.ErrBorrowingNotFound
	}
	delete(r.borrowings, id)
	return nil
}

// ListActiveDueBefore returns active borrowings due strictly before cutoff.
func (r *MockBorrowingRepository) ListActiveDueBefore(_ context.Context, cutoff time.Time) ([]models.Borrowing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var borrowingList []models.Borrowing
	for _, b := range r.borrowings {
		if b.Status == models.StatusActive && b.DueDate.Before(cutoff) {
			borrowingList = append(borrowingList, b)
		}
	}
	return borrowingList, nil
}

// ListActiveDueOn returns active borrowings due on the given calendar day.
func (r *MockBorrowingRepository) ListActiveDueOn(_ context.Context, day time.Time) ([]models.Borrowing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	nextDay := dayStart.AddDate(0, 0, 1)

	var borrowingList []models.Borrowing
	for _, b := range r.borrowings {
		if b.Status == models.StatusActive && !b.DueDate.Before(dayStart) && b.DueDate.Before(nextDay) {
			borrowingList = append(borrowingList, b)
		}
	}
	return borrowingList, nil
}

// HasOpenForItem reports whether the item has pending or out-on-loan borrowings.
func (r *MockBorrowingRepository) HasOpenForItem(itemID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.borrowings {
		if b.ItemID != itemID {
			continue
		}
		switch b.Status {
		case models.StatusPending, models.StatusActive, models.StatusOverdue:
			return true, nil
		}
	}
	return false, nil
}
