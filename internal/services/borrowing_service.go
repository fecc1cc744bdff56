package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"inventaris/internal/models"
	"inventaris/internal/repositories"
)

// defaultReminderTiers are the days-until-due values that trigger a reminder
// notification.
var defaultReminderTiers = []int{3, 1}

// BorrowingService drives the borrowing lifecycle state machine: a request
// is created pending, an approver moves it to active (reserving stock), and
// it ends returned, late-returned, rejected or cancelled. Sweep operations
// mark overdue borrowings and send due-date reminders.
//
// Every operation takes the current time and the acting user explicitly, so
// behavior is deterministic under test and authorization stays with the
// caller.
type BorrowingService struct {
	borrowRepo    repositories.BorrowingRepository
	itemRepo      repositories.ItemRepository
	ledger        *LedgerService
	queue         NotificationQueue
	reminderTiers []int
}

// NewBorrowingService creates a new BorrowingService. The queue may be nil,
// in which case notifications are skipped with a log line.
func NewBorrowingService(
	borrowRepo repositories.BorrowingRepository,
	itemRepo repositories.ItemRepository,
	ledger *LedgerService,
	queue NotificationQueue,
) *BorrowingService {
	return &BorrowingService{
		borrowRepo:    borrowRepo,
		itemRepo:      itemRepo,
		ledger:        ledger,
		queue:         queue,
		reminderTiers: defaultReminderTiers,
	}
}

// SetReminderTiers overrides the days-until-due values that trigger
// reminders (for configuration and tests).
func (s *BorrowingService) SetReminderTiers(tiers []int) {
	if len(tiers) > 0 {
		s.reminderTiers = tiers
	}
}

// CreateBorrowingRequest carries the caller-supplied fields of a new
// borrowing request.
type CreateBorrowingRequest struct {
	ItemID     string    `json:"item_id" validate:"required,uuid"`
	Quantity   int       `json:"quantity" validate:"required,gte=1"`
	BorrowDate time.Time `json:"borrow_date" validate:"required"`
	DueDate    time.Time `json:"due_date" validate:"required"`
	Notes      string    `json:"notes" validate:"omitempty,max=500"`
}

// GetAllBorrowings retrieves all borrowings.
func (s *BorrowingService) GetAllBorrowings() ([]models.Borrowing, error) {
	return s.borrowRepo.GetAll()
}

// GetBorrowingByID retrieves a single borrowing by its ID.
func (s *BorrowingService) GetBorrowingByID(id string) (*models.Borrowing, error) {
	return s.borrowRepo.GetByID(id)
}

// GetBorrowingsByUser retrieves the borrowings created by the given user.
func (s *BorrowingService) GetBorrowingsByUser(userID string) ([]models.Borrowing, error) {
	return s.borrowRepo.GetByUser(userID)
}

// Create registers a new borrowing request in pending status. No stock is
// reserved yet; that happens at approval. The unique borrow code is
// generated atomically by the repository.
func (s *BorrowingService) Create(ctx context.Context, req CreateBorrowingRequest, borrowerID string, now time.Time) (*models.Borrowing, error) {
	if req.Quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1, got %d", req.Quantity)
	}
	if !req.DueDate.After(req.BorrowDate) {
		return nil, &models.InvalidDateRangeError{Reason: "due date must be after borrow date"}
	}
	if _, err := s.itemRepo.GetByID(req.ItemID); err != nil {
		return nil, err
	}

	borrowing := &models.Borrowing{
		UserID:     borrowerID,
		ItemID:     req.ItemID,
		Quantity:   req.Quantity,
		BorrowDate: req.BorrowDate,
		DueDate:    req.DueDate,
		Status:     models.StatusPending,
		Notes:      req.Notes,
	}
	if err := s.borrowRepo.Create(ctx, borrowing, now); err != nil {
		return nil, err
	}
	return borrowing, nil
}

// Approve moves a pending borrowing to active, reserving the requested stock
// atomically. Records the approver and the approval time, then enqueues an
// "approved" notification.
func (s *BorrowingService) Approve(ctx context.Context, id, approverID string, now time.Time) (*models.Borrowing, error) {
	borrowing, err := s.borrowRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if borrowing.Status != models.StatusPending {
		return nil, &models.AlreadyProcessedError{Current: borrowing.Status, Op: "approve"}
	}

	// The condition and availability checks and the decrement are one atomic
	// unit inside the ledger; two concurrent approvals cannot both pass it,
	// and a concurrent condition change cannot slip between check and
	// decrement.
	if err := s.ledger.DecreaseAvailable(ctx, borrowing.ItemID, borrowing.Quantity); err != nil {
		return nil, err
	}

	borrowing.Status = models.StatusActive
	borrowing.ApprovedBy = &approverID
	borrowing.ApprovedAt = &now
	if err := s.borrowRepo.Update(borrowing); err != nil {
		// The reservation already happened; release it so the counters stay
		// consistent with the (unchanged) borrowing row.
		if releaseErr := s.ledger.IncreaseAvailable(ctx, borrowing.ItemID, borrowing.Quantity); releaseErr != nil {
			log.Printf("Failed to release stock after aborted approval of borrowing %s: %v", id, releaseErr)
		}
		return nil, err
	}

	s.enqueue(models.NotificationEvent{
		Kind:        models.NotificationApproved,
		BorrowingID: borrowing.ID,
		Code:        borrowing.Code,
		UserID:      borrowing.UserID,
		ItemID:      borrowing.ItemID,
		Quantity:    borrowing.Quantity,
		DueDate:     borrowing.DueDate,
	})
	return borrowing, nil
}

// Reject declines a pending borrowing. No stock changes.
func (s *BorrowingService) Reject(id, approverID string, now time.Time) (*models.Borrowing, error) {
	borrowing, err := s.borrowRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if borrowing.Status != models.StatusPending {
		return nil, &models.AlreadyProcessedError{Current: borrowing.Status, Op: "reject"}
	}

	borrowing.Status = models.StatusRejected
	borrowing.ApprovedBy = &approverID
	borrowing.ApprovedAt = &now
	if err := s.borrowRepo.Update(borrowing); err != nil {
		return nil, err
	}
	return borrowing, nil
}

// Cancel voids a pending borrowing by removing it. Only non-committed
// pending rows may be deleted.
func (s *BorrowingService) Cancel(id string) error {
	borrowing, err := s.borrowRepo.GetByID(id)
	if err != nil {
		return err
	}
	if borrowing.Status != models.StatusPending {
		return &models.AlreadyProcessedError{Current: borrowing.Status, Op: "cancel"}
	}
	return s.borrowRepo.Delete(id)
}

// Return completes an active (or overdue) borrowing: the reserved stock is
// released and the status resolves to returned or late-returned depending on
// whether the return date beats the due date. returnDate defaults to now.
func (s *BorrowingService) Return(ctx context.Context, id string, returnDate *time.Time, now time.Time) (*models.Borrowing, error) {
	borrowing, err := s.borrowRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if borrowing.Status != models.StatusActive && borrowing.Status != models.StatusOverdue {
		return nil, &models.InvalidStatusError{Current: borrowing.Status, Op: "return"}
	}

	returnedAt := now
	if returnDate != nil {
		returnedAt = *returnDate
	}

	if err := s.ledger.IncreaseAvailable(ctx, borrowing.ItemID, borrowing.Quantity); err != nil {
		return nil, err
	}

	priorStatus := borrowing.Status
	status := models.StatusReturned
	if returnedAt.After(borrowing.DueDate) {
		status = models.StatusLateReturned
	}
	borrowing.Status = status
	borrowing.ReturnDate = &returnedAt
	if err := s.borrowRepo.Update(borrowing); err != nil {
		// The release already happened; take the units back so the counters
		// stay consistent with the still-open borrowing row.
		if reserveErr := s.ledger.DecreaseAvailable(ctx, borrowing.ItemID, borrowing.Quantity); reserveErr != nil {
			log.Printf("Failed to re-reserve stock after aborted return of borrowing %s: %v", id, reserveErr)
		}
		borrowing.Status = priorStatus
		borrowing.ReturnDate = nil
		return nil, err
	}
	return borrowing, nil
}

// Extend pushes the due date of an active borrowing further out.
func (s *BorrowingService) Extend(id string, newDueDate time.Time) (*models.Borrowing, error) {
	borrowing, err := s.borrowRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if borrowing.Status != models.StatusActive {
		return nil, &models.InvalidStatusError{Current: borrowing.Status, Op: "extend"}
	}
	if !newDueDate.After(borrowing.DueDate) {
		return nil, &models.InvalidDateRangeError{Reason: "new due date must be after the current due date"}
	}

	borrowing.DueDate = newDueDate
	if err := s.borrowRepo.Update(borrowing); err != nil {
		return nil, err
	}
	return borrowing, nil
}

// CheckOverdue sweeps all active borrowings whose due date has passed and
// marks them overdue, enqueueing one "overdue" notification per transition.
// Already-overdue rows are not in the read set, so re-running the sweep is a
// no-op for them. Per-row failures are logged and do not abort the sweep.
// Returns the number of borrowings transitioned.
func (s *BorrowingService) CheckOverdue(ctx context.Context, now time.Time) (int, error) {
	today := startOfDay(now)
	candidates, err := s.borrowRepo.ListActiveDueBefore(ctx, today)
	if err != nil {
		return 0, err
	}

	transitioned := 0
	for i := range candidates {
		borrowing := candidates[i]
		borrowing.Status = models.StatusOverdue
		if err := s.borrowRepo.Update(&borrowing); err != nil {
			log.Printf("Overdue sweep: failed to mark borrowing %s: %v", borrowing.Code, err)
			continue
		}
		transitioned++

		s.enqueue(models.NotificationEvent{
			Kind:        models.NotificationOverdue,
			BorrowingID: borrowing.ID,
			Code:        borrowing.Code,
			UserID:      borrowing.UserID,
			ItemID:      borrowing.ItemID,
			Quantity:    borrowing.Quantity,
			DueDate:     borrowing.DueDate,
			DaysOverdue: daysBetween(borrowing.DueDate, today),
		})
	}
	return transitioned, nil
}

// SendDueReminders sweeps active borrowings due in exactly 1 or 3 days
// (configurable tiers) and enqueues a reminder per match. Delivery is
// at-least-once: running the sweep twice on the same day sends twice.
// Returns the number of reminders enqueued.
func (s *BorrowingService) SendDueReminders(ctx context.Context, now time.Time) (int, error) {
	today := startOfDay(now)
	sent := 0
	for _, tier := range s.reminderTiers {
		targetDay := today.AddDate(0, 0, tier)
		dueSoon, err := s.borrowRepo.ListActiveDueOn(ctx, targetDay)
		if err != nil {
			log.Printf("Reminder sweep: failed to list borrowings due in %d day(s): %v", tier, err)
			continue
		}
		for i := range dueSoon {
			borrowing := dueSoon[i]
			s.enqueue(models.NotificationEvent{
				Kind:         models.NotificationDueReminder,
				BorrowingID:  borrowing.ID,
				Code:         borrowing.Code,
				UserID:       borrowing.UserID,
				ItemID:       borrowing.ItemID,
				Quantity:     borrowing.Quantity,
				DueDate:      borrowing.DueDate,
				DaysUntilDue: tier,
			})
			sent++
		}
	}
	return sent, nil
}

// enqueue hands an event to the notification queue. Failures are logged and
// swallowed: the state transition that produced the event is already
// committed and must not be reported as failed.
func (s *BorrowingService) enqueue(event models.NotificationEvent) {
	if s.queue == nil {
		log.Printf("Notification queue is not configured, skipping %s notification for borrowing %s", event.Kind, event.Code)
		return
	}
	if err := s.queue.Enqueue(event); err != nil {
		log.Printf("Warning: failed to enqueue %s notification for borrowing %s: %v", event.Kind, event.Code, err)
	}
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween returns the whole calendar days from a to b (b after a).
func daysBetween(a, b time.Time) int {
	return int(startOfDay(b).Sub(startOfDay(a)).Hours() / 24)
}
