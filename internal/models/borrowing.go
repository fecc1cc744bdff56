package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// BorrowStatus is the closed set of borrowing lifecycle states.
type BorrowStatus string

const (
	StatusPending      BorrowStatus = "pending"
	StatusActive       BorrowStatus = "active"
	StatusOverdue      BorrowStatus = "overdue"
	StatusReturned     BorrowStatus = "returned"
	StatusLateReturned BorrowStatus = "late-returned"
	StatusCancelled    BorrowStatus = "cancelled"
	StatusRejected     BorrowStatus = "rejected"
)

// transitions is the explicit state machine for borrowings. Any transition
// not listed here is invalid.
var transitions = map[BorrowStatus][]BorrowStatus{
	StatusPending: {StatusActive, StatusRejected, StatusCancelled},
	StatusActive:  {StatusOverdue, StatusReturned, StatusLateReturned},
	StatusOverdue: {StatusReturned, StatusLateReturned},
}

// Valid reports whether the status is one of the known values.
func (s BorrowStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusOverdue, StatusReturned,
		StatusLateReturned, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// CanTransition reports whether the state machine allows moving from s to next.
func (s BorrowStatus) CanTransition(next BorrowStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status is an end state.
func (s BorrowStatus) Terminal() bool {
	switch s {
	case StatusReturned, StatusLateReturned, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// Borrowing represents a single loan of an item to a user for a bounded
// period. The status field only changes through the lifecycle operations in
// the borrowing service; return_date is set exactly when the borrowing
// reaches a returned or late-returned state.
type Borrowing struct {
	ID         string       `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Code       string       `json:"code" gorm:"uniqueIndex;type:varchar(20)"`
	UserID     string       `json:"user_id" gorm:"type:varchar(36);index" validate:"required,uuid"`
	ItemID     string       `json:"item_id" gorm:"type:varchar(36);index" validate:"required,uuid"`
	Quantity   int          `json:"quantity" validate:"required,gte=1"`
	BorrowDate time.Time    `json:"borrow_date" validate:"required"`
	DueDate    time.Time    `json:"due_date" gorm:"index" validate:"required"`
	ReturnDate *time.Time   `json:"return_date,omitempty"`
	Status     BorrowStatus `json:"status" gorm:"type:varchar(15);index"`
	Notes      string       `json:"notes" validate:"omitempty,max=500"`
	ApprovedBy *string      `json:"approved_by,omitempty" gorm:"type:varchar(36)"`
	ApprovedAt *time.Time   `json:"approved_at,omitempty"`
	gorm.Model              // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// IsOverdue reports whether the borrowing is past due at the given time and
// still out on loan.
func (b *Borrowing) IsOverdue(now time.Time) bool {
	if b.Status != StatusActive && b.Status != StatusOverdue {
		return false
	}
	return now.After(b.DueDate)
}

// CodeCounter is a per-prefix, per-day sequence row backing atomic borrow and
// item code generation. Repositories increment Sequence under a row lock (or
// the mock's mutex) so concurrent creates never produce duplicate codes.
type CodeCounter struct {
	Prefix   string `gorm:"primaryKey;type:varchar(10)"`
	Day      string `gorm:"primaryKey;type:varchar(8)"` // YYYYMMDD
	Sequence int
}

// FormatCode renders a code like BRW-20260115-0042 from its parts.
func FormatCode(prefix string, day time.Time, sequence int) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format("20060102"), sequence)
}
