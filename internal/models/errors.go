package models

import (
	"errors"
	"fmt"
)

// Domain errors reported by the ledger and borrowing lifecycle. These are
// business-rule violations, reported synchronously to the caller and never
// retried; only ErrPersistence wraps transient infrastructure failures.
var (
	ErrItemNotFound      = errors.New("item not found")
	ErrBorrowingNotFound = errors.New("borrowing not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrItemInUse         = errors.New("item has pending or active borrowings")
	ErrPersistence       = errors.New("persistence failure")
)

// InsufficientStockError is returned when a borrowing asks for more units
// than the item currently has available.
type InsufficientStockError struct {
	ItemID    string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: requested %d, available %d",
		e.ItemID, e.Requested, e.Available)
}

// InvalidDateRangeError is returned when a due date does not fall strictly
// after the borrow date, or an extension does not move the due date forward.
type InvalidDateRangeError struct {
	Reason string
}

func (e *InvalidDateRangeError) Error() string {
	return "invalid date range: " + e.Reason
}

// AlreadyProcessedError is returned when an operation requires a pending
// borrowing but finds one that has already moved on.
type AlreadyProcessedError struct {
	Current BorrowStatus
	Op      string
}

func (e *AlreadyProcessedError) Error() string {
	return fmt.Sprintf("cannot %s borrowing in status %q: already processed", e.Op, e.Current)
}

// InvalidStatusError is returned when a return or extension is attempted on
// a borrowing that is not out on loan.
type InvalidStatusError struct {
	Current BorrowStatus
	Op      string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("cannot %s borrowing in status %q", e.Op, e.Current)
}

// WouldUnderflowAvailableError is returned when a total-stock reduction is
// blocked by units currently out on loan.
type WouldUnderflowAvailableError struct {
	ItemID string
	OnLoan int
}

func (e *WouldUnderflowAvailableError) Error() string {
	return fmt.Sprintf("stock reduction for item %s blocked by %d unit(s) currently on loan",
		e.ItemID, e.OnLoan)
}
