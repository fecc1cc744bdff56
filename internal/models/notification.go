package models

import "time"

// NotificationKind identifies the template a dispatched notification uses.
type NotificationKind string

const (
	NotificationApproved    NotificationKind = "approved"
	NotificationOverdue     NotificationKind = "overdue"
	NotificationDueReminder NotificationKind = "due-reminder"
)

// NotificationEvent is the message the borrowing lifecycle enqueues for the
// notification dispatcher. Delivery is asynchronous and at-least-once; a
// failed enqueue never rolls back the state transition that produced it.
type NotificationEvent struct {
	Kind        NotificationKind `json:"kind"`
	BorrowingID string           `json:"borrowing_id"`
	Code        string           `json:"code"`
	UserID      string           `json:"user_id"`
	ItemID      string           `json:"item_id"`
	Quantity    int              `json:"quantity"`
	DueDate     time.Time        `json:"due_date"`
	// DaysOverdue is set for overdue events, DaysUntilDue for reminders.
	DaysOverdue  int `json:"days_overdue,omitempty"`
	DaysUntilDue int `json:"days_until_due,omitempty"`
}
