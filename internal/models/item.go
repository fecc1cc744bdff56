package models

import "gorm.io/gorm"

// ItemCondition describes the physical condition of an item. Only items in
// good condition may be lent out.
type ItemCondition string

const (
	ConditionGood    ItemCondition = "good"
	ConditionDamaged ItemCondition = "damaged"
	ConditionLost    ItemCondition = "lost"
)

// Valid reports whether the condition is one of the known values.
func (c ItemCondition) Valid() bool {
	switch c {
	case ConditionGood, ConditionDamaged, ConditionLost:
		return true
	}
	return false
}

// Item represents a lendable inventory item.
//
// Stock is the total number of units owned; AvailableStock is the number of
// units not currently reserved by an active borrowing. The invariant
// 0 <= AvailableStock <= Stock holds at all times and is enforced by the
// item repository's atomic stock operations.
type Item struct {
	ID             string        `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Code           string        `json:"code" gorm:"uniqueIndex;type:varchar(20)"`
	Name           string        `json:"name" validate:"required,min=3,max=100"`
	Description    string        `json:"description" validate:"omitempty,max=500"`
	CategoryID     string        `json:"category_id" gorm:"type:varchar(36)" validate:"required,uuid"`
	Stock          int           `json:"stock" validate:"gte=0"`
	AvailableStock int           `json:"available_stock"`
	Condition      ItemCondition `json:"condition" gorm:"type:varchar(10)" validate:"required,oneof=good damaged lost"`
	Image          string        `json:"image,omitempty" validate:"omitempty,max=255"`
	gorm.Model                   // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// IsAvailable reports whether the item can satisfy a borrowing of the given
// quantity right now. Damaged or lost items are never lendable, regardless of
// their counters.
func (i *Item) IsAvailable(quantity int) bool {
	return i.AvailableStock >= quantity && i.Condition == ConditionGood
}

// OnLoan returns the number of units currently reserved by borrowings.
func (i *Item) OnLoan() int {
	return i.Stock - i.AvailableStock
}
