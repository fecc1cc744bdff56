package repositories

import (
	"errors"
	"time"

	"inventaris/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate adds a SELECT ... FOR UPDATE row lock on dialects that support
// it. SQLite has no FOR UPDATE syntax; its transactions take a single writer
// lock, which gives the same serialization.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Code prefixes for generated entity codes.
const (
	BorrowCodePrefix = "BRW"
	ItemCodePrefix   = "ITM"
)

// nextCode atomically claims the next per-day sequence number for the given
// prefix and returns the formatted code (e.g. BRW-20260115-0042).
//
// It must be called inside the same transaction that inserts the coded row.
// The counter row is locked FOR UPDATE, so concurrent creates serialize on
// it. Two transactions may still race to insert the very first counter row
// of a day; the loser fails on the primary key and the caller's retry wrapper
// reruns the whole transaction, which then finds the row.
func nextCode(tx *gorm.DB, prefix string, now time.Time) (string, error) {
	day := now.Format("20060102")

	var counter models.CodeCounter
	err := forUpdate(tx).
		First(&counter, "prefix = ? AND day = ?", prefix, day).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		counter = models.CodeCounter{Prefix: prefix, Day: day, Sequence: 1}
		if err := tx.Create(&counter).Error; err != nil {
			return "", err
		}
		return models.FormatCode(prefix, now, counter.Sequence), nil
	}
	if err != nil {
		return "", err
	}

	counter.Sequence++
	if err := tx.Model(&models.CodeCounter{}).
		Where("prefix = ? AND day = ?", prefix, day).
		Update("sequence", counter.Sequence).Error; err != nil {
		return "", err
	}
	return models.FormatCode(prefix, now, counter.Sequence), nil
}
