package handlers

import (
	"errors"

	"inventaris/internal/models"

	"github.com/gofiber/fiber/v2"
)

// statusForError maps domain errors to HTTP status codes. Anything not in
// the closed error set is a server-side failure.
func statusForError(err error) int {
	var (
		insufficientStock *models.InsufficientStockError
		invalidDateRange  *models.InvalidDateRangeError
		alreadyProcessed  *models.AlreadyProcessedError
		invalidStatus     *models.InvalidStatusError
		wouldUnderflow    *models.WouldUnderflowAvailableError
	)
	switch {
	case errors.Is(err, models.ErrItemNotFound),
		errors.Is(err, models.ErrBorrowingNotFound),
		errors.Is(err, models.ErrCategoryNotFound),
		errors.Is(err, models.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &alreadyProcessed), errors.As(err, &invalidStatus),
		errors.Is(err, models.ErrItemInUse):
		return fiber.StatusConflict
	case errors.As(err, &insufficientStock), errors.As(err, &wouldUnderflow):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &invalidDateRange):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrPersistence):
		return fiber.StatusInternalServerError
	}
	return fiber.StatusInternalServerError
}
