package repositories

import (
	"errors"
	"fmt"
	"log"
	"time"

	"inventaris/internal/models"
)

const (
	// maxAttempts bounds retries of transient persistence failures (lock
	// timeouts, dropped connections) before surfacing models.ErrPersistence.
	maxAttempts = 3
	retryDelay  = 100 * time.Millisecond
)

// isDomainError reports whether err is a business-rule violation rather than
// a transient infrastructure failure. Domain errors are never retried.
func isDomainError(err error) bool {
	var (
		insufficientStock *models.InsufficientStockError
		wouldUnderflow    *models.WouldUnderflowAvailableError
	)
	return errors.Is(err, models.ErrItemNotFound) ||
		errors.Is(err, models.ErrBorrowingNotFound) ||
		errors.As(err, &insufficientStock) ||
		errors.As(err, &wouldUnderflow)
}

// withRetry runs op up to maxAttempts times, retrying only transient errors.
// The final failure is wrapped in models.ErrPersistence.
func withRetry(name string, op func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = op()
		if err == nil || isDomainError(err) {
			return err
		}
		log.Printf("%s failed (attempt %d/%d): %v", name, attempt, maxAttempts, err)
		if attempt < maxAttempts {
			time.Sleep(retryDelay * time.Duration(attempt))
		}
	}
	return fmt.Errorf("%w: %s: %v", models.ErrPersistence, name, err)
}
