package repositories

import (
	"context"
	"time"

	"inventaris/internal/models"
)

// ItemRepository defines the interface for item data access.
//
// The three stock operations are the ledger primitives: each one performs its
// read-check-write as a single atomic unit against the item row, so two
// concurrent approvals can never both pass the availability check and
// over-reserve stock.
type ItemRepository interface {
	GetAll() ([]models.Item, error)
	GetByID(id string) (*models.Item, error)
	Create(item *models.Item, now time.Time) error
	Update(item *models.Item) error
	Delete(id string) error

	// DecreaseAvailable reserves quantity units of the item. Fails with
	// models.InsufficientStockError when fewer units are available or the
	// item is not in good condition; both checks happen under the same lock
	// as the decrement.
	DecreaseAvailable(ctx context.Context, id string, quantity int) error
	// IncreaseAvailable releases quantity units back. The result is clamped
	// at the item's total stock; hitting the clamp is logged as it points at
	// a bookkeeping bug elsewhere.
	IncreaseAvailable(ctx context.Context, id string, quantity int) error
	// AdjustTotalStock sets a new total stock, shifting available stock by
	// the same delta. Fails with models.WouldUnderflowAvailableError when
	// outstanding loans exceed the new total.
	AdjustTotalStock(ctx context.Context, id string, newTotal int) error
}
