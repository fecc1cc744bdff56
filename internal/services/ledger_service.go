package services

import (
	"context"

	"inventaris/internal/models"
	"inventaris/internal/repositories"
)

// LedgerService maintains the stock / available-stock invariant for items.
// The atomicity of each adjustment lives in the item repository (row lock or
// the mock's mutex); this service is the single place the rest of the code
// goes through to touch the counters.
type LedgerService struct {
	itemRepo repositories.ItemRepository
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(itemRepo repositories.ItemRepository) *LedgerService {
	return &LedgerService{
		itemRepo: itemRepo,
	}
}

// DecreaseAvailable reserves quantity units of the item for a borrowing.
// Fails with models.InsufficientStockError when the item cannot cover the
// request or is not in good condition; both checks run under the same lock
// as the decrement.
func (s *LedgerService) DecreaseAvailable(ctx context.Context, itemID string, quantity int) error {
	return s.itemRepo.DecreaseAvailable(ctx, itemID, quantity)
}

// IncreaseAvailable releases quantity units back after a return.
func (s *LedgerService) IncreaseAvailable(ctx context.Context, itemID string, quantity int) error {
	return s.itemRepo.IncreaseAvailable(ctx, itemID, quantity)
}

// AdjustTotalStock changes an item's total stock, shifting available stock
// by the same delta so the units out on loan stay accounted for.
func (s *LedgerService) AdjustTotalStock(ctx context.Context, itemID string, newTotal int) error {
	return s.itemRepo.AdjustTotalStock(ctx, itemID, newTotal)
}

// IsAvailable reports whether the item can satisfy a borrowing of the given
// quantity. Pure predicate: no locking, no mutation; the authoritative
// check happens inside DecreaseAvailable.
func (s *LedgerService) IsAvailable(item *models.Item, quantity int) bool {
	return item.IsAvailable(quantity)
}
