package port

import (
	"context"

	"github.com/rcameron/tillsync/internal/core/domain"
)

// InventoryLedger owns on-hand quantities. Decrement and Increment must be
// implemented as a single atomic read-modify-write at the storage layer;
// callers rely on that, not on locks of their own.
type InventoryLedger interface {
	// Create adds a record for a menu item. At most one record per menu
	// item; rejects quantity < 1.
	Create(ctx context.Context, menuItemID string, quantity int) (*domain.InventoryItem, error)

	// Get returns a record, or nil if it does not exist.
	Get(ctx context.Context, id string) (*domain.InventoryItem, error)

	// List returns all records.
	List(ctx context.Context) ([]domain.InventoryItem, error)

	// FindByMenuItem returns the record tracking a menu item, or nil if
	// the item is untracked.
	FindByMenuItem(ctx context.Context, menuItemID string) (*domain.InventoryItem, error)

	// Decrement atomically subtracts amount. Rejects amount < 1, missing
	// records, and amounts exceeding the quantity on hand; on-hand never
	// goes negative.
	Decrement(ctx context.Context, id string, amount int) (*domain.InventoryItem, error)

	// Increment atomically adds amount. Rejects amount < 1 and missing
	// records.
	Increment(ctx context.Context, id string, amount int) (*domain.InventoryItem, error)

	// SetQuantity overwrites the on-hand count. Rejects negative values.
	SetQuantity(ctx context.Context, id string, quantity int) (*domain.InventoryItem, error)

	// Delete removes a record, e.g. when the menu item is discontinued.
	Delete(ctx context.Context, id string) error
}
