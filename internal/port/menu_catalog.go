package port

import (
	"context"

	"github.com/rcameron/tillsync/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MenuCatalog owns the sellable items.
type MenuCatalog interface {
	// Create adds a catalog entry. Rejects blank name or category and
	// prices below domain.MinPrice.
	Create(ctx context.Context, name, category string, price decimal.Decimal) (*domain.MenuItem, error)

	// Get returns an item, or nil if it does not exist.
	Get(ctx context.Context, id string) (*domain.MenuItem, error)

	// List returns the full menu.
	List(ctx context.Context) ([]domain.MenuItem, error)

	// UpdatePrice changes an item's price. Existing order lines keep the
	// price they were sold at.
	UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (*domain.MenuItem, error)

	// Delete discontinues an item.
	Delete(ctx context.Context, id string) error
}
