package port

import (
	"context"
	"time"

	"github.com/rcameron/tillsync/internal/core/domain"
)

// CatalogCache holds a short-lived snapshot of the menu so reads don't hit
// the catalog store on every request.
type CatalogCache interface {
	// GetMenu returns the cached snapshot; ok is false on a miss.
	GetMenu(ctx context.Context) (items []domain.MenuItem, ok bool, err error)

	// SetMenu stores a snapshot with a TTL.
	SetMenu(ctx context.Context, items []domain.MenuItem, ttl time.Duration) error

	// Invalidate drops the snapshot after a catalog write.
	Invalidate(ctx context.Context) error
}
