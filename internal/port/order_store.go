package port

import (
	"context"

	"github.com/rcameron/tillsync/internal/core/domain"
)

// OrderStore owns orders and their line items. Each method is a single
// persistence operation; sequences of calls are not atomic.
type OrderStore interface {
	// CreateOrder persists a new empty open order.
	CreateOrder(ctx context.Context) (*domain.Order, error)

	// GetOrder returns the order with its line items, or nil if it does
	// not exist.
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)

	// ListOpenOrders returns orders not yet finalized, line items included.
	ListOpenOrders(ctx context.Context) ([]domain.Order, error)

	// ListFinalizedOrders returns retained historical orders.
	ListFinalizedOrders(ctx context.Context) ([]domain.Order, error)

	// CreateLineItem adds a line to an open order, snapshotting the menu
	// item's name and price at call time. Rejects quantity < 1 and
	// non-existent or finalized orders.
	CreateLineItem(ctx context.Context, item domain.MenuItem, orderID string, quantity int) (*domain.OrderLineItem, error)

	// GetLineItem returns a line item, or nil if it does not exist.
	GetLineItem(ctx context.Context, lineItemID string) (*domain.OrderLineItem, error)

	// ListLineItems returns the lines of one order.
	ListLineItems(ctx context.Context, orderID string) ([]domain.OrderLineItem, error)

	// UpdateLineItemQuantity resizes a line. Rejects quantity < 1; a line
	// is deleted, never zeroed.
	UpdateLineItemQuantity(ctx context.Context, lineItemID string, quantity int) (*domain.OrderLineItem, error)

	// DeleteLineItem removes a line. Deleting a non-existent id is a no-op.
	DeleteLineItem(ctx context.Context, lineItemID string) error

	// DeleteOrder removes an open order and its lines. Idempotent; rejects
	// finalized orders.
	DeleteOrder(ctx context.Context, orderID string) error

	// FinalizeOrder marks the order finalized and stamps the time.
	// Re-finalizing re-applies the timestamp.
	FinalizeOrder(ctx context.Context, orderID string) (*domain.Order, error)
}
