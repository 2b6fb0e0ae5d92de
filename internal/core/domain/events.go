package domain

import "time"

// ReconciliationEvent records a partial-consistency outcome: the order
// store changed but the matching inventory adjustment did not happen.
// It carries everything a human needs to reconcile the two stores.
type ReconciliationEvent struct {
	Operation  string    `json:"operation"`
	OrderID    string    `json:"order_id"`
	LineItemID string    `json:"line_item_id"`
	MenuItemID string    `json:"menu_item_id"`
	Quantity   int       `json:"quantity"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
