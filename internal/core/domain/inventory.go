package domain

import "time"

// InventoryItem tracks on-hand stock for a single menu item. At most one
// record exists per menu item; a menu item without a record is sellable
// without stock limits.
type InventoryItem struct {
	ID             string    `json:"id"`
	MenuItemID     string    `json:"menu_item_id"`
	QuantityOnHand int       `json:"quantity_on_hand"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (i InventoryItem) Available() bool {
	return i.QuantityOnHand > 0
}
