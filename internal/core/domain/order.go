package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID          string
	CreatedAt   time.Time
	FinalizedAt *time.Time
	Finalized   bool
	Lines       []OrderLineItem
}

// Subtotal is the sum of line totals, computed on read.
func (o Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// TotalAfterTax applies the tax rate and rounds to currency precision.
// Rounding happens here, at the point of display or finalization, never
// before.
func (o Order) TotalAfterTax(taxRate decimal.Decimal) decimal.Decimal {
	return o.Subtotal().Mul(decimal.NewFromInt(1).Add(taxRate)).Round(2)
}

// OrderLineItem snapshots the menu item's name and unit price at time of
// sale; later catalog price changes never alter an existing line.
type OrderLineItem struct {
	ID         string
	OrderID    string
	MenuItemID string
	NameAtSale string
	UnitPrice  decimal.Decimal
	Quantity   int
}

func (l OrderLineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
