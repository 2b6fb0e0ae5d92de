package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MinPrice is the lowest unit price the catalog accepts.
var MinPrice = decimal.New(1, -2) // 0.01

type MenuItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
