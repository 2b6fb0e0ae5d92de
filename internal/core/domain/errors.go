package domain

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidMenuItem   = errors.New("invalid menu item")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrInvalidLineItem   = errors.New("invalid line item")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderFinalized    = errors.New("order is finalized")
)
