package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rcameron/tillsync/internal/core/domain"
)

type MySQLInventoryLedger struct {
	db *sql.DB
}

func NewMySQLInventoryLedger(db *sql.DB) *MySQLInventoryLedger {
	return &MySQLInventoryLedger{db: db}
}

func (l *MySQLInventoryLedger) Create(ctx context.Context, menuItemID string, quantity int) (*domain.InventoryItem, error) {
	if menuItemID == "" {
		return nil, domain.ErrInvalidMenuItem
	}
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	item := domain.InventoryItem{
		ID:             uuid.NewString(),
		MenuItemID:     menuItemID,
		QuantityOnHand: quantity,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	// menu_item_id carries a unique index; the coordinator depends on
	// lookup-by-menu-item returning at most one record.
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO inventory_items (id, menu_item_id, quantity_on_hand, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		item.ID, item.MenuItemID, item.QuantityOnHand, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert inventory item: %w", err)
	}

	return &item, nil
}

func (l *MySQLInventoryLedger) Get(ctx context.Context, id string) (*domain.InventoryItem, error) {
	return l.queryOne(ctx, `
		SELECT id, menu_item_id, quantity_on_hand, created_at, updated_at
		FROM inventory_items WHERE id = ?`, id)
}

func (l *MySQLInventoryLedger) FindByMenuItem(ctx context.Context, menuItemID string) (*domain.InventoryItem, error) {
	return l.queryOne(ctx, `
		SELECT id, menu_item_id, quantity_on_hand, created_at, updated_at
		FROM inventory_items WHERE menu_item_id = ?`, menuItemID)
}

func (l *MySQLInventoryLedger) queryOne(ctx context.Context, query string, arg string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := l.db.QueryRowContext(ctx, query, arg).Scan(
		&item.ID, &item.MenuItemID, &item.QuantityOnHand, &item.CreatedAt, &item.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory item: %w", err)
	}

	return &item, nil
}

func (l *MySQLInventoryLedger) List(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, menu_item_id, quantity_on_hand, created_at, updated_at
		FROM inventory_items`)
	if err != nil {
		return nil, fmt.Errorf("query inventory items: %w", err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(&item.ID, &item.MenuItemID, &item.QuantityOnHand, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory items: %w", err)
	}

	return items, nil
}

// Decrement subtracts amount in a single conditional statement. The guard
// in the WHERE clause is what keeps concurrent sales from driving stock
// negative; there is no read-then-write window.
func (l *MySQLInventoryLedger) Decrement(ctx context.Context, id string, amount int) (*domain.InventoryItem, error) {
	if amount < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	result, err := l.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET quantity_on_hand = quantity_on_hand - ?, updated_at = NOW()
		WHERE id = ? AND quantity_on_hand >= ?`,
		amount, id, amount,
	)
	if err != nil {
		return nil, fmt.Errorf("decrement inventory: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		item, err := l.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrInsufficientStock
	}

	return l.Get(ctx, id)
}

func (l *MySQLInventoryLedger) Increment(ctx context.Context, id string, amount int) (*domain.InventoryItem, error) {
	if amount < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	result, err := l.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET quantity_on_hand = quantity_on_hand + ?, updated_at = NOW()
		WHERE id = ?`,
		amount, id,
	)
	if err != nil {
		return nil, fmt.Errorf("increment inventory: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, domain.ErrNotFound
	}

	return l.Get(ctx, id)
}

func (l *MySQLInventoryLedger) SetQuantity(ctx context.Context, id string, quantity int) (*domain.InventoryItem, error) {
	if quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	result, err := l.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET quantity_on_hand = ?, updated_at = NOW()
		WHERE id = ?`,
		quantity, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set inventory quantity: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		item, err := l.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, domain.ErrNotFound
		}
		return item, nil
	}

	return l.Get(ctx, id)
}

func (l *MySQLInventoryLedger) Delete(ctx context.Context, id string) error {
	_, err := l.db.ExecContext(ctx,
		`DELETE FROM inventory_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete inventory item: %w", err)
	}
	return nil
}
