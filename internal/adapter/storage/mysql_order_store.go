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

type MySQLOrderStore struct {
	db *sql.DB
}

func NewMySQLOrderStore(db *sql.DB) *MySQLOrderStore {
	return &MySQLOrderStore{db: db}
}

func (s *MySQLOrderStore) CreateOrder(ctx context.Context) (*domain.Order, error) {
	order := domain.Order{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (id, created_at, is_finalized)
		VALUES (?, ?, 0)`,
		order.ID, order.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	return &order, nil
}

func (s *MySQLOrderStore) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	var finalizedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, finalized_at, is_finalized
		FROM orders WHERE id = ?`, orderID,
	).Scan(&order.ID, &order.CreatedAt, &finalizedAt, &order.Finalized)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	if finalizedAt.Valid {
		order.FinalizedAt = &finalizedAt.Time
	}

	lines, err := s.ListLineItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	return &order, nil
}

func (s *MySQLOrderStore) ListOpenOrders(ctx context.Context) ([]domain.Order, error) {
	return s.listOrders(ctx, `
		SELECT id, created_at, finalized_at, is_finalized
		FROM orders WHERE is_finalized = 0`)
}

func (s *MySQLOrderStore) ListFinalizedOrders(ctx context.Context) ([]domain.Order, error) {
	return s.listOrders(ctx, `
		SELECT id, created_at, finalized_at, is_finalized
		FROM orders WHERE is_finalized = 1`)
}

func (s *MySQLOrderStore) listOrders(ctx context.Context, query string) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		var finalizedAt sql.NullTime
		if err := rows.Scan(&order.ID, &order.CreatedAt, &finalizedAt, &order.Finalized); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if finalizedAt.Valid {
			order.FinalizedAt = &finalizedAt.Time
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	for i := range orders {
		lines, err := s.ListLineItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}

	return orders, nil
}

func (s *MySQLOrderStore) CreateLineItem(ctx context.Context, item domain.MenuItem, orderID string, quantity int) (*domain.OrderLineItem, error) {
	if item.ID == "" {
		return nil, domain.ErrInvalidMenuItem
	}
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	var finalized bool
	err := s.db.QueryRowContext(ctx,
		`SELECT is_finalized FROM orders WHERE id = ?`, orderID,
	).Scan(&finalized)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	if finalized {
		return nil, domain.ErrOrderFinalized
	}

	line := domain.OrderLineItem{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		MenuItemID: item.ID,
		NameAtSale: item.Name,
		UnitPrice:  item.Price,
		Quantity:   quantity,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO order_line_items (id, order_id, menu_item_id, name_at_sale, unit_price, quantity)
		VALUES (?, ?, ?, ?, ?, ?)`,
		line.ID, line.OrderID, line.MenuItemID, line.NameAtSale, line.UnitPrice, line.Quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("insert line item: %w", err)
	}

	return &line, nil
}

func (s *MySQLOrderStore) GetLineItem(ctx context.Context, lineItemID string) (*domain.OrderLineItem, error) {
	var line domain.OrderLineItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, order_id, menu_item_id, name_at_sale, unit_price, quantity
		FROM order_line_items WHERE id = ?`, lineItemID,
	).Scan(&line.ID, &line.OrderID, &line.MenuItemID, &line.NameAtSale, &line.UnitPrice, &line.Quantity)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query line item: %w", err)
	}

	return &line, nil
}

func (s *MySQLOrderStore) ListLineItems(ctx context.Context, orderID string) ([]domain.OrderLineItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, menu_item_id, name_at_sale, unit_price, quantity
		FROM order_line_items WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query line items: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLineItem
	for rows.Next() {
		var line domain.OrderLineItem
		if err := rows.Scan(&line.ID, &line.OrderID, &line.MenuItemID, &line.NameAtSale, &line.UnitPrice, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate line items: %w", err)
	}

	return lines, nil
}

func (s *MySQLOrderStore) UpdateLineItemQuantity(ctx context.Context, lineItemID string, quantity int) (*domain.OrderLineItem, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE order_line_items SET quantity = ? WHERE id = ?`,
		quantity, lineItemID,
	)
	if err != nil {
		return nil, fmt.Errorf("update line item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Either missing or unchanged; disambiguate with a read.
		line, err := s.GetLineItem(ctx, lineItemID)
		if err != nil {
			return nil, err
		}
		if line == nil {
			return nil, domain.ErrNotFound
		}
		return line, nil
	}

	return s.GetLineItem(ctx, lineItemID)
}

// DeleteLineItem is idempotent: deleting a non-existent id is a no-op.
func (s *MySQLOrderStore) DeleteLineItem(ctx context.Context, lineItemID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM order_line_items WHERE id = ?`, lineItemID)
	if err != nil {
		return fmt.Errorf("delete line item: %w", err)
	}
	return nil
}

// DeleteOrder removes the order and its lines in one transaction. Orders
// own their lines; nothing else is touched. Finalized orders are
// historical records and cannot be deleted.
func (s *MySQLOrderStore) DeleteOrder(ctx context.Context, orderID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var finalized bool
	err = tx.QueryRowContext(ctx,
		`SELECT is_finalized FROM orders WHERE id = ?`, orderID,
	).Scan(&finalized)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("query order: %w", err)
	}
	if finalized {
		return domain.ErrOrderFinalized
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM order_line_items WHERE order_id = ?`, orderID); err != nil {
		return fmt.Errorf("delete line items: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM orders WHERE id = ?`, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	return tx.Commit()
}

// FinalizeOrder is idempotent; re-finalizing re-applies the timestamp.
func (s *MySQLOrderStore) FinalizeOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE orders SET is_finalized = 1, finalized_at = ? WHERE id = ?`,
		time.Now(), orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("finalize order: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Re-finalizing within the same second writes a byte-identical row,
		// which the driver reports as zero changed rows; disambiguate with a
		// read.
		order, err := s.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, domain.ErrNotFound
		}
		return order, nil
	}

	return s.GetOrder(ctx, orderID)
}
