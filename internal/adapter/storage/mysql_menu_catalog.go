package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rcameron/tillsync/internal/core/domain"
)

type MySQLMenuCatalog struct {
	db *sql.DB
}

func NewMySQLMenuCatalog(db *sql.DB) *MySQLMenuCatalog {
	return &MySQLMenuCatalog{db: db}
}

func (c *MySQLMenuCatalog) Create(ctx context.Context, name, category string, price decimal.Decimal) (*domain.MenuItem, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(category) == "" {
		return nil, domain.ErrInvalidMenuItem
	}
	if price.LessThan(domain.MinPrice) {
		return nil, domain.ErrInvalidMenuItem
	}

	item := domain.MenuItem{
		ID:        uuid.NewString(),
		Name:      name,
		Price:     price,
		Category:  category,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO menu_items (id, name, price, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, item.Price, item.Category, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert menu item: %w", err)
	}

	return &item, nil
}

func (c *MySQLMenuCatalog) Get(ctx context.Context, id string) (*domain.MenuItem, error) {
	var item domain.MenuItem
	err := c.db.QueryRowContext(ctx, `
		SELECT id, name, price, category, created_at, updated_at
		FROM menu_items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Name, &item.Price, &item.Category, &item.CreatedAt, &item.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query menu item: %w", err)
	}

	return &item, nil
}

func (c *MySQLMenuCatalog) List(ctx context.Context) ([]domain.MenuItem, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, price, category, created_at, updated_at
		FROM menu_items`)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	var items []domain.MenuItem
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &item.Category, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu items: %w", err)
	}

	return items, nil
}

// UpdatePrice changes the catalog price only; order lines keep the price
// they were sold at.
func (c *MySQLMenuCatalog) UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (*domain.MenuItem, error) {
	if price.LessThan(domain.MinPrice) {
		return nil, domain.ErrInvalidMenuItem
	}

	result, err := c.db.ExecContext(ctx, `
		UPDATE menu_items SET price = ?, updated_at = NOW() WHERE id = ?`,
		price, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update menu item price: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		item, err := c.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, domain.ErrNotFound
		}
		return item, nil
	}

	return c.Get(ctx, id)
}

func (c *MySQLMenuCatalog) Delete(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM menu_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	return nil
}
