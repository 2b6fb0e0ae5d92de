package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rcameron/tillsync/internal/core/domain"
	"github.com/rcameron/tillsync/internal/port"
)

// MenuItemView is a menu item plus its derived availability: available
// when untracked or when on-hand stock is positive. Availability is
// computed on read, never stored.
type MenuItemView struct {
	domain.MenuItem
	Available bool
}

// CatalogService serves menu reads through a cache-aside snapshot and
// keeps the cache honest across catalog writes.
type CatalogService struct {
	catalog   port.MenuCatalog
	inventory port.InventoryLedger
	cache     port.CatalogCache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

func NewCatalogService(catalog port.MenuCatalog, inventory port.InventoryLedger, cache port.CatalogCache, cacheTTL time.Duration, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		catalog:   catalog,
		inventory: inventory,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// ListMenu returns the menu with availability. Cache failures degrade to a
// catalog read; they never fail the request.
func (s *CatalogService) ListMenu(ctx context.Context) ([]MenuItemView, error) {
	items, ok, err := s.cache.GetMenu(ctx)
	if err != nil {
		s.logger.Warn("menu cache read failed, falling back to catalog", zap.Error(err))
		ok = false
	}

	if !ok {
		items, err = s.catalog.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list menu items: %w", err)
		}
		if err := s.cache.SetMenu(ctx, items, s.cacheTTL); err != nil {
			s.logger.Warn("menu cache write failed", zap.Error(err))
		}
	}

	tracked, err := s.inventory.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}

	onHand := make(map[string]int, len(tracked))
	for _, inv := range tracked {
		onHand[inv.MenuItemID] = inv.QuantityOnHand
	}

	views := make([]MenuItemView, 0, len(items))
	for _, item := range items {
		qty, isTracked := onHand[item.ID]
		views = append(views, MenuItemView{
			MenuItem:  item,
			Available: !isTracked || qty > 0,
		})
	}

	return views, nil
}

func (s *CatalogService) GetItem(ctx context.Context, id string) (*domain.MenuItem, error) {
	return s.catalog.Get(ctx, id)
}

func (s *CatalogService) CreateItem(ctx context.Context, name, category string, price decimal.Decimal) (*domain.MenuItem, error) {
	item, err := s.catalog.Create(ctx, name, category, price)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return item, nil
}

func (s *CatalogService) UpdateItemPrice(ctx context.Context, id string, price decimal.Decimal) (*domain.MenuItem, error) {
	item, err := s.catalog.UpdatePrice(ctx, id, price)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return item, nil
}

// DeleteItem discontinues a menu item and drops its inventory record if
// one exists. Historical order lines keep their snapshots.
func (s *CatalogService) DeleteItem(ctx context.Context, id string) error {
	inv, err := s.inventory.FindByMenuItem(ctx, id)
	if err != nil {
		return fmt.Errorf("inventory lookup: %w", err)
	}
	if inv != nil {
		if err := s.inventory.Delete(ctx, inv.ID); err != nil {
			return fmt.Errorf("delete inventory record: %w", err)
		}
	}

	if err := s.catalog.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("menu cache invalidation failed", zap.Error(err))
	}
}
