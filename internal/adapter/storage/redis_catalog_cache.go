package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rcameron/tillsync/internal/core/domain"
)

const menuSnapshotKey = "menu:snapshot"

type RedisCatalogCache struct {
	client *redis.Client
}

func NewRedisCatalogCache(client *redis.Client) *RedisCatalogCache {
	return &RedisCatalogCache{client: client}
}

func (r *RedisCatalogCache) GetMenu(ctx context.Context) ([]domain.MenuItem, bool, error) {
	data, err := r.client.Get(ctx, menuSnapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get menu snapshot: %w", err)
	}

	var items []domain.MenuItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, fmt.Errorf("unmarshal menu snapshot: %w", err)
	}

	return items, true, nil
}

func (r *RedisCatalogCache) SetMenu(ctx context.Context, items []domain.MenuItem, ttl time.Duration) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal menu snapshot: %w", err)
	}

	if err := r.client.Set(ctx, menuSnapshotKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("set menu snapshot: %w", err)
	}

	return nil
}

func (r *RedisCatalogCache) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, menuSnapshotKey).Err(); err != nil {
		return fmt.Errorf("invalidate menu snapshot: %w", err)
	}
	return nil
}
