package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rcameron/tillsync/internal/core/domain"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestMenuSnapshot_RoundTrip(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	cache := NewRedisCatalogCache(client)

	client.Del(ctx, menuSnapshotKey)

	items := []domain.MenuItem{
		{ID: "menu-1", Name: "Espresso", Price: decimal.RequireFromString("3.50"), Category: "Drinks"},
		{ID: "menu-2", Name: "Scone", Price: decimal.RequireFromString("2.00"), Category: "Bakery"},
	}

	if err := cache.SetMenu(ctx, items, time.Minute); err != nil {
		t.Fatalf("SetMenu failed: %v", err)
	}

	got, ok, err := cache.GetMenu(ctx)
	if err != nil {
		t.Fatalf("GetMenu failed: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].Name != "Espresso" || !got[0].Price.Equal(items[0].Price) {
		t.Errorf("snapshot mismatch: %+v", got[0])
	}
}

func TestGetMenu_Miss(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	cache := NewRedisCatalogCache(client)

	client.Del(ctx, menuSnapshotKey)

	_, ok, err := cache.GetMenu(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected cache miss")
	}
}

func TestInvalidate(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	cache := NewRedisCatalogCache(client)

	items := []domain.MenuItem{{ID: "menu-1", Name: "Espresso", Price: decimal.RequireFromString("3.50")}}
	if err := cache.SetMenu(ctx, items, time.Minute); err != nil {
		t.Fatalf("SetMenu failed: %v", err)
	}

	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	_, ok, err := cache.GetMenu(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected snapshot gone after invalidation")
	}
}
