package cache

import (
	"context"
	"testing"
	"time"
)

func TestLocalCache(t *testing.T) {
	config := LocalConfig{
		DefaultExpiration: 5 * time.Minute,
		CleanupInterval:   10 * time.Minute,
	}

	cache := NewLocalCache(config)
	defer cache.Close()

	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		key := "test_key"
		value := "test_value"
		expiration := 1 * time.Minute

		err := cache.Set(ctx, key, value, expiration)
		if err != nil {
			t.Errorf("Failed to set cache: %v", err)
		}

		if retrieved, exists := cache.Get(ctx, key); !exists {
			t.Error("Cache value not found")
		} else if retrieved != value {
			t.Errorf("Expected %v, got %v", value, retrieved)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		key := "delete_key"
		if err := cache.Set(ctx, key, 1, time.Minute); err != nil {
			t.Fatalf("Failed to set cache: %v", err)
		}
		if err := cache.Delete(ctx, key); err != nil {
			t.Errorf("Failed to delete cache: %v", err)
		}
		if cache.Exists(ctx, key) {
			t.Error("Cache value still exists after delete")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		if err := cache.Set(ctx, "a", 1, time.Minute); err != nil {
			t.Fatalf("Failed to set cache: %v", err)
		}
		if err := cache.Clear(ctx); err != nil {
			t.Errorf("Failed to clear cache: %v", err)
		}
		if cache.Exists(ctx, "a") {
			t.Error("Cache value still exists after clear")
		}
	})
}

func TestCacheFactory(t *testing.T) {
	c, err := NewCache(Config{Type: "local"})
	if err != nil {
		t.Fatalf("Failed to create local cache: %v", err)
	}
	defer c.Close()

	if _, err := NewCache(Config{Type: "bogus"}); err == nil {
		t.Error("Expected error for unsupported cache type")
	}
}
