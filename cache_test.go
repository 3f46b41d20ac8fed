package choices

import (
	"testing"
	"time"
)

func TestCacheExpiresLazilyOnRead(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCache(time.Minute, 0, CacheWithClock(func() time.Time { return now }))

	cache.Set("options:parties", []FilterOption{{Value: "P1"}})
	now = now.Add(59 * time.Second)
	if _, ok := cache.Get("options:parties"); !ok {
		t.Fatalf("expected entry within ttl")
	}
	if cache.Len() != 1 {
		t.Fatalf("expected one entry, got %d", cache.Len())
	}

	now = now.Add(time.Second)
	if _, ok := cache.Get("options:parties"); ok {
		t.Fatalf("expected entry expired at ttl")
	}
	if cache.Len() != 0 {
		t.Fatalf("expected expired entry removed on read, got %d", cache.Len())
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	cache := NewCache(0, 2, CacheWithEvictHook(func(key string) {
		evicted = append(evicted, key)
	}))

	cache.Set("a", 1)
	cache.Set("b", 2)
	if _, ok := cache.Get("a"); !ok {
		t.Fatalf("expected a cached")
	}
	cache.Set("c", 3)

	if _, ok := cache.Get("b"); ok {
		t.Fatalf("expected b evicted as least recently used")
	}
	if _, ok := cache.Get("a"); !ok {
		t.Fatalf("expected a retained")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("expected eviction hook for b, got %v", evicted)
	}
}

func TestCacheOverwriteDeleteClear(t *testing.T) {
	cache := NewCache(0, 0)
	cache.Set("k", 1)
	cache.Set("k", 2)
	if v, _ := cache.Get("k"); v != 2 {
		t.Fatalf("expected overwrite, got %v", v)
	}
	if cache.Len() != 1 {
		t.Fatalf("expected single entry after overwrite")
	}
	cache.Delete("k")
	if _, ok := cache.Get("k"); ok {
		t.Fatalf("expected delete")
	}
	cache.Set("x", 1)
	cache.Set("y", 2)
	cache.Clear()
	if cache.Len() != 0 {
		t.Fatalf("expected clear to empty the cache")
	}
}
