package marketdata

import (
	"fmt"
	"testing"
	"time"
)

func TestCacheGetSet(t *testing.T) {
	cache := NewCache(time.Minute, 10)

	if _, ok := cache.Get("missing"); ok {
		t.Fatal("expected miss for absent key")
	}

	cache.Set("a", 1)
	value, ok := cache.Get("a")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if value.(int) != 1 {
		t.Errorf("value = %v, want 1", value)
	}

	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", stats.Hits, stats.Misses)
	}
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCache(10*time.Millisecond, 10)

	cache.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := cache.Get("a"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if stats := cache.Stats(); stats.Entries != 0 {
		t.Errorf("entries = %d, want 0 after expiry", stats.Entries)
	}
}

func TestCacheFIFOEviction(t *testing.T) {
	cache := NewCache(time.Minute, 3)

	for i := 0; i < 3; i++ {
		cache.Set(fmt.Sprintf("key%d", i), i)
	}

	// Refreshing an existing key must not change eviction order
	cache.Set("key0", 100)

	cache.Set("key3", 3)

	if _, ok := cache.Get("key0"); ok {
		t.Error("expected key0 (oldest insert) to be evicted")
	}
	for _, key := range []string{"key1", "key2", "key3"} {
		if _, ok := cache.Get(key); !ok {
			t.Errorf("expected %s to survive eviction", key)
		}
	}
	if stats := cache.Stats(); stats.Evictions != 1 {
		t.Errorf("evictions = %d, want 1", stats.Evictions)
	}
}

func TestCacheClear(t *testing.T) {
	cache := NewCache(time.Minute, 10)
	cache.Set("a", 1)
	cache.Set("b", 2)

	if removed := cache.Clear(); removed != 2 {
		t.Errorf("Clear() = %d, want 2", removed)
	}
	if stats := cache.Stats(); stats.Entries != 0 {
		t.Errorf("entries = %d, want 0 after clear", stats.Entries)
	}

	// Clearing must not break subsequent inserts
	cache.Set("c", 3)
	if _, ok := cache.Get("c"); !ok {
		t.Error("expected hit after clear and re-insert")
	}
}

func TestCacheSweep(t *testing.T) {
	cache := NewCache(10*time.Millisecond, 10)
	cache.Set("a", 1)
	cache.Set("b", 2)

	time.Sleep(20 * time.Millisecond)
	cache.Set("c", 3)

	if removed := cache.Sweep(); removed != 2 {
		t.Errorf("Sweep() = %d, want 2", removed)
	}
	if _, ok := cache.Get("c"); !ok {
		t.Error("expected fresh entry to survive sweep")
	}
}
