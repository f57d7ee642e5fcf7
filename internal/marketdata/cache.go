package marketdata

import (
	"sync"
	"time"
)

const (
	// DefaultCacheTTL is how long a cached upstream response stays fresh.
	DefaultCacheTTL = 300 * time.Second

	// DefaultCacheMaxEntries caps the cache; the oldest insert is evicted
	// when full.
	DefaultCacheMaxEntries = 1000
)

// CacheStats is a snapshot of cache counters for the admin endpoints.
type CacheStats struct {
	Entries    int    `json:"entries"`
	Capacity   int    `json:"capacity"`
	TTLSeconds int    `json:"ttl_seconds"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Evictions  uint64 `json:"evictions"`
}

type cacheEntry struct {
	value    interface{}
	storedAt time.Time
}

// Cache is an in-process TTL cache with FIFO eviction.
// Insertion order decides eviction; refreshing an existing key does not
// move it to the back of the queue.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	order      []string
	ttl        time.Duration
	maxEntries int

	hits      uint64
	misses    uint64
	evictions uint64
}

// NewCache creates a cache with the given TTL and capacity.
// Non-positive values fall back to the defaults.
func NewCache(ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	return &Cache{
		entries:    make(map[string]*cacheEntry),
		order:      make([]string, 0, maxEntries),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// Get returns the cached value for key if present and fresh.
// Expired entries are removed on access and counted as misses.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if time.Since(entry.storedAt) > c.ttl {
		c.remove(key)
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.value, true
}

// Set stores a value, evicting the oldest insert when the cache is full.
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.value = value
		entry.storedAt = time.Now()
		return
	}

	if len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		c.remove(c.order[0])
		c.evictions++
	}

	c.entries[key] = &cacheEntry{value: value, storedAt: time.Now()}
	c.order = append(c.order, key)
}

// Clear empties the cache and returns the number of entries removed.
// Hit/miss counters are preserved.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := len(c.entries)
	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	return removed
}

// Sweep removes expired entries and returns how many were purged.
// Called on a schedule so stale entries do not pin memory between reads.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if time.Since(entry.storedAt) > c.ttl {
			c.remove(key)
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Entries:    len(c.entries),
		Capacity:   c.maxEntries,
		TTLSeconds: int(c.ttl / time.Second),
		Hits:       c.hits,
		Misses:     c.misses,
		Evictions:  c.evictions,
	}
}

// remove deletes a key from the map and the FIFO queue. Caller holds the lock.
func (c *Cache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
