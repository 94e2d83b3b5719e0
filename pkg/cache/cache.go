package cache

import (
	"sync"
	"time"
)

// Entry holds a cached value with the time it was fetched.
type Entry struct {
	Value     string
	FetchedAt time.Time
}

// TTLCache is a thread-safe cache for expensive external lookups (market
// quotes and similar). Entries are never evicted, only overwritten on
// refresh; one entry exists per key, last write wins.
type TTLCache struct {
	mu    sync.RWMutex
	items map[string]Entry
	now   func() time.Time
}

func New() *TTLCache {
	return &TTLCache{
		items: make(map[string]Entry),
		now:   time.Now,
	}
}

// GetOrFetch returns the cached value for key when it is younger than ttl,
// otherwise calls fetch and stores the result. The bool reports whether the
// value came from the cache. A failed fetch returns ("", false) and leaves
// the entry untouched; concurrent callers racing past an expiry may each
// fetch, which is acceptable (last write wins).
func (c *TTLCache) GetOrFetch(key string, ttl time.Duration, fetch func() (string, error)) (string, bool) {
	c.mu.RLock()
	ent, ok := c.items[key]
	c.mu.RUnlock()

	if ok && c.now().Sub(ent.FetchedAt) < ttl {
		return ent.Value, true
	}

	value, err := fetch()
	if err != nil {
		return "", false
	}

	c.mu.Lock()
	c.items[key] = Entry{Value: value, FetchedAt: c.now()}
	c.mu.Unlock()

	return value, false
}

// Len returns the number of cached entries.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
