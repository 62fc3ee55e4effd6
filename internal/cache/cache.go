// Package cache implements a small thread-safe TTL cache used as a
// read-through window in front of the upstream adapters.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a mutex-guarded map with per-entry expiration. Expired entries are
// dropped lazily on read; the working set here is a handful of keys, so no
// background janitor is needed.
type TTL[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]
	now   func() time.Time
}

// NewTTL creates an empty cache.
func NewTTL[V any]() *TTL[V] {
	return &TTL[V]{
		items: make(map[string]entry[V]),
		now:   time.Now,
	}
}

// Get returns the cached value for key if it is present and fresh.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the given ttl.
func (c *TTL[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
}

// Delete removes key if present.
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len reports the number of stored entries, counting expired ones that have
// not been read since expiring.
func (c *TTL[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
