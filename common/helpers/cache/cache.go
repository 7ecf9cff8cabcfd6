// SPDX-FileCopyrightText: 2023 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package cache implements a bounded in-memory cache. Each operation is
// provided the current time and items are expired on demand, depending on
// their last access.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Cache is a thread-safe in-memory key/value store. Once the maximum size is
// reached, new items are not stored until some items are expired.
type Cache[K comparable, V any] struct {
	items   map[K]*item[V]
	maxSize int
	mu      sync.RWMutex
}

type item[V any] struct {
	object       V
	lastAccessed atomic.Int64
}

// New creates a new cache holding at most maxSize items. A null or negative
// size means no limit.
func New[K comparable, V any](maxSize int) *Cache[K, V] {
	return &Cache[K, V]{
		items:   make(map[K]*item[V]),
		maxSize: maxSize,
	}
}

// Put adds an object to the cache. It returns false if the cache is full
// and the key is not already present.
func (c *Cache[K, V]) Put(now time.Time, key K, object V) bool {
	it := &item[V]{object: object}
	it.lastAccessed.Store(now.UnixNano())
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; !ok && c.maxSize > 0 && len(c.items) >= c.maxSize {
		return false
	}
	c.items[key] = it
	return true
}

// Get retrieves an object from the cache. If now is uninitialized, time of
// last access is not updated.
func (c *Cache[K, V]) Get(now time.Time, key K) (V, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	if !now.IsZero() {
		it.lastAccessed.Store(now.UnixNano())
	}
	return it.object, true
}

// DeleteLastAccessedBefore expires items whose last access is before the
// provided time. It returns the number of expired items.
func (c *Cache[K, V]) DeleteLastAccessedBefore(before time.Time) int {
	limit := before.UnixNano()
	count := 0
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, it := range c.items {
		if it.lastAccessed.Load() < limit {
			delete(c.items, k)
			count++
		}
	}
	return count
}

// Size returns the number of items in the cache.
func (c *Cache[K, V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
