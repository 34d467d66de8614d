// Package cache provides a bounded map that evicts entries in insertion
// order. Reads never change which entry goes next.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache holds at most a fixed number of entries. Putting an existing key
// makes it the newest entry. It is safe for concurrent use.
type Cache[K comparable, V any] struct {
	c *lru.Cache[K, V]
}

// New returns a cache holding up to size entries. A size below one is
// treated as one.
func New[K comparable, V any](size int) *Cache[K, V] {
	if size < 1 {
		size = 1
	}
	c, _ := lru.New[K, V](size)
	return &Cache[K, V]{c: c}
}

// Put stores v under k and reports whether an older entry was evicted.
func (c *Cache[K, V]) Put(k K, v V) bool {
	if c.c.Contains(k) {
		c.c.Remove(k)
	}
	return c.c.Add(k, v)
}

// Get returns the value stored under k.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	return c.c.Peek(k)
}

// Remove deletes k.
func (c *Cache[K, V]) Remove(k K) {
	c.c.Remove(k)
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int { return c.c.Len() }

// Keys returns the keys oldest first.
func (c *Cache[K, V]) Keys() []K { return c.c.Keys() }

// Purge drops every entry.
func (c *Cache[K, V]) Purge() { c.c.Purge() }
