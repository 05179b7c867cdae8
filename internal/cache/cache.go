package cache

import (
	"sync"
	"time"
)

// Cache is a tiny in-process TTL cache. It fronts the editor directory,
// which every creator hits on the assign screen and which changes rarely.
type Cache[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry[T]
}

type entry[T any] struct {
	val T
	exp time.Time
}

func New[T any](ttl time.Duration) *Cache[T] {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache[T]{
		ttl:     ttl,
		entries: make(map[string]entry[T]),
	}
}

func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]

	if !ok {
		return zero, false
	}

	if time.Now().After(e.exp) {
		delete(c.entries, key)
		return zero, false
	}

	return e.val, true
}

func (c *Cache[T]) Set(key string, val T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[T]{val: val, exp: time.Now().Add(c.ttl)}
}

func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry[T])
}
