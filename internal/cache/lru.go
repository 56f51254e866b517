package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a generic LRU cache with per-entry TTL. Summary computations
// are cached here keyed by month; a write to the expense store clears
// the whole cache rather than chasing which months a change touches.
type Cache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	entries map[string]*list.Element
	order   *list.List
}

type entry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

// New creates a cache holding at most maxSize entries, each valid for
// ttl after the last Set.
func New[T any](maxSize int, ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get returns the cached value and whether it was present and fresh.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	e := elem.Value.(*entry[T])
	if time.Now().After(e.expiresAt) {
		c.remove(elem)
		return zero, false
	}

	c.order.MoveToFront(elem)
	return e.value, true
}

// Set stores a value, evicting the least recently used entry when the
// cache is full.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}

	if elem, ok := c.entries[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}

	c.entries[key] = c.order.PushFront(e)

	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

// Delete removes a single key.
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.remove(elem)
	}
}

// Clear empties the cache. Called on every expense write so summaries
// are never served stale.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Size returns the current number of entries, expired ones included.
func (c *Cache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[T]) remove(elem *list.Element) {
	e := elem.Value.(*entry[T])
	delete(c.entries, e.key)
	c.order.Remove(elem)
}
