// Package cache memoizes evaluation outcomes.
//
// Evaluation is a pure function of the normalized expression text, so both
// values and domain errors can be cached. Keys are xxhash digests of the
// normalized text; the text itself is kept alongside to rule out collisions.
package cache

import (
	"container/list"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/codefionn/calculate42/internal/calc"
)

// Entry is a cached outcome: either Value or Err is meaningful
type Entry struct {
	Value float64
	Err   error
}

type item struct {
	key        uint64
	normalized string
	entry      Entry
}

// Cache is a fixed-capacity LRU cache safe for concurrent use
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front is most recently used
	items    map[uint64]*list.Element
	hits     uint64
	misses   uint64
}

// New creates a cache holding at most capacity entries.
// A capacity of zero or less disables caching.
func New(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[uint64]*list.Element),
	}
}

// Key returns the cache key for expr along with its normalized form
func Key(expr string) (uint64, string) {
	normalized := calc.Normalize(expr)
	return xxhash.Sum64String(normalized), normalized
}

// Get looks up the outcome for expr
func (c *Cache) Get(expr string) (Entry, bool) {
	if c == nil || c.capacity <= 0 {
		return Entry{}, false
	}
	key, normalized := Key(expr)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok || el.Value.(*item).normalized != normalized {
		c.misses++
		return Entry{}, false
	}
	c.order.MoveToFront(el)
	c.hits++
	return el.Value.(*item).entry, true
}

// Put stores the outcome for expr, evicting the least recently used entry when full
func (c *Cache) Put(expr string, entry Entry) {
	if c == nil || c.capacity <= 0 {
		return
	}
	key, normalized := Key(expr)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		it := el.Value.(*item)
		it.normalized = normalized
		it.entry = entry
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&item{key: key, normalized: normalized, entry: entry})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*item).key)
	}
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns the hit and miss counters
func (c *Cache) Stats() (hits, misses uint64) {
	if c == nil {
		return 0, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Clear drops every entry and resets the counters
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[uint64]*list.Element)
	c.hits, c.misses = 0, 0
}
