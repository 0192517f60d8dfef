package cache

import (
	"container/list"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultCapacity is the number of string entries kept when no capacity is configured.
	DefaultCapacity = 10

	// DefaultTTL is used by Put. Entries written without a TTL are effectively
	// bounded by capacity only.
	DefaultTTL = 365 * 24 * time.Hour
)

type entry struct {
	key       string
	value     string
	expiresAt time.Time
}

// TTLCache is a bounded string cache with per-entry expiry. When the number of
// entries exceeds the capacity, the oldest inserted entry is evicted whether or
// not it has expired. Overwriting a key keeps its original insertion position.
type TTLCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[string]*list.Element
	now      func() time.Time
	logger   *slog.Logger
}

// NewTTLCache creates a cache holding at most capacity entries. A
// non-positive capacity falls back to DefaultCapacity.
func NewTTLCache(capacity int, logger *slog.Logger) *TTLCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TTLCache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity+1),
		now:      time.Now,
		logger:   logger.With(slog.String("component", "ttl_cache")),
	}
}

// Get returns the value for key. Expired entries are reported absent and removed.
func (c *TTLCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.logger.Debug("cache miss", slog.String("key", key))
		return "", false
	}

	e := el.Value.(*entry)
	if !c.now().Before(e.expiresAt) {
		c.removeElement(el)
		c.logger.Debug("cache entry expired", slog.String("key", key))
		return "", false
	}

	c.logger.Debug("cache hit", slog.String("key", key))
	return e.value, true
}

// Put stores value under key with DefaultTTL.
func (c *TTLCache) Put(key, value string) {
	c.PutWithTTL(key, value, DefaultTTL)
}

// PutWithTTL stores value under key for ttl. A ttl of zero or less stores an
// entry that is already expired.
func (c *TTLCache) PutWithTTL(key, value string, ttl time.Duration) {
	if ttl < 0 {
		ttl = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.expiresAt = expiresAt
		return
	}

	c.items[key] = c.order.PushBack(&entry{key: key, value: value, expiresAt: expiresAt})

	if c.order.Len() > c.capacity {
		oldest := c.order.Front()
		c.removeElement(oldest)
		c.logger.Debug("cache entry evicted",
			slog.String("key", oldest.Value.(*entry).key),
			slog.Int("capacity", c.capacity))
	}
}

// Remove deletes key if present.
func (c *TTLCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
}

// Clear drops every entry.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element, c.capacity+1)
}

// Len reports the number of resident entries, including expired ones that
// have not been read since expiring.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// caller must hold c.mu
func (c *TTLCache) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
