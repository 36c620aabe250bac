package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type item[V any] struct {
	value      V
	expiration int64
}

func (i item[V]) expired(now int64) bool {
	return i.expiration > 0 && now > i.expiration
}

// Options configures a Cache
type Options struct {
	TTL         time.Duration
	MaxItems    int
	PurgeWindow time.Duration
}

// Cache is a thread-safe in-memory cache with expiration
type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]item[V]
	opts  Options
	now   func() time.Time
}

// New creates a cache. Call Run to purge expired entries in the background.
func New[V any](opts Options) *Cache[V] {
	return &Cache[V]{
		items: make(map[string]item[V]),
		opts:  opts,
		now:   time.Now,
	}
}

// Set adds an item with the default TTL
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithExpiration(key, value, c.opts.TTL)
}

// SetWithExpiration adds an item with a specific TTL; d <= 0 never expires
func (c *Cache[V]) SetWithExpiration(key string, value V, d time.Duration) {
	var exp int64
	if d > 0 {
		exp = c.now().Add(d).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.opts.MaxItems > 0 && len(c.items) >= c.opts.MaxItems {
		c.evictOldest()
	}
	c.items[key] = item[V]{value: value, expiration: exp}
}

// Get retrieves a live item
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, found := c.items[key]
	if !found || it.expired(c.now().UnixNano()) {
		var zero V
		return zero, false
	}
	return it.value, true
}

// Delete removes an item
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// DeletePrefix removes every item whose key starts with prefix
func (c *Cache[V]) DeletePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
}

// Count returns the number of items, expired ones included
func (c *Cache[V]) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Run purges expired items every PurgeWindow until ctx is cancelled
func (c *Cache[V]) Run(ctx context.Context) {
	if c.opts.PurgeWindow <= 0 {
		return
	}
	ticker := time.NewTicker(c.opts.PurgeWindow)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.deleteExpired()
		}
	}
}

func (c *Cache[V]) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UnixNano()
	for k, v := range c.items {
		if v.expired(now) {
			delete(c.items, k)
		}
	}
}

// evictOldest drops the entry closest to expiry; must be called with mu held
func (c *Cache[V]) evictOldest() {
	var oldestKey string
	var oldest int64
	first := true
	for k, v := range c.items {
		if first || (v.expiration != 0 && (oldest == 0 || v.expiration < oldest)) {
			oldestKey, oldest, first = k, v.expiration, false
		}
	}
	if !first {
		delete(c.items, oldestKey)
	}
}
