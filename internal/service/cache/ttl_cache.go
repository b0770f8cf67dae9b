package cache

import (
	"sync"
	"time"
)

type item struct {
	value     []byte
	expiresAt time.Time
}

// TTLCache is the in-process BytesCache used when Redis is off. Expiry
// is lazy: expired entries are dropped on the read that finds them, so
// there is no janitor goroutine to manage.
type TTLCache struct {
	mu    sync.RWMutex
	items map[string]item
}

func NewTTLCache() *TTLCache {
	return &TTLCache{items: make(map[string]item)}
}

func (c *TTLCache) GetBytes(key string) ([]byte, bool, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !it.expiresAt.IsZero() && time.Now().After(it.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: a Set may have raced in a
		// fresh value for the same key.
		if cur, ok := c.items[key]; ok && cur.expiresAt.Equal(it.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return it.value, true, nil
}

// SetBytes stores value under key. A ttl of 0 means no expiry.
func (c *TTLCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = item{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
	return nil
}
