package board

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// RenderCache memoizes rendered chart HTML so repeated reads are cheap.
type RenderCache interface {
	GetOrRender(key string, render func() (string, error)) (string, error)
}

// DefaultChartCacheCapacity bounds the cache when no capacity is given.
// Rendered chart HTML runs to tens of kilobytes per widget.
const DefaultChartCacheCapacity = 512

// ChartCache is an in-memory TTL cache for rendered charts, bounded to a
// fixed number of entries. When full it drops expired entries first, then
// the one closest to expiry.
type ChartCache struct {
	ttl      time.Duration
	capacity int
	mu       sync.RWMutex
	entries  map[string]cachedChart
}

type cachedChart struct {
	html    string
	expires time.Time
}

// NewChartCache builds a cache with the provided TTL and the default
// capacity.
func NewChartCache(ttl time.Duration) *ChartCache {
	return NewChartCacheWithCapacity(ttl, DefaultChartCacheCapacity)
}

// NewChartCacheWithCapacity builds a cache bounded to capacity entries.
func NewChartCacheWithCapacity(ttl time.Duration, capacity int) *ChartCache {
	if capacity <= 0 {
		capacity = DefaultChartCacheCapacity
	}
	return &ChartCache{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]cachedChart),
	}
}

// GetOrRender returns a cached entry or renders/stores a new one.
func (c *ChartCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	if html, ok := c.get(key); ok {
		return html, nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	c.set(key, html)
	return html, nil
}

func (c *ChartCache) get(key string) (string, bool) {
	if c == nil || c.ttl <= 0 {
		return "", false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		if ok {
			c.mu.Lock()
			delete(c.entries, key)
			c.mu.Unlock()
		}
		return "", false
	}
	return entry.html, true
}

func (c *ChartCache) set(key, html string) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.capacity {
		c.evictLocked()
	}
	c.entries[key] = cachedChart{
		html:    html,
		expires: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// evictLocked frees one slot: expired entries go first, then the entry
// closest to expiry.
func (c *ChartCache) evictLocked() {
	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) < c.capacity {
		return
	}
	var victim string
	var soonest time.Time
	for key, entry := range c.entries {
		if victim == "" || entry.expires.Before(soonest) {
			victim = key
			soonest = entry.expires
		}
	}
	delete(c.entries, victim)
}

// resultsHash returns a deterministic hash for a widget's cached rows.
func resultsHash(rows []map[string]any) string {
	if len(rows) == 0 {
		return "empty"
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "invalid"
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
