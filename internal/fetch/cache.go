package fetch

import (
	"sync"
	"time"
)

const (
	DefaultCacheTTL        = time.Hour
	DefaultCacheMaxEntries = 512
)

// PageCache holds extracted page text keyed by URL with a TTL.
// It is safe for concurrent use by batch workers.
type PageCache struct {
	mu         sync.Mutex
	pages      map[string]string    // url → page text
	cachedAt   map[string]time.Time // url → cache time
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewPageCache creates a page cache. Non-positive arguments fall back to
// the defaults.
func NewPageCache(ttl time.Duration, maxEntries int) *PageCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	return &PageCache{
		pages:      make(map[string]string),
		cachedAt:   make(map[string]time.Time),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get retrieves page text if present and not expired.
func (c *PageCache) Get(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	text, exists := c.pages[url]
	if !exists {
		return "", false
	}

	cachedTime, hasTime := c.cachedAt[url]
	if !hasTime || c.now().Sub(cachedTime) > c.ttl {
		delete(c.pages, url)
		delete(c.cachedAt, url)
		return "", false
	}

	return text, true
}

// Set stores page text. When the cache is full, expired entries are dropped
// first and the oldest entry only if none had expired.
func (c *PageCache) Set(url, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.pages[url]; !exists && len(c.pages) >= c.maxEntries {
		if c.removeExpired() == 0 {
			c.evictOldest()
		}
	}
	c.pages[url] = text
	c.cachedAt[url] = c.now()
}

func (c *PageCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, t := range c.cachedAt {
		if oldestKey == "" || t.Before(oldest) {
			oldestKey, oldest = key, t
		}
	}
	if oldestKey != "" {
		delete(c.pages, oldestKey)
		delete(c.cachedAt, oldestKey)
	}
}

// CleanExpired removes expired entries and returns how many were removed.
func (c *PageCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeExpired()
}

func (c *PageCache) removeExpired() int {
	removed := 0
	now := c.now()
	for key, cachedTime := range c.cachedAt {
		if now.Sub(cachedTime) > c.ttl {
			delete(c.pages, key)
			delete(c.cachedAt, key)
			removed++
		}
	}
	return removed
}

// Size returns the number of cached entries.
func (c *PageCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}
