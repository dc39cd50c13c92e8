// Package nlp analyzes page text: four AI-backed tasks fanned out in
// parallel plus local keyword and readability computation, behind a bounded
// TTL cache keyed by content fingerprint.
package nlp

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/webpulse/webpulse/internal/domain"
)

const (
	fingerprintLen  = 200
	DefaultCacheTTL = time.Hour
	DefaultCacheMax = 50
)

// Fingerprint normalizes text into a cache key: whitespace collapsed to
// single spaces, truncated to the first 200 characters.
func Fingerprint(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if len(collapsed) > fingerprintLen {
		collapsed = collapsed[:fingerprintLen]
	}
	return collapsed
}

type cacheEntry struct {
	result     *domain.NLPResult
	insertedAt time.Time
}

// Cache is a bounded TTL cache for NLP results. Expiry is checked on read;
// the size bound is enforced on write by evicting oldest entries first.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	max     int
	now     func() time.Time
}

// NewCache creates a cache, substituting defaults for zero ttl or max.
func NewCache(ttl time.Duration, max int) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if max <= 0 {
		max = DefaultCacheMax
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		max:     max,
		now:     time.Now,
	}
}

// Get returns the cached result for key if present and inside the TTL.
func (c *Cache) Get(key string) (*domain.NLPResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.insertedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.result, true
}

// Set stores a result, then prunes oldest-first until the cache is back at
// its bound.
func (c *Cache) Set(key string, result *domain.NLPResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{result: result, insertedAt: c.now()}
	if len(c.entries) <= c.max {
		return
	}

	type aged struct {
		key string
		at  time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{key: k, at: e.insertedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].at.Before(all[j].at) })
	for _, a := range all[:len(all)-c.max] {
		delete(c.entries, a.key)
	}
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
