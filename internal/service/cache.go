package service

import (
	"slices"
	"sync"
	"time"

	"github.com/sakif/food-diary/internal/model"
)

// searchCache holds search results for a fixed TTL.
//
// Entries are only dropped lazily (on a miss past expiry) or all at once by
// clear. The key space is small in practice: one entry per distinct query
// and limit a user has typed in the last TTL window.
type searchCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	foods   []model.Food
	expires time.Time
}

func newSearchCache(ttl time.Duration) *searchCache {
	return &searchCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// get returns a copy of the cached results so callers cannot mutate the entry.
func (c *searchCache) get(key string) ([]model.Food, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return slices.Clone(e.foods), true
}

func (c *searchCache) put(key string, foods []model.Food) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		foods:   slices.Clone(foods),
		expires: c.now().Add(c.ttl),
	}
}

func (c *searchCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}
