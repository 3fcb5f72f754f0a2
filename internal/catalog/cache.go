package catalog

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultSuggestionCacheSize bounds a SuggestionCache created without an
// explicit size.
const DefaultSuggestionCacheSize = 1024

// SuggestionCache is a TTL-based in-memory cache with stale-while-revalidate for
// backend suggestions. Only successful suggestions are ever stored.
// Uses sync.Map for lock-free reads on the hot path.
//
// The cache holds at most maxEntries queries. When a Set goes over the bound,
// expired entries are swept first and arbitrary live ones after that.
type SuggestionCache struct {
	store      sync.Map // map[string]*suggestionCacheEntry
	ttl        time.Duration
	maxEntries int
	size       atomic.Int64
	sweeping   atomic.Bool
}

type suggestionCacheEntry struct {
	suggestion Suggestion
	expiresAt  time.Time
	refreshing atomic.Bool
}

// CacheGetResult holds the result of a cache lookup.
type CacheGetResult struct {
	Suggestion   Suggestion
	Hit          bool // true if a value was found (fresh or stale)
	NeedsRefresh bool // expired; the caller should refresh in the background
}

// NewSuggestionCache creates a cache with the given TTL holding at most
// maxEntries queries. maxEntries <= 0 selects DefaultSuggestionCacheSize.
func NewSuggestionCache(ttl time.Duration, maxEntries int) *SuggestionCache {
	if maxEntries <= 0 {
		maxEntries = DefaultSuggestionCacheSize
	}
	return &SuggestionCache{ttl: ttl, maxEntries: maxEntries}
}

// Get performs a non-blocking cache lookup keyed by the exact query text.
// Returns stale entries with NeedsRefresh=true when expired.
func (c *SuggestionCache) Get(query string) CacheGetResult {
	val, ok := c.store.Load(query)
	if !ok {
		return CacheGetResult{Hit: false}
	}

	entry := val.(*suggestionCacheEntry)
	if time.Now().Before(entry.expiresAt) {
		return CacheGetResult{
			Suggestion: entry.suggestion,
			Hit:        true,
		}
	}

	// Stale hit: only one goroutine wins the CAS
	needsRefresh := entry.refreshing.CompareAndSwap(false, true)
	return CacheGetResult{
		Suggestion:   entry.suggestion,
		Hit:          true,
		NeedsRefresh: needsRefresh,
	}
}

// Set stores a suggestion with a fresh TTL.
func (c *SuggestionCache) Set(query string, s Suggestion) {
	_, replaced := c.store.Swap(query, &suggestionCacheEntry{
		suggestion: s,
		expiresAt:  time.Now().Add(c.ttl),
	})
	if !replaced && c.size.Add(1) > int64(c.maxEntries) {
		c.evict(query)
	}
}

// Delete removes an entry from the cache.
func (c *SuggestionCache) Delete(query string) {
	if _, ok := c.store.LoadAndDelete(query); ok {
		c.size.Add(-1)
	}
}

// Len reports the number of cached queries, fresh or stale.
func (c *SuggestionCache) Len() int {
	return int(c.size.Load())
}

// evict brings the cache back within maxEntries, keeping the entry just
// stored under keep. Concurrent callers skip the sweep while one runs.
func (c *SuggestionCache) evict(keep string) {
	if !c.sweeping.CompareAndSwap(false, true) {
		return
	}
	defer c.sweeping.Store(false)

	now := time.Now()
	c.store.Range(func(key, val any) bool {
		if now.After(val.(*suggestionCacheEntry).expiresAt) {
			c.Delete(key.(string))
		}
		return true
	})

	c.store.Range(func(key, _ any) bool {
		if c.size.Load() <= int64(c.maxEntries) {
			return false
		}
		if key.(string) != keep {
			c.Delete(key.(string))
		}
		return true
	})
}
