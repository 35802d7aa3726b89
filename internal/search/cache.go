package search

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/Diegogigi/medconnect-evidence/internal/domain"
)

const (
	// DefaultCacheTTL is the age after which an entry is stale.
	DefaultCacheTTL = 30 * time.Minute

	// DefaultCacheCapacity bounds the number of entries; the oldest
	// entry is evicted first once the bound is exceeded.
	DefaultCacheCapacity = 100
)

// CacheKey builds the cache key for a provider/term pair. The term is
// lowercased and whitespace-normalized so equivalent queries share an
// entry.
func CacheKey(scope, term string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(term)), " ")
	sum := sha256.Sum256([]byte(scope + "\x00" + normalized))
	return hex.EncodeToString(sum[:16])
}

type cacheEntry struct {
	payload  []domain.EvidenceRecord
	storedAt time.Time
}

// Cache is a TTL-keyed, capacity-bounded store of prior query results.
// It is safe for concurrent use; Get and Put serialize on a single
// mutex, which is the only lock in the engine shared across queries.
// Entries are purged lazily on access and evicted oldest-first when the
// capacity bound is reached. Scope is a single process lifetime.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

// NewCache creates a cache with the given TTL and capacity. Zero values
// fall back to the defaults.
func NewCache(ttl time.Duration, capacity int) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		entries:  make(map[string]cacheEntry),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

// NewCacheWithClock creates a cache with an injected clock for tests
// that simulate TTL expiry.
func NewCacheWithClock(ttl time.Duration, capacity int, now func() time.Time) *Cache {
	c := NewCache(ttl, capacity)
	if now != nil {
		c.now = now
	}
	return c
}

// Get returns the cached payload for key and whether it was a fresh hit.
// Expired entries are removed on access and reported as misses.
func (c *Cache) Get(key string) ([]domain.EvidenceRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.payload, true
}

// Put stores a payload under key, evicting the oldest entry first when
// the store is at capacity.
func (c *Cache) Put(key string, payload []domain.EvidenceRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}
	c.entries[key] = cacheEntry{
		payload:  payload,
		storedAt: c.now(),
	}
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldestLocked removes the entry with the oldest storedAt. Caller
// holds the mutex.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
