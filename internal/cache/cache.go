package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/hmm29/conversational-emotion-ai/domain/entities"
)

const (
	// DefaultMaxSize bounds the number of cached analyses.
	DefaultMaxSize = 1000
	// DefaultTTL expires entries after an hour.
	DefaultTTL = time.Hour
)

type item struct {
	result   entities.EmotionResult
	lastUsed time.Time
}

// AnalysisCache is a process-scoped cache of emotion analyses keyed by
// a normalized request fingerprint. Entries expire after a TTL and the
// least recently used entry is evicted when the cache is full.
type AnalysisCache struct {
	mu      sync.Mutex
	items   map[string]*item
	maxSize int
	ttl     time.Duration

	hits   uint64
	misses uint64
}

// Stats are the aggregated counters of a cache since process start.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Size   int    `json:"size"`
}

// New creates an analysis cache. Non-positive arguments fall back to
// the defaults.
func New(maxSize int, ttl time.Duration) *AnalysisCache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &AnalysisCache{
		items:   make(map[string]*item),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Fingerprint derives the cache key for a piece of input text combined
// with the configuration revision it was analyzed under. Text is
// lowercased and whitespace-collapsed so trivially different inputs
// share an entry.
func Fingerprint(text, configRevision string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(configRevision + "\x00" + normalized))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result for key, if present and fresh.
func (c *AnalysisCache) Get(key string) (entities.EmotionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok {
		c.misses++
		return entities.EmotionResult{}, false
	}
	if time.Since(it.lastUsed) > c.ttl {
		delete(c.items, key)
		c.misses++
		return entities.EmotionResult{}, false
	}

	it.lastUsed = time.Now()
	c.hits++
	return it.result, true
}

// Set stores a result, evicting expired entries and then the least
// recently used entry if the cache is still full.
func (c *AnalysisCache) Set(key string, result entities.EmotionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, it := range c.items {
		if now.Sub(it.lastUsed) > c.ttl {
			delete(c.items, k)
		}
	}

	if len(c.items) >= c.maxSize {
		var oldestKey string
		var oldest time.Time
		for k, it := range c.items {
			if oldestKey == "" || it.lastUsed.Before(oldest) {
				oldestKey = k
				oldest = it.lastUsed
			}
		}
		delete(c.items, oldestKey)
	}

	c.items[key] = &item{result: result, lastUsed: now}
}

// Clear drops all entries. Called when configuration changes would
// invalidate cached analyses.
func (c *AnalysisCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*item)
}

// Len returns the number of live entries.
func (c *AnalysisCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns the hit and miss totals since process start along with
// the current entry count.
func (c *AnalysisCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Size: len(c.items)}
}
