package llm

import (
	"sync"
	"time"

	"github.com/Squareczm/DocumentationTool/internal/model"
)

// cacheEntry represents a cached labeler hint.
type cacheEntry struct {
	expiry time.Time
	hint   model.LabelerHint
}

// hintCache provides thread-safe caching for labeler hints keyed by content digest.
type hintCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	done    chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
	once    sync.Once
}

// newHintCache creates a new cache with the specified TTL.
func newHintCache(ttl time.Duration) *hintCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	cache := &hintCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go cache.cleanup(cleanupInterval(ttl))
	return cache
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl < 5*time.Minute {
		return ttl
	}
	return 5 * time.Minute
}

// get retrieves a hint from the cache if it exists and hasn't expired.
func (c *hintCache) get(key string) (model.LabelerHint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiry) {
		return model.LabelerHint{}, false
	}
	return entry.hint, true
}

// set stores a hint in the cache.
func (c *hintCache) set(key string, hint model.LabelerHint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		hint:   hint,
		expiry: time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *hintCache) cleanup(every time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// size returns the number of entries in the cache.
func (c *hintCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine and waits for it to exit.
func (c *hintCache) Close() {
	c.once.Do(func() { close(c.stopCh) })
	<-c.done
}
