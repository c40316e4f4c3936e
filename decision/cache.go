package decision

import (
	"sync"
	"time"

	"github.com/pthm-cable/flock/components"
)

// CacheTTL bounds external-oracle call volume: a cached decision younger
// than this is always reused, regardless of context changes.
const CacheTTL = 5000 * time.Millisecond

type cacheEntry struct {
	dec     components.Decision
	savedAt time.Time
}

// Cache holds the latest decision per agent. Entries are never deleted,
// only superseded; each entry is written solely by its own agent's
// decision flow, so a plain per-entry replace under the map lock suffices.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the agent's decision if it is younger than the TTL, marked
// as reused.
func (c *Cache) Get(agentID string) (components.Decision, bool) {
	c.mu.RLock()
	entry, ok := c.entries[agentID]
	c.mu.RUnlock()

	if !ok || c.now().Sub(entry.savedAt) >= c.ttl {
		return components.Decision{}, false
	}

	dec := entry.dec
	dec.Reused = true
	return dec, true
}

// Put stores a fresh decision for the agent.
func (c *Cache) Put(agentID string, dec components.Decision) {
	c.mu.Lock()
	c.entries[agentID] = cacheEntry{dec: dec, savedAt: c.now()}
	c.mu.Unlock()
}

// Len returns the number of entries ever cached and not superseded.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
