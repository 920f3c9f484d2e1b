package scenario

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"
	"time"

	"rent-stress/internal/config"
)

// cacheEntry is one memoized outcome
type cacheEntry struct {
	outcome   *Outcome
	expiresAt time.Time
}

// Cache memoizes outcomes for one loaded configuration. A sweep is a pure
// function of (config, request), so entries only expire to bound memory.
// A nil *Cache is valid and caches nothing.
type Cache struct {
	mu    sync.RWMutex
	store map[string]*cacheEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewCache returns a cache whose entries live for ttl. ttl <= 0 disables
// caching and returns nil.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		return nil
	}
	return &Cache{
		store: make(map[string]*cacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// maxPruneInterval bounds how long expired entries linger.
const maxPruneInterval = 5 * time.Minute

// StartCache returns a cache like NewCache plus a background janitor that
// prunes expired entries until ctx is done. Requests carry arbitrary base
// rates, so without pruning the key space is unbounded.
func StartCache(ctx context.Context, ttl time.Duration) *Cache {
	c := NewCache(ttl)
	if c != nil {
		go c.Janitor(ctx, min(ttl, maxPruneInterval))
	}
	return c
}

// Janitor prunes expired entries every interval until ctx is done.
func (c *Cache) Janitor(ctx context.Context, every time.Duration) {
	if c == nil || every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Prune()
		}
	}
}

// Get retrieves a cached outcome if available and not expired
func (c *Cache) Get(key string) (*Outcome, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.outcome, true
}

// Set stores an outcome in the cache
func (c *Cache) Set(key string, out *Outcome) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &cacheEntry{outcome: out, expiresAt: c.now().Add(c.ttl)}
}

// Prune removes expired entries and reports how many were dropped.
func (c *Cache) Prune() int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for key, entry := range c.store {
		if now.After(entry.expiresAt) {
			delete(c.store, key)
			n++
		}
	}
	return n
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Run returns the cached outcome for req, running the sweep on a miss.
// Failed sweeps are not cached.
func (c *Cache) Run(cfg *config.Config, req Request) (*Outcome, bool, error) {
	key := CacheKey(req)
	if out, ok := c.Get(key); ok {
		return out, true, nil
	}
	out, err := Run(cfg, req)
	if err != nil {
		return nil, false, err
	}
	c.Set(key, out)
	return out, false, nil
}

// CacheKey creates a cache key from request parameters
func CacheKey(req Request) string {
	rate := "default"
	if req.BaseRate != nil {
		rate = strconv.FormatFloat(*req.BaseRate, 'g', -1, 64)
	}
	keyStr := fmt.Sprintf("%s:%s", req.Preset, rate)

	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}
