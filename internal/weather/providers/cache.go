package providers

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/i474232898/wind-power-dashboard/internal/weather"
)

type cacheEntry struct {
	obs       weather.Observation
	fetchedAt time.Time
}

// CachedProvider decorates a Provider and serves the last successful
// observation per location until it is older than ttl. Errors are not cached.
type CachedProvider struct {
	next weather.Provider
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewCachedProvider(next weather.Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *CachedProvider) Name() string {
	return c.next.Name()
}

func (c *CachedProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Observation, error) {
	key := loc.Key()

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		log.Printf("DEBUG: using cached %s observation for %s (fetched %s)", c.next.Name(), key, entry.fetchedAt.Format(time.RFC3339))
		return entry.obs, nil
	}

	// Entries age from the start of the upstream request.
	started := c.now()
	obs, err := c.next.Fetch(ctx, loc)
	if err != nil {
		return weather.Observation{}, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{obs: obs, fetchedAt: started}
	c.mu.Unlock()

	return obs, nil
}
