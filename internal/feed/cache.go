package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lermo/backend/internal/models"
)

// ErrDirectoryUnavailable indicates the user directory is not configured.
var ErrDirectoryUnavailable = errors.New("user directory unavailable")

type cacheEntry struct {
	user    models.User
	expires time.Time
}

// CachingDirectory wraps a UserDirectory with a TTL-based in-memory cache.
// Feed composition looks up the same owners over and over; display data is
// allowed to lag by the TTL.
type CachingDirectory struct {
	base UserDirectory
	ttl  time.Duration

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingDirectory returns a UserDirectory that caches lookups for the
// provided TTL.
func NewCachingDirectory(base UserDirectory, ttl time.Duration) *CachingDirectory {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingDirectory{
		base:  base,
		ttl:   ttl,
		items: make(map[string]cacheEntry),
	}
}

// FindByID returns the cached user when available, otherwise it delegates to
// the underlying directory and stores the result. Lookup failures are not
// cached: a missing owner is retried on the next feed request.
func (c *CachingDirectory) FindByID(ctx context.Context, userID string) (models.User, error) {
	if c == nil || c.base == nil {
		return models.User{}, ErrDirectoryUnavailable
	}

	now := time.Now()

	c.mu.RLock()
	entry, ok := c.items[userID]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.user, nil
	}

	user, err := c.base.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	c.mu.Lock()
	c.items[userID] = cacheEntry{user: user, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return user, nil
}

// Invalidate drops a user from the cache, typically after a profile update.
func (c *CachingDirectory) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.items, userID)
	c.mu.Unlock()
}
