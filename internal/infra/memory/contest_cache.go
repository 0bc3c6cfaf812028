package memory

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"contest-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ContestLoader fetches a contest document from a backing store.
type ContestLoader interface {
	Load(ctx context.Context, name string) (*domain.Contest, error)
}

// ContestCache is a read-through TTL cache in front of a ContestLoader,
// serving the display paths (listings, rankings pages) where brief
// staleness is acceptable. Writers call Invalidate after saving.
type ContestCache struct {
	loader ContestLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedContest
}

type cachedContest struct {
	contest   *domain.Contest
	expiresAt time.Time
}

func NewContestCache(loader ContestLoader, ttl time.Duration) *ContestCache {
	return &ContestCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedContest),
	}
}

func (c *ContestCache) Load(ctx context.Context, name string) (*domain.Contest, error) {
	key := strings.ToLower(name)
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.contest.Clone(), nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.contest, nil
		}
		c.mu.RUnlock()

		contest, err := c.loader.Load(ctx, name)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[key] = cachedContest{
			contest:   contest,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return contest, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Contest).Clone(), nil
}

// Invalidate drops a cached contest after a write so in-process readers see
// their own writes.
func (c *ContestCache) Invalidate(name string) {
	c.mu.Lock()
	delete(c.cache, strings.ToLower(name))
	c.mu.Unlock()
}

func (c *ContestCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
