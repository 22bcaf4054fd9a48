package cache

import (
	"context"
	"time"

	"github.com/lessonpay/lessonpay/internal/config"
	"github.com/lessonpay/lessonpay/internal/logger"
	goCache "github.com/patrickmn/go-cache"
)

// DefaultExpiration is the default expiration time for cache entries
const DefaultExpiration = 24 * time.Hour

// DefaultCleanupInterval is how often expired items are removed from the cache
const DefaultCleanupInterval = 1 * time.Hour

// InMemoryCache implements the Cache interface using github.com/patrickmn/go-cache.
// It is local to one process; anything that must hold across replicas is
// checked against the gateway as well.
type InMemoryCache struct {
	cache   *goCache.Cache
	enabled bool
}

// NewInMemoryCache creates the process cache
func NewInMemoryCache(cfg *config.Configuration, log *logger.Logger) Cache {
	log.Infow("initializing cache", "enabled", cfg.Cache.Enabled)
	return &InMemoryCache{
		cache:   goCache.New(DefaultExpiration, DefaultCleanupInterval),
		enabled: cfg.Cache.Enabled,
	}
}

// Get retrieves a value from the cache
func (c *InMemoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	if !c.enabled {
		return nil, false
	}
	span := StartCacheSpan(ctx, "inmemory", "get", map[string]interface{}{"key": key})
	defer FinishSpan(span)

	v, ok := c.cache.Get(key)
	SetSpanSuccess(span)
	return v, ok
}

// Set adds a value to the cache with the specified expiration
func (c *InMemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	if !c.enabled {
		return
	}
	span := StartCacheSpan(ctx, "inmemory", "set", map[string]interface{}{"key": key})
	defer FinishSpan(span)

	c.cache.Set(key, value, expirationOrDefault(expiration))
	SetSpanSuccess(span)
}

// Add stores the value only if the key is absent or expired
func (c *InMemoryCache) Add(ctx context.Context, key string, value interface{}, expiration time.Duration) bool {
	if !c.enabled {
		return true
	}
	span := StartCacheSpan(ctx, "inmemory", "add", map[string]interface{}{"key": key})
	defer FinishSpan(span)

	if err := c.cache.Add(key, value, expirationOrDefault(expiration)); err != nil {
		SetSpanError(span, err)
		return false
	}
	SetSpanSuccess(span)
	return true
}

// Delete removes a key from the cache
func (c *InMemoryCache) Delete(_ context.Context, key string) {
	if !c.enabled {
		return
	}
	c.cache.Delete(key)
}

// Flush removes all items from the cache
func (c *InMemoryCache) Flush(_ context.Context) {
	c.cache.Flush()
}

func expirationOrDefault(expiration time.Duration) time.Duration {
	if expiration <= 0 {
		return goCache.DefaultExpiration
	}
	return expiration
}
