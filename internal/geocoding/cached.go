package geocoding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ridewise/internal/types"
)

// Resolver is the contract shared by Client and CachedResolver.
type Resolver interface {
	Reverse(ctx context.Context, lat, lon float64) (string, error)
	Search(ctx context.Context, query string, limit int) ([]types.Location, error)
}

// StringCache is satisfied by *kvstore.Store.
type StringCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// CachedResolver memoises reverse lookups. Nominatim allows one request per
// second, and a parked rider asks for the same name over and over. Search
// results are not cached.
type CachedResolver struct {
	next   Resolver
	cache  StringCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedResolver wraps next with a read-through cache.
func NewCachedResolver(next Resolver, cache StringCache, ttl time.Duration, logger *slog.Logger) *CachedResolver {
	return &CachedResolver{next: next, cache: cache, ttl: ttl, logger: logger}
}

// ReverseCacheKey rounds to four decimals, roughly 11m.
func ReverseCacheKey(lat, lon float64) string {
	return fmt.Sprintf("geocode:%.4f:%.4f", lat, lon)
}

// Reverse serves from cache when possible. Cache failures fall through to
// the provider.
func (c *CachedResolver) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	if err := types.ValidateCoordinates(lat, lon); err != nil {
		return "", err
	}
	key := ReverseCacheKey(lat, lon)

	name, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "geocode cache read failed", "key", key, "error", err)
	} else if ok {
		return name, nil
	}

	name, err = c.next.Reverse(ctx, lat, lon)
	if err != nil {
		return "", err
	}
	if err := c.cache.Set(ctx, key, name, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "geocode cache write failed", "key", key, "error", err)
	}
	return name, nil
}

// Search delegates to the wrapped resolver.
func (c *CachedResolver) Search(ctx context.Context, query string, limit int) ([]types.Location, error) {
	return c.next.Search(ctx, query, limit)
}
