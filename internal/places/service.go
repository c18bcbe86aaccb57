package places

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ridewise/internal/types"
)

// Provider is the upstream lookup used by Service. *Client satisfies it.
type Provider interface {
	Nearby(ctx context.Context, q NearbyQuery) ([]types.Place, error)
	Details(ctx context.Context, placeID string) (*types.Place, error)
}

// Cache is the subset of the KV store the service needs.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// Service validates queries and adds a read-through cache in front of the
// provider. Cache failures are logged and never fail a lookup.
type Service struct {
	provider      Provider
	cache         Cache
	ttl           time.Duration
	defaultRadius int
	logger        *slog.Logger
}

// NewService builds a Service. A nil cache disables caching.
func NewService(provider Provider, cache Cache, ttl time.Duration, defaultRadius int, logger *slog.Logger) *Service {
	if defaultRadius <= 0 {
		defaultRadius = 5000
	}
	return &Service{
		provider:      provider,
		cache:         cache,
		ttl:           ttl,
		defaultRadius: defaultRadius,
		logger:        logger,
	}
}

// DefaultRadius is the radius applied when a query leaves it at zero.
func (s *Service) DefaultRadius() int { return s.defaultRadius }

// Nearby validates q and returns matching places nearest first. Keyword
// searches bypass the cache.
func (s *Service) Nearby(ctx context.Context, q NearbyQuery) ([]types.Place, error) {
	if q.RadiusMeters == 0 {
		q.RadiusMeters = s.defaultRadius
	}
	if err := types.ValidateCoordinates(q.Location.Lat, q.Location.Lon); err != nil {
		return nil, err
	}
	if err := types.ValidateRadius(q.RadiusMeters); err != nil {
		return nil, err
	}
	if _, err := types.ParsePlaceCategory(string(q.Category)); err != nil {
		return nil, err
	}

	cacheable := s.cache != nil && q.Keyword == ""
	key := CacheKey(q)

	if cacheable {
		var cached []types.Place
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.WarnContext(ctx, "places cache read failed", "key", key, "error", err)
		}
		if ok {
			// Cached entries were measured from the rounded cell origin.
			return WithinRadius(cached, q.Location, q.RadiusMeters), nil
		}
	}

	found, err := s.provider.Nearby(ctx, q)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.SetJSON(ctx, key, found, s.ttl); err != nil {
			s.logger.WarnContext(ctx, "places cache write failed", "key", key, "error", err)
		}
	}
	return found, nil
}

// Details returns the enriched record for a place.
func (s *Service) Details(ctx context.Context, placeID string) (*types.Place, error) {
	return s.provider.Details(ctx, placeID)
}

// CacheKey is "places:<category>:<lat>:<lon>:<radius>" with coordinates
// rounded to three decimals (about 110 m).
func CacheKey(q NearbyQuery) string {
	return fmt.Sprintf("places:%s:%.3f:%.3f:%d", q.Category, q.Location.Lat, q.Location.Lon, q.RadiusMeters)
}
