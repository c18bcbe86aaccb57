package places

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ridewise/internal/types"
)

type mockProvider struct{ mock.Mock }

func (m *mockProvider) Nearby(ctx context.Context, q NearbyQuery) ([]types.Place, error) {
	args := m.Called(ctx, q)
	places, _ := args.Get(0).([]types.Place)
	return places, args.Error(1)
}

func (m *mockProvider) Details(ctx context.Context, id string) (*types.Place, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*types.Place)
	return p, args.Error(1)
}

// memCache is a map-backed Cache.
type memCache struct {
	data    map[string][]types.Place
	readErr error
	sets    int
}

func (c *memCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	if c.readErr != nil {
		return false, c.readErr
	}
	v, ok := c.data[key]
	if ok {
		*(dst.(*[]types.Place)) = v
	}
	return ok, nil
}

func (c *memCache) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	c.sets++
	c.data[key] = v.([]types.Place)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fuelQuery() NearbyQuery {
	return NearbyQuery{Location: duomo, Category: types.CategoryFuel, RadiusMeters: 3000}
}

func TestServiceNearbyCachesResults(t *testing.T) {
	provider := &mockProvider{}
	cache := &memCache{data: map[string][]types.Place{}}
	svc := NewService(provider, cache, time.Minute, 5000, discardLogger())

	found := WithinRadius([]types.Place{{ID: "p1", Location: types.Location{Lat: 45.465, Lon: 9.19}}}, duomo, 3000)
	provider.On("Nearby", mock.Anything, fuelQuery()).Return(found, nil).Once()

	first, err := svc.Nearby(context.Background(), fuelQuery())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, cache.sets)
	assert.Contains(t, cache.data, "places:fuel:45.464:9.190:3000")

	// A rider 20 m further north hits the same cache cell but gets fresh distances.
	moved := fuelQuery()
	moved.Location.Lat = 45.4644
	second, err := svc.Nearby(context.Background(), moved)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Less(t, *second[0].DistanceMeters, *first[0].DistanceMeters)

	provider.AssertExpectations(t)
}

func TestServiceNearbyDefaultsAndValidation(t *testing.T) {
	provider := &mockProvider{}
	svc := NewService(provider, nil, time.Minute, 0, discardLogger())
	assert.Equal(t, 5000, svc.DefaultRadius())

	q := NearbyQuery{Location: duomo, Category: types.CategoryParking}
	want := q
	want.RadiusMeters = 5000
	provider.On("Nearby", mock.Anything, want).Return([]types.Place{}, nil).Once()

	_, err := svc.Nearby(context.Background(), q)
	require.NoError(t, err)

	tests := []struct {
		name string
		q    NearbyQuery
		code types.ErrorCode
	}{
		{"bad lat", NearbyQuery{Location: types.Location{Lat: 99}, Category: types.CategoryFuel}, types.ErrCodeValidationInvalidLat},
		{"bad radius", NearbyQuery{Location: duomo, Category: types.CategoryFuel, RadiusMeters: 60000}, types.ErrCodeValidationInvalidRadius},
		{"negative radius", NearbyQuery{Location: duomo, Category: types.CategoryFuel, RadiusMeters: -1}, types.ErrCodeValidationInvalidRadius},
		{"bad category", NearbyQuery{Location: duomo, Category: "casino", RadiusMeters: 10}, types.ErrCodeValidationInvalidCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Nearby(context.Background(), tt.q)
			var appErr *types.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
	provider.AssertExpectations(t)
}

func TestServiceNearbyCacheFailureFallsThrough(t *testing.T) {
	provider := &mockProvider{}
	cache := &memCache{data: map[string][]types.Place{}, readErr: errors.New("disk I/O error")}
	svc := NewService(provider, cache, time.Minute, 5000, discardLogger())

	provider.On("Nearby", mock.Anything, fuelQuery()).Return([]types.Place{}, nil).Once()

	got, err := svc.Nearby(context.Background(), fuelQuery())
	require.NoError(t, err)
	assert.Empty(t, got)
	provider.AssertExpectations(t)
}

func TestServiceKeywordBypassesCache(t *testing.T) {
	provider := &mockProvider{}
	cache := &memCache{data: map[string][]types.Place{}}
	svc := NewService(provider, cache, time.Minute, 5000, discardLogger())

	q := fuelQuery()
	q.Keyword = "diesel"
	provider.On("Nearby", mock.Anything, q).Return([]types.Place{}, nil).Twice()

	_, _ = svc.Nearby(context.Background(), q)
	_, _ = svc.Nearby(context.Background(), q)

	assert.Zero(t, cache.sets)
	provider.AssertExpectations(t)
}

func TestServiceProviderErrorNotCached(t *testing.T) {
	provider := &mockProvider{}
	cache := &memCache{data: map[string][]types.Place{}}
	svc := NewService(provider, cache, time.Minute, 5000, discardLogger())

	upstream := types.NewAppError(types.ErrCodeUpstreamPlaces, "down", nil)
	provider.On("Nearby", mock.Anything, fuelQuery()).Return(nil, upstream).Once()

	_, err := svc.Nearby(context.Background(), fuelQuery())
	assert.ErrorIs(t, err, upstream)
	assert.Zero(t, cache.sets)
}

func TestServiceDetailsDelegates(t *testing.T) {
	provider := &mockProvider{}
	svc := NewService(provider, nil, 0, 0, discardLogger())

	provider.On("Details", mock.Anything, "abc").Return(&types.Place{ID: "abc"}, nil).Once()

	p, err := svc.Details(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", p.ID)
}

func TestCacheKey(t *testing.T) {
	q := NearbyQuery{Location: types.Location{Lat: 46.52864, Lon: 10.45312}, Category: types.CategoryHotel, RadiusMeters: 2500}
	assert.Equal(t, "places:hotel:46.529:10.453:2500", CacheKey(q))
}
