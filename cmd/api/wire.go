package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"ridewise/internal/api/handlers"
	"ridewise/internal/companion"
	"ridewise/internal/config"
	"ridewise/internal/core"
	"ridewise/internal/db"
	"ridewise/internal/external"
	"ridewise/internal/geo"
	"ridewise/internal/geocoding"
	"ridewise/internal/kvstore"
	"ridewise/internal/places"
	"ridewise/internal/scheduler"
	"ridewise/internal/tracker"
	"ridewise/internal/trips"
	"ridewise/internal/types"
	"ridewise/internal/weather"
)

// startupTimeout bounds connecting to the database, migrating and reaching
// the MQTT broker.
const startupTimeout = 30 * time.Second

// closerFunc adapts a func to io.Closer.
type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// buildServer wires every dependency and mounts the routes. Resources opened
// here are registered on srv.Closers; on error the ones already opened are
// released.
func buildServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (srv *core.Server, err error) {
	srv, err = core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	defer func() {
		if err != nil {
			_ = srv.Shutdown(context.Background())
		}
	}()

	clock := types.RealClock{}

	metrics, err := newMetrics(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	srv.Metrics = metrics
	if c, ok := metrics.(io.Closer); ok {
		srv.Closers = append(srv.Closers, c)
	}

	kv, err := kvstore.Open(cfg.Cache.Path, clock)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	srv.Closers = append(srv.Closers, kv)
	srv.HealthProbes = append(srv.HealthProbes, core.ProbeFunc{ProbeName: "cache", Fn: kv.Ping})

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	go scheduler.NewCleanupService(kv, logger).Loop(cleanupCtx, cfg.Cache.CleanupInterval)
	srv.Closers = append(srv.Closers, closerFunc(func() error {
		stopCleanup()
		return nil
	}))

	userAgent := "RideWise/" + cfg.Build.Version
	newBase := func(provider string, code types.ErrorCode, timeout time.Duration, ua string) *external.BaseClient {
		return external.NewBaseClient(external.ClientConfig{
			Provider:        provider,
			UnavailableCode: code,
			Timeout:         timeout,
			UserAgent:       ua,
			Retry:           external.DefaultRetryPolicy(),
		}, external.WithFailureHook(metrics.RecordUpstreamFailure))
	}

	weatherClient := weather.NewClient(
		newBase(weather.ProviderName, types.ErrCodeUpstreamWeather, cfg.Weather.Timeout, userAgent),
		weather.Config{BaseURL: cfg.Weather.BaseURL, ForecastDays: cfg.Weather.ForecastDays},
		clock,
	)

	placesClient := places.NewClient(
		newBase(places.ProviderName, types.ErrCodeUpstreamPlaces, cfg.Places.Timeout, userAgent),
		cfg.Places.BaseURL,
		cfg.Places.APIKey,
	)
	placesSvc := places.NewService(placesClient, kv, cfg.Cache.PlacesTTL, cfg.Places.DefaultRadius, logger)

	geocoder := geocoding.NewCachedResolver(
		geocoding.NewClient(
			newBase(geocoding.ProviderName, types.ErrCodeUpstreamGeocoding, cfg.Geocoding.Timeout, cfg.Geocoding.UserAgent),
			cfg.Geocoding.BaseURL,
		),
		kv, cfg.Cache.GeocodeTTL, logger,
	)

	maps := geo.MapURLBuilder{
		StaticMapKey:      cfg.Maps.StaticMapKey,
		StaticMapEndpoint: cfg.Maps.StaticMapEndpoint,
		TileTemplate:      cfg.Maps.TileTemplate,
	}

	deps := companion.Deps{
		Weather:  weatherClient,
		Places:   placesSvc,
		Geocoder: geocoder,
		Maps:     maps,
		Scores:   metrics,
		Logger:   logger,
	}

	var tripsSvc *trips.Service
	if cfg.TripsEnabled() {
		tripsSvc, err = newTrips(ctx, srv, cfg, clock, logger)
		if err != nil {
			return nil, err
		}
		deps.Routes = tripsSvc
	}
	companionSvc := companion.NewService(deps)

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		handlers.NewConditionsHandler(companionSvc, weatherClient, metrics, logger).RegisterRoutes,
		handlers.NewGeoHandler(geocoder, maps, logger).RegisterRoutes,
		handlers.NewPlacesHandler(placesSvc, logger).RegisterRoutes,
		handlers.NewCompanionHandler(companionSvc, logger).RegisterRoutes,
	)
	if tripsSvc != nil {
		srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
			handlers.NewTripsHandler(tripsSvc, companionSvc, srv.Validator, logger).RegisterRoutes)
	}

	if cfg.TrackerEnabled() {
		t := tracker.New(cfg.MQTT.TopicPrefix, clock, logger)
		if err := t.Connect(ctx, cfg.MQTT); err != nil {
			// The API stays useful without live position; /v1/position
			// answers 404 until the broker is reachable.
			logger.Warn("tracker unavailable", "error", err)
		}
		srv.Closers = append(srv.Closers, t)
		srv.HealthProbes = append(srv.HealthProbes, core.ProbeFunc{ProbeName: "tracker", Fn: t.Ping})
		srv.V1RouteRegistrars = append(srv.V1RouteRegistrars, handlers.NewPositionHandler(t).RegisterRoutes)
	}

	srv.MountRoutes()
	return srv, nil
}

// newTrips opens the pool, applies migrations and builds the trips service.
func newTrips(ctx context.Context, srv *core.Server, cfg *config.Config, clock types.Clock, logger *slog.Logger) (*trips.Service, error) {
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	srv.Closers = append(srv.Closers, closerFunc(func() error {
		pool.Close()
		return nil
	}))
	srv.HealthProbes = append(srv.HealthProbes, core.ProbeFunc{ProbeName: "database", Fn: pool.Ping})

	if err := db.Migrate(ctx, pool); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return trips.NewService(db.NewWaypointRepository(pool), db.NewRouteRepository(pool), clock, logger), nil
}

// newMetrics returns the CloudWatch collector when enabled, NoopMetrics
// otherwise.
func newMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (core.MetricsCollector, error) {
	if !cfg.Observability.MetricsEnabled {
		return core.NoopMetrics{}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Observability.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return core.NewCloudWatchMetrics(cloudwatch.NewFromConfig(awsCfg), cfg.Observability.MetricNamespace, logger), nil
}
