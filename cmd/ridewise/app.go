package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"ridewise/internal/config"
	"ridewise/internal/db"
	"ridewise/internal/external"
	"ridewise/internal/kvstore"
	"ridewise/internal/trips"
	"ridewise/internal/types"
	"ridewise/internal/weather"
)

// weatherSource fetches the current reading for a point.
type weatherSource interface {
	GetReading(ctx context.Context, lat, lon float64) (*types.WeatherReading, error)
}

// tripStore is the subset of trips.Service the CLI drives.
type tripStore interface {
	CreateWaypoint(ctx context.Context, in trips.WaypointInput) (*types.Waypoint, error)
	ListWaypoints(ctx context.Context, limit int) ([]*types.Waypoint, error)
	DeleteWaypoint(ctx context.Context, id string) error
	CreateRoute(ctx context.Context, in trips.RouteInput) (*types.Route, error)
	GetRoute(ctx context.Context, id string) (*types.Route, error)
	ListRoutes(ctx context.Context, limit int) ([]*types.Route, error)
}

// cacheStore is the local cache as seen by the purge command.
type cacheStore interface {
	Purge(ctx context.Context) (int64, error)
	Close() error
}

var errTripsDisabled = errors.New("DATABASE_URL is not set; waypoint and route commands need the trip database")

// app carries the lazily built dependencies shared by the commands. The
// open* funcs are replaced in tests.
type app struct {
	logger     *slog.Logger
	loadConfig func() (*config.Config, error)
	cfg        *config.Config

	openWeather func(ctx context.Context) (weatherSource, error)
	openTrips   func(ctx context.Context) (tripStore, func(), error)
	openCache   func(ctx context.Context) (cacheStore, error)
}

func newApp(loadConfig func() (*config.Config, error), logger *slog.Logger) *app {
	a := &app{logger: logger, loadConfig: loadConfig}
	a.openWeather = a.defaultWeather
	a.openTrips = a.defaultTrips
	a.openCache = a.defaultCache
	return a
}

// config loads the configuration on first use.
func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	a.cfg = cfg
	return cfg, nil
}

func (a *app) defaultWeather(_ context.Context) (weatherSource, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	base := external.NewBaseClient(external.ClientConfig{
		Provider:        weather.ProviderName,
		UnavailableCode: types.ErrCodeUpstreamWeather,
		Timeout:         cfg.Weather.Timeout,
		UserAgent:       "ridewise-cli/" + cfg.Build.Version,
		Retry:           external.DefaultRetryPolicy(),
	})
	return weather.NewClient(base, weather.Config{
		BaseURL:      cfg.Weather.BaseURL,
		ForecastDays: cfg.Weather.ForecastDays,
	}, types.RealClock{}), nil
}

func (a *app) defaultTrips(ctx context.Context) (tripStore, func(), error) {
	cfg, err := a.config()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.TripsEnabled() {
		return nil, nil, errTripsDisabled
	}
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrating database: %w", err)
	}
	svc := trips.NewService(db.NewWaypointRepository(pool), db.NewRouteRepository(pool), types.RealClock{}, a.logger)
	return svc, pool.Close, nil
}

func (a *app) defaultCache(_ context.Context) (cacheStore, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	return kvstore.Open(cfg.Cache.Path, types.RealClock{})
}

// withTrips opens the trip store for the duration of fn.
func (a *app) withTrips(cmd *cobra.Command, fn func(tripStore) error) error {
	store, closeFn, err := a.openTrips(cmd.Context())
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	return fn(store)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "ridewise",
		Short: "RideWise - riding conditions and trip planning for motorcyclists",
		Long: `RideWise scores weather for riding, measures distances, addresses map
tiles and manages saved waypoints and routes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newScoreCmd(),
		newCodeCmd(),
		newDistanceCmd(),
		newTileCmd(),
		newConditionsCmd(a),
		newWaypointCmd(a),
		newRouteCmd(a),
		newCacheCmd(a),
	)
	return root
}
