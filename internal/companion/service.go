// Package companion joins weather, riding conditions, nearby places and the
// place name for a location into one dashboard view, and scores the weather
// along saved routes.
package companion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"ridewise/internal/conditions"
	"ridewise/internal/geo"
	"ridewise/internal/geocoding"
	"ridewise/internal/places"
	"ridewise/internal/types"
)

const (
	// RouteConcurrencyLimit bounds concurrent weather fetches per route.
	RouteConcurrencyLimit = 4

	// MaxCategories bounds the place lookups of a single snapshot.
	MaxCategories = 6

	snapshotMapZoom   = 14
	snapshotMapWidth  = 600
	snapshotMapHeight = 300
)

// DefaultCategories are looked up when a snapshot request names none.
var DefaultCategories = []types.PlaceCategory{
	types.CategoryFuel,
	types.CategoryRestaurant,
	types.CategoryHotel,
}

// WeatherSource is implemented by *weather.Client. Readings are validated
// again on receipt, so implementations need not.
type WeatherSource interface {
	GetReading(ctx context.Context, lat, lon float64) (*types.WeatherReading, error)
}

// PlaceFinder is implemented by *places.Service.
type PlaceFinder interface {
	Nearby(ctx context.Context, q places.NearbyQuery) ([]types.Place, error)
}

// Geocoder is implemented by *geocoding.Client.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}

// RouteSource is implemented by *trips.Service.
type RouteSource interface {
	GetRoute(ctx context.Context, id string) (*types.Route, error)
}

// ScoreRecorder receives every computed score. core.MetricsCollector
// satisfies it.
type ScoreRecorder interface {
	RecordRidingScore(suitability types.Suitability, score int)
}

// Snapshot is the joined view for one location. Conditions is absent when
// the weather could not be fetched.
type Snapshot struct {
	Location    types.Location                        `json:"location"`
	Weather     *types.WeatherReading                 `json:"weather,omitempty"`
	WeatherCode *types.WeatherCodeInfo                `json:"weather_code,omitempty"`
	Conditions  *types.RidingConditions               `json:"conditions,omitempty"`
	Places      map[types.PlaceCategory][]types.Place `json:"places"`
	Map         geo.MapImage                          `json:"map"`
	Warnings    []string                              `json:"-"`
}

// StopConditions is the scored weather at one route stop.
type StopConditions struct {
	Waypoint    *types.Waypoint         `json:"waypoint"`
	WeatherCode *types.WeatherCodeInfo  `json:"weather_code,omitempty"`
	Conditions  *types.RidingConditions `json:"conditions,omitempty"`
}

// RouteReport scores every stop of a route. Worst is the lowest suitability
// among stops whose weather was available.
type RouteReport struct {
	RouteID        string             `json:"route_id"`
	Name           string             `json:"name"`
	DistanceMeters float64            `json:"distance_meters"`
	DistanceLabel  string             `json:"distance_label"`
	Stops          []StopConditions   `json:"stops"`
	Worst          *types.Suitability `json:"worst_suitability,omitempty"`
	MinScore       *int               `json:"min_score,omitempty"`
	Warnings       []string           `json:"-"`
}

// Service orchestrates the providers. The scorer never sees provider errors:
// a failed fetch becomes a warning and the affected part is left out.
type Service struct {
	weather  WeatherSource
	places   PlaceFinder
	geocoder Geocoder
	routes   RouteSource
	maps     geo.MapURLBuilder
	scores   ScoreRecorder
	logger   *slog.Logger
}

// Deps groups the Service collaborators. Routes may be nil when trips are
// disabled.
type Deps struct {
	Weather  WeatherSource
	Places   PlaceFinder
	Geocoder Geocoder
	Routes   RouteSource
	Maps     geo.MapURLBuilder
	Scores   ScoreRecorder
	Logger   *slog.Logger
}

// NewService builds a Service from deps.
func NewService(deps Deps) *Service {
	return &Service{
		weather:  deps.Weather,
		places:   deps.Places,
		geocoder: deps.Geocoder,
		routes:   deps.Routes,
		maps:     deps.Maps,
		scores:   deps.Scores,
		logger:   deps.Logger,
	}
}

// Snapshot fetches weather, each place category and the place name
// concurrently and joins them. Only invalid input is an error.
func (s *Service) Snapshot(ctx context.Context, lat, lon float64, categories []types.PlaceCategory) (*Snapshot, error) {
	if err := types.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	categories, err := normalizeCategories(categories)
	if err != nil {
		return nil, err
	}

	var (
		reading    *types.WeatherReading
		weatherErr error
		name       string
		found      = make([][]types.Place, len(categories))
		placeErrs  = make([]error, len(categories))
	)

	var g errgroup.Group
	g.Go(func() error {
		reading, weatherErr = s.fetchReading(ctx, lat, lon)
		return nil
	})
	g.Go(func() error {
		var err error
		name, err = s.geocoder.Reverse(ctx, lat, lon)
		if err != nil {
			s.logger.WarnContext(ctx, "reverse geocoding failed", "error", err)
			name = geocoding.CoordinateLabel(lat, lon)
		}
		return nil
	})
	for i, c := range categories {
		g.Go(func() error {
			found[i], placeErrs[i] = s.places.Nearby(ctx, places.NearbyQuery{
				Location: types.Location{Lat: lat, Lon: lon},
				Category: c,
			})
			return nil
		})
	}
	_ = g.Wait()

	snap := &Snapshot{
		Location: types.Location{Lat: lat, Lon: lon, DisplayName: name},
		Places:   make(map[types.PlaceCategory][]types.Place, len(categories)),
		Map:      s.maps.StaticMapURL(lat, lon, snapshotMapZoom, snapshotMapWidth, snapshotMapHeight),
	}

	if weatherErr != nil {
		s.logger.WarnContext(ctx, "weather unavailable for snapshot", "error", weatherErr)
		snap.Warnings = append(snap.Warnings, "weather unavailable: "+publicMessage(weatherErr))
	} else {
		snap.Weather = reading
		snap.Conditions, snap.WeatherCode = s.score(reading)
	}

	for i, c := range categories {
		if placeErrs[i] != nil {
			s.logger.WarnContext(ctx, "places unavailable for snapshot", "category", c, "error", placeErrs[i])
			snap.Warnings = append(snap.Warnings, fmt.Sprintf("%s places unavailable: %s", c, publicMessage(placeErrs[i])))
			snap.Places[c] = []types.Place{}
			continue
		}
		if found[i] == nil {
			found[i] = []types.Place{}
		}
		snap.Places[c] = found[i]
	}

	return snap, nil
}

// Conditions fetches the weather for a coordinate and scores it.
func (s *Service) Conditions(ctx context.Context, lat, lon float64) (*types.RidingConditions, *types.WeatherReading, error) {
	reading, err := s.fetchReading(ctx, lat, lon)
	if err != nil {
		return nil, nil, err
	}
	rc, _ := s.score(reading)
	return rc, reading, nil
}

// RouteConditions scores the weather at every stop of a saved route.
func (s *Service) RouteConditions(ctx context.Context, routeID string) (*RouteReport, error) {
	if s.routes == nil {
		return nil, types.NewAppError(types.ErrCodeNotFoundRoute, "route not found", nil)
	}
	rt, err := s.routes.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	report := &RouteReport{
		RouteID:        rt.ID,
		Name:           rt.Name,
		DistanceMeters: rt.DistanceMeters,
		DistanceLabel:  rt.DistanceLabel,
		Stops:          make([]StopConditions, len(rt.Waypoints)),
	}
	errs := make([]error, len(rt.Waypoints))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(RouteConcurrencyLimit)
	for i, wp := range rt.Waypoints {
		report.Stops[i].Waypoint = wp
		g.Go(func() error {
			reading, err := s.fetchReading(gCtx, wp.Location.Lat, wp.Location.Lon)
			if err != nil {
				// Isolate the failure to this stop.
				errs[i] = err
				return nil
			}
			report.Stops[i].Conditions, report.Stops[i].WeatherCode = s.score(reading)
			return nil
		})
	}
	_ = g.Wait()

	for i, stop := range report.Stops {
		if errs[i] != nil {
			s.logger.WarnContext(ctx, "weather unavailable for route stop",
				"route_id", rt.ID, "waypoint_id", stop.Waypoint.ID, "error", errs[i])
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("weather unavailable at %s: %s", stop.Waypoint.Name, publicMessage(errs[i])))
			continue
		}
		c := stop.Conditions
		if report.Worst == nil || c.Suitability.Rank() < report.Worst.Rank() {
			worst := c.Suitability
			report.Worst = &worst
		}
		if report.MinScore == nil || c.Score < *report.MinScore {
			score := c.Score
			report.MinScore = &score
		}
	}

	return report, nil
}

// fetchReading rejects readings the scorer cannot use, whichever source
// produced them.
func (s *Service) fetchReading(ctx context.Context, lat, lon float64) (*types.WeatherReading, error) {
	reading, err := s.weather.GetReading(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	if reading == nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamInvalidFormat, "weather source returned no reading", nil)
	}
	if err := types.ValidateReading(reading); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamInvalidFormat, "weather source returned an unusable reading", err)
	}
	return reading, nil
}

func (s *Service) score(r *types.WeatherReading) (*types.RidingConditions, *types.WeatherCodeInfo) {
	rc := conditions.Score(*r)
	info := conditions.Classify(r.WeatherCode)
	if s.scores != nil {
		s.scores.RecordRidingScore(rc.Suitability, rc.Score)
	}
	return &rc, &info
}

// normalizeCategories validates, de-duplicates and defaults the list.
func normalizeCategories(in []types.PlaceCategory) ([]types.PlaceCategory, error) {
	if len(in) == 0 {
		return DefaultCategories, nil
	}
	seen := make(map[types.PlaceCategory]bool, len(in))
	out := make([]types.PlaceCategory, 0, len(in))
	for _, c := range in {
		if _, err := types.ParsePlaceCategory(string(c)); err != nil {
			return nil, err
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	if len(out) > MaxCategories {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidCategory,
			fmt.Sprintf("at most %d categories per request", MaxCategories), nil)
	}
	return out, nil
}

// publicMessage returns the client-safe part of err.
func publicMessage(err error) string {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "provider error"
}
