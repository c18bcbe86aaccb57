// Package trips manages saved waypoints and the routes built from them.
package trips

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"ridewise/internal/geo"
	"ridewise/internal/types"
)

const (
	waypointIDPrefix = "wp_"
	routeIDPrefix    = "rt_"
)

// WaypointStore is implemented by db.WaypointRepository.
type WaypointStore interface {
	Create(ctx context.Context, wp *types.Waypoint) error
	GetByID(ctx context.Context, id string) (*types.Waypoint, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*types.Waypoint, error)
	List(ctx context.Context, limit int) ([]*types.Waypoint, error)
	Update(ctx context.Context, wp *types.Waypoint) error
	Delete(ctx context.Context, id string) error
}

// RouteStore is implemented by db.RouteRepository.
type RouteStore interface {
	Create(ctx context.Context, rt *types.Route) error
	GetByID(ctx context.Context, id string) (*types.Route, error)
	List(ctx context.Context, limit int) ([]*types.Route, error)
	Update(ctx context.Context, rt *types.Route) error
	Delete(ctx context.Context, id string) error
	CountReferencing(ctx context.Context, waypointID string) (int, error)
}

// WaypointInput carries the user-editable waypoint fields.
type WaypointInput struct {
	Name     string
	Location types.Location
	Notes    string
}

// RouteInput carries the user-editable route fields.
type RouteInput struct {
	Name        string
	WaypointIDs []string
}

// Service validates input, assigns IDs and hydrates routes.
type Service struct {
	waypoints WaypointStore
	routes    RouteStore
	clock     types.Clock
	logger    *slog.Logger
}

// NewService builds a Service. A nil clock uses the system clock.
func NewService(waypoints WaypointStore, routes RouteStore, clock types.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Service{waypoints: waypoints, routes: routes, clock: clock, logger: logger}
}

// CreateWaypoint validates and stores a new waypoint.
func (s *Service) CreateWaypoint(ctx context.Context, in WaypointInput) (*types.Waypoint, error) {
	if err := validateWaypoint(&in); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	wp := &types.Waypoint{
		ID:        waypointIDPrefix + uuid.NewString(),
		Name:      in.Name,
		Location:  in.Location,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.waypoints.Create(ctx, wp); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "waypoint created", "waypoint_id", wp.ID)
	return wp, nil
}

// GetWaypoint returns a waypoint by ID.
func (s *Service) GetWaypoint(ctx context.Context, id string) (*types.Waypoint, error) {
	return s.waypoints.GetByID(ctx, id)
}

// ListWaypoints returns waypoints newest first.
func (s *Service) ListWaypoints(ctx context.Context, limit int) ([]*types.Waypoint, error) {
	return s.waypoints.List(ctx, limit)
}

// UpdateWaypoint replaces the editable fields of an existing waypoint.
func (s *Service) UpdateWaypoint(ctx context.Context, id string, in WaypointInput) (*types.Waypoint, error) {
	if err := validateWaypoint(&in); err != nil {
		return nil, err
	}

	wp, err := s.waypoints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	wp.Name = in.Name
	wp.Location = in.Location
	wp.Notes = in.Notes
	wp.UpdatedAt = s.clock.Now()

	if err := s.waypoints.Update(ctx, wp); err != nil {
		return nil, err
	}
	return wp, nil
}

// DeleteWaypoint removes a waypoint that no route references.
func (s *Service) DeleteWaypoint(ctx context.Context, id string) error {
	n, err := s.routes.CountReferencing(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return types.NewAppErrorWithDetails(
			types.ErrCodeConflictWaypointInUse,
			fmt.Sprintf("waypoint is used by %d route(s)", n),
			nil,
			map[string]any{"routes": n},
		)
	}
	if err := s.waypoints.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "waypoint deleted", "waypoint_id", id)
	return nil
}

// CreateRoute validates that every stop exists and stores the route. The
// returned route is hydrated.
func (s *Service) CreateRoute(ctx context.Context, in RouteInput) (*types.Route, error) {
	stops, err := s.validateRoute(ctx, &in)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	rt := &types.Route{
		ID:          routeIDPrefix + uuid.NewString(),
		Name:        in.Name,
		WaypointIDs: in.WaypointIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.routes.Create(ctx, rt); err != nil {
		return nil, err
	}
	hydrate(rt, stops)
	s.logger.InfoContext(ctx, "route created", "route_id", rt.ID, "stops", len(rt.WaypointIDs))
	return rt, nil
}

// GetRoute returns a hydrated route.
func (s *Service) GetRoute(ctx context.Context, id string) (*types.Route, error) {
	rt, err := s.routes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	stops, err := s.waypoints.GetByIDs(ctx, rt.WaypointIDs)
	if err != nil {
		return nil, err
	}
	hydrate(rt, stops)
	return rt, nil
}

// ListRoutes returns hydrated routes newest first, loading every referenced
// waypoint in one query.
func (s *Service) ListRoutes(ctx context.Context, limit int) ([]*types.Route, error) {
	routes, err := s.routes.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, rt := range routes {
		for _, id := range rt.WaypointIDs {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	stops, err := s.waypoints.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, rt := range routes {
		hydrate(rt, stops)
	}
	return routes, nil
}

// UpdateRoute replaces the name and stop list of a route.
func (s *Service) UpdateRoute(ctx context.Context, id string, in RouteInput) (*types.Route, error) {
	stops, err := s.validateRoute(ctx, &in)
	if err != nil {
		return nil, err
	}

	rt, err := s.routes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rt.Name = in.Name
	rt.WaypointIDs = in.WaypointIDs
	rt.UpdatedAt = s.clock.Now()

	if err := s.routes.Update(ctx, rt); err != nil {
		return nil, err
	}
	hydrate(rt, stops)
	return rt, nil
}

// DeleteRoute removes a route. Its waypoints are kept.
func (s *Service) DeleteRoute(ctx context.Context, id string) error {
	if err := s.routes.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "route deleted", "route_id", id)
	return nil
}

func validateWaypoint(in *WaypointInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Notes = strings.TrimSpace(in.Notes)
	if err := types.ValidateName(in.Name); err != nil {
		return err
	}
	if err := types.ValidateCoordinates(in.Location.Lat, in.Location.Lon); err != nil {
		return err
	}
	if utf8.RuneCountInString(in.Notes) > types.MaxNotesLength {
		return types.NewAppErrorWithDetails(
			types.ErrCodeValidationFailed,
			fmt.Sprintf("notes must be at most %d characters", types.MaxNotesLength),
			nil,
			map[string]any{"field": "notes"},
		)
	}
	return nil
}

// validateRoute checks the name and stop count and that every stop exists.
// It returns the loaded stops for hydration.
func (s *Service) validateRoute(ctx context.Context, in *RouteInput) (map[string]*types.Waypoint, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := types.ValidateName(in.Name); err != nil {
		return nil, err
	}
	if len(in.WaypointIDs) == 0 || len(in.WaypointIDs) > types.MaxRouteStops {
		return nil, types.NewAppError(
			types.ErrCodeValidationInvalidWaypoints,
			fmt.Sprintf("a route needs between 1 and %d waypoints", types.MaxRouteStops),
			nil,
		)
	}

	stops, err := s.waypoints.GetByIDs(ctx, in.WaypointIDs)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, id := range in.WaypointIDs {
		if _, ok := stops[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidWaypoints,
			"route references unknown waypoints",
			nil,
			map[string]any{"missing": missing},
		)
	}
	return stops, nil
}

// hydrate fills the derived route fields. A stop listed twice (a loop)
// appears twice; a stop that has since disappeared is skipped.
func hydrate(rt *types.Route, stops map[string]*types.Waypoint) {
	rt.Waypoints = make([]*types.Waypoint, 0, len(rt.WaypointIDs))
	points := make([]types.Location, 0, len(rt.WaypointIDs))
	for _, id := range rt.WaypointIDs {
		wp, ok := stops[id]
		if !ok {
			continue
		}
		rt.Waypoints = append(rt.Waypoints, wp)
		points = append(points, wp.Location)
	}
	rt.DistanceMeters = geo.PathLength(points)
	rt.DistanceLabel = geo.FormatDistance(&rt.DistanceMeters)
}
