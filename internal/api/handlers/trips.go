package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ridewise/internal/companion"
	"ridewise/internal/core"
	"ridewise/internal/trips"
	"ridewise/internal/types"
)

// TripsService manages saved waypoints and routes.
type TripsService interface {
	CreateWaypoint(ctx context.Context, in trips.WaypointInput) (*types.Waypoint, error)
	GetWaypoint(ctx context.Context, id string) (*types.Waypoint, error)
	ListWaypoints(ctx context.Context, limit int) ([]*types.Waypoint, error)
	UpdateWaypoint(ctx context.Context, id string, in trips.WaypointInput) (*types.Waypoint, error)
	DeleteWaypoint(ctx context.Context, id string) error

	CreateRoute(ctx context.Context, in trips.RouteInput) (*types.Route, error)
	GetRoute(ctx context.Context, id string) (*types.Route, error)
	ListRoutes(ctx context.Context, limit int) ([]*types.Route, error)
	UpdateRoute(ctx context.Context, id string, in trips.RouteInput) (*types.Route, error)
	DeleteRoute(ctx context.Context, id string) error
}

// RouteReporter scores the weather along a saved route.
type RouteReporter interface {
	RouteConditions(ctx context.Context, routeID string) (*companion.RouteReport, error)
}

// WaypointRequest is the body of waypoint create and replace calls.
type WaypointRequest struct {
	Name     string         `json:"name" validate:"required,max=200"`
	Location types.Location `json:"location"`
	Notes    string         `json:"notes,omitempty" validate:"max=2000"`
}

// RouteRequest is the body of route create and replace calls.
type RouteRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	WaypointIDs []string `json:"waypoint_ids" validate:"required,min=1,max=50,dive,required"`
}

// TripsHandler serves the waypoint and route endpoints.
type TripsHandler struct {
	service   TripsService
	reporter  RouteReporter
	validator *core.Validator
	logger    *slog.Logger
}

// NewTripsHandler creates a TripsHandler. reporter may be nil, in which case
// the route conditions endpoint is not mounted.
func NewTripsHandler(svc TripsService, reporter RouteReporter, v *core.Validator, logger *slog.Logger) *TripsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TripsHandler{service: svc, reporter: reporter, validator: v, logger: logger}
}

// RegisterRoutes mounts /waypoints and /routes.
func (h *TripsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/waypoints", func(r chi.Router) {
		r.Post("/", h.CreateWaypoint)
		r.Get("/", h.ListWaypoints)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetWaypoint)
			r.Put("/", h.UpdateWaypoint)
			r.Delete("/", h.DeleteWaypoint)
		})
	})
	r.Route("/routes", func(r chi.Router) {
		r.Post("/", h.CreateRoute)
		r.Get("/", h.ListRoutes)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetRoute)
			r.Put("/", h.UpdateRoute)
			r.Delete("/", h.DeleteRoute)
			if h.reporter != nil {
				r.Get("/conditions", h.GetRouteConditions)
			}
		})
	})
}

// --- Waypoints ---

// CreateWaypoint handles POST /v1/waypoints.
func (h *TripsHandler) CreateWaypoint(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeWaypoint(w, r)
	if !ok {
		return
	}
	wp, err := h.service.CreateWaypoint(r.Context(), in)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "waypoint created", "waypoint_id", wp.ID)
	core.Data(w, r, http.StatusCreated, wp)
}

// ListWaypoints handles GET /v1/waypoints[?limit=].
func (h *TripsHandler) ListWaypoints(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	list, err := h.service.ListWaypoints(r.Context(), limit)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	count := len(list)
	core.DataWithMeta(w, r, http.StatusOK, list, &core.ResponseMeta{Count: &count})
}

// GetWaypoint handles GET /v1/waypoints/{id}.
func (h *TripsHandler) GetWaypoint(w http.ResponseWriter, r *http.Request) {
	wp, err := h.service.GetWaypoint(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusOK, wp)
}

// UpdateWaypoint handles PUT /v1/waypoints/{id}. The body replaces every
// editable field.
func (h *TripsHandler) UpdateWaypoint(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeWaypoint(w, r)
	if !ok {
		return
	}
	wp, err := h.service.UpdateWaypoint(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusOK, wp)
}

// DeleteWaypoint handles DELETE /v1/waypoints/{id}. A waypoint still used by
// a route is refused with 409.
func (h *TripsHandler) DeleteWaypoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteWaypoint(r.Context(), id); err != nil {
		core.Error(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "waypoint deleted", "waypoint_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *TripsHandler) decodeWaypoint(w http.ResponseWriter, r *http.Request) (trips.WaypointInput, bool) {
	var req WaypointRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return trips.WaypointInput{}, false
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return trips.WaypointInput{}, false
	}
	return trips.WaypointInput{Name: req.Name, Location: req.Location, Notes: req.Notes}, true
}

// --- Routes ---

// CreateRoute handles POST /v1/routes.
func (h *TripsHandler) CreateRoute(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeRoute(w, r)
	if !ok {
		return
	}
	rt, err := h.service.CreateRoute(r.Context(), in)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "route created", "route_id", rt.ID, "stops", len(rt.WaypointIDs))
	core.Data(w, r, http.StatusCreated, rt)
}

// ListRoutes handles GET /v1/routes[?limit=].
func (h *TripsHandler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	list, err := h.service.ListRoutes(r.Context(), limit)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	count := len(list)
	core.DataWithMeta(w, r, http.StatusOK, list, &core.ResponseMeta{Count: &count})
}

// GetRoute handles GET /v1/routes/{id}.
func (h *TripsHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	rt, err := h.service.GetRoute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusOK, rt)
}

// UpdateRoute handles PUT /v1/routes/{id}.
func (h *TripsHandler) UpdateRoute(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeRoute(w, r)
	if !ok {
		return
	}
	rt, err := h.service.UpdateRoute(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusOK, rt)
}

// DeleteRoute handles DELETE /v1/routes/{id}.
func (h *TripsHandler) DeleteRoute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteRoute(r.Context(), id); err != nil {
		core.Error(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "route deleted", "route_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// GetRouteConditions handles GET /v1/routes/{id}/conditions. Stops whose
// weather could not be fetched are listed without conditions and named in
// meta.warnings.
func (h *TripsHandler) GetRouteConditions(w http.ResponseWriter, r *http.Request) {
	report, err := h.reporter.RouteConditions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", weatherCacheControl)
	core.DataWithMeta(w, r, http.StatusOK, report, &core.ResponseMeta{Warnings: report.Warnings})
}

func (h *TripsHandler) decodeRoute(w http.ResponseWriter, r *http.Request) (trips.RouteInput, bool) {
	var req RouteRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return trips.RouteInput{}, false
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return trips.RouteInput{}, false
	}
	return trips.RouteInput{Name: req.Name, WaypointIDs: req.WaypointIDs}, true
}
