package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ridewise/internal/core"
	"ridewise/internal/places"
	"ridewise/internal/types"
)

// PlaceService finds points of interest.
type PlaceService interface {
	Nearby(ctx context.Context, q places.NearbyQuery) ([]types.Place, error)
	Details(ctx context.Context, placeID string) (*types.Place, error)
}

// PlacesHandler serves the /places endpoints.
type PlacesHandler struct {
	service PlaceService
	logger  *slog.Logger
}

// NewPlacesHandler creates a PlacesHandler.
func NewPlacesHandler(svc PlaceService, logger *slog.Logger) *PlacesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlacesHandler{service: svc, logger: logger}
}

// RegisterRoutes mounts the /places endpoints.
func (h *PlacesHandler) RegisterRoutes(r chi.Router) {
	r.Route("/places", func(r chi.Router) {
		r.Get("/nearby", h.HandleNearby)
		r.Get("/{id}", h.HandleDetails)
	})
}

// HandleNearby handles GET /v1/places/nearby?lat=&lon=&category=[&radius=&keyword=].
// Results are sorted nearest first.
func (h *PlacesHandler) HandleNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, lon, err := parsePoint(q, "")
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if q.Get("category") == "" {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField, "category query parameter is required", nil))
		return
	}
	category, err := types.ParsePlaceCategory(q.Get("category"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	radius, err := parseIntParam(q, "radius", 0, types.ErrCodeValidationInvalidRadius)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	found, err := h.service.Nearby(r.Context(), places.NearbyQuery{
		Location:     types.Location{Lat: lat, Lon: lon},
		Category:     category,
		RadiusMeters: radius,
		Keyword:      q.Get("keyword"),
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if found == nil {
		found = []types.Place{}
	}
	count := len(found)
	core.DataWithMeta(w, r, http.StatusOK, found, &core.ResponseMeta{Count: &count})
}

// HandleDetails handles GET /v1/places/{id}.
func (h *PlacesHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	place, err := h.service.Details(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusOK, place)
}
