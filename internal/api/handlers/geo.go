package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ridewise/internal/core"
	"ridewise/internal/geo"
	"ridewise/internal/types"
)

const (
	defaultMapZoom   = 14
	defaultMapWidth  = 600
	defaultMapHeight = 300
	maxMapDimension  = 2048
	defaultSearchMax = 5
)

// Geocoder resolves names for coordinates and coordinates for names.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (string, error)
	Search(ctx context.Context, query string, limit int) ([]types.Location, error)
}

// DistanceResponse is the body of GET /v1/geo/distance.
type DistanceResponse struct {
	From   types.Location `json:"from"`
	To     types.Location `json:"to"`
	Meters float64        `json:"meters"`
	Label  string         `json:"label"`
}

// TileResponse is the body of GET /v1/geo/tile.
type TileResponse struct {
	Tile   geo.Tile       `json:"tile"`
	URL    string         `json:"url"`
	Center types.Location `json:"center"`
}

// GeoHandler serves the distance, tile, map and geocoding endpoints.
type GeoHandler struct {
	geocoder Geocoder
	maps     geo.MapURLBuilder
	logger   *slog.Logger
}

// NewGeoHandler creates a GeoHandler.
func NewGeoHandler(geocoder Geocoder, maps geo.MapURLBuilder, logger *slog.Logger) *GeoHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeoHandler{geocoder: geocoder, maps: maps, logger: logger}
}

// RegisterRoutes mounts the /geo endpoints.
func (h *GeoHandler) RegisterRoutes(r chi.Router) {
	r.Route("/geo", func(r chi.Router) {
		r.Get("/distance", h.HandleDistance)
		r.Get("/tile", h.HandleTile)
		r.Get("/map", h.HandleMap)
		r.Get("/reverse", h.HandleReverse)
		r.Get("/search", h.HandleSearch)
	})
}

// HandleDistance handles GET /v1/geo/distance?lat1=&lon1=&lat2=&lon2=.
func (h *GeoHandler) HandleDistance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat1, lon1, err := parsePoint(q, "1")
	if err != nil {
		core.Error(w, r, err)
		return
	}
	lat2, lon2, err := parsePoint(q, "2")
	if err != nil {
		core.Error(w, r, err)
		return
	}

	meters := geo.Distance(lat1, lon1, lat2, lon2)
	core.Data(w, r, http.StatusOK, DistanceResponse{
		From:   types.Location{Lat: lat1, Lon: lon1},
		To:     types.Location{Lat: lat2, Lon: lon2},
		Meters: meters,
		Label:  geo.FormatDistance(&meters),
	})
}

// HandleTile handles GET /v1/geo/tile?lat=&lon=&zoom=.
func (h *GeoHandler) HandleTile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, lon, err := parsePoint(q, "")
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if q.Get("zoom") == "" {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField, "zoom query parameter is required", nil))
		return
	}
	zoom, err := parseIntParam(q, "zoom", 0, types.ErrCodeValidationInvalidZoom)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if err := types.ValidateZoom(zoom); err != nil {
		core.Error(w, r, err)
		return
	}

	t := geo.TileFor(lat, lon, zoom)
	core.Data(w, r, http.StatusOK, TileResponse{
		Tile:   t,
		URL:    geo.TileURL(h.maps.TileTemplate, t),
		Center: geo.TileCenter(t),
	})
}

// HandleMap handles GET /v1/geo/map?lat=&lon=[&zoom=&width=&height=].
func (h *GeoHandler) HandleMap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, lon, err := parsePoint(q, "")
	if err != nil {
		core.Error(w, r, err)
		return
	}
	zoom, err := parseIntParam(q, "zoom", defaultMapZoom, types.ErrCodeValidationInvalidZoom)
	if err == nil {
		err = types.ValidateZoom(zoom)
	}
	if err != nil {
		core.Error(w, r, err)
		return
	}
	width, err := parseIntParam(q, "width", defaultMapWidth, types.ErrCodeValidationFailed)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	height, err := parseIntParam(q, "height", defaultMapHeight, types.ErrCodeValidationFailed)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if width < 1 || width > maxMapDimension || height < 1 || height > maxMapDimension {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationFailed, "width and height must be between 1 and 2048", nil))
		return
	}

	core.Data(w, r, http.StatusOK, h.maps.StaticMapURL(lat, lon, zoom, width, height))
}

// HandleReverse handles GET /v1/geo/reverse?lat=&lon=. Provider failures are
// returned as errors here; only the companion snapshot falls back to a
// coordinate label.
func (h *GeoHandler) HandleReverse(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := parsePoint(r.URL.Query(), "")
	if err != nil {
		core.Error(w, r, err)
		return
	}

	name, err := h.geocoder.Reverse(r.Context(), lat, lon)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusOK, types.Location{Lat: lat, Lon: lon, DisplayName: name})
}

// HandleSearch handles GET /v1/geo/search?q=[&limit=].
func (h *GeoHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField, "q query parameter is required", nil))
		return
	}
	limit, err := parseIntParam(q, "limit", defaultSearchMax, types.ErrCodeValidationFailed)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	found, err := h.geocoder.Search(r.Context(), query, limit)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	count := len(found)
	core.DataWithMeta(w, r, http.StatusOK, found, &core.ResponseMeta{Count: &count})
}
