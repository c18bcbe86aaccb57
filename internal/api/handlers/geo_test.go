package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"ridewise/internal/geo"
	"ridewise/internal/types"
)

type mockGeocoder struct {
	name     string
	found    []types.Location
	err      error
	gotQuery string
	gotLimit int
}

func (m *mockGeocoder) Reverse(_ context.Context, _, _ float64) (string, error) {
	return m.name, m.err
}

func (m *mockGeocoder) Search(_ context.Context, query string, limit int) ([]types.Location, error) {
	m.gotQuery, m.gotLimit = query, limit
	return m.found, m.err
}

const testTileTemplate = "https://tile.example/{z}/{x}/{y}.png"

func newGeoRouter(g Geocoder, maps geo.MapURLBuilder) http.Handler {
	if maps.TileTemplate == "" {
		maps.TileTemplate = testTileTemplate
	}
	return newRouter(NewGeoHandler(g, maps, testLogger()).RegisterRoutes)
}

func TestHandleDistance(t *testing.T) {
	router := newGeoRouter(&mockGeocoder{}, geo.MapURLBuilder{})

	tests := []struct {
		name      string
		query     string
		wantLabel string
	}{
		{"same point", "lat1=45&lon1=9&lat2=45&lon2=9", "0m"},
		{"short hop", "lat1=45.4642&lon1=9.19&lat2=45.4650&lon2=9.19", "89m"},
		{"one degree of latitude", "lat1=0&lon1=0&lat2=1&lon2=0", "111.2km"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, "/v1/geo/distance?"+tt.query, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			var resp DistanceResponse
			decodeData(t, rec, &resp)
			if resp.Label != tt.wantLabel {
				t.Errorf("label = %q, want %q (meters %v)", resp.Label, tt.wantLabel, resp.Meters)
			}
		})
	}
}

func TestHandleDistance_Validation(t *testing.T) {
	router := newGeoRouter(&mockGeocoder{}, geo.MapURLBuilder{})

	rec := do(t, router, http.MethodGet, "/v1/geo/distance?lat1=0&lon1=0&lat2=0", nil)
	expectError(t, rec, http.StatusBadRequest, string(types.ErrCodeValidationMissingField))

	rec = do(t, router, http.MethodGet, "/v1/geo/distance?lat1=0&lon1=200&lat2=0&lon2=0", nil)
	expectError(t, rec, http.StatusBadRequest, string(types.ErrCodeValidationInvalidLon))
}

func TestHandleTile(t *testing.T) {
	router := newGeoRouter(&mockGeocoder{}, geo.MapURLBuilder{})

	rec := do(t, router, http.MethodGet, "/v1/geo/tile?lat=0&lon=0&zoom=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp TileResponse
	decodeData(t, rec, &resp)
	if resp.Tile.X != 1 || resp.Tile.Y != 1 || resp.Tile.Zoom != 1 {
		t.Errorf("tile = %+v, want 1/1/1", resp.Tile)
	}
	if resp.URL != "https://tile.example/1/1/1.png" {
		t.Errorf("url = %q", resp.URL)
	}
}

func TestHandleTile_Validation(t *testing.T) {
	router := newGeoRouter(&mockGeocoder{}, geo.MapURLBuilder{})

	tests := []struct {
		query string
		code  types.ErrorCode
	}{
		{"lat=0&lon=0", types.ErrCodeValidationMissingField},
		{"lat=0&lon=0&zoom=23", types.ErrCodeValidationInvalidZoom},
		{"lat=0&lon=0&zoom=-1", types.ErrCodeValidationInvalidZoom},
		{"lat=0&lon=0&zoom=x", types.ErrCodeValidationInvalidZoom},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, "/v1/geo/tile?"+tt.query, nil)
			expectError(t, rec, http.StatusBadRequest, string(tt.code))
		})
	}
}

func TestHandleMap(t *testing.T) {
	t.Run("tile fallback without key", func(t *testing.T) {
		router := newGeoRouter(&mockGeocoder{}, geo.MapURLBuilder{})
		rec := do(t, router, http.MethodGet, "/v1/geo/map?lat=46.5&lon=11.35", nil)
		var img geo.MapImage
		decodeData(t, rec, &img)
		if img.Provider != "tile" || img.Tile == nil || img.Tile.Zoom != defaultMapZoom {
			t.Errorf("image = %+v", img)
		}
	})

	t.Run("static map with key", func(t *testing.T) {
		maps := geo.MapURLBuilder{StaticMapKey: types.SecretString("k123"), StaticMapEndpoint: "https://static.example/map"}
		router := newGeoRouter(&mockGeocoder{}, maps)
		rec := do(t, router, http.MethodGet, "/v1/geo/map?lat=46.5&lon=11.35&zoom=10&width=320&height=200", nil)
		var img geo.MapImage
		decodeData(t, rec, &img)
		if img.Provider != "static" {
			t.Fatalf("provider = %q", img.Provider)
		}
		for _, want := range []string{"https://static.example/map?", "size=320x200", "zoom=10", "key=k123"} {
			if !strings.Contains(img.URL, want) {
				t.Errorf("url %q missing %q", img.URL, want)
			}
		}
	})

	t.Run("oversized", func(t *testing.T) {
		router := newGeoRouter(&mockGeocoder{}, geo.MapURLBuilder{})
		rec := do(t, router, http.MethodGet, "/v1/geo/map?lat=0&lon=0&width=5000", nil)
		expectError(t, rec, http.StatusBadRequest, string(types.ErrCodeValidationFailed))
	})
}

func TestHandleReverse(t *testing.T) {
	router := newGeoRouter(&mockGeocoder{name: "Gries, Bolzano"}, geo.MapURLBuilder{})
	rec := do(t, router, http.MethodGet, "/v1/geo/reverse?lat=46.5&lon=11.35", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var loc types.Location
	decodeData(t, rec, &loc)
	if loc.DisplayName != "Gries, Bolzano" || loc.Lat != 46.5 {
		t.Errorf("location = %+v", loc)
	}

	failing := newGeoRouter(&mockGeocoder{err: types.NewAppError(types.ErrCodeUpstreamGeocoding, "geocoder unavailable", nil)}, geo.MapURLBuilder{})
	rec = do(t, failing, http.MethodGet, "/v1/geo/reverse?lat=46.5&lon=11.35", nil)
	expectError(t, rec, http.StatusBadGateway, string(types.ErrCodeUpstreamGeocoding))
}

func TestHandleSearch(t *testing.T) {
	g := &mockGeocoder{found: []types.Location{{Lat: 46.43, Lon: 11.85, DisplayName: "Canazei"}}}
	router := newGeoRouter(g, geo.MapURLBuilder{})

	rec := do(t, router, http.MethodGet, "/v1/geo/search?q=+Canazei+&limit=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var found []types.Location
	meta := decodeData(t, rec, &found)
	if len(found) != 1 || found[0].DisplayName != "Canazei" {
		t.Errorf("found = %+v", found)
	}
	if meta == nil || *meta.Count != 1 {
		t.Errorf("meta = %+v", meta)
	}
	if g.gotQuery != "Canazei" || g.gotLimit != 3 {
		t.Errorf("search called with %q/%d", g.gotQuery, g.gotLimit)
	}

	rec = do(t, router, http.MethodGet, "/v1/geo/search", nil)
	expectError(t, rec, http.StatusBadRequest, string(types.ErrCodeValidationMissingField))
}
