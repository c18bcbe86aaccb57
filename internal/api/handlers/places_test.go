package handlers

import (
	"context"
	"net/http"
	"testing"

	"ridewise/internal/places"
	"ridewise/internal/types"
)

type mockPlaceService struct {
	found   []types.Place
	place   *types.Place
	err     error
	gotQ    places.NearbyQuery
	gotID   string
	queried bool
}

func (m *mockPlaceService) Nearby(_ context.Context, q places.NearbyQuery) ([]types.Place, error) {
	m.gotQ, m.queried = q, true
	return m.found, m.err
}

func (m *mockPlaceService) Details(_ context.Context, id string) (*types.Place, error) {
	m.gotID = id
	return m.place, m.err
}

func TestHandleNearby(t *testing.T) {
	d := 89.0
	svc := &mockPlaceService{found: []types.Place{
		{ID: "p1", Name: "Q8", Category: types.CategoryFuel, DistanceMeters: &d, DistanceLabel: "89m"},
	}}
	router := newRouter(NewPlacesHandler(svc, testLogger()).RegisterRoutes)

	rec := do(t, router, http.MethodGet, "/v1/places/nearby?lat=45.4642&lon=9.19&category=fuel&radius=3000&keyword=24h", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	want := places.NearbyQuery{
		Location:     types.Location{Lat: 45.4642, Lon: 9.19},
		Category:     types.CategoryFuel,
		RadiusMeters: 3000,
		Keyword:      "24h",
	}
	if svc.gotQ != want {
		t.Errorf("query = %+v, want %+v", svc.gotQ, want)
	}

	var got []types.Place
	meta := decodeData(t, rec, &got)
	if len(got) != 1 || got[0].DistanceLabel != "89m" {
		t.Errorf("places = %+v", got)
	}
	if meta == nil || *meta.Count != 1 {
		t.Errorf("meta = %+v", meta)
	}
}

func TestHandleNearby_EmptyIsArray(t *testing.T) {
	router := newRouter(NewPlacesHandler(&mockPlaceService{}, testLogger()).RegisterRoutes)
	rec := do(t, router, http.MethodGet, "/v1/places/nearby?lat=0&lon=0&category=hotel", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []types.Place
	decodeData(t, rec, &got)
	if got == nil {
		t.Error("expected [] not null")
	}
}

func TestHandleNearby_Validation(t *testing.T) {
	tests := []struct {
		name  string
		query string
		code  types.ErrorCode
	}{
		{"missing category", "lat=0&lon=0", types.ErrCodeValidationMissingField},
		{"unknown category", "lat=0&lon=0&category=museum", types.ErrCodeValidationInvalidCategory},
		{"bad radius", "lat=0&lon=0&category=fuel&radius=far", types.ErrCodeValidationInvalidRadius},
		{"missing lon", "lat=0&category=fuel", types.ErrCodeValidationMissingField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPlaceService{}
			router := newRouter(NewPlacesHandler(svc, testLogger()).RegisterRoutes)
			rec := do(t, router, http.MethodGet, "/v1/places/nearby?"+tt.query, nil)
			expectError(t, rec, http.StatusBadRequest, string(tt.code))
			if svc.queried {
				t.Error("service called despite invalid input")
			}
		})
	}
}

func TestHandleNearby_ServiceErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{types.NewAppError(types.ErrCodeUpstreamPlacesNoKey, "places provider is not configured", nil), http.StatusBadGateway},
		{types.NewAppError(types.ErrCodeValidationInvalidRadius, "radius must be between 1 and 50000 meters", nil), http.StatusBadRequest},
		{types.NewAppError(types.ErrCodeUpstreamRateLimited, "rate limited", nil), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		appErr := tt.err.(*types.AppError)
		t.Run(string(appErr.Code), func(t *testing.T) {
			router := newRouter(NewPlacesHandler(&mockPlaceService{err: tt.err}, testLogger()).RegisterRoutes)
			rec := do(t, router, http.MethodGet, "/v1/places/nearby?lat=0&lon=0&category=fuel", nil)
			expectError(t, rec, tt.status, string(appErr.Code))
		})
	}
}

func TestHandleDetails(t *testing.T) {
	svc := &mockPlaceService{place: &types.Place{ID: "ChIJabc", Name: "Moto Service", Phone: "+39 0471 000000"}}
	router := newRouter(NewPlacesHandler(svc, testLogger()).RegisterRoutes)

	rec := do(t, router, http.MethodGet, "/v1/places/ChIJabc", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.gotID != "ChIJabc" {
		t.Errorf("id = %q", svc.gotID)
	}
	var p types.Place
	decodeData(t, rec, &p)
	if p.Phone != "+39 0471 000000" {
		t.Errorf("place = %+v", p)
	}

	missing := newRouter(NewPlacesHandler(&mockPlaceService{err: types.NewAppError(types.ErrCodeNotFoundPlace, "place not found", nil)}, testLogger()).RegisterRoutes)
	rec = do(t, missing, http.MethodGet, "/v1/places/nope", nil)
	expectError(t, rec, http.StatusNotFound, string(types.ErrCodeNotFoundPlace))
}
