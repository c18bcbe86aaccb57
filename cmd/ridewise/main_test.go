package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridewise/internal/config"
	"ridewise/internal/kvstore"
	"ridewise/internal/trips"
	"ridewise/internal/types"
)

func testApp() *app {
	return newApp(func() (*config.Config, error) {
		return &config.Config{}, nil
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func execute(t *testing.T, a *app, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScoreCmd_Flags(t *testing.T) {
	out, err := execute(t, testApp(), "", "score", "--temp", "12", "--wind", "12", "--precip", "2", "--code", "61")
	require.NoError(t, err)

	assert.Contains(t, out, "Score:   30/100 (poor)")
	assert.Contains(t, out, "Slight rain")
	assert.Contains(t, out, "  - Strong winds")
	assert.Contains(t, out, "  - Rain expected")
	assert.Contains(t, out, "Recommendations:")
}

func TestScoreCmd_NoFlagsIsNeutral(t *testing.T) {
	out, err := execute(t, testApp(), "", "score")
	require.NoError(t, err)
	assert.Contains(t, out, "Score:   100/100 (excellent)")
	assert.NotContains(t, out, "Alerts:")
}

func TestScoreCmd_StdinJSON(t *testing.T) {
	body := `{"temperature_c": 2, "weather_code": 95}`
	out, err := execute(t, testApp(), body, "score", "--file", "-", "--json")
	require.NoError(t, err)

	assert.Contains(t, out, `"score": 0`)
	assert.Contains(t, out, `"suitability": "dangerous"`)
	assert.Contains(t, out, `"label": "Thunderstorm"`)
}

func TestScoreCmd_FlagOverridesFile(t *testing.T) {
	body := `{"temperature_c": 2}`
	out, err := execute(t, testApp(), body, "score", "--file", "-", "--temp", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "Score:   100/100 (excellent)")
}

func TestScoreCmd_RejectsMismatchedSeries(t *testing.T) {
	body := `{"hourly": {"time": ["2026-06-01T10:00:00Z"], "precipitation_probability": [10, 20]}}`
	_, err := execute(t, testApp(), body, "score", "--file", "-")

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationForecastLength, appErr.Code)
}

func TestScoreCmd_RejectsBadJSON(t *testing.T) {
	_, err := execute(t, testApp(), "{", "score", "--file", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestCodeCmd(t *testing.T) {
	out, err := execute(t, testApp(), "", "code", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Overcast")
	assert.Contains(t, out, "(cloudy)")

	out, err = execute(t, testApp(), "", "code", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "Unknown")

	_, err = execute(t, testApp(), "", "code", "abc")
	require.Error(t, err)

	_, err = execute(t, testApp(), "", "code")
	require.Error(t, err)
}

func TestCodeCmd_List(t *testing.T) {
	out, err := execute(t, testApp(), "", "code", "--list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 28)
	assert.Contains(t, lines[0], "Clear sky")
}

func TestDistanceCmd(t *testing.T) {
	out, err := execute(t, testApp(), "", "distance", "--lat1", "0", "--lon1", "0", "--lat2", "0", "--lon2", "1")
	require.NoError(t, err)
	assert.Equal(t, "111.2km (111195 m)\n", out)

	_, err = execute(t, testApp(), "", "distance", "--lat1", "91", "--lon1", "0", "--lat2", "0", "--lon2", "1")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationInvalidLat, appErr.Code)
}

func TestTileCmd(t *testing.T) {
	out, err := execute(t, testApp(), "", "tile", "--lat", "0", "--lon", "0", "--zoom", "1")
	require.NoError(t, err)
	assert.Equal(t, "1/1/1\nhttps://tile.openstreetmap.org/1/1/1.png\n", out)

	_, err = execute(t, testApp(), "", "tile", "--lat", "0", "--lon", "0", "--zoom", "23")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationInvalidZoom, appErr.Code)
}

type fakeWeather struct {
	reading *types.WeatherReading
	err     error
}

func (f fakeWeather) GetReading(context.Context, float64, float64) (*types.WeatherReading, error) {
	return f.reading, f.err
}

func TestConditionsCmd(t *testing.T) {
	a := testApp()
	a.openWeather = func(context.Context) (weatherSource, error) {
		return fakeWeather{reading: &types.WeatherReading{
			TemperatureC: types.Float64(8),
			WeatherCode:  types.Int(45),
		}}, nil
	}

	out, err := execute(t, a, "", "conditions", "--lat", "46.5", "--lon", "11.35")
	require.NoError(t, err)
	assert.Contains(t, out, "Score:   65/100 (good)")
	assert.Contains(t, out, "  - Cold weather")
	assert.Contains(t, out, "  - Foggy conditions")
}

func TestConditionsCmd_ProviderError(t *testing.T) {
	a := testApp()
	upstream := types.NewAppError(types.ErrCodeUpstreamWeather, "weather provider unavailable", nil)
	a.openWeather = func(context.Context) (weatherSource, error) {
		return fakeWeather{err: upstream}, nil
	}

	_, err := execute(t, a, "", "conditions", "--lat", "46.5", "--lon", "11.35")
	assert.ErrorIs(t, err, upstream)
}

// memTrips is an in-memory tripStore.
type memTrips struct {
	waypoints []*types.Waypoint
	routes    []*types.Route
}

func (m *memTrips) CreateWaypoint(_ context.Context, in trips.WaypointInput) (*types.Waypoint, error) {
	wp := &types.Waypoint{ID: "wp_" + in.Name, Name: in.Name, Location: in.Location, Notes: in.Notes}
	m.waypoints = append(m.waypoints, wp)
	return wp, nil
}

func (m *memTrips) ListWaypoints(context.Context, int) ([]*types.Waypoint, error) {
	return m.waypoints, nil
}

func (m *memTrips) DeleteWaypoint(_ context.Context, id string) error {
	for i, wp := range m.waypoints {
		if wp.ID == id {
			m.waypoints = append(m.waypoints[:i], m.waypoints[i+1:]...)
			return nil
		}
	}
	return types.NewAppError(types.ErrCodeNotFoundWaypoint, "waypoint not found", nil)
}

func (m *memTrips) CreateRoute(_ context.Context, in trips.RouteInput) (*types.Route, error) {
	rt := &types.Route{ID: "rt_" + in.Name, Name: in.Name, WaypointIDs: in.WaypointIDs, DistanceLabel: "12.3km"}
	m.routes = append(m.routes, rt)
	return rt, nil
}

func (m *memTrips) GetRoute(_ context.Context, id string) (*types.Route, error) {
	for _, rt := range m.routes {
		if rt.ID == id {
			return rt, nil
		}
	}
	return nil, types.NewAppError(types.ErrCodeNotFoundRoute, "route not found", nil)
}

func (m *memTrips) ListRoutes(context.Context, int) ([]*types.Route, error) {
	return m.routes, nil
}

func withMemTrips(a *app, m *memTrips) (closed *bool) {
	closed = new(bool)
	a.openTrips = func(context.Context) (tripStore, func(), error) {
		return m, func() { *closed = true }, nil
	}
	return closed
}

func TestWaypointCmds(t *testing.T) {
	a := testApp()
	store := &memTrips{}
	closed := withMemTrips(a, store)

	out, err := execute(t, a, "", "waypoint", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No waypoints saved yet.")

	out, err = execute(t, a, "", "waypoint", "add", "--name", "Stelvio", "--lat", "46.5286", "--lon", "10.4531", "--notes", "hairpins")
	require.NoError(t, err)
	assert.Contains(t, out, "wp_Stelvio")
	require.Len(t, store.waypoints, 1)
	assert.Equal(t, "hairpins", store.waypoints[0].Notes)
	assert.Equal(t, 10.4531, store.waypoints[0].Location.Lon)

	out, err = execute(t, a, "", "waypoint", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Stelvio")
	assert.Contains(t, out, "46.52860")

	_, err = execute(t, a, "", "waypoint", "delete", "wp_Stelvio")
	require.NoError(t, err)
	assert.Empty(t, store.waypoints)

	_, err = execute(t, a, "", "waypoint", "delete", "wp_missing")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeNotFoundWaypoint, appErr.Code)

	assert.True(t, *closed)
}

func TestWaypointAdd_RequiresName(t *testing.T) {
	a := testApp()
	withMemTrips(a, &memTrips{})

	_, err := execute(t, a, "", "waypoint", "add", "--lat", "1", "--lon", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestRouteCmds(t *testing.T) {
	a := testApp()
	store := &memTrips{}
	withMemTrips(a, store)

	out, err := execute(t, a, "", "route", "add", "--name", "loop", "--waypoint", "wp_a", "--waypoint", "wp_b", "--waypoint", "wp_a")
	require.NoError(t, err)
	assert.Contains(t, out, "rt_loop (12.3km)")
	require.Len(t, store.routes, 1)
	assert.Equal(t, []string{"wp_a", "wp_b", "wp_a"}, store.routes[0].WaypointIDs)

	out, err = execute(t, a, "", "route", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "loop")
	assert.Contains(t, out, "12.3km")

	store.routes[0].Waypoints = []*types.Waypoint{
		{ID: "wp_a", Name: "Bolzano", Location: types.Location{Lat: 46.5, Lon: 11.35}},
	}
	out, err = execute(t, a, "", "route", "show", "rt_loop")
	require.NoError(t, err)
	assert.Contains(t, out, " 1. Bolzano")
	assert.Contains(t, out, "(2 stop(s) no longer exist)")
	assert.Contains(t, out, "Total distance: 12.3km")
}

func TestTripsDisabledWithoutDatabase(t *testing.T) {
	_, err := execute(t, testApp(), "", "route", "list")
	assert.ErrorIs(t, err, errTripsDisabled)
}

func TestConfigLoadFailure(t *testing.T) {
	loadErr := errors.New("boom")
	a := newApp(func() (*config.Config, error) { return nil, loadErr }, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := execute(t, a, "", "waypoint", "list")
	assert.ErrorIs(t, err, loadErr)
}

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func TestCachePurgeCmd(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	store, err := kvstore.Open(":memory:", clock)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "stale", "x", time.Minute))
	require.NoError(t, store.Set(ctx, "fresh", "y", time.Hour))
	clock.now = clock.now.Add(2 * time.Minute)

	a := testApp()
	a.openCache = func(context.Context) (cacheStore, error) { return store, nil }

	out, err := execute(t, a, "", "cache", "purge")
	require.NoError(t, err)
	assert.Equal(t, "✓ Removed 1 expired entries\n", out)
}
