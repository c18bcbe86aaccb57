package types

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Validation constraint constants.
const (
	MinLat         = -90.0
	MaxLat         = 90.0
	MinLon         = -180.0
	MaxLon         = 180.0
	MinZoom        = 0
	MaxZoom        = 22
	MaxNameLength  = 200
	MaxNotesLength = 2000
	MaxRouteStops  = 50
	MaxRadius      = 50000
)

// ValidateCoordinates checks that lat/lon are finite and within WGS84 range.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < MinLat || lat > MaxLat {
		return NewAppError(ErrCodeValidationInvalidLat,
			fmt.Sprintf("latitude must be between %.0f and %.0f", MinLat, MaxLat), nil)
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < MinLon || lon > MaxLon {
		return NewAppError(ErrCodeValidationInvalidLon,
			fmt.Sprintf("longitude must be between %.0f and %.0f", MinLon, MaxLon), nil)
	}
	return nil
}

// ValidateZoom checks the slippy-map zoom level.
func ValidateZoom(zoom int) error {
	if zoom < MinZoom || zoom > MaxZoom {
		return NewAppError(ErrCodeValidationInvalidZoom,
			fmt.Sprintf("zoom must be between %d and %d", MinZoom, MaxZoom), nil)
	}
	return nil
}

// ValidateRadius checks a search radius in meters.
func ValidateRadius(radius int) error {
	if radius < 1 || radius > MaxRadius {
		return NewAppError(ErrCodeValidationInvalidRadius,
			fmt.Sprintf("radius must be between 1 and %d meters", MaxRadius), nil)
	}
	return nil
}

// ValidateName checks a user-supplied waypoint or route name.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return NewAppError(ErrCodeValidationInvalidName, "name is required", nil)
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return NewAppError(ErrCodeValidationInvalidName,
			fmt.Sprintf("name must be at most %d characters", MaxNameLength), nil)
	}
	return nil
}

// ValidateReading rejects non-finite numbers and mismatched forecast series.
// The scorer itself never fails; this runs at the API and CLI boundaries.
func ValidateReading(r *WeatherReading) error {
	if r == nil {
		return nil
	}
	scalars := []struct {
		field string
		v     *float64
	}{
		{"temperature_c", r.TemperatureC},
		{"wind_speed_ms", r.WindSpeedMS},
		{"precipitation_mm", r.PrecipitationMM},
		{"precipitation_probability", r.PrecipitationProbability},
	}
	for _, s := range scalars {
		if s.v != nil && !isFinite(*s.v) {
			return nonFinite(s.field)
		}
	}
	if r.Hourly != nil {
		if err := r.Hourly.Validate(); err != nil {
			return err
		}
		for i, p := range r.Hourly.PrecipitationProbability {
			if p != nil && !isFinite(*p) {
				return nonFinite(fmt.Sprintf("hourly.precipitation_probability[%d]", i))
			}
		}
	}
	if r.Daily != nil {
		if err := r.Daily.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func nonFinite(field string) *AppError {
	return NewAppErrorWithDetails(
		ErrCodeValidationNonFinite,
		field+" must be a finite number",
		nil,
		map[string]any{"field": field},
	)
}
