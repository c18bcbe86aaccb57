// Package handlers contains the HTTP handlers mounted under /v1.
//
// Handlers parse and validate input, call a service through a locally
// defined interface, and write the envelope through core. They hold no
// state of their own.
package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ridewise/internal/types"
)

const (
	maxListLimit = 500

	// weatherCacheControl matches the provider's update cadence closely
	// enough for browsers and intermediate caches.
	weatherCacheControl = "private, max-age=300"
)

// parseFloatParam reads a required float query parameter. A missing value is
// validation_missing_required_field; a malformed one is reported with code.
func parseFloatParam(q url.Values, key string, code types.ErrorCode) (float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, types.NewAppError(types.ErrCodeValidationMissingField, key+" query parameter is required", nil)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, types.NewAppError(code, key+" must be a valid number", nil)
	}
	return v, nil
}

// parseIntParam reads an optional int query parameter, returning def when
// the parameter is absent.
func parseIntParam(q url.Values, key string, def int, code types.ErrorCode) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, types.NewAppError(code, key+" must be an integer", nil)
	}
	return v, nil
}

// parsePoint reads and range-checks the latN/lonN pair. suffix is "" for
// the plain lat/lon parameters.
func parsePoint(q url.Values, suffix string) (float64, float64, error) {
	lat, err := parseFloatParam(q, "lat"+suffix, types.ErrCodeValidationInvalidLat)
	if err != nil {
		return 0, 0, err
	}
	lon, err := parseFloatParam(q, "lon"+suffix, types.ErrCodeValidationInvalidLon)
	if err != nil {
		return 0, 0, err
	}
	if err := types.ValidateCoordinates(lat, lon); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func parseLimit(r *http.Request) (int, error) {
	limit, err := parseIntParam(r.URL.Query(), "limit", 0, types.ErrCodeValidationFailed)
	if err != nil {
		return 0, err
	}
	if limit < 0 || limit > maxListLimit {
		return 0, types.NewAppError(types.ErrCodeValidationFailed,
			"limit must be between 1 and "+strconv.Itoa(maxListLimit), nil)
	}
	return limit, nil
}

// splitList parses a comma separated parameter, dropping empty items.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
