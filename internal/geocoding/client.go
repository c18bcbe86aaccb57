// Package geocoding resolves coordinates to human-readable place names and
// free-text queries to coordinates using Nominatim.
package geocoding

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"ridewise/internal/external"
	"ridewise/internal/types"
)

// ProviderName identifies Nominatim in breaker names and metrics.
const ProviderName = "nominatim"

// MaxSearchResults caps forward-geocoding results.
const MaxSearchResults = 10

// Client talks to a Nominatim instance.
type Client struct {
	base    *external.BaseClient
	baseURL string
}

// NewClient builds a Client for the Nominatim instance at baseURL.
func NewClient(base *external.BaseClient, baseURL string) *Client {
	return &Client{base: base, baseURL: strings.TrimRight(baseURL, "/")}
}

type address struct {
	Suburb        string `json:"suburb"`
	Neighbourhood string `json:"neighbourhood"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	State         string `json:"state"`
}

type reverseResponse struct {
	DisplayName string   `json:"display_name"`
	Address     *address `json:"address"`
	Error       string   `json:"error"`
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Reverse returns a short name for the coordinate. Provider errors are
// returned to the caller; use CoordinateLabel as the fallback.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	if err := types.ValidateCoordinates(lat, lon); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("zoom", "14")
	q.Set("addressdetails", "1")

	var raw reverseResponse
	if err := c.base.GetJSON(ctx, c.baseURL+"/reverse?"+q.Encode(), &raw); err != nil {
		return "", err
	}
	return nameFor(&raw, lat, lon), nil
}

// Search geocodes a free-text query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]types.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, types.NewAppError(types.ErrCodeValidationMissingField, "query is required", nil)
	}
	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	var raw []searchResult
	if err := c.base.GetJSON(ctx, c.baseURL+"/search?"+q.Encode(), &raw); err != nil {
		return nil, err
	}

	out := make([]types.Location, 0, len(raw))
	for _, r := range raw {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		out = append(out, types.Location{Lat: lat, Lon: lon, DisplayName: r.DisplayName})
	}
	return out, nil
}

// nameFor prefers "<suburb>, <state>"-style labels built from the address,
// then the first segment of display_name, then the coordinate itself.
func nameFor(raw *reverseResponse, lat, lon float64) string {
	if a := raw.Address; a != nil {
		var parts []string
		if p := firstNonEmpty(a.Suburb, a.Neighbourhood); p != "" {
			parts = append(parts, p)
		}
		if p := firstNonEmpty(a.City, a.Town, a.Village); p != "" {
			parts = append(parts, p)
		}
		if a.State != "" {
			parts = append(parts, a.State)
		}
		switch len(parts) {
		case 0:
		case 1:
			return parts[0]
		default:
			return parts[0] + ", " + parts[len(parts)-1]
		}
	}

	if first, _, _ := strings.Cut(raw.DisplayName, ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	return CoordinateLabel(lat, lon)
}

// CoordinateLabel formats a coordinate as "45.4642°, 9.1900°".
func CoordinateLabel(lat, lon float64) string {
	return fmt.Sprintf("%.4f°, %.4f°", lat, lon)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
