// Package places looks up points of interest around the rider through the
// Google Places web service and orders them by distance.
package places

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"ridewise/internal/external"
	"ridewise/internal/geo"
	"ridewise/internal/types"
)

// ProviderName identifies Google Places in breaker names and metrics.
const ProviderName = "google-places"

const detailFields = "place_id,name,geometry,types,formatted_address,formatted_phone_number," +
	"website,opening_hours,rating,photos,reviews,editorial_summary"

// NearbyQuery describes a nearby search.
type NearbyQuery struct {
	Location     types.Location
	Category     types.PlaceCategory
	RadiusMeters int
	Keyword      string
}

// Client calls the Places Nearby Search and Place Details endpoints.
type Client struct {
	base    *external.BaseClient
	baseURL string
	apiKey  types.SecretString
}

// NewClient builds a Client. An empty apiKey is allowed; every call then
// fails with upstream_places_not_configured.
func NewClient(base *external.BaseClient, baseURL string, apiKey types.SecretString) *Client {
	return &Client{base: base, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type apiPlace struct {
	PlaceID  string `json:"place_id"`
	Name     string `json:"name"`
	Geometry struct {
		Location latLng `json:"location"`
	} `json:"geometry"`
	Types            []string `json:"types"`
	Vicinity         string   `json:"vicinity"`
	FormattedAddress string   `json:"formatted_address"`
	Phone            string   `json:"formatted_phone_number"`
	Website          string   `json:"website"`
	Rating           *float64 `json:"rating"`
	OpeningHours     *struct {
		OpenNow     *bool    `json:"open_now"`
		WeekdayText []string `json:"weekday_text"`
	} `json:"opening_hours"`
	Photos []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
	Reviews []struct {
		AuthorName string `json:"author_name"`
		Rating     int    `json:"rating"`
		Text       string `json:"text"`
		Time       int64  `json:"time"`
	} `json:"reviews"`
	EditorialSummary *struct {
		Overview string `json:"overview"`
	} `json:"editorial_summary"`
}

type nearbyResponse struct {
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message"`
	Results      []apiPlace `json:"results"`
}

type detailsResponse struct {
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message"`
	Result       *apiPlace `json:"result"`
}

// Nearby returns places of q.Category within q.RadiusMeters of q.Location,
// nearest first.
func (c *Client) Nearby(ctx context.Context, q NearbyQuery) ([]types.Place, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("location", fmt.Sprintf("%.6f,%.6f", q.Location.Lat, q.Location.Lon))
	params.Set("radius", strconv.Itoa(q.RadiusMeters))
	params.Set("type", q.Category.ProviderType())
	if q.Keyword != "" {
		params.Set("keyword", q.Keyword)
	}
	params.Set("key", c.apiKey.Unmask())

	var raw nearbyResponse
	if err := c.base.GetJSON(ctx, c.baseURL+"/nearbysearch/json?"+params.Encode(), &raw); err != nil {
		return nil, err
	}
	if err := statusError(raw.Status, raw.ErrorMessage); err != nil {
		return nil, err
	}

	out := make([]types.Place, 0, len(raw.Results))
	for i := range raw.Results {
		p := toPlace(&raw.Results[i])
		p.Category = q.Category
		if p.Address == "" {
			p.Address = raw.Results[i].Vicinity
		}
		out = append(out, p)
	}
	return WithinRadius(out, q.Location, q.RadiusMeters), nil
}

// Details fetches the enriched record for a place ID.
func (c *Client) Details(ctx context.Context, placeID string) (*types.Place, error) {
	if strings.TrimSpace(placeID) == "" {
		return nil, types.NewAppError(types.ErrCodeValidationMissingField, "place id is required", nil)
	}
	if err := c.requireKey(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", detailFields)
	params.Set("key", c.apiKey.Unmask())

	var raw detailsResponse
	if err := c.base.GetJSON(ctx, c.baseURL+"/details/json?"+params.Encode(), &raw); err != nil {
		return nil, err
	}
	if err := statusError(raw.Status, raw.ErrorMessage); err != nil {
		return nil, err
	}
	if raw.Result == nil || raw.Status == "ZERO_RESULTS" {
		return nil, types.NewAppError(types.ErrCodeNotFoundPlace, "place not found", nil)
	}

	p := toPlace(raw.Result)
	if c, ok := types.CategoryForProviderType(raw.Result.Types...); ok {
		p.Category = c
	}
	return &p, nil
}

func (c *Client) requireKey() error {
	if !c.apiKey.IsSet() {
		return types.NewAppError(types.ErrCodeUpstreamPlacesNoKey, "places API key is not configured", nil)
	}
	return nil
}

// statusError maps the Places "status" field. OK and ZERO_RESULTS are not
// errors.
func statusError(status, message string) error {
	switch status {
	case "OK", "ZERO_RESULTS":
		return nil
	case "NOT_FOUND":
		return types.NewAppError(types.ErrCodeNotFoundPlace, "place not found", nil)
	case "OVER_QUERY_LIMIT":
		return types.NewAppError(types.ErrCodeUpstreamRateLimited, "places quota exceeded", fmt.Errorf("%s: %s", status, message))
	default:
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamPlaces, "places request failed",
			fmt.Errorf("%s: %s", status, message), map[string]any{"status": status})
	}
}

func toPlace(a *apiPlace) types.Place {
	p := types.Place{
		ID:       a.PlaceID,
		Name:     a.Name,
		Location: types.Location{Lat: a.Geometry.Location.Lat, Lon: a.Geometry.Location.Lng},
		Address:  a.FormattedAddress,
		Phone:    a.Phone,
		Website:  a.Website,
		Rating:   a.Rating,
	}
	if h := a.OpeningHours; h != nil {
		p.OpenNow = h.OpenNow
		p.Hours = h.WeekdayText
	}
	for _, ph := range a.Photos {
		if ph.PhotoReference != "" {
			p.Photos = append(p.Photos, ph.PhotoReference)
		}
	}
	for _, r := range a.Reviews {
		p.Reviews = append(p.Reviews, types.PlaceReview{
			Author: r.AuthorName,
			Rating: r.Rating,
			Text:   r.Text,
			Time:   time.Unix(r.Time, 0).UTC(),
		})
	}
	if a.EditorialSummary != nil {
		p.Description = a.EditorialSummary.Overview
	}
	return p
}

// WithinRadius recomputes every place's distance from origin, drops those
// farther than radius meters and sorts the rest nearest first. Ties keep
// their input order. The input slice is not modified.
func WithinRadius(in []types.Place, origin types.Location, radius int) []types.Place {
	out := make([]types.Place, 0, len(in))
	for _, p := range in {
		d := geo.DistanceBetween(origin, p.Location)
		if radius > 0 && d > float64(radius) {
			continue
		}
		p.DistanceMeters = &d
		p.DistanceLabel = geo.FormatDistance(&d)
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].DistanceMeters < *out[j].DistanceMeters
	})
	return out
}
