// Package weather fetches current conditions and forecasts from Open-Meteo
// and converts them into types.WeatherReading.
package weather

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"ridewise/internal/external"
	"ridewise/internal/types"
)

// ProviderName identifies Open-Meteo in breaker names and metrics.
const ProviderName = "open-meteo"

const (
	currentFields = "temperature_2m,wind_speed_10m,precipitation,weather_code"
	hourlyFields  = "temperature_2m,precipitation,precipitation_probability,weather_code,wind_speed_10m"
	dailyFields   = "weather_code,temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max,wind_speed_10m_max"

	localTimeLayout = "2006-01-02T15:04"
)

// Config holds the Open-Meteo endpoint and the forecast horizon.
type Config struct {
	BaseURL      string
	ForecastDays int
}

// Client reads Open-Meteo's /v1/forecast endpoint.
type Client struct {
	base  *external.BaseClient
	cfg   Config
	clock types.Clock
}

// NewClient builds a Client. A nil clock uses the system clock.
func NewClient(base *external.BaseClient, cfg Config, clock types.Clock) *Client {
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = 3
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Client{base: base, cfg: cfg, clock: clock}
}

// forecastResponse mirrors the subset of the Open-Meteo payload we request.
// Pointers keep JSON nulls and absent keys distinguishable from zero.
type forecastResponse struct {
	Timezone         string `json:"timezone"`
	UTCOffsetSeconds int    `json:"utc_offset_seconds"`

	Current *struct {
		Time                     string   `json:"time"`
		Temperature              *float64 `json:"temperature_2m"`
		WindSpeed                *float64 `json:"wind_speed_10m"`
		Precipitation            *float64 `json:"precipitation"`
		PrecipitationProbability *float64 `json:"precipitation_probability"`
		WeatherCode              *int     `json:"weather_code"`
	} `json:"current"`

	Hourly *struct {
		Time                     []string   `json:"time"`
		Temperature              []*float64 `json:"temperature_2m"`
		Precipitation            []*float64 `json:"precipitation"`
		PrecipitationProbability []*float64 `json:"precipitation_probability"`
		WeatherCode              []*int     `json:"weather_code"`
		WindSpeed                []*float64 `json:"wind_speed_10m"`
	} `json:"hourly"`

	Daily *struct {
		Time                        []string   `json:"time"`
		WeatherCode                 []*int     `json:"weather_code"`
		TemperatureMax              []*float64 `json:"temperature_2m_max"`
		TemperatureMin              []*float64 `json:"temperature_2m_min"`
		PrecipitationSum            []*float64 `json:"precipitation_sum"`
		PrecipitationProbabilityMax []*float64 `json:"precipitation_probability_max"`
		WindSpeedMax                []*float64 `json:"wind_speed_10m_max"`
	} `json:"daily"`
}

// GetReading fetches the reading for a coordinate. The hourly series starts
// at the current hour. Current values the provider omits stay nil; the
// hourly probabilities only feed the scorer's lookahead.
func (c *Client) GetReading(ctx context.Context, lat, lon float64) (*types.WeatherReading, error) {
	if err := types.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	var raw forecastResponse
	if err := c.base.GetJSON(ctx, c.forecastURL(lat, lon), &raw); err != nil {
		return nil, err
	}

	reading, err := c.toReading(&raw)
	if err != nil {
		return nil, err
	}
	if err := types.ValidateReading(reading); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamInvalidFormat, "open-meteo returned an inconsistent forecast", err)
	}
	return reading, nil
}

func (c *Client) forecastURL(lat, lon float64) string {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("current", currentFields)
	q.Set("hourly", hourlyFields)
	q.Set("daily", dailyFields)
	q.Set("wind_speed_unit", "ms")
	q.Set("timezone", "auto")
	q.Set("forecast_days", strconv.Itoa(c.cfg.ForecastDays))
	return c.cfg.BaseURL + "/v1/forecast?" + q.Encode()
}

func (c *Client) toReading(raw *forecastResponse) (*types.WeatherReading, error) {
	loc := time.FixedZone(raw.Timezone, raw.UTCOffsetSeconds)
	reading := &types.WeatherReading{Timezone: raw.Timezone}

	now := c.clock.Now().In(loc)
	if cur := raw.Current; cur != nil {
		reading.TemperatureC = cur.Temperature
		reading.WindSpeedMS = cur.WindSpeed
		reading.PrecipitationMM = cur.Precipitation
		reading.PrecipitationProbability = cur.PrecipitationProbability
		reading.WeatherCode = cur.WeatherCode
		if t, err := time.ParseInLocation(localTimeLayout, cur.Time, loc); err == nil {
			now = t
		}
	}
	reading.ObservedAt = now.UTC()

	if h := raw.Hourly; h != nil {
		times := make([]time.Time, len(h.Time))
		for i, s := range h.Time {
			t, err := time.ParseInLocation(localTimeLayout, s, loc)
			if err != nil {
				return nil, types.NewAppError(types.ErrCodeUpstreamInvalidFormat,
					fmt.Sprintf("open-meteo hourly time %q is not parseable", s), err)
			}
			times[i] = t.UTC()
		}

		hour := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, loc)
		start := currentHourIndex(times, hour)
		reading.Hourly = &types.HourlyForecast{
			Time:                     times[start:],
			TemperatureC:             tail(h.Temperature, start),
			PrecipitationMM:          tail(h.Precipitation, start),
			PrecipitationProbability: tail(h.PrecipitationProbability, start),
			WeatherCode:              tail(h.WeatherCode, start),
			WindSpeedMS:              tail(h.WindSpeed, start),
		}
	}

	if d := raw.Daily; d != nil {
		reading.Daily = &types.DailyForecast{
			Date:                        d.Time,
			TemperatureMaxC:             d.TemperatureMax,
			TemperatureMinC:             d.TemperatureMin,
			PrecipitationSumMM:          d.PrecipitationSum,
			PrecipitationProbabilityMax: d.PrecipitationProbabilityMax,
			WeatherCode:                 d.WeatherCode,
			WindSpeedMaxMS:              d.WindSpeedMax,
		}
	}

	return reading, nil
}

// currentHourIndex returns the first index whose time is at or after hour,
// or len(times) when the whole series is in the past.
func currentHourIndex(times []time.Time, hour time.Time) int {
	for i, t := range times {
		if !t.Before(hour) {
			return i
		}
	}
	return len(times)
}

// tail drops the first n entries of a parallel series. Absent series stay nil
// so the length check treats them as missing, not mismatched.
func tail[T any](s []T, n int) []T {
	if s == nil {
		return nil
	}
	if n >= len(s) {
		return []T{}
	}
	return s[n:]
}
