package types

import (
	"fmt"
	"time"
)

// WeatherReading is a snapshot of current conditions at a point in time.
// Every numeric field is optional: nil means the provider did not report it.
// Defaults are substituted only by the scorer, never during deserialization.
type WeatherReading struct {
	TemperatureC             *float64 `json:"temperature_c,omitempty"`
	WindSpeedMS              *float64 `json:"wind_speed_ms,omitempty"`
	PrecipitationMM          *float64 `json:"precipitation_mm,omitempty"`
	PrecipitationProbability *float64 `json:"precipitation_probability,omitempty"`
	WeatherCode              *int     `json:"weather_code,omitempty"`

	Hourly *HourlyForecast `json:"hourly,omitempty"`
	Daily  *DailyForecast  `json:"daily,omitempty"`

	ObservedAt time.Time `json:"observed_at,omitempty"`
	Timezone   string    `json:"timezone,omitempty"`
}

// HourlyForecast holds parallel series indexed by hour offset from now
// (index 0 is the current hour). All slices have equal length.
type HourlyForecast struct {
	Time                     []time.Time `json:"time"`
	TemperatureC             []*float64  `json:"temperature_c"`
	PrecipitationMM          []*float64  `json:"precipitation_mm"`
	PrecipitationProbability []*float64  `json:"precipitation_probability"`
	WeatherCode              []*int      `json:"weather_code"`
	WindSpeedMS              []*float64  `json:"wind_speed_ms"`
}

// seriesLen pairs a series name with its length for the parallel-length checks.
type seriesLen struct {
	field string
	n     int
}

// Len returns the number of hourly buckets.
func (h *HourlyForecast) Len() int {
	if h == nil {
		return 0
	}
	return len(h.Time)
}

// Validate checks that every series has the same length as Time. A nil
// series is treated as absent and accepted.
func (h *HourlyForecast) Validate() error {
	if h == nil {
		return nil
	}
	n := len(h.Time)
	series := []seriesLen{
		{"temperature_c", len(h.TemperatureC)},
		{"precipitation_mm", len(h.PrecipitationMM)},
		{"precipitation_probability", len(h.PrecipitationProbability)},
		{"weather_code", len(h.WeatherCode)},
		{"wind_speed_ms", len(h.WindSpeedMS)},
	}
	for _, s := range series {
		field, l := s.field, s.n
		if l != 0 && l != n {
			return NewAppErrorWithDetails(
				ErrCodeValidationForecastLength,
				fmt.Sprintf("hourly.%s has %d entries, expected %d", field, l, n),
				nil,
				map[string]any{"field": "hourly." + field, "expected": n, "actual": l},
			)
		}
	}
	return nil
}

// DailyForecast holds parallel daily series; index 0 is today.
type DailyForecast struct {
	Date                        []string   `json:"date"`
	TemperatureMaxC             []*float64 `json:"temperature_max_c"`
	TemperatureMinC             []*float64 `json:"temperature_min_c"`
	PrecipitationSumMM          []*float64 `json:"precipitation_sum_mm"`
	PrecipitationProbabilityMax []*float64 `json:"precipitation_probability_max"`
	WeatherCode                 []*int     `json:"weather_code"`
	WindSpeedMaxMS              []*float64 `json:"wind_speed_max_ms"`
}

// Len returns the number of daily buckets.
func (d *DailyForecast) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Date)
}

// Validate checks that every series has the same length as Date.
func (d *DailyForecast) Validate() error {
	if d == nil {
		return nil
	}
	n := len(d.Date)
	series := []seriesLen{
		{"temperature_max_c", len(d.TemperatureMaxC)},
		{"temperature_min_c", len(d.TemperatureMinC)},
		{"precipitation_sum_mm", len(d.PrecipitationSumMM)},
		{"precipitation_probability_max", len(d.PrecipitationProbabilityMax)},
		{"weather_code", len(d.WeatherCode)},
		{"wind_speed_max_ms", len(d.WindSpeedMaxMS)},
	}
	for _, s := range series {
		field, l := s.field, s.n
		if l != 0 && l != n {
			return NewAppErrorWithDetails(
				ErrCodeValidationForecastLength,
				fmt.Sprintf("daily.%s has %d entries, expected %d", field, l, n),
				nil,
				map[string]any{"field": "daily." + field, "expected": n, "actual": l},
			)
		}
	}
	return nil
}

// RidingConditions is the scorer's output. It is computed fresh from each
// reading and never mutated afterwards.
type RidingConditions struct {
	Score           int         `json:"score"`
	Suitability     Suitability `json:"suitability"`
	Alerts          []string    `json:"alerts"`
	Recommendations []string    `json:"recommendations"`
}

// WeatherCodeInfo is the classifier's output for a weather code.
type WeatherCodeInfo struct {
	Code   *int          `json:"code,omitempty"`
	Label  string        `json:"label"`
	Symbol WeatherSymbol `json:"symbol"`
	Emoji  string        `json:"emoji"`
}

// Float64 returns a pointer to v. Convenience for building optional fields.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
