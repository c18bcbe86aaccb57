package types

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireCode(t *testing.T, err error, code ErrorCode) *AppError {
	t.Helper()
	var appErr *AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
	return appErr
}

func TestValidateCoordinates(t *testing.T) {
	assert.NoError(t, ValidateCoordinates(0, 0))
	assert.NoError(t, ValidateCoordinates(90, 180))
	assert.NoError(t, ValidateCoordinates(-90, -180))

	requireCode(t, ValidateCoordinates(90.1, 0), ErrCodeValidationInvalidLat)
	requireCode(t, ValidateCoordinates(math.NaN(), 0), ErrCodeValidationInvalidLat)
	requireCode(t, ValidateCoordinates(0, -180.5), ErrCodeValidationInvalidLon)
	requireCode(t, ValidateCoordinates(0, math.Inf(1)), ErrCodeValidationInvalidLon)
}

func TestValidateZoom(t *testing.T) {
	assert.NoError(t, ValidateZoom(0))
	assert.NoError(t, ValidateZoom(22))
	requireCode(t, ValidateZoom(-1), ErrCodeValidationInvalidZoom)
	requireCode(t, ValidateZoom(23), ErrCodeValidationInvalidZoom)
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Col du Galibier"))
	assert.NoError(t, ValidateName(strings.Repeat("é", MaxNameLength)))
	requireCode(t, ValidateName("   "), ErrCodeValidationInvalidName)
	requireCode(t, ValidateName(strings.Repeat("a", MaxNameLength+1)), ErrCodeValidationInvalidName)
}

func TestValidateReading(t *testing.T) {
	assert.NoError(t, ValidateReading(nil))
	assert.NoError(t, ValidateReading(&WeatherReading{}))

	err := ValidateReading(&WeatherReading{WindSpeedMS: Float64(math.NaN())})
	appErr := requireCode(t, err, ErrCodeValidationNonFinite)
	assert.Equal(t, "wind_speed_ms", appErr.Details["field"])

	err = ValidateReading(&WeatherReading{Hourly: &HourlyForecast{
		Time:                     []time.Time{time.Now(), time.Now()},
		PrecipitationProbability: []*float64{Float64(10), Float64(math.Inf(-1))},
	}})
	appErr = requireCode(t, err, ErrCodeValidationNonFinite)
	assert.Equal(t, "hourly.precipitation_probability[1]", appErr.Details["field"])
}

func TestHourlyForecastValidate(t *testing.T) {
	now := time.Now()
	ok := &HourlyForecast{
		Time:         []time.Time{now, now.Add(time.Hour)},
		TemperatureC: []*float64{Float64(10), nil},
	}
	assert.NoError(t, ok.Validate())
	assert.Equal(t, 2, ok.Len())

	bad := &HourlyForecast{
		Time:         []time.Time{now, now.Add(time.Hour)},
		TemperatureC: []*float64{Float64(10)},
		WindSpeedMS:  []*float64{Float64(1), Float64(2), Float64(3)},
	}
	appErr := requireCode(t, bad.Validate(), ErrCodeValidationForecastLength)
	assert.Equal(t, "hourly.temperature_c", appErr.Details["field"])
	assert.Equal(t, 2, appErr.Details["expected"])
	assert.Equal(t, 1, appErr.Details["actual"])

	var nilForecast *HourlyForecast
	assert.NoError(t, nilForecast.Validate())
	assert.Equal(t, 0, nilForecast.Len())
}

func TestDailyForecastValidate(t *testing.T) {
	d := &DailyForecast{
		Date:        []string{"2026-10-19", "2026-10-20"},
		WeatherCode: []*int{Int(3), Int(61)},
	}
	assert.NoError(t, d.Validate())

	d.WindSpeedMaxMS = []*float64{Float64(4)}
	appErr := requireCode(t, d.Validate(), ErrCodeValidationForecastLength)
	assert.Equal(t, "daily.wind_speed_max_ms", appErr.Details["field"])
}

func TestParsePlaceCategory(t *testing.T) {
	c, err := ParsePlaceCategory("fuel")
	require.NoError(t, err)
	assert.Equal(t, CategoryFuel, c)
	assert.Equal(t, "gas_station", c.ProviderType())

	_, err = ParsePlaceCategory("casino")
	requireCode(t, err, ErrCodeValidationInvalidCategory)

	for _, c := range AllPlaceCategories {
		assert.True(t, c.Valid(), "category %s", c)
		assert.NotEmpty(t, c.ProviderType(), "category %s", c)

		back, ok := CategoryForProviderType("point_of_interest", c.ProviderType())
		assert.True(t, ok)
		assert.Equal(t, c, back)
	}

	_, ok := CategoryForProviderType("establishment")
	assert.False(t, ok)
}

func TestSuitabilityRank(t *testing.T) {
	order := []Suitability{SuitabilityDangerous, SuitabilityPoor, SuitabilityFair, SuitabilityGood, SuitabilityExcellent}
	for i := 1; i < len(order); i++ {
		assert.Greater(t, order[i].Rank(), order[i-1].Rank())
	}
	assert.Equal(t, -1, Suitability("meh").Rank())
}

func TestWeatherSymbolEmoji(t *testing.T) {
	assert.Equal(t, "⛈️", SymbolThunderstorm.Emoji())
	assert.Equal(t, SymbolUnknown.Emoji(), WeatherSymbol("nope").Emoji())
}
