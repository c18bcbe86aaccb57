package types

// Suitability is the ordinal riding category derived from a score.
type Suitability string

const (
	SuitabilityExcellent Suitability = "excellent"
	SuitabilityGood      Suitability = "good"
	SuitabilityFair      Suitability = "fair"
	SuitabilityPoor      Suitability = "poor"
	SuitabilityDangerous Suitability = "dangerous"
)

// Rank orders suitabilities: excellent is 4, dangerous is 0. Unknown values rank -1.
func (s Suitability) Rank() int {
	switch s {
	case SuitabilityExcellent:
		return 4
	case SuitabilityGood:
		return 3
	case SuitabilityFair:
		return 2
	case SuitabilityPoor:
		return 1
	case SuitabilityDangerous:
		return 0
	default:
		return -1
	}
}

// WeatherSymbol is the pictographic category of a weather code.
type WeatherSymbol string

const (
	SymbolClear           WeatherSymbol = "clear"
	SymbolMostlyClear     WeatherSymbol = "mostly_clear"
	SymbolPartlyCloudy    WeatherSymbol = "partly_cloudy"
	SymbolCloudy          WeatherSymbol = "cloudy"
	SymbolFog             WeatherSymbol = "fog"
	SymbolDrizzle         WeatherSymbol = "drizzle"
	SymbolFreezingDrizzle WeatherSymbol = "freezing_drizzle"
	SymbolRain            WeatherSymbol = "rain"
	SymbolFreezingRain    WeatherSymbol = "freezing_rain"
	SymbolSnow            WeatherSymbol = "snow"
	SymbolShowers         WeatherSymbol = "showers"
	SymbolSnowShowers     WeatherSymbol = "snow_showers"
	SymbolThunderstorm    WeatherSymbol = "thunderstorm"
	SymbolUnknown         WeatherSymbol = "unknown"
)

var symbolEmoji = map[WeatherSymbol]string{
	SymbolClear:           "☀️",
	SymbolMostlyClear:     "🌤️",
	SymbolPartlyCloudy:    "⛅",
	SymbolCloudy:          "☁️",
	SymbolFog:             "🌫️",
	SymbolDrizzle:         "🌦️",
	SymbolFreezingDrizzle: "🌧️",
	SymbolRain:            "🌧️",
	SymbolFreezingRain:    "🧊",
	SymbolSnow:            "❄️",
	SymbolShowers:         "🌦️",
	SymbolSnowShowers:     "🌨️",
	SymbolThunderstorm:    "⛈️",
	SymbolUnknown:         "🌡️",
}

// Emoji returns the display glyph for the symbol.
func (s WeatherSymbol) Emoji() string {
	if e, ok := symbolEmoji[s]; ok {
		return e
	}
	return symbolEmoji[SymbolUnknown]
}

// PlaceCategory groups points of interest the way the rider browses them.
type PlaceCategory string

const (
	CategoryRestaurant PlaceCategory = "restaurant"
	CategoryHotel      PlaceCategory = "hotel"
	CategoryAttraction PlaceCategory = "attraction"
	CategoryFuel       PlaceCategory = "fuel"
	CategoryParking    PlaceCategory = "parking"
	CategoryRepair     PlaceCategory = "repair"
)

// AllPlaceCategories lists every category in display order.
var AllPlaceCategories = []PlaceCategory{
	CategoryRestaurant,
	CategoryHotel,
	CategoryAttraction,
	CategoryFuel,
	CategoryParking,
	CategoryRepair,
}

// placesProviderType maps a category to the Google Places "type" filter.
var placesProviderType = map[PlaceCategory]string{
	CategoryRestaurant: "restaurant",
	CategoryHotel:      "lodging",
	CategoryAttraction: "tourist_attraction",
	CategoryFuel:       "gas_station",
	CategoryParking:    "parking",
	CategoryRepair:     "car_repair",
}

// ProviderType returns the Places API type for the category, or "" if unknown.
func (c PlaceCategory) ProviderType() string {
	return placesProviderType[c]
}

// CategoryForProviderType maps a Places API type back to a category. The
// first matching entry of types wins.
func CategoryForProviderType(providerTypes ...string) (PlaceCategory, bool) {
	for _, t := range providerTypes {
		for c, pt := range placesProviderType {
			if pt == t {
				return c, true
			}
		}
	}
	return "", false
}

// Valid reports whether c is a known category.
func (c PlaceCategory) Valid() bool {
	_, ok := placesProviderType[c]
	return ok
}

// ParsePlaceCategory validates a raw category string.
func ParsePlaceCategory(s string) (PlaceCategory, error) {
	c := PlaceCategory(s)
	if !c.Valid() {
		return "", NewAppErrorWithDetails(
			ErrCodeValidationInvalidCategory,
			"unknown place category: "+s,
			nil,
			map[string]any{"allowed": AllPlaceCategories},
		)
	}
	return c, nil
}
