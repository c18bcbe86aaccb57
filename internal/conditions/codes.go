package conditions

import (
	"sort"

	"ridewise/internal/types"
)

// UnknownLabel is returned for absent or unmapped weather codes.
const UnknownLabel = "Unknown"

type codeEntry struct {
	label  string
	symbol types.WeatherSymbol
}

// WMO weather interpretation codes as reported by Open-Meteo.
var weatherCodes = map[int]codeEntry{
	0:  {"Clear sky", types.SymbolClear},
	1:  {"Mainly clear", types.SymbolMostlyClear},
	2:  {"Partly cloudy", types.SymbolPartlyCloudy},
	3:  {"Overcast", types.SymbolCloudy},
	45: {"Fog", types.SymbolFog},
	48: {"Depositing rime fog", types.SymbolFog},
	51: {"Light drizzle", types.SymbolDrizzle},
	53: {"Moderate drizzle", types.SymbolDrizzle},
	55: {"Dense drizzle", types.SymbolDrizzle},
	56: {"Light freezing drizzle", types.SymbolFreezingDrizzle},
	57: {"Dense freezing drizzle", types.SymbolFreezingDrizzle},
	61: {"Slight rain", types.SymbolRain},
	63: {"Moderate rain", types.SymbolRain},
	65: {"Heavy rain", types.SymbolRain},
	66: {"Light freezing rain", types.SymbolFreezingRain},
	67: {"Heavy freezing rain", types.SymbolFreezingRain},
	71: {"Slight snow fall", types.SymbolSnow},
	73: {"Moderate snow fall", types.SymbolSnow},
	75: {"Heavy snow fall", types.SymbolSnow},
	77: {"Snow grains", types.SymbolSnow},
	80: {"Slight rain showers", types.SymbolShowers},
	81: {"Moderate rain showers", types.SymbolShowers},
	82: {"Violent rain showers", types.SymbolShowers},
	85: {"Slight snow showers", types.SymbolSnowShowers},
	86: {"Heavy snow showers", types.SymbolSnowShowers},
	95: {"Thunderstorm", types.SymbolThunderstorm},
	96: {"Thunderstorm with slight hail", types.SymbolThunderstorm},
	99: {"Thunderstorm with heavy hail", types.SymbolThunderstorm},
}

// Classify maps a weather code to its label and symbol. A nil or unmapped
// code yields the Unknown label and the unknown symbol; the code itself is
// echoed back when given.
func Classify(code *int) types.WeatherCodeInfo {
	info := types.WeatherCodeInfo{
		Code:   code,
		Label:  UnknownLabel,
		Symbol: types.SymbolUnknown,
	}
	if code != nil {
		if e, ok := weatherCodes[*code]; ok {
			info.Label = e.label
			info.Symbol = e.symbol
		}
	}
	info.Emoji = info.Symbol.Emoji()
	return info
}

// KnownCodes returns every mapped weather code in ascending order.
func KnownCodes() []int {
	codes := make([]int, 0, len(weatherCodes))
	for c := range weatherCodes {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes
}
