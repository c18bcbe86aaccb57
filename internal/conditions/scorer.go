// Package conditions turns weather readings into riding-suitability verdicts
// and classifies weather codes.
package conditions

import (
	"ridewise/internal/types"
)

// Neutral values substituted for fields the provider did not report.
const (
	DefaultTemperatureC      = 20.0
	DefaultWindSpeedMS       = 0.0
	DefaultPrecipitationMM   = 0.0
	DefaultPrecipProbability = 0.0
	DefaultWeatherCode       = 0
)

// LookaheadHours is how many hourly buckets, starting at the current hour,
// the rain lookahead inspects.
const LookaheadHours = 6

const (
	maxScore = 100
	minScore = 0
)

// Suitability thresholds, inclusive lower bounds.
const (
	ThresholdExcellent = 80
	ThresholdGood      = 60
	ThresholdFair      = 40
	ThresholdPoor      = 20
)

// band is one mutually exclusive deduction within a factor.
type band struct {
	penalty        int
	alert          string
	recommendation string
}

var (
	bandVeryCold = band{40, "Very cold - risk of frostbite", "Wear thermal gear, consider heated grips"}
	bandCold     = band{20, "Cold weather", "Wear warm layers"}
	bandVeryHot  = band{30, "Very hot - risk of heat exhaustion", "Stay hydrated, wear light clothing"}
	bandHot      = band{15, "Hot weather", "Drink water regularly"}

	bandGale       = band{50, "Very windy - dangerous riding conditions", "Avoid riding if possible, use extreme caution"}
	bandStrongWind = band{30, "Strong winds", "Lean into wind, reduce speed"}
	bandBreeze     = band{10, "Moderate winds", "Be cautious on exposed roads"}

	bandHeavyRain    = band{60, "Heavy rain - extremely dangerous", "Do not ride, seek shelter"}
	bandRain         = band{40, "Rain expected", "Wear waterproof gear, reduce speed, increase following distance"}
	bandPossibleRain = band{20, "Possible rain", "Check weather frequently, be prepared for rain"}

	bandThunderstorm = band{70, "Thunderstorm - extremely dangerous", "Do not ride, seek shelter immediately"}
	bandSnow         = band{50, "Snow/ice conditions", "Do not ride, roads may be icy"}
	bandFog          = band{15, "Foggy conditions", "Use headlights, reduce speed, increase following distance"}

	bandRainAhead = band{25, "Rain likely in next few hours", "Plan route to avoid bad weather"}
)

// Score rates a reading for riding. It starts from 100 and deducts at most one
// band per factor (temperature, wind, precipitation, weather code), then
// applies the hourly rain lookahead on top. Alerts appear in that same order.
//
// Score never fails. Absent fields take the neutral defaults above. A NaN
// field matches no band and so deducts nothing; callers that need stricter
// handling validate with types.ValidateReading first.
func Score(r types.WeatherReading) types.RidingConditions {
	s := scorer{score: maxScore, alerts: []string{}, recommendations: []string{}}

	s.apply(temperatureBand(valueOr(r.TemperatureC, DefaultTemperatureC)))
	s.apply(windBand(valueOr(r.WindSpeedMS, DefaultWindSpeedMS)))
	s.apply(precipitationBand(
		valueOr(r.PrecipitationMM, DefaultPrecipitationMM),
		valueOr(r.PrecipitationProbability, DefaultPrecipProbability),
	))
	code := DefaultWeatherCode
	if r.WeatherCode != nil {
		code = *r.WeatherCode
	}
	s.apply(weatherCodeBand(code))

	if r.Hourly != nil {
		if peak, ok := peakProbability(r.Hourly.PrecipitationProbability, LookaheadHours); ok && peak > 70 {
			s.apply(&bandRainAhead)
		}
	}

	if s.score < minScore {
		s.score = minScore
	}

	return types.RidingConditions{
		Score:           s.score,
		Suitability:     SuitabilityFor(s.score),
		Alerts:          s.alerts,
		Recommendations: s.recommendations,
	}
}

// SuitabilityFor maps a score to its category. Boundary values belong to the
// higher band.
func SuitabilityFor(score int) types.Suitability {
	switch {
	case score >= ThresholdExcellent:
		return types.SuitabilityExcellent
	case score >= ThresholdGood:
		return types.SuitabilityGood
	case score >= ThresholdFair:
		return types.SuitabilityFair
	case score >= ThresholdPoor:
		return types.SuitabilityPoor
	default:
		return types.SuitabilityDangerous
	}
}

type scorer struct {
	score           int
	alerts          []string
	recommendations []string
}

func (s *scorer) apply(b *band) {
	if b == nil {
		return
	}
	s.score -= b.penalty
	s.alerts = append(s.alerts, b.alert)
	s.recommendations = append(s.recommendations, b.recommendation)
}

func temperatureBand(t float64) *band {
	switch {
	case t < 5:
		return &bandVeryCold
	case t < 10:
		return &bandCold
	case t > 30:
		return &bandVeryHot
	case t > 25:
		return &bandHot
	}
	return nil
}

func windBand(w float64) *band {
	switch {
	case w > 15:
		return &bandGale
	case w > 10:
		return &bandStrongWind
	case w > 5:
		return &bandBreeze
	}
	return nil
}

func precipitationBand(mm, probability float64) *band {
	switch {
	case mm > 5 || probability > 80:
		return &bandHeavyRain
	case mm > 1 || probability > 60:
		return &bandRain
	case probability > 30:
		return &bandPossibleRain
	}
	return nil
}

func weatherCodeBand(code int) *band {
	switch code {
	case 95, 96, 99:
		return &bandThunderstorm
	case 71, 73, 75, 77:
		return &bandSnow
	case 45, 48:
		return &bandFog
	}
	return nil
}

// peakProbability returns the largest reported value among the first n
// entries. Missing entries are skipped; ok is false when none are present.
func peakProbability(series []*float64, n int) (peak float64, ok bool) {
	if len(series) < n {
		n = len(series)
	}
	for _, p := range series[:n] {
		if p == nil {
			continue
		}
		if !ok || *p > peak {
			peak = *p
			ok = true
		}
	}
	return peak, ok
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
