// Package geo holds the spherical geometry used across the app: great-circle
// distance between coordinates, display formatting of distances, and
// slippy-map tile addressing for map images.
//
// Everything here is a pure function of its arguments. Inputs are not
// range-checked; callers validate coordinates at the API boundary.
package geo

import (
	"fmt"
	"math"

	"ridewise/internal/types"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// MaxDistanceMeters is half the circumference of the sphere, the largest value
// Distance can return for valid coordinates.
const MaxDistanceMeters = math.Pi * EarthRadiusMeters

// Distance returns the great-circle distance in meters between two points
// given in decimal degrees, using the haversine formula on a sphere.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	// Rounding can push a just past 1 for antipodal points.
	if a > 1 {
		a = 1
	}
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// DistanceBetween is Distance for two Locations.
func DistanceBetween(a, b types.Location) float64 {
	return Distance(a.Lat, a.Lon, b.Lat, b.Lon)
}

// PathLength sums the leg distances along an ordered path.
func PathLength(points []types.Location) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += DistanceBetween(points[i-1], points[i])
	}
	return total
}

// FormatDistance renders a distance for display: "" when absent, whole
// meters below one kilometer ("850m"), otherwise kilometers to one decimal
// place ("12.3km").
func FormatDistance(meters *float64) string {
	if meters == nil {
		return ""
	}
	m := *meters
	if m < 1000 {
		return fmt.Sprintf("%dm", int(math.Round(m)))
	}
	return fmt.Sprintf("%.1fkm", m/1000)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
