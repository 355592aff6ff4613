package geogrid

import (
	"fmt"
	"math"
)

// EarthRadiusMiles is the mean Earth radius used for all great-circle math.
const EarthRadiusMiles = 3958.8

// DefaultZoom is the map zoom level sent to the ranking provider. The
// provider's own default (17) is street-level and returns empty result sets
// in low-density areas, so scans use a wider view by default.
const DefaultZoom = 14

// Distance returns the great-circle distance in miles between two
// coordinates, using the haversine formula.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lng2 - lng1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMiles * c
}

// Destination returns the coordinate reached by travelling distMiles from
// (lat, lng) along the given initial bearing (degrees clockwise from north),
// using the spherical destination-point formula. A flat-earth delta-degree
// approximation distorts badly at high latitudes or large radii, so grids
// are always built from this.
func Destination(lat, lng, bearingDeg, distMiles float64) (destLat, destLng float64) {
	phi := radians(lat)
	lambda := radians(lng)
	theta := radians(bearingDeg)
	delta := distMiles / EarthRadiusMiles

	phi2 := math.Asin(math.Sin(phi)*math.Cos(delta) +
		math.Cos(phi)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi),
		math.Cos(delta)-math.Sin(phi)*math.Sin(phi2),
	)

	return round7(degrees(phi2)), round7(normalizeLng(degrees(lambda2)))
}

// FormatCoordinate renders a coordinate as the "lat,lng,zoom" string the
// ranking provider expects. Pass zoom <= 0 to use DefaultZoom.
func FormatCoordinate(lat, lng float64, zoom int) string {
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	return fmt.Sprintf("%.7f,%.7f,%d", lat, lng, zoom)
}

// round7 rounds to 7 fractional digits (~1cm), enough for any mapping API.
func round7(v float64) float64 {
	return math.Round(v*1e7) / 1e7
}

func normalizeLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
