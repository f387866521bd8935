package geo

import (
	"math"
	"strconv"
)

const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether p lies within coordinate bounds. The zero point is
// treated as unknown.
func (p Point) Valid() bool {
	if p.Lat == 0 && p.Lng == 0 {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// DistanceKm is the great-circle distance between a and b, rounded to 0.1 km.
// Unknown points yield 0.
func DistanceKm(a, b Point) float64 {
	if !a.Valid() || !b.Valid() {
		return 0
	}
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return math.Round(earthRadiusKm*c*10) / 10
}

// FormatDistance renders km for display: meters below one kilometer,
// otherwise kilometers with at most one decimal ("850m", "3.2km").
func FormatDistance(km float64) string {
	if km < 1 {
		return strconv.Itoa(int(math.Round(km*1000))) + "m"
	}
	return strconv.FormatFloat(km, 'f', -1, 64) + "km"
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
