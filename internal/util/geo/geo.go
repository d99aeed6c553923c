package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean radius of the spherical earth model, in kilometres.
const EarthRadiusKm = 6371.0

// A Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%f, %f)", c.Lat, c.Lon)
}

// Valid reports whether both components are finite and in range.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b Coordinate) float64 {
	aLat := toRadians(a.Lat)
	bLat := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(aLat)*math.Cos(bLat)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push h a hair above 1 for antipodal points
	h = math.Min(1, h)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// Bearing returns the initial compass bearing from a to b, in degrees [0, 360).
func Bearing(a, b Coordinate) float64 {
	aLat := toRadians(a.Lat)
	bLat := toRadians(b.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	x := math.Sin(dLon) * math.Cos(bLat)
	y := math.Cos(aLat)*math.Sin(bLat) - math.Sin(aLat)*math.Cos(bLat)*math.Cos(dLon)
	return NormalizeBearing(toDegrees(math.Atan2(x, y)))
}

// NormalizeBearing wraps any angle in degrees into [0, 360).
func NormalizeBearing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Destination projects a point distanceKm away from start along the great
// circle leaving start at the given bearing. A zero distance returns start
// unchanged.
func Destination(start Coordinate, distanceKm, bearing float64) Coordinate {
	if distanceKm == 0 {
		return start
	}

	lat := toRadians(start.Lat)
	lon := toRadians(start.Lon)
	brng := toRadians(bearing)
	delta := distanceKm / EarthRadiusKm

	lat2 := math.Asin(math.Sin(lat)*math.Cos(delta) + math.Cos(lat)*math.Sin(delta)*math.Cos(brng))
	lon2 := lon + math.Atan2(
		math.Sin(brng)*math.Sin(delta)*math.Cos(lat),
		math.Cos(delta)-math.Sin(lat)*math.Sin(lat2),
	)

	return Coordinate{Lat: toDegrees(lat2), Lon: normalizeLongitude(toDegrees(lon2))}
}

func normalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+540, 360) - 180
	if lon == -180 {
		return 180
	}
	return lon
}

// PathLength sums the haversine distance of every consecutive pair, in kilometres.
func PathLength(path []Coordinate) float64 {
	if len(path) < 2 {
		return 0
	}
	total := 0.0
	for i := 0; i < len(path)-1; i++ {
		total += Haversine(path[i], path[i+1])
	}
	return total
}

// Reverse returns a reversed copy of path.
func Reverse(path []Coordinate) []Coordinate {
	reversed := make([]Coordinate, len(path))
	for i, c := range path {
		reversed[len(path)-1-i] = c
	}
	return reversed
}

// Join concatenates legs that share their junction points. The first point of
// every leg after the first one is dropped since it repeats the previous leg's
// last point.
func Join(legs ...[]Coordinate) []Coordinate {
	size := 0
	for _, leg := range legs {
		size += len(leg)
	}

	joined := make([]Coordinate, 0, size)
	for i, leg := range legs {
		if i > 0 && len(joined) > 0 && len(leg) > 0 {
			leg = leg[1:]
		}
		joined = append(joined, leg...)
	}
	return joined
}
