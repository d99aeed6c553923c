package graph

import (
	"math"

	"github.com/ColinToft/JogCoach/internal/util/geo"
)

// The goal of this file is to find the network node closest to an arbitrary
// point without scanning every node. Nodes are bucketed into square zones of
// ZoneWidth degrees; a lookup scans rings of zones outwards from the zone of
// the point until no unscanned zone can hold anything closer.

// DefaultZoneWidth is about 550 m of latitude.
const DefaultZoneWidth = 0.005

const metresPerDegree = geo.EarthRadiusKm * 1000 * math.Pi / 180

type zone struct {
	x, y int
}

type ZoneMap struct {
	ZoneWidth float64
	Zones     map[zone][]int

	minX, maxX, minY, maxY int
}

func NewZoneMap(zoneWidth float64) *ZoneMap {
	return &ZoneMap{
		ZoneWidth: zoneWidth,
		Zones:     make(map[zone][]int),
		minX:      math.MaxInt,
		minY:      math.MaxInt,
		maxX:      math.MinInt,
		maxY:      math.MinInt,
	}
}

func (z *ZoneMap) zoneOf(c geo.Coordinate) zone {
	return zone{
		x: int(math.Floor(c.Lat / z.ZoneWidth)),
		y: int(math.Floor(c.Lon / z.ZoneWidth)),
	}
}

// Add puts node id at position c.
func (z *ZoneMap) Add(id int, c geo.Coordinate) {
	k := z.zoneOf(c)
	z.Zones[k] = append(z.Zones[k], id)

	z.minX, z.maxX = min(z.minX, k.x), max(z.maxX, k.x)
	z.minY, z.maxY = min(z.minY, k.y), max(z.maxY, k.y)
}

func (z *ZoneMap) Len() int {
	n := 0
	for _, ids := range z.Zones {
		n += len(ids)
	}
	return n
}

// ring calls f for every zone at Chebyshev distance r from centre.
func (z *ZoneMap) ring(centre zone, r int, f func(ids []int)) {
	if r == 0 {
		f(z.Zones[centre])
		return
	}
	for dx := -r; dx <= r; dx++ {
		f(z.Zones[zone{centre.x + dx, centre.y - r}])
		f(z.Zones[zone{centre.x + dx, centre.y + r}])
	}
	for dy := -r + 1; dy <= r-1; dy++ {
		f(z.Zones[zone{centre.x - r, centre.y + dy}])
		f(z.Zones[zone{centre.x + r, centre.y + dy}])
	}
}

// extent is how many rings around centre are needed to cover every zone.
func (z *ZoneMap) extent(centre zone) int {
	return max(
		abs(centre.x-z.minX), abs(centre.x-z.maxX),
		abs(centre.y-z.minY), abs(centre.y-z.maxY),
	)
}

// zoneMetres is a lower bound on the ground width of any zone up to rings
// zones poleward of lat. Longitude degrees shrink towards the poles.
func (z *ZoneMap) zoneMetres(lat float64, rings int) float64 {
	furthest := math.Min(math.Abs(lat)+float64(rings)*z.ZoneWidth, 90)
	return z.ZoneWidth * metresPerDegree * math.Max(math.Cos(furthest*math.Pi/180), 0.01)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Nearest returns the node closest to c, using position to look node
// coordinates up, and its distance in metres. It returns -1 when the map is
// empty.
func (z *ZoneMap) Nearest(c geo.Coordinate, position func(id int) geo.Coordinate) (int, float64) {
	best, bestDist := -1, math.MaxFloat64
	if len(z.Zones) == 0 {
		return best, bestDist
	}

	centre := z.zoneOf(c)
	last := z.extent(centre)
	for r := 0; r <= last; r++ {
		z.ring(centre, r, func(ids []int) {
			for _, id := range ids {
				if d := geo.Haversine(c, position(id)) * 1000; d < bestDist {
					best, bestDist = id, d
				}
			}
		})
		// Everything beyond ring r is at least r zones away
		if best >= 0 && bestDist <= float64(r)*z.zoneMetres(c.Lat, r+2) {
			break
		}
	}
	return best, bestDist
}
