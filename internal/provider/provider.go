// Package provider declares the external collaborators the route search
// depends on.
package provider

import (
	"context"
	"fmt"

	"github.com/ColinToft/JogCoach/internal/util/geo"
)

// Foot is the travel mode used for every running route.
const Foot = "foot"

// A Profile is the routing hint forwarded to a Router. The route search never
// interprets it.
type Profile struct {
	Mode           string `json:"mode"`
	AvoidBusyRoads bool   `json:"avoid_busy_roads"`
	PreferParks    bool   `json:"prefer_parks"`
}

// DefaultProfile is a foot profile that avoids busy roads and favours parks.
func DefaultProfile() Profile {
	return Profile{Mode: Foot, AvoidBusyRoads: true, PreferParks: true}
}

// Key is a stable string form of the profile, used for caching.
func (p Profile) Key() string {
	mode := p.Mode
	if mode == "" {
		mode = Foot
	}
	return fmt.Sprintf("%s:busy=%t:parks=%t", mode, !p.AvoidBusyRoads, p.PreferParks)
}

// A Router returns a ground-following polyline from a to b.
type Router interface {
	Route(ctx context.Context, a, b geo.Coordinate, profile Profile) ([]geo.Coordinate, error)
}

// RouterFunc adapts a function to the Router interface.
type RouterFunc func(ctx context.Context, a, b geo.Coordinate, profile Profile) ([]geo.Coordinate, error)

func (f RouterFunc) Route(ctx context.Context, a, b geo.Coordinate, profile Profile) ([]geo.Coordinate, error) {
	return f(ctx, a, b, profile)
}

// An ElevationSource returns one elevation sample in metres per input point.
type ElevationSource interface {
	Elevations(ctx context.Context, points []geo.Coordinate) ([]float64, error)
}

// A Geocoder resolves free text addresses to coordinates and back.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (geo.Coordinate, error)
	Reverse(ctx context.Context, c geo.Coordinate) (string, error)
}

// A RouterSource hands out the Router for one search. Graph backed routers
// need the start and length to know which area to load.
type RouterSource interface {
	RouterFor(ctx context.Context, start geo.Coordinate, distanceKm float64) (Router, error)
}

// Static is a RouterSource that always returns the same Router.
type Static struct {
	Router Router
}

func (s Static) RouterFor(_ context.Context, _ geo.Coordinate, _ float64) (Router, error) {
	return s.Router, nil
}
