package graph

import (
	"context"
	"fmt"

	"github.com/ColinToft/JogCoach/internal/provider"
	"github.com/ColinToft/JogCoach/internal/util/errors"
	"github.com/ColinToft/JogCoach/internal/util/geo"
	"github.com/ColinToft/JogCoach/internal/util/mapdata"
)

const providerName = "mapgraph"

// DefaultMaxSnap is how far (metres) a point may lie from the network.
const DefaultMaxSnap = 500.0

// Router answers Route calls with shortest paths on a prebuilt graph. Both
// endpoints are snapped to their nearest network node and joined to it with a
// straight connector.
type Router struct {
	graph   *Graph
	maxSnap float64
}

func NewRouter(g *Graph, maxSnap float64) *Router {
	if maxSnap <= 0 {
		maxSnap = DefaultMaxSnap
	}
	return &Router{graph: g, maxSnap: maxSnap}
}

func (r *Router) Route(ctx context.Context, a, b geo.Coordinate, profile provider.Profile) ([]geo.Coordinate, error) {
	from, err := r.snap(a)
	if err != nil {
		return nil, err
	}
	to, err := r.snap(b)
	if err != nil {
		return nil, err
	}

	nodes, _, err := r.graph.ShortestPath(ctx, from, to, WeightsFor(profile))
	if err != nil {
		return nil, errors.NewProviderError(providerName, "no path", err)
	}

	path := make([]geo.Coordinate, 0, len(nodes)+2)
	path = append(path, a)
	for _, c := range r.graph.Coordinates(nodes) {
		if c != path[len(path)-1] {
			path = append(path, c)
		}
	}
	if b != path[len(path)-1] {
		path = append(path, b)
	}
	if len(path) < 2 {
		path = append(path, b)
	}
	return path, nil
}

func (r *Router) snap(c geo.Coordinate) (int, error) {
	node, dist := r.graph.Nearest(c)
	if node < 0 {
		return 0, errors.NewProviderError(providerName, "empty network", nil)
	}
	if dist > r.maxSnap {
		return 0, errors.NewProviderError(providerName, fmt.Sprintf("%v is %.0f m from the network", c, dist), nil)
	}
	return node, nil
}

// A Fetcher returns the Overpass highway data around a point. The map data
// service and its HTTP client both satisfy it.
type Fetcher interface {
	GetMapData(ctx context.Context, lat, lon, radius float64) (mapdata.MapData, error)
}

// Source builds a graph router for each search by fetching the network around
// the start point.
type Source struct {
	fetcher Fetcher
	maxSnap float64
}

func NewSource(f Fetcher, maxSnap float64) *Source {
	return &Source{fetcher: f, maxSnap: maxSnap}
}

// SearchRadius is the map radius in metres needed for a route of the given
// length starting at the centre.
func SearchRadius(distanceKm float64) float64 {
	return (0.6*distanceKm + 1) * 1000
}

func (s *Source) RouterFor(ctx context.Context, start geo.Coordinate, distanceKm float64) (provider.Router, error) {
	data, err := s.fetcher.GetMapData(ctx, start.Lat, start.Lon, SearchRadius(distanceKm))
	if err != nil {
		return nil, errors.NewProviderError(providerName, "fetching map data", err)
	}

	g := NewGraph(&data)
	if g.EdgeCount() == 0 {
		return nil, errors.NewProviderError(providerName, "no walkable ways around start", nil)
	}
	return NewRouter(g, s.maxSnap), nil
}
