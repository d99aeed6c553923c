// Package testutil holds deterministic providers shared by tests.
package testutil

import (
	"context"
	"sync/atomic"

	"github.com/ColinToft/JogCoach/internal/provider"
	"github.com/ColinToft/JogCoach/internal/util/errors"
	"github.com/ColinToft/JogCoach/internal/util/geo"
)

// StretchRouter returns legs whose length is exactly Factor times the
// straight-line distance. The path runs straight to b, overshoots back towards
// a and returns to b so it still ends on the requested point.
type StretchRouter struct {
	Factor float64
	calls  atomic.Int64
}

func NewStretchRouter(factor float64) *StretchRouter {
	return &StretchRouter{Factor: factor}
}

func (r *StretchRouter) Route(ctx context.Context, a, b geo.Coordinate, _ provider.Profile) ([]geo.Coordinate, error) {
	r.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, errors.NewProviderError("stretch", "cancelled", err)
	}

	d := geo.Haversine(a, b)
	if r.Factor <= 1 || d == 0 {
		return []geo.Coordinate{a, b}, nil
	}

	detour := geo.Destination(b, (r.Factor-1)*d/2, geo.Bearing(b, a))
	return []geo.Coordinate{a, b, detour, b}, nil
}

func (r *StretchRouter) Calls() int { return int(r.calls.Load()) }

// FailingRouter fails every call.
type FailingRouter struct {
	calls atomic.Int64
}

func (r *FailingRouter) Route(_ context.Context, _, _ geo.Coordinate, _ provider.Profile) ([]geo.Coordinate, error) {
	r.calls.Add(1)
	return nil, errors.NewProviderError("failing", "unavailable", nil)
}

func (r *FailingRouter) Calls() int { return int(r.calls.Load()) }

// BlockingRouter waits for the context to end and then fails.
type BlockingRouter struct{}

func (BlockingRouter) Route(ctx context.Context, _, _ geo.Coordinate, _ provider.Profile) ([]geo.Coordinate, error) {
	<-ctx.Done()
	return nil, errors.NewProviderError("blocking", "deadline", ctx.Err())
}

// ConstantElevation reports the same altitude for every point.
type ConstantElevation struct {
	Metres float64
	calls  atomic.Int64
}

func (e *ConstantElevation) Elevations(_ context.Context, points []geo.Coordinate) ([]float64, error) {
	e.calls.Add(1)
	out := make([]float64, len(points))
	for i := range out {
		out[i] = e.Metres
	}
	return out, nil
}

func (e *ConstantElevation) Calls() int { return int(e.calls.Load()) }

// FailingElevation fails every lookup.
type FailingElevation struct{}

func (FailingElevation) Elevations(_ context.Context, _ []geo.Coordinate) ([]float64, error) {
	return nil, errors.NewProviderError("failing", "unavailable", nil)
}

// ClimbingElevation climbs GainPerKm metres per kilometre of path and never
// descends.
type ClimbingElevation struct {
	GainPerKm float64
}

func (e ClimbingElevation) Elevations(_ context.Context, points []geo.Coordinate) ([]float64, error) {
	out := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		out[i] = out[i-1] + geo.Haversine(points[i-1], points[i])*e.GainPerKm
	}
	return out, nil
}

// StaticGeocoder resolves every address to the same point.
type StaticGeocoder struct {
	Point   geo.Coordinate
	Address string
	Err     error
}

func (g StaticGeocoder) Geocode(_ context.Context, _ string) (geo.Coordinate, error) {
	if g.Err != nil {
		return geo.Coordinate{}, g.Err
	}
	return g.Point, nil
}

func (g StaticGeocoder) Reverse(_ context.Context, _ geo.Coordinate) (string, error) {
	if g.Err != nil {
		return "", g.Err
	}
	return g.Address, nil
}
