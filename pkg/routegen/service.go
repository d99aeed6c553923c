package routegen

import (
	"context"

	"github.com/ColinToft/JogCoach/internal/util/geo"
)

// A GenerateRequest asks for one route. The start is either given directly
// or resolved from StartLocation, a free text address or "lat,lon".
type GenerateRequest struct {
	Start         *geo.Coordinate
	StartLocation string
	RouteRequest
}

type Service interface {
	// GenerateRoute searches and renders a route. trace may be nil.
	GenerateRoute(ctx context.Context, req GenerateRequest, trace TraceFunc) (RouteResult, error)

	Status(ctx context.Context) Status
}
