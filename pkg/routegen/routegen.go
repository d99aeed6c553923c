package routegen

// Route generation service implementation

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ColinToft/JogCoach/internal/clients/nominatim"
	"github.com/ColinToft/JogCoach/internal/provider"
	"github.com/ColinToft/JogCoach/internal/util/errors"
	"github.com/ColinToft/JogCoach/internal/util/geo"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// reverseTimeout bounds the best effort address lookup of the start
const reverseTimeout = 5 * time.Second

type routeGenService struct {
	routers      provider.RouterSource
	elevation    provider.ElevationSource
	geocoder     provider.Geocoder
	providerName string
	opts         Options
	logger       log.Logger

	generated atomic.Int64
	fallbacks atomic.Int64
	failed    atomic.Int64
	active    atomic.Int64
}

// Providers are the external collaborators of the service. Geocoder may be
// nil, in which case requests must give coordinates.
type Providers struct {
	Routers   provider.RouterSource
	Elevation provider.ElevationSource
	Geocoder  provider.Geocoder

	// Reported by Status
	RoutingName string
}

func NewService(p Providers, opts Options) Service {
	opts = opts.withDefaults()
	return &routeGenService{
		routers:      p.Routers,
		elevation:    p.Elevation,
		geocoder:     p.Geocoder,
		providerName: p.RoutingName,
		opts:         opts,
		logger:       log.With(opts.Logger, "component", "routegen"),
	}
}

func (s *routeGenService) GenerateRoute(ctx context.Context, req GenerateRequest, trace TraceFunc) (RouteResult, error) {
	s.active.Add(1)
	defer s.active.Add(-1)

	result, err := s.generate(ctx, req, trace)
	if err != nil {
		s.failed.Add(1)
		return RouteResult{}, err
	}

	s.generated.Add(1)
	if result.Fallback {
		s.fallbacks.Add(1)
	}
	return result, nil
}

func (s *routeGenService) generate(ctx context.Context, req GenerateRequest, trace TraceFunc) (RouteResult, error) {
	start, address, err := s.resolveStart(ctx, req)
	if err != nil {
		return RouteResult{}, err
	}
	if err := req.RouteRequest.Validate(); err != nil {
		return RouteResult{}, err
	}

	opts := s.opts
	opts.Trace = trace
	finder := NewRouteFinder(s.router(ctx, start, req.DistanceKm), s.elevation, opts)

	result, err := finder.Select(ctx, start, req.RouteRequest)
	if err != nil {
		return RouteResult{}, err
	}

	if address == "" {
		address = s.reverse(ctx, start)
	}
	result.StartAddress = address

	return Render(result)
}

// router returns the Router for this search. If none can be built, every
// route call fails and the search ends on the fallback.
func (s *routeGenService) router(ctx context.Context, start geo.Coordinate, distanceKm float64) provider.Router {
	if s.routers == nil {
		return failingRouter(errors.NewProviderError("routing", "no routing provider configured", nil))
	}

	router, err := s.routers.RouterFor(ctx, start, distanceKm)
	if err != nil {
		level.Warn(s.logger).Log("msg", "routing provider unavailable", "err", err)
		return failingRouter(err)
	}
	return router
}

func failingRouter(err error) provider.Router {
	return provider.RouterFunc(func(context.Context, geo.Coordinate, geo.Coordinate, provider.Profile) ([]geo.Coordinate, error) {
		return nil, err
	})
}

// resolveStart returns the start point and, when it came from an address, the
// address as typed.
func (s *routeGenService) resolveStart(ctx context.Context, req GenerateRequest) (geo.Coordinate, string, error) {
	if req.Start != nil {
		if !req.Start.Valid() {
			return geo.Coordinate{}, "", errors.InvalidArgument("start %v is not a valid coordinate", *req.Start)
		}
		return *req.Start, "", nil
	}

	if req.StartLocation == "" {
		return geo.Coordinate{}, "", errors.InvalidArgument("a start location is required")
	}

	if c, ok := nominatim.ParseLatLon(req.StartLocation); ok {
		return c, "", nil
	}

	if s.geocoder == nil {
		return geo.Coordinate{}, "", errors.InvalidArgument("cannot resolve address %q without a geocoder", req.StartLocation)
	}

	c, err := s.geocoder.Geocode(ctx, req.StartLocation)
	if err != nil {
		return geo.Coordinate{}, "", errors.InvalidArgument("could not find %q: %v", req.StartLocation, err)
	}
	return c, req.StartLocation, nil
}

func (s *routeGenService) reverse(ctx context.Context, start geo.Coordinate) string {
	if s.geocoder == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, reverseTimeout)
	defer cancel()

	address, err := s.geocoder.Reverse(ctx, start)
	if err != nil {
		level.Debug(s.logger).Log("msg", "reverse geocoding failed", "err", err)
		return ""
	}
	return address
}

func (s *routeGenService) Status(_ context.Context) Status {
	active := s.active.Load()
	return Status{
		GeneratedRoutes:      s.generated.Load(),
		FallbackRoutes:       s.fallbacks.Load(),
		FailedRequests:       s.failed.Load(),
		GenerationInProgress: active > 0,
		ActiveGenerations:    active,
		RoutingProvider:      s.providerName,
	}
}
