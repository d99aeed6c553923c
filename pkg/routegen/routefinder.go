package routegen

import (
	"context"
	"math"
	"time"

	"github.com/ColinToft/JogCoach/internal/provider"
	"github.com/ColinToft/JogCoach/internal/util/errors"
	"github.com/ColinToft/JogCoach/internal/util/geo"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/lithammer/shortuuid/v3"
	"golang.org/x/sync/errgroup"
)

// Headings are the compass bearings every search tries, in attempt order.
var Headings = [...]float64{0, 45, 90, 135, 180, 225, 270, 315}

const (
	DefaultWorkers          = 4
	DefaultRouteTimeout     = 15 * time.Second
	DefaultElevationTimeout = 30 * time.Second

	// Samples on each half of the synthetic fallback route
	fallbackSteps   = 25
	fallbackHeading = 90.0
)

type Options struct {
	// Number of headings searched at once
	Workers int

	RouteTimeout     time.Duration
	ElevationTimeout time.Duration

	// Optional, receives every convergence iteration
	Trace TraceFunc

	Logger log.Logger
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.RouteTimeout <= 0 {
		o.RouteTimeout = DefaultRouteTimeout
	}
	if o.ElevationTimeout <= 0 {
		o.ElevationTimeout = DefaultElevationTimeout
	}
	if o.Logger == nil {
		o.Logger = log.NewNopLogger()
	}
	return o
}

// A RouteFinder searches every heading for the requested topologies and keeps
// the best scored candidate.
type RouteFinder struct {
	router provider.Router
	scorer *Scorer
	opts   Options
	logger log.Logger
}

// NewRouteFinder creates a new route finder.
func NewRouteFinder(router provider.Router, elevation provider.ElevationSource, opts Options) *RouteFinder {
	opts = opts.withDefaults()
	logger := log.With(opts.Logger, "component", "routefinder")
	return &RouteFinder{
		router: router,
		scorer: NewScorer(elevation, opts.ElevationTimeout, logger),
		opts:   opts,
		logger: logger,
	}
}

type task struct {
	topology Topology
	heading  float64
}

func tasksFor(rt RouteType) []task {
	var tasks []task
	for _, topology := range rt.Topologies() {
		for _, heading := range Headings {
			tasks = append(tasks, task{topology: topology, heading: heading})
		}
	}
	return tasks
}

// Select runs the search and always returns a route for a valid request. When
// no heading produced a candidate the result is the synthetic fallback.
func (rf *RouteFinder) Select(ctx context.Context, start geo.Coordinate, req RouteRequest) (RouteResult, error) {
	if !start.Valid() {
		return RouteResult{}, errors.InvalidArgument("start %v is not a valid coordinate", start)
	}
	if err := req.Validate(); err != nil {
		return RouteResult{}, err
	}

	gen := NewGenerator(rf.router, req.Profile, rf.opts.RouteTimeout, rf.opts.Trace)
	tasks := tasksFor(req.RouteType)
	results := make([]*ScoredCandidate, len(tasks))

	var g errgroup.Group
	g.SetLimit(rf.opts.Workers)
	for i, t := range tasks {
		g.Go(func() error {
			var (
				c   Candidate
				err error
			)
			switch t.topology {
			case Loop:
				c, err = gen.Loop(ctx, start, req.DistanceKm, t.heading)
			default:
				c, err = gen.OutAndBack(ctx, start, req.DistanceKm/2, t.heading)
			}
			if err != nil {
				level.Debug(rf.logger).Log("msg", "heading produced no candidate", "topology", t.topology, "heading", t.heading, "err", err)
				return nil
			}

			scored := rf.scorer.Score(ctx, c, req)
			results[i] = &scored
			return nil
		})
	}
	// Tasks recover their own failures
	_ = g.Wait()

	best := merge(results)
	if best == nil {
		level.Warn(rf.logger).Log("msg", "no candidate route, using fallback", "lat", start.Lat, "lon", start.Lon, "distance_km", req.DistanceKm)
		return newResult(start, req, fallbackCandidate(start, req), true), nil
	}

	level.Info(rf.logger).Log("msg", "route selected", "topology", best.Topology, "heading", best.Heading, "distance_km", best.DistanceKm, "score", best.Score, "converged", best.Converged)
	return newResult(start, req, *best, false), nil
}

// merge returns the lowest score. Ties go to the earliest task.
func merge(results []*ScoredCandidate) *ScoredCandidate {
	var best *ScoredCandidate
	for _, r := range results {
		if r == nil {
			continue
		}
		if best == nil || r.Score < best.Score {
			best = r
		}
	}
	return best
}

func newResult(start geo.Coordinate, req RouteRequest, route ScoredCandidate, fallback bool) RouteResult {
	return RouteResult{
		ID:          shortuuid.New(),
		Start:       start,
		Request:     req,
		Route:       route,
		Metrics:     ComputeMetrics(route.Path, route.Elevations),
		Fallback:    fallback,
		Converged:   route.Converged && !fallback,
		DeviationKm: math.Abs(route.DistanceKm - req.DistanceKm),
	}
}

// Fallback is a straight out-and-back due east of start. It needs no
// provider and cannot fail.
func Fallback(start geo.Coordinate, distanceKm float64) []geo.Coordinate {
	half := distanceKm / 2
	path := make([]geo.Coordinate, 0, 2*fallbackSteps+1)
	path = append(path, start)
	for i := 1; i <= fallbackSteps; i++ {
		path = append(path, geo.Destination(start, half*float64(i)/fallbackSteps, fallbackHeading))
	}
	for i := fallbackSteps - 1; i >= 0; i-- {
		path = append(path, path[i])
	}
	return path
}

func fallbackCandidate(start geo.Coordinate, req RouteRequest) ScoredCandidate {
	path := Fallback(start, req.DistanceKm)
	measured := geo.PathLength(path)
	diff := math.Abs(measured - req.DistanceKm)

	return ScoredCandidate{
		Candidate: Candidate{
			Path:       path,
			Topology:   OutAndBack,
			Heading:    fallbackHeading,
			DistanceKm: measured,
			Diff:       diff,
		},
		Score:      ScoreValue(diff, req.Elevation.Matches(0)),
		Elevations: pathElevations(path),
	}
}
