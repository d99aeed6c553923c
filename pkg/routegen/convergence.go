package routegen

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ColinToft/JogCoach/internal/provider"
	"github.com/ColinToft/JogCoach/internal/util/errors"
	"github.com/ColinToft/JogCoach/internal/util/geo"
)

const (
	maxIterations = 10

	outAndBackStartFactor = 0.85
	loopStartFactor       = 0.80

	minFactor    = 0.5
	maxFactor    = 1.2
	shrinkFactor = 0.95
	growFactor   = 1.05

	// A loop whose last point is further than this from the start is open
	closureLimitKm = 0.05
	// km of penalty per km of closure error
	closurePenalty = 10.0

	loopTurn = 120.0
)

// adjustFactor nudges the projection factor towards the target and keeps it
// in [minFactor, maxFactor].
func adjustFactor(factor, measured, target float64) float64 {
	if measured > target {
		factor *= shrinkFactor
	} else {
		factor *= growFactor
	}
	return math.Max(minFactor, math.Min(maxFactor, factor))
}

// A TraceEvent describes one convergence iteration.
type TraceEvent struct {
	Topology       Topology `json:"topology"`
	Heading        float64  `json:"heading"`
	Iteration      int      `json:"iteration"`
	Factor         float64  `json:"factor"`
	DistanceKm     float64  `json:"distance_km,omitempty"`
	Diff           float64  `json:"diff_km,omitempty"`
	ClosureErrorKm float64  `json:"closure_error_km,omitempty"`
	Converged      bool     `json:"converged"`
	Err            string   `json:"err,omitempty"`
}

// TraceFunc receives iteration traces. It is called from several headings at
// once and must be safe for concurrent use.
type TraceFunc func(TraceEvent)

// accumulator is the best-so-far state folded through one heading's
// iterations.
type accumulator struct {
	best     *Candidate
	failures int
}

// fold keeps the lower diff. Ties keep the earlier candidate.
func (acc accumulator) fold(c Candidate) accumulator {
	if acc.best == nil || c.Diff < acc.best.Diff {
		acc.best = &c
	}
	return acc
}

func (acc accumulator) fail() accumulator {
	acc.failures++
	return acc
}

func (acc accumulator) result(heading float64) (Candidate, error) {
	if acc.best == nil {
		return Candidate{}, fmt.Errorf("heading %v: %w after %d failed iterations", heading, errors.ErrNoRoute, acc.failures)
	}
	return *acc.best, nil
}

// A Generator runs the convergence loops for one request.
type Generator struct {
	router       provider.Router
	profile      provider.Profile
	routeTimeout time.Duration
	trace        TraceFunc
}

func NewGenerator(router provider.Router, profile provider.Profile, routeTimeout time.Duration, trace TraceFunc) *Generator {
	if trace == nil {
		trace = func(TraceEvent) {}
	}
	return &Generator{router: router, profile: profile, routeTimeout: routeTimeout, trace: trace}
}

func (g *Generator) route(ctx context.Context, a, b geo.Coordinate) ([]geo.Coordinate, error) {
	if g.routeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.routeTimeout)
		defer cancel()
	}

	path, err := g.router.Route(ctx, a, b, g.profile)
	if err != nil {
		return nil, err
	}
	if len(path) < 2 {
		return nil, errors.NewProviderError("router", "path with fewer than two points", nil)
	}
	return path, nil
}

// OutAndBack searches a route that runs out along heading and retraces its
// steps, 2 x halfKm long in total.
func (g *Generator) OutAndBack(ctx context.Context, start geo.Coordinate, halfKm, heading float64) (Candidate, error) {
	target := 2 * halfKm
	tolerance := toleranceShare * target
	factor := outAndBackStartFactor
	acc := accumulator{}

	for iteration := 1; iteration <= maxIterations; iteration++ {
		if ctx.Err() != nil {
			break
		}

		event := TraceEvent{Topology: OutAndBack, Heading: heading, Iteration: iteration, Factor: factor}

		turnaround := geo.Destination(start, halfKm*factor, heading)
		outbound, err := g.route(ctx, start, turnaround)
		if err != nil {
			event.Err = err.Error()
			g.trace(event)
			acc = acc.fail()
			continue
		}

		path := geo.Join(outbound, geo.Reverse(outbound))
		measured := geo.PathLength(path)
		diff := math.Abs(measured - target)

		candidate := Candidate{
			Path:       path,
			Topology:   OutAndBack,
			Heading:    heading,
			DistanceKm: measured,
			Diff:       diff,
			Iterations: iteration,
			Converged:  diff <= tolerance,
		}
		acc = acc.fold(candidate)

		event.DistanceKm, event.Diff, event.Converged = measured, diff, candidate.Converged
		g.trace(event)

		if candidate.Converged {
			return candidate, nil
		}
		factor = adjustFactor(factor, measured, target)
	}

	return acc.result(heading)
}

// Loop searches a route that leaves along heading, turns twice by 120
// degrees and comes back to start, targetKm long in total.
func (g *Generator) Loop(ctx context.Context, start geo.Coordinate, targetKm, heading float64) (Candidate, error) {
	tolerance := toleranceShare * targetKm
	factor := loopStartFactor
	acc := accumulator{}

	for iteration := 1; iteration <= maxIterations; iteration++ {
		if ctx.Err() != nil {
			break
		}

		event := TraceEvent{Topology: Loop, Heading: heading, Iteration: iteration, Factor: factor}

		segment := targetKm * factor / 3
		p1 := geo.Destination(start, segment, heading)
		p2 := geo.Destination(p1, segment, geo.NormalizeBearing(heading+loopTurn))
		p3 := geo.Destination(p2, segment, geo.NormalizeBearing(heading+2*loopTurn))

		legs, err := g.legs(ctx, start, p1, p2, p3, start)
		if err != nil {
			event.Err = err.Error()
			g.trace(event)
			acc = acc.fail()
			continue
		}

		path := geo.Join(legs...)
		measured := geo.PathLength(path)
		closure := geo.Haversine(path[len(path)-1], start)
		diff := math.Abs(measured - targetKm)
		if closure > closureLimitKm {
			diff += closurePenalty * closure
		}

		candidate := Candidate{
			Path:           path,
			Topology:       Loop,
			Heading:        heading,
			DistanceKm:     measured,
			Diff:           diff,
			ClosureErrorKm: closure,
			Iterations:     iteration,
			Converged:      diff <= tolerance && closure <= closureLimitKm,
		}
		acc = acc.fold(candidate)

		event.DistanceKm, event.Diff, event.ClosureErrorKm, event.Converged = measured, diff, closure, candidate.Converged
		g.trace(event)

		if candidate.Converged {
			return candidate, nil
		}
		factor = adjustFactor(factor, measured, targetKm)
	}

	return acc.result(heading)
}

// legs routes every consecutive pair of waypoints. Any failure fails the lot.
func (g *Generator) legs(ctx context.Context, waypoints ...geo.Coordinate) ([][]geo.Coordinate, error) {
	legs := make([][]geo.Coordinate, 0, len(waypoints)-1)
	for i := 0; i < len(waypoints)-1; i++ {
		leg, err := g.route(ctx, waypoints[i], waypoints[i+1])
		if err != nil {
			return nil, fmt.Errorf("leg %d: %w", i+1, err)
		}
		legs = append(legs, leg)
	}
	return legs, nil
}
