package routegen

import (
	"context"
	"time"

	"github.com/ColinToft/JogCoach/internal/provider"
	"github.com/ColinToft/JogCoach/internal/util/geo"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const (
	distanceWeight    = 10.0
	elevationMismatch = 50.0
)

// ElevationGainLoss sums the positive and negative steps of an elevation
// profile. Both are reported as non-negative metres.
func ElevationGainLoss(samples []float64) (gain, loss float64) {
	for i := 1; i < len(samples); i++ {
		step := samples[i] - samples[i-1]
		if step > 0 {
			gain += step
		} else {
			loss -= step
		}
	}
	return gain, loss
}

// ScoreValue is the score of a candidate: lower is better.
func ScoreValue(diffKm float64, elevationMatches bool) float64 {
	score := distanceWeight * diffKm
	if !elevationMatches {
		score += elevationMismatch
	}
	return score
}

// A Scorer looks up the elevation profile of candidates and ranks them.
type Scorer struct {
	elevation provider.ElevationSource
	timeout   time.Duration
	logger    log.Logger
}

func NewScorer(elevation provider.ElevationSource, timeout time.Duration, logger log.Logger) *Scorer {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Scorer{elevation: elevation, timeout: timeout, logger: logger}
}

// Score never fails. A candidate whose profile cannot be fetched is scored
// as perfectly flat. The distance term uses c.Diff, which for loops already
// carries the closure penalty.
func (s *Scorer) Score(ctx context.Context, c Candidate, req RouteRequest) ScoredCandidate {
	elevations := s.profile(ctx, c)
	gain, loss := ElevationGainLoss(elevations)

	ratio := 0.0
	if c.DistanceKm > 0 {
		ratio = gain / c.DistanceKm
	}

	return ScoredCandidate{
		Candidate:      c,
		Score:          ScoreValue(c.Diff, req.Elevation.Matches(ratio)),
		Elevations:     elevations,
		ElevationGainM: gain,
		ElevationLossM: loss,
	}
}

func (s *Scorer) profile(ctx context.Context, c Candidate) []float64 {
	flat := make([]float64, len(c.Path))
	if s.elevation == nil || len(c.Path) == 0 {
		return flat
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	elevations, err := s.elevation.Elevations(ctx, c.Path)
	if err != nil {
		level.Warn(s.logger).Log("msg", "elevation lookup failed, scoring as flat", "topology", c.Topology, "heading", c.Heading, "err", err)
		return flat
	}
	if len(elevations) != len(c.Path) {
		level.Warn(s.logger).Log("msg", "elevation sample count mismatch, scoring as flat", "want", len(c.Path), "got", len(elevations))
		return flat
	}
	return elevations
}

// pathElevations is used when rendering a path that was never scored.
func pathElevations(path []geo.Coordinate) []float64 {
	return make([]float64, len(path))
}
