package routegen

import (
	"context"
	"testing"

	"github.com/ColinToft/JogCoach/internal/testutil"
	"github.com/ColinToft/JogCoach/internal/util/geo"

	"github.com/stretchr/testify/assert"
)

func TestElevationGainLoss(t *testing.T) {
	gain, loss := ElevationGainLoss([]float64{100, 110, 105, 120, 120})
	assert.Equal(t, 25.0, gain)
	assert.Equal(t, 5.0, loss)

	gain, loss = ElevationGainLoss([]float64{42})
	assert.Zero(t, gain)
	assert.Zero(t, loss)

	gain, loss = ElevationGainLoss(nil)
	assert.Zero(t, gain)
	assert.Zero(t, loss)
}

func TestScoreValue(t *testing.T) {
	assert.Equal(t, 5.0, ScoreValue(0.5, true))
	assert.Equal(t, 55.0, ScoreValue(0.5, false))
	assert.Equal(t, 0.0, ScoreValue(0, true))
}

// An east-west candidate of the given length
func straightCandidate(km, diff float64) Candidate {
	path := []geo.Coordinate{paris, geo.Destination(paris, km, 90)}
	return Candidate{Path: path, DistanceKm: geo.PathLength(path), Diff: diff}
}

func TestScorerFlatProfile(t *testing.T) {
	elevation := &testutil.ConstantElevation{Metres: 35}
	scorer := NewScorer(elevation, 0, nil)
	c := straightCandidate(10, 0.1)

	flat := scorer.Score(context.Background(), c, RouteRequest{DistanceKm: 10, Elevation: Flat})
	assert.InDelta(t, 1.0, flat.Score, 1e-9)
	assert.Zero(t, flat.ElevationGainM)
	assert.Len(t, flat.Elevations, 2)

	hilly := scorer.Score(context.Background(), c, RouteRequest{DistanceKm: 10, Elevation: Mountainous})
	assert.InDelta(t, 51.0, hilly.Score, 1e-9)
	assert.Equal(t, 2, elevation.Calls())
}

func TestScorerClassifiesClimbing(t *testing.T) {
	scorer := NewScorer(testutil.ClimbingElevation{GainPerKm: 20}, 0, nil)
	c := straightCandidate(10, 0)

	rolling := scorer.Score(context.Background(), c, RouteRequest{DistanceKm: 10, Elevation: Rolling})
	assert.InDelta(t, 200, rolling.ElevationGainM, 1e-6)
	assert.Zero(t, rolling.ElevationLossM)
	assert.InDelta(t, 0, rolling.Score, 1e-9)

	flat := scorer.Score(context.Background(), c, RouteRequest{DistanceKm: 10, Elevation: Flat})
	assert.InDelta(t, elevationMismatch, flat.Score, 1e-9)
}

func TestScorerDegradesToFlat(t *testing.T) {
	scorer := NewScorer(testutil.FailingElevation{}, 0, nil)
	c := straightCandidate(10, 0.2)

	scored := scorer.Score(context.Background(), c, RouteRequest{DistanceKm: 10, Elevation: Flat})

	assert.Equal(t, []float64{0, 0}, scored.Elevations)
	assert.InDelta(t, 2.0, scored.Score, 1e-9)
}

type shortElevation struct{}

func (shortElevation) Elevations(_ context.Context, _ []geo.Coordinate) ([]float64, error) {
	return []float64{10}, nil
}

func TestScorerRejectsMismatchedProfile(t *testing.T) {
	scorer := NewScorer(shortElevation{}, 0, nil)

	scored := scorer.Score(context.Background(), straightCandidate(5, 0), RouteRequest{DistanceKm: 5})

	assert.Equal(t, []float64{0, 0}, scored.Elevations)
}

func TestScorerZeroDistance(t *testing.T) {
	scorer := NewScorer(testutil.ClimbingElevation{GainPerKm: 100}, 0, nil)
	c := Candidate{Path: []geo.Coordinate{paris, paris}}

	scored := scorer.Score(context.Background(), c, RouteRequest{DistanceKm: 5, Elevation: Flat})

	assert.Zero(t, scored.Score, "a zero length route has a zero gain ratio")
}
