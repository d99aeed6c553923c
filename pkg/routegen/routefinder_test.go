package routegen

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ColinToft/JogCoach/internal/provider"
	"github.com/ColinToft/JogCoach/internal/testutil"
	"github.com/ColinToft/JogCoach/internal/util/errors"
	"github.com/ColinToft/JogCoach/internal/util/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(d float64, rt RouteType) RouteRequest {
	return RouteRequest{DistanceKm: d, RouteType: rt, Profile: provider.DefaultProfile()}
}

func TestTasksForBoth(t *testing.T) {
	tasks := tasksFor(RouteBoth)

	require.Len(t, tasks, 16)
	assert.Equal(t, task{topology: OutAndBack, heading: 0}, tasks[0])
	assert.Equal(t, task{topology: OutAndBack, heading: 315}, tasks[7])
	assert.Equal(t, task{topology: Loop, heading: 0}, tasks[8])

	assert.Len(t, tasksFor(RouteLoop), 8)
}

func TestMergeLowestScoreEarliestTie(t *testing.T) {
	results := []*ScoredCandidate{
		nil,
		{Candidate: Candidate{Heading: 45}, Score: 3},
		{Candidate: Candidate{Heading: 90}, Score: 1},
		{Candidate: Candidate{Heading: 135}, Score: 1},
		nil,
	}

	best := merge(results)

	require.NotNil(t, best)
	assert.Equal(t, 90.0, best.Heading)
	assert.Nil(t, merge([]*ScoredCandidate{nil, nil}))
}

func TestSelectParisOutAndBack(t *testing.T) {
	router := testutil.NewStretchRouter(1)
	elevation := &testutil.ConstantElevation{Metres: 35}
	traces := &traceRecorder{}
	finder := NewRouteFinder(router, elevation, Options{Workers: 3, Trace: traces.record})

	result, err := finder.Select(context.Background(), paris, request(10, RouteOutAndBack))

	require.NoError(t, err)
	assert.False(t, result.Fallback)
	assert.True(t, result.Converged)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, 4, result.Route.Iterations)
	assert.GreaterOrEqual(t, result.Metrics.DistanceKm, 9.8)
	assert.LessOrEqual(t, result.Metrics.DistanceKm, 10.2)
	assert.InDelta(t, math.Abs(result.Metrics.DistanceKm-10), result.DeviationKm, 1e-9)
	assert.Equal(t, int(math.Round(result.Metrics.DistanceKm*5)), result.Metrics.DurationMin)
	assert.Zero(t, result.Metrics.ElevationGainM)

	assert.Equal(t, 8*4, router.Calls(), "every heading is searched, none short-circuits")
	assert.Len(t, traces.all(), 8*4)
	assert.Equal(t, 8, elevation.Calls())
}

func TestSelectBothRunsSixteenTasks(t *testing.T) {
	traces := &traceRecorder{}
	finder := NewRouteFinder(testutil.NewStretchRouter(1.3), &testutil.ConstantElevation{}, Options{Trace: traces.record})

	result, err := finder.Select(context.Background(), paris, request(10, RouteBoth))

	require.NoError(t, err)
	assert.Equal(t, OutAndBack, result.Route.Topology, "out-and-back lands closer to 10 km")
	assert.True(t, result.Converged)

	var outAndBack, loop int
	for _, e := range traces.all() {
		if e.Topology == Loop {
			loop++
		} else {
			outAndBack++
		}
	}
	assert.Equal(t, 8*3, outAndBack)
	assert.Equal(t, 8*2, loop)
}

func TestSelectLoopMatchesElevation(t *testing.T) {
	finder := NewRouteFinder(testutil.NewStretchRouter(1.3), testutil.ClimbingElevation{GainPerKm: 50}, Options{})
	req := request(10, RouteLoop)
	req.Elevation = Mountainous

	result, err := finder.Select(context.Background(), paris, req)

	require.NoError(t, err)
	assert.Equal(t, Loop, result.Route.Topology)
	assert.Less(t, result.Route.Score, elevationMismatch)
	assert.Greater(t, result.Metrics.ElevationGainM, 400.0)
	assert.Equal(t, paris, result.Route.Path[len(result.Route.Path)-1])
}

func TestSelectFallback(t *testing.T) {
	router := &testutil.FailingRouter{}
	elevation := &testutil.ConstantElevation{Metres: 100}
	finder := NewRouteFinder(router, elevation, Options{})

	result, err := finder.Select(context.Background(), paris, request(10, RouteBoth))

	require.NoError(t, err)
	assert.True(t, result.Fallback)
	assert.False(t, result.Converged)
	assert.Equal(t, 16*maxIterations, router.Calls())
	assert.Equal(t, 0, elevation.Calls(), "the fallback is never sent for elevation")

	path := result.Route.Path
	require.Len(t, path, 51)
	assert.Equal(t, paris, path[0])
	assert.Equal(t, paris, path[50])
	assert.InDelta(t, 5, geo.Haversine(paris, path[25]), 1e-6)
	assert.InDelta(t, 90, geo.Bearing(paris, path[25]), 0.1)

	assert.InDelta(t, 10, result.Metrics.DistanceKm, 1e-6)
	assert.Zero(t, result.Metrics.ElevationGainM)
	assert.Zero(t, result.Metrics.ElevationLossM)
	assert.Equal(t, 50, result.Metrics.DurationMin)
}

func TestFallbackIsDeterministic(t *testing.T) {
	assert.Equal(t, Fallback(paris, 7), Fallback(paris, 7))
	assert.InDelta(t, 7, geo.PathLength(Fallback(paris, 7)), 1e-6)
}

func TestSelectRouteTimeoutFallsBack(t *testing.T) {
	finder := NewRouteFinder(testutil.BlockingRouter{}, nil, Options{Workers: 8, RouteTimeout: 5 * time.Millisecond})

	result, err := finder.Select(context.Background(), paris, request(5, RouteOutAndBack))

	require.NoError(t, err)
	assert.True(t, result.Fallback)
}

func TestSelectDeadlineKeepsBestSoFar(t *testing.T) {
	stretch := testutil.NewStretchRouter(2)
	var calls atomic.Int64
	router := provider.RouterFunc(func(ctx context.Context, a, b geo.Coordinate, p provider.Profile) ([]geo.Coordinate, error) {
		if calls.Add(1) == 1 {
			return stretch.Route(ctx, a, b, p)
		}
		<-ctx.Done()
		return nil, ctx.Err()
	})
	finder := NewRouteFinder(router, nil, Options{Workers: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := finder.Select(ctx, paris, request(10, RouteOutAndBack))

	require.NoError(t, err)
	assert.False(t, result.Fallback)
	assert.False(t, result.Converged)
	assert.Equal(t, 0.0, result.Route.Heading, "only the first heading got a route")
	assert.Equal(t, 1, result.Route.Iterations)
	assert.NotEmpty(t, result.Route.Path)
	assert.Greater(t, result.Metrics.DistanceKm, 10.2)
}

func TestSelectCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	router := testutil.NewStretchRouter(1.3)
	finder := NewRouteFinder(router, nil, Options{})

	result, err := finder.Select(ctx, paris, request(10, RouteLoop))

	require.NoError(t, err)
	assert.True(t, result.Fallback)
	assert.Equal(t, 0, router.Calls())
}

func TestSelectRejectsBadInput(t *testing.T) {
	finder := NewRouteFinder(testutil.NewStretchRouter(1), nil, Options{})

	_, err := finder.Select(context.Background(), geo.Coordinate{Lat: math.NaN(), Lon: 2}, request(10, RouteLoop))
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	_, err = finder.Select(context.Background(), geo.Coordinate{Lat: 91, Lon: 2}, request(10, RouteLoop))
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	_, err = finder.Select(context.Background(), paris, request(0, RouteLoop))
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}
