package routegen

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/ColinToft/JogCoach/internal/provider"
	"github.com/ColinToft/JogCoach/internal/testutil"
	"github.com/ColinToft/JogCoach/internal/util/errors"
	"github.com/ColinToft/JogCoach/internal/util/geo"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct{}

func (failingSource) RouterFor(_ context.Context, _ geo.Coordinate, _ float64) (provider.Router, error) {
	return nil, errors.NewProviderError("mapgraph", "no walkable ways around start", nil)
}

func newTestService(routers provider.RouterSource, geocoder provider.Geocoder) Service {
	return NewService(Providers{
		Routers:     routers,
		Elevation:   &testutil.ConstantElevation{Metres: 35},
		Geocoder:    geocoder,
		RoutingName: "stretch",
	}, Options{})
}

func generateRequest(start *geo.Coordinate, location string) GenerateRequest {
	return GenerateRequest{
		Start:         start,
		StartLocation: location,
		RouteRequest:  request(10, RouteOutAndBack),
	}
}

func TestGenerateRouteFromCoordinates(t *testing.T) {
	geocoder := testutil.StaticGeocoder{Address: "Place de la République, Paris"}
	svc := newTestService(provider.Static{Router: testutil.NewStretchRouter(1.3)}, geocoder)
	start := paris

	result, err := svc.GenerateRoute(context.Background(), generateRequest(&start, ""), nil)

	require.NoError(t, err)
	assert.Equal(t, paris, result.Start)
	assert.Equal(t, "Place de la République, Paris", result.StartAddress)
	assert.Contains(t, string(result.Outputs.GeoJSON), "LineString")
	assert.Contains(t, result.Outputs.GPX, "<trkpt")
	assert.Contains(t, result.Outputs.KML, "<kml")
	assert.NotEmpty(t, result.Outputs.Polyline)

	status := svc.Status(context.Background())
	assert.Equal(t, int64(1), status.GeneratedRoutes)
	assert.Equal(t, int64(0), status.FallbackRoutes)
	assert.False(t, status.GenerationInProgress)
	assert.Equal(t, "stretch", status.RoutingProvider)
}

func TestGenerateRouteFromLatLonText(t *testing.T) {
	svc := newTestService(provider.Static{Router: testutil.NewStretchRouter(1.3)}, nil)

	result, err := svc.GenerateRoute(context.Background(), generateRequest(nil, "48.8566, 2.3522"), nil)

	require.NoError(t, err)
	assert.InDelta(t, 48.8566, result.Start.Lat, 1e-9)
	assert.InDelta(t, 2.3522, result.Start.Lon, 1e-9)
	assert.Empty(t, result.StartAddress)
}

func TestGenerateRouteGeocodesAddress(t *testing.T) {
	geocoder := testutil.StaticGeocoder{Point: paris, Address: "ignored"}
	svc := newTestService(provider.Static{Router: testutil.NewStretchRouter(1.3)}, geocoder)

	result, err := svc.GenerateRoute(context.Background(), generateRequest(nil, "Place de la République"), nil)

	require.NoError(t, err)
	assert.Equal(t, paris, result.Start)
	assert.Equal(t, "Place de la République", result.StartAddress)
}

func TestGenerateRouteBadStart(t *testing.T) {
	geocoder := testutil.StaticGeocoder{Err: errors.NewProviderError("nominatim", "no results", nil)}
	svc := newTestService(provider.Static{Router: testutil.NewStretchRouter(1.3)}, geocoder)
	ctx := context.Background()

	_, err := svc.GenerateRoute(ctx, generateRequest(nil, "Nowhere"), nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	_, err = svc.GenerateRoute(ctx, generateRequest(nil, ""), nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	bad := geo.Coordinate{Lat: 100, Lon: 0}
	_, err = svc.GenerateRoute(ctx, generateRequest(&bad, ""), nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	assert.Equal(t, int64(3), svc.Status(ctx).FailedRequests)
}

func TestGenerateRouteFallsBackWithoutRouter(t *testing.T) {
	svc := newTestService(failingSource{}, nil)
	start := paris

	result, err := svc.GenerateRoute(context.Background(), generateRequest(&start, ""), nil)

	require.NoError(t, err)
	assert.True(t, result.Fallback)
	assert.Equal(t, 51, strings.Count(result.Outputs.GPX, "<trkpt"))
	assert.Equal(t, int64(1), svc.Status(context.Background()).FallbackRoutes)
}

func TestGenerateRouteForwardsTrace(t *testing.T) {
	svc := newTestService(provider.Static{Router: testutil.NewStretchRouter(1.3)}, nil)
	traces := &traceRecorder{}
	start := paris

	_, err := svc.GenerateRoute(context.Background(), generateRequest(&start, ""), traces.record)

	require.NoError(t, err)
	assert.Len(t, traces.all(), 8*3)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	svc := NewLoggingService(log.NewLogfmtLogger(&buf), newTestService(provider.Static{Router: testutil.NewStretchRouter(1.3)}, nil))
	start := paris

	_, err := svc.GenerateRoute(context.Background(), generateRequest(&start, ""), nil)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "method=generate_route")
	assert.Contains(t, buf.String(), "route_type=out_and_back")
	assert.Contains(t, buf.String(), "fallback=false")
}

type recordingCounter struct {
	mu     sync.Mutex
	labels [][]string
	total  float64
}

func (c *recordingCounter) With(labelValues ...string) metrics.Counter {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels = append(c.labels, labelValues)
	return c
}

func (c *recordingCounter) Add(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total += delta
}

type recordingHistogram struct {
	mu     sync.Mutex
	values []float64
}

func (h *recordingHistogram) With(...string) metrics.Histogram { return h }

func (h *recordingHistogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values = append(h.values, v)
}

func TestInstrumentingMiddleware(t *testing.T) {
	count := &recordingCounter{}
	latency := &recordingHistogram{}
	deviation := &recordingHistogram{}
	svc := NewInstrumentingService(Metrics{
		RequestCount:   count,
		RequestLatency: latency,
		Deviation:      deviation,
	}, newTestService(provider.Static{Router: testutil.NewStretchRouter(1.3)}, nil))
	start := paris

	result, err := svc.GenerateRoute(context.Background(), generateRequest(&start, ""), nil)
	require.NoError(t, err)
	_, err = svc.GenerateRoute(context.Background(), generateRequest(nil, ""), nil)
	require.Error(t, err)

	assert.Equal(t, 2.0, count.total)
	assert.Equal(t, []string{"route_type", "out_and_back", "fallback", "false", "error", "false"}, count.labels[0])
	assert.Equal(t, []string{"route_type", "out_and_back", "fallback", "false", "error", "true"}, count.labels[1])
	assert.Len(t, latency.values, 2)
	assert.Equal(t, []float64{result.DeviationKm}, deviation.values)
}
