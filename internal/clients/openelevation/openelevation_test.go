package openelevation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ColinToft/JogCoach/internal/util/errors"
	"github.com/ColinToft/JogCoach/internal/util/geo"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Elevation grows by one metre per 0.001 degrees of latitude
func slopeServer(t *testing.T, calls *int, maxLocations int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		assert.Equal(t, http.MethodPost, r.Method)

		var req lookupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.LessOrEqual(t, len(req.Locations), maxLocations)

		results := make([]map[string]float64, len(req.Locations))
		for i, l := range req.Locations {
			results[i] = map[string]float64{
				"latitude":  l.Latitude,
				"longitude": l.Longitude,
				"elevation": (l.Latitude - 48) * 1000,
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"results": results})
	}))
}

func line(n int) []geo.Coordinate {
	points := make([]geo.Coordinate, n)
	for i := range points {
		points[i] = geo.Coordinate{Lat: 48 + float64(i)*0.001, Lon: 2}
	}
	return points
}

func TestElevationsSmallInput(t *testing.T) {
	calls := 0
	server := slopeServer(t, &calls, 10)
	defer server.Close()

	client := NewClient(Config{URL: server.URL}, log.NewNopLogger())
	elevations, err := client.Elevations(context.Background(), line(10))

	require.NoError(t, err)
	require.Len(t, elevations, 10)
	assert.Equal(t, 1, calls)
	assert.InDelta(t, 0, elevations[0], 1e-6)
	assert.InDelta(t, 9, elevations[9], 1e-6)
}

func TestElevationsDownsamplesAndInterpolates(t *testing.T) {
	calls := 0
	server := slopeServer(t, &calls, DefaultMaxPoints)
	defer server.Close()

	client := NewClient(Config{URL: server.URL}, log.NewNopLogger())
	elevations, err := client.Elevations(context.Background(), line(450))

	require.NoError(t, err)
	require.Len(t, elevations, 450)
	// The slope is linear so interpolation recovers it exactly
	for i, e := range elevations {
		assert.InDelta(t, float64(i), e, 1e-6, "index %d", i)
	}
}

func TestElevationsEmpty(t *testing.T) {
	client := NewClient(Config{URL: "http://127.0.0.1:1"}, log.NewNopLogger())
	elevations, err := client.Elevations(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, elevations)
}

func TestElevationsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL}, log.NewNopLogger())
	_, err := client.Elevations(context.Background(), line(5))

	require.Error(t, err)
	assert.True(t, errors.IsProviderError(err))
}

func TestSampleIndices(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, SampleIndices(3, 100))

	indices := SampleIndices(1000, 100)
	assert.LessOrEqual(t, len(indices), 100)
	assert.Equal(t, 0, indices[0])
	assert.Equal(t, 999, indices[len(indices)-1])
	for i := 1; i < len(indices); i++ {
		assert.Greater(t, indices[i], indices[i-1])
	}
}

func TestInterpolate(t *testing.T) {
	out := Interpolate([]int{0, 4}, []float64{10, 30}, 5)
	assert.Equal(t, []float64{10, 15, 20, 25, 30}, out)

	assert.Equal(t, []float64{0, 0}, Interpolate(nil, nil, 2))
}
