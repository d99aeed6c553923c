package nominatim

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

func newTestClient(url string) *Client {
	return NewClient(Config{URL: url, RequestsPerSecond: 1000}, log.NewNopLogger())
}

func TestGeocodeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Tour Eiffel, Paris", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))

		json.NewEncoder(w).Encode([]searchResult{
			{Lat: "48.8584", Lon: "2.2945", DisplayName: "Tour Eiffel"},
		})
	}))
	defer server.Close()

	coord, err := newTestClient(server.URL).Geocode(context.Background(), "Tour Eiffel, Paris")

	require.NoError(t, err)
	assert.Equal(t, geo.Coordinate{Lat: 48.8584, Lon: 2.2945}, coord)
}

func TestGeocodeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]searchResult{})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Geocode(context.Background(), "nowhere at all")

	require.Error(t, err)
	assert.True(t, errors.IsProviderError(err))
}

func TestGeocodeLatLonSkipsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("nominatim should not be called for a lat,lon pair")
	}))
	defer server.Close()

	coord, err := newTestClient(server.URL).Geocode(context.Background(), "48.8566, 2.3522")

	require.NoError(t, err)
	assert.Equal(t, geo.Coordinate{Lat: 48.8566, Lon: 2.3522}, coord)
}

func TestReverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "48.856600", r.URL.Query().Get("lat"))
		json.NewEncoder(w).Encode(reverseResult{DisplayName: "Hôtel de Ville, Paris"})
	}))
	defer server.Close()

	name, err := newTestClient(server.URL).Reverse(context.Background(), geo.Coordinate{Lat: 48.8566, Lon: 2.3522})

	require.NoError(t, err)
	assert.Equal(t, "Hôtel de Ville, Paris", name)
}

func TestReverseUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(reverseResult{Error: "Unable to geocode"})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Reverse(context.Background(), geo.Coordinate{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unable to geocode")
}

func TestParseLatLon(t *testing.T) {
	coord, ok := ParseLatLon("45.5,-73.6")
	assert.True(t, ok)
	assert.Equal(t, geo.Coordinate{Lat: 45.5, Lon: -73.6}, coord)

	_, ok = ParseLatLon("Montreal, QC")
	assert.False(t, ok)
	_, ok = ParseLatLon("95,10")
	assert.False(t, ok)
	_, ok = ParseLatLon("1,2,3")
	assert.False(t, ok)
}
