package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ColinToft/JogCoach/internal/util/errors"
	"github.com/ColinToft/JogCoach/internal/util/mapdata"
	"github.com/ColinToft/JogCoach/pkg/mapdata/endpoints"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	lat, lon, radius float64
}

func (f *fakeService) GetMapData(_ context.Context, lat, lon, radius float64) (mapdata.MapData, error) {
	if radius > 10000 {
		return mapdata.MapData{}, errors.InvalidArgument("radius too large")
	}
	f.lat, f.lon, f.radius = lat, lon, radius
	return mapdata.MapData{
		Generator: "fake",
		Elements: []mapdata.MapDataElement{
			{Type: "node", ID: 1, Lat: lat, Lon: lon},
		},
	}, nil
}

func newClient(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()
	svc := &fakeService{}
	server := httptest.NewServer(NewHTTPHandler(endpoints.NewEndpointSet(svc), log.NewNopLogger()))
	t.Cleanup(server.Close)
	return svc, server
}

func TestClientRoundTrip(t *testing.T) {
	svc, server := newClient(t)
	client, err := NewHTTPClient(server.URL)
	require.NoError(t, err)

	data, err := client.GetMapData(context.Background(), 48.8566, 2.3522, 7000)

	require.NoError(t, err)
	assert.Equal(t, "fake", data.Generator)
	require.Len(t, data.Elements, 1)
	assert.Equal(t, 48.8566, data.Elements[0].Lat)
	assert.Equal(t, 7000.0, svc.radius)
	assert.Equal(t, 2.3522, svc.lon)
}

func TestClientSurfacesServerErrors(t *testing.T) {
	_, server := newClient(t)
	client, err := NewHTTPClient(server.URL)
	require.NoError(t, err)

	_, err = client.GetMapData(context.Background(), 48.8566, 2.3522, 20000)

	assert.True(t, errors.IsProviderError(err))
	assert.Contains(t, err.Error(), "400")
}

func TestBadQuery(t *testing.T) {
	_, server := newClient(t)

	resp, err := http.Get(server.URL + "/api/mapdata?lat=48.85&lon=east&radius=100")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNewHTTPClientAddsScheme(t *testing.T) {
	_, err := NewHTTPClient("localhost:8081")
	assert.NoError(t, err)
}
