package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ColinToft/JogCoach/internal/util/errors"
	"github.com/ColinToft/JogCoach/internal/util/mapdata"
	svc "github.com/ColinToft/JogCoach/pkg/mapdata"
	"github.com/ColinToft/JogCoach/pkg/mapdata/endpoints"

	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/go-kit/log"
)

const mapDataPath = "/api/mapdata"

func NewHTTPHandler(ep endpoints.Set, logger log.Logger) http.Handler {
	m := http.NewServeMux()

	m.Handle("GET "+mapDataPath, httptransport.NewServer(
		ep.GetMapDataEndpoint,
		decodeGetMapDataRequest,
		encodeResponse,
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		httptransport.ServerErrorEncoder(encodeError),
	))

	return m
}

// NewHTTPClient returns a Service backed by the map data server at instance.
func NewHTTPClient(instance string) (svc.Service, error) {
	if !strings.HasPrefix(instance, "http") {
		instance = "http://" + instance
	}
	u, err := url.Parse(instance)
	if err != nil {
		return nil, err
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + mapDataPath

	return endpoints.Set{
		GetMapDataEndpoint: httptransport.NewClient(
			http.MethodGet,
			u,
			encodeGetMapDataRequest,
			decodeGetMapDataResponse,
		).Endpoint(),
	}, nil
}

func decodeGetMapDataRequest(_ context.Context, r *http.Request) (interface{}, error) {
	// Decode the query parameters into a struct
	var req endpoints.GetMapDataRequest
	q := r.URL.Query()
	fields := []struct {
		name string
		dst  *float64
	}{
		{"lat", &req.Lat},
		{"lon", &req.Lon},
		{"radius", &req.Radius},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(q.Get(f.name), 64)
		if err != nil {
			return nil, errors.InvalidArgument("%s: %v", f.name, err)
		}
		*f.dst = v
	}
	return req, nil
}

func encodeGetMapDataRequest(_ context.Context, r *http.Request, request interface{}) error {
	req := request.(endpoints.GetMapDataRequest)
	q := r.URL.Query()
	q.Set("lat", strconv.FormatFloat(req.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(req.Lon, 'f', -1, 64))
	q.Set("radius", strconv.FormatFloat(req.Radius, 'f', -1, 64))
	r.URL.RawQuery = q.Encode()
	return nil
}

func decodeGetMapDataResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		return nil, errors.NewProviderError("mapdata", fmt.Sprintf("status %d: %s", r.StatusCode, body.Error), nil)
	}

	var data mapdata.MapData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return nil, errors.NewProviderError("mapdata", "decoding response", err)
	}
	return data, nil
}

func encodeResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(response)
}

func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	switch {
	case errors.Is(err, errors.ErrUnknown):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, errors.ErrInvalidArgument):
		w.WriteHeader(http.StatusBadRequest)
	case errors.IsProviderError(err):
		w.WriteHeader(http.StatusBadGateway)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}
