// Package osrm implements a Router backed by the OSRM HTTP route service.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ColinToft/JogCoach/internal/provider"
	"github.com/ColinToft/JogCoach/internal/util/errors"
	"github.com/ColinToft/JogCoach/internal/util/geo"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/twpayne/go-polyline"
	"golang.org/x/time/rate"
)

const (
	providerName = "osrm"

	DefaultURL     = "https://router.project-osrm.org"
	DefaultTimeout = 15 * time.Second
)

// OSRM encodes polyline6 geometries with six decimal digits
var polyline6 = polyline.Codec{Dim: 2, Scale: 1e6}

type Config struct {
	URL               string
	Timeout           time.Duration
	RequestsPerSecond float64
}

type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     log.Logger
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Routes  []struct {
		Geometry string  `json:"geometry"`
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

// NewClient creates an OSRM router. A zero RequestsPerSecond disables rate limiting.
func NewClient(cfg Config, logger log.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		timeout:    cfg.Timeout,
		httpClient: &http.Client{},
		limiter:    limiter,
		logger:     log.With(logger, "component", providerName),
	}
}

// Route asks OSRM for the full geometry of the best route from a to b. The
// profile mode selects the OSRM profile, the surface flags are not understood
// by OSRM and are ignored.
func (c *Client) Route(ctx context.Context, a, b geo.Coordinate, profile provider.Profile) ([]geo.Coordinate, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.NewProviderError(providerName, "rate limit wait", err)
	}

	mode := profile.Mode
	if mode == "" {
		mode = provider.Foot
	}

	queryURL := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=polyline6",
		c.baseURL, mode, a.Lon, a.Lat, b.Lon, b.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, errors.NewProviderError(providerName, "building request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		level.Debug(c.logger).Log("during", "Route", "err", err)
		return nil, errors.NewProviderError(providerName, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		level.Debug(c.logger).Log("during", "Route", "status", resp.StatusCode, "body", string(body))
		return nil, errors.NewProviderError(providerName, fmt.Sprintf("HTTP %d", resp.StatusCode), nil)
	}

	var body routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.NewProviderError(providerName, "decoding response", err)
	}

	if body.Code != "Ok" || len(body.Routes) == 0 {
		return nil, errors.NewProviderError(providerName, fmt.Sprintf("no route (code %q)", body.Code), nil)
	}

	path, err := DecodeGeometry(body.Routes[0].Geometry)
	if err != nil {
		return nil, errors.NewProviderError(providerName, "decoding geometry", err)
	}
	if len(path) < 2 {
		return nil, errors.NewProviderError(providerName, "degenerate geometry", nil)
	}

	return path, nil
}

// DecodeGeometry turns a polyline6 string into coordinates.
func DecodeGeometry(encoded string) ([]geo.Coordinate, error) {
	coords, _, err := polyline6.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}

	path := make([]geo.Coordinate, len(coords))
	for i, c := range coords {
		path[i] = geo.Coordinate{Lat: c[0], Lon: c[1]}
	}
	return path, nil
}

// EncodeGeometry is the inverse of DecodeGeometry.
func EncodeGeometry(path []geo.Coordinate) string {
	coords := make([][]float64, len(path))
	for i, c := range path {
		coords[i] = []float64{c.Lat, c.Lon}
	}
	return string(polyline6.EncodeCoords(nil, coords))
}
