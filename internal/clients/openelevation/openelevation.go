// Package openelevation implements an ElevationSource backed by the
// Open-Elevation lookup API.
package openelevation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ColinToft/JogCoach/internal/util/errors"
	"github.com/ColinToft/JogCoach/internal/util/geo"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/time/rate"
)

const (
	providerName = "open-elevation"

	DefaultURL       = "https://api.open-elevation.com/api/v1/lookup"
	DefaultTimeout   = 30 * time.Second
	DefaultMaxPoints = 100
)

type Config struct {
	URL               string
	Timeout           time.Duration
	MaxPoints         int
	RequestsPerSecond float64
}

type Client struct {
	url        string
	timeout    time.Duration
	maxPoints  int
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     log.Logger
}

type location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type lookupRequest struct {
	Locations []location `json:"locations"`
}

type lookupResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}

func NewClient(cfg Config, logger log.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxPoints <= 1 {
		cfg.MaxPoints = DefaultMaxPoints
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		url:        cfg.URL,
		timeout:    cfg.Timeout,
		maxPoints:  cfg.MaxPoints,
		httpClient: &http.Client{},
		limiter:    limiter,
		logger:     log.With(logger, "component", providerName),
	}
}

// Elevations looks up one elevation per point. Long polylines are sampled
// down to at most MaxPoints lookups and interpolated back to the input length.
func (c *Client) Elevations(ctx context.Context, points []geo.Coordinate) ([]float64, error) {
	if len(points) == 0 {
		return []float64{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.NewProviderError(providerName, "rate limit wait", err)
	}

	indices := SampleIndices(len(points), c.maxPoints)
	req := lookupRequest{Locations: make([]location, len(indices))}
	for i, idx := range indices {
		req.Locations[i] = location{Latitude: points[idx].Lat, Longitude: points[idx].Lon}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.NewProviderError(providerName, "encoding request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewProviderError(providerName, "building request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		level.Debug(c.logger).Log("during", "Elevations", "points", len(points), "err", err)
		return nil, errors.NewProviderError(providerName, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewProviderError(providerName, fmt.Sprintf("HTTP %d", resp.StatusCode), nil)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.NewProviderError(providerName, "decoding response", err)
	}
	if len(body.Results) != len(indices) {
		return nil, errors.NewProviderError(providerName,
			fmt.Sprintf("expected %d results, got %d", len(indices), len(body.Results)), nil)
	}

	samples := make([]float64, len(body.Results))
	for i, r := range body.Results {
		samples[i] = r.Elevation
	}

	return Interpolate(indices, samples, len(points)), nil
}

// SampleIndices picks at most max evenly strided indices out of n, always
// keeping the first and the last one.
func SampleIndices(n, max int) []int {
	if n <= max {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	stride := (n - 1 + max - 2) / (max - 1)
	indices := make([]int, 0, max)
	for i := 0; i < n-1; i += stride {
		indices = append(indices, i)
	}
	return append(indices, n-1)
}

// Interpolate expands samples taken at the given increasing indices back to n
// values by linear interpolation between neighbouring samples.
func Interpolate(indices []int, samples []float64, n int) []float64 {
	out := make([]float64, n)
	if len(samples) == 0 {
		return out
	}

	j := 0
	for i := 0; i < n; i++ {
		for j < len(indices)-1 && indices[j+1] <= i {
			j++
		}
		if j == len(indices)-1 || i <= indices[0] {
			out[i] = samples[j]
			continue
		}
		lo, hi := indices[j], indices[j+1]
		frac := float64(i-lo) / float64(hi-lo)
		out[i] = samples[j]*(1-frac) + samples[j+1]*frac
	}
	return out
}
