// Package nominatim implements a Geocoder backed by the OpenStreetMap
// Nominatim search API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ColinToft/JogCoach/internal/util/errors"
	"github.com/ColinToft/JogCoach/internal/util/geo"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/time/rate"
)

const (
	providerName = "nominatim"

	DefaultURL       = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "JogCoach/1.0"
	DefaultTimeout   = 10 * time.Second
)

type Config struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
	// Nominatim's usage policy allows one request per second
	RequestsPerSecond float64
}

type Client struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     log.Logger
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type reverseResult struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error,omitempty"`
}

func NewClient(cfg Config, logger log.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:     log.With(logger, "component", providerName),
	}
}

// Geocode resolves a free text address. A "lat,lon" pair is parsed directly
// without contacting Nominatim.
func (c *Client) Geocode(ctx context.Context, address string) (geo.Coordinate, error) {
	if coord, ok := ParseLatLon(address); ok {
		return coord, nil
	}

	var results []searchResult
	params := url.Values{"q": {address}, "format": {"json"}, "limit": {"1"}}
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return geo.Coordinate{}, err
	}

	if len(results) == 0 {
		return geo.Coordinate{}, errors.NewProviderError(providerName, fmt.Sprintf("no results for %q", address), nil)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return geo.Coordinate{}, errors.NewProviderError(providerName, "invalid latitude", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return geo.Coordinate{}, errors.NewProviderError(providerName, "invalid longitude", err)
	}

	level.Debug(c.logger).Log("during", "Geocode", "address", address, "lat", lat, "lon", lon)
	return geo.Coordinate{Lat: lat, Lon: lon}, nil
}

// Reverse returns the display name of the place closest to the coordinate.
func (c *Client) Reverse(ctx context.Context, coord geo.Coordinate) (string, error) {
	var result reverseResult
	params := url.Values{
		"lat":    {strconv.FormatFloat(coord.Lat, 'f', 6, 64)},
		"lon":    {strconv.FormatFloat(coord.Lon, 'f', 6, 64)},
		"format": {"json"},
	}
	if err := c.get(ctx, "/reverse", params, &result); err != nil {
		return "", err
	}
	if result.Error != "" {
		return "", errors.NewProviderError(providerName, result.Error, nil)
	}
	return result.DisplayName, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return errors.NewProviderError(providerName, "rate limit wait", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return errors.NewProviderError(providerName, "building request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewProviderError(providerName, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.NewProviderError(providerName, fmt.Sprintf("HTTP %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewProviderError(providerName, "decoding response", err)
	}
	return nil
}

// ParseLatLon accepts "lat,lon" with optional spaces.
func ParseLatLon(s string) (geo.Coordinate, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geo.Coordinate{}, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.Coordinate{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.Coordinate{}, false
	}

	coord := geo.Coordinate{Lat: lat, Lon: lon}
	return coord, coord.Valid()
}
