package mapdata

// Map data service implementation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ColinToft/JogCoach/internal/util/errors"
	"github.com/ColinToft/JogCoach/internal/util/geo"
	"github.com/ColinToft/JogCoach/internal/util/mapdata"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const (
	DefaultOverpassURL = "https://overpass-api.de/api/interpreter"
	DefaultTimeout     = 60 * time.Second

	// MaxRadius is the largest area (metres) one query may ask for
	MaxRadius = 70000.0
)

type Config struct {
	OverpassURL string
	Timeout     time.Duration
}

type mapDataService struct {
	url    string
	client *http.Client
	logger log.Logger
}

func NewService(cfg Config, logger log.Logger) Service {
	if cfg.OverpassURL == "" {
		cfg.OverpassURL = DefaultOverpassURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &mapDataService{
		url:    cfg.OverpassURL,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: log.With(logger, "component", "overpass"),
	}
}

// Query is the Overpass QL for every highway within radius metres of a
// point, with the nodes they reference.
func Query(lat, lon, radius float64) string {
	return fmt.Sprintf("[out:json];(way(around:%f,%f,%f)[highway];>;);out body;", radius, lat, lon)
}

func (s *mapDataService) GetMapData(ctx context.Context, lat, lon, radius float64) (mapdata.MapData, error) {
	var data mapdata.MapData

	if !(geo.Coordinate{Lat: lat, Lon: lon}).Valid() {
		return data, errors.InvalidArgument("lat/lon %f,%f out of range", lat, lon)
	}
	if !(radius > 0 && radius <= MaxRadius) {
		return data, errors.InvalidArgument("radius must be in (0, %v], got %v", MaxRadius, radius)
	}

	form := url.Values{}
	form.Set("data", Query(lat, lon, radius))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(form.Encode()))
	if err != nil {
		return data, errors.NewProviderError("overpass", "building request", err)
	}
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	level.Debug(s.logger).Log("msg", "querying map data", "lat", lat, "lon", lon, "radius", radius)
	begin := time.Now()

	resp, err := s.client.Do(req)
	if err != nil {
		return data, errors.NewProviderError("overpass", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return data, errors.NewProviderError("overpass", fmt.Sprintf("unexpected status %s", resp.Status), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return data, errors.NewProviderError("overpass", "decoding response", err)
	}

	nodes, ways := data.Counts()
	level.Info(s.logger).Log("msg", "map data loaded", "ways", ways, "nodes", nodes, "took", time.Since(begin))
	return data, nil
}
