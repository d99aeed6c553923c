package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOSRM     = "osrm"
	ProviderOverpass = "overpass"
)

// Config is the route service configuration. Values come from DefaultConfig,
// then the YAML file, then the environment.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Routing   RoutingConfig   `yaml:"routing"`
	Elevation ElevationConfig `yaml:"elevation"`
	Geocoding GeocodingConfig `yaml:"geocoding"`
	Cache     CacheConfig     `yaml:"cache"`
	Search    SearchConfig    `yaml:"search"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
	Port    string `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// RoutingConfig selects the routing provider. "osrm" queries an OSRM server,
// "overpass" routes on the network fetched through the map data service.
type RoutingConfig struct {
	Provider          string        `yaml:"provider"`
	OSRMURL           string        `yaml:"osrm_url"`
	MapDataURL        string        `yaml:"map_data_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	MaxSnapMetres     float64       `yaml:"max_snap_metres"`
}

type ElevationConfig struct {
	URL               string        `yaml:"url"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxPoints         int           `yaml:"max_points"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

type GeocodingConfig struct {
	URL       string        `yaml:"url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// CacheConfig configures the routed leg cache. An empty path disables it.
type CacheConfig struct {
	Path string        `yaml:"path"`
	TTL  time.Duration `yaml:"ttl"`
}

type SearchConfig struct {
	Workers        int           `yaml:"workers"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "127.0.0.1",
			Port:    "8080",
		},
		Log: LogConfig{
			Level: "info",
		},
		Routing: RoutingConfig{
			Provider:          ProviderOSRM,
			OSRMURL:           "https://router.project-osrm.org",
			MapDataURL:        "http://localhost:8081",
			Timeout:           15 * time.Second,
			RequestsPerSecond: 5,
			MaxSnapMetres:     500,
		},
		Elevation: ElevationConfig{
			URL:       "https://api.open-elevation.com/api/v1/lookup",
			Timeout:   30 * time.Second,
			MaxPoints: 100,
		},
		Geocoding: GeocodingConfig{
			URL:       "https://nominatim.openstreetmap.org",
			UserAgent: "JogCoach/1.0",
			Timeout:   10 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 7 * 24 * time.Hour,
		},
		Search: SearchConfig{
			Workers:        4,
			RequestTimeout: 90 * time.Second,
		},
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Address = envString("ADDRESS", c.Server.Address)
	c.Server.Port = envString("PORT", c.Server.Port)
	c.Log.Level = envString("LOG_LEVEL", c.Log.Level)
	c.Routing.Provider = envString("ROUTING_PROVIDER", c.Routing.Provider)
	c.Routing.OSRMURL = envString("OSRM_URL", c.Routing.OSRMURL)
	c.Routing.MapDataURL = envString("MAP_DATA_URL", c.Routing.MapDataURL)
	c.Elevation.URL = envString("ELEVATION_URL", c.Elevation.URL)
	c.Geocoding.URL = envString("NOMINATIM_URL", c.Geocoding.URL)
	c.Cache.Path = envString("ROUTE_CACHE_PATH", c.Cache.Path)

	if v, ok := os.LookupEnv("SEARCH_WORKERS"); ok {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SEARCH_WORKERS %q: %w", v, err)
		}
		c.Search.Workers = workers
	}
	return nil
}

// Validate checks values that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	switch c.Routing.Provider {
	case ProviderOSRM, ProviderOverpass:
	default:
		return fmt.Errorf("unknown routing provider %q", c.Routing.Provider)
	}
	if c.Search.Workers < 1 {
		return fmt.Errorf("search.workers must be at least 1, got %d", c.Search.Workers)
	}
	if c.Routing.Timeout <= 0 || c.Elevation.Timeout <= 0 {
		return fmt.Errorf("provider timeouts must be positive")
	}
	return nil
}

func envString(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
