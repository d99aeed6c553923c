package main

// The code to start and stop the HTTP server.
// Routes are returned as JSON, or streamed with SSE while the search runs.

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ColinToft/JogCoach/internal/cache"
	"github.com/ColinToft/JogCoach/internal/clients/nominatim"
	"github.com/ColinToft/JogCoach/internal/clients/openelevation"
	"github.com/ColinToft/JogCoach/internal/clients/osrm"
	"github.com/ColinToft/JogCoach/internal/config"
	"github.com/ColinToft/JogCoach/internal/provider"
	"github.com/ColinToft/JogCoach/internal/util/graph"
	mapdatatransport "github.com/ColinToft/JogCoach/pkg/mapdata/transport"
	"github.com/ColinToft/JogCoach/pkg/routegen"
	"github.com/ColinToft/JogCoach/pkg/routegen/endpoints"
	"github.com/ColinToft/JogCoach/pkg/routegen/transport"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

func main() {
	configPath := flag.String("config", envString("JOGCOACH_CONFIG", ""), "path to a YAML config file")
	flag.Parse()

	var logger log.Logger
	logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Log("during", "config", "err", err)
		os.Exit(1)
	}
	logger = level.NewFilter(logger, level.Allow(level.ParseDefault(cfg.Log.Level, level.InfoValue())))

	routers, err := routerSource(cfg, logger)
	if err != nil {
		level.Error(logger).Log("during", "routing setup", "err", err)
		os.Exit(1)
	}

	if cfg.Cache.Path != "" {
		legs, err := cache.Open(cfg.Cache.Path, cfg.Cache.TTL, logger)
		if err != nil {
			level.Error(logger).Log("during", "cache open", "path", cfg.Cache.Path, "err", err)
			os.Exit(1)
		}
		defer legs.Close()
		routers = legs.WrapSource(routers)
	}

	var service routegen.Service
	{
		service = routegen.NewService(routegen.Providers{
			Routers: routers,
			Elevation: openelevation.NewClient(openelevation.Config{
				URL:               cfg.Elevation.URL,
				Timeout:           cfg.Elevation.Timeout,
				MaxPoints:         cfg.Elevation.MaxPoints,
				RequestsPerSecond: cfg.Elevation.RequestsPerSecond,
			}, logger),
			Geocoder: nominatim.NewClient(nominatim.Config{
				URL:       cfg.Geocoding.URL,
				UserAgent: cfg.Geocoding.UserAgent,
				Timeout:   cfg.Geocoding.Timeout,
			}, logger),
			RoutingName: cfg.Routing.Provider,
		}, routegen.Options{
			Workers:          cfg.Search.Workers,
			RouteTimeout:     cfg.Routing.Timeout,
			ElevationTimeout: cfg.Elevation.Timeout,
			Logger:           logger,
		})
		service = routegen.NewLoggingService(log.With(logger, "component", "service"), service)
		service = routegen.NewInstrumentingService(routegen.NewPrometheusMetrics(), service)
	}

	var (
		httpAddr    = net.JoinHostPort(cfg.Server.Address, cfg.Server.Port)
		endpoints   = endpoints.NewEndpointSet(service, logger, cfg.Search.RequestTimeout)
		httpHandler = transport.NewHTTPHandler(endpoints, log.With(logger, "component", "http"))
	)

	httpListener, err := net.Listen("tcp", httpAddr)
	if err != nil {
		level.Error(logger).Log("transport", "HTTP", "during", "Listen", "err", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Handler: httpHandler,
	}

	go func() {
		level.Info(logger).Log("transport", "HTTP", "addr", httpAddr, "routing", cfg.Routing.Provider)
		err := httpServer.Serve(httpListener)
		if err != nil && err != http.ErrServerClosed {
			level.Error(logger).Log("transport", "HTTP", "during", "Serve", "err", err)
		}
	}()

	// Wait for an interrupt signal to stop the server.
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	level.Info(logger).Log("signal", sig)

	// Stop the server gracefully.
	err = httpServer.Shutdown(context.Background())
	if err != nil {
		level.Error(logger).Log("transport", "HTTP", "during", "Shutdown", "err", err)
	}
	httpListener.Close()

	level.Info(logger).Log("transport", "HTTP", "status", "stopped")
}

func routerSource(cfg *config.Config, logger log.Logger) (provider.RouterSource, error) {
	switch cfg.Routing.Provider {
	case config.ProviderOverpass:
		client, err := mapdatatransport.NewHTTPClient(cfg.Routing.MapDataURL)
		if err != nil {
			return nil, err
		}
		return graph.NewSource(client, cfg.Routing.MaxSnapMetres), nil
	default:
		return provider.Static{Router: osrm.NewClient(osrm.Config{
			URL:               cfg.Routing.OSRMURL,
			Timeout:           cfg.Routing.Timeout,
			RequestsPerSecond: cfg.Routing.RequestsPerSecond,
		}, logger)}, nil
	}
}

func envString(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
