package main

// The code to start and stop the HTTP server.

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ColinToft/JogCoach/pkg/mapdata"
	"github.com/ColinToft/JogCoach/pkg/mapdata/endpoints"
	"github.com/ColinToft/JogCoach/pkg/mapdata/transport"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const defaultPort = "8081"

func main() {
	var (
		logger log.Logger
		// 0.0.0.0 for Docker, 127.0.0.1 for local
		httpAddr = net.JoinHostPort(envString("ADDRESS", "127.0.0.1"), envString("PORT", defaultPort))
	)

	logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	logger = level.NewFilter(logger, level.Allow(level.ParseDefault(envString("LOG_LEVEL", "info"), level.InfoValue())))

	timeout, err := time.ParseDuration(envString("OVERPASS_TIMEOUT", mapdata.DefaultTimeout.String()))
	if err != nil {
		level.Error(logger).Log("during", "config", "err", err)
		os.Exit(1)
	}

	var (
		service = mapdata.NewService(mapdata.Config{
			OverpassURL: envString("OVERPASS_URL", mapdata.DefaultOverpassURL),
			Timeout:     timeout,
		}, logger)
		endpoints   = endpoints.NewEndpointSet(service)
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
		level.Info(logger).Log("transport", "HTTP", "addr", httpAddr)
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

func envString(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
