package transport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ColinToft/JogCoach/internal/util/errors"
	"github.com/ColinToft/JogCoach/pkg/routegen/endpoints"

	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewHTTPHandler(ep endpoints.Set, logger log.Logger) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		httptransport.ServerErrorEncoder(encodeError),
	}

	m := http.NewServeMux()

	m.Handle("POST /api/generate-route", httptransport.NewServer(
		ep.GenerateRouteEndpoint,
		decodeGenerateRouteRequest,
		encodeResponse,
		options...,
	))
	m.Handle("GET /api/status", httptransport.NewServer(
		ep.StatusEndpoint,
		decodeStatusRequest,
		encodeResponse,
		options...,
	))
	m.HandleFunc("GET /api/generate", ep.GenerateStreamEndpoint)
	m.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	m.Handle("GET /metrics", promhttp.Handler())

	return m
}

func decodeGenerateRouteRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req endpoints.GenerateRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.InvalidArgument("malformed request body: %v", err)
	}
	return req, nil
}

func decodeStatusRequest(_ context.Context, _ *http.Request) (interface{}, error) {
	return endpoints.StatusRequest{}, nil
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
