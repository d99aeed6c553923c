package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ColinToft/JogCoach/internal/util/errors"
	"github.com/ColinToft/JogCoach/pkg/routegen"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// DefaultTimeout bounds one search. The best route found so far is returned
// when it expires.
const DefaultTimeout = 90 * time.Second

type Set struct {
	GenerateRouteEndpoint endpoint.Endpoint
	StatusEndpoint        endpoint.Endpoint

	// Server-sent events, not a go-kit endpoint
	GenerateStreamEndpoint http.HandlerFunc
}

func NewEndpointSet(svc routegen.Service, logger log.Logger, timeout time.Duration) Set {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return Set{
		GenerateRouteEndpoint:  MakeGenerateRouteEndpoint(svc, timeout),
		StatusEndpoint:         MakeStatusEndpoint(svc),
		GenerateStreamEndpoint: MakeGenerateStreamEndpoint(svc, logger, timeout),
	}
}

func MakeGenerateRouteEndpoint(svc routegen.Service, timeout time.Duration) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(GenerateRouteRequest)
		sreq, err := req.ServiceRequest()
		if err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		result, err := svc.GenerateRoute(ctx, sreq, nil)
		if err != nil {
			return nil, err
		}
		return NewGenerateRouteResponse(result), nil
	}
}

func MakeStatusEndpoint(svc routegen.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		return StatusResponse{Status: svc.Status(ctx)}, nil
	}
}

// WriteServerSentEvent writes one named event and flushes it to the client.
func WriteServerSentEvent(w http.ResponseWriter, event, message string) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, message); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// StreamRequest reads a GenerateRouteRequest from the query string of a
// streaming request. distance is in kilometres.
func StreamRequest(q url.Values) (GenerateRouteRequest, error) {
	req := GenerateRouteRequest{
		StartLocation:       q.Get("start_location"),
		TrainingType:        q.Get("training_type"),
		ElevationPreference: q.Get("elevation_preference"),
		RouteType:           q.Get("route_type"),
	}

	var err error
	if req.DistanceKm, err = strconv.ParseFloat(q.Get("distance"), 64); err != nil {
		return req, errors.InvalidArgument("distance: %v", err)
	}

	floats := map[string]**float64{"lat": &req.Lat, "lon": &req.Lon}
	for name, dst := range floats {
		if s := q.Get(name); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return req, errors.InvalidArgument("%s: %v", name, err)
			}
			*dst = &v
		}
	}

	bools := map[string]**bool{"avoid_busy_roads": &req.AvoidBusyRoads, "prefer_parks": &req.PreferParks}
	for name, dst := range bools {
		if s := q.Get(name); s != "" {
			v, err := strconv.ParseBool(s)
			if err != nil {
				return req, errors.InvalidArgument("%s: %v", name, err)
			}
			*dst = &v
		}
	}

	return req, nil
}

type outcome struct {
	result routegen.RouteResult
	err    error
}

// MakeGenerateStreamEndpoint streams one trace event per convergence
// iteration, then the route, then done.
func MakeGenerateStreamEndpoint(svc routegen.Service, logger log.Logger, timeout time.Duration) http.HandlerFunc {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var sreq routegen.GenerateRequest
		req, err := StreamRequest(r.URL.Query())
		if err == nil {
			sreq, err = req.ServiceRequest()
		}
		if err != nil {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		// Flush the headers to establish SSE connection
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		events := make(chan routegen.TraceEvent, 64)
		trace := func(e routegen.TraceEvent) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		}

		done := make(chan outcome, 1)
		go func() {
			result, err := svc.GenerateRoute(ctx, sreq, trace)
			done <- outcome{result: result, err: err}
		}()

		send := func(event string, v interface{}) {
			data, err := json.Marshal(v)
			if err != nil {
				level.Error(logger).Log("msg", "encoding event", "event", event, "err", err)
				return
			}
			if err := WriteServerSentEvent(w, event, string(data)); err != nil {
				level.Warn(logger).Log("msg", "writing event", "event", event, "err", err)
			}
		}

		for {
			select {
			case e := <-events:
				send("trace", e)
			case out := <-done:
				drain(events, func(e routegen.TraceEvent) { send("trace", e) })
				if out.err != nil {
					send("error", map[string]string{"error": out.err.Error()})
				} else {
					send("route", NewGenerateRouteResponse(out.result))
				}
				WriteServerSentEvent(w, "done", "done")
				return
			case <-r.Context().Done():
				level.Debug(logger).Log("msg", "client went away")
				return
			}
		}
	}
}

func drain(events <-chan routegen.TraceEvent, f func(routegen.TraceEvent)) {
	for {
		select {
		case e := <-events:
			f(e)
		default:
			return
		}
	}
}
