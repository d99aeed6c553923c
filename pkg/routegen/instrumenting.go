package routegen

import (
	"context"
	"strconv"
	"time"

	"github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// Metrics are the instruments recorded for every generation.
type Metrics struct {
	RequestCount   metrics.Counter
	RequestLatency metrics.Histogram
	Deviation      metrics.Histogram
}

// NewPrometheusMetrics registers the service metrics with the default
// Prometheus registry.
func NewPrometheusMetrics() Metrics {
	return Metrics{
		RequestCount: kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: "jogcoach",
			Subsystem: "routegen",
			Name:      "requests_total",
			Help:      "Number of route generation requests.",
		}, []string{"route_type", "fallback", "error"}),
		RequestLatency: kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
			Namespace: "jogcoach",
			Subsystem: "routegen",
			Name:      "request_latency_seconds",
			Help:      "Total duration of route generation requests in seconds.",
		}, []string{"route_type"}),
		Deviation: kitprometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: "jogcoach",
			Subsystem: "routegen",
			Name:      "deviation_km",
			Help:      "Distance between the generated route and the requested length.",
			Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5},
		}, []string{"route_type"}),
	}
}

type instrumentingMiddleware struct {
	metrics Metrics
	next    Service
}

// NewInstrumentingService returns a Service that records m for every
// generation.
func NewInstrumentingService(m Metrics, next Service) Service {
	return &instrumentingMiddleware{metrics: m, next: next}
}

func (mw *instrumentingMiddleware) GenerateRoute(ctx context.Context, req GenerateRequest, trace TraceFunc) (result RouteResult, err error) {
	defer func(begin time.Time) {
		routeType := req.RouteType.String()
		mw.metrics.RequestCount.With(
			"route_type", routeType,
			"fallback", strconv.FormatBool(result.Fallback),
			"error", strconv.FormatBool(err != nil),
		).Add(1)
		mw.metrics.RequestLatency.With("route_type", routeType).Observe(time.Since(begin).Seconds())
		if err == nil {
			mw.metrics.Deviation.With("route_type", routeType).Observe(result.DeviationKm)
		}
	}(time.Now())
	return mw.next.GenerateRoute(ctx, req, trace)
}

func (mw *instrumentingMiddleware) Status(ctx context.Context) Status {
	return mw.next.Status(ctx)
}
