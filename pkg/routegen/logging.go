package routegen

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

// NewLoggingService returns a Service that logs every generation.
func NewLoggingService(logger log.Logger, next Service) Service {
	return &loggingMiddleware{logger: logger, next: next}
}

func (mw *loggingMiddleware) GenerateRoute(ctx context.Context, req GenerateRequest, trace TraceFunc) (result RouteResult, err error) {
	defer func(begin time.Time) {
		l := level.Info(mw.logger)
		if err != nil {
			l = level.Error(mw.logger)
		}
		l.Log(
			"method", "generate_route",
			"distance_km", req.DistanceKm,
			"route_type", req.RouteType,
			"elevation", req.Elevation,
			"id", result.ID,
			"fallback", result.Fallback,
			"deviation_km", result.DeviationKm,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return mw.next.GenerateRoute(ctx, req, trace)
}

func (mw *loggingMiddleware) Status(ctx context.Context) Status {
	return mw.next.Status(ctx)
}
