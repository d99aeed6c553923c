package endpoints

import (
	"encoding/json"
	"math"

	"github.com/ColinToft/JogCoach/internal/provider"
	"github.com/ColinToft/JogCoach/internal/util/errors"
	"github.com/ColinToft/JogCoach/internal/util/geo"
	"github.com/ColinToft/JogCoach/pkg/routegen"
)

// A request to generate a route
type GenerateRouteRequest struct {
	// Address or "lat,lon". Ignored when Lat and Lon are set.
	StartLocation string   `json:"start_location,omitempty"`
	Lat           *float64 `json:"lat,omitempty"`
	Lon           *float64 `json:"lon,omitempty"`

	DistanceKm float64 `json:"distance_km"`

	TrainingType        string `json:"training_type,omitempty"`
	ElevationPreference string `json:"elevation_preference,omitempty"`
	RouteType           string `json:"route_type,omitempty"`

	// Both default to true
	AvoidBusyRoads *bool `json:"avoid_busy_roads,omitempty"`
	PreferParks    *bool `json:"prefer_parks,omitempty"`
}

// ServiceRequest validates the request and converts it for the service.
func (r GenerateRouteRequest) ServiceRequest() (routegen.GenerateRequest, error) {
	var out routegen.GenerateRequest

	switch {
	case r.Lat != nil && r.Lon != nil:
		start := geo.Coordinate{Lat: *r.Lat, Lon: *r.Lon}
		if !start.Valid() {
			return out, errors.InvalidArgument("lat/lon %v out of range", start)
		}
		out.Start = &start
	case r.Lat != nil || r.Lon != nil:
		return out, errors.InvalidArgument("lat and lon must be given together")
	case r.StartLocation == "":
		return out, errors.InvalidArgument("start_location or lat/lon is required")
	default:
		out.StartLocation = r.StartLocation
	}

	out.DistanceKm = r.DistanceKm
	if r.TrainingType != "" {
		if err := out.Training.UnmarshalText([]byte(r.TrainingType)); err != nil {
			return out, err
		}
	}
	if r.ElevationPreference != "" {
		if err := out.Elevation.UnmarshalText([]byte(r.ElevationPreference)); err != nil {
			return out, err
		}
	}
	if r.RouteType != "" {
		if err := out.RouteType.UnmarshalText([]byte(r.RouteType)); err != nil {
			return out, err
		}
	}

	out.Profile = provider.DefaultProfile()
	if r.AvoidBusyRoads != nil {
		out.Profile.AvoidBusyRoads = *r.AvoidBusyRoads
	}
	if r.PreferParks != nil {
		out.Profile.PreferParks = *r.PreferParks
	}

	if err := out.RouteRequest.Validate(); err != nil {
		return out, err
	}
	return out, nil
}

// Result of a route generation
type GenerateRouteResponse struct {
	ID           string                 `json:"id,omitempty"`
	GeoJSON      json.RawMessage        `json:"geojson,omitempty"`
	GPX          string                 `json:"gpx,omitempty"`
	KML          string                 `json:"kml,omitempty"`
	Polyline     string                 `json:"polyline,omitempty"`
	Metrics      *routegen.RouteMetrics `json:"metrics,omitempty"`
	Waypoints    []geo.Coordinate       `json:"waypoints,omitempty"`
	StartAddress string                 `json:"start_address,omitempty"`

	RouteType     string  `json:"route_type,omitempty"`
	Heading       float64 `json:"heading"`
	Score         float64 `json:"score"`
	Converged     bool    `json:"converged"`
	DeviationKm   float64 `json:"deviation_km"`
	ClosureErrorM float64 `json:"closure_error_m"`
	Fallback      bool    `json:"fallback"`
}

// NewGenerateRouteResponse flattens a result for the wire.
func NewGenerateRouteResponse(r routegen.RouteResult) GenerateRouteResponse {
	metrics := r.Metrics
	metrics.DistanceKm = round(metrics.DistanceKm, 2)
	metrics.ElevationGainM = round(metrics.ElevationGainM, 1)
	metrics.ElevationLossM = round(metrics.ElevationLossM, 1)
	return GenerateRouteResponse{
		ID:            r.ID,
		GeoJSON:       r.Outputs.GeoJSON,
		GPX:           r.Outputs.GPX,
		KML:           r.Outputs.KML,
		Polyline:      r.Outputs.Polyline,
		Metrics:       &metrics,
		Waypoints:     r.Route.Path,
		StartAddress:  r.StartAddress,
		RouteType:     r.Route.Topology.String(),
		Heading:       r.Route.Heading,
		Score:         r.Route.Score,
		Converged:     r.Converged,
		DeviationKm:   r.DeviationKm,
		ClosureErrorM: r.Route.ClosureErrorKm * 1000,
		Fallback:      r.Fallback,
	}
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

type StatusRequest struct{}

type StatusResponse struct {
	routegen.Status
}
