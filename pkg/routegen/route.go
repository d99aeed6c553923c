package routegen

import (
	"encoding/json"
	"math"

	"github.com/ColinToft/JogCoach/internal/util/geo"
)

// A Candidate is the best route one heading produced.
type Candidate struct {
	Path     []geo.Coordinate `json:"-"`
	Topology Topology         `json:"topology"`
	Heading  float64          `json:"heading"`

	// Always recomputed from Path
	DistanceKm float64 `json:"distance_km"`

	// Distance deviation from the target, plus the closure penalty of open loops
	Diff           float64 `json:"diff_km"`
	ClosureErrorKm float64 `json:"closure_error_km"`
	Iterations     int     `json:"iterations"`
	Converged      bool    `json:"converged"`
}

// A ScoredCandidate is a Candidate with its score (lower is better) and the
// elevation profile the score was computed from.
type ScoredCandidate struct {
	Candidate
	Score          float64   `json:"score"`
	Elevations     []float64 `json:"-"`
	ElevationGainM float64   `json:"elevation_gain_m"`
	ElevationLossM float64   `json:"elevation_loss_m"`
}

type RouteMetrics struct {
	DistanceKm     float64 `json:"distance_km"`
	ElevationGainM float64 `json:"elevation_gain_m"`
	ElevationLossM float64 `json:"elevation_loss_m"`
	DurationMin    int     `json:"estimated_duration_min"`
}

// Outputs are the rendered forms of a route.
type Outputs struct {
	GeoJSON  json.RawMessage `json:"geojson"`
	GPX      string          `json:"gpx"`
	KML      string          `json:"kml"`
	Polyline string          `json:"polyline"`
}

// A RouteResult is the final answer to a request. It is never modified once
// built.
type RouteResult struct {
	ID           string          `json:"id"`
	Start        geo.Coordinate  `json:"start"`
	StartAddress string          `json:"start_address,omitempty"`
	Request      RouteRequest    `json:"-"`
	Route        ScoredCandidate `json:"route"`
	Metrics      RouteMetrics    `json:"metrics"`

	// Annotations
	Fallback    bool    `json:"fallback"`
	Converged   bool    `json:"converged"`
	DeviationKm float64 `json:"deviation_km"`

	Outputs Outputs `json:"outputs"`
}

// paceMinPerKm is the pace used to estimate durations
const paceMinPerKm = 5.0

// ComputeMetrics derives the reportable metrics of a path from its
// elevation samples.
func ComputeMetrics(path []geo.Coordinate, elevations []float64) RouteMetrics {
	distance := geo.PathLength(path)
	gain, loss := ElevationGainLoss(elevations)
	return RouteMetrics{
		DistanceKm:     distance,
		ElevationGainM: gain,
		ElevationLossM: loss,
		DurationMin:    int(math.Round(distance * paceMinPerKm)),
	}
}
