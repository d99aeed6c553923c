package routegen

import (
	"github.com/ColinToft/JogCoach/internal/provider"
	"github.com/ColinToft/JogCoach/internal/util/errors"
)

// Topology is the shape of a single candidate.
type Topology int

const (
	OutAndBack Topology = iota
	Loop
)

func (t Topology) String() string {
	if t == Loop {
		return "loop"
	}
	return "out_and_back"
}

func (t Topology) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// RouteType is the topology asked for by a request.
type RouteType int

const (
	RouteOutAndBack RouteType = iota
	RouteLoop
	RouteBoth
)

var routeTypeNames = map[RouteType]string{
	RouteOutAndBack: "out_and_back",
	RouteLoop:       "loop",
	RouteBoth:       "both",
}

func (r RouteType) String() string { return routeTypeNames[r] }

func (r RouteType) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *RouteType) UnmarshalText(text []byte) error {
	for k, v := range routeTypeNames {
		if v == string(text) {
			*r = k
			return nil
		}
	}
	return errors.InvalidArgument("route_type must be one of out_and_back, loop, both, got %q", text)
}

// Topologies lists the candidate shapes searched for this route type.
func (r RouteType) Topologies() []Topology {
	switch r {
	case RouteLoop:
		return []Topology{Loop}
	case RouteBoth:
		return []Topology{OutAndBack, Loop}
	default:
		return []Topology{OutAndBack}
	}
}

// ElevationPreference is a band of climbing per kilometre.
type ElevationPreference int

const (
	Flat ElevationPreference = iota
	Rolling
	Mountainous
)

// Band limits in metres of gain per kilometre
const (
	RollingMinRatio     = 15.0
	MountainousMinRatio = 40.0
)

var elevationNames = map[ElevationPreference]string{
	Flat:        "flat",
	Rolling:     "rolling",
	Mountainous: "mountainous",
}

func (e ElevationPreference) String() string { return elevationNames[e] }

func (e ElevationPreference) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *ElevationPreference) UnmarshalText(text []byte) error {
	for k, v := range elevationNames {
		if v == string(text) {
			*e = k
			return nil
		}
	}
	return errors.InvalidArgument("elevation_preference must be one of flat, rolling, mountainous, got %q", text)
}

// ClassifyRatio returns the band a gain ratio (m/km) falls in.
func ClassifyRatio(ratio float64) ElevationPreference {
	switch {
	case ratio >= MountainousMinRatio:
		return Mountainous
	case ratio >= RollingMinRatio:
		return Rolling
	default:
		return Flat
	}
}

// Matches reports whether a gain ratio (m/km) falls in this band.
func (e ElevationPreference) Matches(ratio float64) bool {
	return ClassifyRatio(ratio) == e
}

// TrainingType is informational. It names the route but never changes the
// search.
type TrainingType int

const (
	Endurance TrainingType = iota
	Interval
	Tempo
	Recovery
)

var trainingNames = map[TrainingType]string{
	Endurance: "endurance",
	Interval:  "interval",
	Tempo:     "tempo",
	Recovery:  "recovery",
}

func (t TrainingType) String() string { return trainingNames[t] }

func (t TrainingType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TrainingType) UnmarshalText(text []byte) error {
	for k, v := range trainingNames {
		if v == string(text) {
			*t = k
			return nil
		}
	}
	return errors.InvalidArgument("training_type must be one of interval, endurance, tempo, recovery, got %q", text)
}

// MaxDistanceKm is the longest route a request may ask for.
const MaxDistanceKm = 100.0

// A RouteRequest is a validated route search.
type RouteRequest struct {
	DistanceKm float64
	RouteType  RouteType
	Elevation  ElevationPreference
	Training   TrainingType
	Profile    provider.Profile
}

// toleranceShare is the accepted distance deviation as a share of the target
const toleranceShare = 0.02

// Tolerance is the accepted deviation from the target distance, in km.
func (r RouteRequest) Tolerance() float64 {
	return toleranceShare * r.DistanceKm
}

// Validate checks the request boundaries.
func (r RouteRequest) Validate() error {
	if !(r.DistanceKm > 0 && r.DistanceKm <= MaxDistanceKm) {
		return errors.InvalidArgument("distance_km must be in (0, %v], got %v", MaxDistanceKm, r.DistanceKm)
	}
	return nil
}
