package routegen

import (
	"fmt"
	"strings"

	"github.com/ColinToft/JogCoach/internal/util/export"
)

// Metadata names a route after its request.
func Metadata(req RouteRequest) export.Metadata {
	training := req.Training.String()
	if training != "" {
		training = strings.ToUpper(training[:1]) + training[1:]
	}
	return export.Metadata{
		Name:        fmt.Sprintf("%s run - %gkm", training, req.DistanceKm),
		Description: fmt.Sprintf("Generated by %s - %s %s route", export.DefaultCreator, req.Elevation, req.RouteType),
		Creator:     export.DefaultCreator,
	}
}

// Render fills in the downloadable forms of a result.
func Render(result RouteResult) (RouteResult, error) {
	path := result.Route.Path
	meta := Metadata(result.Request)

	geoJSON, err := export.GeoJSON(path, map[string]interface{}{
		"id":          result.ID,
		"name":        meta.Name,
		"topology":    result.Route.Topology.String(),
		"distance_km": result.Metrics.DistanceKm,
		"fallback":    result.Fallback,
	})
	if err != nil {
		return result, fmt.Errorf("rendering geojson: %w", err)
	}

	gpx, err := export.GPX(path, result.Route.Elevations, meta)
	if err != nil {
		return result, fmt.Errorf("rendering gpx: %w", err)
	}

	kml, err := export.KML(path, meta)
	if err != nil {
		return result, fmt.Errorf("rendering kml: %w", err)
	}

	result.Outputs = Outputs{
		GeoJSON:  geoJSON,
		GPX:      string(gpx),
		KML:      string(kml),
		Polyline: export.Polyline(path),
	}
	return result, nil
}
