// Package export renders a route polyline to the formats clients download.
package export

import (
	"bytes"
	"image/color"

	"github.com/ColinToft/JogCoach/internal/util/geo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tkrajina/gpxgo/gpx"
	kml "github.com/twpayne/go-kml"
	"github.com/twpayne/go-polyline"
)

const DefaultCreator = "JogCoach"

// Metadata describes the route in the rendered documents.
type Metadata struct {
	Name        string
	Description string
	Creator     string
}

func (m Metadata) creator() string {
	if m.Creator == "" {
		return DefaultCreator
	}
	return m.Creator
}

// LineString converts a path to an orb line string ([lon, lat] order).
func LineString(path []geo.Coordinate) orb.LineString {
	ls := make(orb.LineString, len(path))
	for i, c := range path {
		ls[i] = orb.Point{c.Lon, c.Lat}
	}
	return ls
}

// GeoJSON renders a FeatureCollection with a single LineString feature.
func GeoJSON(path []geo.Coordinate, properties map[string]interface{}) ([]byte, error) {
	feature := geojson.NewFeature(LineString(path))
	for k, v := range properties {
		feature.Properties[k] = v
	}

	fc := geojson.NewFeatureCollection()
	fc.Append(feature)
	return fc.MarshalJSON()
}

// GPX renders a GPX 1.1 document with one track, one segment and one point
// per coordinate. Elevations are attached when there is one per point.
func GPX(path []geo.Coordinate, elevations []float64, meta Metadata) ([]byte, error) {
	segment := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, len(path))}
	for i, c := range path {
		point := gpx.GPXPoint{Point: gpx.Point{Latitude: c.Lat, Longitude: c.Lon}}
		if len(elevations) == len(path) {
			point.Elevation = *gpx.NewNullableFloat64(elevations[i])
		}
		segment.Points[i] = point
	}

	doc := gpx.GPX{
		Creator:     meta.creator(),
		Name:        meta.Name,
		Description: meta.Description,
		Tracks: []gpx.GPXTrack{{
			Name:        meta.Name,
			Description: meta.Description,
			Segments:    []gpx.GPXTrackSegment{segment},
		}},
	}
	return doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
}

var routeColor = color.RGBA{R: 0xfc, G: 0x4c, B: 0x02, A: 0xff}

// KML renders a KML document holding the route as a styled placemark.
func KML(path []geo.Coordinate, meta Metadata) ([]byte, error) {
	coords := make([]kml.Coordinate, len(path))
	for i, c := range path {
		coords[i] = kml.Coordinate{Lon: c.Lon, Lat: c.Lat}
	}

	style := kml.SharedStyle(
		"route",
		kml.LineStyle(
			kml.Color(routeColor),
			kml.Width(4),
		),
	)

	doc := kml.KML(
		kml.Document(
			kml.Name(meta.Name),
			kml.Description(meta.Description),
			style,
			kml.Placemark(
				kml.Name(meta.Name),
				kml.StyleURL(style.URL()),
				kml.LineString(
					kml.Tessellate(true),
					kml.Coordinates(coords...),
				),
			),
		),
	)

	var buf bytes.Buffer
	if err := doc.WriteIndent(&buf, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Polyline encodes the path with the standard five digit polyline algorithm.
func Polyline(path []geo.Coordinate) string {
	coords := make([][]float64, len(path))
	for i, c := range path {
		coords[i] = []float64{c.Lat, c.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}
