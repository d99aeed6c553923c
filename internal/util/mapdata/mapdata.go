package mapdata

import (
	"time"
)

// MapData is the Overpass API JSON answer for a highway query.
type MapData struct {
	Version   float64 `json:"version"`
	Generator string  `json:"generator"`
	Osm3S     struct {
		TimestampOsmBase time.Time `json:"timestamp_osm_base"`
		Copyright        string    `json:"copyright"`
	} `json:"osm3s"`
	Elements []MapDataElement `json:"elements"`
}

type Tags struct {
	Access   string `json:"access,omitempty"`
	Building string `json:"building,omitempty"`
	Crossing string `json:"crossing,omitempty"`
	Foot     string `json:"foot,omitempty"`
	Footway  string `json:"footway,omitempty"`
	Highway  string `json:"highway,omitempty"`
	Leisure  string `json:"leisure,omitempty"`
	Name     string `json:"name,omitempty"`
	Sidewalk string `json:"sidewalk,omitempty"`
	Surface  string `json:"surface,omitempty"`
}

type MapDataElement struct {
	Type  string  `json:"type"`
	ID    int64   `json:"id"`
	Lat   float64 `json:"lat,omitempty"`
	Lon   float64 `json:"lon,omitempty"`
	Nodes []int64 `json:"nodes,omitempty"`
	Tags  Tags    `json:"tags,omitempty"`
}

// Highways a runner can never use
var notWalkable = map[string]bool{
	"motorway":      true,
	"motorway_link": true,
	"trunk":         true,
	"trunk_link":    true,
	"construction":  true,
	"proposed":      true,
	"bus_guideway":  true,
	"raceway":       true,
}

// Walkable reports whether the element is a way a runner may use.
func (e MapDataElement) Walkable() bool {
	if e.Type != "way" || e.Tags.Highway == "" || len(e.Nodes) < 2 {
		return false
	}
	if e.Tags.Access == "private" || e.Tags.Access == "no" || e.Tags.Foot == "no" || e.Tags.Building == "yes" {
		return false
	}
	return !notWalkable[e.Tags.Highway]
}

// Counts returns the number of nodes and ways in the answer.
func (m *MapData) Counts() (nodes, ways int) {
	for _, e := range m.Elements {
		switch e.Type {
		case "node":
			nodes++
		case "way":
			ways++
		}
	}
	return nodes, ways
}
