package graph

import (
	"math"

	"github.com/ColinToft/JogCoach/internal/util/geo"
	"github.com/ColinToft/JogCoach/internal/util/mapdata"
)

// A Graph is the walkable street network around a start point, stored as an
// adjacency list. Every way segment becomes an undirected edge.

type Edge struct {
	To       int
	Way      int64
	Distance float64 // metres
	Class    Class
}

type Node struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (n Node) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: n.Lat, Lon: n.Lon}
}

type Graph struct {
	AdjacencyList [][]Edge
	Nodes         []Node
	OSMIDs        []int64

	// Connected nodes, built by NewGraph
	zones *ZoneMap
}

// Class groups highway tags by how pleasant they are to run on.
type Class int

const (
	ClassOther Class = iota
	ClassBusy        // primary, secondary, tertiary
	ClassResidential
	ClassGreen    // footways, paths, tracks, pedestrian areas
	ClassCrossing // footway=crossing segments
	ClassSteps
)

func classify(tags mapdata.Tags) Class {
	if tags.Footway == "crossing" || tags.Highway == "crossing" {
		return ClassCrossing
	}
	switch tags.Highway {
	case "primary", "primary_link", "secondary", "secondary_link", "tertiary", "tertiary_link":
		return ClassBusy
	case "residential", "living_street", "unclassified", "service":
		return ClassResidential
	case "footway", "path", "track", "pedestrian", "bridleway", "cycleway":
		return ClassGreen
	case "steps":
		return ClassSteps
	}
	if tags.Leisure == "park" {
		return ClassGreen
	}
	return ClassOther
}

// NewGraph converts Overpass map data to a graph. Ways that are not walkable
// and nodes that belong to no walkable way are dropped.
func NewGraph(data *mapdata.MapData) *Graph {
	g := &Graph{}

	// Map from OSM IDs to assigned IDs
	coords := make(map[int64]Node)
	for _, element := range data.Elements {
		if element.Type == "node" {
			coords[element.ID] = Node{Lat: element.Lat, Lon: element.Lon}
		}
	}

	assignedIds := make(map[int64]int)
	assign := func(osmID int64) (int, bool) {
		if id, ok := assignedIds[osmID]; ok {
			return id, true
		}
		node, ok := coords[osmID]
		if !ok {
			return 0, false
		}
		id := len(g.Nodes)
		assignedIds[osmID] = id
		g.Nodes = append(g.Nodes, node)
		g.OSMIDs = append(g.OSMIDs, osmID)
		g.AdjacencyList = append(g.AdjacencyList, nil)
		return id, true
	}

	for _, element := range data.Elements {
		if !element.Walkable() {
			continue
		}
		class := classify(element.Tags)

		for i := 0; i < len(element.Nodes)-1; i++ {
			from, ok := assign(element.Nodes[i])
			if !ok {
				continue
			}
			to, ok := assign(element.Nodes[i+1])
			if !ok || from == to {
				continue
			}

			distance := geo.Haversine(g.Nodes[from].Coordinate(), g.Nodes[to].Coordinate()) * 1000
			g.AddEdge(from, to, element.ID, distance, class)
		}
	}

	g.zones = NewZoneMap(DefaultZoneWidth)
	for node := range g.Nodes {
		if len(g.AdjacencyList[node]) > 0 {
			g.zones.Add(node, g.Nodes[node].Coordinate())
		}
	}

	return g
}

// AddEdge adds an undirected edge to the graph.
func (g *Graph) AddEdge(from, to int, way int64, distance float64, class Class) {
	g.AdjacencyList[from] = append(g.AdjacencyList[from], Edge{To: to, Way: way, Distance: distance, Class: class})
	g.AdjacencyList[to] = append(g.AdjacencyList[to], Edge{To: from, Way: way, Distance: distance, Class: class})
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, edges := range g.AdjacencyList {
		count += len(edges)
	}
	return count / 2
}

// Nearest returns the connected node closest to c and its distance in metres.
// It returns -1 when the graph has no edges.
func (g *Graph) Nearest(c geo.Coordinate) (int, float64) {
	if g.zones != nil {
		return g.zones.Nearest(c, func(id int) geo.Coordinate { return g.Nodes[id].Coordinate() })
	}

	best := -1
	minDist := math.MaxFloat64
	for node := range g.Nodes {
		if len(g.AdjacencyList[node]) == 0 {
			continue
		}
		dist := geo.Haversine(c, g.Nodes[node].Coordinate()) * 1000
		if dist < minDist {
			minDist = dist
			best = node
		}
	}
	return best, minDist
}

// Coordinates maps a node sequence to coordinates.
func (g *Graph) Coordinates(nodes []int) []geo.Coordinate {
	path := make([]geo.Coordinate, len(nodes))
	for i, node := range nodes {
		path[i] = g.Nodes[node].Coordinate()
	}
	return path
}
