package datastructure

import (
	"strings"

	"github.com/twpayne/go-polyline"
)

// CriticalCost is the travel time assigned to a blocked road.
const CriticalCost = 999999.0

type Node struct {
	ID  string
	X   float64
	Y   float64
	Lat float64
	Lon float64
}

func (n Node) Coordinate() Coordinate {
	return NewCoordinate(n.Lat, n.Lon)
}

func (n Node) Point() Point {
	return Point{X: n.X, Y: n.Y}
}

// Edge is the static description of a directed road segment as read from the network file.
type Edge struct {
	ID         string
	Name       string
	From       string
	To         string
	Length     float64 // meters
	SpeedLimit float64 // m/s
	Drivable   bool
	Internal   bool
	Shape      []Point
}

func (e Edge) BaseTravelTime() float64 {
	if e.SpeedLimit <= 0 {
		return e.Length
	}
	return e.Length / e.SpeedLimit
}

// ReverseEdgeID toggles the leading "-" SUMO uses to name the opposite direction of a road.
func ReverseEdgeID(edgeID string) string {
	if strings.HasPrefix(edgeID, "-") {
		return edgeID[1:]
	}
	return "-" + edgeID
}

// IsInternalEdgeID reports whether edgeID names a junction-internal connector edge.
func IsInternalEdgeID(edgeID string) bool {
	return strings.HasPrefix(edgeID, ":")
}

func RenderPath(path []Coordinate) string {
	coords := make([][]float64, 0, len(path))
	for _, p := range path {
		coords = append(coords, []float64{p.Lat, p.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}

// OutEdge is the routing view of one outgoing edge at the time it was read.
type OutEdge struct {
	EdgeIdx  int32
	ToIdx    int32
	Weight   float64
	Length   float64
	Blocked  bool
	Drivable bool
}
