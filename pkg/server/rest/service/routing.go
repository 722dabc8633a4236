package service

import (
	"context"
	"errors"

	"pathsync/pkg/datastructure"
	"pathsync/pkg/engine/routingalgorithm"
	"pathsync/pkg/geocoder"
	"pathsync/pkg/guidance"
	"pathsync/pkg/roadgraph"
	"pathsync/pkg/server"
	"pathsync/pkg/sumonet"

	"go.uber.org/zap"
)

var (
	ErrNoPathFound          = errors.New("no path found")
	ErrNoRoutableNodeNearby = errors.New("no routable road nearby")
)

type Geocoder interface {
	Resolve(ctx context.Context, query string) (geocoder.Result, error)
}

type Network interface {
	LatLonToXY(lat, lon float64) (float64, float64, error)
	NearestEdges(p datastructure.Point, radius float64) []sumonet.EdgeHit
}

type RoutingAlgorithm interface {
	ShortestPathDijkstra(g routingalgorithm.Graph, from, to int32) routingalgorithm.PathResult
}

type RouteResult struct {
	Coordinates   []datastructure.Coordinate
	Polyline      string
	TotalTime     float64
	TotalDistance float64
	Edges         []string
	Instructions  []guidance.DrivingInstruction
}

type NavigationService struct {
	graph   *roadgraph.RoadGraph
	net     Network
	geo     Geocoder
	routing RoutingAlgorithm
	log     *zap.Logger
}

func NewNavigationService(graph *roadgraph.RoadGraph, net Network, geo Geocoder, routing RoutingAlgorithm, log *zap.Logger) *NavigationService {
	return &NavigationService{graph: graph, net: net, geo: geo, routing: routing, log: log}
}

// locate resolves a location descriptor and projects it into the network plane.
func locate(ctx context.Context, geo Geocoder, net Network, descriptor, notFoundMsg string) (geocoder.Result, datastructure.Point, error) {
	res, err := geo.Resolve(ctx, descriptor)
	if err != nil {
		return geocoder.Result{}, datastructure.Point{}, server.WrapErrorf(err, server.ErrNotFound, "%s", notFoundMsg)
	}
	x, y, err := net.LatLonToXY(res.Coordinate.Lat, res.Coordinate.Lon)
	if err != nil {
		return geocoder.Result{}, datastructure.Point{}, server.WrapErrorf(err, server.ErrNotFound, "the location is outside the mapped area")
	}
	return res, datastructure.Point{X: x, Y: y}, nil
}

func (uc *NavigationService) snap(ctx context.Context, descriptor string) (int32, error) {
	_, p, err := locate(ctx, uc.geo, uc.net, descriptor, "Location not recognized or invalid map click.")
	if err != nil {
		return -1, err
	}
	idx, _, err := uc.graph.NearestNode(p)
	if err != nil {
		return -1, server.WrapErrorf(err, server.ErrNotFound, "the road network is empty")
	}
	return idx, nil
}

// Route computes the fastest path between two location descriptors over the live weights.
// Roads flagged as incidents are never used.
func (uc *NavigationService) Route(ctx context.Context, start, end string) (RouteResult, error) {
	from, err := uc.snap(ctx, start)
	if err != nil {
		return RouteResult{}, err
	}
	to, err := uc.snap(ctx, end)
	if err != nil {
		return RouteResult{}, err
	}

	var path routingalgorithm.PathResult
	_ = uc.graph.View(func(v *roadgraph.View) error {
		path = uc.routing.ShortestPathDijkstra(v, from, to)
		return nil
	})
	if !path.Found {
		return RouteResult{}, server.WrapErrorf(ErrNoPathFound, server.ErrNotFound, "No valid path found. (Check if locations are in the 5km map area)")
	}

	coords := make([]datastructure.Coordinate, 0, len(path.Nodes))
	for _, idx := range path.Nodes {
		coords = append(coords, uc.graph.Node(idx).Coordinate())
	}
	edgeIDs := make([]string, 0, len(path.Edges))
	legs := make([]guidance.Leg, 0, len(path.Edges))
	for i, idx := range path.Edges {
		e := uc.graph.EdgeAt(idx)
		edgeIDs = append(edgeIDs, e.ID)
		legs = append(legs, guidance.Leg{
			EdgeID: e.ID,
			Name:   e.Name,
			From:   coords[i],
			To:     coords[i+1],
			Length: e.Length,
			Time:   path.Weights[i],
		})
	}

	uc.log.Debug("route computed",
		zap.String("start", start),
		zap.String("end", end),
		zap.Int("edges", len(edgeIDs)),
		zap.Float64("eta", path.ETA))

	return RouteResult{
		Coordinates:   coords,
		Polyline:      datastructure.RenderPath(coords),
		TotalTime:     path.ETA,
		TotalDistance: path.Dist,
		Edges:         edgeIDs,
		Instructions:  guidance.GetDrivingInstructions(legs),
	}, nil
}
