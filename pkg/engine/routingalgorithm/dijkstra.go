package routingalgorithm

import (
	"pathsync/pkg/datastructure"
	"pathsync/pkg/util"
)

type cameFromPair struct {
	EdgeIdx int32
	NodeIDx int32
	Weight  float64
}

// Graph is the weight view a search runs on. Implementations are read under the owner's lock.
type Graph interface {
	NumNodes() int
	ForOutEdges(u int32, handle func(e datastructure.OutEdge))
}

type RouteAlgorithm struct{}

func NewRouteAlgorithm() *RouteAlgorithm {
	return &RouteAlgorithm{}
}

type PathResult struct {
	Nodes []int32
	Edges []int32
	// Weights[i] is the travel time of Edges[i] as seen by the search.
	Weights []float64
	ETA     float64
	Dist  float64
	Found bool
}

// ShortestPathDijkstra computes the minimum travel time path from -> to over the current weights.
// Blocked (incident) and non-drivable edges are not traversed.
func (rt *RouteAlgorithm) ShortestPathDijkstra(g Graph, from, to int32) PathResult {
	n := int32(g.NumNodes())
	if from < 0 || to < 0 || from >= n || to >= n {
		return PathResult{}
	}
	if from == to {
		return PathResult{Nodes: []int32{from}, Edges: []int32{}, Weights: []float64{}, Found: true}
	}

	pq := NewMinHeap[int32]()
	pq.Insert(PriorityQueueNode[int32]{Rank: 0, Item: from})

	costSoFar := map[int32]float64{from: 0}
	distSoFar := map[int32]float64{from: 0}
	cameFrom := map[int32]cameFromPair{from: {EdgeIdx: -1, NodeIDx: -1}}
	settled := make(map[int32]bool)

	for pq.Size() > 0 {
		node, _ := pq.ExtractMin()
		if node.Item == to {
			break
		}
		settled[node.Item] = true

		g.ForOutEdges(node.Item, func(e datastructure.OutEdge) {
			if e.Blocked || !e.Drivable || settled[e.ToIdx] {
				return
			}
			newCost := costSoFar[node.Item] + e.Weight
			oldCost, seen := costSoFar[e.ToIdx]
			if seen && newCost >= oldCost {
				return
			}
			costSoFar[e.ToIdx] = newCost
			distSoFar[e.ToIdx] = distSoFar[node.Item] + e.Length
			cameFrom[e.ToIdx] = cameFromPair{EdgeIdx: e.EdgeIdx, NodeIDx: node.Item, Weight: e.Weight}
			if pq.Contains(e.ToIdx) {
				_ = pq.DecreaseKey(PriorityQueueNode[int32]{Rank: newCost, Item: e.ToIdx})
			} else {
				pq.Insert(PriorityQueueNode[int32]{Rank: newCost, Item: e.ToIdx})
			}
		})
	}

	if _, ok := cameFrom[to]; !ok {
		return PathResult{}
	}

	nodes := []int32{}
	edges := []int32{}
	weights := []float64{}
	for curr := to; curr != -1; {
		nodes = append(nodes, curr)
		prev := cameFrom[curr]
		if prev.EdgeIdx != -1 {
			edges = append(edges, prev.EdgeIdx)
			weights = append(weights, prev.Weight)
		}
		curr = prev.NodeIDx
	}
	util.ReverseG(nodes)
	util.ReverseG(edges)
	util.ReverseG(weights)

	return PathResult{
		Nodes:   nodes,
		Edges:   edges,
		Weights: weights,
		ETA:     costSoFar[to],
		Dist:    distSoFar[to],
		Found:   true,
	}
}
