package roadgraph

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"pathsync/pkg/datastructure"
)

var (
	ErrInvalidEdgeReference = errors.New("invalid edge reference")
	ErrInvariantViolation   = errors.New("weight and incident flag disagree")
	ErrInvalidWeight        = errors.New("invalid edge weight")
	ErrAlreadyBuilt         = errors.New("road graph already built")
	ErrEmptyGraph           = errors.New("road graph is empty")
)

type edgeState struct {
	desc          datastructure.Edge
	fromIdx       int32
	toIdx         int32
	base          float64
	current       float64
	incident      bool
	incidentCoord *datastructure.Coordinate
}

// RoadGraph is the shared weighted multigraph. Topology is fixed after Build; only weights,
// incident flags and incident coordinates change, and always under mu.
type RoadGraph struct {
	mu       sync.Mutex
	built    bool
	nodes    []datastructure.Node
	nodeIdx  map[string]int32
	edges    []edgeState
	edgeIdx  map[string]int32
	outEdges [][]int32
}

func NewRoadGraph() *RoadGraph {
	return &RoadGraph{
		nodeIdx: make(map[string]int32),
		edgeIdx: make(map[string]int32),
	}
}

// Build loads nodes and edges once. Edges whose endpoints are unknown are rejected.
func (g *RoadGraph) Build(nodes []datastructure.Node, edges []datastructure.Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.built {
		return ErrAlreadyBuilt
	}

	g.nodes = make([]datastructure.Node, 0, len(nodes))
	for _, n := range nodes {
		if _, ok := g.nodeIdx[n.ID]; ok {
			return fmt.Errorf("duplicate node %q", n.ID)
		}
		g.nodeIdx[n.ID] = int32(len(g.nodes))
		g.nodes = append(g.nodes, n)
	}
	g.outEdges = make([][]int32, len(g.nodes))

	g.edges = make([]edgeState, 0, len(edges))
	for _, e := range edges {
		if _, ok := g.edgeIdx[e.ID]; ok {
			return fmt.Errorf("duplicate edge %q", e.ID)
		}
		from, ok := g.nodeIdx[e.From]
		if !ok {
			return fmt.Errorf("edge %q: unknown from node %q", e.ID, e.From)
		}
		to, ok := g.nodeIdx[e.To]
		if !ok {
			return fmt.Errorf("edge %q: unknown to node %q", e.ID, e.To)
		}
		base := e.BaseTravelTime()
		idx := int32(len(g.edges))
		g.edges = append(g.edges, edgeState{
			desc:    e,
			fromIdx: from,
			toIdx:   to,
			base:    base,
			current: base,
		})
		g.edgeIdx[e.ID] = idx
		g.outEdges[from] = append(g.outEdges[from], idx)
	}
	g.built = true
	return nil
}

func (g *RoadGraph) NumNodes() int {
	return len(g.nodes)
}

func (g *RoadGraph) NumEdges() int {
	return len(g.edges)
}

// Node and Edge read immutable data and need no lock once the graph is built.
func (g *RoadGraph) Node(idx int32) datastructure.Node {
	return g.nodes[idx]
}

func (g *RoadGraph) NodeByID(id string) (datastructure.Node, bool) {
	idx, ok := g.nodeIdx[id]
	if !ok {
		return datastructure.Node{}, false
	}
	return g.nodes[idx], true
}

func (g *RoadGraph) Edge(id string) (datastructure.Edge, bool) {
	idx, ok := g.edgeIdx[id]
	if !ok {
		return datastructure.Edge{}, false
	}
	return g.edges[idx].desc, true
}

func (g *RoadGraph) EdgeAt(idx int32) datastructure.Edge {
	return g.edges[idx].desc
}

func (g *RoadGraph) HasEdge(id string) bool {
	_, ok := g.edgeIdx[id]
	return ok
}

// NearestNode snaps a projected point to the closest node by a linear scan.
func (g *RoadGraph) NearestNode(p datastructure.Point) (int32, datastructure.Node, error) {
	if len(g.nodes) == 0 {
		return -1, datastructure.Node{}, ErrEmptyGraph
	}
	best := math.Inf(1)
	bestIdx := int32(-1)
	for i, n := range g.nodes {
		dx, dy := n.X-p.X, n.Y-p.Y
		d := dx*dx + dy*dy
		if d < best {
			best = d
			bestIdx = int32(i)
		}
	}
	return bestIdx, g.nodes[bestIdx], nil
}

func (g *RoadGraph) Weight(edgeID string) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx, ok := g.edgeIdx[edgeID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrInvalidEdgeReference, edgeID)
	}
	return g.edges[idx].current, nil
}

func (g *RoadGraph) SetWeight(edgeID string, value float64, isIncident bool, coord *datastructure.Coordinate) error {
	return g.Update(func(tx *Tx) error {
		return tx.SetWeight(edgeID, value, isIncident, coord)
	})
}

func (g *RoadGraph) ClearIncident(edgeID string) error {
	return g.Update(func(tx *Tx) error {
		return tx.ClearIncident(edgeID)
	})
}

// MarkIncident blocks edgeID and its reverse counterpart in one critical section.
func (g *RoadGraph) MarkIncident(edgeID string, coord *datastructure.Coordinate) ([]string, error) {
	var affected []string
	err := g.Update(func(tx *Tx) error {
		var err error
		affected, err = tx.MarkIncident(edgeID, coord)
		return err
	})
	return affected, err
}

// ResolveIncident clears edgeID and its reverse counterpart. wasIncident reports whether either
// of them had been flagged before the call.
func (g *RoadGraph) ResolveIncident(edgeID string) (affected []string, wasIncident bool, err error) {
	err = g.Update(func(tx *Tx) error {
		var err error
		affected, wasIncident, err = tx.ResolveIncident(edgeID)
		return err
	})
	return affected, wasIncident, err
}

// IncidentFlags returns the incident flag of every known id in edgeIDs.
func (g *RoadGraph) IncidentFlags(edgeIDs []string) map[string]bool {
	flags := make(map[string]bool, len(edgeIDs))
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range edgeIDs {
		if idx, ok := g.edgeIdx[id]; ok {
			flags[id] = g.edges[idx].incident
		}
	}
	return flags
}

type EdgeSnapshot struct {
	ID            string
	From          datastructure.Node
	To            datastructure.Node
	Length        float64
	Weight        float64
	BaseWeight    float64
	IsIncident    bool
	IncidentCoord *datastructure.Coordinate
}

func (g *RoadGraph) SnapshotEdges() []EdgeSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap := make([]EdgeSnapshot, len(g.edges))
	for i := range g.edges {
		e := &g.edges[i]
		snap[i] = EdgeSnapshot{
			ID:         e.desc.ID,
			From:       g.nodes[e.fromIdx],
			To:         g.nodes[e.toIdx],
			Length:     e.desc.Length,
			Weight:     e.current,
			BaseWeight: e.base,
			IsIncident: e.incident,
		}
		if e.incidentCoord != nil {
			c := *e.incidentCoord
			snap[i].IncidentCoord = &c
		}
	}
	return snap
}

// CheckInvariant verifies that every edge carries CriticalCost exactly when it is flagged.
func (g *RoadGraph) CheckInvariant() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.edges {
		e := &g.edges[i]
		if e.incident != (e.current == datastructure.CriticalCost) {
			return fmt.Errorf("%w: edge %s weight=%v incident=%v", ErrInvariantViolation, e.desc.ID, e.current, e.incident)
		}
	}
	return nil
}

// Update runs fn with the graph lock held. fn must not perform I/O.
func (g *RoadGraph) Update(fn func(tx *Tx) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(&Tx{g: g})
}

// View runs a read-only fn (e.g. a path search) with the graph lock held.
func (g *RoadGraph) View(fn func(v *View) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(&View{g: g})
}
