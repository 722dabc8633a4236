package roadgraph

import (
	"fmt"
	"math"

	"pathsync/pkg/datastructure"
)

// Tx mutates edges while RoadGraph's lock is held. It is only valid inside Update.
type Tx struct {
	g *RoadGraph
}

func (tx *Tx) lookup(edgeID string) (*edgeState, error) {
	idx, ok := tx.g.edgeIdx[edgeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEdgeReference, edgeID)
	}
	return &tx.g.edges[idx], nil
}

func (tx *Tx) IsIncident(edgeID string) (bool, error) {
	e, err := tx.lookup(edgeID)
	if err != nil {
		return false, err
	}
	return e.incident, nil
}

func (tx *Tx) Weight(edgeID string) (float64, error) {
	e, err := tx.lookup(edgeID)
	if err != nil {
		return 0, err
	}
	return e.current, nil
}

func (tx *Tx) BaseWeight(edgeID string) (float64, error) {
	e, err := tx.lookup(edgeID)
	if err != nil {
		return 0, err
	}
	return e.base, nil
}

// SetWeight writes weight, flag and coordinate together. The coordinate is kept only on incidents.
func (tx *Tx) SetWeight(edgeID string, value float64, isIncident bool, coord *datastructure.Coordinate) error {
	e, err := tx.lookup(edgeID)
	if err != nil {
		return err
	}
	if math.IsNaN(value) || value < 0 {
		return fmt.Errorf("%w: %v on edge %s", ErrInvalidWeight, value, edgeID)
	}
	if isIncident != (value == datastructure.CriticalCost) {
		return fmt.Errorf("%w: edge %s weight=%v incident=%v", ErrInvariantViolation, edgeID, value, isIncident)
	}
	e.current = value
	e.incident = isIncident
	e.incidentCoord = nil
	if isIncident && coord != nil {
		c := *coord
		e.incidentCoord = &c
	}
	return nil
}

// SetLiveWeight stores a simulator reading on a non-incident edge. Readings at or above the
// sentinel are clamped just below it.
func (tx *Tx) SetLiveWeight(edgeID string, value float64) error {
	if value >= datastructure.CriticalCost {
		value = math.Nextafter(datastructure.CriticalCost, 0)
	}
	return tx.SetWeight(edgeID, value, false, nil)
}

func (tx *Tx) ClearIncident(edgeID string) error {
	e, err := tx.lookup(edgeID)
	if err != nil {
		return err
	}
	e.current = e.base
	e.incident = false
	e.incidentCoord = nil
	return nil
}

func (tx *Tx) pair(edgeID string) []string {
	ids := []string{edgeID}
	rev := datastructure.ReverseEdgeID(edgeID)
	if _, ok := tx.g.edgeIdx[rev]; ok {
		ids = append(ids, rev)
	}
	return ids
}

func (tx *Tx) MarkIncident(edgeID string, coord *datastructure.Coordinate) ([]string, error) {
	if _, err := tx.lookup(edgeID); err != nil {
		return nil, err
	}
	ids := tx.pair(edgeID)
	for _, id := range ids {
		if err := tx.SetWeight(id, datastructure.CriticalCost, true, coord); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (tx *Tx) ResolveIncident(edgeID string) ([]string, bool, error) {
	if _, err := tx.lookup(edgeID); err != nil {
		return nil, false, err
	}
	ids := tx.pair(edgeID)
	wasIncident := false
	for _, id := range ids {
		e, _ := tx.lookup(id)
		if e.incident {
			wasIncident = true
		}
	}
	if !wasIncident {
		return ids, false, nil
	}
	for _, id := range ids {
		if err := tx.ClearIncident(id); err != nil {
			return nil, false, err
		}
	}
	return ids, true, nil
}

// View reads weights while RoadGraph's lock is held. It is only valid inside View.
type View struct {
	g *RoadGraph
}

func (v *View) NumNodes() int {
	return len(v.g.nodes)
}

func (v *View) ForOutEdges(u int32, handle func(e datastructure.OutEdge)) {
	for _, idx := range v.g.outEdges[u] {
		e := &v.g.edges[idx]
		handle(datastructure.OutEdge{
			EdgeIdx:  idx,
			ToIdx:    e.toIdx,
			Weight:   e.current,
			Length:   e.desc.Length,
			Blocked:  e.incident,
			Drivable: e.desc.Drivable,
		})
	}
}
