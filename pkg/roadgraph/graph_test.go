package roadgraph_test

import (
	"sync"
	"testing"

	"pathsync/pkg/datastructure"
	"pathsync/pkg/roadgraph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTwoWayGraph(t *testing.T) *roadgraph.RoadGraph {
	t.Helper()
	g := roadgraph.NewRoadGraph()
	nodes := []datastructure.Node{
		{ID: "A", X: 0, Y: 0, Lat: 12.30, Lon: 76.60},
		{ID: "B", X: 100, Y: 0, Lat: 12.30, Lon: 76.61},
		{ID: "C", X: 100, Y: 100, Lat: 12.31, Lon: 76.61},
	}
	edges := []datastructure.Edge{
		{ID: "ab", From: "A", To: "B", Length: 100, SpeedLimit: 10, Drivable: true},
		{ID: "-ab", From: "B", To: "A", Length: 100, SpeedLimit: 10, Drivable: true},
		{ID: "bc", From: "B", To: "C", Length: 100, SpeedLimit: 20, Drivable: true},
	}
	require.NoError(t, g.Build(nodes, edges))
	return g
}

func TestBuild(t *testing.T) {
	t.Run("base weights are length over speed", func(t *testing.T) {
		g := newTwoWayGraph(t)
		w, err := g.Weight("ab")
		require.NoError(t, err)
		assert.Equal(t, 10.0, w)
		w, err = g.Weight("bc")
		require.NoError(t, err)
		assert.Equal(t, 5.0, w)
	})

	t.Run("second build is rejected", func(t *testing.T) {
		g := newTwoWayGraph(t)
		assert.ErrorIs(t, g.Build(nil, nil), roadgraph.ErrAlreadyBuilt)
	})

	t.Run("unknown endpoint is rejected", func(t *testing.T) {
		g := roadgraph.NewRoadGraph()
		err := g.Build([]datastructure.Node{{ID: "A"}}, []datastructure.Edge{{ID: "x", From: "A", To: "Z", Length: 1, SpeedLimit: 1}})
		assert.Error(t, err)
	})

	t.Run("parallel edges are addressable", func(t *testing.T) {
		g := roadgraph.NewRoadGraph()
		err := g.Build([]datastructure.Node{{ID: "A"}, {ID: "B"}}, []datastructure.Edge{
			{ID: "p1", From: "A", To: "B", Length: 10, SpeedLimit: 1},
			{ID: "p2", From: "A", To: "B", Length: 20, SpeedLimit: 1},
		})
		require.NoError(t, err)
		require.NoError(t, g.SetWeight("p1", 3, false, nil))
		w1, _ := g.Weight("p1")
		w2, _ := g.Weight("p2")
		assert.Equal(t, 3.0, w1)
		assert.Equal(t, 20.0, w2)
	})
}

func TestSetWeight(t *testing.T) {
	g := newTwoWayGraph(t)

	t.Run("unknown edge", func(t *testing.T) {
		assert.ErrorIs(t, g.SetWeight("nope", 1, false, nil), roadgraph.ErrInvalidEdgeReference)
		_, err := g.Weight("nope")
		assert.ErrorIs(t, err, roadgraph.ErrInvalidEdgeReference)
	})

	t.Run("sentinel without flag is rejected", func(t *testing.T) {
		assert.ErrorIs(t, g.SetWeight("ab", datastructure.CriticalCost, false, nil), roadgraph.ErrInvariantViolation)
		assert.ErrorIs(t, g.SetWeight("ab", 12, true, nil), roadgraph.ErrInvariantViolation)
		assert.NoError(t, g.CheckInvariant())
	})

	t.Run("negative weight is rejected", func(t *testing.T) {
		assert.ErrorIs(t, g.SetWeight("ab", -1, false, nil), roadgraph.ErrInvalidWeight)
	})

	t.Run("incident stores coordinate and clear restores base", func(t *testing.T) {
		coord := datastructure.NewCoordinate(12.305, 76.605)
		require.NoError(t, g.SetWeight("bc", datastructure.CriticalCost, true, &coord))
		require.NoError(t, g.CheckInvariant())

		snap := findEdge(g.SnapshotEdges(), "bc")
		require.NotNil(t, snap.IncidentCoord)
		assert.Equal(t, coord, *snap.IncidentCoord)

		require.NoError(t, g.ClearIncident("bc"))
		w, _ := g.Weight("bc")
		assert.Equal(t, 5.0, w)
		assert.Nil(t, findEdge(g.SnapshotEdges(), "bc").IncidentCoord)
		assert.NoError(t, g.CheckInvariant())
	})

	t.Run("live readings never reach the sentinel", func(t *testing.T) {
		err := g.Update(func(tx *roadgraph.Tx) error {
			return tx.SetLiveWeight("bc", 5e9)
		})
		require.NoError(t, err)
		w, _ := g.Weight("bc")
		assert.Less(t, w, datastructure.CriticalCost)
		assert.NoError(t, g.CheckInvariant())
	})
}

func TestIncidentPairing(t *testing.T) {
	g := newTwoWayGraph(t)

	affected, err := g.MarkIncident("-ab", nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"-ab", "ab"}, affected)
	for _, id := range []string{"ab", "-ab"} {
		w, _ := g.Weight(id)
		assert.Equal(t, datastructure.CriticalCost, w)
	}
	require.NoError(t, g.CheckInvariant())

	affected, was, err := g.ResolveIncident("ab")
	require.NoError(t, err)
	assert.True(t, was)
	assert.ElementsMatch(t, []string{"ab", "-ab"}, affected)
	for _, id := range []string{"ab", "-ab"} {
		w, _ := g.Weight(id)
		assert.Equal(t, 10.0, w)
	}

	_, was, err = g.ResolveIncident("ab")
	require.NoError(t, err)
	assert.False(t, was)

	affected, err = g.MarkIncident("bc", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"bc"}, affected)
}

func TestNearestNode(t *testing.T) {
	g := newTwoWayGraph(t)
	_, n, err := g.NearestNode(datastructure.Point{X: 90, Y: 80})
	require.NoError(t, err)
	assert.Equal(t, "C", n.ID)

	_, _, err = roadgraph.NewRoadGraph().NearestNode(datastructure.Point{})
	assert.ErrorIs(t, err, roadgraph.ErrEmptyGraph)
}

func TestConcurrentMutationsKeepInvariant(t *testing.T) {
	g := newTwoWayGraph(t)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				if (i+j)%2 == 0 {
					_, _ = g.MarkIncident("ab", nil)
				} else {
					_, _, _ = g.ResolveIncident("-ab")
				}
			}
		}(i)
	}

	errs := make(chan error, 1)
	go func() {
		for {
			select {
			case <-stop:
				close(errs)
				return
			default:
			}
			for _, e := range g.SnapshotEdges() {
				if e.IsIncident != (e.Weight == datastructure.CriticalCost) {
					errs <- roadgraph.ErrInvariantViolation
					close(errs)
					return
				}
			}
			flags := g.IncidentFlags([]string{"ab", "-ab"})
			if flags["ab"] != flags["-ab"] {
				errs <- roadgraph.ErrInvariantViolation
				close(errs)
				return
			}
		}
	}()

	wg.Wait()
	close(stop)
	for err := range errs {
		t.Fatal(err)
	}
	assert.NoError(t, g.CheckInvariant())
}

func findEdge(snap []roadgraph.EdgeSnapshot, id string) roadgraph.EdgeSnapshot {
	for _, e := range snap {
		if e.ID == id {
			return e
		}
	}
	return roadgraph.EdgeSnapshot{}
}
