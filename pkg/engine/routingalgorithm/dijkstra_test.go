package routingalgorithm_test

import (
	"testing"

	"pathsync/pkg/datastructure"
	"pathsync/pkg/engine/routingalgorithm"

	"github.com/stretchr/testify/assert"
)

type testGraph struct {
	adj [][]datastructure.OutEdge
}

func (g *testGraph) NumNodes() int { return len(g.adj) }

func (g *testGraph) ForOutEdges(u int32, handle func(e datastructure.OutEdge)) {
	for _, e := range g.adj[u] {
		handle(e)
	}
}

// diamond: 0=A 1=B 2=C 3=D, A->B->D and A->C->D, every leg weighs 10.
func diamond() *testGraph {
	leg := func(idx, to int32, w float64) datastructure.OutEdge {
		return datastructure.OutEdge{EdgeIdx: idx, ToIdx: to, Weight: w, Length: w * 10, Drivable: true}
	}
	return &testGraph{adj: [][]datastructure.OutEdge{
		{leg(0, 1, 10), leg(1, 2, 10)},
		{leg(2, 3, 10)},
		{leg(3, 3, 10)},
		{},
	}}
}

func TestShortestPathDijkstra(t *testing.T) {
	rt := routingalgorithm.NewRouteAlgorithm()

	t.Run("diamond", func(t *testing.T) {
		res := rt.ShortestPathDijkstra(diamond(), 0, 3)
		assert.True(t, res.Found)
		assert.Equal(t, 20.0, res.ETA)
		assert.Equal(t, 200.0, res.Dist)
		assert.Len(t, res.Nodes, 3)
		assert.Equal(t, int32(0), res.Nodes[0])
		assert.Equal(t, int32(3), res.Nodes[2])
		assert.Len(t, res.Edges, 2)
	})

	t.Run("blocked leg is avoided", func(t *testing.T) {
		g := diamond()
		g.adj[0][0].Blocked = true
		g.adj[0][0].Weight = datastructure.CriticalCost
		res := rt.ShortestPathDijkstra(g, 0, 3)
		assert.True(t, res.Found)
		assert.Equal(t, []int32{0, 2, 3}, res.Nodes)
		assert.Equal(t, 20.0, res.ETA)
	})

	t.Run("only blocked paths means no path", func(t *testing.T) {
		g := diamond()
		g.adj[0][0].Blocked = true
		g.adj[0][1].Blocked = true
		res := rt.ShortestPathDijkstra(g, 0, 3)
		assert.False(t, res.Found)
	})

	t.Run("cheaper detour wins", func(t *testing.T) {
		g := diamond()
		g.adj[1][0].Weight = 50
		res := rt.ShortestPathDijkstra(g, 0, 3)
		assert.Equal(t, []int32{0, 2, 3}, res.Nodes)
		assert.Equal(t, 20.0, res.ETA)
	})

	t.Run("per edge weights follow the path", func(t *testing.T) {
		g := diamond()
		g.adj[0][1].Weight = 4
		g.adj[2][0].Weight = 7
		res := rt.ShortestPathDijkstra(g, 0, 3)
		assert.Equal(t, []int32{1, 3}, res.Edges)
		assert.Equal(t, []float64{4, 7}, res.Weights)
		assert.Equal(t, 11.0, res.ETA)

		// later weight changes do not reach an already computed result
		g.adj[0][1].Weight = 100
		assert.Equal(t, []float64{4, 7}, res.Weights)
	})

	t.Run("same source and target", func(t *testing.T) {
		res := rt.ShortestPathDijkstra(diamond(), 2, 2)
		assert.True(t, res.Found)
		assert.Equal(t, []int32{2}, res.Nodes)
		assert.Equal(t, 0.0, res.ETA)
	})

	t.Run("disconnected", func(t *testing.T) {
		res := rt.ShortestPathDijkstra(diamond(), 3, 0)
		assert.False(t, res.Found)
	})
}

func TestMinHeap(t *testing.T) {
	h := routingalgorithm.NewMinHeap[int32]()
	for i, r := range []float64{5, 3, 8, 1, 9, 2} {
		h.Insert(routingalgorithm.PriorityQueueNode[int32]{Rank: r, Item: int32(i)})
	}
	assert.NoError(t, h.DecreaseKey(routingalgorithm.PriorityQueueNode[int32]{Rank: 0, Item: 4}))

	got := []int32{}
	for h.Size() > 0 {
		n, err := h.ExtractMin()
		assert.NoError(t, err)
		got = append(got, n.Item)
	}
	assert.Equal(t, []int32{4, 3, 5, 1, 0, 2}, got)
	_, err := h.ExtractMin()
	assert.Error(t, err)
}
