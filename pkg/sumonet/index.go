package sumonet

import (
	"math"
	"sort"

	"pathsync/pkg/datastructure"

	"github.com/dhconnelly/rtreego"
)

var tol = 0.01

// segment is one straight piece of an edge's shape stored in the rtree.
type segment struct {
	edgeID string
	a, b   datastructure.Point
	bounds rtreego.Rect
}

func (s *segment) Bounds() rtreego.Rect {
	return s.bounds
}

type EdgeHit struct {
	EdgeID   string
	Distance float64
}

// EdgeIndex answers "drivable edges within radius" queries over edge shapes.
type EdgeIndex struct {
	tree *rtreego.Rtree
}

func NewEdgeIndex(edges []datastructure.Edge, showProgress bool) *EdgeIndex {
	tree := rtreego.NewTree(2, 25, 50) // 2 dimensions, 25 min entries, 50 max entries
	bar := newBar(len(edges), "[cyan][2/2][reset] building edge rtree...", showProgress)
	for _, e := range edges {
		bar.Add(1)
		if !e.Drivable || e.Internal {
			continue
		}
		for i := 0; i+1 < len(e.Shape); i++ {
			seg := &segment{edgeID: e.ID, a: e.Shape[i], b: e.Shape[i+1]}
			seg.bounds = segmentRect(seg.a, seg.b)
			tree.Insert(seg)
		}
	}
	bar.Finish()
	return &EdgeIndex{tree: tree}
}

func segmentRect(a, b datastructure.Point) rtreego.Rect {
	minX, minY := math.Min(a.X, b.X), math.Min(a.Y, b.Y)
	lx := math.Abs(a.X-b.X) + 2*tol
	ly := math.Abs(a.Y-b.Y) + 2*tol
	rect, _ := rtreego.NewRect(rtreego.Point{minX - tol, minY - tol}, []float64{lx, ly})
	return rect
}

func (ix *EdgeIndex) Nearest(p datastructure.Point, radius float64) []EdgeHit {
	if radius <= 0 {
		return nil
	}
	query, err := rtreego.NewRect(rtreego.Point{p.X - radius, p.Y - radius}, []float64{2 * radius, 2 * radius})
	if err != nil {
		return nil
	}

	best := make(map[string]float64)
	for _, obj := range ix.tree.SearchIntersect(query) {
		seg := obj.(*segment)
		d := pointSegmentDistance(p, seg.a, seg.b)
		if d > radius {
			continue
		}
		if cur, ok := best[seg.edgeID]; !ok || d < cur {
			best[seg.edgeID] = d
		}
	}

	hits := make([]EdgeHit, 0, len(best))
	for id, d := range best {
		hits = append(hits, EdgeHit{EdgeID: id, Distance: d})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance == hits[j].Distance {
			return hits[i].EdgeID < hits[j].EdgeID
		}
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}

func pointSegmentDistance(p, a, b datastructure.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
