package mtree

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// RangeQuery returns every stored point within distance r of q, in no
// particular order. An empty tree yields an empty result.
func (t *Tree) RangeQuery(q []float64, r float64) ([]Point, error) {
	if math.IsNaN(r) || r < 0 {
		return nil, ErrNegativeRadius
	}
	if t.size == 0 {
		return nil, nil
	}
	if err := t.checkQuery(q); err != nil {
		return nil, err
	}
	s := rangeSearch{tree: t, q: q, r: r, bound: math.Nextafter(r, math.Inf(1))}
	s.visit(t.root, 0, false)
	return s.out, nil
}

// RangeIDs is RangeQuery returning only the point IDs.
func (t *Tree) RangeIDs(q []float64, r float64) (*roaring.Bitmap, error) {
	points, err := t.RangeQuery(q, r)
	if err != nil {
		return nil, err
	}
	ids := roaring.New()
	for _, p := range points {
		ids.Add(p.ID)
	}
	return ids, nil
}

type rangeSearch struct {
	tree  *Tree
	q     []float64
	r     float64
	bound float64 // smallest value strictly above r
	out   []Point
}

// visit searches n. dParent is the query's distance to the routing center
// pointing at n, valid when hasParent is set.
func (s *rangeSearch) visit(n *node, dParent float64, hasParent bool) {
	metric := s.tree.metric
	if n.leaf {
		for i, p := range n.points {
			pd := n.parentDists[i]
			if hasParent && math.Abs(dParent-pd) > s.r+pruneSlack(max(dParent, pd)) {
				continue
			}
			if metric.DistanceWithin(s.q, p.Coords, s.bound) < s.bound {
				s.out = append(s.out, p)
			}
		}
		return
	}

	for i, c := range n.centers {
		reach := s.r + n.radii[i]
		pd := n.parentDists[i]
		if hasParent && math.Abs(dParent-pd) > reach+pruneSlack(max(dParent, pd)) {
			continue
		}
		if d := metric.Distance(s.q, c.Coords); d <= reach+pruneSlack(d) {
			s.visit(n.children[i], d, true)
		}
	}
}
