package mtree

import (
	"fmt"
	"math"
	"slices"
)

// Insert adds p to the tree. The first point fixes the dimensionality;
// later points must match it. Coordinates are copied.
func (t *Tree) Insert(p Point) error {
	if err := checkCoords(p.Coords); err != nil {
		return fmt.Errorf("point %d: %w", p.ID, err)
	}
	if t.size > 0 && len(p.Coords) != t.dim {
		return &DimensionMismatchError{Expected: t.dim, Actual: len(p.Coords)}
	}
	p.Coords = slices.Clone(p.Coords)

	t.maybeSplitRoot()
	t.insertNonFull(t.root, p)

	if t.size == 0 {
		t.dim = len(p.Coords)
	}
	t.size++
	return nil
}

// InsertAll inserts points in order and stops at the first error.
func (t *Tree) InsertAll(points []Point) error {
	for i, p := range points {
		if err := t.Insert(p); err != nil {
			return fmt.Errorf("mtree: insert point %d of %d: %w", i, len(points), err)
		}
	}
	return nil
}

// maybeSplitRoot replaces the root with a new internal node when the oracle
// finds clusters among a leaf root's points. With GrowRoot a full internal
// root is split in two, adding a level.
func (t *Tree) maybeSplitRoot() {
	root := t.root
	if root.keyCount() == 0 {
		return
	}

	members := membersOf(root)
	var (
		ev Evaluation
		ok bool
	)
	switch {
	case root.leaf:
		ev, ok = t.proposeSplit(members, t.cfg.MaxEntries)
	case t.cfg.GrowRoot && root.keyCount() >= t.cfg.MaxEntries:
		ev, ok = t.evaluateK(memberCoords(members), 2)
	}
	if !ok {
		return
	}

	routes := t.splitMembers(members, ev, root.leaf, t.cfg.MaxEntries)
	if routes == nil {
		return
	}
	newRoot := newInternal(t.cfg.MaxEntries)
	for _, r := range routes {
		newRoot.appendRoute(r, 0)
	}
	t.root = newRoot

	t.stats.splits.Add(1)
	t.stats.rootSplits.Add(1)
	t.logger.LogSplit(root.leaf, true, len(members), len(routes))
}

// insertNonFull descends from n to a leaf and appends p there. At every
// internal node the chosen child is offered to the oracle for splitting
// first, as long as the node can take the extra routing entries.
func (t *Tree) insertNonFull(n *node, p Point) {
	var (
		parent  *Point
		dParent float64
	)
	for !n.leaf {
		idx, d := t.nearestRoute(n, p.Coords, 0, n.keyCount())

		limit := t.cfg.MaxEntries - n.keyCount() + 1
		if limit >= 2 && n.children[idx].keyCount() > 0 {
			if m := t.splitChild(n, idx, parent, limit); m > 1 {
				idx, d = t.nearestRoute(n, p.Coords, idx, idx+m)
			}
		}

		n.radii[idx] = math.Max(n.radii[idx], d)
		parent = &n.centers[idx]
		dParent = d
		n = n.children[idx]
	}
	n.appendPoint(p, dParent)
}

// nearestRoute returns the entry in [from, to) whose center is closest to
// q, first on ties, and its distance.
func (t *Tree) nearestRoute(n *node, q []float64, from, to int) (int, float64) {
	best := from
	bestDist := math.Inf(1)
	for i := from; i < to; i++ {
		if d := t.metric.Distance(q, n.centers[i].Coords); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best, bestDist
}

// splitChild splits the subtree under entry idx of n in place. The entry is
// overwritten by the first resulting route and the others are inserted
// right after it. parent is the routing center pointing at n, nil for the
// root. It returns the number of routes now standing in for the child.
func (t *Tree) splitChild(n *node, idx int, parent *Point, limit int) int {
	child := n.children[idx]
	members := membersOf(child)
	ev, ok := t.proposeSplit(members, limit)
	if !ok {
		return 1
	}
	routes := t.splitMembers(members, ev, child.leaf, limit)
	if routes == nil {
		return 1
	}

	for j, r := range routes {
		var pd float64
		if parent != nil {
			pd = t.metric.Distance(r.center.Coords, parent.Coords)
		}
		if j == 0 {
			n.setRoute(idx, r, pd)
		} else {
			n.insertRoute(idx+j, r, pd)
		}
	}

	t.stats.splits.Add(1)
	t.logger.LogSplit(child.leaf, false, len(members), len(routes))
	return len(routes)
}
