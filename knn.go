package mtree

import (
	"container/heap"
	"math"
	"slices"
)

// Neighbor is a kNN result: a stored point and its distance to the query.
type Neighbor struct {
	Point    Point
	Distance float64
}

// KNearest returns the k stored points closest to q in ascending distance
// order, or every point when the tree holds fewer than k. Ties at the k-th
// distance are broken arbitrarily.
func (t *Tree) KNearest(q []float64, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if t.size == 0 {
		return nil, nil
	}
	if err := t.checkQuery(q); err != nil {
		return nil, err
	}

	// No result can hold more than every stored point.
	s := newKNNSearch(t, q, min(k, t.size))
	s.run()
	s.resolvePlaceholders()
	return s.results(), nil
}

type slotKind uint8

const (
	slotEmpty slotKind = iota
	slotResolved
	slotPlaceholder
)

// slot is one position of the best-k array. A resolved slot holds a real
// point at an exact distance. A placeholder stands for some point under
// subtree, which lies within dist of the query but is not located yet.
type slot struct {
	kind    slotKind
	dist    float64
	point   Point
	subtree *node
}

// pending is a subtree waiting in the search queue. path lists the nodes
// from the root down to and including n.
type pending struct {
	n         *node
	lower     float64
	dParent   float64
	hasParent bool
	path      []*node
	seq       int
}

type pendingQueue []*pending

func (pq pendingQueue) Len() int { return len(pq) }
func (pq pendingQueue) Less(i, j int) bool {
	if pq[i].lower != pq[j].lower {
		return pq[i].lower < pq[j].lower
	}
	return pq[i].seq < pq[j].seq
}
func (pq pendingQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }
func (pq *pendingQueue) Push(x any)   { *pq = append(*pq, x.(*pending)) }
func (pq *pendingQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// knnSearch is a best-first branch-and-bound search. Every non-empty slot
// is backed by a distinct stored point: a placeholder is dropped as soon as
// a slot is filled from inside its subtree, so the k-th bound never counts
// the same point twice and every prune against it is safe.
type knnSearch struct {
	tree  *Tree
	q     []float64
	slots []slot
	queue pendingQueue
	seq   int
}

func newKNNSearch(t *Tree, q []float64, k int) *knnSearch {
	slots := make([]slot, k)
	for i := range slots {
		slots[i].dist = math.Inf(1)
	}
	return &knnSearch{tree: t, q: q, slots: slots}
}

func (s *knnSearch) kth() float64 { return s.slots[len(s.slots)-1].dist }

func (s *knnSearch) push(p *pending) {
	p.seq = s.seq
	s.seq++
	heap.Push(&s.queue, p)
}

func (s *knnSearch) run() {
	root := s.tree.root
	s.push(&pending{n: root, path: []*node{root}})
	for s.queue.Len() > 0 {
		item := heap.Pop(&s.queue).(*pending)
		if item.lower > s.kth() {
			continue
		}
		if item.n.leaf {
			s.scanLeaf(item)
		} else {
			s.expand(item)
		}
		s.purge()
	}
}

// expand queues every child of an internal node that may still hold a
// point closer than the current k-th bound, and claims a slot for it when
// its farthest possible point already beats that bound.
func (s *knnSearch) expand(item *pending) {
	n := item.n
	metric := s.tree.metric
	for i, c := range n.centers {
		r := n.radii[i]
		kth := s.kth()
		pd := n.parentDists[i]
		if item.hasParent && math.Abs(item.dParent-pd) > r+kth+pruneSlack(max(item.dParent, pd)) {
			continue
		}
		reach := kth + r
		reach += pruneSlack(reach)
		d := metric.DistanceWithin(s.q, c.Coords, reach)
		if d >= reach {
			continue
		}
		dmin := math.Max(d-r-pruneSlack(d), 0)
		if dmin >= kth {
			continue
		}

		child := n.children[i]
		path := append(slices.Clone(item.path), child)
		s.push(&pending{n: child, lower: dmin, dParent: d, hasParent: true, path: path})

		dmax := d + r + pruneSlack(d)
		if dmax < kth || (dmax == kth && s.claimedOnPath(item.path) >= 0) {
			s.dropClaims(item.path)
			s.offer(slot{kind: slotPlaceholder, dist: dmax, point: c, subtree: child})
		}
	}
}

// scanLeaf offers every point of a leaf that beats the k-th bound. A point
// that only ties the bound still replaces a placeholder covering this leaf.
func (s *knnSearch) scanLeaf(item *pending) {
	n := item.n
	metric := s.tree.metric
	for i, p := range n.points {
		kth := s.kth()
		pd := n.parentDists[i]
		if item.hasParent && math.Abs(item.dParent-pd) > kth+pruneSlack(max(item.dParent, pd)) {
			continue
		}
		claimed := s.claimedOnPath(item.path) >= 0
		bound := kth
		if claimed {
			bound = math.Nextafter(kth, math.Inf(1))
		}
		d := metric.DistanceWithin(s.q, p.Coords, bound)
		if d >= bound {
			continue
		}
		s.dropClaims(item.path)
		s.offer(slot{kind: slotResolved, dist: d, point: p})
	}
}

// claimedOnPath returns the index of a placeholder standing for any node
// on path, or -1.
func (s *knnSearch) claimedOnPath(path []*node) int {
	for i, sl := range s.slots {
		if sl.kind == slotPlaceholder && slices.Contains(path, sl.subtree) {
			return i
		}
	}
	return -1
}

// dropClaims removes every placeholder standing for a node on path.
func (s *knnSearch) dropClaims(path []*node) {
	for i := s.claimedOnPath(path); i >= 0; i = s.claimedOnPath(path) {
		s.remove(i)
	}
}

func (s *knnSearch) remove(i int) {
	copy(s.slots[i:], s.slots[i+1:])
	s.slots[len(s.slots)-1] = slot{dist: math.Inf(1)}
}

// offer places sl at its sorted position, evicting the worst slot. Equal
// distances keep their arrival order.
func (s *knnSearch) offer(sl slot) {
	last := len(s.slots) - 1
	if sl.dist > s.slots[last].dist {
		return
	}
	pos := last
	for pos > 0 && s.slots[pos-1].dist > sl.dist {
		pos--
	}
	copy(s.slots[pos+1:], s.slots[pos:last])
	s.slots[pos] = sl
}

// purge drops queued subtrees whose lower bound exceeds the k-th bound.
func (s *knnSearch) purge() {
	kth := s.kth()
	if math.IsInf(kth, 1) {
		return
	}
	kept := s.queue[:0]
	for _, p := range s.queue {
		if p.lower <= kth {
			kept = append(kept, p)
		}
	}
	clear(s.queue[len(kept):])
	s.queue = kept
	heap.Init(&s.queue)
}

// resolvePlaceholders replaces every placeholder left once the queue is
// empty with the best points of its subtree, found by a full scan.
func (s *knnSearch) resolvePlaceholders() {
	for {
		i := slices.IndexFunc(s.slots, func(sl slot) bool { return sl.kind == slotPlaceholder })
		if i < 0 {
			return
		}
		subtree := s.slots[i].subtree
		s.remove(i)

		points := subtree.collect(nil)
		s.tree.stats.forcedResolutions.Add(1)
		s.tree.logger.LogForcedResolution(len(s.slots), len(points))

		metric := s.tree.metric
		for _, p := range points {
			kth := s.kth()
			if d := metric.DistanceWithin(s.q, p.Coords, kth); d < kth {
				s.offer(slot{kind: slotResolved, dist: d, point: p})
			}
		}
	}
}

func (s *knnSearch) results() []Neighbor {
	out := make([]Neighbor, 0, len(s.slots))
	for _, sl := range s.slots {
		if sl.kind == slotResolved {
			out = append(out, Neighbor{Point: sl.point, Distance: sl.dist})
		}
	}
	return out
}
