package mtree

// Point is a stored object: an identifier and the coordinates the metric
// and split oracle operate on.
type Point struct {
	ID     uint32
	Coords []float64
}

// node is either a leaf holding points or an internal node holding routing
// entries (center, covering radius, child). Parallel slices always have the
// same length, which is the node's key count.
//
// parentDists[i] is the distance from entry i (a point in a leaf, a center
// in an internal node) to the routing center that points at this node. It
// is meaningless for the root.
type node struct {
	leaf bool

	points []Point

	centers  []Point
	radii    []float64
	children []*node

	parentDists []float64
}

func newLeaf(capacity int) *node {
	return &node{
		leaf:        true,
		points:      make([]Point, 0, capacity),
		parentDists: make([]float64, 0, capacity),
	}
}

func newInternal(capacity int) *node {
	return &node{
		centers:     make([]Point, 0, capacity),
		radii:       make([]float64, 0, capacity),
		children:    make([]*node, 0, capacity),
		parentDists: make([]float64, 0, capacity),
	}
}

func (n *node) keyCount() int {
	if n.leaf {
		return len(n.points)
	}
	return len(n.centers)
}

// key returns the point that represents entry i: the stored point in a
// leaf, the routing center in an internal node.
func (n *node) key(i int) Point {
	if n.leaf {
		return n.points[i]
	}
	return n.centers[i]
}

func (n *node) appendPoint(p Point, parentDist float64) {
	n.points = append(n.points, p)
	n.parentDists = append(n.parentDists, parentDist)
}

func (n *node) appendRoute(c route, parentDist float64) {
	n.centers = append(n.centers, c.center)
	n.radii = append(n.radii, c.radius)
	n.children = append(n.children, c.child)
	n.parentDists = append(n.parentDists, parentDist)
}

// setRoute overwrites entry i.
func (n *node) setRoute(i int, c route, parentDist float64) {
	n.centers[i] = c.center
	n.radii[i] = c.radius
	n.children[i] = c.child
	n.parentDists[i] = parentDist
}

// insertRoute places c at position i, shifting later entries right.
func (n *node) insertRoute(i int, c route, parentDist float64) {
	n.centers = append(n.centers, Point{})
	copy(n.centers[i+1:], n.centers[i:])
	n.centers[i] = c.center

	n.radii = append(n.radii, 0)
	copy(n.radii[i+1:], n.radii[i:])
	n.radii[i] = c.radius

	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = c.child

	n.parentDists = append(n.parentDists, 0)
	copy(n.parentDists[i+1:], n.parentDists[i:])
	n.parentDists[i] = parentDist
}

// pointCount returns the number of points stored under n.
func (n *node) pointCount() int {
	if n.leaf {
		return len(n.points)
	}
	total := 0
	for _, c := range n.children {
		total += c.pointCount()
	}
	return total
}

// height returns the number of levels from n down to its deepest leaf.
func (n *node) height() int {
	if n.leaf {
		return 1
	}
	deepest := 0
	for _, c := range n.children {
		deepest = max(deepest, c.height())
	}
	return deepest + 1
}

// collect appends every point stored under n to dst.
func (n *node) collect(dst []Point) []Point {
	if n.leaf {
		return append(dst, n.points...)
	}
	for _, c := range n.children {
		dst = c.collect(dst)
	}
	return dst
}

// route is one routing entry: a center, the covering radius of everything
// under child, and the child itself.
type route struct {
	center Point
	radius float64
	child  *node
}
