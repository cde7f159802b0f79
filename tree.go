package mtree

import (
	"fmt"
	"math"
)

// Tree is a metric-space index. Inserts must be serialized and must not run
// concurrently with queries; queries may run concurrently with each other.
type Tree struct {
	cfg    Config
	metric countingMetric
	oracle SplitOracle
	logger *Logger

	root *node
	size int
	dim  int

	stats counters
}

// New creates an empty tree. cfg is validated eagerly.
func New(cfg Config) (*Tree, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	t := &Tree{
		cfg:    cfg,
		oracle: newOracle(&cfg),
		logger: cfg.Logger,
		root:   newLeaf(cfg.MaxEntries),
	}
	t.metric = countingMetric{inner: cfg.Metric, calls: &t.stats.distances}
	return t, nil
}

// Len returns the number of stored points.
func (t *Tree) Len() int { return t.size }

// Dim returns the dimensionality of stored points, or 0 for an empty tree.
func (t *Tree) Dim() int { return t.dim }

// Height returns the number of levels, 1 while the root is a leaf.
func (t *Tree) Height() int { return t.root.height() }

// Stats returns a snapshot of the tree's work counters.
func (t *Tree) Stats() Stats { return t.stats.snapshot() }

// checkQuery validates the dimensionality of a query against a non-empty tree.
func (t *Tree) checkQuery(q []float64) error {
	if len(q) != t.dim {
		return &DimensionMismatchError{Expected: t.dim, Actual: len(q)}
	}
	return checkCoords(q)
}

// checkCoords rejects empty coordinates and non-finite values, which would
// poison covering radii and every distance bound derived from them.
func checkCoords(coords []float64) error {
	if len(coords) == 0 {
		return fmt.Errorf("%w: no coordinates", ErrInvalidPoint)
	}
	for i, v := range coords {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: coordinate %d is %v", ErrInvalidPoint, i, v)
		}
	}
	return nil
}

// RouteSummary describes one routing entry of the root.
type RouteSummary struct {
	Center Point
	Radius float64
	Points int
}

// RootEntries returns the root's routing entries in order. It returns nil
// while the root is still a leaf.
func (t *Tree) RootEntries() []RouteSummary {
	if t.root.leaf {
		return nil
	}
	out := make([]RouteSummary, len(t.root.centers))
	for i, c := range t.root.centers {
		out[i] = RouteSummary{
			Center: c,
			Radius: t.root.radii[i],
			Points: t.root.children[i].pointCount(),
		}
	}
	return out
}

// Points returns every stored point in tree order.
func (t *Tree) Points() []Point {
	return t.root.collect(make([]Point, 0, t.size))
}

// Validate walks the whole tree and checks its structural invariants: key
// counts match entry lists, every point under a routing entry lies within
// its covering radius and cached parent distances are current.
func (t *Tree) Validate() error {
	count, err := t.validateNode(t.root, nil, 0)
	if err != nil {
		return err
	}
	if count != t.size {
		return fmt.Errorf("mtree: tree holds %d points, expected %d", count, t.size)
	}
	return nil
}

func (t *Tree) validateNode(n *node, parent *Point, depth int) (int, error) {
	metric := t.cfg.Metric
	if len(n.parentDists) != n.keyCount() {
		return 0, fmt.Errorf("mtree: depth %d: %d parent distances for %d keys", depth, len(n.parentDists), n.keyCount())
	}
	if parent != nil {
		for i := range n.keyCount() {
			want := metric.Distance(n.key(i).Coords, parent.Coords)
			if !withinTolerance(n.parentDists[i], want) {
				return 0, fmt.Errorf("mtree: depth %d entry %d: cached parent distance %g, actual %g", depth, i, n.parentDists[i], want)
			}
		}
	}
	if n.leaf {
		return len(n.points), nil
	}

	if len(n.radii) != len(n.centers) || len(n.children) != len(n.centers) {
		return 0, fmt.Errorf("mtree: depth %d: entry lists differ in length", depth)
	}
	if len(n.centers) > t.cfg.MaxEntries {
		return 0, fmt.Errorf("mtree: depth %d: %d routing entries, max %d", depth, len(n.centers), t.cfg.MaxEntries)
	}
	total := 0
	for i, c := range n.centers {
		child := n.children[i]
		if child == nil || child.keyCount() == 0 {
			return 0, fmt.Errorf("mtree: depth %d entry %d: empty child", depth, i)
		}
		for _, p := range child.collect(nil) {
			if d := metric.Distance(p.Coords, c.Coords); d > n.radii[i] && !withinTolerance(d, n.radii[i]) {
				return 0, fmt.Errorf("mtree: depth %d entry %d: point %d at distance %g outside covering radius %g", depth, i, p.ID, d, n.radii[i])
			}
		}
		count, err := t.validateNode(child, &n.centers[i], depth+1)
		if err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}

func withinTolerance(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*(1+math.Max(math.Abs(a), math.Abs(b)))
}
