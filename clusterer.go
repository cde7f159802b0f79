package mtree

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Clusterer reads a flat clustering off a tree: every routing entry of the
// root is one cluster. A tree whose root never split has a single cluster.
type Clusterer struct {
	cfg   Config
	tree  *Tree
	built []Point
}

// NewClusterer validates cfg and returns an unbuilt Clusterer.
func NewClusterer(cfg Config) (*Clusterer, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &Clusterer{cfg: cfg}, nil
}

// Tree returns the underlying tree, nil before Build.
func (c *Clusterer) Tree() *Tree { return c.tree }

// Build indexes points into a fresh tree. With SeedOptimisation, up to
// MaxEntries k-means++ seeds are inserted first and the remaining points
// follow in input order; every point is inserted exactly once. Point IDs
// must be unique.
func (c *Clusterer) Build(points []Point) error {
	if len(points) == 0 {
		return ErrEmptyInput
	}
	ids := roaring.New()
	for i, p := range points {
		if !ids.CheckedAdd(p.ID) {
			return fmt.Errorf("%w: %d at position %d", ErrDuplicateID, p.ID, i)
		}
	}
	tree, err := New(c.cfg)
	if err != nil {
		return err
	}

	order := points
	if c.cfg.SeedOptimisation {
		order, err = seedOrder(points, c.cfg.MaxEntries, c.cfg.Metric, c.cfg.Seed)
		if err != nil {
			return err
		}
	}
	if err := tree.InsertAll(order); err != nil {
		return err
	}
	c.tree = tree
	c.built = points
	return nil
}

// seedOrder returns points with k-means++ seeds moved to the front.
func seedOrder(points []Point, k int, metric DistanceMetric, seed uint64) ([]Point, error) {
	coords := make([][]float64, len(points))
	for i, p := range points {
		if len(p.Coords) != len(points[0].Coords) {
			return nil, &DimensionMismatchError{Expected: len(points[0].Coords), Actual: len(p.Coords)}
		}
		coords[i] = p.Coords
	}
	seeds := kmeansPlusPlus(coords, k, metric, newRand(seed))

	isSeed := make([]bool, len(points))
	order := make([]Point, 0, len(points))
	for _, s := range seeds {
		isSeed[s] = true
		order = append(order, points[s])
	}
	for i, p := range points {
		if !isSeed[i] {
			order = append(order, p)
		}
	}
	return order, nil
}

// NumClusters returns the number of clusters, 0 before Build.
func (c *Clusterer) NumClusters() int {
	if c.tree == nil {
		return 0
	}
	if c.tree.root.leaf {
		return 1
	}
	return len(c.tree.root.centers)
}

// Assign returns the cluster whose center is nearest to q, first on ties.
func (c *Clusterer) Assign(q []float64) (int, error) {
	if c.tree == nil {
		return 0, fmt.Errorf("mtree: clusterer not built")
	}
	if err := c.tree.checkQuery(q); err != nil {
		return 0, err
	}
	root := c.tree.root
	if root.leaf {
		return 0, nil
	}
	idx, _ := c.tree.nearestRoute(root, q, 0, len(root.centers))
	return idx, nil
}

// Assignments returns the cluster holding each built point, in Build input
// order. A point belongs to the cluster whose subtree stores it.
func (c *Clusterer) Assignments() []int {
	if c.tree == nil {
		return nil
	}
	owner := c.ownerByID()
	out := make([]int, len(c.built))
	for i, p := range c.built {
		out[i] = owner[p.ID]
	}
	return out
}

func (c *Clusterer) ownerByID() map[uint32]int {
	owner := make(map[uint32]int, len(c.built))
	for i, g := range c.groups() {
		for _, p := range g {
			owner[p.ID] = i
		}
	}
	return owner
}

// groups returns the stored points of every cluster.
func (c *Clusterer) groups() [][]Point {
	root := c.tree.root
	if root.leaf {
		return [][]Point{root.collect(nil)}
	}
	out := make([][]Point, len(root.children))
	for i, child := range root.children {
		out[i] = child.collect(nil)
	}
	return out
}

// ClusterSizes returns the number of points in each cluster.
func (c *Clusterer) ClusterSizes() []int {
	if c.tree == nil {
		return nil
	}
	groups := c.groups()
	sizes := make([]int, len(groups))
	for i, g := range groups {
		sizes[i] = len(g)
	}
	return sizes
}

// Centroids returns each cluster's center: the routing center of its root
// entry, or the minimax center of all points while the root is a leaf.
func (c *Clusterer) Centroids() [][]float64 {
	if c.tree == nil {
		return nil
	}
	root := c.tree.root
	if root.leaf {
		members := membersOf(root)
		center, _, _ := chooseCenter(c.cfg.Metric, members)
		return [][]float64{append([]float64(nil), members[center].point.Coords...)}
	}
	out := make([][]float64, len(root.centers))
	for i, ctr := range root.centers {
		out[i] = append([]float64(nil), ctr.Coords...)
	}
	return out
}

// ClusterMeans returns the coordinate-wise mean of each cluster's points.
func (c *Clusterer) ClusterMeans() [][]float64 {
	if c.tree == nil {
		return nil
	}
	dim := c.tree.dim
	groups := c.groups()
	out := make([][]float64, len(groups))
	column := make([]float64, 0, c.tree.size)
	for i, g := range groups {
		mean := make([]float64, dim)
		for d := range dim {
			column = column[:0]
			for _, p := range g {
				column = append(column, p.Coords[d])
			}
			mean[d] = stat.Mean(column, nil)
		}
		out[i] = mean
	}
	return out
}

// SquaredErrors returns, per cluster, the sum of each point's distance to
// its cluster center. Distances are squared for the Euclidean metric.
func (c *Clusterer) SquaredErrors() []float64 {
	if c.tree == nil {
		return nil
	}
	centroids := c.Centroids()
	groups := c.groups()
	_, squared := c.cfg.Metric.(EuclideanMetric)

	out := make([]float64, len(groups))
	for i, g := range groups {
		errs := make([]float64, len(g))
		for j, p := range g {
			d := c.cfg.Metric.Distance(p.Coords, centroids[i])
			if squared {
				d *= d
			}
			errs[j] = d
		}
		out[i] = floats.Sum(errs)
	}
	return out
}

// SumOfSquaredErrors totals SquaredErrors; NaN before Build.
func (c *Clusterer) SumOfSquaredErrors() float64 {
	if c.tree == nil {
		return math.NaN()
	}
	return floats.Sum(c.SquaredErrors())
}
