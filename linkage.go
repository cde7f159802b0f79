package mtree

import (
	"cmp"
	"fmt"
	"slices"
)

// SingleLinkage partitions points by cutting the k-1 heaviest edges of
// their minimum spanning tree. Well separated groups of any shape survive
// the cut intact, unlike with centroid-based partitioners.
type SingleLinkage struct {
	Metric DistanceMetric

	// Workers bounds the goroutines computing the distance matrix.
	Workers int
}

// Partition implements Partitioner. k is clamped to the number of points.
func (sl *SingleLinkage) Partition(points [][]float64, k int) ([]int, error) {
	n := len(points)
	if n == 0 {
		return nil, ErrEmptyInput
	}
	if k < 1 {
		return nil, fmt.Errorf("mtree: single linkage needs k >= 1, got %d", k)
	}
	k = min(k, n)

	dist, err := pairwiseDistances(points, sl.Metric, sl.Workers)
	if err != nil {
		return nil, err
	}
	edges := primMST(dist, n)
	slices.SortStableFunc(edges, func(a, b mstEdge) int {
		return cmp.Compare(a.weight, b.weight)
	})

	uf := newUnionFind(n)
	for _, e := range edges[:n-k] {
		uf.union(e.from, e.to)
	}
	return uf.labels(), nil
}
