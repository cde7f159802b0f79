package mtree

import (
	"fmt"
	"math"
)

// Evaluation is a split oracle's answer for a point set: a cluster count
// and one cluster label per point.
type Evaluation struct {
	NumClusters int
	Labels      []int
}

// Valid reports whether e describes a real split of n points: at least one
// cluster, one in-range label per point, and at least two distinct labels.
// A uniform assignment means "no split" whatever NumClusters says.
func (e Evaluation) Valid(n int) bool {
	if e.NumClusters < 1 || len(e.Labels) != n || n == 0 {
		return false
	}
	distinct := false
	for _, l := range e.Labels {
		if l < 0 || l >= e.NumClusters {
			return false
		}
		if l != e.Labels[0] {
			distinct = true
		}
	}
	return distinct
}

// uniform returns the "no split" evaluation for n points.
func uniform(n int) Evaluation {
	return Evaluation{NumClusters: 1, Labels: make([]int, n)}
}

// SplitOracle decides whether a point set decomposes into several clusters.
//
// Evaluate is free-running: the oracle picks the cluster count itself,
// considering at most maxK clusters. EvaluateK partitions into (at most) k
// clusters. Either may fail on degenerate input; callers treat failures and
// invalid evaluations as "no split".
type SplitOracle interface {
	Evaluate(points [][]float64, maxK int) (Evaluation, error)
	EvaluateK(points [][]float64, k int) (Evaluation, error)
}

// Partitioner assigns every point to one of k groups. It is the split
// policy used once the cluster count is known.
type Partitioner interface {
	Partition(points [][]float64, k int) ([]int, error)
}

// KEstimator predicts how many clusters a point set holds, at most maxK.
// Returning 1 means the set should not be split.
type KEstimator interface {
	EstimateK(points [][]float64, maxK int) (int, error)
}

// VotingOracle asks Estimator for a cluster count and lets Partitioner
// produce the assignment.
type VotingOracle struct {
	Estimator   KEstimator
	Partitioner Partitioner
}

// Evaluate implements SplitOracle.
func (o *VotingOracle) Evaluate(points [][]float64, maxK int) (Evaluation, error) {
	if len(points) == 0 {
		return Evaluation{}, ErrEmptyInput
	}
	k, err := o.Estimator.EstimateK(points, maxK)
	if err != nil {
		return Evaluation{}, err
	}
	if k <= 1 {
		return uniform(len(points)), nil
	}
	return o.EvaluateK(points, k)
}

// EvaluateK implements SplitOracle.
func (o *VotingOracle) EvaluateK(points [][]float64, k int) (Evaluation, error) {
	labels, err := o.Partitioner.Partition(points, k)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{NumClusters: k, Labels: labels}, nil
}

// CapacityEstimator proposes K clusters once a node holds more than
// Threshold entries and no split otherwise.
type CapacityEstimator struct {
	Threshold int
	K         int
}

// EstimateK implements KEstimator.
func (e CapacityEstimator) EstimateK(points [][]float64, maxK int) (int, error) {
	if len(points) == 0 {
		return 0, ErrEmptyInput
	}
	if len(points) <= e.Threshold {
		return 1, nil
	}
	k := max(e.K, 2)
	if maxK > 0 {
		k = min(k, maxK)
	}
	return k, nil
}

// SeparationOracle votes over candidate cluster counts 2..maxK. Each
// candidate is partitioned with Partitioner; candidates with a cluster
// smaller than MinClusterSize are discarded and the rest are scored with
// the Dunn index (smallest inter-cluster distance over largest cluster
// diameter). The best-scoring partition wins if its score reaches
// Threshold; otherwise the set is not split.
type SeparationOracle struct {
	Partitioner    Partitioner
	Metric         DistanceMetric
	MinClusterSize int
	Threshold      float64

	// Workers bounds the goroutines computing the pairwise distance matrix.
	Workers int
}

// Evaluate implements SplitOracle.
func (o *SeparationOracle) Evaluate(points [][]float64, maxK int) (Evaluation, error) {
	n := len(points)
	if n == 0 {
		return Evaluation{}, ErrEmptyInput
	}
	minSize := max(o.MinClusterSize, 1)
	if n < 2*minSize || maxK < 2 {
		return uniform(n), nil
	}

	dist, err := pairwiseDistances(points, o.Metric, o.Workers)
	if err != nil {
		return Evaluation{}, err
	}

	best := uniform(n)
	bestScore := math.Inf(-1)
	for k := 2; k <= maxK && k*minSize <= n; k++ {
		labels, err := o.Partitioner.Partition(points, k)
		if err != nil {
			return Evaluation{}, fmt.Errorf("mtree: partition into %d clusters: %w", k, err)
		}
		if !clusterSizesAtLeast(labels, k, minSize) {
			continue
		}
		if score := dunnIndex(dist, labels, n); score > bestScore {
			bestScore = score
			best = Evaluation{NumClusters: k, Labels: labels}
		}
	}
	if bestScore < o.Threshold {
		return uniform(n), nil
	}
	return best, nil
}

// EvaluateK implements SplitOracle.
func (o *SeparationOracle) EvaluateK(points [][]float64, k int) (Evaluation, error) {
	labels, err := o.Partitioner.Partition(points, k)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{NumClusters: k, Labels: labels}, nil
}

func clusterSizesAtLeast(labels []int, k, minSize int) bool {
	sizes := make([]int, k)
	for _, l := range labels {
		if l < 0 || l >= k {
			return false
		}
		sizes[l]++
	}
	for _, s := range sizes {
		if s < minSize {
			return false
		}
	}
	return true
}

// dunnIndex scores a labelling against a flat n×n distance matrix. Returns
// +Inf when every cluster has zero diameter but clusters are apart.
func dunnIndex(dist []float64, labels []int, n int) float64 {
	minInter := math.Inf(1)
	var maxIntra float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := dist[i*n+j]
			if labels[i] == labels[j] {
				maxIntra = max(maxIntra, d)
			} else {
				minInter = min(minInter, d)
			}
		}
	}
	if maxIntra == 0 {
		if minInter > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return minInter / maxIntra
}
