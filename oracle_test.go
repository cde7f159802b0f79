package mtree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Evaluation ---

func TestEvaluationValid(t *testing.T) {
	cases := []struct {
		name string
		ev   Evaluation
		n    int
		want bool
	}{
		{"two labels", Evaluation{NumClusters: 2, Labels: []int{0, 1, 0}}, 3, true},
		{"uniform", Evaluation{NumClusters: 3, Labels: []int{1, 1, 1}}, 3, false},
		{"no clusters", Evaluation{NumClusters: 0, Labels: []int{0, 1}}, 2, false},
		{"short labels", Evaluation{NumClusters: 2, Labels: []int{0, 1}}, 3, false},
		{"label out of range", Evaluation{NumClusters: 2, Labels: []int{0, 2}}, 2, false},
		{"negative label", Evaluation{NumClusters: 2, Labels: []int{-1, 0}}, 2, false},
		{"empty", Evaluation{NumClusters: 1}, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.ev.Valid(tc.n))
		})
	}
}

// --- VotingOracle ---

type fixedEstimator struct {
	k   int
	err error
}

func (f fixedEstimator) EstimateK([][]float64, int) (int, error) { return f.k, f.err }

func TestVotingOracle_NoSplitWhenEstimatorSaysOne(t *testing.T) {
	o := &VotingOracle{Estimator: fixedEstimator{k: 1}, Partitioner: NewKMeans(EuclideanMetric{}, 1)}
	ev, err := o.Evaluate([][]float64{{0}, {10}}, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, ev.NumClusters)
	assert.False(t, ev.Valid(2))
}

func TestVotingOracle_PartitionsWithEstimatedK(t *testing.T) {
	o := &VotingOracle{Estimator: fixedEstimator{k: 2}, Partitioner: NewKMeans(EuclideanMetric{}, 1)}
	points := [][]float64{{0}, {0.1}, {10}, {10.1}}
	ev, err := o.Evaluate(points, 4)
	require.NoError(t, err)
	require.True(t, ev.Valid(len(points)))
	assert.Equal(t, ev.Labels[0], ev.Labels[1])
	assert.Equal(t, ev.Labels[2], ev.Labels[3])
	assert.NotEqual(t, ev.Labels[0], ev.Labels[2])
}

func TestVotingOracle_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	o := &VotingOracle{Estimator: fixedEstimator{err: boom}, Partitioner: NewKMeans(EuclideanMetric{}, 1)}
	_, err := o.Evaluate([][]float64{{0}}, 2)
	assert.ErrorIs(t, err, boom)

	_, err = o.Evaluate(nil, 2)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

// --- CapacityEstimator ---

func TestCapacityEstimator(t *testing.T) {
	e := CapacityEstimator{Threshold: 3, K: 4}
	points := make([][]float64, 3)

	k, err := e.EstimateK(points, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, k, "at threshold")

	k, err = e.EstimateK(append(points, nil), 10)
	require.NoError(t, err)
	assert.Equal(t, 4, k)

	k, err = e.EstimateK(append(points, nil), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, k, "capped at maxK")

	k, err = CapacityEstimator{Threshold: 0}.EstimateK(points, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, k, "K below two still splits in two")

	_, err = e.EstimateK(nil, 10)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

// --- SeparationOracle ---

func separationOracle(policy Partitioner) *SeparationOracle {
	return &SeparationOracle{
		Partitioner:    policy,
		Metric:         EuclideanMetric{},
		MinClusterSize: 5,
		Threshold:      1.0,
		Workers:        2,
	}
}

func TestSeparationOracle_FindsSeparatedBlobs(t *testing.T) {
	points := coordsOf(blobs([][]float64{{0, 0}, {10, 0}, {0, 10}}, 20, 0.5, 3))
	o := separationOracle(NewKMeans(EuclideanMetric{}, 7))

	ev, err := o.Evaluate(points, 5)
	require.NoError(t, err)
	require.True(t, ev.Valid(len(points)))
	assert.Equal(t, 3, ev.NumClusters)

	for b := 0; b < 3; b++ {
		for i := b * 20; i < (b+1)*20; i++ {
			assert.Equal(t, ev.Labels[b*20], ev.Labels[i], "blob %d split apart", b)
		}
	}
}

func TestSeparationOracle_KeepsSingleBlobTogether(t *testing.T) {
	points := coordsOf(blobs([][]float64{{0, 0}}, 60, 1, 5))
	o := separationOracle(NewKMeans(EuclideanMetric{}, 7))

	ev, err := o.Evaluate(points, 5)
	require.NoError(t, err)
	assert.False(t, ev.Valid(len(points)))
}

func TestSeparationOracle_RespectsMinClusterSize(t *testing.T) {
	// Two far apart pairs: perfectly separated but each cluster has only
	// two members.
	points := [][]float64{{0}, {0.1}, {100}, {100.1}}
	o := separationOracle(NewKMeans(EuclideanMetric{}, 7))

	ev, err := o.Evaluate(points, 4)
	require.NoError(t, err)
	assert.False(t, ev.Valid(len(points)))

	o.MinClusterSize = 2
	ev, err = o.Evaluate(points, 4)
	require.NoError(t, err)
	assert.True(t, ev.Valid(len(points)))
	assert.Equal(t, 2, ev.NumClusters)
}

func TestSeparationOracle_EvaluateK(t *testing.T) {
	points := [][]float64{{0}, {1}, {2}, {3}}
	o := separationOracle(NewFarthestFirst(EuclideanMetric{}, 1))
	ev, err := o.EvaluateK(points, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, ev.NumClusters)
	assert.Len(t, ev.Labels, 4)
}

func TestDunnIndex(t *testing.T) {
	// Clusters {0, 1} and {5, 6}: min inter distance 4, max diameter 1.
	points := [][]float64{{0}, {1}, {5}, {6}}
	dist, err := pairwiseDistances(points, EuclideanMetric{}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, dunnIndex(dist, []int{0, 0, 1, 1}, 4), floatTol)

	// Labels {0, 5} and {1, 6}: min inter distance 1, max diameter 5.
	assert.InDelta(t, 0.2, dunnIndex(dist, []int{0, 1, 0, 1}, 4), floatTol)
}
