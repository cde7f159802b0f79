package mtree

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtClusterer(t *testing.T, cfg Config, points []Point) *Clusterer {
	t.Helper()
	c, err := NewClusterer(cfg)
	require.NoError(t, err)
	require.NoError(t, c.Build(points))
	return c
}

func blobConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxEntries = 3
	return cfg
}

func TestClusterer_ThreeBlobs(t *testing.T) {
	points := threeBlobPoints()
	c := builtClusterer(t, blobConfig(), points)
	require.Equal(t, 3, c.NumClusters())

	assignments := c.Assignments()
	require.Len(t, assignments, len(points))
	clusterOfBlob := map[int]int{}
	for i, p := range points {
		b := blobOf(p)
		if want, ok := clusterOfBlob[b]; ok {
			assert.Equal(t, want, assignments[i], "point %d", p.ID)
		} else {
			clusterOfBlob[b] = assignments[i]
		}
	}
	assert.Len(t, clusterOfBlob, 3)

	for b, center := range blobCenters {
		got, err := c.Assign(center)
		require.NoError(t, err)
		assert.Equal(t, clusterOfBlob[b], got)
	}

	sizes := c.ClusterSizes()
	slices.Sort(sizes)
	assert.Equal(t, []int{33, 33, 34}, sizes)

	means := c.ClusterMeans()
	require.Len(t, means, 3)
	for b, center := range blobCenters {
		mean := means[clusterOfBlob[b]]
		assert.Less(t, EuclideanMetric{}.Distance(mean, center), 0.5)
	}
}

func TestClusterer_SquaredErrors(t *testing.T) {
	points := threeBlobPoints()
	c := builtClusterer(t, blobConfig(), points)

	centroids := c.Centroids()
	assignments := c.Assignments()
	want := make([]float64, len(centroids))
	for i, p := range points {
		d := EuclideanMetric{}.Distance(p.Coords, centroids[assignments[i]])
		want[assignments[i]] += d * d
	}

	got := c.SquaredErrors()
	require.Len(t, got, len(want))
	var total float64
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9)
		total += want[i]
	}
	assert.InDelta(t, total, c.SumOfSquaredErrors(), 1e-9)
	assert.Positive(t, total)
}

func TestClusterer_NonEuclideanErrorsAreNotSquared(t *testing.T) {
	cfg := capacityConfig(ManhattanMetric{}, 4, 100)
	points := []Point{
		{ID: 0, Coords: []float64{0, 0}},
		{ID: 1, Coords: []float64{1, 0}},
		{ID: 2, Coords: []float64{3, 0}},
	}
	c := builtClusterer(t, cfg, points)
	require.Equal(t, 1, c.NumClusters())

	// Center is point 1 (eccentricity 2): errors 1 + 0 + 2.
	assert.Equal(t, [][]float64{{1, 0}}, c.Centroids())
	assert.InDelta(t, 3.0, c.SumOfSquaredErrors(), floatTol)
	assert.Equal(t, []int{3}, c.ClusterSizes())
	assert.Equal(t, []int{0, 0, 0}, c.Assignments())
}

func TestClusterer_SeedOptimisationInsertsEveryPointOnce(t *testing.T) {
	cfg := blobConfig()
	cfg.SeedOptimisation = true
	cfg.Seed = 9
	points := threeBlobPoints()

	c := builtClusterer(t, cfg, points)
	assert.Equal(t, len(points), c.Tree().Len())
	assert.Equal(t, pointIDs(points), pointIDs(c.Tree().Points()))
	require.NoError(t, c.Tree().Validate())
}

func TestSeedOrder_SeedsFirst(t *testing.T) {
	points := threeBlobPoints()
	order, err := seedOrder(points, 3, EuclideanMetric{}, 4)
	require.NoError(t, err)
	require.Len(t, order, len(points))
	assert.Equal(t, pointIDs(points), pointIDs(order))

	// k-means++ on well separated blobs draws one seed per blob.
	seen := map[int]bool{}
	for _, p := range order[:3] {
		seen[blobOf(p)] = true
	}
	assert.Len(t, seen, 3)
}

func TestSeedOrder_DimensionMismatch(t *testing.T) {
	_, err := seedOrder([]Point{{Coords: []float64{1, 2}}, {Coords: []float64{1}}}, 2, EuclideanMetric{}, 1)
	var dimErr *DimensionMismatchError
	assert.ErrorAs(t, err, &dimErr)
}

func TestClusterer_Unbuilt(t *testing.T) {
	c, err := NewClusterer(DefaultConfig())
	require.NoError(t, err)

	assert.Zero(t, c.NumClusters())
	assert.Nil(t, c.Tree())
	assert.Nil(t, c.Assignments())
	assert.Nil(t, c.ClusterSizes())
	assert.Nil(t, c.Centroids())
	assert.True(t, math.IsNaN(c.SumOfSquaredErrors()))

	_, err = c.Assign([]float64{0})
	assert.Error(t, err)

	assert.ErrorIs(t, c.Build(nil), ErrEmptyInput)
}

func TestClusterer_RejectsDuplicateIDs(t *testing.T) {
	points := threeBlobPoints()[:99]
	dup := make([]Point, len(points))
	for i, p := range points {
		dup[i] = Point{Coords: p.Coords}
	}

	c, err := NewClusterer(blobConfig())
	require.NoError(t, err)
	assert.ErrorIs(t, c.Build(dup), ErrDuplicateID)
	assert.Nil(t, c.Tree())
	assert.Nil(t, c.Assignments())

	require.NoError(t, c.Build(points))
	sizes := map[int]int{}
	for _, a := range c.Assignments() {
		sizes[a]++
	}
	got := make([]int, 0, len(sizes))
	for _, n := range sizes {
		got = append(got, n)
	}
	slices.Sort(got)
	want := c.ClusterSizes()
	slices.Sort(want)
	assert.Equal(t, want, got)
}

func TestNewClusterer_RejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SplitSize = 1
	_, err := NewClusterer(cfg)
	assert.ErrorContains(t, err, "SplitSize")
}
