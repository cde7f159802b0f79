package mtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var blobCenters = [][]float64{{0, 0}, {10, 0}, {0, 10}}

// threeBlobPoints returns 100 points: 33 gaussian points around each blob
// center, interleaved, plus one point exactly at the first center.
func threeBlobPoints() []Point {
	points := interleave(blobs(blobCenters, 33, 0.5, 2024), len(blobCenters))
	return append(points, Point{ID: 99, Coords: []float64{0, 0}})
}

// blobOf returns the index of the blob center nearest to p.
func blobOf(p Point) int {
	idx, _ := nearestCentroid(EuclideanMetric{}, p.Coords, blobCenters)
	return idx
}

func TestScenario_ThreeBlobsSplitRootIntoThree(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEntries = 3
	assertThreeBlobRoutes(t, cfg)
}

// With the default capacity the root could hold ten routes, so three routes
// come from the separation oracle finding three blobs.
func TestScenario_ThreeBlobsDefaultConfig(t *testing.T) {
	assertThreeBlobRoutes(t, DefaultConfig())
}

func assertThreeBlobRoutes(t *testing.T, cfg Config) {
	t.Helper()
	points := threeBlobPoints()

	tree, err := New(cfg)
	require.NoError(t, err)
	for _, p := range points {
		require.NoError(t, tree.Insert(p))
	}
	require.NoError(t, tree.Validate())
	assert.Equal(t, 100, tree.Len())

	entries := tree.RootEntries()
	require.Len(t, entries, 3)
	for _, c := range blobCenters {
		idx, d := nearestCentroid(EuclideanMetric{}, c, [][]float64{
			entries[0].Center.Coords,
			entries[1].Center.Coords,
			entries[2].Center.Coords,
		})
		assert.Less(t, d, 1.5, "blob %v has no routing center nearby", c)
		assert.Less(t, entries[idx].Radius, 5.0)
	}

	sizes := map[int]int{}
	for _, p := range points {
		sizes[blobOf(p)]++
	}
	for b, c := range blobCenters {
		got, err := tree.RangeQuery(c, 4)
		require.NoError(t, err)
		assert.Len(t, got, sizes[b], "blob %d", b)
		for _, p := range got {
			assert.Equal(t, b, blobOf(p))
		}
	}
}

func TestScenario_SinglePointNearest(t *testing.T) {
	tree, err := New(DefaultConfig())
	require.NoError(t, err)
	p := Point{ID: 42, Coords: []float64{-1.5, 2.25}}
	require.NoError(t, tree.Insert(p))

	q := []float64{0.5, -0.75}
	got, err := tree.KNearest(q, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint32(42), got[0].Point.ID)
	assert.InDelta(t, EuclideanMetric{}.Distance(q, p.Coords), got[0].Distance, floatTol)
}
