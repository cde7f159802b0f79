// Package mtree implements an M-tree style index over points in a metric
// space, whose node splits are decided by a pluggable clustering oracle.
//
// Every internal node holds routing entries: a center point, a covering
// radius bounding the distance from the center to every point below it, and
// a child subtree. Range and k-nearest-neighbor searches use the covering
// radii and the triangle inequality to skip subtrees without visiting them.
//
// Basic usage:
//
//	cfg := mtree.DefaultConfig()
//	cfg.MaxEntries = 8
//	tree, err := mtree.New(cfg)
//	err = tree.InsertAll(points)
//	inRange, err := tree.RangeQuery(q, 0.5)
//	nearest, err := tree.KNearest(q, 10)
//
// # Split oracles
//
// Instead of splitting a node when it overflows, the tree asks a
// [SplitOracle] whether the node's entries form several clusters. The
// built-in [SeparationOracle] accepts a partition only when its Dunn index
// reaches Config.SeparationThreshold; setting Config.LeafCapacity switches
// to a classic capacity split. Config.SplitPolicy picks the partitioner
// both use:
//
//	cfg.SplitPolicy = mtree.SplitKMeans         // Lloyd's algorithm, k-means++ seeds
//	cfg.SplitPolicy = mtree.SplitFarthestFirst  // greedy farthest-point centers
//	cfg.SplitPolicy = mtree.SplitSingleLinkage  // minimum spanning tree cut
//
// # Clustering
//
// A [Clusterer] reads a flat clustering off the root of a built tree: each
// root routing entry is one cluster.
package mtree
