package mtree

import "sync/atomic"

// Stats is a snapshot of a tree's work counters.
type Stats struct {
	// DistanceComputations counts metric calls made by the tree itself
	// (descent, center selection, queries). Oracle-internal calls are not
	// included.
	DistanceComputations int64
	OracleCalls          int64
	Splits               int64
	RootSplits           int64

	// ForcedResolutions counts kNN placeholders resolved by scanning their
	// subtree after the search queue emptied.
	ForcedResolutions int64
}

type counters struct {
	distances         atomic.Int64
	oracleCalls       atomic.Int64
	splits            atomic.Int64
	rootSplits        atomic.Int64
	forcedResolutions atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		DistanceComputations: c.distances.Load(),
		OracleCalls:          c.oracleCalls.Load(),
		Splits:               c.splits.Load(),
		RootSplits:           c.rootSplits.Load(),
		ForcedResolutions:    c.forcedResolutions.Load(),
	}
}
