package mtree

import (
	"fmt"
	"math"
	"runtime"
)

// SplitPolicy selects the partitioner that turns an oracle's cluster count
// into an assignment of node entries.
type SplitPolicy string

const (
	SplitKMeans        SplitPolicy = "kmeans"
	SplitFarthestFirst SplitPolicy = "farthest_first"
	SplitSingleLinkage SplitPolicy = "single_linkage"
)

// Config controls tree construction.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// MaxEntries is the most routing entries an internal node may hold. The
	// root's fan-out after a split never exceeds it and a child split never
	// pushes its parent above it. Must be >= 2. Default: 10.
	MaxEntries int

	// SplitSize, when non-zero, replaces the oracle's proposed cluster count
	// whenever the oracle proposes a split. Must be 0 or >= 2. Default: 0.
	SplitSize int

	// Metric measures distances between points. It must be symmetric and
	// satisfy the triangle inequality for queries to be exact.
	// Default: EuclideanMetric.
	Metric DistanceMetric

	// SplitPolicy chooses the partitioner used by the built-in oracle.
	// Ignored when Oracle is set. Default: "kmeans".
	SplitPolicy SplitPolicy

	// Oracle overrides the built-in split oracle. Default: nil.
	Oracle SplitOracle

	// LeafCapacity switches the built-in oracle to a classic capacity split:
	// a node holding more than LeafCapacity entries is split in two. 0 uses
	// the separation oracle instead. Must be >= 0. Default: 0.
	LeafCapacity int

	// MinClusterSize is the smallest cluster the separation oracle accepts.
	// Must be >= 1. Default: 5.
	MinClusterSize int

	// SeparationThreshold is the Dunn index a candidate split must reach.
	// Must be > 0. Default: 1.0.
	SeparationThreshold float64

	// Seed drives every stochastic partitioner and the seeding step.
	// Default: 0.
	Seed uint64

	// Workers bounds the goroutines computing pairwise distance matrices.
	// 0 means use runtime.NumCPU(). Default: 0.
	Workers int

	// GrowRoot lets a full internal root split into a new level instead of
	// routing every further point through its existing children.
	// Default: false.
	GrowRoot bool

	// SeedOptimisation makes Clusterer.Build insert k-means++ seeds before
	// the remaining points. Default: false.
	SeedOptimisation bool

	// Logger receives debug records about splits and oracle failures.
	// Default: NoopLogger().
	Logger *Logger
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		MaxEntries:          10,
		Metric:              EuclideanMetric{},
		SplitPolicy:         SplitKMeans,
		MinClusterSize:      5,
		SeparationThreshold: 1.0,
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if cfg.MaxEntries < 2 {
		return fmt.Errorf("mtree: MaxEntries must be >= 2, got %d", cfg.MaxEntries)
	}
	if cfg.SplitSize < 0 || cfg.SplitSize == 1 {
		return fmt.Errorf("mtree: SplitSize must be 0 or >= 2, got %d", cfg.SplitSize)
	}
	if cfg.LeafCapacity < 0 {
		return fmt.Errorf("mtree: LeafCapacity must be >= 0, got %d", cfg.LeafCapacity)
	}
	if cfg.MinClusterSize < 1 {
		return fmt.Errorf("mtree: MinClusterSize must be >= 1, got %d", cfg.MinClusterSize)
	}
	if !(cfg.SeparationThreshold > 0) || math.IsInf(cfg.SeparationThreshold, 1) {
		return fmt.Errorf("mtree: SeparationThreshold must be a positive finite number, got %f", cfg.SeparationThreshold)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("mtree: Workers must be >= 0, got %d", cfg.Workers)
	}
	if m, ok := cfg.Metric.(MinkowskiMetric); ok && !(m.P >= 1) {
		return fmt.Errorf("mtree: MinkowskiMetric P must be >= 1, got %f", m.P)
	}
	switch cfg.SplitPolicy {
	case SplitKMeans, SplitFarthestFirst, SplitSingleLinkage:
		// valid
	default:
		return fmt.Errorf("mtree: invalid SplitPolicy %q", cfg.SplitPolicy)
	}
	return nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Metric == nil {
		cfg.Metric = EuclideanMetric{}
	}
	if cfg.SplitPolicy == "" {
		cfg.SplitPolicy = SplitKMeans
	}
	if cfg.MinClusterSize == 0 {
		cfg.MinClusterSize = 5
	}
	if cfg.SeparationThreshold == 0 {
		cfg.SeparationThreshold = 1.0
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = NoopLogger()
	}
}

// newPartitioner builds the partitioner selected by cfg.SplitPolicy.
func newPartitioner(cfg *Config, metric DistanceMetric) Partitioner {
	switch cfg.SplitPolicy {
	case SplitFarthestFirst:
		return NewFarthestFirst(metric, cfg.Seed)
	case SplitSingleLinkage:
		return &SingleLinkage{Metric: metric, Workers: cfg.Workers}
	default:
		return NewKMeans(metric, cfg.Seed)
	}
}

// newOracle returns cfg.Oracle or builds the built-in oracle. Oracle
// distance calls go through the raw metric and are not counted in Stats.
func newOracle(cfg *Config) SplitOracle {
	if cfg.Oracle != nil {
		return cfg.Oracle
	}
	partitioner := newPartitioner(cfg, cfg.Metric)
	if cfg.LeafCapacity > 0 {
		return &VotingOracle{
			Estimator:   CapacityEstimator{Threshold: cfg.LeafCapacity, K: 2},
			Partitioner: partitioner,
		}
	}
	return &SeparationOracle{
		Partitioner:    partitioner,
		Metric:         cfg.Metric,
		MinClusterSize: cfg.MinClusterSize,
		Threshold:      cfg.SeparationThreshold,
		Workers:        cfg.Workers,
	}
}
