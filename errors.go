package mtree

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("mtree: k must be positive")

	// ErrNegativeRadius is returned by range queries with a negative radius.
	ErrNegativeRadius = errors.New("mtree: radius must be >= 0")

	// ErrInvalidPoint is returned for points and queries without coordinates
	// or with a NaN or infinite coordinate.
	ErrInvalidPoint = errors.New("mtree: invalid point")

	// ErrDuplicateID is returned by Clusterer.Build when two points share an
	// ID, since assignments are read back by ID.
	ErrDuplicateID = errors.New("mtree: duplicate point ID")

	// ErrEmptyInput is returned by partitioners and estimators given no points.
	ErrEmptyInput = errors.New("mtree: empty input")
)

// DimensionMismatchError indicates a point or query whose dimensionality
// differs from the points already stored in the tree.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("mtree: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}
