package space

import (
	"fmt"
)

// ErrorKind classifies a violated precondition.
type ErrorKind int

const (
	// Undrifted means a cell was used at a different time than the one its
	// particles were last drifted to.
	Undrifted ErrorKind = iota
	// Unsorted means a direct pair loop found no sort for its direction.
	Unsorted
	// StaleSort means the sort exists but particles have moved too far
	// since it was built.
	StaleSort
	// Geometry means the cells are too small for their smoothing lengths,
	// or two cells which should be neighbours are not.
	Geometry
	// SortDrift means a stored projection disagrees with the current
	// particle positions by more than the recorded displacement bound.
	SortDrift
	// Subset means a subset index does not belong to its cell.
	Subset
)

var errorKindNames = []string{
	"Undrifted", "Unsorted", "StaleSort", "Geometry", "SortDrift", "Subset",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(errorKindNames) {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return errorKindNames[k]
}

// PreconditionError is the value carried by the panics that the traversal
// code raises when a caller breaks one of its preconditions. There is no
// sensible way to continue a step after one of these, so they are not
// returned as errors.
type PreconditionError struct {
	Kind  ErrorKind
	Cells []int32
	Ti    int64
	Msg   string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s precondition failed for cells %v at ti = %d: %s",
		e.Kind, e.Cells, e.Ti, e.Msg)
}

// Fatalf panics with a *PreconditionError.
func Fatalf(
	kind ErrorKind, ti int64, cells []int32, format string, args ...interface{},
) {
	panic(&PreconditionError{
		Kind: kind, Cells: cells, Ti: ti, Msg: fmt.Sprintf(format, args...),
	})
}
