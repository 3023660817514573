// Package merge implements the per-field accumulators ("mergers") that
// combine successive values for one field of one group according to a
// configured merge strategy. Each strategy is a small concrete type
// implementing the Merger interface — a flat tagged variant rather than a
// class hierarchy, so the full menu is exhaustive and trivially
// comparable in tests.
package merge

import "github.com/logreduce/logreduce/pkg/event"

// Strategy names the merge behavior for one field.
type Strategy string

const (
	Discard       Strategy = "discard"
	Retain        Strategy = "retain"
	Sum           Strategy = "sum"
	Max           Strategy = "max"
	Min           Strategy = "min"
	Array         Strategy = "array"
	Concat        Strategy = "concat"
	ConcatNewline Strategy = "concat_newline"
	ConcatRaw     Strategy = "concat_raw"
	ShortestArray Strategy = "shortest_array"
	LongestArray  Strategy = "longest_array"
	FlatUnique    Strategy = "flat_unique"
)

// Valid reports whether s is one of the enumerated strategy names.
func Valid(s Strategy) bool {
	switch s {
	case Discard, Retain, Sum, Max, Min, Array, Concat, ConcatNewline, ConcatRaw,
		ShortestArray, LongestArray, FlatUnique:
		return true
	default:
		return false
	}
}

// Default picks the implicit strategy for a field that has no explicit
// configuration, based on the runtime kind of its first observed value.
// Timestamp fields default to "discard" here; the caller (ReduceState) is
// responsible for additionally tracking the "_end" sibling, since that
// behavior spans two output fields and does not fit a single Merger.
func Default(v event.Value) Strategy {
	switch v.(type) {
	case event.Int, event.Float:
		return Sum
	default:
		return Discard
	}
}

// DefaultOuter picks the implicit strategy for an outer (pipeline
// metadata) field. It agrees with Default except for arrays: outer
// array-valued fields are finalizer-shaped sets (e.g. per-event ack
// handles) that every contributing event should contribute to, not a
// single keep-first snapshot, so they default to a monoidal union
// (flat_unique) instead of discard.
func DefaultOuter(v event.Value) Strategy {
	if _, ok := v.(*event.Array); ok {
		return FlatUnique
	}
	return Default(v)
}

// Merger accumulates successive values for one field under one strategy.
type Merger interface {
	// Add incorporates another value. On incompatible input it returns a
	// non-nil error describing the mismatch and leaves the merger
	// unchanged; it never panics.
	Add(v event.Value) error

	// SizeEstimate returns the merger's current contribution to the
	// enclosing group's byte budget.
	SizeEstimate() int64

	// Finalize returns the merged value. The merger must not be reused
	// afterward.
	Finalize() event.Value
}

// New constructs a Merger for strategy, seeded with the first observed
// value. group_by fields are force-set to Discard by the caller before
// New is reached, per the ReduceState invariant.
func New(s Strategy, initial event.Value) (Merger, error) {
	switch s {
	case Discard:
		return &discardMerger{value: initial}, nil
	case Retain:
		return &retainMerger{value: initial}, nil
	case Sum:
		return newAccumulatingMerger(initial, sumOp{})
	case Max:
		return newAccumulatingMerger(initial, maxOp{})
	case Min:
		return newAccumulatingMerger(initial, minOp{})
	case Array:
		return newArrayMerger(initial), nil
	case Concat:
		return newConcatMerger(initial)
	case ConcatNewline:
		return newSeparatedMerger(initial, "\n")
	case ConcatRaw:
		return newSeparatedMerger(initial, "")
	case ShortestArray:
		return newExtremeArrayMerger(initial, true)
	case LongestArray:
		return newExtremeArrayMerger(initial, false)
	case FlatUnique:
		return newFlatUniqueMerger(initial), nil
	default:
		return nil, &UnknownStrategyError{Strategy: s}
	}
}

// UnknownStrategyError is a configuration error: an unrecognized strategy
// name was supplied for a field.
type UnknownStrategyError struct {
	Strategy Strategy
}

func (e *UnknownStrategyError) Error() string {
	return "merge: unknown strategy " + string(e.Strategy)
}

// IncompatibleError describes a rejected Add call. It is never fatal: the
// caller logs it at warn level, increments failed_updates, and continues.
type IncompatibleError struct {
	Strategy Strategy
	Reason   string
}

func (e *IncompatibleError) Error() string {
	return string(e.Strategy) + ": " + e.Reason
}
