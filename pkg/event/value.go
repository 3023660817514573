// Package event defines the log-event data model shared by the merger,
// reducer, and coercion layers: a small closed set of value leaves, an
// order-preserving object type, and a quoted path codec for addressing
// nested fields such as "message.http!status-code".
package event

import (
	"fmt"
	"math"
	"time"
)

// Kind tags the dynamic type of a Value leaf.
type Kind byte

const (
	KindMissing Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindBytes
	KindTime
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBytes:
		return "bytes"
	case KindTime:
		return "time"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a single leaf (or composite) in the event data model. It is a
// closed union: the concrete types below are the only implementations.
type Value interface {
	Kind() Kind
}

// Missing represents the absence of a value at a path. It is distinct
// from Null: a group-by path that was never present in the inner event
// still contributes an equality-comparable "absent" slot to the
// discriminant, which must not collide with an explicit null or an
// empty string.
type Missing struct{}

func (Missing) Kind() Kind { return KindMissing }

// Null is an explicit JSON null.
type Null struct{}

func (Null) Kind() Kind { return KindNull }

type Bool bool

func (Bool) Kind() Kind { return KindBool }

type Int int64

func (Int) Kind() Kind { return KindInt }

type Float float64

func (Float) Kind() Kind { return KindFloat }

// Bytes is the event model's byte-string leaf (what the pipeline's JSON
// surface calls a "string").
type Bytes []byte

func (Bytes) Kind() Kind { return KindBytes }

// Time is a calendar instant with nanosecond resolution.
type Time struct{ time.Time }

func (Time) Kind() Kind { return KindTime }

// Array is an ordered sequence of values.
type Array struct{ Items []Value }

func (*Array) Kind() Kind { return KindArray }

// NewArray builds an Array from the given items.
func NewArray(items ...Value) *Array { return &Array{Items: items} }

// IsNumeric reports whether v is Int or Float.
func IsNumeric(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	default:
		return false
	}
}

// AsFloat returns v's numeric value as a float64, and whether v was numeric.
func AsFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n), true
	case Float:
		return float64(n), true
	default:
		return 0, false
	}
}

// LessNumeric compares two numeric values the way max/min must: NaN sorts
// below every number.
func LessNumeric(a, b Value) bool {
	af, _ := AsFloat(a)
	bf, _ := AsFloat(b)
	if math.IsNaN(af) {
		return !math.IsNaN(bf)
	}
	if math.IsNaN(bf) {
		return false
	}
	return af < bf
}

// Equal reports value equality (not representation equality): e.g. Int(2)
// and Float(2.0) are unequal (different kinds), but two Bytes with the
// same content are equal regardless of capacity.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Missing:
		return true
	case Null:
		return true
	case Bool:
		return av == b.(Bool)
	case Int:
		return av == b.(Int)
	case Float:
		return av == b.(Float)
	case Bytes:
		bv := b.(Bytes)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case Time:
		return av.Time.Equal(b.(Time).Time)
	case *Array:
		bv := b.(*Array)
		if len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !Equal(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case *Object:
		bv := b.(*Object)
		if len(av.keys) != len(bv.keys) {
			return false
		}
		for _, k := range av.keys {
			bval, ok := bv.Get(k)
			if !ok || !Equal(av.vals[k], bval) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders v for diagnostics (not for wire output).
func String(v Value) string {
	switch vv := v.(type) {
	case Missing:
		return "<missing>"
	case Null:
		return "null"
	case Bool:
		return fmt.Sprintf("%t", bool(vv))
	case Int:
		return fmt.Sprintf("%d", int64(vv))
	case Float:
		return fmt.Sprintf("%g", float64(vv))
	case Bytes:
		return string(vv)
	case Time:
		return vv.Time.Format(time.RFC3339Nano)
	case *Array:
		return fmt.Sprintf("array[%d]", len(vv.Items))
	case *Object:
		return fmt.Sprintf("object[%d]", len(vv.keys))
	default:
		return "?"
	}
}
