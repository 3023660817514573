package event

import "math"

// SaturatingAdd adds b to a, clamping to math.MaxInt64 instead of
// wrapping on overflow. The reducer's size accounting must never panic
// or wrap a signed 64-bit counter.
func SaturatingAdd(a, b int64) (sum int64, overflowed bool) {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64, true
	}
	if b < 0 && a < math.MinInt64-b {
		return math.MinInt64, true
	}
	return a + b, false
}

// Size estimates the byte contribution of v. Precision is not required —
// only monotonic stability under Add — so composite sizes are the sum of
// their elements plus a small fixed per-element overhead rather than an
// exact wire-size computation.
func Size(v Value) int64 {
	const overhead = 8
	switch vv := v.(type) {
	case nil, Missing, Null:
		return overhead
	case Bool:
		return overhead
	case Int:
		return overhead
	case Float:
		return overhead
	case Bytes:
		return int64(len(vv)) + overhead
	case Time:
		return overhead
	case *Array:
		total := int64(overhead)
		for _, it := range vv.Items {
			s, over := SaturatingAdd(total, Size(it))
			if over {
				return math.MaxInt64
			}
			total = s
		}
		return total
	case *Object:
		total := int64(overhead)
		over := false
		vv.Range(func(k string, val Value) bool {
			s1, o1 := SaturatingAdd(total, int64(len(k))+overhead)
			if o1 {
				over = true
				return false
			}
			s2, o2 := SaturatingAdd(s1, Size(val))
			if o2 {
				over = true
				return false
			}
			total = s2
			return true
		})
		if over {
			return math.MaxInt64
		}
		return total
	default:
		return overhead
	}
}
