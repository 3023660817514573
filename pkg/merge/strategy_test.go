package merge

import (
	"math"
	"testing"

	"github.com/logreduce/logreduce/pkg/event"
)

func mustNew(t *testing.T, s Strategy, initial event.Value) Merger {
	t.Helper()
	m, err := New(s, initial)
	if err != nil {
		t.Fatalf("New(%s, %v): %v", s, initial, err)
	}
	return m
}

func TestIdentity(t *testing.T) {
	// Invariant 1: Finalize(New(v)) == v for every strategy with a
	// compatible seed value, except array and flat_unique, which yield a
	// one-element array wrapping v.
	cases := []struct {
		strat Strategy
		seed  event.Value
	}{
		{Discard, event.Bytes("x")},
		{Retain, event.Bytes("x")},
		{Sum, event.Int(5)},
		{Max, event.Int(5)},
		{Min, event.Int(5)},
		{Array, event.Bytes("x")},
		{Concat, event.Bytes("x")},
		{ConcatNewline, event.Bytes("x")},
		{ConcatRaw, event.Bytes("x")},
		{ShortestArray, event.NewArray(event.Bytes("a"))},
		{LongestArray, event.NewArray(event.Bytes("a"))},
		{FlatUnique, event.Bytes("x")},
	}
	for _, c := range cases {
		m := mustNew(t, c.strat, c.seed)
		got := m.Finalize()
		switch c.strat {
		case Array, FlatUnique:
			arr, ok := got.(*event.Array)
			if !ok || len(arr.Items) != 1 || !event.Equal(arr.Items[0], c.seed) {
				t.Errorf("%s: Finalize(New(%v)) = %v, want array wrapping seed", c.strat, c.seed, got)
			}
		default:
			if !event.Equal(got, c.seed) {
				t.Errorf("%s: Finalize(New(%v)) = %v, want %v", c.strat, c.seed, got, c.seed)
			}
		}
	}
}

func TestSum(t *testing.T) {
	m := mustNew(t, Sum, event.Int(10))
	for _, v := range []event.Value{event.Int(10), event.Int(10)} {
		if err := m.Add(v); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	got := m.Finalize()
	if got != event.Int(30) {
		t.Fatalf("sum = %v, want 30", got)
	}
}

func TestSumPromotesToFloat(t *testing.T) {
	m := mustNew(t, Sum, event.Int(1))
	if err := m.Add(event.Float(1.5)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got := m.Finalize()
	f, ok := got.(event.Float)
	if !ok || float64(f) != 2.5 {
		t.Fatalf("sum = %v, want 2.5 float", got)
	}
}

func TestSumOverflowSaturatesAsInteger(t *testing.T) {
	m := mustNew(t, Sum, event.Int(math.MaxInt64-1))
	if err := m.Add(event.Int(10)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got := m.Finalize()
	if got != event.Int(math.MaxInt64) {
		t.Fatalf("sum = %v, want saturated int64 max (not a float promotion)", got)
	}
}

func TestArrayPreservesOrder(t *testing.T) {
	m := newArrayMerger(event.Bytes("a"))
	_ = m.Add(event.Int(2))
	_ = m.Add(event.Bytes("c"))
	arr := m.Finalize().(*event.Array)
	want := []event.Value{event.Bytes("a"), event.Int(2), event.Bytes("c")}
	if len(arr.Items) != len(want) {
		t.Fatalf("len = %d, want %d", len(arr.Items), len(want))
	}
	for i := range want {
		if !event.Equal(arr.Items[i], want[i]) {
			t.Fatalf("item %d = %v, want %v", i, arr.Items[i], want[i])
		}
	}
}

func TestConcatSpaceJoins(t *testing.T) {
	m := mustNew(t, Concat, event.Bytes("first foo"))
	if err := m.Add(event.Bytes("second foo")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := m.Add(event.Int(10)); err == nil {
		t.Fatalf("Add(int) on concat: want error")
	}
	got := m.Finalize()
	if !event.Equal(got, event.Bytes("first foo second foo")) {
		t.Fatalf("concat = %v, want %q", got, "first foo second foo")
	}
}

func TestMaxRejectsNonNumeric(t *testing.T) {
	m := mustNew(t, Max, event.Int(2))
	if err := m.Add(event.Bytes("not number")); err == nil {
		t.Fatalf("Add(string) on max: want error")
	}
	if err := m.Add(event.Int(3)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := m.Finalize(); got != event.Int(3) {
		t.Fatalf("max = %v, want 3", got)
	}
}

func TestMaxNaNLosesToEveryNumber(t *testing.T) {
	var nan float64
	nan = nan / nan // 0/0 on a float variable yields NaN at run time
	m := mustNew(t, Max, event.Float(nan))
	if err := m.Add(event.Int(1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got := m.Finalize()
	if f, ok := got.(event.Float); !ok || float64(f) != 1 {
		if i, ok := got.(event.Int); !ok || int64(i) != 1 {
			t.Fatalf("max(NaN, 1) = %v, want 1", got)
		}
	}
}

func TestShortestLongestArrayTieKeepsCurrent(t *testing.T) {
	cur := event.NewArray(event.Int(1), event.Int(2))
	other := event.NewArray(event.Int(3), event.Int(4))

	short := mustNew(t, ShortestArray, cur)
	_ = short.Add(other)
	if got := short.Finalize().(*event.Array); !event.Equal(got.Items[0], event.Int(1)) {
		t.Fatalf("shortest_array tie replaced current accumulator")
	}

	long := mustNew(t, LongestArray, cur)
	_ = long.Add(other)
	if got := long.Finalize().(*event.Array); !event.Equal(got.Items[0], event.Int(1)) {
		t.Fatalf("longest_array tie replaced current accumulator")
	}
}

func TestFlatUniqueFlattensAndDedups(t *testing.T) {
	m := newFlatUniqueMerger(event.NewArray(event.Int(1), event.Int(2)))
	_ = m.Add(event.NewArray(event.Int(2), event.Int(3)))
	_ = m.Add(event.Int(3))
	got := m.Finalize().(*event.Array)
	if len(got.Items) != 3 {
		t.Fatalf("flat_unique = %d items, want 3", len(got.Items))
	}
}
