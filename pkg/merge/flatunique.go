package merge

import "github.com/logreduce/logreduce/pkg/event"

// flatUniqueMerger implements "flat_unique": scalars contribute
// themselves, arrays contribute their elements, objects contribute their
// values — all flattened into one order-independent set, materialized as
// an array on Finalize. Membership is decided by value equality (via
// event.CanonicalKey), not by representation.
type flatUniqueMerger struct {
	seen  map[string]struct{}
	items []event.Value
	size  int64
}

func newFlatUniqueMerger(initial event.Value) *flatUniqueMerger {
	m := &flatUniqueMerger{seen: make(map[string]struct{})}
	m.absorb(initial)
	return m
}

func (m *flatUniqueMerger) absorb(v event.Value) {
	switch vv := v.(type) {
	case *event.Array:
		for _, it := range vv.Items {
			m.addOne(it)
		}
	case *event.Object:
		vv.Range(func(_ string, val event.Value) bool {
			m.addOne(val)
			return true
		})
	default:
		m.addOne(v)
	}
}

func (m *flatUniqueMerger) addOne(v event.Value) {
	key, err := event.CanonicalKey(v)
	if err != nil {
		return
	}
	if _, ok := m.seen[key]; ok {
		return
	}
	m.seen[key] = struct{}{}
	m.items = append(m.items, v)
	m.size, _ = event.SaturatingAdd(m.size, event.Size(v))
}

func (m *flatUniqueMerger) Add(v event.Value) error {
	m.absorb(v)
	return nil
}

func (m *flatUniqueMerger) SizeEstimate() int64 { return m.size }

func (m *flatUniqueMerger) Finalize() event.Value {
	return &event.Array{Items: m.items}
}
