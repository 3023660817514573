package merge

import "github.com/logreduce/logreduce/pkg/event"

// arrayMerger collects every observed value, in arrival order, into an
// array. Unlike concat it never rejects an element: any value is valid.
type arrayMerger struct {
	items []event.Value
	size  int64
}

func newArrayMerger(initial event.Value) *arrayMerger {
	m := &arrayMerger{}
	m.append(initial)
	return m
}

func (m *arrayMerger) append(v event.Value) {
	m.items = append(m.items, v)
	m.size, _ = event.SaturatingAdd(m.size, event.Size(v))
}

func (m *arrayMerger) Add(v event.Value) error {
	m.append(v)
	return nil
}

func (m *arrayMerger) SizeEstimate() int64 { return m.size }

func (m *arrayMerger) Finalize() event.Value {
	return &event.Array{Items: m.items}
}

// extremeArrayMerger implements shortest_array/longest_array: arrays
// only, comparing element counts; a strict tie retains the current
// accumulator (arrival order decides ties implicitly by not replacing).
type extremeArrayMerger struct {
	current  *event.Array
	shortest bool
}

func newExtremeArrayMerger(initial event.Value, shortest bool) (Merger, error) {
	arr, ok := initial.(*event.Array)
	if !ok {
		strat := LongestArray
		if shortest {
			strat = ShortestArray
		}
		return nil, &IncompatibleError{Strategy: strat, Reason: "initial value is not an array"}
	}
	return &extremeArrayMerger{current: arr, shortest: shortest}, nil
}

func (m *extremeArrayMerger) Add(v event.Value) error {
	arr, ok := v.(*event.Array)
	if !ok {
		strat := LongestArray
		if m.shortest {
			strat = ShortestArray
		}
		return &IncompatibleError{Strategy: strat, Reason: "value is not an array"}
	}
	replace := false
	if m.shortest {
		replace = len(arr.Items) < len(m.current.Items)
	} else {
		replace = len(arr.Items) > len(m.current.Items)
	}
	if replace {
		m.current = arr
	}
	return nil
}

func (m *extremeArrayMerger) SizeEstimate() int64 { return event.Size(m.current) }

func (m *extremeArrayMerger) Finalize() event.Value { return m.current }
