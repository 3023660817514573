package merge

import "github.com/logreduce/logreduce/pkg/event"

// discardMerger keeps the first value it was seeded with; Add is a no-op.
type discardMerger struct {
	value event.Value
}

func (m *discardMerger) Add(event.Value) error   { return nil }
func (m *discardMerger) SizeEstimate() int64     { return event.Size(m.value) }
func (m *discardMerger) Finalize() event.Value   { return m.value }

// retainMerger keeps the most recently added value.
type retainMerger struct {
	value event.Value
}

func (m *retainMerger) Add(v event.Value) error {
	m.value = v
	return nil
}
func (m *retainMerger) SizeEstimate() int64 { return event.Size(m.value) }
func (m *retainMerger) Finalize() event.Value { return m.value }
