package merge

import "github.com/logreduce/logreduce/pkg/event"

// TimestampMerger is the default strategy for timestamp-valued fields:
// keep the first observed value (like Discard) while separately tracking
// the last observed value, so the caller can additionally emit a
// "<name>_end" sibling field. It is not selectable via Strategy/New: a
// timestamp field only gets one when no strategy, or "discard", is
// configured for it.
type TimestampMerger struct {
	first event.Time
	last  event.Time
}

// NewTimestampMerger seeds a TimestampMerger with the first observed time.
func NewTimestampMerger(initial event.Time) *TimestampMerger {
	return &TimestampMerger{first: initial, last: initial}
}

func (m *TimestampMerger) Add(v event.Value) error {
	t, ok := v.(event.Time)
	if !ok {
		return &IncompatibleError{Strategy: Discard, Reason: "value is not a timestamp"}
	}
	m.last = t
	return nil
}

func (m *TimestampMerger) SizeEstimate() int64 { return 16 }

// Finalize returns the first observed value.
func (m *TimestampMerger) Finalize() event.Value { return m.first }

// Last returns the most recently observed value, for the "_end" sibling.
func (m *TimestampMerger) Last() event.Value { return m.last }
