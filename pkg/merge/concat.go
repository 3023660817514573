package merge

import "github.com/logreduce/logreduce/pkg/event"

// concatMerger implements "concat": byte-strings join with a single
// space; if the accumulator turns out to be an array it behaves like
// arrayMerger instead (extending rather than rejecting). Anything else is
// an incompatible-type failure.
type concatMerger struct {
	bytes   []byte
	isBytes bool
	arr     *arrayMerger
}

func newConcatMerger(initial event.Value) (Merger, error) {
	switch v := initial.(type) {
	case event.Bytes:
		return &concatMerger{bytes: append([]byte(nil), v...), isBytes: true}, nil
	case *event.Array:
		return &concatMerger{arr: newArrayMerger(initial)}, nil
	default:
		return nil, &IncompatibleError{Strategy: Concat, Reason: "initial value is not a byte-string or array"}
	}
}

func (m *concatMerger) Add(v event.Value) error {
	if m.arr != nil {
		if arr, ok := v.(*event.Array); ok {
			for _, it := range arr.Items {
				m.arr.append(it)
			}
			return nil
		}
		m.arr.append(v)
		return nil
	}
	b, ok := v.(event.Bytes)
	if !ok {
		return &IncompatibleError{Strategy: Concat, Reason: "concat: incompatible type"}
	}
	m.bytes = append(m.bytes, ' ')
	m.bytes = append(m.bytes, b...)
	return nil
}

func (m *concatMerger) SizeEstimate() int64 {
	if m.arr != nil {
		return m.arr.SizeEstimate()
	}
	return int64(len(m.bytes)) + 8
}

func (m *concatMerger) Finalize() event.Value {
	if m.arr != nil {
		return m.arr.Finalize()
	}
	return event.Bytes(m.bytes)
}

// separatedMerger implements concat_newline / concat_raw: byte-strings
// only, joined with a fixed separator.
type separatedMerger struct {
	sep   string
	bytes []byte
}

func newSeparatedMerger(initial event.Value, sep string) (Merger, error) {
	b, ok := initial.(event.Bytes)
	if !ok {
		strat := ConcatRaw
		if sep == "\n" {
			strat = ConcatNewline
		}
		return nil, &IncompatibleError{Strategy: strat, Reason: "initial value is not a byte-string"}
	}
	return &separatedMerger{sep: sep, bytes: append([]byte(nil), b...)}, nil
}

func (m *separatedMerger) Add(v event.Value) error {
	b, ok := v.(event.Bytes)
	if !ok {
		strat := ConcatRaw
		if m.sep == "\n" {
			strat = ConcatNewline
		}
		return &IncompatibleError{Strategy: strat, Reason: "value is not a byte-string"}
	}
	m.bytes = append(m.bytes, m.sep...)
	m.bytes = append(m.bytes, b...)
	return nil
}

func (m *separatedMerger) SizeEstimate() int64 { return int64(len(m.bytes)) + 8 }

func (m *separatedMerger) Finalize() event.Value { return event.Bytes(m.bytes) }
