package merge

import "github.com/logreduce/logreduce/pkg/event"

// numericOp abstracts the three numeric strategies (sum/max/min): each
// combines an existing accumulator with a newly observed number.
type numericOp interface {
	name() Strategy
	combineInt(acc, v int64) int64
	combineFloat(acc, v float64) float64
}

type sumOp struct{}

func (sumOp) name() Strategy { return Sum }

// combineInt saturates instead of wrapping: overflow on an integer sum
// stays an integer, clamped to math.MaxInt64/MinInt64, per the integer
// side of "overflow on sum saturates (integer) or follows IEEE (float)".
func (sumOp) combineInt(acc, v int64) int64 {
	sum, _ := event.SaturatingAdd(acc, v)
	return sum
}
func (sumOp) combineFloat(acc, v float64) float64 { return acc + v }

type maxOp struct{}

func (maxOp) name() Strategy { return Max }
func (maxOp) combineInt(acc, v int64) int64 {
	if v > acc {
		return v
	}
	return acc
}
func (maxOp) combineFloat(acc, v float64) float64 {
	if event.LessNumeric(event.Float(acc), event.Float(v)) {
		return v
	}
	return acc
}

type minOp struct{}

func (minOp) name() Strategy { return Min }
func (minOp) combineInt(acc, v int64) int64 {
	if v < acc {
		return v
	}
	return acc
}
func (minOp) combineFloat(acc, v float64) float64 {
	if event.LessNumeric(event.Float(v), event.Float(acc)) {
		return v
	}
	return acc
}

// accumulatingMerger implements sum/max/min: numeric only, with
// integer→float promotion the moment a non-integer value is observed.
type accumulatingMerger struct {
	op      numericOp
	isInt   bool
	intAcc  int64
	floatAcc float64
}

func newAccumulatingMerger(initial event.Value, op numericOp) (Merger, error) {
	m := &accumulatingMerger{op: op}
	switch v := initial.(type) {
	case event.Int:
		m.isInt = true
		m.intAcc = int64(v)
	case event.Float:
		m.isInt = false
		m.floatAcc = float64(v)
	default:
		return nil, &IncompatibleError{Strategy: op.name(), Reason: "initial value is not numeric"}
	}
	return m, nil
}

func (m *accumulatingMerger) Add(v event.Value) error {
	switch vv := v.(type) {
	case event.Int:
		if m.isInt {
			m.intAcc = m.op.combineInt(m.intAcc, int64(vv))
			return nil
		}
		m.floatAcc = m.op.combineFloat(m.floatAcc, float64(vv))
		return nil
	case event.Float:
		if m.isInt {
			m.floatAcc = m.op.combineFloat(float64(m.intAcc), float64(vv))
			m.isInt = false
			return nil
		}
		m.floatAcc = m.op.combineFloat(m.floatAcc, float64(vv))
		return nil
	default:
		return &IncompatibleError{Strategy: m.op.name(), Reason: "value is not numeric"}
	}
}

func (m *accumulatingMerger) SizeEstimate() int64 { return 8 }

func (m *accumulatingMerger) Finalize() event.Value {
	if m.isInt {
		return event.Int(m.intAcc)
	}
	return event.Float(m.floatAcc)
}
