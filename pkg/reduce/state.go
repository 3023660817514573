package reduce

import (
	"time"

	"github.com/logreduce/logreduce/pkg/coerce"
	"github.com/logreduce/logreduce/pkg/event"
	"github.com/logreduce/logreduce/pkg/merge"
)

// ReduceState is the per-group accumulator: two parallel merger maps
// (outer fields, flattened inner "message" leaves), the immutable instant
// the group was created, and carried outer metadata merged across every
// contributing event.
type ReduceState struct {
	startedAt time.Time
	disc      discriminant

	outer map[string]merge.Merger
	inner map[string]merge.Merger

	// outerTimestamps/innerTimestamps track the subset of entries that
	// were seeded with the implicit timestamp default strategy (keep
	// first, track last), since those also need the "_end" sibling on
	// Flush. A regular Merger does not carry enough information to
	// recover that on its own.
	outerTimestamps map[string]*merge.TimestampMerger
	innerTimestamps map[string]*merge.TimestampMerger

	groupBy  map[string]bool
	cfg      *Config
	coercion *coerce.Coercion
	diag     *diagnostics
}

// newReduceState creates a state seeded by the first event for a
// discriminant. outer and inner are the already-destructured event
// halves (inner coercion-ingressed by the caller).
func newReduceState(disc discriminant, outer, inner *event.Object, cfg *Config, coercion *coerce.Coercion, diag *diagnostics) *ReduceState {
	groupBy := make(map[string]bool, len(cfg.GroupBy))
	for _, p := range cfg.GroupBy {
		groupBy[p] = true
	}
	s := &ReduceState{
		startedAt:       time.Now(),
		disc:            disc,
		outer:           make(map[string]merge.Merger),
		inner:           make(map[string]merge.Merger),
		outerTimestamps: make(map[string]*merge.TimestampMerger),
		innerTimestamps: make(map[string]*merge.TimestampMerger),
		groupBy:         groupBy,
		cfg:             cfg,
		coercion:        coercion,
		diag:            diag,
	}
	s.fold(outer, inner)
	return s
}

// Add folds a subsequent event into the state.
func (s *ReduceState) Add(outer, inner *event.Object) {
	s.fold(outer, inner)
}

func (s *ReduceState) fold(outer, inner *event.Object) {
	outerLeaves := map[string]event.Value{}
	flattenLeaves(outer, nil, outerLeaves)
	innerLeaves := map[string]event.Value{}
	flattenLeaves(inner, nil, innerLeaves)

	for path, v := range outerLeaves {
		s.foldOne(s.outer, s.outerTimestamps, path, v, false, merge.DefaultOuter)
	}
	for path, v := range innerLeaves {
		s.foldOne(s.inner, s.innerTimestamps, path, v, s.groupBy[path], merge.Default)
	}
}

// foldOne folds a single leaf value at path into mergers, creating a
// fresh merger on first occurrence. forceDiscard implements invariant
// (iv): a group_by key always keeps its first value, never the
// configured (or default) strategy. defaultStrategy picks the implicit
// strategy when no explicit one is configured for path — outer and
// inner leaves use different defaults (merge.DefaultOuter/merge.Default).
func (s *ReduceState) foldOne(mergers map[string]merge.Merger, timestamps map[string]*merge.TimestampMerger, path string, v event.Value, forceDiscard bool, defaultStrategy func(event.Value) merge.Strategy) {
	if m, ok := mergers[path]; ok {
		if ts, isTS := timestamps[path]; isTS {
			if err := ts.Add(v); err != nil {
				s.diag.onIncompatible(path, err)
			}
			return
		}
		if err := m.Add(v); err != nil {
			s.diag.onIncompatible(path, err)
			return
		}
		return
	}

	if forceDiscard {
		m, err := merge.New(merge.Discard, v)
		if err != nil {
			return
		}
		mergers[path] = m
		return
	}

	if t, ok := v.(event.Time); ok {
		if strat, explicit := s.cfg.strategyFor(path); !explicit || strat == merge.Discard {
			ts := merge.NewTimestampMerger(t)
			timestamps[path] = ts
			mergers[path] = ts
			return
		}
	}

	strat, explicit := s.cfg.strategyFor(path)
	if !explicit {
		strat = defaultStrategy(v)
	}
	m, err := merge.New(strat, v)
	if err != nil {
		s.diag.onIncompatible(path, err)
		return
	}
	mergers[path] = m
}

// SizeEstimate is the sum of the current SizeEstimate() of every inner
// merger. Outer fields are pipeline metadata and are not accounted, per
// the ReduceState invariant.
func (s *ReduceState) SizeEstimate() int64 {
	var total int64
	for _, m := range s.inner {
		sum, overflowed := event.SaturatingAdd(total, m.SizeEstimate())
		total = sum
		if overflowed {
			s.diag.onSizeOverflow()
		}
	}
	return total
}

// Flush consumes the state, producing the outer output event with
// "message" rebuilt from the inner mergers at quoted nested paths, egress
// timestamp coercion applied, and "_end" siblings emitted for every
// implicit-timestamp field.
func (s *ReduceState) Flush() *event.Object {
	out := event.NewObject()
	for path, m := range s.outer {
		out.SetPath(path, m.Finalize())
		if ts, ok := s.outerTimestamps[path]; ok {
			out.SetPath(path+"_end", ts.Last())
		}
	}

	message := event.NewObject()
	for path, m := range s.inner {
		message.SetPath(path, m.Finalize())
		if ts, ok := s.innerTimestamps[path]; ok {
			message.SetPath(path+"_end", ts.Last())
		}
	}
	out.Set("message", message)

	if s.coercion != nil {
		s.coercion.Egress(message)
	}
	return out
}

// flattenLeaves walks o, recursing into nested Objects and recording
// every non-Object value (scalars, arrays, timestamps — anything a
// Merger can accumulate) at its dotted path. segs is the list of
// already-descended, unquoted path segments; the full path is only
// joined (and quoted) once a leaf is reached.
func flattenLeaves(o *event.Object, segs []string, out map[string]event.Value) {
	if o == nil {
		return
	}
	o.Range(func(k string, v event.Value) bool {
		path := append(append([]string(nil), segs...), k)
		if child, ok := v.(*event.Object); ok {
			flattenLeaves(child, path, out)
			return true
		}
		out[event.JoinPath(path...)] = v
		return true
	})
}
