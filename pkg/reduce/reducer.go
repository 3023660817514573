// Package reduce implements the streaming log-event reduction engine:
// Reducer groups successive events by a discriminant, folds their fields
// into per-field mergers (package merge), and emits consolidated events
// when a group completes by boundary predicate, idle expiration, or
// memory pressure.
package reduce

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/logreduce/logreduce/internal/telemetry"
	"github.com/logreduce/logreduce/pkg/coerce"
	"github.com/logreduce/logreduce/pkg/event"
	"github.com/logreduce/logreduce/pkg/stream"
)

// groupEntry pairs a live ReduceState with the canonical encoding of its
// discriminant, so a hash collision between two distinct discriminants
// can be resolved by falling back to a byte comparison rather than
// silently folding one group into the other.
type groupEntry struct {
	encoded string
	state   *ReduceState
}

// Reducer is the top-level transform: the map of active groups keyed by
// discriminant hash, the configured strategies and predicates, and the
// flush loop that alternates between ingest and tick-driven expiration.
// All mutation happens on the goroutine that calls Run (or, for callers
// driving it manually, ProcessEvent, which runs the sweep itself) — the
// Reducer itself holds no internal lock.
type Reducer struct {
	cfg      *Config
	coercion *coerce.Coercion
	diag     *diagnostics

	groups map[uint64][]*groupEntry
}

// New constructs a Reducer. logger and meter are optional; a nil logger
// falls back to slog.Default(), a nil meter to the global MeterProvider.
func New(cfg *Config, logger *slog.Logger, meter metric.Meter) (*Reducer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var coercion *coerce.Coercion
	if len(cfg.DateFormats) > 0 {
		c, err := coerce.New(cfg.DateFormats, logger)
		if err != nil {
			return nil, err
		}
		coercion = c
	}
	counters, err := telemetry.New(meter)
	if err != nil {
		return nil, err
	}
	return &Reducer{
		cfg:      cfg,
		coercion: coercion,
		diag:     &diagnostics{logger: logger, counters: counters},
		groups:   make(map[uint64][]*groupEntry),
	}, nil
}

// Run drives the Reducer's cooperative scheduling loop: a single
// goroutine alternating between the next input event and the next flush
// tick, until input closes or ctx is canceled. On either termination
// path every remaining state is flushed, in ascending started_at order,
// before Run returns; out is then closed, so a consumer blocked in
// Batch.Next sees the stream end rather than hanging forever.
func (r *Reducer) Run(ctx context.Context, input <-chan *event.Object, out *stream.Batch[*event.Object]) {
	ticker := time.NewTicker(r.cfg.FlushPeriod)
	defer ticker.Stop()
	defer out.Close()

	for {
		select {
		case <-ctx.Done():
			r.flushAll(out)
			return
		case evt, ok := <-input:
			if !ok {
				r.flushAll(out)
				return
			}
			r.ProcessEvent(evt, out)
		case <-ticker.C:
			r.sweep(out)
		}
	}
}

// ProcessEvent runs the per-event pipeline: destructure, ingress
// coercion, boundary evaluation, discriminant computation, routing, then
// an expiration sweep. Emissions (boundary-triggered or from the sweep)
// are appended to out.
func (r *Reducer) ProcessEvent(evt *event.Object, out *stream.Batch[*event.Object]) {
	outer, inner := destructure(evt)

	if r.coercion != nil {
		r.coercion.Ingress(inner)
	}

	started, err := r.checkCondition(r.cfg.StartsWhen, &inner)
	if err != nil {
		r.diag.logger.Warn("reduce: starts_when evaluation failed", "error", err)
	}
	ended, err := r.checkCondition(r.cfg.EndsWhen, &inner)
	if err != nil {
		r.diag.logger.Warn("reduce: ends_when evaluation failed", "error", err)
	}

	disc, err := computeDiscriminant(inner, r.cfg.GroupBy)
	if err != nil {
		r.diag.logger.Warn("reduce: discriminant computation failed, dropping event", "error", err)
		return
	}

	switch {
	case started:
		if prior, ok := r.remove(disc); ok {
			r.emit(out, prior)
		}
		r.getOrCreate(disc, outer, inner)
	case ended:
		state := r.getOrCreate(disc, outer, inner)
		r.removeEntry(disc, state)
		r.emit(out, state)
	default:
		r.getOrCreate(disc, outer, inner)
	}

	r.sweep(out)
}

// checkCondition evaluates cond (if configured) against inner, updating
// inner to whatever the predicate observed/returned.
func (r *Reducer) checkCondition(cond interface {
	Check(inner *event.Object) (bool, *event.Object, error)
}, inner **event.Object) (bool, error) {
	if cond == nil {
		return false, nil
	}
	ok, observed, err := cond.Check(*inner)
	if err != nil {
		return false, err
	}
	if observed != nil {
		*inner = observed
	}
	return ok, nil
}

// getOrCreate folds (outer, inner) into the existing state for disc, or
// creates one seeded with this event.
func (r *Reducer) getOrCreate(disc discriminant, outer, inner *event.Object) *ReduceState {
	bucket := r.groups[disc.hash]
	for _, e := range bucket {
		if e.encoded == disc.encoded {
			e.state.Add(outer, inner)
			r.diag.onRecorded()
			return e.state
		}
	}
	state := newReduceState(disc, outer, inner, r.cfg, r.coercion, r.diag)
	r.groups[disc.hash] = append(bucket, &groupEntry{encoded: disc.encoded, state: state})
	r.diag.onRecorded()
	return state
}

// remove deletes and returns the state for disc, if one exists.
func (r *Reducer) remove(disc discriminant) (*ReduceState, bool) {
	bucket := r.groups[disc.hash]
	for i, e := range bucket {
		if e.encoded == disc.encoded {
			r.groups[disc.hash] = append(bucket[:i], bucket[i+1:]...)
			return e.state, true
		}
	}
	return nil, false
}

// removeEntry deletes the bucket entry holding state, identified by
// disc's hash (the encoded comparison already happened in getOrCreate,
// so this only needs to find state by pointer).
func (r *Reducer) removeEntry(disc discriminant, state *ReduceState) {
	bucket := r.groups[disc.hash]
	for i, e := range bucket {
		if e.state == state {
			r.groups[disc.hash] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

// sweep implements the two-tier expiration pass: stale/over-threshold
// states are flushed individually (each with a stale-flush telemetry
// signal), then, if the aggregate size of whatever remains still exceeds
// the all-states threshold, every remaining state is flushed too
// (without the stale-flush signal) and the group map is cleared.
func (r *Reducer) sweep(out *stream.Batch[*event.Object]) {
	now := time.Now()
	var stale []*ReduceState

	for hash, bucket := range r.groups {
		var kept []*groupEntry
		for _, e := range bucket {
			age := now.Sub(e.state.startedAt)
			if age >= r.cfg.ExpireAfter || e.state.SizeEstimate() > r.cfg.PerStateByteThreshold {
				stale = append(stale, e.state)
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(r.groups, hash)
		} else {
			r.groups[hash] = kept
		}
	}

	sort.Slice(stale, func(i, j int) bool { return stale[i].startedAt.Before(stale[j].startedAt) })
	for _, s := range stale {
		r.diag.logger.Debug("reduce: stale flush")
		r.emit(out, s)
	}

	var remaining int64
	for _, bucket := range r.groups {
		for _, e := range bucket {
			sum, overflowed := event.SaturatingAdd(remaining, e.state.SizeEstimate())
			remaining = sum
			if overflowed {
				r.diag.onSizeOverflow()
			}
		}
	}
	if remaining <= r.cfg.AllStateByteThreshold {
		return
	}

	var all []*ReduceState
	for _, bucket := range r.groups {
		for _, e := range bucket {
			all = append(all, e.state)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].startedAt.Before(all[j].startedAt) })
	for _, s := range all {
		r.emit(out, s)
	}
	r.groups = make(map[uint64][]*groupEntry)
}

// flushAll emits every remaining state, in ascending started_at order,
// and clears the group map. Called on input EOF or context cancellation.
func (r *Reducer) flushAll(out *stream.Batch[*event.Object]) {
	var all []*ReduceState
	for _, bucket := range r.groups {
		for _, e := range bucket {
			all = append(all, e.state)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].startedAt.Before(all[j].startedAt) })
	for _, s := range all {
		r.emit(out, s)
	}
	r.groups = make(map[uint64][]*groupEntry)
}

func (r *Reducer) emit(out *stream.Batch[*event.Object], s *ReduceState) {
	out.Append(s.Flush())
	r.diag.counters.RecordFlush()
}

// destructure splits evt into its outer half (everything but "message")
// and its inner half (the object at "message", or an empty object if
// absent or not itself an object — the "missing message" error policy).
func destructure(evt *event.Object) (outer, inner *event.Object) {
	outer = evt.Clone()
	outer.Delete("message")

	v, ok := evt.Get("message")
	if !ok {
		return outer, event.NewObject()
	}
	obj, ok := v.(*event.Object)
	if !ok {
		return outer, event.NewObject()
	}
	return outer, obj
}
