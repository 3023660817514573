package reduce

import (
	"testing"

	"github.com/logreduce/logreduce/pkg/coerce"
	"github.com/logreduce/logreduce/pkg/event"
	"github.com/logreduce/logreduce/pkg/merge"
	"github.com/logreduce/logreduce/pkg/predicate"
	"github.com/logreduce/logreduce/pkg/stream"
)

func newEvent(outer, inner map[string]event.Value) *event.Object {
	o := event.NewObject()
	for k, v := range outer {
		o.Set(k, v)
	}
	msg := event.NewObject()
	for k, v := range inner {
		msg.Set(k, v)
	}
	o.Set("message", msg)
	return o
}

func mustReducer(t *testing.T, cfg Config) *Reducer {
	t.Helper()
	c, err := NewConfig(cfg)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	r, err := New(c, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

// S1: default strategies (numeric sum, byte-string discard) plus an
// ends_when condition flushing the group on the second event.
func TestDefaultStrategiesWithEndCondition(t *testing.T) {
	cond, err := predicate.NewJQCondition(".done == true")
	if err != nil {
		t.Fatalf("NewJQCondition: %v", err)
	}
	r := mustReducer(t, Config{GroupBy: []string{"service"}, EndsWhen: cond})
	out := stream.NewBatch[*event.Object]()

	r.ProcessEvent(newEvent(nil, map[string]event.Value{
		"service": event.Bytes("a"),
		"level":   event.Bytes("info"),
		"count":   event.Int(1),
	}), out)
	r.ProcessEvent(newEvent(nil, map[string]event.Value{
		"service": event.Bytes("a"),
		"level":   event.Bytes("warn"),
		"count":   event.Int(2),
		"done":    event.Bool(true),
	}), out)

	flushed := out.Drain()
	if len(flushed) != 1 {
		t.Fatalf("flushed = %d events, want 1", len(flushed))
	}
	msg, ok := flushed[0].Get("message")
	if !ok {
		t.Fatalf("flushed event has no message")
	}
	inner := msg.(*event.Object)

	count, _ := inner.Get("count")
	if count != event.Int(3) {
		t.Fatalf("count = %v, want 3", count)
	}
	level, _ := inner.Get("level")
	if !event.Equal(level, event.Bytes("info")) {
		t.Fatalf("level = %v, want first-observed \"info\"", level)
	}
	service, _ := inner.Get("service")
	if !event.Equal(service, event.Bytes("a")) {
		t.Fatalf("group_by field service = %v, want \"a\" (first observed)", service)
	}
}

// S2: a starts_when condition flushes the previous group (excluding the
// triggering event) and begins a new one with it.
func TestStartConditionFlushesPrevious(t *testing.T) {
	cond, err := predicate.NewJQCondition(".new_block == true")
	if err != nil {
		t.Fatalf("NewJQCondition: %v", err)
	}
	r := mustReducer(t, Config{StartsWhen: cond})
	out := stream.NewBatch[*event.Object]()

	r.ProcessEvent(newEvent(nil, map[string]event.Value{"count": event.Int(1)}), out)
	r.ProcessEvent(newEvent(nil, map[string]event.Value{"count": event.Int(2)}), out)
	r.ProcessEvent(newEvent(nil, map[string]event.Value{"count": event.Int(10), "new_block": event.Bool(true)}), out)

	flushed := out.Drain()
	if len(flushed) != 1 {
		t.Fatalf("flushed = %d events after start condition, want 1", len(flushed))
	}
	msg, _ := flushed[0].Get("message")
	inner := msg.(*event.Object)
	count, _ := inner.Get("count")
	if count != event.Int(3) {
		t.Fatalf("flushed group count = %v, want 3 (the two pre-boundary events, not the trigger)", count)
	}

	r.flushAll(out)
	rest := out.Drain()
	if len(rest) != 1 {
		t.Fatalf("flushAll produced %d events, want 1 (the new group seeded by the trigger)", len(rest))
	}
	msg2, _ := rest[0].Get("message")
	inner2 := msg2.(*event.Object)
	count2, _ := inner2.Get("count")
	if count2 != event.Int(10) {
		t.Fatalf("new group count = %v, want 10", count2)
	}
}

// Invariant 6: a group_by key's flushed value is always the first
// observed value, even when a strategy is explicitly configured for it.
func TestGroupByForcesDiscardRegardlessOfConfiguredStrategy(t *testing.T) {
	r := mustReducer(t, Config{
		GroupBy:         []string{"code"},
		MergeStrategies: []FieldStrategy{{Path: "code", Strategy: merge.Sum}},
	})
	out := stream.NewBatch[*event.Object]()

	r.ProcessEvent(newEvent(nil, map[string]event.Value{"code": event.Int(5)}), out)
	r.ProcessEvent(newEvent(nil, map[string]event.Value{"code": event.Int(5)}), out)
	r.flushAll(out)

	flushed := out.Drain()
	if len(flushed) != 1 {
		t.Fatalf("flushed = %d events, want 1", len(flushed))
	}
	msg, _ := flushed[0].Get("message")
	inner := msg.(*event.Object)
	code, _ := inner.Get("code")
	if code != event.Int(5) {
		t.Fatalf("group_by field code = %v, want 5 (first observed, sum strategy ignored)", code)
	}
}

// S5: per-state byte threshold breach triggers an immediate flush via
// the expiration sweep that every ProcessEvent call runs.
func TestPerStateThresholdBreachFlushes(t *testing.T) {
	r := mustReducer(t, Config{PerStateByteThreshold: 1})
	out := stream.NewBatch[*event.Object]()

	r.ProcessEvent(newEvent(nil, map[string]event.Value{
		"payload": event.Bytes("this pushes the state over its tiny threshold"),
	}), out)

	flushed := out.Drain()
	if len(flushed) != 1 {
		t.Fatalf("flushed = %d events, want 1 (threshold breach should flush immediately)", len(flushed))
	}
}

// S6: a date_formats field round-trips through ingress/egress coercion
// preserving its original representation.
func TestTimestampRoundTrip(t *testing.T) {
	r := mustReducer(t, Config{
		DateFormats: []coerce.FieldFormat{
			{Path: "seen_at", Format: "%Y-%m-%d %H:%M:%S"},
			{Path: "epoch", Format: "%s"},
		},
	})
	out := stream.NewBatch[*event.Object]()

	r.ProcessEvent(newEvent(nil, map[string]event.Value{
		"seen_at": event.Bytes("2024-01-02 03:04:05"),
		"epoch":   event.Int(1704164645),
	}), out)
	r.flushAll(out)

	flushed := out.Drain()
	if len(flushed) != 1 {
		t.Fatalf("flushed = %d events, want 1", len(flushed))
	}
	msg, _ := flushed[0].Get("message")
	inner := msg.(*event.Object)

	seenAt, _ := inner.Get("seen_at")
	if !event.Equal(seenAt, event.Bytes("2024-01-02 03:04:05")) {
		t.Fatalf("seen_at = %v, want round-tripped string", seenAt)
	}
	seenAtEnd, ok := inner.Get("seen_at_end")
	if !ok || !event.Equal(seenAtEnd, event.Bytes("2024-01-02 03:04:05")) {
		t.Fatalf("seen_at_end = %v, %v, want round-tripped string", seenAtEnd, ok)
	}

	epoch, _ := inner.Get("epoch")
	if epoch != event.Int(1704164645) {
		t.Fatalf("epoch = %v, want 1704164645 (integer representation preserved)", epoch)
	}
}
