package coerce

import (
	"testing"

	"github.com/logreduce/logreduce/pkg/event"
)

func newCoercionOrFatal(t *testing.T, fields []FieldFormat) *Coercion {
	t.Helper()
	c, err := New(fields, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestIngressRecordsKindOnce(t *testing.T) {
	c := newCoercionOrFatal(t, []FieldFormat{{Path: "ts", Format: "%Y-%m-%d %H:%M:%S"}})

	inner := event.NewObject()
	inner.Set("ts", event.Bytes("2024-01-02 03:04:05"))
	c.Ingress(inner)

	v, ok := inner.Get("ts")
	if !ok {
		t.Fatalf("ts missing after ingress")
	}
	if _, ok := v.(event.Time); !ok {
		t.Fatalf("ts = %T, want event.Time", v)
	}

	kind, ok := c.kindOf("ts")
	if !ok || kind != KindBytes {
		t.Fatalf("kind = %v, %v; want KindBytes, true", kind, ok)
	}

	// A second ingress with a different representation must not
	// overwrite the recorded kind.
	inner2 := event.NewObject()
	inner2.Set("ts", event.Int(1))
	c.Ingress(inner2)
	kind, _ = c.kindOf("ts")
	if kind != KindBytes {
		t.Fatalf("kind overwritten to %v", kind)
	}
}

func TestRoundTripStringAndInteger(t *testing.T) {
	c := newCoercionOrFatal(t, []FieldFormat{
		{Path: "ts", Format: "%Y-%m-%d %H:%M:%S"},
		{Path: "epoch", Format: "%s"},
	})

	inner := event.NewObject()
	inner.Set("ts", event.Bytes("2024-01-02 03:04:05"))
	inner.Set("epoch", event.Int(1700000000))
	c.Ingress(inner)

	out := event.NewObject()
	tsv, _ := inner.Get("ts")
	epv, _ := inner.Get("epoch")
	out.Set("ts", tsv)
	out.Set("ts_end", tsv)
	out.Set("epoch", epv)
	out.Set("epoch_end", epv)
	c.Egress(out)

	ts, _ := out.Get("ts")
	if b, ok := ts.(event.Bytes); !ok || string(b) != "2024-01-02 03:04:05" {
		t.Fatalf("ts egress = %v, want original string", ts)
	}
	epoch, _ := out.Get("epoch")
	if n, ok := epoch.(event.Int); !ok || int64(n) != 1700000000 {
		t.Fatalf("epoch egress = %v, want integer 1700000000", epoch)
	}
}

func TestInvalidFormatRejectedAtConstruction(t *testing.T) {
	_, err := New([]FieldFormat{{Path: "ts", Format: "%Q"}}, nil)
	if err == nil {
		t.Fatalf("New with unknown directive: want error")
	}
}
