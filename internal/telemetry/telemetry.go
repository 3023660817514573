// Package telemetry wires the reducer's three named counters to
// OpenTelemetry instruments. A Reducer constructed without an explicit
// meter gets the global no-op meter, so instrumentation is opt-in for
// embedders and never a hard dependency on a configured SDK.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Counters holds the three signals named by the reducer's external
// interface: events_recorded on successful fold, events_flushed on each
// emitted group, failed_updates on any rejected merge.
type Counters struct {
	recorded metric.Int64Counter
	flushed  metric.Int64Counter
	failed   metric.Int64Counter
}

// New builds Counters from meter. A nil meter falls back to the global
// MeterProvider (a no-op implementation until the embedding application
// configures a real SDK), so callers that don't care about metrics can
// pass nil.
func New(meter metric.Meter) (*Counters, error) {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter("logreduce")
	}
	recorded, err := meter.Int64Counter("events_recorded",
		metric.WithDescription("events successfully folded into a reduce group"))
	if err != nil {
		return nil, err
	}
	flushed, err := meter.Int64Counter("events_flushed",
		metric.WithDescription("reduce groups emitted downstream"))
	if err != nil {
		return nil, err
	}
	failed, err := meter.Int64Counter("failed_updates",
		metric.WithDescription("merge Add calls rejected for incompatible input"))
	if err != nil {
		return nil, err
	}
	return &Counters{recorded: recorded, flushed: flushed, failed: failed}, nil
}

func (c *Counters) RecordFold()   { c.recorded.Add(context.Background(), 1) }
func (c *Counters) RecordFlush()  { c.flushed.Add(context.Background(), 1) }
func (c *Counters) RecordFailed() { c.failed.Add(context.Background(), 1) }
