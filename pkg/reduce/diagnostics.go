package reduce

import (
	"log/slog"

	"github.com/logreduce/logreduce/internal/telemetry"
)

// diagnostics bundles the logger and counters every ReduceState needs to
// report merge failures, size saturation, and successful folds, without
// making ReduceState itself carry optional construction parameters. The
// Reducer owns one instance and shares it with every state it creates.
type diagnostics struct {
	logger   *slog.Logger
	counters *telemetry.Counters
}

func (d *diagnostics) onRecorded() {
	if d.counters != nil {
		d.counters.RecordFold()
	}
}

func (d *diagnostics) onIncompatible(path string, err error) {
	if d.counters != nil {
		d.counters.RecordFailed()
	}
	d.logger.Warn("reduce: incompatible merge, dropping value", "path", path, "error", err)
}

func (d *diagnostics) onSizeOverflow() {
	d.logger.Warn("reduce: size estimate saturated at max int64")
}
