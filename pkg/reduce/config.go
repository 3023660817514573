package reduce

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/logreduce/logreduce/pkg/coerce"
	"github.com/logreduce/logreduce/pkg/merge"
	"github.com/logreduce/logreduce/pkg/predicate"
)

const (
	defaultExpireAfter  = 30 * time.Second
	defaultFlushPeriod  = time.Second
	defaultPerStateByte = 102400
	defaultAllStateByte = 1048576
)

// Config is the validated, construction-time-checked set of options
// recognized by a Reducer. Build one with NewConfig rather than
// constructing it directly, so the starts_when/ends_when exclusivity and
// strategy-name checks always run.
type Config struct {
	ExpireAfter     time.Duration
	FlushPeriod     time.Duration
	GroupBy         []string
	MergeStrategies []FieldStrategy
	StartsWhen      predicate.Condition
	EndsWhen        predicate.Condition
	DateFormats     []coerce.FieldFormat

	PerStateByteThreshold int64
	AllStateByteThreshold int64
}

// FieldStrategy pairs an inner-event path with its configured merge
// strategy. A slice rather than a map, so configuration order is
// preserved for deterministic tie-breaks where the spec calls for it.
type FieldStrategy struct {
	Path     string
	Strategy merge.Strategy
}

// NewConfig validates opts and returns a Config, or a configuration error
// if starts_when and ends_when are both set, a strategy name is
// unrecognized, or a date format is malformed (the latter surfaces from
// coerce.New, called by the Reducer constructor New, not here — NewConfig
// only checks what it owns directly).
func NewConfig(opts Config) (*Config, error) {
	if opts.StartsWhen != nil && opts.EndsWhen != nil {
		return nil, fmt.Errorf("reduce: starts_when and ends_when are mutually exclusive")
	}
	for _, fs := range opts.MergeStrategies {
		if !merge.Valid(fs.Strategy) {
			return nil, fmt.Errorf("reduce: unknown merge strategy %q for field %q", fs.Strategy, fs.Path)
		}
	}
	if opts.ExpireAfter <= 0 {
		opts.ExpireAfter = defaultExpireAfter
	}
	if opts.FlushPeriod <= 0 {
		opts.FlushPeriod = defaultFlushPeriod
	}
	if opts.PerStateByteThreshold <= 0 {
		opts.PerStateByteThreshold = envInt64("REDUCE_BYTE_THRESHOLD_PER_STATE", defaultPerStateByte)
	}
	if opts.AllStateByteThreshold <= 0 {
		opts.AllStateByteThreshold = envInt64("REDUCE_BYTE_THRESHOLD_ALL_STATES", defaultAllStateByte)
	}
	cfg := opts
	return &cfg, nil
}

// strategyFor returns the configured strategy for path, if any.
func (c *Config) strategyFor(path string) (merge.Strategy, bool) {
	for _, fs := range c.MergeStrategies {
		if fs.Path == path {
			return fs.Strategy, true
		}
	}
	return "", false
}

func envInt64(name string, def int64) int64 {
	s := os.Getenv(name)
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return n
}
