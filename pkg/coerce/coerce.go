// Package coerce implements the ingress/egress timestamp coercion layer:
// user-declared date fields are parsed into calendar instants on the way
// in, and converted back to their original representation (string vs.
// integer epoch) on the way out, using strftime-style format strings
// rather than Go's reference-time layout — the pipeline's configuration
// documents express formats like "%Y-%m-%d %H:%M:%S" and "%s".
package coerce

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/itchyny/timefmt-go"

	"github.com/logreduce/logreduce/pkg/event"
)

// Kind is the original representation of a coerced field, recorded on
// first successful ingress parse and never overwritten.
type Kind byte

const (
	KindUnset Kind = iota
	KindBytes
	KindInteger
)

// FieldFormat pairs a dotted field path with its strftime format string.
type FieldFormat struct {
	Path   string
	Format string
}

// Coercion is the cross-state shared sidecar described by the data
// model: one instance per Reducer, read and written by every ReduceState
// it seeds. Reads are expected to vastly outnumber writes (a kind is
// written at most once per path, ever), so it uses an RWMutex (shared
// readers, exclusive writers) rather than a plain Mutex.
type Coercion struct {
	fields []FieldFormat
	byPath map[string]string // path -> format, for O(1) lookup

	mu    sync.RWMutex
	kinds map[string]Kind

	logger *slog.Logger
}

// New validates the configured (path, format) pairs (every "%x"
// directive in a format must be one validateDirectives knows) and returns
// a Coercion. A format with an unknown or incomplete directive is a
// configuration error.
func New(fields []FieldFormat, logger *slog.Logger) (*Coercion, error) {
	if logger == nil {
		logger = slog.Default()
	}
	byPath := make(map[string]string, len(fields))
	for _, f := range fields {
		if err := validateDirectives(f.Format); err != nil {
			return nil, fmt.Errorf("coerce: invalid date format %q for %q: %w", f.Format, f.Path, err)
		}
		byPath[f.Path] = f.Format
	}
	return &Coercion{
		fields: fields,
		byPath: byPath,
		kinds:  make(map[string]Kind),
		logger: logger,
	}, nil
}

// Fields returns the configured (path, format) pairs in configuration order.
func (c *Coercion) Fields() []FieldFormat { return c.fields }

// Ingress applies ingress coercion (data model §4.3, step 1-3) to inner
// in place, for every configured field present in inner.
func (c *Coercion) Ingress(inner *event.Object) {
	for _, f := range c.fields {
		v, ok := inner.GetPath(f.Path)
		if !ok {
			continue
		}
		s, ok := event.StringifyForCoercion(v)
		if !ok {
			continue
		}
		t, err := timefmt.Parse(s, f.Format)
		if err != nil {
			c.logger.Warn("coerce: date parse failed, leaving value unchanged",
				"path", f.Path, "format", f.Format, "value", s, "error", err)
			continue
		}
		c.recordKind(f.Path, v)
		inner.SetPath(f.Path, event.Time{Time: t})
	}
}

// recordKind implements the required double-checked shared/exclusive
// read-then-write: check presence under a read lock; only if absent,
// take the write lock and insert if another writer did not win the race.
func (c *Coercion) recordKind(path string, original event.Value) {
	c.mu.RLock()
	_, present := c.kinds[path]
	c.mu.RUnlock()
	if present {
		return
	}

	kind := KindBytes
	if _, isInt := original.(event.Int); isInt {
		kind = KindInteger
	}

	c.mu.Lock()
	if _, present := c.kinds[path]; !present {
		c.kinds[path] = kind
	}
	c.mu.Unlock()
}

func (c *Coercion) kindOf(path string) (Kind, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	k, ok := c.kinds[path]
	return k, ok
}

// Egress applies egress coercion (data model §4.3, step 1-4) to out in
// place, formatting path and "<path>_end" (if both hold timestamps) back
// to the recorded original representation.
func (c *Coercion) Egress(out *event.Object) {
	for _, f := range c.fields {
		endPath := f.Path + "_end"
		start, _ := out.GetPath(f.Path)
		end, _ := out.GetPath(endPath)
		_, startIsTime := start.(event.Time)
		_, endIsTime := end.(event.Time)
		if !startIsTime || !endIsTime {
			continue
		}
		c.egressOne(out, f.Path, f.Path)
		c.egressOne(out, endPath, f.Path)
	}
}

func (c *Coercion) egressOne(out *event.Object, path, basePath string) {
	v, ok := out.GetPath(path)
	if !ok {
		return
	}
	t, ok := v.(event.Time)
	if !ok {
		return
	}
	kind, recorded := c.kindOf(basePath)
	formatted := timefmt.Format(t.Time, c.byPath[basePath])
	if !recorded {
		c.logger.Warn("coerce: egress with no recorded kind, leaving value as-is", "path", path)
		return
	}
	switch kind {
	case KindBytes:
		out.SetPath(path, event.Bytes(formatted))
	case KindInteger:
		if n, err := strconv.ParseInt(formatted, 10, 64); err == nil {
			out.SetPath(path, event.Int(n))
		} else {
			out.SetPath(path, event.Bytes(formatted))
		}
	}
}

// knownDirectives are the strftime conversion specifiers timefmt-go
// understands. A format string containing any other "%x" sequence is
// rejected at construction time rather than failing obscurely on every
// parse.
const knownDirectives = "AaBbCcDdeFGgHhIjklMmnpRrSsTtUuVvWwXxYyZz%"

func validateDirectives(format string) error {
	runes := []rune(format)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '%' {
			continue
		}
		if i+1 >= len(runes) {
			return fmt.Errorf("dangling %% at end of format")
		}
		// timefmt-go supports a handful of modifier/width prefixes
		// ('-', '_', '0', '^', '#', and digit widths) before the
		// conversion letter; skip over those before validating.
		j := i + 1
		for j < len(runes) && (runes[j] == '-' || runes[j] == '_' || runes[j] == '0' || runes[j] == '^' || runes[j] == '#' || (runes[j] >= '0' && runes[j] <= '9')) {
			j++
		}
		if j >= len(runes) {
			return fmt.Errorf("incomplete %%-directive at offset %d", i)
		}
		if !containsRune(knownDirectives, runes[j]) {
			return fmt.Errorf("unknown format directive %%%c", runes[j])
		}
		i = j
	}
	return nil
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}
