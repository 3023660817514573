package predicate

import (
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/logreduce/logreduce/pkg/event"
)

// JQCondition evaluates a jq-style boolean expression against the inner
// event on every Check call. The query is parsed and compiled once at
// construction, so a malformed expression is a configuration error
// rather than a per-event failure.
type JQCondition struct {
	code  *gojq.Code
	query string
}

// NewJQCondition compiles query. query should evaluate to a boolean; any
// other top-level result is treated as truthy/falsy the way jq itself
// does (null and false are falsy, everything else truthy).
func NewJQCondition(query string) (*JQCondition, error) {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("predicate: parse %q: %w", query, err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("predicate: compile %q: %w", query, err)
	}
	return &JQCondition{code: code, query: query}, nil
}

// Check evaluates the compiled query against inner, rendered as plain
// JSON-shaped input. It does not decorate the event: the returned object
// is identical to the input.
func (c *JQCondition) Check(inner *event.Object) (bool, *event.Object, error) {
	input := objectToAny(inner)
	iter := c.code.Run(input)
	v, ok := iter.Next()
	if !ok {
		return false, inner, nil
	}
	if err, isErr := v.(error); isErr {
		return false, inner, fmt.Errorf("predicate: %q: %w", c.query, err)
	}
	return truthy(v), inner, nil
}

func truthy(v any) bool {
	switch vv := v.(type) {
	case nil:
		return false
	case bool:
		return vv
	default:
		return true
	}
}

func objectToAny(o *event.Object) map[string]any {
	m := make(map[string]any, o.Len())
	o.Range(func(k string, v event.Value) bool {
		m[k] = valueToAny(v)
		return true
	})
	return m
}

func valueToAny(v event.Value) any {
	switch vv := v.(type) {
	case nil, event.Missing, event.Null:
		return nil
	case event.Bool:
		return bool(vv)
	case event.Int:
		return int64(vv)
	case event.Float:
		return float64(vv)
	case event.Bytes:
		return string(vv)
	case event.Time:
		return vv.Time.Format("2006-01-02T15:04:05.999999999Z07:00")
	case *event.Array:
		out := make([]any, len(vv.Items))
		for i, it := range vv.Items {
			out[i] = valueToAny(it)
		}
		return out
	case *event.Object:
		return objectToAny(vv)
	default:
		return nil
	}
}
