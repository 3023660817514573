// Package predicate defines the boundary-predicate interface the reducer
// evaluates for starts_when/ends_when, and ships one concrete
// implementation (JQCondition) so the module is runnable end to end
// without requiring every caller to bring their own predicate
// sublanguage. A host pipeline with its own condition language embeds the
// reducer as a library and supplies its own Condition instead.
package predicate

import "github.com/logreduce/logreduce/pkg/event"

// Condition is evaluated against a candidate inner event. It returns
// whether the boundary fired, and the event to use going forward — an
// implementation may decorate or otherwise observe the event, and the
// caller must treat the returned event as the source of truth for the
// remainder of the per-event pipeline.
type Condition interface {
	Check(inner *event.Object) (bool, *event.Object, error)
}

// Func adapts a plain function to Condition.
type Func func(inner *event.Object) (bool, *event.Object, error)

func (f Func) Check(inner *event.Object) (bool, *event.Object, error) { return f(inner) }
