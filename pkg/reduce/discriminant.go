package reduce

import (
	"github.com/cespare/xxhash/v2"

	"github.com/logreduce/logreduce/pkg/event"
)

// discriminant identifies a group: the canonical encoding of the ordered
// tuple of values extracted at the configured group_by paths, plus its
// hash for O(1) map lookup. The encoding is kept alongside the hash so a
// true hash collision can fall back to a byte-for-byte comparison rather
// than silently merging two distinct groups.
type discriminant struct {
	hash    uint64
	encoded string
}

// computeDiscriminant extracts the values at groupBy from inner (Missing
// at an absent path, which is itself a valid, equality-comparable slot)
// and canonically encodes the resulting tuple.
func computeDiscriminant(inner *event.Object, groupBy []string) (discriminant, error) {
	items := make([]event.Value, len(groupBy))
	for i, path := range groupBy {
		v, ok := inner.GetPath(path)
		if !ok {
			v = event.Missing{}
		}
		items[i] = v
	}
	tuple := event.NewArray(items...)
	enc, err := event.CanonicalEncode(tuple)
	if err != nil {
		return discriminant{}, err
	}
	return discriminant{hash: xxhash.Sum64(enc), encoded: string(enc)}, nil
}
