package event

import (
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// CanonicalEncode renders v into a length-prefixed, type-tagged byte
// sequence suitable for hashing or set-membership comparison: msgpack's
// wire format already length-prefixes arrays/maps and type-tags scalars,
// so wrapping each value as a (kind-tag, payload) pair before encoding is
// enough to make the encoding unambiguous — in particular "" (an empty
// byte-string) and Missing (an absent path) never collide, because their
// tags differ even though a naive payload-only encoding might coincide.
func CanonicalEncode(v Value) ([]byte, error) {
	return msgpack.Marshal(canonicalPlain(v))
}

// CanonicalKey renders v as a string usable as a Go map key for
// order-independent set membership (flat_unique) or discriminant
// equality. Two values produce the same key iff Equal(a, b).
func CanonicalKey(v Value) (string, error) {
	b, err := CanonicalEncode(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func canonicalPlain(v Value) [2]any {
	switch vv := v.(type) {
	case nil:
		return [2]any{"missing", nil}
	case Missing:
		return [2]any{"missing", nil}
	case Null:
		return [2]any{"null", nil}
	case Bool:
		return [2]any{"bool", bool(vv)}
	case Int:
		return [2]any{"int", int64(vv)}
	case Float:
		return [2]any{"float", float64(vv)}
	case Bytes:
		return [2]any{"bytes", []byte(vv)}
	case Time:
		return [2]any{"time", vv.Time.UTC().UnixNano()}
	case *Array:
		items := make([]any, len(vv.Items))
		for i, it := range vv.Items {
			items[i] = canonicalPlain(it)
		}
		return [2]any{"array", items}
	case *Object:
		keys := append([]string(nil), vv.keys...)
		sort.Strings(keys)
		pairs := make([]any, len(keys))
		for i, k := range keys {
			val, _ := vv.Get(k)
			pairs[i] = [2]any{k, canonicalPlain(val)}
		}
		return [2]any{"object", pairs}
	default:
		return [2]any{"unknown", nil}
	}
}
