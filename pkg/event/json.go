package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MarshalJSON renders the object as a JSON object, preserving key order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := MarshalValue(o.vals[k])
		if err != nil {
			return nil, fmt.Errorf("event: marshal %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalValue renders a single Value as JSON.
func MarshalValue(v Value) ([]byte, error) {
	switch vv := v.(type) {
	case nil, Missing:
		return []byte("null"), nil
	case Null:
		return []byte("null"), nil
	case Bool:
		return json.Marshal(bool(vv))
	case Int:
		return json.Marshal(int64(vv))
	case Float:
		return json.Marshal(float64(vv))
	case Bytes:
		return json.Marshal(string(vv))
	case Time:
		return json.Marshal(vv.Time)
	case *Array:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, it := range vv.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			ib, err := MarshalValue(it)
			if err != nil {
				return nil, err
			}
			buf.Write(ib)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case *Object:
		return vv.MarshalJSON()
	default:
		return nil, fmt.Errorf("event: unmarshalable kind %T", v)
	}
}

// ParseObject decodes a JSON object (top-level document must be an
// object) into an Object tree, using json.Number so integer vs. floating
// leaves are distinguished per the data model. Key order is preserved by
// decoding token-by-token rather than through map[string]any, which Go's
// encoding/json does not order.
func ParseObject(data []byte) (*Object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("event: top-level JSON value is not an object")
	}
	return obj, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("event: expected object key, got %v", keyTok)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, v)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return obj, nil
		case '[':
			var items []Value
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return &Array{Items: items}, nil
		default:
			return nil, fmt.Errorf("event: unexpected delimiter %v", t)
		}
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("event: bad number %q: %w", t.String(), err)
		}
		return Float(f), nil
	case string:
		return Bytes(t), nil
	default:
		return nil, fmt.Errorf("event: unsupported JSON token %T", tok)
	}
}

// ValueFromAny converts a decoded JSON value (as produced by a
// json.Decoder configured with UseNumber, e.g. via json.Unmarshal into
// an any) into a Value. Object key order is not preserved through this
// path; prefer ParseObject when order matters.
func ValueFromAny(raw any) (Value, error) {
	switch rv := raw.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(rv), nil
	case json.Number:
		if i, err := rv.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := rv.Float64()
		if err != nil {
			return nil, fmt.Errorf("event: bad number %q: %w", rv.String(), err)
		}
		return Float(f), nil
	case float64:
		return Float(rv), nil
	case string:
		return Bytes(rv), nil
	case []any:
		items := make([]Value, len(rv))
		for i, e := range rv {
			v, err := ValueFromAny(e)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return &Array{Items: items}, nil
	case map[string]any:
		obj := NewObject()
		for k, e := range rv {
			v, err := ValueFromAny(e)
			if err != nil {
				return nil, err
			}
			obj.Set(k, v)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("event: unsupported JSON value %T", raw)
	}
}

// StringifyForCoercion renders v as it would read before timestamp
// coercion parses it: byte-strings pass through, integers render as
// decimal, everything else is rejected.
func StringifyForCoercion(v Value) (string, bool) {
	switch vv := v.(type) {
	case Bytes:
		return string(vv), true
	case Int:
		return strconv.FormatInt(int64(vv), 10), true
	default:
		return "", false
	}
}
