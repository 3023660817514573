package event

// Object is an order-preserving key→value map: lookups are map-like, but
// Keys() returns entries in first-insertion order so display order of
// object-valued fields survives a merge round trip, as the data model
// requires even though equality does not depend on it.
type Object struct {
	keys []string
	vals map[string]Value
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

func (o *Object) Kind() Kind { return KindObject }

// Get returns the value at key and whether it was present.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.vals[key]
	return v, ok
}

// Set inserts or overwrites key. Insertion order is preserved for new keys.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Delete removes key, if present.
func (o *Object) Delete(key string) {
	if _, ok := o.vals[key]; !ok {
		return
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the object's keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Range calls fn for each key in insertion order, stopping early if fn
// returns false.
func (o *Object) Range(fn func(key string, v Value) bool) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		if !fn(k, o.vals[k]) {
			return
		}
	}
}

// GetPath resolves a dotted path (segments escaped per SplitPath rules)
// against nested objects, returning Missing-aware presence.
func (o *Object) GetPath(path string) (Value, bool) {
	segs := SplitPath(path)
	var cur Value = o
	for _, seg := range segs {
		obj, ok := cur.(*Object)
		if !ok {
			return nil, false
		}
		v, ok := obj.Get(seg)
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// SetPath writes v at a dotted path, creating intermediate Objects as
// needed. It is the write-side counterpart to GetPath, used to
// materialize flattened merger output back into nested message fields.
func (o *Object) SetPath(path string, v Value) {
	segs := SplitPath(path)
	cur := o
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur.Get(seg)
		child, ok2 := next.(*Object)
		if !ok || !ok2 {
			child = NewObject()
			cur.Set(seg, child)
		}
		cur = child
	}
	cur.Set(segs[len(segs)-1], v)
}

// Clone returns a shallow copy of o (keys copied, values shared).
func (o *Object) Clone() *Object {
	c := NewObject()
	o.Range(func(k string, v Value) bool {
		c.Set(k, v)
		return true
	})
	return c
}
