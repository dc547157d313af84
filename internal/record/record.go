package record

// Record is a mapping of unique keys to values that remembers insertion order
type Record struct {
	keys   []string
	values map[string]Value
}

// New creates an empty record
func New() *Record {
	return &Record{values: make(map[string]Value)}
}

// FromPairs builds a record from alternating key/value arguments
func FromPairs(pairs ...any) *Record {
	r := New()
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}
		r.Set(key, ValueOf(pairs[i+1]))
	}
	return r
}

// Len returns the number of keys
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Keys returns the keys in insertion order
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Has reports whether key is present
func (r *Record) Has(key string) bool {
	if r == nil {
		return false
	}
	_, ok := r.values[key]
	return ok
}

// Field returns the value stored directly under key
func (r *Record) Field(key string) (Value, bool) {
	if r == nil {
		return Null(), false
	}
	v, ok := r.values[key]
	return v, ok
}

// Set stores v under key. Existing keys keep their position.
func (r *Record) Set(key string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Delete removes key
func (r *Record) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Each calls fn for every key in order
func (r *Record) Each(fn func(key string, v Value)) {
	if r == nil {
		return
	}
	for _, k := range r.keys {
		fn(k, r.values[k])
	}
}

// Clone returns a deep copy
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{
		keys:   make([]string, len(r.keys)),
		values: make(map[string]Value, len(r.values)),
	}
	copy(out.keys, r.keys)
	for k, v := range r.values {
		out.values[k] = v.Clone()
	}
	return out
}

// Equal reports whether both records hold equal values under the same keys.
// Key order is not compared.
func (r *Record) Equal(o *Record) bool {
	if r.Len() != o.Len() {
		return false
	}
	for _, k := range r.Keys() {
		ov, ok := o.Field(k)
		if !ok {
			return false
		}
		if v, _ := r.Field(k); !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Native converts the record into a map[string]any tree
func (r *Record) Native() map[string]any {
	out := make(map[string]any, r.Len())
	r.Each(func(k string, v Value) {
		out[k] = v.Native()
	})
	return out
}
