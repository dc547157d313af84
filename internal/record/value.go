package record

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Kind discriminates the variants a Value can hold
type Kind uint8

const (
	// KindNull is an absent or explicitly null value
	KindNull Kind = iota
	// KindScalar is a string, integer, float, bool or byte slice
	KindScalar
	// KindList is an ordered list of values, possibly mixed
	KindList
	// KindRecord is a nested record
	KindRecord
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindRecord:
		return "record"
	default:
		return "null"
	}
}

// Value is a tagged union of the shapes extracted data can take.
// The zero Value is Null.
type Value struct {
	kind   Kind
	scalar any
	items  []Value
	rec    *Record
}

// Null returns the null value
func Null() Value {
	return Value{}
}

// String wraps a string scalar
func String(s string) Value {
	return Value{kind: KindScalar, scalar: s}
}

// Int wraps an integer scalar
func Int(n int64) Value {
	return Value{kind: KindScalar, scalar: n}
}

// Float wraps a floating point scalar
func Float(f float64) Value {
	return Value{kind: KindScalar, scalar: f}
}

// Bool wraps a boolean scalar
func Bool(b bool) Value {
	return Value{kind: KindScalar, scalar: b}
}

// Bytes wraps a byte slice scalar
func Bytes(b []byte) Value {
	return Value{kind: KindScalar, scalar: b}
}

// List builds a list value from items
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, items: items}
}

// FromRecord wraps a record; a nil record becomes Null
func FromRecord(r *Record) Value {
	if r == nil {
		return Null()
	}
	return Value{kind: KindRecord, rec: r}
}

// ValueOf converts a native Go value into a Value.
// Maps become records with sorted keys since Go maps carry no order.
func ValueOf(x any) Value {
	switch v := x.(type) {
	case nil:
		return Null()
	case Value:
		return v
	case *Record:
		return FromRecord(v)
	case []Value:
		return List(v...)
	case string:
		return String(v)
	case []byte:
		return Bytes(v)
	case bool:
		return Bool(v)
	case int:
		return Int(int64(v))
	case int8:
		return Int(int64(v))
	case int16:
		return Int(int64(v))
	case int32:
		return Int(int64(v))
	case int64:
		return Int(v)
	case uint:
		return fromUint(uint64(v))
	case uint8:
		return Int(int64(v))
	case uint16:
		return Int(int64(v))
	case uint32:
		return Int(int64(v))
	case uint64:
		return fromUint(v)
	case float32:
		return Float(float64(v))
	case float64:
		return Float(v)
	case json.Number:
		return numberValue(string(v))
	case []any:
		items := make([]Value, len(v))
		for i, item := range v {
			items[i] = ValueOf(item)
		}
		return List(items...)
	case []string:
		items := make([]Value, len(v))
		for i, item := range v {
			items[i] = String(item)
		}
		return List(items...)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		r := New()
		for _, k := range keys {
			r.Set(k, ValueOf(v[k]))
		}
		return FromRecord(r)
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		r := New()
		for _, k := range keys {
			r.Set(k, String(v[k]))
		}
		return FromRecord(r)
	default:
		return String(fmt.Sprint(v))
	}
}

func fromUint(n uint64) Value {
	if n > math.MaxInt64 {
		return Float(float64(n))
	}
	return Int(int64(n))
}

func numberValue(s string) Value {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Float(f)
	}
	return String(s)
}

// Kind returns the variant held by v
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is null
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// IsScalar reports whether v is a scalar
func (v Value) IsScalar() bool {
	return v.kind == KindScalar
}

// IsList reports whether v is a list
func (v Value) IsList() bool {
	return v.kind == KindList
}

// IsRecord reports whether v is a record
func (v Value) IsRecord() bool {
	return v.kind == KindRecord
}

// Items returns the elements of a list value, nil otherwise
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.items
}

// Len returns the number of items of a list, 0 otherwise
func (v Value) Len() int {
	return len(v.Items())
}

// Record returns the record held by v, nil otherwise
func (v Value) Record() *Record {
	if v.kind != KindRecord {
		return nil
	}
	return v.rec
}

// Raw returns the underlying scalar (string, int64, float64, bool, []byte) or nil
func (v Value) Raw() any {
	if v.kind != KindScalar {
		return nil
	}
	return v.scalar
}

// Str returns the string held by v and whether v is a string scalar
func (v Value) Str() (string, bool) {
	s, ok := v.Raw().(string)
	return s, ok
}

// Number returns v as a float64 when v is numeric
func (v Value) Number() (float64, bool) {
	switch n := v.Raw().(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Truthy reports whether v is non-empty in the loose sense used for
// "resolves to nothing" checks: null, empty strings and empty lists are falsy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindList:
		return len(v.items) > 0
	case KindRecord:
		return v.rec.Len() > 0
	}
	if s, ok := v.scalar.(string); ok {
		return s != ""
	}
	return true
}

// Text renders v as display text. Null renders empty; lists and records render as compact JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindScalar:
		return stringOf(v.scalar)
	default:
		data, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(data)
	}
}

func stringOf(x any) string {
	switch s := x.(type) {
	case string:
		return s
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return FormatFloat(s)
	case bool:
		return strconv.FormatBool(s)
	case []byte:
		return string(s)
	case nil:
		return ""
	}
	data, err := json.Marshal(x)
	if err != nil {
		return ""
	}
	return string(data)
}

// FormatFloat renders a float in its shortest round-tripping form. Values
// with a decimal exponent in [-4, 16) use positional notation and keep a
// trailing ".0" when integral; others use exponent notation.
func FormatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// Native converts v into plain Go values: nil, scalars, []any and map[string]any
func (v Value) Native() any {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindList:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Native()
		}
		return out
	case KindRecord:
		return v.rec.Native()
	default:
		return nil
	}
}

// Clone returns a deep copy of v
func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		items := make([]Value, len(v.items))
		for i, item := range v.items {
			items[i] = item.Clone()
		}
		return List(items...)
	case KindRecord:
		return FromRecord(v.rec.Clone())
	case KindScalar:
		if b, ok := v.scalar.([]byte); ok {
			return Bytes(bytes.Clone(b))
		}
	}
	return v
}

// Equal reports deep equality. Integers and floats compare numerically.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindList:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindRecord:
		return v.rec.Equal(o.rec)
	}
	if a, ok := v.Number(); ok {
		b, ok := o.Number()
		return ok && a == b
	}
	switch a := v.scalar.(type) {
	case []byte:
		b, ok := o.scalar.([]byte)
		return ok && bytes.Equal(a, b)
	default:
		return v.scalar == o.scalar
	}
}

// Base64 renders a byte scalar as base64 text without line breaks
func (v Value) Base64() (string, bool) {
	b, ok := v.Raw().([]byte)
	if !ok {
		return "", false
	}
	return base64.StdEncoding.EncodeToString(b), true
}
