package record

import (
	"math"
	"slices"
)

// Field is one key/value pair of a Record.
type Field struct {
	Key   string
	Value any
}

// Record is an ordered mapping from field name to value.
//
// Values are nil, string, int64, float64, bool, *Record (an element with
// child elements) or []any (repeated elements). Set keeps the position of an
// existing key, so the encoded key order is the insertion order.
type Record struct {
	fields []Field
	index  map[string]int
}

// New returns an empty Record.
func New() *Record {
	return &Record{index: map[string]int{}}
}

// FromFields builds a Record from fields in order. Later duplicates replace
// earlier values in place.
func FromFields(fields ...Field) *Record {
	r := New()
	for _, f := range fields {
		r.Set(f.Key, f.Value)
	}

	return r
}

// Set assigns v to key, normalizing numeric values.
func (r *Record) Set(key string, v any) {
	if r.index == nil {
		r.index = map[string]int{}
	}

	v = Normalize(v)

	if i, ok := r.index[key]; ok {
		r.fields[i].Value = v
		return
	}

	r.index[key] = len(r.fields)
	r.fields = append(r.fields, Field{Key: key, Value: v})
}

// Get returns the value for key and whether the key is present.
func (r *Record) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}

	i, ok := r.index[key]
	if !ok {
		return nil, false
	}

	return r.fields[i].Value, true
}

// Has reports whether key is present, even with a null value.
func (r *Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Delete removes key, keeping the order of the remaining fields.
func (r *Record) Delete(key string) {
	i, ok := r.index[key]
	if !ok {
		return
	}

	r.fields = slices.Delete(r.fields, i, i+1)
	delete(r.index, key)

	for j := i; j < len(r.fields); j++ {
		r.index[r.fields[j].Key] = j
	}
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}

	return len(r.fields)
}

// Keys returns the field names in order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, r.Len())
	for _, f := range r.Fields() {
		keys = append(keys, f.Key)
	}

	return keys
}

// Fields returns a copy of the fields in order.
func (r *Record) Fields() []Field {
	if r == nil {
		return nil
	}

	return slices.Clone(r.fields)
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	out := New()
	for _, f := range r.fields {
		out.Set(f.Key, cloneValue(f.Value))
	}

	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case *Record:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = cloneValue(val[i])
		}

		return out
	default:
		return v
	}
}

// Equal reports whether r and o hold the same keys with equal values. Key
// order is ignored; numbers compare by value regardless of int/float form.
func (r *Record) Equal(o *Record) bool {
	if r.Len() != o.Len() {
		return false
	}

	for _, f := range r.Fields() {
		ov, ok := o.Get(f.Key)
		if !ok || !ValueEqual(f.Value, ov) {
			return false
		}
	}

	return true
}

// ValueEqual compares two record values.
func ValueEqual(a, b any) bool {
	a, b = Normalize(a), Normalize(b)

	switch av := a.(type) {
	case nil:
		return b == nil
	case *Record:
		bv, ok := b.(*Record)
		return ok && av.Equal(bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}

		for i := range av {
			if !ValueEqual(av[i], bv[i]) {
				return false
			}
		}

		return true
	case int64:
		switch bv := b.(type) {
		case int64:
			return av == bv
		case float64:
			return float64(av) == bv
		}

		return false
	case float64:
		switch bv := b.(type) {
		case int64:
			return av == float64(bv)
		case float64:
			return av == bv
		}

		return false
	default:
		return a == b
	}
}

// Normalize maps the numeric types produced by the JSON and YAML decoders
// onto int64 and float64, and []map forms onto the Record value set.
func Normalize(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		return uint64ToValue(uint64(val))
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return uint64ToValue(val)
	case float32:
		return float64(val)
	case []string:
		out := make([]any, len(val))
		for i := range val {
			out[i] = val[i]
		}

		return out
	default:
		return v
	}
}

func uint64ToValue(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}

	return int64(u)
}
