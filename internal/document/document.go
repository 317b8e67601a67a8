// Package document defines the single value representation shared by
// documents, filters, sort specs, projections, schemas and patches: a Go
// `any` restricted to nil, bool, float64, string, []any and map[string]any.
// JSON numbers are always decoded as float64, so integer and floating
// representations of the same magnitude are interchangeable everywhere.
package document

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Doc is the conventional object shape of a stored document.
type Doc = map[string]any

// ParseValue decodes raw JSON into a document tree value. On any decode
// failure it returns nil rather than an error; malformed input must never
// abort a call.
func ParseValue(raw []byte) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// ParseArray decodes raw JSON into a sequence, substituting an empty
// sequence when the input is malformed or not array-shaped.
func ParseArray(raw []byte) []any {
	arr, ok := ParseValue(raw).([]any)
	if !ok {
		return []any{}
	}
	return arr
}

// ParseObject decodes raw JSON into a mapping, substituting an empty
// mapping when the input is malformed or not object-shaped.
func ParseObject(raw []byte) map[string]any {
	obj, ok := ParseValue(raw).(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return obj
}

// ToFloat64 unifies the numeric types a document value can carry into a
// float64. Strings are not numbers here: a field holding "10" does not
// participate in numeric comparison.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case jsoniter.Number:
		f, err := val.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Equal reports deep structural equality between two document tree values.
// Sequences compare element-wise in order; mappings compare by key set and
// value, independent of key order; numbers compare by magnitude regardless
// of integer/float representation.
func Equal(a, b any) bool {
	if fa, ok := ToFloat64(a); ok {
		fb, ok := ToFloat64(b)
		return ok && fa == fb
	}
	switch va := a.(type) {
	case nil:
		return b == nil
	case bool:
		vb, ok := b.(bool)
		return ok && va == vb
	case string:
		vb, ok := b.(string)
		return ok && va == vb
	case []any:
		vb, ok := b.([]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !Equal(va[i], vb[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		vb, ok := b.(map[string]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for k, v := range va {
			other, exists := vb[k]
			if !exists || !Equal(v, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Clone returns a deep copy of a document tree value. Scalars are returned
// as-is since they are immutable.
func Clone(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = Clone(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = Clone(e)
		}
		return out
	default:
		return v
	}
}

// CloneDoc is Clone specialized to object-shaped documents. A nil input
// yields an empty document.
func CloneDoc(d Doc) Doc {
	out := make(Doc, len(d))
	for k, v := range d {
		out[k] = Clone(v)
	}
	return out
}
