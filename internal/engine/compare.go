package engine

import (
	"strings"

	"query-tools/internal/document"
)

// Compare provides the total order used by the sorter. Returns -1 if a<b,
// 0 if a==b, 1 if a>b.
//
// Strings order lexicographically, numbers numerically, booleans with
// false before true. Every other pairing (type mismatch, nulls, arrays,
// objects) compares equal so that the sorter falls through to the next
// sort key or to input-order stability. Equality semantics elsewhere are
// document.Equal, not this function.
func Compare(a, b any) int {
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return strings.Compare(sa, sb)
		}
	}
	if fa, ok := document.ToFloat64(a); ok {
		if fb, ok := document.ToFloat64(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case bb:
				return -1
			default:
				return 1
			}
		}
	}
	return 0
}
