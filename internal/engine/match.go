package engine

import (
	"query-tools/internal/document"
)

// Matches reports whether a document satisfies a filter spec.
//
// Every key of the filter is a condition and all of them must hold
// (implicit AND, short-circuiting on the first failure). A condition whose
// value is an object is an operator map: each of its keys names an operator
// applied to the document's field. Any other condition value requires deep
// structural equality with the field. Absent document fields read as null.
// An empty filter matches every document, and a non-object document can
// only match the empty filter.
func Matches(doc any, filter map[string]any) bool {
	obj, _ := doc.(map[string]any)
	for key, cond := range filter {
		fieldVal := obj[key]
		if opMap, ok := cond.(map[string]any); ok {
			for name, target := range opMap {
				if !ParseOp(name).Evaluate(fieldVal, target) {
					return false
				}
			}
		} else if !document.Equal(fieldVal, cond) {
			return false
		}
	}
	return true
}
