// Package engine implements the query evaluation pipeline: operator
// evaluation, predicate matching, sorting, pagination, projection, schema
// validation and merge-style mutation over in-memory document collections.
//
// The engine is a pure function of its inputs. It holds no state between
// calls, never mutates the caller's collection, and by construction every
// code path returns a value of the expected result type: logic mismatches
// resolve to false, never to an error or a panic.
package engine

import (
	"query-tools/internal/document"
)

// Op is a comparison operator. The set is closed: names outside the table
// below parse to OpInvalid, which evaluates to false for every operand
// pair. Unknown operators fail closed, not fatal.
type Op int

const (
	OpInvalid Op = iota
	OpEq
	OpNe
	OpGt
	OpGte
	OpLt
	OpLte
)

// ParseOp maps an operator name from a filter spec to its Op.
func ParseOp(name string) Op {
	switch name {
	case "$eq":
		return OpEq
	case "$ne":
		return OpNe
	case "$gt":
		return OpGt
	case "$gte":
		return OpGte
	case "$lt":
		return OpLt
	case "$lte":
		return OpLte
	default:
		return OpInvalid
	}
}

// Evaluate applies the operator to a document field value and a query
// target value.
//
// $eq and $ne use deep structural equality over every value shape. The
// ordering operators require both operands to be numeric; if either side is
// not, the result is false. Integer and float representations of the same
// magnitude are equal under every operator.
func (op Op) Evaluate(fieldVal, targetVal any) bool {
	switch op {
	case OpEq:
		return document.Equal(fieldVal, targetVal)
	case OpNe:
		return !document.Equal(fieldVal, targetVal)
	case OpGt:
		return numericCompare(fieldVal, targetVal, func(a, b float64) bool { return a > b })
	case OpGte:
		return numericCompare(fieldVal, targetVal, func(a, b float64) bool { return a >= b })
	case OpLt:
		return numericCompare(fieldVal, targetVal, func(a, b float64) bool { return a < b })
	case OpLte:
		return numericCompare(fieldVal, targetVal, func(a, b float64) bool { return a <= b })
	default:
		return false
	}
}

// numericCompare unifies both operands to float64 before comparing.
// Non-numeric operands cannot participate in range comparisons.
func numericCompare(a, b any, cmp func(a, b float64) bool) bool {
	fa, okA := document.ToFloat64(a)
	fb, okB := document.ToFloat64(b)
	if !okA || !okB {
		return false
	}
	return cmp(fa, fb)
}
