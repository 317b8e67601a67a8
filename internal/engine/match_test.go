package engine

import (
	"testing"
)

func doc(pairs map[string]any) map[string]any {
	return pairs
}

func TestMatchesEmptyFilter(t *testing.T) {
	if !Matches(doc(map[string]any{"a": float64(1)}), map[string]any{}) {
		t.Fatal("an empty filter must match every document")
	}
	if !Matches(nil, map[string]any{}) {
		t.Fatal("an empty filter must match a non-object document too")
	}
}

func TestMatchesLiteralEquality(t *testing.T) {
	d := doc(map[string]any{"name": "Ada", "age": float64(36)})

	if !Matches(d, map[string]any{"name": "Ada"}) {
		t.Fatal("literal string equality should match")
	}
	if Matches(d, map[string]any{"name": "Bob"}) {
		t.Fatal("literal mismatch should not match")
	}
	if !Matches(d, map[string]any{"age": int(36)}) {
		t.Fatal("literal numeric equality must unify int and float")
	}
}

func TestMatchesImplicitAnd(t *testing.T) {
	d := doc(map[string]any{"role": "admin", "age": float64(30)})

	both := map[string]any{"role": "admin", "age": map[string]any{"$gte": float64(18)}}
	if !Matches(d, both) {
		t.Fatal("all conditions hold, document should match")
	}

	oneFails := map[string]any{"role": "admin", "age": map[string]any{"$gt": float64(40)}}
	if Matches(d, oneFails) {
		t.Fatal("one failing condition must fail the whole predicate")
	}
}

func TestMatchesOperatorMapIsConjunction(t *testing.T) {
	d := doc(map[string]any{"score": float64(50)})
	rangeFilter := map[string]any{"score": map[string]any{"$gte": float64(10), "$lte": float64(60)}}
	if !Matches(d, rangeFilter) {
		t.Fatal("both nested operators hold, document should match")
	}
	outOfRange := map[string]any{"score": map[string]any{"$gte": float64(10), "$lte": float64(40)}}
	if Matches(d, outOfRange) {
		t.Fatal("any failing nested operator must fail the predicate")
	}
}

func TestMatchesAbsentFieldReadsAsNull(t *testing.T) {
	d := doc(map[string]any{"a": float64(1)})

	if Matches(d, map[string]any{"missing": "anything"}) {
		t.Fatal("absent field cannot equal a literal")
	}
	if !Matches(d, map[string]any{"missing": nil}) {
		t.Fatal("absent field compares equal to null")
	}
	if Matches(d, map[string]any{"missing": map[string]any{"$gt": float64(0)}}) {
		t.Fatal("absent field is not numeric and cannot satisfy $gt")
	}
}

func TestMatchesUnknownOperatorFailsClosed(t *testing.T) {
	d := doc(map[string]any{"tags": []any{"a"}})
	if Matches(d, map[string]any{"tags": map[string]any{"$in": []any{"a"}}}) {
		t.Fatal("unsupported operators must fail the predicate, not pass it")
	}
}

func TestMatchesObjectLiteralIsOperatorMap(t *testing.T) {
	// A nested object in a filter is always an operator map; its keys are
	// treated as operator names even when they do not look like ones.
	d := doc(map[string]any{"meta": map[string]any{"k": "v"}})
	if Matches(d, map[string]any{"meta": map[string]any{"k": "v"}}) {
		t.Fatal("object filter values route through the operator table, so 'k' is an unknown operator")
	}
	if !Matches(d, map[string]any{"meta": map[string]any{"$eq": map[string]any{"k": "v"}}}) {
		t.Fatal("$eq with an object target performs the structural comparison")
	}
}

func TestMatchesNonObjectDocument(t *testing.T) {
	if Matches("just a string", map[string]any{"a": float64(1)}) {
		t.Fatal("non-object documents expose no fields, so a non-empty literal filter fails")
	}
	if !Matches("just a string", map[string]any{"a": nil}) {
		t.Fatal("every field of a non-object document reads as null")
	}
}
