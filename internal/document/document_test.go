package document

import (
	"testing"
)

func TestParseArrayFailOpen(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"malformed", `[{"a":`},
		{"not an array", `{"a":1}`},
		{"empty input", ``},
		{"scalar", `42`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseArray([]byte(tc.raw))
			if got == nil || len(got) != 0 {
				t.Fatalf("expected empty sequence, got %#v", got)
			}
		})
	}

	got := ParseArray([]byte(`[1, "two", {"three": 3}]`))
	if len(got) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(got))
	}
}

func TestParseObjectFailOpen(t *testing.T) {
	if got := ParseObject([]byte(`[1,2]`)); len(got) != 0 {
		t.Fatalf("expected empty mapping for array input, got %#v", got)
	}
	if got := ParseObject([]byte(`{bad json`)); len(got) != 0 {
		t.Fatalf("expected empty mapping for malformed input, got %#v", got)
	}
	got := ParseObject([]byte(`{"a": 1}`))
	if v, ok := got["a"].(float64); !ok || v != 1 {
		t.Fatalf("expected a=1 decoded as float64, got %#v", got["a"])
	}
}

func TestParseValueFailOpen(t *testing.T) {
	if got := ParseValue([]byte(`not json`)); got != nil {
		t.Fatalf("expected nil for malformed input, got %#v", got)
	}
	if got := ParseValue([]byte(`null`)); got != nil {
		t.Fatalf("expected nil for JSON null, got %#v", got)
	}
}

func TestEqualNumericUnification(t *testing.T) {
	if !Equal(float64(10), int(10)) {
		t.Fatal("10.0 and 10 should be equal")
	}
	if !Equal(int64(3), float64(3.0)) {
		t.Fatal("int64(3) and 3.0 should be equal")
	}
	if Equal(float64(10), "10") {
		t.Fatal("a number should not equal its string form")
	}
}

func TestEqualStructural(t *testing.T) {
	a := map[string]any{"x": float64(1), "y": []any{"a", "b"}}
	b := map[string]any{"y": []any{"a", "b"}, "x": int(1)}
	if !Equal(a, b) {
		t.Fatal("object equality must be independent of key order")
	}

	if Equal([]any{"a", "b"}, []any{"b", "a"}) {
		t.Fatal("sequence equality must be order-sensitive")
	}
	if Equal(map[string]any{"x": 1}, map[string]any{"x": 1, "y": 2}) {
		t.Fatal("objects with different key sets must not be equal")
	}
	if !Equal(nil, nil) {
		t.Fatal("null equals null")
	}
	if Equal(nil, false) {
		t.Fatal("null must not equal false")
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := map[string]any{
		"nested": map[string]any{"k": "v"},
		"list":   []any{float64(1), float64(2)},
	}
	copied, ok := Clone(original).(map[string]any)
	if !ok {
		t.Fatal("clone of an object should be an object")
	}

	copied["nested"].(map[string]any)["k"] = "changed"
	copied["list"].([]any)[0] = float64(99)

	if original["nested"].(map[string]any)["k"] != "v" {
		t.Fatal("mutating the clone leaked into the original nested object")
	}
	if original["list"].([]any)[0] != float64(1) {
		t.Fatal("mutating the clone leaked into the original sequence")
	}
}
