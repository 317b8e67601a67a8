package engine

import (
	"testing"

	"query-tools/internal/document"
)

func people() []any {
	return []any{
		map[string]any{"_id": "1", "name": "Ada", "age": float64(36), "dept": "eng"},
		map[string]any{"_id": "2", "name": "Bob", "age": float64(29), "dept": "ops"},
		map[string]any{"_id": "3", "name": "Cyd", "age": float64(36), "dept": "eng"},
		map[string]any{"_id": "4", "name": "Dee", "age": float64(51), "dept": "eng"},
	}
}

func TestFindProjectionHidesUnrequestedFields(t *testing.T) {
	data := []any{
		map[string]any{"_id": "1", "public": "x", "secret": "y"},
	}
	got := Find(data, map[string]any{}, nil, map[string]any{"public": float64(1)}, 0, 0)
	if len(got) != 1 {
		t.Fatalf("expected 1 document, got %d", len(got))
	}
	want := map[string]any{"_id": "1", "public": "x"}
	if !document.Equal(got[0], want) {
		t.Fatalf("projection result %#v, want %#v", got[0], want)
	}
}

func TestFindSortAscending(t *testing.T) {
	data := []any{
		map[string]any{"_id": "a", "score": float64(75)},
		map[string]any{"_id": "b", "score": float64(100)},
		map[string]any{"_id": "c", "score": float64(50)},
	}
	got := Find(data, map[string]any{}, []SortKey{{Field: "score"}}, nil, 0, 0)
	wantOrder := []float64{50, 75, 100}
	for i, w := range wantOrder {
		if got[i].(map[string]any)["score"] != w {
			t.Fatalf("position %d: score %v, want %v", i, got[i].(map[string]any)["score"], w)
		}
	}
}

func TestFindSortDescendingAndTieBreak(t *testing.T) {
	got := Find(people(), map[string]any{},
		[]SortKey{{Field: "age", Desc: true}, {Field: "name"}}, nil, 0, 0)

	wantIDs := []string{"4", "1", "3", "2"}
	for i, want := range wantIDs {
		if id := got[i].(map[string]any)["_id"]; id != want {
			t.Fatalf("position %d: _id %v, want %v", i, id, want)
		}
	}
}

func TestFindSortIsStable(t *testing.T) {
	// Documents with equal keys keep their input order.
	got := Find(people(), map[string]any{}, []SortKey{{Field: "dept"}}, nil, 0, 0)
	wantIDs := []string{"1", "3", "4", "2"}
	for i, want := range wantIDs {
		if id := got[i].(map[string]any)["_id"]; id != want {
			t.Fatalf("position %d: _id %v, want %v (stability violated)", i, id, want)
		}
	}
}

func TestFindSortMissingFieldReadsAsNull(t *testing.T) {
	data := []any{
		map[string]any{"_id": "1", "rank": float64(2)},
		map[string]any{"_id": "2"},
		map[string]any{"_id": "3", "rank": float64(1)},
	}
	// Null and numbers compare equal, so the missing-rank document holds
	// its relative position among documents it cannot be ordered against.
	got := Find(data, map[string]any{}, []SortKey{{Field: "rank"}}, nil, 0, 0)
	if len(got) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(got))
	}
}

func TestFindPagination(t *testing.T) {
	order := []SortKey{{Field: "name"}}

	page := Find(people(), map[string]any{}, order, nil, 2, 1)
	if len(page) != 2 {
		t.Fatalf("limit 2 skip 1: got %d documents", len(page))
	}
	if page[0].(map[string]any)["name"] != "Bob" || page[1].(map[string]any)["name"] != "Cyd" {
		t.Fatalf("unexpected page contents: %#v", page)
	}

	if got := Find(people(), map[string]any{}, order, nil, 0, 0); len(got) != 4 {
		t.Fatal("limit 0 means unbounded")
	}
	if got := Find(people(), map[string]any{}, order, nil, 10, 4); len(got) != 0 {
		t.Fatal("skip at or past the result size yields an empty sequence")
	}
	if got := Find(people(), map[string]any{}, order, nil, 100, 0); len(got) != 4 {
		t.Fatal("limit past the result size returns everything")
	}
}

func TestFindDoesNotMutateInput(t *testing.T) {
	data := people()
	got := Find(data, map[string]any{"dept": "eng"}, nil, nil, 0, 0)
	got[0].(map[string]any)["name"] = "tampered"

	if data[0].(map[string]any)["name"] != "Ada" {
		t.Fatal("mutating a result leaked into the source collection")
	}
}

func TestFindFilterIsIdempotent(t *testing.T) {
	filter := map[string]any{"dept": "eng", "age": map[string]any{"$gte": float64(30)}}

	once := Find(people(), filter, nil, nil, 0, 0)
	twice := Find(once, filter, nil, nil, 0, 0)

	if len(once) != len(twice) {
		t.Fatalf("filtering a filtered result changed its size: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if !document.Equal(once[i], twice[i]) {
			t.Fatalf("position %d differs after refiltering: %#v vs %#v", i, once[i], twice[i])
		}
	}
}

func TestCountMatches(t *testing.T) {
	if got := Count(people(), map[string]any{"age": float64(36)}); got != 2 {
		t.Fatalf("count = %d, want 2", got)
	}
	if got := Count(people(), map[string]any{}); got != 4 {
		t.Fatalf("empty filter counts everything, got %d", got)
	}
	if got := Count(people(), map[string]any{"dept": "hr"}); got != 0 {
		t.Fatalf("no matches expected, got %d", got)
	}
}

func TestUpdateMergesMatchedOnly(t *testing.T) {
	got := Update(people(), map[string]any{"dept": "eng"}, map[string]any{"dept": "platform", "level": float64(2)})
	if len(got) != 4 {
		t.Fatalf("update returns the whole collection, got %d documents", len(got))
	}
	for _, raw := range got {
		d := raw.(map[string]any)
		switch d["_id"] {
		case "2":
			if d["dept"] != "ops" {
				t.Fatal("unmatched document was modified")
			}
			if _, has := d["level"]; has {
				t.Fatal("patch leaked into an unmatched document")
			}
		default:
			if d["dept"] != "platform" || d["level"] != float64(2) {
				t.Fatalf("matched document not patched: %#v", d)
			}
		}
	}
}

func TestUpdateCannotChangeID(t *testing.T) {
	data := []any{map[string]any{"_id": "1", "v": float64(1)}}
	got := Update(data, map[string]any{}, map[string]any{"_id": "hijacked", "v": float64(2)})

	d := got[0].(map[string]any)
	if d["_id"] != "1" {
		t.Fatalf("_id changed to %v, identity must survive updates", d["_id"])
	}
	if d["v"] != float64(2) {
		t.Fatal("the rest of the patch must still apply")
	}
}

func TestUpdateDoesNotMutateInput(t *testing.T) {
	data := people()
	Update(data, map[string]any{}, map[string]any{"touched": true})
	if _, has := data[0].(map[string]any)["touched"]; has {
		t.Fatal("update leaked into the source collection")
	}
}

func TestDeleteRemovesMatchedPreservingOrder(t *testing.T) {
	got := Delete(people(), map[string]any{"age": float64(36)})
	if len(got) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(got))
	}
	if got[0].(map[string]any)["_id"] != "2" || got[1].(map[string]any)["_id"] != "4" {
		t.Fatalf("survivor order changed: %#v", got)
	}

	if got := Delete(people(), map[string]any{}); len(got) != 0 {
		t.Fatal("an empty filter deletes everything")
	}
}

func TestMergePatchSkipsID(t *testing.T) {
	obj := map[string]any{"_id": "keep", "a": float64(1)}
	MergePatch(obj, map[string]any{"_id": "drop", "a": float64(2), "b": "new"})
	if obj["_id"] != "keep" || obj["a"] != float64(2) || obj["b"] != "new" {
		t.Fatalf("unexpected merge result: %#v", obj)
	}
}
