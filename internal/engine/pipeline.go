package engine

import (
	"sort"

	"query-tools/internal/document"
)

// SortKey is one criterion of a multi-key sort. Keys are applied in slice
// order: the first is primary, later keys break ties left to right.
type SortKey struct {
	Field string
	Desc  bool
}

// Find runs the read pipeline: filter, stable multi-key sort, skip/limit,
// projection. The input collection is never mutated; matched documents are
// deep-copied before any later stage touches them.
//
// limit and skip must be non-negative (the boundary clamps); limit 0 means
// unbounded, and skip beyond the result size yields an empty sequence.
func Find(data []any, filter map[string]any, order []SortKey, projection map[string]any, limit, skip int) []any {
	results := make([]any, 0)
	for _, doc := range data {
		if Matches(doc, filter) {
			results = append(results, document.Clone(doc))
		}
	}

	if len(order) > 0 {
		sort.SliceStable(results, func(i, j int) bool {
			for _, key := range order {
				cmp := Compare(fieldOf(results[i], key.Field), fieldOf(results[j], key.Field))
				if cmp != 0 {
					if key.Desc {
						return cmp > 0
					}
					return cmp < 0
				}
			}
			return false
		})
	}

	total := len(results)
	if skip >= total {
		return []any{}
	}
	end := total
	if limit > 0 && skip+limit < total {
		end = skip + limit
	}
	results = results[skip:end]

	projected := make([]any, 0, len(results))
	for _, doc := range results {
		projected = append(projected, Project(doc, projection))
	}
	return projected
}

// Count runs the filter stage only and returns the matched cardinality.
func Count(data []any, filter map[string]any) int {
	n := 0
	for _, doc := range data {
		if Matches(doc, filter) {
			n++
		}
	}
	return n
}

// Update merges the patch into every matched document and returns the
// entire collection, matched and unmatched alike. The `_id` key of the
// patch is never applied; a document's identity survives any update.
// Non-object matches pass through untouched.
func Update(data []any, filter, patch map[string]any) []any {
	out := make([]any, 0, len(data))
	for _, doc := range data {
		copied := document.Clone(doc)
		if obj, ok := copied.(map[string]any); ok && Matches(copied, filter) {
			MergePatch(obj, patch)
		}
		out = append(out, copied)
	}
	return out
}

// MergePatch applies a flat field merge onto an object document in place,
// skipping `_id`.
func MergePatch(obj map[string]any, patch map[string]any) {
	for k, v := range patch {
		if k == "_id" {
			continue
		}
		obj[k] = document.Clone(v)
	}
}

// Delete returns the collection with every matched document removed,
// preserving the relative order of survivors.
func Delete(data []any, filter map[string]any) []any {
	out := make([]any, 0, len(data))
	for _, doc := range data {
		if !Matches(doc, filter) {
			out = append(out, document.Clone(doc))
		}
	}
	return out
}

func fieldOf(doc any, field string) any {
	obj, _ := doc.(map[string]any)
	return obj[field]
}
