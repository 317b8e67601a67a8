package engine

// Project reshapes a document according to an inclusion-mode projection
// spec. Keys flagged with 1 or true are copied from the document when
// present; everything else is dropped. The `_id` field rides along
// implicitly when the source has one, unless the spec flags it with 0 or
// false. An empty spec is the identity, as is any non-object document.
func Project(doc any, projection map[string]any) any {
	obj, ok := doc.(map[string]any)
	if !ok || len(projection) == 0 {
		return doc
	}

	out := make(map[string]any, len(projection)+1)
	for key, flag := range projection {
		if !includeFlag(flag) {
			continue
		}
		if v, exists := obj[key]; exists {
			out[key] = v
		}
	}

	if _, already := out["_id"]; !already {
		if id, exists := obj["_id"]; exists && !excludeFlag(projection["_id"]) {
			out["_id"] = id
		}
	}
	return out
}

func includeFlag(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t == 1
	case int:
		return t == 1
	default:
		return false
	}
}

func excludeFlag(v any) bool {
	switch t := v.(type) {
	case bool:
		return !t
	case float64:
		return t == 0
	case int:
		return t == 0
	default:
		return false
	}
}
