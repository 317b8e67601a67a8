package engine

import (
	"query-tools/internal/document"
)

// Validate checks a document against a schema and reports whether every
// applicable constraint holds.
//
// The check fails open: if either value is not object-shaped, the result is
// true. Validation exists to block known violations, not to halt the
// pipeline on ambiguous upstream input.
//
// A schema carries two optional members. `required` lists field names that
// must exist in the document (values are not inspected). `fields` maps a
// field name to a rule object with optional `type`, numeric `min`/`max`,
// and `enum`. Rules only apply to fields present in the document. Unknown
// type names pass; min/max apply only when the document value is itself
// numeric; enum membership uses structural equality. The first violation
// short-circuits to false.
func Validate(doc, schema any) bool {
	docObj, okDoc := doc.(map[string]any)
	schemaObj, okSchema := schema.(map[string]any)
	if !okDoc || !okSchema {
		return true
	}

	if required, ok := schemaObj["required"].([]any); ok {
		for _, entry := range required {
			name, ok := entry.(string)
			if !ok {
				continue
			}
			if _, exists := docObj[name]; !exists {
				return false
			}
		}
	}

	fields, ok := schemaObj["fields"].(map[string]any)
	if !ok {
		return true
	}
	for field, raw := range fields {
		rules, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		docVal, present := docObj[field]
		if !present {
			continue
		}

		if typeName, ok := rules["type"].(string); ok {
			if !typeMatches(typeName, docVal) {
				return false
			}
		}
		if minVal, ok := document.ToFloat64(rules["min"]); ok {
			if v, numeric := document.ToFloat64(docVal); numeric && v < minVal {
				return false
			}
		}
		if maxVal, ok := document.ToFloat64(rules["max"]); ok {
			if v, numeric := document.ToFloat64(docVal); numeric && v > maxVal {
				return false
			}
		}
		if allowed, ok := rules["enum"].([]any); ok {
			if !containsValue(allowed, docVal) {
				return false
			}
		}
	}
	return true
}

func typeMatches(name string, v any) bool {
	switch name {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		_, ok := document.ToFloat64(v)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	default:
		// Unknown type names are permissive.
		return true
	}
}

func containsValue(list []any, v any) bool {
	for _, entry := range list {
		if document.Equal(entry, v) {
			return true
		}
	}
	return false
}
