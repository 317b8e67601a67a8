// Package codec is the textual boundary in front of the engine. Every
// operation takes and returns JSON text; inputs that fail to parse are
// replaced with a neutral value of the expected shape (array inputs become
// an empty sequence, object inputs an empty mapping) instead of propagating
// an error, and negative limit/skip values are clamped to zero before they
// reach the engine.
package codec

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"query-tools/internal/document"
	"query-tools/internal/engine"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Validate checks a document against a schema, both given as JSON text.
// Unparseable or non-object input validates as true: validation blocks
// known violations, it does not halt on ambiguous input.
func Validate(doc, schema string) bool {
	return engine.Validate(document.ParseValue([]byte(doc)), document.ParseValue([]byte(schema)))
}

// Find runs the read pipeline over a serialized collection and returns the
// serialized result sequence. The sort spec's key order carries tie-break
// precedence, so it is decoded with an order-preserving scan rather than
// into a Go map.
func Find(data, filter, sortSpec, projection string, limit, skip int) string {
	if limit < 0 {
		limit = 0
	}
	if skip < 0 {
		skip = 0
	}
	results := engine.Find(
		document.ParseArray([]byte(data)),
		document.ParseObject([]byte(filter)),
		ParseSortSpec([]byte(sortSpec)),
		document.ParseObject([]byte(projection)),
		limit,
		skip,
	)
	return marshalCollection(results)
}

// Count returns the number of documents in the serialized collection that
// match the filter.
func Count(data, filter string) int {
	return engine.Count(document.ParseArray([]byte(data)), document.ParseObject([]byte(filter)))
}

// Update merges the patch into every matched document and returns the full
// serialized collection, modified and unmodified documents alike.
func Update(data, filter, patch string) string {
	results := engine.Update(
		document.ParseArray([]byte(data)),
		document.ParseObject([]byte(filter)),
		document.ParseObject([]byte(patch)),
	)
	return marshalCollection(results)
}

// Delete removes every matched document and returns the serialized
// remainder in original order.
func Delete(data, filter string) string {
	results := engine.Delete(document.ParseArray([]byte(data)), document.ParseObject([]byte(filter)))
	return marshalCollection(results)
}

// ParseSortSpec decodes `{"field": 1, "other": -1}` into ordered sort keys.
// Only -1 selects descending; any other direction value sorts ascending.
// Malformed input yields no sort keys, which disables the sort stage.
func ParseSortSpec(raw []byte) []engine.SortKey {
	iter := jsoniter.ParseBytes(json, raw)
	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil
	}
	var keys []engine.SortKey
	for field := iter.ReadObject(); field != ""; field = iter.ReadObject() {
		dir := iter.Read()
		desc := false
		if f, ok := document.ToFloat64(dir); ok && f == -1 {
			desc = true
		}
		keys = append(keys, engine.SortKey{Field: field, Desc: desc})
	}
	if iter.Error != nil && iter.Error != io.EOF {
		return nil
	}
	return keys
}

func marshalCollection(docs []any) string {
	out, err := json.Marshal(docs)
	if err != nil {
		return "[]"
	}
	return string(out)
}
