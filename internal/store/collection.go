// Package store keeps named collections of documents in memory. A
// collection is an ordered multiset: scan order always equals insertion
// order, which is what keeps the engine's filter and stable-sort
// guarantees meaningful across calls.
package store

import (
	"fmt"
	"sync"

	"github.com/google/btree"
	"github.com/google/uuid"

	"query-tools/internal/document"
	"query-tools/internal/engine"
)

const btreeDegree = 32

// entry pairs a document with its insertion sequence number. The sequence
// is the B-Tree key, so ascending traversal replays insertion order.
type entry struct {
	seq uint64
	doc document.Doc
}

func entryLess(a, b entry) bool {
	return a.seq < b.seq
}

// Collection is a thread-safe ordered set of documents with an optional
// validation schema. Point removal and replacement go through the `_id`
// index; queries always run over a full ordered snapshot.
type Collection struct {
	mu      sync.RWMutex
	docs    *btree.BTreeG[entry]
	byID    map[string]uint64
	nextSeq uint64
	schema  map[string]any
}

func NewCollection() *Collection {
	return &Collection{
		docs: btree.NewG(btreeDegree, entryLess),
		byID: make(map[string]uint64),
	}
}

// Insert stores a deep copy of the document and returns its `_id`,
// generating a UUID when the document has none. A document carrying the
// `_id` of an existing document replaces it in place. When the collection
// has a schema attached, documents that fail validation are rejected.
func (c *Collection) Insert(doc document.Doc) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.schema != nil && !engine.Validate(doc, c.schema) {
		return "", fmt.Errorf("document rejected by collection schema")
	}

	stored := document.CloneDoc(doc)
	if _, has := stored["_id"]; !has {
		stored["_id"] = uuid.New().String()
	}
	id := idKey(stored)

	if oldSeq, exists := c.byID[id]; exists {
		c.docs.Delete(entry{seq: oldSeq})
	}
	c.nextSeq++
	c.docs.ReplaceOrInsert(entry{seq: c.nextSeq, doc: stored})
	c.byID[id] = c.nextSeq
	return id, nil
}

// InsertMany inserts documents in order, stopping at the first rejection.
func (c *Collection) InsertMany(docs []document.Doc) ([]string, error) {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id, err := c.Insert(doc)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Snapshot returns a deep copy of all documents in insertion order. The
// copy is the caller's to mutate; the collection is unaffected.
func (c *Collection) Snapshot() []any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]any, 0, c.docs.Len())
	c.docs.Ascend(func(e entry) bool {
		out = append(out, document.Clone(e.doc))
		return true
	})
	return out
}

// Find runs the read pipeline over the collection's current contents.
func (c *Collection) Find(filter map[string]any, order []engine.SortKey, projection map[string]any, limit, skip int) []any {
	return engine.Find(c.Snapshot(), filter, order, projection, limit, skip)
}

// Count returns how many documents match the filter.
func (c *Collection) Count(filter map[string]any) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	c.docs.Ascend(func(e entry) bool {
		if engine.Matches(e.doc, filter) {
			n++
		}
		return true
	})
	return n
}

// Update merges the patch into every matched document and reports how many
// were modified. `_id` is never overwritten.
func (c *Collection) Update(filter, patch map[string]any) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	modified := 0
	c.docs.Ascend(func(e entry) bool {
		if engine.Matches(e.doc, filter) {
			engine.MergePatch(e.doc, patch)
			modified++
		}
		return true
	})
	return modified
}

// Delete removes every matched document, preserving the order of the
// survivors, and reports how many were removed.
func (c *Collection) Delete(filter map[string]any) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var doomed []entry
	c.docs.Ascend(func(e entry) bool {
		if engine.Matches(e.doc, filter) {
			doomed = append(doomed, e)
		}
		return true
	})
	for _, e := range doomed {
		c.docs.Delete(e)
		delete(c.byID, idKey(e.doc))
	}
	return len(doomed)
}

// ReplaceAll swaps the collection's contents for the given documents,
// keeping their order. Non-object values are skipped. Used by persistence
// loads; the attached schema is deliberately not re-applied.
func (c *Collection) ReplaceAll(docs []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs.Clear(false)
	c.byID = make(map[string]uint64, len(docs))
	c.nextSeq = 0
	for _, raw := range docs {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		stored := document.CloneDoc(obj)
		c.nextSeq++
		c.docs.ReplaceOrInsert(entry{seq: c.nextSeq, doc: stored})
		c.byID[idKey(stored)] = c.nextSeq
	}
}

// SetSchema attaches a validation schema applied to subsequent inserts.
// A nil schema detaches validation.
func (c *Collection) SetSchema(schema map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if schema == nil {
		c.schema = nil
		return
	}
	c.schema, _ = document.Clone(schema).(map[string]any)
}

// Schema returns a copy of the attached schema, or nil.
func (c *Collection) Schema() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.schema == nil {
		return nil
	}
	out, _ := document.Clone(c.schema).(map[string]any)
	return out
}

// Len returns the number of stored documents.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.docs.Len()
}

// idKey renders a document's `_id` for the point index. Non-string ids are
// legal in documents, so the index key is the value's string form.
func idKey(doc document.Doc) string {
	return fmt.Sprintf("%v", doc["_id"])
}
