// Package document builds index, update and bulk payloads.
package document

import (
	"fmt"
	"strconv"
)

// IDKey is the body key that names a bulk item's document ID.
const IDKey = "id"

// UpdateBody wraps a partial document for a merge update.
func UpdateBody(data map[string]any) map[string]any {
	if data == nil {
		data = map[string]any{}
	}
	return map[string]any{"doc": data}
}

// Action is the bulk action header target.
type Action struct {
	Index string `json:"_index"`
	ID    string `json:"_id,omitempty"`
}

// BulkEntry is one header/body pair of a bulk request.
type BulkEntry struct {
	Action Action
	Source map[string]any
}

// Header returns the action line {"index": {"_index", "_id"?}}.
func (e BulkEntry) Header() map[string]any {
	return map[string]any{"index": e.Action}
}

// NewBulk pairs each document with an index action. The document body is
// sent as given, including its id key.
func NewBulk(index string, docs []map[string]any) []BulkEntry {
	entries := make([]BulkEntry, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			doc = map[string]any{}
		}
		entries = append(entries, BulkEntry{
			Action: Action{Index: index, ID: ID(doc)},
			Source: doc,
		})
	}
	return entries
}

// ID returns the document's id key as a string, or "" when absent or empty.
func ID(doc map[string]any) string {
	switch v := doc[IDKey].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		if v == 0 {
			return ""
		}
		return strconv.Itoa(v)
	case int64:
		if v == 0 {
			return ""
		}
		return strconv.FormatInt(v, 10)
	case bool:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
