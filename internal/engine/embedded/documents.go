package embedded

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/blevesearch/bleve/v2"

	"github.com/kailas-cloud/esmodel/internal/engine"
)

const (
	resultCreated  = "created"
	resultUpdated  = "updated"
	resultDeleted  = "deleted"
	resultNotFound = "not_found"
)

// Index stores body under id, creating the index on first write.
func (e *Engine) Index(ctx context.Context, index, id string, body any) (*engine.WriteResponse, error) {
	if err := e.check(ctx, engine.OpIndex); err != nil {
		return nil, err
	}
	doc, raw, err := normalizeSource(body)
	if err != nil {
		return nil, badRequest(engine.OpIndex, typeMapperParsing, err.Error())
	}
	if id == "" {
		id = e.newID()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	ix, err := e.ensureIndex(index)
	if err != nil {
		return nil, &engine.Error{Op: engine.OpIndex, Err: err}
	}
	return ix.put(engine.OpIndex, index, id, doc, raw)
}

// Update merges body's "doc" object into the stored document.
func (e *Engine) Update(ctx context.Context, index, id string, body any) (*engine.WriteResponse, error) {
	if err := e.check(ctx, engine.OpUpdate); err != nil {
		return nil, err
	}
	var req struct {
		Doc map[string]any `json:"doc"`
	}
	if err := roundTrip(body, &req); err != nil {
		return nil, badRequest(engine.OpUpdate, typeParsing, err.Error())
	}
	if req.Doc == nil {
		return nil, badRequest(engine.OpUpdate, typeIllegalArgument, "update requires a doc object")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	ix, ok := e.indexes[index]
	if !ok {
		return nil, indexNotFound(engine.OpUpdate, index)
	}
	stored, err := ix.source(id)
	if err != nil {
		return nil, &engine.Error{Op: engine.OpUpdate, Err: err}
	}
	if stored == nil {
		return nil, &engine.Error{
			Op:     engine.OpUpdate,
			Status: http.StatusNotFound,
			Type:   typeDocumentMissing,
			Reason: fmt.Sprintf("[%s]: document missing", id),
		}
	}
	var current map[string]any
	if err := json.Unmarshal(stored, &current); err != nil {
		return nil, &engine.Error{Op: engine.OpUpdate, Err: fmt.Errorf("decode stored source: %w", err)}
	}
	merged := merge(current, req.Doc)
	doc, raw, err := normalizeSource(merged)
	if err != nil {
		return nil, badRequest(engine.OpUpdate, typeMapperParsing, err.Error())
	}
	return ix.put(engine.OpUpdate, index, id, doc, raw)
}

// Get returns the stored source of a document.
func (e *Engine) Get(ctx context.Context, index, id string) (*engine.GetResponse, error) {
	if err := e.check(ctx, engine.OpGet); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	ix, ok := e.indexes[index]
	if !ok {
		return nil, indexNotFound(engine.OpGet, index)
	}
	src, err := ix.source(id)
	if err != nil {
		return nil, &engine.Error{Op: engine.OpGet, Err: err}
	}
	if src == nil {
		return nil, &engine.Error{Op: engine.OpGet, Status: http.StatusNotFound, Reason: "document not found"}
	}
	return &engine.GetResponse{Index: index, ID: id, Found: true, Source: src}, nil
}

// Delete removes a document. A missing document is a 404.
func (e *Engine) Delete(ctx context.Context, index, id string) (*engine.WriteResponse, error) {
	if err := e.check(ctx, engine.OpDelete); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ix, ok := e.indexes[index]
	if !ok {
		return nil, indexNotFound(engine.OpDelete, index)
	}
	src, err := ix.source(id)
	if err != nil {
		return nil, &engine.Error{Op: engine.OpDelete, Err: err}
	}
	if src == nil {
		return nil, &engine.Error{Op: engine.OpDelete, Status: http.StatusNotFound, Reason: "document " + resultNotFound}
	}

	b := ix.idx.NewBatch()
	b.Delete(id)
	b.DeleteInternal([]byte(sourcePrefix + id))
	if err := ix.idx.Batch(b); err != nil {
		return nil, &engine.Error{Op: engine.OpDelete, Err: err}
	}
	ix.versions[id]++
	return &engine.WriteResponse{Index: index, ID: id, Version: ix.versions[id], Result: resultDeleted}, nil
}

// Bulk indexes every item, one bleve batch per target index. Items that
// cannot be parsed fail individually.
func (e *Engine) Bulk(ctx context.Context, items []engine.BulkItem) (*engine.BulkResponse, error) {
	if err := e.check(ctx, engine.OpBulk); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	res := &engine.BulkResponse{Items: make([]engine.BulkItemResult, len(items))}
	batches := make(map[string]*bleve.Batch)
	// ids written earlier in this request count as existing
	seen := make(map[string]map[string]bool)
	for i, it := range items {
		id := it.ID
		if id == "" {
			id = e.newID()
		}
		item := engine.BulkItemResult{Index: it.Index, ID: id}

		doc, raw, err := normalizeSource(it.Source)
		if err != nil {
			item.Status = http.StatusBadRequest
			item.Error = &engine.ErrorCause{Type: typeMapperParsing, Reason: err.Error()}
			res.Items[i], res.Errors = item, true
			continue
		}
		ix, err := e.ensureIndex(it.Index)
		if err != nil {
			item.Status = http.StatusBadRequest
			item.Error = &engine.ErrorCause{Type: typeIllegalArgument, Reason: err.Error()}
			res.Items[i], res.Errors = item, true
			continue
		}
		b, ok := batches[it.Index]
		if !ok {
			b = ix.idx.NewBatch()
			batches[it.Index] = b
			seen[it.Index] = make(map[string]bool)
		}
		existing, err := ix.source(id)
		if err != nil {
			return nil, &engine.Error{Op: engine.OpBulk, Err: err}
		}
		if err := b.Index(id, doc); err != nil {
			item.Status = http.StatusBadRequest
			item.Error = &engine.ErrorCause{Type: typeMapperParsing, Reason: err.Error()}
			res.Items[i], res.Errors = item, true
			continue
		}
		b.SetInternal([]byte(sourcePrefix+id), raw)

		item.Status, item.Result = http.StatusCreated, resultCreated
		if existing != nil || seen[it.Index][id] {
			item.Status, item.Result = http.StatusOK, resultUpdated
		}
		seen[it.Index][id] = true
		ix.versions[id]++
		res.Items[i] = item
	}

	for name, b := range batches {
		if err := e.indexes[name].idx.Batch(b); err != nil {
			return nil, &engine.Error{Op: engine.OpBulk, Err: fmt.Errorf("index %s: %w", name, err)}
		}
	}
	return res, nil
}

// put indexes doc and stores raw as its source. Callers hold e.mu for writing.
func (ix *memIndex) put(op, index, id string, doc map[string]any, raw []byte) (*engine.WriteResponse, error) {
	existing, err := ix.source(id)
	if err != nil {
		return nil, &engine.Error{Op: op, Err: err}
	}
	b := ix.idx.NewBatch()
	if err := b.Index(id, doc); err != nil {
		return nil, badRequest(op, typeMapperParsing, err.Error())
	}
	b.SetInternal([]byte(sourcePrefix+id), raw)
	if err := ix.idx.Batch(b); err != nil {
		return nil, &engine.Error{Op: op, Err: err}
	}

	ix.versions[id]++
	result := resultCreated
	if existing != nil {
		result = resultUpdated
	}
	return &engine.WriteResponse{Index: index, ID: id, Version: ix.versions[id], Result: result}, nil
}

// normalizeSource returns body as a JSON-shaped map plus its encoding.
func normalizeSource(body any) (map[string]any, []byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
		raw = []byte("{}")
	}
	return doc, raw, nil
}

// merge applies patch onto base recursively; nested objects merge, other values replace.
func merge(base, patch map[string]any) map[string]any {
	if base == nil {
		base = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		pv, pok := v.(map[string]any)
		bv, bok := base[k].(map[string]any)
		if pok && bok {
			base[k] = merge(bv, pv)
			continue
		}
		base[k] = v
	}
	return base
}
