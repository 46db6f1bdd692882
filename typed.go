package esmodel

import (
	"context"
	"encoding/json"
	"fmt"
)

// TypedModel wraps a Model with struct-based documents.
// T is encoded through encoding/json; its json names are stored under
// their snake_case form, the same keys the mapping declares.
type TypedModel[T any] struct {
	model *Model
	keys  fieldKeys // declared name -> index name
	back  fieldKeys // index name -> declared name
}

// NewTypedModel resolves def into a typed model bound to client.
func NewTypedModel[T any](client *Client, def Definition) (*TypedModel[T], error) {
	m, err := client.Model(def)
	if err != nil {
		return nil, err
	}
	keys := newFieldKeys(def.Fields)
	return &TypedModel[T]{model: m, keys: keys, back: keys.reverse()}, nil
}

// Model returns the untyped model.
func (t *TypedModel[T]) Model() *Model { return t.model }

// Put stores item under id and returns the ID used.
func (t *TypedModel[T]) Put(ctx context.Context, id string, item T) (string, error) {
	data, err := toMap(item)
	if err != nil {
		return "", err
	}
	return t.model.IndexDocumentID(ctx, id, t.keys.apply(data))
}

// Get loads the document stored under id.
func (t *TypedModel[T]) Get(ctx context.Context, id string) (*T, error) {
	data, err := t.model.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	var out T
	if err := remarshal(t.back.apply(data), &out); err != nil {
		return nil, fmt.Errorf("get %q: %w", id, err)
	}
	return &out, nil
}

// Patch merges partial into the stored document. Keys may use either the
// declared or the snake_case field names.
func (t *TypedModel[T]) Patch(ctx context.Context, id string, partial map[string]any) error {
	_, err := t.model.UpdateDocument(ctx, id, t.keys.apply(partial))
	return err
}

// Delete removes the document stored under id.
func (t *TypedModel[T]) Delete(ctx context.Context, id string) error {
	_, err := t.model.DeleteDocument(ctx, id)
	return err
}

// Load indexes items in one bulk request. An "id" JSON field becomes the document ID.
func (t *TypedModel[T]) Load(ctx context.Context, items []T) error {
	docs := make([]map[string]any, 0, len(items))
	for _, it := range items {
		data, err := toMap(it)
		if err != nil {
			return err
		}
		docs = append(docs, t.keys.apply(data))
	}
	_, err := t.model.LoadDocumentsUsingBulk(ctx, docs)
	return err
}

// Query starts a bool query over the model.
func (t *TypedModel[T]) Query() *QueryBuilder[T] {
	return &QueryBuilder[T]{model: t.model, back: t.back}
}

// TypedHit is a decoded search hit.
type TypedHit[T any] struct {
	ID    string
	Score *float64
	Item  T
}

func decodeHits[T any](hits []Hit, back fieldKeys) ([]TypedHit[T], error) {
	out := make([]TypedHit[T], 0, len(hits))
	for _, h := range hits {
		src, err := h.Fields()
		if err != nil {
			return nil, err
		}
		var item T
		if err := remarshal(back.apply(src), &item); err != nil {
			return nil, fmt.Errorf("decode hit %q: %w", h.ID, err)
		}
		out = append(out, TypedHit[T]{ID: h.ID, Score: h.Score, Item: item})
	}
	return out, nil
}

func toMap(v any) (map[string]any, error) {
	var out map[string]any
	if err := remarshal(v, &out); err != nil {
		return nil, fmt.Errorf("encode document: %v: %w", err, ErrValidation)
	}
	if out == nil {
		return nil, fmt.Errorf("encode document: not an object: %w", ErrValidation)
	}
	return out, nil
}

func remarshal(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
