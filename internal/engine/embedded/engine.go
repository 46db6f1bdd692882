// Package embedded implements engine.Engine over in-process, memory-only bleve indexes.
//
// It mirrors the Elasticsearch status codes and error types the model layer
// relies on, so models can run without a cluster in development and tests.
package embedded

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/google/uuid"

	"github.com/kailas-cloud/esmodel/internal/engine"
)

// Compile-time check: Engine implements engine.Engine.
var _ engine.Engine = (*Engine)(nil)

// Engine error types, named as Elasticsearch names them.
const (
	typeIndexNotFound   = "index_not_found_exception"
	typeIndexExists     = "resource_already_exists_exception"
	typeDocumentMissing = "document_missing_exception"
	typeMapperParsing   = "mapper_parsing_exception"
	typeParsing         = "parsing_exception"
	typeIllegalArgument = "illegal_argument_exception"
)

const sourcePrefix = "src:"

type memIndex struct {
	idx      bleve.Index
	versions map[string]int64
}

// Engine holds a registry of named bleve indexes.
type Engine struct {
	mu      sync.RWMutex
	indexes map[string]*memIndex
	closed  bool
	newID   func() string
}

// New returns an empty engine.
func New() *Engine {
	return &Engine{
		indexes: make(map[string]*memIndex),
		newID:   uuid.NewString,
	}
}

// Ping fails only after Close.
func (e *Engine) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &engine.Error{Op: engine.OpPing, Err: err}
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return &engine.Error{Op: engine.OpPing, Err: engine.ErrClosed}
	}
	return nil
}

// Close closes every index. Later calls fail with engine.ErrClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	var firstErr error
	for name, ix := range e.indexes {
		if err := ix.idx.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close index %s: %w", name, err)
		}
	}
	e.indexes = nil
	return firstErr
}

// IndexExists reports whether the index is registered.
func (e *Engine) IndexExists(ctx context.Context, index string) (bool, error) {
	if err := e.check(ctx, engine.OpIndexExists); err != nil {
		return false, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.indexes[index]
	return ok, nil
}

// CreateIndex registers an index whose mapping is built from body's mappings.properties.
func (e *Engine) CreateIndex(ctx context.Context, index string, body any) error {
	if err := e.check(ctx, engine.OpCreateIndex); err != nil {
		return err
	}
	var cb createBody
	if err := roundTrip(body, &cb); err != nil {
		return badRequest(engine.OpCreateIndex, typeMapperParsing, err.Error())
	}
	im, err := buildMapping(cb.Mappings.Properties)
	if err != nil {
		return badRequest(engine.OpCreateIndex, typeMapperParsing, err.Error())
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return &engine.Error{Op: engine.OpCreateIndex, Err: engine.ErrClosed}
	}
	if _, ok := e.indexes[index]; ok {
		return badRequest(engine.OpCreateIndex, typeIndexExists,
			fmt.Sprintf("index [%s] already exists", index))
	}
	idx, err := bleve.NewMemOnly(im)
	if err != nil {
		return badRequest(engine.OpCreateIndex, typeMapperParsing, err.Error())
	}
	e.indexes[index] = &memIndex{idx: idx, versions: make(map[string]int64)}
	return nil
}

// DeleteIndex drops an index and its documents.
func (e *Engine) DeleteIndex(ctx context.Context, index string) error {
	if err := e.check(ctx, engine.OpDeleteIndex); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ix, ok := e.indexes[index]
	if !ok {
		return indexNotFound(engine.OpDeleteIndex, index)
	}
	delete(e.indexes, index)
	if err := ix.idx.Close(); err != nil {
		return &engine.Error{Op: engine.OpDeleteIndex, Err: err}
	}
	return nil
}

// check rejects calls on a closed engine or a done context.
func (e *Engine) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return &engine.Error{Op: op, Err: err}
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return &engine.Error{Op: op, Err: engine.ErrClosed}
	}
	return nil
}

// ensureIndex returns the named index, creating it with a dynamic mapping
// when absent. Callers hold e.mu for writing.
func (e *Engine) ensureIndex(index string) (*memIndex, error) {
	if ix, ok := e.indexes[index]; ok {
		return ix, nil
	}
	im, err := buildMapping(nil)
	if err != nil {
		return nil, err
	}
	idx, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, err
	}
	ix := &memIndex{idx: idx, versions: make(map[string]int64)}
	e.indexes[index] = ix
	return ix, nil
}

func (ix *memIndex) source(id string) (json.RawMessage, error) {
	raw, err := ix.idx.GetInternal([]byte(sourcePrefix + id))
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// roundTrip normalizes v through JSON into out.
func roundTrip(v any, out any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func indexNotFound(op, index string) *engine.Error {
	return &engine.Error{
		Op:     op,
		Status: http.StatusNotFound,
		Type:   typeIndexNotFound,
		Reason: fmt.Sprintf("no such index [%s]", index),
	}
}

func badRequest(op, typ, reason string) *engine.Error {
	return &engine.Error{Op: op, Status: http.StatusBadRequest, Type: typ, Reason: reason}
}
