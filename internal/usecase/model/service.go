// Package model implements model operations: validate locally, build the
// request, make one engine call, wrap the failure.
package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/esmodel/internal/domain"
	"github.com/kailas-cloud/esmodel/internal/domain/document"
	"github.com/kailas-cloud/esmodel/internal/domain/mapping"
	"github.com/kailas-cloud/esmodel/internal/domain/query"
	"github.com/kailas-cloud/esmodel/internal/domain/schema"
	"github.com/kailas-cloud/esmodel/internal/engine"
)

// MappingRequest configures CreateMapping. Zero fields fall back to the model.
type MappingRequest struct {
	Properties schema.Properties
	Settings   map[string]any
	Index      string
}

// BulkReport summarizes a bulk load.
type BulkReport struct {
	Index    string
	Total    int
	Failures []domain.BulkFailure
}

// Service runs operations for one model against an engine.
type Service struct {
	engine     Engine
	schema     schema.Schema
	newID      func() string
	strictBulk bool
}

// New creates a model service.
func New(eng Engine, s schema.Schema) *Service {
	return &Service{engine: eng, schema: s, newID: uuid.NewString}
}

// WithStrictBulk makes per-item bulk failures return a *domain.BulkError.
func (s *Service) WithStrictBulk(strict bool) *Service {
	s.strictBulk = strict
	return s
}

// Schema returns the model schema.
func (s *Service) Schema() schema.Schema { return s.schema }

// Index returns the model index name.
func (s *Service) Index() string { return s.schema.Index() }

func (s *Service) target(index string) string {
	if index != "" {
		return index
	}
	return s.schema.Index()
}

// CreateMapping validates settings and property types, then creates the index.
func (s *Service) CreateMapping(ctx context.Context, req MappingRequest) error {
	props := req.Properties
	if len(props) == 0 {
		props = s.schema.Properties()
	}
	body, err := mapping.Build(props, req.Settings)
	if err != nil {
		return err
	}
	index := s.target(req.Index)
	if err := s.engine.CreateIndex(ctx, index, body); err != nil {
		return wrap(domain.OpCreateMapping, index, err)
	}
	return nil
}

// IndexExists reports whether index (default: the model index) exists.
func (s *Service) IndexExists(ctx context.Context, index string) (bool, error) {
	index = s.target(index)
	ok, err := s.engine.IndexExists(ctx, index)
	if err != nil {
		return false, wrap(domain.OpIndexExists, index, err)
	}
	return ok, nil
}

// DeleteIndex drops index (default: the model index).
func (s *Service) DeleteIndex(ctx context.Context, index string) error {
	index = s.target(index)
	if err := s.engine.DeleteIndex(ctx, index); err != nil {
		return wrap(domain.OpDeleteIndex, index, err)
	}
	return nil
}

// IndexDocument stores data under id and returns the ID used. An empty id
// is replaced by a generated UUID.
func (s *Service) IndexDocument(ctx context.Context, id string, data map[string]any) (string, error) {
	if id == "" {
		id = s.newID()
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, err := s.engine.Index(ctx, s.Index(), id, data); err != nil {
		return "", wrap(domain.OpIndexDocument, id, err)
	}
	return id, nil
}

// UpdateDocument merges data into the stored document.
func (s *Service) UpdateDocument(ctx context.Context, id string, data map[string]any) error {
	if err := requireID(id); err != nil {
		return err
	}
	if _, err := s.engine.Update(ctx, s.Index(), id, document.UpdateBody(data)); err != nil {
		return wrap(domain.OpUpdateDocument, id, err)
	}
	return nil
}

// GetDocument returns the stored source of a document.
func (s *Service) GetDocument(ctx context.Context, id string) (map[string]any, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	res, err := s.engine.Get(ctx, s.Index(), id)
	if err != nil {
		return nil, wrap(domain.OpGetDocument, id, err)
	}
	src := map[string]any{}
	if len(res.Source) > 0 {
		if err := json.Unmarshal(res.Source, &src); err != nil {
			return nil, wrap(domain.OpGetDocument, id, fmt.Errorf("decode source: %w", err))
		}
	}
	return src, nil
}

// DeleteDocument removes a document. It reports true on success.
func (s *Service) DeleteDocument(ctx context.Context, id string) (bool, error) {
	if err := requireID(id); err != nil {
		return false, err
	}
	if _, err := s.engine.Delete(ctx, s.Index(), id); err != nil {
		return false, wrap(domain.OpDeleteDocument, id, err)
	}
	return true, nil
}

// LoadBulk indexes data in one bulk request against index (default: the model index).
// An empty batch sends nothing.
func (s *Service) LoadBulk(ctx context.Context, data []map[string]any, index string) (*BulkReport, error) {
	index = s.target(index)
	report := &BulkReport{Index: index, Total: len(data)}
	if len(data) == 0 {
		return report, nil
	}

	entries := document.NewBulk(index, data)
	items := make([]engine.BulkItem, len(entries))
	for i, e := range entries {
		items[i] = engine.BulkItem{Index: e.Action.Index, ID: e.Action.ID, Source: e.Source}
	}
	res, err := s.engine.Bulk(ctx, items)
	if err != nil {
		return nil, wrap(domain.OpBulk, index, err)
	}

	for _, pos := range res.Failed() {
		it := res.Items[pos]
		f := domain.BulkFailure{Position: pos, ID: it.ID, Status: it.Status}
		if it.Error != nil {
			f.Reason = it.Error.Type + ": " + it.Error.Reason
		}
		report.Failures = append(report.Failures, f)
	}
	if s.strictBulk && len(report.Failures) > 0 {
		return report, &domain.BulkError{Index: index, Total: report.Total, Failures: report.Failures}
	}
	return report, nil
}

// Search runs a query fragment against the model index. No hits is an
// empty slice.
func (s *Service) Search(ctx context.Context, f query.Fragment) ([]engine.Hit, error) {
	res, err := s.engine.Search(ctx, s.Index(), f.Body())
	if err != nil {
		return nil, wrap(domain.OpSearch, s.Index(), err)
	}
	if res.Hits == nil {
		return []engine.Hit{}, nil
	}
	return res.Hits, nil
}

func requireID(id string) error {
	if id == "" {
		return fmt.Errorf("document id is required: %w", domain.ErrValidation)
	}
	return nil
}

// wrap turns an adapter failure into a *domain.EngineError.
func wrap(op, target string, err error) error {
	ee := &domain.EngineError{Op: op, Target: target, Message: err.Error(), Err: err}
	var engErr *engine.Error
	if errors.As(err, &engErr) {
		ee.Status = engErr.Status
		ee.Type = engErr.Type
		ee.Message = engErr.Message()
	}
	return ee
}
