package esmodel

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/esmodel/internal/domain"
	"github.com/kailas-cloud/esmodel/internal/domain/query"
	modeluc "github.com/kailas-cloud/esmodel/internal/usecase/model"
)

// Model is a schema-bound handle on one index. Every method issues at most
// one engine call.
type Model struct {
	svc *modeluc.Service
	obs *observer
}

// Model resolves a definition into a model bound to this client.
func (c *Client) Model(def Definition) (*Model, error) {
	s, err := def.toSchema()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	svc := modeluc.New(c.engine, s).WithStrictBulk(c.strictBulk)
	return &Model{svc: svc, obs: c.obs}, nil
}

// Name returns the model name.
func (m *Model) Name() string { return m.svc.Schema().Name() }

// Index returns the index name derived from the schema.
func (m *Model) Index() string { return m.svc.Index() }

// Properties returns a copy of the mapping-ready property table.
func (m *Model) Properties() map[string]any {
	props := m.svc.Schema().Properties()
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// CreateMapping creates the index from the schema, or from req when given.
// Settings and property types are validated before the request is sent.
func (m *Model) CreateMapping(ctx context.Context, req *MappingRequest) (_ *Model, err error) {
	index := m.Index()
	defer func(start time.Time) { m.obs.observe(domain.OpCreateMapping, index, start, err) }(time.Now())

	var r modeluc.MappingRequest
	if req != nil {
		props, perr := toProperties(req.Properties)
		if perr != nil {
			return nil, perr
		}
		r = modeluc.MappingRequest{Properties: props, Settings: req.Settings, Index: req.IndexName}
		if req.IndexName != "" {
			index = req.IndexName
		}
	}
	if err = m.svc.CreateMapping(ctx, r); err != nil {
		return nil, err
	}
	return m, nil
}

// IndexExists reports whether the model index, or the given one, exists.
func (m *Model) IndexExists(ctx context.Context, index ...string) (_ bool, err error) {
	name := m.pick(index)
	defer func(start time.Time) { m.obs.observe(domain.OpIndexExists, name, start, err) }(time.Now())
	return m.svc.IndexExists(ctx, name)
}

// DeleteIndex drops the model index, or the given one.
func (m *Model) DeleteIndex(ctx context.Context, index ...string) (err error) {
	name := m.pick(index)
	defer func(start time.Time) { m.obs.observe(domain.OpDeleteIndex, name, start, err) }(time.Now())
	return m.svc.DeleteIndex(ctx, name)
}

// IndexDocument stores data under id. An empty id is replaced by a generated UUID.
func (m *Model) IndexDocument(ctx context.Context, id string, data map[string]any) (_ *Model, err error) {
	defer m.observe(domain.OpIndexDocument, time.Now(), &err)
	if _, err = m.svc.IndexDocument(ctx, id, data); err != nil {
		return nil, err
	}
	return m, nil
}

// IndexDocumentID is IndexDocument that also returns the ID used.
func (m *Model) IndexDocumentID(ctx context.Context, id string, data map[string]any) (_ string, err error) {
	defer m.observe(domain.OpIndexDocument, time.Now(), &err)
	return m.svc.IndexDocument(ctx, id, data)
}

// UpdateDocument merges data into the stored document.
func (m *Model) UpdateDocument(ctx context.Context, id string, data map[string]any) (_ *Model, err error) {
	defer m.observe(domain.OpUpdateDocument, time.Now(), &err)
	if err = m.svc.UpdateDocument(ctx, id, data); err != nil {
		return nil, err
	}
	return m, nil
}

// GetDocument returns the stored source. A missing document matches ErrDocumentNotFound.
func (m *Model) GetDocument(ctx context.Context, id string) (_ map[string]any, err error) {
	defer m.observe(domain.OpGetDocument, time.Now(), &err)
	return m.svc.GetDocument(ctx, id)
}

// DeleteDocument removes a document and reports true on success.
func (m *Model) DeleteDocument(ctx context.Context, id string) (_ bool, err error) {
	defer m.observe(domain.OpDeleteDocument, time.Now(), &err)
	return m.svc.DeleteDocument(ctx, id)
}

// LoadDocumentsUsingBulk indexes data in one bulk request. A non-empty "id"
// key becomes the document ID. Rejected items are logged and counted; with
// WithStrictBulk they fail the call with a *BulkError.
func (m *Model) LoadDocumentsUsingBulk(ctx context.Context, data []map[string]any, index ...string) (_ *Model, err error) {
	name := m.pick(index)
	defer func(start time.Time) { m.obs.observe(domain.OpBulk, name, start, err) }(time.Now())

	report, err := m.svc.LoadBulk(ctx, data, name)
	if report != nil && err == nil {
		m.obs.bulkRejected(report.Index, report.Failures)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// MatchPhrase searches with {match_phrase: fields}.
func (m *Model) MatchPhrase(ctx context.Context, fields map[string]any) ([]Hit, error) {
	return m.search(ctx, query.MatchPhrase(fields))
}

// Match searches with {match: fields}.
func (m *Model) Match(ctx context.Context, fields map[string]any) ([]Hit, error) {
	return m.search(ctx, query.Match(fields))
}

// Fuzzy searches with {fuzzy: fields}.
func (m *Model) Fuzzy(ctx context.Context, fields map[string]any) ([]Hit, error) {
	return m.search(ctx, query.Fuzzy(fields))
}

// Prefix searches with {prefix: fields}.
func (m *Model) Prefix(ctx context.Context, fields map[string]any) ([]Hit, error) {
	return m.search(ctx, query.Prefix(fields))
}

// Range searches with {range: fields}.
func (m *Model) Range(ctx context.Context, fields map[string]any) ([]Hit, error) {
	return m.search(ctx, query.Range(fields))
}

// Wildcard searches with {wildcard: fields}.
func (m *Model) Wildcard(ctx context.Context, fields map[string]any) ([]Hit, error) {
	return m.search(ctx, query.Wildcard(fields))
}

// Terms searches with {terms: fields}.
func (m *Model) Terms(ctx context.Context, fields map[string]any) ([]Hit, error) {
	return m.search(ctx, query.Terms(fields))
}

// Term searches with {term: fields}.
func (m *Model) Term(ctx context.Context, fields map[string]any) ([]Hit, error) {
	return m.search(ctx, query.Term(fields))
}

// MultiMatch searches q across fields. typ is empty or one of the MultiMatchType values.
func (m *Model) MultiMatch(ctx context.Context, q string, fields []string, typ MultiMatchType) (_ []Hit, err error) {
	f, err := query.MultiMatch(q, fields, typ)
	if err != nil {
		m.observe(domain.OpSearch, time.Now(), &err)
		return nil, err
	}
	return m.search(ctx, f)
}

// ExistsField finds documents with a value for field.
func (m *Model) ExistsField(ctx context.Context, field string) ([]Hit, error) {
	return m.search(ctx, query.Exists(field))
}

// Nested runs a match query inside the nested objects at path.
func (m *Model) Nested(ctx context.Context, path string, match map[string]any) ([]Hit, error) {
	return m.search(ctx, query.Nested(path, match))
}

// ScriptScore rescores match hits with an inline script. The script is not sandboxed.
func (m *Model) ScriptScore(ctx context.Context, match map[string]any, source string) ([]Hit, error) {
	return m.search(ctx, query.ScriptScore(match, source))
}

// CombinationsAndConditions combines match clauses (must) with term clauses
// (filter). Each element must hold a single "match" or "term" key respectively.
func (m *Model) CombinationsAndConditions(ctx context.Context, matchFields, filterFields []map[string]any) (_ []Hit, err error) {
	f, err := query.Bool(matchFields, filterFields)
	if err != nil {
		m.observe(domain.OpSearch, time.Now(), &err)
		return nil, err
	}
	return m.search(ctx, f)
}

// QuerySearch sends body unchanged.
func (m *Model) QuerySearch(ctx context.Context, body map[string]any) ([]Hit, error) {
	return m.search(ctx, query.Raw(body))
}

func (m *Model) search(ctx context.Context, f query.Fragment) (_ []Hit, err error) {
	defer m.observe(domain.OpSearch, time.Now(), &err)
	hits, err := m.svc.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	return toHits(hits), nil
}

func (m *Model) observe(op string, start time.Time, err *error) {
	m.obs.observe(op, m.Index(), start, *err)
}

func (m *Model) pick(index []string) string {
	if len(index) > 0 && index[0] != "" {
		return index[0]
	}
	return m.Index()
}
