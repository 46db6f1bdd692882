package model

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/kailas-cloud/esmodel/internal/domain"
	"github.com/kailas-cloud/esmodel/internal/domain/query"
	"github.com/kailas-cloud/esmodel/internal/domain/schema"
	"github.com/kailas-cloud/esmodel/internal/engine"
)

// --- Mocks ---

type call struct {
	op    string
	index string
	id    string
	body  any
	items []engine.BulkItem
}

type recordingEngine struct {
	calls      []call
	err        error
	exists     bool
	hits       []engine.Hit
	source     json.RawMessage
	bulkResult *engine.BulkResponse
}

func (m *recordingEngine) record(c call) error {
	m.calls = append(m.calls, c)
	return m.err
}

func (m *recordingEngine) IndexExists(_ context.Context, index string) (bool, error) {
	if err := m.record(call{op: engine.OpIndexExists, index: index}); err != nil {
		return false, err
	}
	return m.exists, nil
}

func (m *recordingEngine) CreateIndex(_ context.Context, index string, body any) error {
	return m.record(call{op: engine.OpCreateIndex, index: index, body: body})
}

func (m *recordingEngine) DeleteIndex(_ context.Context, index string) error {
	return m.record(call{op: engine.OpDeleteIndex, index: index})
}

func (m *recordingEngine) Search(_ context.Context, index string, body any) (*engine.SearchResponse, error) {
	if err := m.record(call{op: engine.OpSearch, index: index, body: body}); err != nil {
		return nil, err
	}
	return &engine.SearchResponse{Hits: m.hits}, nil
}

func (m *recordingEngine) Index(_ context.Context, index, id string, body any) (*engine.WriteResponse, error) {
	if err := m.record(call{op: engine.OpIndex, index: index, id: id, body: body}); err != nil {
		return nil, err
	}
	return &engine.WriteResponse{Index: index, ID: id, Result: "created"}, nil
}

func (m *recordingEngine) Update(_ context.Context, index, id string, body any) (*engine.WriteResponse, error) {
	if err := m.record(call{op: engine.OpUpdate, index: index, id: id, body: body}); err != nil {
		return nil, err
	}
	return &engine.WriteResponse{Index: index, ID: id, Result: "updated"}, nil
}

func (m *recordingEngine) Get(_ context.Context, index, id string) (*engine.GetResponse, error) {
	if err := m.record(call{op: engine.OpGet, index: index, id: id}); err != nil {
		return nil, err
	}
	return &engine.GetResponse{Index: index, ID: id, Found: true, Source: m.source}, nil
}

func (m *recordingEngine) Delete(_ context.Context, index, id string) (*engine.WriteResponse, error) {
	if err := m.record(call{op: engine.OpDelete, index: index, id: id}); err != nil {
		return nil, err
	}
	return &engine.WriteResponse{Index: index, ID: id, Result: "deleted"}, nil
}

func (m *recordingEngine) Bulk(_ context.Context, items []engine.BulkItem) (*engine.BulkResponse, error) {
	if err := m.record(call{op: engine.OpBulk, items: items}); err != nil {
		return nil, err
	}
	if m.bulkResult != nil {
		return m.bulkResult, nil
	}
	out := &engine.BulkResponse{Items: make([]engine.BulkItemResult, len(items))}
	for i, it := range items {
		out.Items[i] = engine.BulkItemResult{Index: it.Index, ID: it.ID, Status: 201}
	}
	return out, nil
}

func ordersSchema(t *testing.T) schema.Schema {
	t.Helper()
	s, err := schema.New(schema.Definition{
		Name: "Orders",
		Fields: []schema.Field{
			{Name: "client", Type: schema.Text},
			{Name: "orderID", Type: schema.Keyword},
			{Name: "total", Type: schema.Double},
		},
	})
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	return s
}

func newService(t *testing.T, eng *recordingEngine) *Service {
	t.Helper()
	svc := New(eng, ordersSchema(t))
	svc.newID = func() string { return "generated-id" }
	return svc
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

// --- Tests ---

func TestCreateMapping_DefaultsToSchema(t *testing.T) {
	eng := &recordingEngine{}
	svc := newService(t, eng)

	err := svc.CreateMapping(context.Background(), MappingRequest{
		Settings: map[string]any{"number_of_replicas": 0, "number_of_shards": 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eng.calls) != 1 || eng.calls[0].index != "orders" {
		t.Fatalf("calls = %+v", eng.calls)
	}
	want := `{"settings":{"number_of_shards":1,"number_of_replicas":0},"mappings":{"properties":{` +
		`"client":{"type":"text"},"order_id":{"type":"keyword"},"total":{"type":"double"}}}}`
	if got := mustJSON(t, eng.calls[0].body); got != want {
		t.Errorf("body = %s\nwant   %s", got, want)
	}
}

func TestCreateMapping_EmptyPropertiesUseSchema(t *testing.T) {
	eng := &recordingEngine{}
	svc := newService(t, eng)

	if err := svc.CreateMapping(context.Background(), MappingRequest{Properties: schema.Properties{}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"mappings":{"properties":{` +
		`"client":{"type":"text"},"order_id":{"type":"keyword"},"total":{"type":"double"}}}}`
	if got := mustJSON(t, eng.calls[0].body); got != want {
		t.Errorf("body = %s\nwant   %s", got, want)
	}
}

func TestCreateMapping_ExplicitIndexAndProperties(t *testing.T) {
	eng := &recordingEngine{}
	svc := newService(t, eng)

	err := svc.CreateMapping(context.Background(), MappingRequest{
		Index:      "orders_v2",
		Properties: schema.Properties{"client": {Type: schema.Keyword}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eng.calls[0].index != "orders_v2" {
		t.Errorf("index = %q, want orders_v2", eng.calls[0].index)
	}
	if got, want := mustJSON(t, eng.calls[0].body), `{"mappings":{"properties":{"client":{"type":"keyword"}}}}`; got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestCreateMapping_ValidationBeforeDispatch(t *testing.T) {
	tests := []struct {
		name string
		req  MappingRequest
		want error
	}{
		{"missing replicas", MappingRequest{Settings: map[string]any{"number_of_shards": 1}}, domain.ErrConfiguration},
		{"non-numeric", MappingRequest{Settings: map[string]any{"number_of_shards": "one", "number_of_replicas": 0}}, domain.ErrConfiguration},
		{"unsupported type", MappingRequest{Properties: schema.Properties{"x": {Type: "frobnicate"}}}, domain.ErrSchema},
		{"missing type", MappingRequest{Properties: schema.Properties{"x": {}}}, domain.ErrSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &recordingEngine{}
			err := newService(t, eng).CreateMapping(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if len(eng.calls) != 0 {
				t.Errorf("engine calls = %d, want 0", len(eng.calls))
			}
		})
	}
}

func TestCreateMapping_FrobnicateNamed(t *testing.T) {
	err := newService(t, &recordingEngine{}).CreateMapping(context.Background(), MappingRequest{
		Properties: schema.Properties{"x": {Type: "frobnicate"}},
	})
	if err == nil || !strings.Contains(err.Error(), "frobnicate") {
		t.Errorf("err = %v, want it to name frobnicate", err)
	}
}

func TestCreateMapping_EngineError(t *testing.T) {
	eng := &recordingEngine{err: &engine.Error{
		Op: engine.OpCreateIndex, Status: 400, Type: "resource_already_exists_exception", Reason: "index [orders] already exists",
	}}
	err := newService(t, eng).CreateMapping(context.Background(), MappingRequest{})

	var ee *domain.EngineError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want *domain.EngineError", err)
	}
	if ee.Status != 400 || ee.Op != domain.OpCreateMapping || ee.Target != "orders" {
		t.Errorf("error = %+v", ee)
	}
	if !strings.Contains(ee.Error(), "already exists") {
		t.Errorf("message = %q", ee.Error())
	}
	if !errors.Is(err, domain.ErrEngine) {
		t.Error("expected ErrEngine")
	}
}

func TestIndexExists_DefaultAndExplicit(t *testing.T) {
	eng := &recordingEngine{exists: true}
	svc := newService(t, eng)

	ok, err := svc.IndexExists(context.Background(), "")
	if err != nil || !ok {
		t.Fatalf("IndexExists = %v, %v", ok, err)
	}
	if _, err := svc.IndexExists(context.Background(), "other"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eng.calls[0].index != "orders" || eng.calls[1].index != "other" {
		t.Errorf("calls = %+v", eng.calls)
	}
}

func TestDeleteIndex_NotFound(t *testing.T) {
	eng := &recordingEngine{err: &engine.Error{Op: engine.OpDeleteIndex, Status: 404, Type: domain.TypeIndexNotFound}}
	err := newService(t, eng).DeleteIndex(context.Background(), "")
	if !errors.Is(err, domain.ErrIndexNotFound) {
		t.Errorf("err = %v, want ErrIndexNotFound", err)
	}
}

func TestIndexDocument(t *testing.T) {
	eng := &recordingEngine{}
	svc := newService(t, eng)

	id, err := svc.IndexDocument(context.Background(), "o-1", map[string]any{"client": "ACME"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "o-1" {
		t.Errorf("id = %q, want o-1", id)
	}
	c := eng.calls[0]
	if c.op != engine.OpIndex || c.index != "orders" || c.id != "o-1" {
		t.Errorf("call = %+v", c)
	}
	if got := mustJSON(t, c.body); got != `{"client":"ACME"}` {
		t.Errorf("body = %s", got)
	}
}

func TestIndexDocument_GeneratesID(t *testing.T) {
	eng := &recordingEngine{}
	id, err := newService(t, eng).IndexDocument(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "generated-id" || eng.calls[0].id != "generated-id" {
		t.Errorf("id = %q, call id = %q", id, eng.calls[0].id)
	}
}

func TestIndexDocument_ErrorNamesDocument(t *testing.T) {
	eng := &recordingEngine{err: &engine.Error{Op: engine.OpIndex, Status: 400, Type: "mapper_parsing_exception", Reason: "failed to parse"}}
	_, err := newService(t, eng).IndexDocument(context.Background(), "doc-7", map[string]any{})
	if err == nil || !strings.Contains(err.Error(), "doc-7") {
		t.Errorf("err = %v, want message naming doc-7", err)
	}
}

func TestUpdateDocument_WrapsDoc(t *testing.T) {
	eng := &recordingEngine{}
	if err := newService(t, eng).UpdateDocument(context.Background(), "o-1", map[string]any{"paid": true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustJSON(t, eng.calls[0].body); got != `{"doc":{"paid":true}}` {
		t.Errorf("body = %s", got)
	}
}

func TestDocumentOps_RequireID(t *testing.T) {
	eng := &recordingEngine{}
	svc := newService(t, eng)
	ctx := context.Background()

	if err := svc.UpdateDocument(ctx, "", nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("update err = %v", err)
	}
	if _, err := svc.GetDocument(ctx, ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("get err = %v", err)
	}
	if _, err := svc.DeleteDocument(ctx, ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("delete err = %v", err)
	}
	if len(eng.calls) != 0 {
		t.Errorf("engine calls = %d, want 0", len(eng.calls))
	}
}

func TestGetDocument(t *testing.T) {
	eng := &recordingEngine{source: json.RawMessage(`{"client":"ACME","total":12.5}`)}
	src, err := newService(t, eng).GetDocument(context.Background(), "o-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src["client"] != "ACME" || src["total"] != 12.5 {
		t.Errorf("source = %v", src)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	eng := &recordingEngine{err: &engine.Error{Op: engine.OpGet, Status: http.StatusNotFound, Reason: "document not found"}}
	_, err := newService(t, eng).GetDocument(context.Background(), "missing")

	var ee *domain.EngineError
	if !errors.As(err, &ee) || ee.Status != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 EngineError", err)
	}
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Error("expected ErrDocumentNotFound")
	}
}

func TestDeleteDocument(t *testing.T) {
	ok, err := newService(t, &recordingEngine{}).DeleteDocument(context.Background(), "o-1")
	if err != nil || !ok {
		t.Errorf("DeleteDocument = %v, %v", ok, err)
	}
}

func TestLoadBulk_Entries(t *testing.T) {
	eng := &recordingEngine{}
	report, err := newService(t, eng).LoadBulk(context.Background(), []map[string]any{
		{"id": "x", "foo": 1},
		{"foo": 2},
	}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eng.calls) != 1 {
		t.Fatalf("engine calls = %d, want 1", len(eng.calls))
	}
	items := eng.calls[0].items
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].ID != "x" || items[0].Index != "orders" {
		t.Errorf("item 0 = %+v", items[0])
	}
	if items[1].ID != "" {
		t.Errorf("item 1 id = %q, want empty", items[1].ID)
	}
	if report.Total != 2 || len(report.Failures) != 0 {
		t.Errorf("report = %+v", report)
	}
}

func TestLoadBulk_Empty(t *testing.T) {
	eng := &recordingEngine{}
	report, err := newService(t, eng).LoadBulk(context.Background(), nil, "")
	if err != nil || report.Total != 0 {
		t.Fatalf("LoadBulk = %+v, %v", report, err)
	}
	if len(eng.calls) != 0 {
		t.Errorf("engine calls = %d, want 0", len(eng.calls))
	}
}

func TestLoadBulk_PartialFailure(t *testing.T) {
	failing := &engine.BulkResponse{Errors: true, Items: []engine.BulkItemResult{
		{ID: "a", Status: 201},
		{ID: "b", Status: 400, Error: &engine.ErrorCause{Type: "mapper_parsing_exception", Reason: "failed to parse"}},
	}}
	docs := []map[string]any{{"id": "a"}, {"id": "b"}}

	eng := &recordingEngine{bulkResult: failing}
	report, err := newService(t, eng).LoadBulk(context.Background(), docs, "")
	if err != nil {
		t.Fatalf("lenient mode returned error: %v", err)
	}
	if len(report.Failures) != 1 || report.Failures[0].Position != 1 || report.Failures[0].ID != "b" {
		t.Errorf("failures = %+v", report.Failures)
	}

	strict := newService(t, &recordingEngine{bulkResult: failing}).WithStrictBulk(true)
	_, err = strict.LoadBulk(context.Background(), docs, "")
	var be *domain.BulkError
	if !errors.As(err, &be) || len(be.Failures) != 1 {
		t.Fatalf("err = %v, want *BulkError", err)
	}
	if !errors.Is(err, domain.ErrEngine) {
		t.Error("BulkError should match ErrEngine")
	}
}

func TestSearch_Bodies(t *testing.T) {
	eng := &recordingEngine{}
	svc := newService(t, eng)

	mm, err := query.MultiMatch("acme", []string{"client"}, query.Phrase)
	if err != nil {
		t.Fatalf("MultiMatch: %v", err)
	}
	if _, err := svc.Search(context.Background(), mm); err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := `{"query":{"multi_match":{"fields":["client"],"query":"acme","type":"phrase"}}}`
	if got := mustJSON(t, eng.calls[0].body); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
	if eng.calls[0].index != "orders" {
		t.Errorf("index = %q", eng.calls[0].index)
	}
}

func TestSearch_EmptyHits(t *testing.T) {
	hits, err := newService(t, &recordingEngine{}).Search(context.Background(), query.Match(map[string]any{"client": "x"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits == nil || len(hits) != 0 {
		t.Errorf("hits = %#v, want empty non-nil", hits)
	}
}

func TestSearch_TransportFailure(t *testing.T) {
	eng := &recordingEngine{err: &engine.Error{Op: engine.OpSearch, Err: context.DeadlineExceeded}}
	_, err := newService(t, eng).Search(context.Background(), query.Match(nil))

	var ee *domain.EngineError
	if !errors.As(err, &ee) || ee.Status != 0 {
		t.Fatalf("err = %v, want EngineError without status", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected the cause to be reachable")
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(&recordingEngine{}, true)
	reg.Register(ordersSchema(t))

	svc, err := reg.For("orders")
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	if svc.Schema().Len() != 3 || !svc.strictBulk {
		t.Errorf("registered model not returned: %+v", svc)
	}

	adhoc, err := reg.For("logs")
	if err != nil {
		t.Fatalf("For unknown: %v", err)
	}
	if adhoc.Index() != "logs" || adhoc.Schema().Len() != 0 {
		t.Errorf("adhoc model = index %q, %d fields", adhoc.Index(), adhoc.Schema().Len())
	}

	if _, err := reg.For(""); !errors.Is(err, domain.ErrInvalidDefinition) {
		t.Errorf("err = %v, want ErrInvalidDefinition", err)
	}
	if got := reg.Indexes(); len(got) != 1 || got[0] != "orders" {
		t.Errorf("indexes = %v", got)
	}
}
