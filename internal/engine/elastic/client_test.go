package elastic

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/kailas-cloud/esmodel/internal/engine"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// fakeTransport answers every request with the next canned response.
type fakeTransport struct {
	requests []recordedRequest
	status   int
	body     string
	err      error
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := recordedRequest{Method: req.Method, Path: req.URL.Path, Query: req.URL.RawQuery}
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		rec.Body = string(b)
	}
	f.requests = append(f.requests, rec)
	if f.err != nil {
		return nil, f.err
	}
	h := http.Header{}
	h.Set("X-Elastic-Product", "Elasticsearch")
	h.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: f.status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(f.body)),
		Request:    req,
	}, nil
}

func (f *fakeTransport) last(t *testing.T) recordedRequest {
	t.Helper()
	if len(f.requests) == 0 {
		t.Fatal("no request sent")
	}
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, ft *fakeTransport, refresh string) *Client {
	t.Helper()
	c, err := New(Config{Addrs: []string{"http://es.local:9200"}, Transport: ft, Refresh: refresh, MaxRetries: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_RequiresAddrs(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty addrs")
	}
}

func TestSearch(t *testing.T) {
	ft := &fakeTransport{status: 200, body: `{"took":3,"hits":{"total":{"value":1},"hits":[
		{"_index":"orders","_id":"1","_score":1.5,"_source":{"client":"ACME"}}]}}`}
	c := newTestClient(t, ft, "")

	res, err := c.Search(context.Background(), "orders", map[string]any{
		"query": map[string]any{"match": map[string]any{"client": "ACME"}},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	req := ft.last(t)
	if req.Path != "/orders/_search" {
		t.Errorf("path = %q, want /orders/_search", req.Path)
	}
	if strings.TrimSpace(req.Body) != `{"query":{"match":{"client":"ACME"}}}` {
		t.Errorf("body = %s", req.Body)
	}
	if res.Total != 1 || len(res.Hits) != 1 {
		t.Fatalf("hits = %+v", res)
	}
	h := res.Hits[0]
	if h.ID != "1" || h.Index != "orders" || h.Score == nil || *h.Score != 1.5 {
		t.Errorf("hit = %+v", h)
	}
	if string(h.Source) != `{"client":"ACME"}` {
		t.Errorf("source = %s", h.Source)
	}
}

func TestSearch_NoHits(t *testing.T) {
	ft := &fakeTransport{status: 200, body: `{"took":1,"hits":{"total":{"value":0},"hits":[]}}`}
	c := newTestClient(t, ft, "")

	res, err := c.Search(context.Background(), "orders", map[string]any{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Hits == nil || len(res.Hits) != 0 {
		t.Errorf("hits = %#v, want empty non-nil", res.Hits)
	}
}

func TestIndexExists(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{200, true},
		{404, false},
	}
	for _, tt := range tests {
		ft := &fakeTransport{status: tt.status}
		c := newTestClient(t, ft, "")
		got, err := c.IndexExists(context.Background(), "orders")
		if err != nil {
			t.Fatalf("status %d: unexpected error: %v", tt.status, err)
		}
		if got != tt.want {
			t.Errorf("status %d: exists = %v, want %v", tt.status, got, tt.want)
		}
		if req := ft.last(t); req.Method != http.MethodHead || req.Path != "/orders" {
			t.Errorf("request = %s %s", req.Method, req.Path)
		}
	}
}

func TestCreateIndex_EngineError(t *testing.T) {
	ft := &fakeTransport{status: 400, body: `{"error":{"root_cause":[],"type":"resource_already_exists_exception",
		"reason":"index [orders/abc] already exists"},"status":400}`}
	c := newTestClient(t, ft, "")

	err := c.CreateIndex(context.Background(), "orders", map[string]any{"mappings": map[string]any{}})
	var ee *engine.Error
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want *engine.Error", err)
	}
	if ee.Op != engine.OpCreateIndex || ee.Status != 400 || ee.Type != "resource_already_exists_exception" {
		t.Errorf("error = %+v", ee)
	}
	if !strings.Contains(ee.Reason, "already exists") {
		t.Errorf("reason = %q", ee.Reason)
	}
	if req := ft.last(t); req.Method != http.MethodPut || req.Path != "/orders" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
}

func TestIndex_WithRefresh(t *testing.T) {
	ft := &fakeTransport{status: 201, body: `{"_index":"orders","_id":"o-1","_version":1,"result":"created"}`}
	c := newTestClient(t, ft, "true")

	res, err := c.Index(context.Background(), "orders", "o-1", map[string]any{"client": "ACME"})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if res.Result != "created" || res.ID != "o-1" {
		t.Errorf("response = %+v", res)
	}
	req := ft.last(t)
	if req.Method != http.MethodPut || req.Path != "/orders/_doc/o-1" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
	if !strings.Contains(req.Query, "refresh=true") {
		t.Errorf("query = %q, want refresh=true", req.Query)
	}
}

func TestUpdate(t *testing.T) {
	ft := &fakeTransport{status: 200, body: `{"_index":"orders","_id":"o-1","_version":2,"result":"updated"}`}
	c := newTestClient(t, ft, "")

	if _, err := c.Update(context.Background(), "orders", "o-1", map[string]any{"doc": map[string]any{"paid": true}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	req := ft.last(t)
	if req.Path != "/orders/_update/o-1" {
		t.Errorf("path = %q", req.Path)
	}
	if strings.TrimSpace(req.Body) != `{"doc":{"paid":true}}` {
		t.Errorf("body = %s", req.Body)
	}
}

func TestGet_NotFound(t *testing.T) {
	ft := &fakeTransport{status: 404, body: `{"_index":"orders","_id":"nope","found":false}`}
	c := newTestClient(t, ft, "")

	_, err := c.Get(context.Background(), "orders", "nope")
	var ee *engine.Error
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want *engine.Error", err)
	}
	if ee.Status != 404 || ee.Reason != "document not found" {
		t.Errorf("error = %+v", ee)
	}
}

func TestGet(t *testing.T) {
	ft := &fakeTransport{status: 200, body: `{"_index":"orders","_id":"o-1","found":true,"_source":{"client":"ACME"}}`}
	c := newTestClient(t, ft, "")

	res, err := c.Get(context.Background(), "orders", "o-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !res.Found || string(res.Source) != `{"client":"ACME"}` {
		t.Errorf("response = %+v", res)
	}
	if req := ft.last(t); req.Method != http.MethodGet || req.Path != "/orders/_doc/o-1" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
}

func TestDelete_Missing(t *testing.T) {
	ft := &fakeTransport{status: 404, body: `{"_index":"orders","_id":"o-9","result":"not_found"}`}
	c := newTestClient(t, ft, "")

	_, err := c.Delete(context.Background(), "orders", "o-9")
	var ee *engine.Error
	if !errors.As(err, &ee) || ee.Status != 404 || ee.Reason != "document not_found" {
		t.Fatalf("err = %v", err)
	}
}

func TestBulk(t *testing.T) {
	ft := &fakeTransport{status: 200, body: `{"took":5,"errors":true,"items":[
		{"index":{"_index":"orders","_id":"x","status":201,"result":"created"}},
		{"index":{"_index":"orders","_id":"gen","status":400,"error":{"type":"mapper_parsing_exception","reason":"failed to parse"}}}]}`}
	c := newTestClient(t, ft, "")

	res, err := c.Bulk(context.Background(), []engine.BulkItem{
		{Index: "orders", ID: "x", Source: map[string]any{"foo": 1}},
		{Index: "orders", Source: map[string]any{"foo": 2}},
	})
	if err != nil {
		t.Fatalf("Bulk: %v", err)
	}

	req := ft.last(t)
	if req.Path != "/_bulk" {
		t.Errorf("path = %q, want /_bulk", req.Path)
	}
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(req.Body))
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	want := []string{
		`{"index":{"_index":"orders","_id":"x"}}`,
		`{"foo":1}`,
		`{"index":{"_index":"orders"}}`,
		`{"foo":2}`,
	}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %s, want %s", i, lines[i], want[i])
		}
	}

	if !res.Errors || len(res.Items) != 2 {
		t.Fatalf("response = %+v", res)
	}
	if failed := res.Failed(); len(failed) != 1 || failed[0] != 1 {
		t.Errorf("failed = %v, want [1]", failed)
	}
	if res.Items[1].Error == nil || res.Items[1].Error.Type != "mapper_parsing_exception" {
		t.Errorf("item 1 = %+v", res.Items[1])
	}
}

func TestTransportError(t *testing.T) {
	ft := &fakeTransport{err: errors.New("dial tcp: connection refused")}
	c := newTestClient(t, ft, "")

	err := c.Ping(context.Background())
	var ee *engine.Error
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want *engine.Error", err)
	}
	if ee.Status != 0 || ee.Op != engine.OpPing {
		t.Errorf("error = %+v", ee)
	}
}

func TestClosed(t *testing.T) {
	ft := &fakeTransport{status: 200, body: `{}`}
	c := newTestClient(t, ft, "")
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := c.Search(context.Background(), "orders", map[string]any{}); !errors.Is(err, engine.ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
	if len(ft.requests) != 0 {
		t.Errorf("requests after close = %d, want 0", len(ft.requests))
	}
}
