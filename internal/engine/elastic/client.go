// Package elastic implements engine.Engine over go-elasticsearch.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/esmodel/internal/engine"
)

// Compile-time check: Client implements engine.Engine.
var _ engine.Engine = (*Client)(nil)

// Config holds connection parameters for an Elasticsearch cluster.
type Config struct {
	Addrs      []string
	Username   string
	Password   string
	MaxRetries int
	// Refresh is passed to write APIs: "", "true", "false" or "wait_for".
	Refresh string
	// Transport overrides the HTTP transport; nil uses the default.
	Transport http.RoundTripper
}

// Client implements engine.Engine via the official Elasticsearch client.
type Client struct {
	es      *elasticsearch.Client
	refresh string
	closed  atomic.Bool
}

// New creates an Elasticsearch client. No request is sent.
func New(cfg Config) (*Client, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:  cfg.Addrs,
		Username:   cfg.Username,
		Password:   cfg.Password,
		MaxRetries: cfg.MaxRetries,
		Transport:  cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Client{es: es, refresh: cfg.Refresh}, nil
}

// Close marks the client closed. Later calls fail with engine.ErrClosed.
func (c *Client) Close() error {
	c.closed.Store(true)
	return nil
}

// Ping checks cluster connectivity.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.do(engine.OpPing, func() (*esapi.Response, error) {
		return c.es.Ping(c.es.Ping.WithContext(ctx))
	})
	if err != nil {
		return err
	}
	return closeBody(res)
}

// IndexExists reports whether the index exists. 404 is not an error.
func (c *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	if c.closed.Load() {
		return false, &engine.Error{Op: engine.OpIndexExists, Err: engine.ErrClosed}
	}
	res, err := c.es.Indices.Exists([]string{index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, &engine.Error{Op: engine.OpIndexExists, Err: err}
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, decodeError(engine.OpIndexExists, res)
}

// CreateIndex creates an index with the given settings and mappings body.
func (c *Client) CreateIndex(ctx context.Context, index string, body any) error {
	buf, err := encode(engine.OpCreateIndex, body)
	if err != nil {
		return err
	}
	res, err := c.do(engine.OpCreateIndex, func() (*esapi.Response, error) {
		return c.es.Indices.Create(index,
			c.es.Indices.Create.WithContext(ctx),
			c.es.Indices.Create.WithBody(buf),
		)
	})
	if err != nil {
		return err
	}
	return closeBody(res)
}

// DeleteIndex drops an index.
func (c *Client) DeleteIndex(ctx context.Context, index string) error {
	res, err := c.do(engine.OpDeleteIndex, func() (*esapi.Response, error) {
		return c.es.Indices.Delete([]string{index}, c.es.Indices.Delete.WithContext(ctx))
	})
	if err != nil {
		return err
	}
	return closeBody(res)
}

// Index stores a document under id.
func (c *Client) Index(ctx context.Context, index, id string, body any) (*engine.WriteResponse, error) {
	buf, err := encode(engine.OpIndex, body)
	if err != nil {
		return nil, err
	}
	opts := []func(*esapi.IndexRequest){
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(id),
	}
	if c.refresh != "" {
		opts = append(opts, c.es.Index.WithRefresh(c.refresh))
	}
	res, err := c.do(engine.OpIndex, func() (*esapi.Response, error) {
		return c.es.Index(index, buf, opts...)
	})
	if err != nil {
		return nil, err
	}
	return decodeWrite(engine.OpIndex, res)
}

// Update applies a partial update body ({"doc": ...}) to a document.
func (c *Client) Update(ctx context.Context, index, id string, body any) (*engine.WriteResponse, error) {
	buf, err := encode(engine.OpUpdate, body)
	if err != nil {
		return nil, err
	}
	opts := []func(*esapi.UpdateRequest){c.es.Update.WithContext(ctx)}
	if c.refresh != "" {
		opts = append(opts, c.es.Update.WithRefresh(c.refresh))
	}
	res, err := c.do(engine.OpUpdate, func() (*esapi.Response, error) {
		return c.es.Update(index, id, buf, opts...)
	})
	if err != nil {
		return nil, err
	}
	return decodeWrite(engine.OpUpdate, res)
}

// Get fetches a stored document. A missing document is a 404 engine.Error.
func (c *Client) Get(ctx context.Context, index, id string) (*engine.GetResponse, error) {
	res, err := c.do(engine.OpGet, func() (*esapi.Response, error) {
		return c.es.Get(index, id, c.es.Get.WithContext(ctx))
	})
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var out engine.GetResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, &engine.Error{Op: engine.OpGet, Status: res.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &out, nil
}

// Delete removes a document.
func (c *Client) Delete(ctx context.Context, index, id string) (*engine.WriteResponse, error) {
	opts := []func(*esapi.DeleteRequest){c.es.Delete.WithContext(ctx)}
	if c.refresh != "" {
		opts = append(opts, c.es.Delete.WithRefresh(c.refresh))
	}
	res, err := c.do(engine.OpDelete, func() (*esapi.Response, error) {
		return c.es.Delete(index, id, opts...)
	})
	if err != nil {
		return nil, err
	}
	return decodeWrite(engine.OpDelete, res)
}

// do runs an API call and turns transport failures and error statuses into *engine.Error.
// On success the caller owns the response body.
func (c *Client) do(op string, call func() (*esapi.Response, error)) (*esapi.Response, error) {
	if c.closed.Load() {
		return nil, &engine.Error{Op: op, Err: engine.ErrClosed}
	}
	res, err := call()
	if err != nil {
		return nil, &engine.Error{Op: op, Err: err}
	}
	if res.IsError() {
		defer res.Body.Close()
		return nil, decodeError(op, res)
	}
	return res, nil
}

func encode(op string, body any) (io.Reader, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, &engine.Error{Op: op, Err: fmt.Errorf("encode body: %w", err)}
	}
	return &buf, nil
}

func closeBody(res *esapi.Response) error {
	_, _ = io.Copy(io.Discard, res.Body)
	return res.Body.Close()
}

func decodeWrite(op string, res *esapi.Response) (*engine.WriteResponse, error) {
	defer res.Body.Close()
	var out engine.WriteResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, &engine.Error{Op: op, Status: res.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &out, nil
}

// errorBody covers both error shapes: {"error":{...},"status":N} and
// {"error":"reason"}. Document 404s carry no error key at all.
type errorBody struct {
	Error  json.RawMessage `json:"error"`
	Status int             `json:"status"`
	Result string          `json:"result"`
	Found  *bool           `json:"found"`
}

func decodeError(op string, res *esapi.Response) *engine.Error {
	e := &engine.Error{Op: op, Status: res.StatusCode}
	raw, err := io.ReadAll(res.Body)
	if err != nil || len(raw) == 0 {
		e.Reason = http.StatusText(res.StatusCode)
		return e
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		e.Reason = string(raw)
		return e
	}

	var cause engine.ErrorCause
	var reason string
	switch {
	case json.Unmarshal(body.Error, &cause) == nil && cause.Type != "":
		e.Type, e.Reason = cause.Type, cause.Reason
	case json.Unmarshal(body.Error, &reason) == nil && reason != "":
		e.Reason = reason
	case body.Result != "":
		e.Reason = "document " + body.Result
	case body.Found != nil && !*body.Found:
		e.Reason = "document not found"
	default:
		e.Reason = http.StatusText(res.StatusCode)
	}
	return e
}
