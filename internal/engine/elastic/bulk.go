package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/esmodel/internal/engine"
)

type bulkAction struct {
	Index bulkTarget `json:"index"`
}

type bulkTarget struct {
	Index string `json:"_index"`
	ID    string `json:"_id,omitempty"`
}

type bulkBody struct {
	Took   int                                `json:"took"`
	Errors bool                               `json:"errors"`
	Items  []map[string]engine.BulkItemResult `json:"items"`
}

// Bulk sends all items as one NDJSON request. Per-item failures are reported
// in the response, not as an error.
func (c *Client) Bulk(ctx context.Context, items []engine.BulkItem) (*engine.BulkResponse, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, it := range items {
		if err := enc.Encode(bulkAction{Index: bulkTarget{Index: it.Index, ID: it.ID}}); err != nil {
			return nil, &engine.Error{Op: engine.OpBulk, Err: fmt.Errorf("encode header %d: %w", i, err)}
		}
		src := it.Source
		if src == nil {
			src = map[string]any{}
		}
		if err := enc.Encode(src); err != nil {
			return nil, &engine.Error{Op: engine.OpBulk, Err: fmt.Errorf("encode item %d: %w", i, err)}
		}
	}

	opts := []func(*esapi.BulkRequest){c.es.Bulk.WithContext(ctx)}
	if c.refresh != "" {
		opts = append(opts, c.es.Bulk.WithRefresh(c.refresh))
	}
	res, err := c.do(engine.OpBulk, func() (*esapi.Response, error) {
		return c.es.Bulk(&buf, opts...)
	})
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var bb bulkBody
	if err := json.NewDecoder(res.Body).Decode(&bb); err != nil {
		return nil, &engine.Error{Op: engine.OpBulk, Status: res.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	out := &engine.BulkResponse{Took: bb.Took, Errors: bb.Errors, Items: make([]engine.BulkItemResult, 0, len(bb.Items))}
	for _, item := range bb.Items {
		// each item is keyed by its action name
		for _, r := range item {
			out.Items = append(out.Items, r)
		}
	}
	return out, nil
}
