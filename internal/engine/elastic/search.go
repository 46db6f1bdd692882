package elastic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/esmodel/internal/engine"
)

type searchBody struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []engine.Hit `json:"hits"`
	} `json:"hits"`
}

// Search runs a query-DSL body against index. The body is sent as given.
func (c *Client) Search(ctx context.Context, index string, body any) (*engine.SearchResponse, error) {
	buf, err := encode(engine.OpSearch, body)
	if err != nil {
		return nil, err
	}
	res, err := c.do(engine.OpSearch, func() (*esapi.Response, error) {
		return c.es.Search(
			c.es.Search.WithContext(ctx),
			c.es.Search.WithIndex(index),
			c.es.Search.WithBody(buf),
		)
	})
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var sb searchBody
	if err := json.NewDecoder(res.Body).Decode(&sb); err != nil {
		return nil, &engine.Error{Op: engine.OpSearch, Status: res.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	hits := sb.Hits.Hits
	if hits == nil {
		hits = []engine.Hit{}
	}
	return &engine.SearchResponse{Took: sb.Took, Total: sb.Hits.Total.Value, Hits: hits}, nil
}
