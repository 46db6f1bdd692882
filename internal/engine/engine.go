// Package engine defines the search engine contract the model layer depends on.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Engine is the search engine facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade; consumers use the narrow sub-interfaces
type Engine interface {
	Pinger
	IndexManager
	Searcher
	DocumentStore
	Bulker
	Close() error
}

// Pinger checks engine connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	IndexExists(ctx context.Context, index string) (bool, error)
	CreateIndex(ctx context.Context, index string, body any) error
	DeleteIndex(ctx context.Context, index string) error
}

// Searcher runs query-DSL searches.
type Searcher interface {
	Search(ctx context.Context, index string, body any) (*SearchResponse, error)
}

// DocumentStore provides single-document operations.
type DocumentStore interface {
	Index(ctx context.Context, index, id string, body any) (*WriteResponse, error)
	Update(ctx context.Context, index, id string, body any) (*WriteResponse, error)
	Get(ctx context.Context, index, id string) (*GetResponse, error)
	Delete(ctx context.Context, index, id string) (*WriteResponse, error)
}

// Bulker sends bulk requests.
type Bulker interface {
	Bulk(ctx context.Context, items []BulkItem) (*BulkResponse, error)
}

// BulkItem is one index action plus its document body.
type BulkItem struct {
	Index  string
	ID     string
	Source map[string]any
}

// Hit is one raw search hit.
type Hit struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Score  *float64        `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

// SearchResponse holds the hits of a search.
type SearchResponse struct {
	Took  int   `json:"took"`
	Total int64 `json:"-"`
	Hits  []Hit `json:"-"`
}

// WriteResponse reports the outcome of a document write.
type WriteResponse struct {
	Index   string `json:"_index"`
	ID      string `json:"_id"`
	Version int64  `json:"_version"`
	Result  string `json:"result"`
}

// GetResponse holds a stored document.
type GetResponse struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Found  bool            `json:"found"`
	Source json.RawMessage `json:"_source"`
}

// BulkItemResult is the engine's verdict on one bulk item.
type BulkItemResult struct {
	Index  string      `json:"_index"`
	ID     string      `json:"_id"`
	Status int         `json:"status"`
	Result string      `json:"result,omitempty"`
	Error  *ErrorCause `json:"error,omitempty"`
}

// BulkResponse holds per-item results in request order.
type BulkResponse struct {
	Took   int              `json:"took"`
	Errors bool             `json:"errors"`
	Items  []BulkItemResult `json:"-"`
}

// Failed returns the positions of items the engine rejected.
func (r *BulkResponse) Failed() []int {
	var out []int
	for i, it := range r.Items {
		if it.Error != nil || it.Status >= 300 {
			out = append(out, i)
		}
	}
	return out
}

// WaitForReady polls Ping until the engine responds or timeout expires.
func WaitForReady(ctx context.Context, p Pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := p.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for engine: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
