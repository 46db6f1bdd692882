package embedded

import (
	"context"
	"encoding/json"

	"github.com/blevesearch/bleve/v2"

	"github.com/kailas-cloud/esmodel/internal/engine"
)

const defaultSize = 10

type searchBody struct {
	Query map[string]any `json:"query"`
	From  *int           `json:"from"`
	Size  *int           `json:"size"`
}

// Search translates a query-DSL body into a bleve query and runs it.
// Hits come back in score order with their stored sources.
func (e *Engine) Search(ctx context.Context, index string, body any) (*engine.SearchResponse, error) {
	if err := e.check(ctx, engine.OpSearch); err != nil {
		return nil, err
	}
	var sb searchBody
	if err := roundTrip(body, &sb); err != nil {
		return nil, badRequest(engine.OpSearch, typeParsing, err.Error())
	}
	from, size := 0, defaultSize
	if sb.From != nil {
		from = *sb.From
	}
	if sb.Size != nil {
		size = *sb.Size
	}
	if from < 0 || size < 0 {
		return nil, badRequest(engine.OpSearch, typeIllegalArgument, "[from] and [size] must be non-negative")
	}

	q, pred, err := (translator{}).clause(sb.Query)
	if err != nil {
		return nil, err
	}
	if q == nil {
		q = bleve.NewMatchAllQuery()
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	ix, ok := e.indexes[index]
	if !ok {
		return nil, indexNotFound(engine.OpSearch, index)
	}

	req := bleve.NewSearchRequestOptions(q, size, from, false)
	if pred != nil {
		// source predicates run after the search, so fetch every candidate
		count, err := ix.idx.DocCount()
		if err != nil {
			return nil, &engine.Error{Op: engine.OpSearch, Err: err}
		}
		req = bleve.NewSearchRequestOptions(q, int(count), 0, false)
	}
	res, err := ix.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, &engine.Error{Op: engine.OpSearch, Err: err}
	}

	hits := make([]engine.Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		src, err := ix.source(h.ID)
		if err != nil {
			return nil, &engine.Error{Op: engine.OpSearch, Err: err}
		}
		if pred != nil {
			var doc map[string]any
			if err := json.Unmarshal(src, &doc); err != nil || !pred(doc) {
				continue
			}
		}
		score := h.Score
		hits = append(hits, engine.Hit{Index: index, ID: h.ID, Score: &score, Source: src})
	}

	total := int64(res.Total)
	if pred != nil {
		total = int64(len(hits))
		hits = page(hits, from, size)
	}
	return &engine.SearchResponse{Took: int(res.Took.Milliseconds()), Total: total, Hits: hits}, nil
}

func page(hits []engine.Hit, from, size int) []engine.Hit {
	if from >= len(hits) {
		return []engine.Hit{}
	}
	end := from + size
	if end > len(hits) {
		end = len(hits)
	}
	return hits[from:end]
}
