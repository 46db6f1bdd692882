package esmodel

import "context"

// QueryBuilder accumulates match and term clauses for a typed model.
// Build with Must and Filter, then run with Do.
type QueryBuilder[T any] struct {
	model  *Model
	back   fieldKeys
	must   []map[string]any
	filter []map[string]any
}

// Must adds a scored match clause on field.
func (b *QueryBuilder[T]) Must(field string, value any) *QueryBuilder[T] {
	b.must = append(b.must, map[string]any{"match": map[string]any{field: value}})
	return b
}

// Filter adds an unscored exact term clause on field.
func (b *QueryBuilder[T]) Filter(field string, value any) *QueryBuilder[T] {
	b.filter = append(b.filter, map[string]any{"term": map[string]any{field: value}})
	return b
}

// Do runs the query and decodes every hit into T.
func (b *QueryBuilder[T]) Do(ctx context.Context) ([]TypedHit[T], error) {
	hits, err := b.model.CombinationsAndConditions(ctx, b.must, b.filter)
	if err != nil {
		return nil, err
	}
	return decodeHits[T](hits, b.back)
}
