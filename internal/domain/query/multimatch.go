package query

import (
	"fmt"

	"github.com/kailas-cloud/esmodel/internal/domain"
)

// MultiMatchType selects how a multi_match query combines fields.
type MultiMatchType string

// Multi-match types.
const (
	BestFields   MultiMatchType = "best_fields"
	MostFields   MultiMatchType = "most_fields"
	CrossFields  MultiMatchType = "cross_fields"
	Phrase       MultiMatchType = "phrase"
	PhrasePrefix MultiMatchType = "phrase_prefix"
)

// IsValid reports whether t is a known multi-match type.
func (t MultiMatchType) IsValid() bool {
	switch t {
	case BestFields, MostFields, CrossFields, Phrase, PhrasePrefix:
		return true
	}
	return false
}

// MultiMatch builds a multi_match clause. An empty type is omitted.
func MultiMatch(q string, fields []string, typ MultiMatchType) (Fragment, error) {
	if fields == nil {
		fields = []string{}
	}
	mm := map[string]any{
		"query":  q,
		"fields": fields,
	}
	if typ != "" {
		if !typ.IsValid() {
			return Fragment{}, fmt.Errorf("invalid multi_match type %q: %w", typ, domain.ErrValidation)
		}
		mm["type"] = string(typ)
	}
	return Fragment{kind: KindMultiMatch, clause: map[string]any{string(KindMultiMatch): mm}}, nil
}
