// Package query builds query-DSL fragments for each supported search mode.
package query

// Kind names a query-DSL clause.
type Kind string

// Supported clause kinds.
const (
	KindMatchPhrase Kind = "match_phrase"
	KindMatch       Kind = "match"
	KindFuzzy       Kind = "fuzzy"
	KindPrefix      Kind = "prefix"
	KindRange       Kind = "range"
	KindWildcard    Kind = "wildcard"
	KindTerms       Kind = "terms"
	KindTerm        Kind = "term"
	KindMultiMatch  Kind = "multi_match"
	KindExists      Kind = "exists"
	KindNested      Kind = "nested"
	KindScriptScore Kind = "script_score"
	KindBool        Kind = "bool"
	KindRaw         Kind = "raw"
)

// PassThrough lists the kinds whose fields are forwarded as supplied by the caller.
var PassThrough = []Kind{
	KindMatchPhrase, KindMatch, KindFuzzy, KindPrefix,
	KindRange, KindWildcard, KindTerms, KindTerm,
}

// IsPassThrough reports whether k forwards caller fields unchanged.
func (k Kind) IsPassThrough() bool {
	for _, p := range PassThrough {
		if k == p {
			return true
		}
	}
	return false
}

// Fragment is one query clause ready to be placed under "query".
type Fragment struct {
	kind   Kind
	clause map[string]any
	raw    map[string]any
}

// Kind returns the clause kind.
func (f Fragment) Kind() Kind { return f.kind }

// Clause returns the value placed under "query". Nil for raw fragments.
func (f Fragment) Clause() map[string]any { return f.clause }

// Body returns the search request body: {"query": clause}, or the raw body as given.
func (f Fragment) Body() map[string]any {
	if f.kind == KindRaw {
		return f.raw
	}
	return map[string]any{"query": f.clause}
}

// Leaf builds a pass-through clause {kind: fields}.
func Leaf(kind Kind, fields map[string]any) Fragment {
	if fields == nil {
		fields = map[string]any{}
	}
	return Fragment{kind: kind, clause: map[string]any{string(kind): fields}}
}

// MatchPhrase builds {"match_phrase": fields}.
func MatchPhrase(fields map[string]any) Fragment { return Leaf(KindMatchPhrase, fields) }

// Match builds {"match": fields}.
func Match(fields map[string]any) Fragment { return Leaf(KindMatch, fields) }

// Fuzzy builds {"fuzzy": fields}.
func Fuzzy(fields map[string]any) Fragment { return Leaf(KindFuzzy, fields) }

// Prefix builds {"prefix": fields}.
func Prefix(fields map[string]any) Fragment { return Leaf(KindPrefix, fields) }

// Range builds {"range": fields}.
func Range(fields map[string]any) Fragment { return Leaf(KindRange, fields) }

// Wildcard builds {"wildcard": fields}.
func Wildcard(fields map[string]any) Fragment { return Leaf(KindWildcard, fields) }

// Terms builds {"terms": fields}.
func Terms(fields map[string]any) Fragment { return Leaf(KindTerms, fields) }

// Term builds {"term": fields}.
func Term(fields map[string]any) Fragment { return Leaf(KindTerm, fields) }

// Exists builds {"exists": {"field": field}}.
func Exists(field string) Fragment {
	return Fragment{kind: KindExists, clause: map[string]any{
		string(KindExists): map[string]any{"field": field},
	}}
}

// Nested scopes a match query to the sub-documents under path.
func Nested(path string, match map[string]any) Fragment {
	if match == nil {
		match = map[string]any{}
	}
	return Fragment{kind: KindNested, clause: map[string]any{
		string(KindNested): map[string]any{
			"path":  path,
			"query": map[string]any{string(KindMatch): match},
		},
	}}
}

// ScriptScore rescores match hits with an inline script. The script is not sandboxed.
func ScriptScore(match map[string]any, source string) Fragment {
	if match == nil {
		match = map[string]any{}
	}
	return Fragment{kind: KindScriptScore, clause: map[string]any{
		string(KindScriptScore): map[string]any{
			"query":  map[string]any{string(KindMatch): match},
			"script": map[string]any{"source": source},
		},
	}}
}

// Raw forwards a pre-built request body unchanged.
func Raw(body map[string]any) Fragment {
	if body == nil {
		body = map[string]any{}
	}
	return Fragment{kind: KindRaw, raw: body}
}
