package embedded

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/esmodel/internal/engine"
)

// predicate filters hits on their stored source after the bleve search.
type predicate func(doc map[string]any) bool

// translator turns query-DSL clauses into bleve queries. path is the
// enclosing nested path, prepended to relative field names.
type translator struct {
	path string
}

// clause translates one query object. A nil query with a non-nil predicate
// means the clause only filters on the source. The Bool builder places
// "filter" beside the compound clause; it is conjoined like bool.filter.
func (t translator) clause(c map[string]any) (query.Query, predicate, error) {
	if len(c) == 0 {
		return nil, nil, nil
	}

	var sibling []any
	if f, ok := c["filter"]; ok && len(c) > 1 {
		sibling = asList(f)
		rest := make(map[string]any, len(c)-1)
		for k, v := range c {
			if k != "filter" {
				rest[k] = v
			}
		}
		c = rest
	}
	if len(c) != 1 {
		return nil, nil, parseErr("query object must hold a single clause, got %v", sortedKeys(c))
	}

	kind, arg := sole(c)
	q, p, err := t.leaf(kind, arg)
	if err != nil || sibling == nil {
		return q, p, err
	}
	fq, fp, err := t.conjoin(sibling)
	if err != nil {
		return nil, nil, err
	}
	return and(q, fq), all(p, fp), nil
}

func (t translator) leaf(kind string, arg any) (query.Query, predicate, error) {
	switch kind {
	case "match_all":
		return bleve.NewMatchAllQuery(), nil, nil
	case "match_none":
		return bleve.NewMatchNoneQuery(), nil, nil
	case "bool":
		m, ok := arg.(map[string]any)
		if !ok {
			return nil, nil, parseErr("[bool] query malformed, no start_object")
		}
		return t.boolQuery(m)
	case "exists":
		m, _ := arg.(map[string]any)
		field, _ := m["field"].(string)
		if field == "" {
			return nil, nil, parseErr("[exists] must be provided with a [field]")
		}
		field = t.field(field)
		return nil, func(doc map[string]any) bool { return has(doc, strings.Split(field, ".")) }, nil
	case "nested":
		m, _ := arg.(map[string]any)
		path, _ := m["path"].(string)
		inner, _ := m["query"].(map[string]any)
		if path == "" || inner == nil {
			return nil, nil, parseErr("[nested] requires 'path' and 'query' fields")
		}
		return translator{path: path}.clause(inner)
	case "multi_match":
		m, _ := arg.(map[string]any)
		q, err := t.multiMatch(m)
		return q, nil, err
	case "script_score":
		return nil, nil, &engine.Error{
			Op:     engine.OpSearch,
			Status: 400,
			Type:   typeIllegalArgument,
			Reason: "[script_score] queries are not supported by the embedded engine",
		}
	case "match", "match_phrase", "fuzzy", "prefix", "wildcard", "term", "terms", "range":
		m, ok := arg.(map[string]any)
		if !ok {
			return nil, nil, parseErr("[%s] query malformed, no start_object", kind)
		}
		q, err := t.fieldQuery(kind, m)
		return q, nil, err
	}
	return nil, nil, parseErr("unknown query [%s]", kind)
}

func (t translator) boolQuery(m map[string]any) (query.Query, predicate, error) {
	musts := append(asList(m["must"]), asList(m["filter"])...)
	mq, mp, err := t.conjoin(musts)
	if err != nil {
		return nil, nil, err
	}

	var should []query.Query
	for _, raw := range asList(m["should"]) {
		c, _ := raw.(map[string]any)
		q, p, err := t.clause(c)
		if err != nil {
			return nil, nil, err
		}
		if p != nil {
			return nil, nil, parseErr("[exists] is not supported inside bool.should")
		}
		if q != nil {
			should = append(should, q)
		}
	}

	var mustNot []query.Query
	var notPreds []predicate
	for _, raw := range asList(m["must_not"]) {
		c, _ := raw.(map[string]any)
		q, p, err := t.clause(c)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case q != nil && p != nil:
			return nil, nil, parseErr("[exists] must stand alone inside bool.must_not")
		case p != nil:
			notPreds = append(notPreds, not(p))
		case q != nil:
			mustNot = append(mustNot, q)
		}
	}

	if mq == nil && len(should) == 0 && len(mustNot) == 0 {
		return nil, all(append(notPreds, mp)...), nil
	}
	var must []query.Query
	if mq != nil {
		must = []query.Query{mq}
	} else if len(should) == 0 {
		must = []query.Query{bleve.NewMatchAllQuery()}
	}
	bq := query.NewBooleanQuery(must, should, mustNot)
	if len(should) > 0 && mq == nil {
		bq.SetMinShould(1)
	}
	return bq, all(append(notPreds, mp)...), nil
}

// conjoin translates clauses that must all match.
func (t translator) conjoin(list []any) (query.Query, predicate, error) {
	var qs []query.Query
	var ps []predicate
	for _, raw := range list {
		c, ok := raw.(map[string]any)
		if !ok {
			return nil, nil, parseErr("query clause must be an object")
		}
		q, p, err := t.clause(c)
		if err != nil {
			return nil, nil, err
		}
		if q != nil {
			qs = append(qs, q)
		}
		if p != nil {
			ps = append(ps, p)
		}
	}
	var q query.Query
	switch len(qs) {
	case 0:
	case 1:
		q = qs[0]
	default:
		q = bleve.NewConjunctionQuery(qs...)
	}
	return q, all(ps...), nil
}

// fieldQuery handles the single-field leaf clauses.
func (t translator) fieldQuery(kind string, m map[string]any) (query.Query, error) {
	if len(m) != 1 {
		return nil, parseErr("[%s] query doesn't support multiple fields, found %v", kind, sortedKeys(m))
	}
	field, spec := sole(m)
	field = t.field(field)
	opts, _ := spec.(map[string]any)

	switch kind {
	case "match":
		v := valueOf(spec, opts, "query")
		if q := exact(field, v); q != nil {
			return q, nil
		}
		mq := bleve.NewMatchQuery(fmt.Sprint(v))
		mq.SetField(field)
		if op, _ := opts["operator"].(string); strings.EqualFold(op, "and") {
			mq.SetOperator(query.MatchQueryOperatorAnd)
		}
		if f, ok := fuzziness(opts["fuzziness"], fmt.Sprint(v)); ok {
			mq.SetFuzziness(f)
		}
		return mq, nil
	case "match_phrase":
		pq := bleve.NewMatchPhraseQuery(fmt.Sprint(valueOf(spec, opts, "query")))
		pq.SetField(field)
		return pq, nil
	case "fuzzy":
		v := fmt.Sprint(valueOf(spec, opts, "value"))
		fq := bleve.NewFuzzyQuery(v)
		fq.SetField(field)
		f, ok := fuzziness(opts["fuzziness"], v)
		if !ok {
			f = autoFuzziness(v)
		}
		fq.SetFuzziness(f)
		return fq, nil
	case "prefix":
		pq := bleve.NewPrefixQuery(fmt.Sprint(valueOf(spec, opts, "value")))
		pq.SetField(field)
		return pq, nil
	case "wildcard":
		v := valueOf(spec, opts, "value")
		if w, ok := opts["wildcard"]; ok {
			v = w
		}
		wq := bleve.NewWildcardQuery(fmt.Sprint(v))
		wq.SetField(field)
		return wq, nil
	case "term":
		return term(field, valueOf(spec, opts, "value")), nil
	case "terms":
		values, ok := spec.([]any)
		if !ok {
			return nil, parseErr("[terms] query requires an array of values for [%s]", field)
		}
		qs := make([]query.Query, 0, len(values))
		for _, v := range values {
			qs = append(qs, term(field, v))
		}
		return bleve.NewDisjunctionQuery(qs...), nil
	case "range":
		if opts == nil {
			return nil, parseErr("[range] query malformed for [%s]", field)
		}
		return rangeQuery(field, opts)
	}
	return nil, parseErr("unknown query [%s]", kind)
}

func (t translator) multiMatch(m map[string]any) (query.Query, error) {
	text := fmt.Sprint(m["query"])
	typ, _ := m["type"].(string)
	phrase := typ == "phrase" || typ == "phrase_prefix"

	build := func(field string, boost float64) query.Query {
		if phrase {
			q := bleve.NewMatchPhraseQuery(text)
			if field != "" {
				q.SetField(field)
			}
			q.SetBoost(boost)
			return q
		}
		q := bleve.NewMatchQuery(text)
		if field != "" {
			q.SetField(field)
		}
		q.SetBoost(boost)
		return q
	}

	fields := asList(m["fields"])
	if len(fields) == 0 {
		return build("", 1), nil
	}
	qs := make([]query.Query, 0, len(fields))
	for _, f := range fields {
		name, boost := splitBoost(fmt.Sprint(f))
		qs = append(qs, build(t.field(name), boost))
	}
	return bleve.NewDisjunctionQuery(qs...), nil
}

func (t translator) field(name string) string {
	if t.path == "" || strings.HasPrefix(name, t.path+".") {
		return name
	}
	return t.path + "." + name
}

// exact matches numbers and booleans by value rather than by analyzed text.
func exact(field string, v any) query.Query {
	switch val := v.(type) {
	case float64:
		incl := true
		q := bleve.NewNumericRangeInclusiveQuery(&val, &val, &incl, &incl)
		q.SetField(field)
		return q
	case bool:
		q := bleve.NewBoolFieldQuery(val)
		q.SetField(field)
		return q
	}
	return nil
}

func term(field string, v any) query.Query {
	if q := exact(field, v); q != nil {
		return q
	}
	q := bleve.NewTermQuery(fmt.Sprint(v))
	q.SetField(field)
	return q
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func rangeQuery(field string, opts map[string]any) (query.Query, error) {
	lower, lowerIncl := opts["gte"], true
	if v, ok := opts["gt"]; ok {
		lower, lowerIncl = v, false
	}
	upper, upperIncl := opts["lte"], true
	if v, ok := opts["lt"]; ok {
		upper, upperIncl = v, false
	}
	if lower == nil && upper == nil {
		return bleve.NewMatchAllQuery(), nil
	}

	if isNumber(lower) && isNumber(upper) {
		var lo, hi *float64
		if lower != nil {
			f := lower.(float64)
			lo = &f
		}
		if upper != nil {
			f := upper.(float64)
			hi = &f
		}
		q := bleve.NewNumericRangeInclusiveQuery(lo, hi, &lowerIncl, &upperIncl)
		q.SetField(field)
		return q, nil
	}

	start, okStart := parseDate(lower)
	end, okEnd := parseDate(upper)
	if okStart && okEnd {
		q := bleve.NewDateRangeInclusiveQuery(start, end, &lowerIncl, &upperIncl)
		q.SetField(field)
		return q, nil
	}

	var lo, hi string
	if lower != nil {
		lo = fmt.Sprint(lower)
	}
	if upper != nil {
		hi = fmt.Sprint(upper)
	}
	q := bleve.NewTermRangeInclusiveQuery(lo, hi, &lowerIncl, &upperIncl)
	q.SetField(field)
	return q, nil
}

func isNumber(v any) bool {
	if v == nil {
		return true
	}
	_, ok := v.(float64)
	return ok
}

// parseDate accepts nil as an open bound.
func parseDate(v any) (time.Time, bool) {
	if v == nil {
		return time.Time{}, true
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// valueOf reads the short form {field: v} or the long form {field: {key: v}}.
func valueOf(spec any, opts map[string]any, key string) any {
	if opts != nil {
		return opts[key]
	}
	return spec
}

// fuzziness parses an explicit setting: a number or "AUTO". Bleve caps it at 2.
func fuzziness(v any, text string) (int, bool) {
	switch f := v.(type) {
	case float64:
		return clampFuzziness(int(f)), true
	case string:
		if strings.EqualFold(f, "auto") {
			return autoFuzziness(text), true
		}
		if n, err := strconv.Atoi(f); err == nil {
			return clampFuzziness(n), true
		}
	}
	return 0, false
}

func autoFuzziness(text string) int {
	switch n := len([]rune(text)); {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	}
	return 2
}

func clampFuzziness(n int) int {
	if n < 0 {
		return 0
	}
	if n > 2 {
		return 2
	}
	return n
}

func splitBoost(field string) (string, float64) {
	name, b, found := strings.Cut(field, "^")
	if !found {
		return field, 1
	}
	boost, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return name, 1
	}
	return name, boost
}

func asList(v any) []any {
	switch l := v.(type) {
	case nil:
		return nil
	case []any:
		return l
	}
	return []any{v}
}

func and(a, b query.Query) query.Query {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return bleve.NewConjunctionQuery(a, b)
}

func all(ps ...predicate) predicate {
	var live []predicate
	for _, p := range ps {
		if p != nil {
			live = append(live, p)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}
	return func(doc map[string]any) bool {
		for _, p := range live {
			if !p(doc) {
				return false
			}
		}
		return true
	}
}

func not(p predicate) predicate {
	return func(doc map[string]any) bool { return !p(doc) }
}

// has reports whether the source holds a non-null, non-empty value at path.
func has(v any, path []string) bool {
	if len(path) == 0 {
		switch x := v.(type) {
		case nil:
			return false
		case []any:
			for _, e := range x {
				if e != nil {
					return true
				}
			}
			return false
		}
		return true
	}
	switch x := v.(type) {
	case map[string]any:
		return has(x[path[0]], path[1:])
	case []any:
		for _, e := range x {
			if has(e, path) {
				return true
			}
		}
	}
	return false
}

// sole returns the only entry of a single-key map.
func sole(m map[string]any) (string, any) {
	for k, v := range m {
		return k, v
	}
	return "", nil
}

func sortedKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func parseErr(format string, args ...any) *engine.Error {
	return &engine.Error{
		Op:     engine.OpSearch,
		Status: 400,
		Type:   typeParsing,
		Reason: fmt.Sprintf(format, args...),
	}
}
