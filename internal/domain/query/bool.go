package query

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/esmodel/internal/domain"
)

// Bool combines match clauses (must) with term clauses (filter).
// Every must element must hold exactly one key, "match"; every filter
// element exactly one key, "term". The filter list sits beside the bool
// clause: {"bool": {"must": [...]}, "filter": [...]}.
func Bool(must, filter []map[string]any) (Fragment, error) {
	if err := checkSoleKey("must", must, KindMatch); err != nil {
		return Fragment{}, err
	}
	if err := checkSoleKey("filter", filter, KindTerm); err != nil {
		return Fragment{}, err
	}
	if must == nil {
		must = []map[string]any{}
	}
	if filter == nil {
		filter = []map[string]any{}
	}
	return Fragment{kind: KindBool, clause: map[string]any{
		string(KindBool): map[string]any{"must": must},
		"filter":         filter,
	}}, nil
}

func checkSoleKey(list string, clauses []map[string]any, want Kind) error {
	for i, c := range clauses {
		if len(c) == 1 {
			if _, ok := c[string(want)]; ok {
				continue
			}
		}
		return fmt.Errorf("%s clause %d: expected a single %q clause, got %v: %w",
			list, i, want, keys(c), domain.ErrValidation)
	}
	return nil
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
