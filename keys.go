package esmodel

import (
	"strings"

	"github.com/kailas-cloud/esmodel/internal/domain/naming"
)

// fieldKeys maps document keys from one naming to another, per level.
type fieldKeys map[string]fieldKey

type fieldKey struct {
	name string
	sub  fieldKeys
}

// newFieldKeys maps declared field names to the snake_case names used in the index.
func newFieldKeys(fields []Field) fieldKeys {
	if len(fields) == 0 {
		return nil
	}
	out := make(fieldKeys, len(fields))
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		out[name] = fieldKey{name: naming.ToSnake(name), sub: newFieldKeys(f.Properties)}
	}
	return out
}

func (k fieldKeys) reverse() fieldKeys {
	if len(k) == 0 {
		return nil
	}
	out := make(fieldKeys, len(k))
	for from, to := range k {
		out[to.name] = fieldKey{name: from, sub: to.sub.reverse()}
	}
	return out
}

// apply returns doc with its keys renamed. Unknown keys pass through unchanged.
func (k fieldKeys) apply(doc map[string]any) map[string]any {
	if len(k) == 0 || doc == nil {
		return doc
	}
	out := make(map[string]any, len(doc))
	for key, v := range doc {
		if _, ok := k[key]; !ok {
			out[key] = v
		}
	}
	for key, v := range doc {
		if fk, ok := k[key]; ok {
			out[fk.name] = fk.sub.value(v)
		}
	}
	return out
}

func (k fieldKeys) value(v any) any {
	if len(k) == 0 {
		return v
	}
	switch x := v.(type) {
	case map[string]any:
		return k.apply(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = k.value(e)
		}
		return out
	}
	return v
}
