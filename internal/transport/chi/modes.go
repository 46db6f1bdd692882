package chi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/esmodel/internal/domain"
	"github.com/kailas-cloud/esmodel/internal/domain/query"
)

const modeRaw = string(query.KindRaw)

type multiMatchRequest struct {
	Query  string               `json:"query"`
	Fields []string             `json:"fields"`
	Type   query.MultiMatchType `json:"type"`
}

type existsRequest struct {
	Field string `json:"field"`
}

type nestedRequest struct {
	Path  string         `json:"path"`
	Match map[string]any `json:"match"`
}

type scriptScoreRequest struct {
	Match  map[string]any `json:"match"`
	Source string         `json:"source"`
}

type boolRequest struct {
	Must   []map[string]any `json:"must"`
	Filter []map[string]any `json:"filter"`
}

// fragmentFor decodes a mode-specific request body into a query fragment.
func fragmentFor(mode string, raw json.RawMessage) (query.Fragment, error) {
	if kind := query.Kind(mode); kind.IsPassThrough() {
		var fields map[string]any
		if err := strictDecode(raw, &fields); err != nil {
			return query.Fragment{}, err
		}
		if len(fields) == 0 {
			return query.Fragment{}, fmt.Errorf("%s: at least one field is required: %w", mode, domain.ErrValidation)
		}
		return query.Leaf(kind, fields), nil
	}

	switch mode {
	case modeRaw:
		var body map[string]any
		if err := strictDecode(raw, &body); err != nil {
			return query.Fragment{}, err
		}
		return query.Raw(body), nil
	case string(query.KindMultiMatch):
		var req multiMatchRequest
		if err := strictDecode(raw, &req); err != nil {
			return query.Fragment{}, err
		}
		return query.MultiMatch(req.Query, req.Fields, req.Type)
	case string(query.KindExists):
		var req existsRequest
		if err := strictDecode(raw, &req); err != nil {
			return query.Fragment{}, err
		}
		if req.Field == "" {
			return query.Fragment{}, fmt.Errorf("exists: field is required: %w", domain.ErrValidation)
		}
		return query.Exists(req.Field), nil
	case string(query.KindNested):
		var req nestedRequest
		if err := strictDecode(raw, &req); err != nil {
			return query.Fragment{}, err
		}
		if req.Path == "" {
			return query.Fragment{}, fmt.Errorf("nested: path is required: %w", domain.ErrValidation)
		}
		return query.Nested(req.Path, req.Match), nil
	case string(query.KindScriptScore):
		var req scriptScoreRequest
		if err := strictDecode(raw, &req); err != nil {
			return query.Fragment{}, err
		}
		if req.Source == "" {
			return query.Fragment{}, fmt.Errorf("script_score: source is required: %w", domain.ErrValidation)
		}
		return query.ScriptScore(req.Match, req.Source), nil
	case string(query.KindBool):
		var req boolRequest
		if err := strictDecode(raw, &req); err != nil {
			return query.Fragment{}, err
		}
		return query.Bool(req.Must, req.Filter)
	}
	return query.Fragment{}, fmt.Errorf("unknown search mode %q: %w", mode, domain.ErrValidation)
}

func strictDecode(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid search body: %v: %w", err, domain.ErrValidation)
	}
	return nil
}
