package esmodel

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/esmodel/internal/domain/query"
	"github.com/kailas-cloud/esmodel/internal/domain/schema"
	"github.com/kailas-cloud/esmodel/internal/engine"
)

// FieldType is a mapping type tag.
type FieldType string

// Supported field types.
const (
	FieldText        FieldType = "text"
	FieldKeyword     FieldType = "keyword"
	FieldLong        FieldType = "long"
	FieldInteger     FieldType = "integer"
	FieldShort       FieldType = "short"
	FieldByte        FieldType = "byte"
	FieldDouble      FieldType = "double"
	FieldFloat       FieldType = "float"
	FieldHalfFloat   FieldType = "half_float"
	FieldScaledFloat FieldType = "scaled_float"
	FieldBoolean     FieldType = "boolean"
	FieldDate        FieldType = "date"
	FieldDateNanos   FieldType = "date_nanos"
	FieldObject      FieldType = "object"
	FieldNested      FieldType = "nested"
	FieldIP          FieldType = "ip"
	FieldGeoPoint    FieldType = "geo_point"
	FieldGeoShape    FieldType = "geo_shape"
	FieldCompletion  FieldType = "completion"
)

// Field declares one model field. Names may be camelCase; the index uses snake_case.
type Field struct {
	Name       string
	Type       FieldType
	Properties []Field         // sub-fields of object and nested fields
	Params     map[string]any // extra mapping parameters, e.g. analyzer
}

// Definition declares a model. Index defaults to snake_case(Name).
type Definition struct {
	Name   string
	Index  string
	Fields []Field
}

func (d Definition) toSchema() (schema.Schema, error) {
	return schema.New(schema.Definition{
		Name:   d.Name,
		Index:  d.Index,
		Fields: toSchemaFields(d.Fields),
	})
}

func toSchemaFields(fields []Field) []schema.Field {
	if fields == nil {
		return nil
	}
	out := make([]schema.Field, len(fields))
	for i, f := range fields {
		out[i] = schema.Field{
			Name:       f.Name,
			Type:       schema.Type(f.Type),
			Properties: toSchemaFields(f.Properties),
			Params:     f.Params,
		}
	}
	return out
}

// MultiMatchType selects how multi_match combines fields.
type MultiMatchType = query.MultiMatchType

// Multi-match types.
const (
	BestFields   = query.BestFields
	MostFields   = query.MostFields
	CrossFields  = query.CrossFields
	Phrase       = query.Phrase
	PhrasePrefix = query.PhrasePrefix
)

// Hit is one raw search hit.
type Hit struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Score  *float64        `json:"_score,omitempty"`
	Source json.RawMessage `json:"_source"`
}

// Decode unmarshals the hit source into v.
func (h Hit) Decode(v any) error {
	if err := json.Unmarshal(h.Source, v); err != nil {
		return fmt.Errorf("decode hit %q: %w", h.ID, err)
	}
	return nil
}

// Fields returns the hit source as a map.
func (h Hit) Fields() (map[string]any, error) {
	out := map[string]any{}
	if len(h.Source) == 0 {
		return out, nil
	}
	if err := h.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func toHits(in []engine.Hit) []Hit {
	out := make([]Hit, len(in))
	for i, h := range in {
		out[i] = Hit{Index: h.Index, ID: h.ID, Score: h.Score, Source: h.Source}
	}
	return out
}

// MappingRequest overrides the model defaults of CreateMapping.
type MappingRequest struct {
	// Properties replaces the schema property table, as a raw mapping object.
	Properties map[string]any
	// Settings holds number_of_shards and number_of_replicas, both or neither.
	Settings map[string]any
	// IndexName replaces the model index.
	IndexName string
}

// toProperties decodes a raw mapping object into a property table.
func toProperties(raw map[string]any) (schema.Properties, error) {
	if raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode properties: %w", err)
	}
	var props schema.Properties
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("properties: %v: %w", err, ErrSchema)
	}
	return props, nil
}
