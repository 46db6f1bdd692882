// Package schema turns an explicit model definition into an index name and
// a mapping-ready property table.
package schema

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/esmodel/internal/domain"
	"github.com/kailas-cloud/esmodel/internal/domain/naming"
)

// Field declares one model field. Names may be camelCase; they are stored in snake_case.
type Field struct {
	Name       string
	Type       Type
	Properties []Field         // object and nested sub-fields
	Params     map[string]any // extra mapping parameters (analyzer, fields, format, ...)
}

// Definition describes a model: its name, optional explicit index and fields.
type Definition struct {
	Name   string
	Index  string // defaults to snake_case(Name)
	Fields []Field
}

// Schema is the immutable result of resolving a Definition.
type Schema struct {
	name  string
	index string
	props Properties
}

// New resolves a definition into a Schema. Field types are lower-cased but
// not checked against the supported set; that happens when a mapping is built.
func New(def Definition) (Schema, error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return Schema{}, fmt.Errorf("model name is required: %w", domain.ErrInvalidDefinition)
	}

	index := strings.TrimSpace(def.Index)
	if index == "" {
		index = naming.ToSnake(name)
	}
	index = strings.ToLower(index)

	props, err := buildTable(def.Fields, "")
	if err != nil {
		return Schema{}, fmt.Errorf("model %q: %w", name, err)
	}

	return Schema{name: name, index: index, props: props}, nil
}

func buildTable(fields []Field, parent string) (Properties, error) {
	props := make(Properties, len(fields))
	for i, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("field %d%s: name is required: %w", i, inParent(parent), domain.ErrInvalidDefinition)
		}
		key := naming.ToSnake(strings.TrimSpace(f.Name))
		if _, dup := props[key]; dup {
			return nil, fmt.Errorf("duplicate field %q%s: %w", key, inParent(parent), domain.ErrInvalidDefinition)
		}

		p := Property{Type: normalize(f.Type)}
		if len(f.Properties) > 0 {
			sub, err := buildTable(f.Properties, joinPath(parent, key))
			if err != nil {
				return nil, err
			}
			p.Properties = sub
		}
		if len(f.Params) > 0 {
			p.Params = make(map[string]any, len(f.Params))
			for k, v := range f.Params {
				p.Params[k] = v
			}
		}
		props[key] = p
	}
	return props, nil
}

// Name returns the model name as declared.
func (s Schema) Name() string { return s.name }

// Index returns the index the model reads and writes.
func (s Schema) Index() string { return s.index }

// Properties returns a copy of the property table.
func (s Schema) Properties() Properties { return s.props.Clone() }

// Len returns the number of top-level fields.
func (s Schema) Len() int { return len(s.props) }

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func inParent(parent string) string {
	if parent == "" {
		return ""
	}
	return " in " + parent
}
