// Package mapping validates index schemas and builds create-index request bodies.
package mapping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/esmodel/internal/domain"
	"github.com/kailas-cloud/esmodel/internal/domain/schema"
)

// Body is a create-index request body. Settings serialize ahead of mappings.
type Body struct {
	Settings *Settings `json:"settings,omitempty"`
	Mappings Mappings  `json:"mappings"`
}

// Mappings holds the property table of an index.
type Mappings struct {
	Properties schema.Properties `json:"properties"`
}

// Build validates properties and settings and assembles the request body.
func Build(props schema.Properties, rawSettings map[string]any) (Body, error) {
	settings, err := ParseSettings(rawSettings)
	if err != nil {
		return Body{}, err
	}
	if err := ValidateProperties(props); err != nil {
		return Body{}, err
	}
	if props == nil {
		props = schema.Properties{}
	}
	return Body{Settings: settings, Mappings: Mappings{Properties: props}}, nil
}

type invalidType struct {
	path string
	typ  schema.Type
}

// ValidateProperties checks that every entry, nested ones included, declares a supported type.
func ValidateProperties(props schema.Properties) error {
	var missing []string
	var invalid []invalidType
	walk(props, "", &missing, &invalid)

	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("type is required for field(s) %s: %w", strings.Join(missing, ", "), domain.ErrSchema)
	}
	if len(invalid) == 0 {
		return nil
	}

	sort.Slice(invalid, func(i, j int) bool { return invalid[i].path < invalid[j].path })
	values := make([]string, len(invalid))
	fields := make([]string, len(invalid))
	for i, it := range invalid {
		values[i] = string(it.typ)
		fields[i] = it.path
	}
	if len(invalid) > 1 {
		return fmt.Errorf("type values are not valid: %s (fields %s): %w",
			strings.Join(values, ", "), strings.Join(fields, ", "), domain.ErrSchema)
	}
	return fmt.Errorf("type value is not valid: %s (field %s): %w", values[0], fields[0], domain.ErrSchema)
}

func walk(props schema.Properties, parent string, missing *[]string, invalid *[]invalidType) {
	for name, p := range props {
		path := name
		if parent != "" {
			path = parent + "." + name
		}
		switch {
		case strings.TrimSpace(string(p.Type)) == "":
			*missing = append(*missing, path)
		case !p.Type.IsSupported():
			*invalid = append(*invalid, invalidType{path: path, typ: p.Type})
		}
		if len(p.Properties) > 0 {
			walk(p.Properties, path, missing, invalid)
		}
	}
}
