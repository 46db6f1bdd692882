package schema

import (
	"encoding/json"
	"fmt"
)

// Property is one entry of a property table: {type, properties?, ...params}.
type Property struct {
	Type       Type
	Properties Properties     // sub-table for object and nested fields
	Params     map[string]any // extra mapping parameters, passed through verbatim
}

// Properties maps engine field names to their mapping entries.
type Properties map[string]Property

// MarshalJSON renders the entry as a mapping object. Params never override type or properties.
func (p Property) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Params)+2)
	for k, v := range p.Params {
		out[k] = v
	}
	if p.Type != "" {
		out["type"] = p.Type
	} else {
		delete(out, "type")
	}
	if len(p.Properties) > 0 {
		out["properties"] = p.Properties
	} else {
		delete(out, "properties")
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal property: %w", err)
	}
	return data, nil
}

// UnmarshalJSON reads a mapping object; keys other than type and properties land in Params.
func (p *Property) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("property must be an object: %w", err)
	}

	*p = Property{}
	for k, v := range raw {
		switch k {
		case "type":
			var t string
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("property type must be a string: %w", err)
			}
			p.Type = Type(t)
		case "properties":
			if err := json.Unmarshal(v, &p.Properties); err != nil {
				return err
			}
		default:
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return fmt.Errorf("property param %q: %w", k, err)
			}
			if p.Params == nil {
				p.Params = make(map[string]any)
			}
			p.Params[k] = val
		}
	}
	return nil
}

// Clone returns a deep copy of the table structure. Param values are shared.
func (ps Properties) Clone() Properties {
	if ps == nil {
		return nil
	}
	out := make(Properties, len(ps))
	for name, p := range ps {
		c := Property{Type: p.Type, Properties: p.Properties.Clone()}
		if p.Params != nil {
			c.Params = make(map[string]any, len(p.Params))
			for k, v := range p.Params {
				c.Params[k] = v
			}
		}
		out[name] = c
	}
	return out
}
