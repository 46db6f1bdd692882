package esmodel

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

const tagKey = "esmodel"

var timeType = reflect.TypeOf(time.Time{})

// DefinitionOf derives a model definition from the esmodel struct tags of T.
//
//	type Order struct {
//		ID     string    `json:"id" esmodel:"keyword"`
//		Client string    `json:"client" esmodel:"text,analyzer=english"`
//		Lines  []Line    `json:"lines" esmodel:"nested"`
//		At     time.Time `json:"at"`
//	}
//
// The stored field name is the json tag name, or the Go field name. Untagged
// fields are inferred from their Go type; `esmodel:"-"` skips a field.
// Extra comma-separated key=value pairs become mapping parameters.
func DefinitionOf[T any](name string) (Definition, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return Definition{}, fmt.Errorf("esmodel: type is not a struct: %w", ErrInvalidDefinition)
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return Definition{}, fmt.Errorf("esmodel: type %s is not a struct: %w", t, ErrInvalidDefinition)
	}
	fields, err := structFields(t, map[reflect.Type]bool{})
	if err != nil {
		return Definition{}, err
	}
	return Definition{Name: name, Fields: fields}, nil
}

// structFields lists the mapped fields of t. visiting holds the struct types
// on the current path; meeting one again means the type is recursive.
func structFields(t reflect.Type, visiting map[reflect.Type]bool) ([]Field, error) {
	if visiting[t] {
		return nil, fmt.Errorf("esmodel: recursive type %s: %w", t, ErrInvalidDefinition)
	}
	visiting[t] = true
	defer delete(visiting, t)

	var out []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get(tagKey)
		if tag == "-" || sf.Tag.Get("json") == "-" {
			continue
		}
		f, err := parseField(sf, tag, visiting)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func parseField(sf reflect.StructField, tag string, visiting map[reflect.Type]bool) (Field, error) {
	f := Field{Name: jsonName(sf)}

	parts := strings.Split(tag, ",")
	f.Type = FieldType(strings.TrimSpace(parts[0]))
	for _, p := range parts[1:] {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return Field{}, fmt.Errorf("esmodel: bad tag option %q on field %s: %w", p, sf.Name, ErrInvalidDefinition)
		}
		if f.Params == nil {
			f.Params = map[string]any{}
		}
		f.Params[k] = v
	}

	elem := indirect(sf.Type)
	if f.Type == "" {
		typ, ok := inferType(elem)
		if !ok {
			return Field{}, fmt.Errorf("esmodel: cannot infer type of field %s (%s): %w", sf.Name, sf.Type, ErrInvalidDefinition)
		}
		f.Type = typ
	}

	if f.Type == FieldObject || f.Type == FieldNested {
		if elem.Kind() != reflect.Struct {
			return Field{}, fmt.Errorf("esmodel: %s field %s must be a struct: %w", f.Type, sf.Name, ErrInvalidDefinition)
		}
		props, err := structFields(elem, visiting)
		if err != nil {
			return Field{}, err
		}
		f.Properties = props
	}
	return f, nil
}

func jsonName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" {
		return sf.Name
	}
	return name
}

// indirect unwraps pointers and slices down to the element type.
func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
			return t
		}
		t = t.Elem()
	}
	return t
}

func inferType(t reflect.Type) (FieldType, bool) {
	if t == timeType {
		return FieldDate, true
	}
	switch t.Kind() {
	case reflect.String:
		return FieldText, true
	case reflect.Bool:
		return FieldBoolean, true
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return FieldLong, true
	case reflect.Int32, reflect.Uint16:
		return FieldInteger, true
	case reflect.Int16, reflect.Uint8:
		return FieldShort, true
	case reflect.Int8:
		return FieldByte, true
	case reflect.Float64:
		return FieldDouble, true
	case reflect.Float32:
		return FieldFloat, true
	case reflect.Struct:
		return FieldObject, true
	}
	return "", false
}
