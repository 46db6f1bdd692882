package schema

import "strings"

// Type is a field type tag understood by the search engine.
type Type string

// Supported field type tags.
const (
	Text        Type = "text"
	Keyword     Type = "keyword"
	Long        Type = "long"
	Integer     Type = "integer"
	Short       Type = "short"
	Byte        Type = "byte"
	Double      Type = "double"
	Float       Type = "float"
	HalfFloat   Type = "half_float"
	ScaledFloat Type = "scaled_float"
	Boolean     Type = "boolean"
	Date        Type = "date"
	DateNanos   Type = "date_nanos"
	Object      Type = "object"
	Nested      Type = "nested"
	IP          Type = "ip"
	GeoPoint    Type = "geo_point"
	GeoShape    Type = "geo_shape"
	Completion  Type = "completion"
)

var supportedTypes = []Type{
	Text, Keyword, Long, Integer, Short, Byte, Double, Float, HalfFloat, ScaledFloat,
	Boolean, Date, DateNanos, Object, Nested, IP, GeoPoint, GeoShape, Completion,
}

var supported = func() map[Type]bool {
	m := make(map[Type]bool, len(supportedTypes))
	for _, t := range supportedTypes {
		m[t] = true
	}
	return m
}()

// IsSupported reports whether t is one of the fixed supported type tags.
func (t Type) IsSupported() bool { return supported[t] }

// IsNumeric reports whether t holds numbers.
func (t Type) IsNumeric() bool {
	switch t {
	case Long, Integer, Short, Byte, Double, Float, HalfFloat, ScaledFloat:
		return true
	}
	return false
}

// HasProperties reports whether t carries a sub-property table.
func (t Type) HasProperties() bool { return t == Object || t == Nested }

// normalize lower-cases and trims a declared type tag.
func normalize(t Type) Type {
	return Type(strings.ToLower(strings.TrimSpace(string(t))))
}
