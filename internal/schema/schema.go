// Package schema models the array schema consumed by the condition engine:
// attributes with physical types, nullability and fill values, dimensions,
// and enumerations for dictionary-encoded attributes.
package schema

import (
	"fmt"

	"github.com/cubedb/cube/internal/datatype"
)

// Schema describes the attributes and dimensions of one array.
type Schema struct {
	attributes   map[string]*Attribute
	dimensions   map[string]*Dimension
	dimOrder     []string
	enumerations map[string]*Enumeration
}

// New creates an empty schema.
func New() *Schema {
	return &Schema{
		attributes:   make(map[string]*Attribute),
		dimensions:   make(map[string]*Dimension),
		enumerations: make(map[string]*Enumeration),
	}
}

// AddAttribute registers an attribute.
func (s *Schema) AddAttribute(a *Attribute) error {
	if a.Name == "" {
		return ErrEmptyFieldName
	}
	if s.hasField(a.Name) {
		return fmt.Errorf("%w: %q", ErrDuplicateField, a.Name)
	}
	s.attributes[a.Name] = a
	return nil
}

// AddDimension registers a dimension. Dimension order determines coordinate
// order during dense evaluation.
func (s *Schema) AddDimension(d *Dimension) error {
	if d.Name == "" {
		return ErrEmptyFieldName
	}
	if s.hasField(d.Name) {
		return fmt.Errorf("%w: %q", ErrDuplicateField, d.Name)
	}
	s.dimensions[d.Name] = d
	s.dimOrder = append(s.dimOrder, d.Name)
	return nil
}

// AddEnumeration registers an enumeration.
func (s *Schema) AddEnumeration(e *Enumeration) {
	s.enumerations[e.Name()] = e
}

func (s *Schema) hasField(name string) bool {
	if _, ok := s.attributes[name]; ok {
		return true
	}
	_, ok := s.dimensions[name]
	return ok
}

// HasField reports whether the name is a known attribute or dimension.
func (s *Schema) HasField(name string) bool { return s.hasField(name) }

// Attribute returns the attribute with the given name, or nil.
func (s *Schema) Attribute(name string) *Attribute { return s.attributes[name] }

// Dimension returns the dimension with the given name, or nil.
func (s *Schema) Dimension(name string) *Dimension { return s.dimensions[name] }

// DimensionIndex returns the position of the named dimension in coordinate
// order, or -1.
func (s *Schema) DimensionIndex(name string) int {
	for i, n := range s.dimOrder {
		if n == name {
			return i
		}
	}
	return -1
}

// IsDim reports whether the field is a dimension.
func (s *Schema) IsDim(name string) bool {
	_, ok := s.dimensions[name]
	return ok
}

// Type returns the datatype of the named field.
func (s *Schema) Type(name string) (datatype.Datatype, error) {
	if a, ok := s.attributes[name]; ok {
		return a.Type, nil
	}
	if d, ok := s.dimensions[name]; ok {
		return d.Type, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// VarSize reports whether the named field stores var-sized cells.
// Dimensions are always fixed-size.
func (s *Schema) VarSize(name string) bool {
	if a, ok := s.attributes[name]; ok {
		return a.VarSize
	}
	return false
}

// IsNullable reports whether the named field is nullable. Dimensions are
// never nullable.
func (s *Schema) IsNullable(name string) bool {
	if a, ok := s.attributes[name]; ok {
		return a.Nullable
	}
	return false
}

// Enumeration returns the named enumeration.
func (s *Schema) Enumeration(name string) (*Enumeration, error) {
	e, ok := s.enumerations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEnumeration, name)
	}
	return e, nil
}
