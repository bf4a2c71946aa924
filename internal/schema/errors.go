package schema

import "errors"

var (
	ErrUnknownField       = errors.New("unknown attribute or dimension")
	ErrUnknownEnumeration = errors.New("unknown enumeration")
	ErrDuplicateField     = errors.New("duplicate field name")
	ErrEmptyFieldName     = errors.New("field name cannot be empty")
	ErrNotOrdered         = errors.New("enumeration is not ordered")
)
