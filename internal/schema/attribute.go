package schema

import "github.com/cubedb/cube/internal/datatype"

// Attribute describes one stored column of an array.
type Attribute struct {
	Name     string
	Type     datatype.Datatype
	Nullable bool
	VarSize  bool

	// CellValNum is the number of values per cell for fixed-size attributes.
	// Ignored when VarSize is set.
	CellValNum int

	// FillValue is substituted for cells in a requested but non-existent
	// fragment range. FillValueValidity is the validity bit that accompanies
	// it for nullable attributes.
	FillValue         []byte
	FillValueValidity bool

	// EnumerationName is set for dictionary-encoded attributes whose stored
	// values are indices into a named enumeration.
	EnumerationName string
}

// CellSize returns the byte size of one cell, or 0 for var-sized attributes.
func (a *Attribute) CellSize() int {
	if a.VarSize {
		return 0
	}
	n := a.CellValNum
	if n == 0 {
		n = 1
	}
	return a.Type.ValueSize() * n
}

// Dimension describes one axis of the array domain. Dimension values are
// synthetic during dense evaluation, derived from cell coordinates.
type Dimension struct {
	Name string
	Type datatype.Datatype
}
