// Package tile holds the tile-resident columnar buffers the condition engine
// reads: per-field fixed/var/validity data, cell slabs, and the fragment
// metadata consulted for delete conditions.
package tile

// Tuple is the columnar buffer set for one field within one tile.
// Fixed-size fields populate Fixed and CellSize; var-sized fields populate
// Offsets and Var. Validity is present only for nullable fields, one byte
// per cell, non-zero meaning valid.
type Tuple struct {
	Fixed    []byte
	CellSize int

	Offsets []uint64
	Var     []byte

	Validity []uint8
}

// NewFixedTuple builds a tuple for a fixed-size field.
func NewFixedTuple(cellSize int, data []byte, validity []uint8) *Tuple {
	return &Tuple{Fixed: data, CellSize: cellSize, Validity: validity}
}

// NewVarTuple builds a tuple for a var-sized field. offsets holds the byte
// offset of each cell's value within data.
func NewVarTuple(offsets []uint64, data []byte, validity []uint8) *Tuple {
	return &Tuple{Offsets: offsets, Var: data, Validity: validity}
}

// Cells returns the number of cells the tuple holds.
func (t *Tuple) Cells() int {
	if t.Offsets != nil {
		return len(t.Offsets)
	}
	if t.CellSize == 0 {
		return 0
	}
	return len(t.Fixed) / t.CellSize
}

// Cell returns the raw bytes of one cell's value.
func (t *Tuple) Cell(c uint64) []byte {
	if t.Offsets != nil {
		start := t.Offsets[c]
		end := uint64(len(t.Var))
		if c+1 < uint64(len(t.Offsets)) {
			end = t.Offsets[c+1]
		}
		return t.Var[start:end]
	}
	start := c * uint64(t.CellSize)
	return t.Fixed[start : start+uint64(t.CellSize)]
}

// Valid reports whether the cell's validity bit is set. Fields without a
// validity buffer are always valid.
func (t *Tuple) Valid(c uint64) bool {
	if t.Validity == nil {
		return true
	}
	return t.Validity[c] != 0
}

// Tile is the per-tile view the engine evaluates: one tuple per written
// field plus the optional delete-timestamp column.
type Tile struct {
	fragment  int
	index     uint64
	cellCount uint64
	tuples    map[string]*Tuple

	deleteTimestamps []uint64
}

// New creates a tile with the given fragment ordinal, tile index, and cell
// count.
func New(fragment int, index, cellCount uint64) *Tile {
	return &Tile{
		fragment:  fragment,
		index:     index,
		cellCount: cellCount,
		tuples:    make(map[string]*Tuple),
	}
}

// Fragment returns the ordinal of the fragment this tile belongs to.
func (t *Tile) Fragment() int { return t.fragment }

// Index returns the tile index within its fragment.
func (t *Tile) Index() uint64 { return t.index }

// CellCount returns the number of cells in the tile.
func (t *Tile) CellCount() uint64 { return t.cellCount }

// SetTuple attaches the columnar buffers for one field.
func (t *Tile) SetTuple(field string, tuple *Tuple) {
	t.tuples[field] = tuple
}

// Tuple returns the buffers for one field, or nil when this tile's fragment
// never wrote the field (schema evolution).
func (t *Tile) Tuple(field string) *Tuple {
	return t.tuples[field]
}

// SetDeleteTimestamps attaches the per-cell delete-timestamp column.
func (t *Tile) SetDeleteTimestamps(ts []uint64) {
	t.deleteTimestamps = ts
}

// DeleteTimestamps returns the per-cell delete-timestamp column, or nil.
func (t *Tile) DeleteTimestamps() []uint64 {
	return t.deleteTimestamps
}
