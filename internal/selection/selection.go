// Package selection converts condition result bitmaps into roaring sets so
// results can be combined across tiles and conditions, and back into cell
// slabs for the reader.
package selection

import (
	"errors"

	"github.com/RoaringBitmap/roaring"

	"github.com/cubedb/cube/internal/tile"
)

// ErrInvalidFormat is returned when serialized selection data is corrupted.
var ErrInvalidFormat = errors.New("invalid selection format")

// Selection is the set of matching cell positions within one tile.
type Selection struct {
	fragment int
	index    uint64
	cells    *roaring.Bitmap
}

// New creates an empty selection for one tile.
func New(fragment int, index uint64) *Selection {
	return &Selection{fragment: fragment, index: index, cells: roaring.NewBitmap()}
}

// FromBitmap builds a selection from a condition result bitmap: every cell
// with a non-zero entry is a member. Weights are not preserved.
func FromBitmap[T ~uint8 | ~uint64](fragment int, index uint64, bm []T) *Selection {
	s := New(fragment, index)
	for i, v := range bm {
		if v != 0 {
			s.cells.Add(uint32(i))
		}
	}
	return s
}

// Fragment returns the fragment ordinal of the selection's tile.
func (s *Selection) Fragment() int { return s.fragment }

// Index returns the tile index of the selection's tile.
func (s *Selection) Index() uint64 { return s.index }

// Cardinality returns the number of selected cells.
func (s *Selection) Cardinality() uint64 { return s.cells.GetCardinality() }

// Contains reports whether the cell is selected.
func (s *Selection) Contains(cell uint64) bool { return s.cells.Contains(uint32(cell)) }

// And intersects the receiver with another selection in place.
func (s *Selection) And(other *Selection) { s.cells.And(other.cells) }

// Or unions the receiver with another selection in place.
func (s *Selection) Or(other *Selection) { s.cells.Or(other.cells) }

// AndNot removes another selection's cells from the receiver in place.
func (s *Selection) AndNot(other *Selection) { s.cells.AndNot(other.cells) }

// ToBitmap expands the selection back into a flat bitmap of n cells.
func (s *Selection) ToBitmap(n uint64) []uint8 {
	bm := make([]uint8, n)
	it := s.cells.Iterator()
	for it.HasNext() {
		c := uint64(it.Next())
		if c < n {
			bm[c] = 1
		}
	}
	return bm
}

// ToSlabs converts the selection into maximal contiguous cell slabs over t.
func (s *Selection) ToSlabs(t *tile.Tile) []tile.Slab {
	var out []tile.Slab
	it := s.cells.Iterator()
	var start, length uint64
	for it.HasNext() {
		c := uint64(it.Next())
		if length > 0 && c == start+length {
			length++
			continue
		}
		if length > 0 {
			out = append(out, tile.Slab{Tile: t, Start: start, Length: length})
		}
		start, length = c, 1
	}
	if length > 0 {
		out = append(out, tile.Slab{Tile: t, Start: start, Length: length})
	}
	return out
}

// Serialize writes the selection's cell set.
func (s *Selection) Serialize() ([]byte, error) {
	s.cells.RunOptimize()
	return s.cells.ToBytes()
}

// Deserialize reads a serialized cell set into a selection for one tile.
func Deserialize(fragment int, index uint64, data []byte) (*Selection, error) {
	s := New(fragment, index)
	if len(data) == 0 {
		return s, nil
	}
	if err := s.cells.UnmarshalBinary(data); err != nil {
		return nil, ErrInvalidFormat
	}
	return s, nil
}
