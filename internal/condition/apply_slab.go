package condition

import (
	"fmt"

	"github.com/cubedb/cube/internal/tile"
)

// Apply evaluates the condition over a list of cell slabs and returns the
// slabs covering exactly the matching cells: each maximal run of matches
// within an input slab becomes one output slab. stride is the physical
// distance between consecutive logical cells.
//
// A slab with a nil tile covers cells no fragment wrote; the condition is
// evaluated once against each attribute's fill value and the outcome
// broadcast over the slab. Dimension fields have no tile backing on this
// path and are rejected.
func Apply(c *Condition, params Params, slabs []tile.Slab, stride uint64) ([]tile.Slab, error) {
	if c.Empty() {
		return append([]tile.Slab(nil), slabs...), nil
	}
	if stride == 0 {
		stride = 1
	}

	bm := make([]uint8, tile.TotalCells(slabs))
	fill(bm, 1)

	leaf := func(n *ASTNode, b []uint8, comb CombinationOp) error {
		var base uint64
		for _, s := range slabs {
			region := b[base : base+s.Length]
			if err := leafOverSlab(params, c.marker, s, n, region, comb, stride); err != nil {
				return err
			}
			base += s.Length
		}
		return nil
	}
	if err := evalTree(c.tree, bm, And, leaf); err != nil {
		return nil, err
	}

	var out []tile.Slab
	var base uint64
	for _, s := range slabs {
		region := bm[base : base+s.Length]
		for i := uint64(0); i < uint64(len(region)); {
			if region[i] == 0 {
				i++
				continue
			}
			j := i
			for j < uint64(len(region)) && region[j] != 0 {
				j++
			}
			out = append(out, tile.Slab{
				Tile:   s.Tile,
				Start:  s.Start + i*stride,
				Length: j - i,
			})
			i = j
		}
		base += s.Length
	}
	return out, nil
}

// leafOverSlab evaluates one value node over one slab's region of the
// result bitmap.
func leafOverSlab(params Params, marker string, s tile.Slab,
	n *ASTNode, bm []uint8, comb CombinationOp, stride uint64) error {

	if n.FieldName == DeleteTimestampsField {
		cellAt := func(i uint64) uint64 { return s.Start + i*stride }
		return leafDeleteTimestamps(params, marker, s.Tile, n, bm, comb, cellAt)
	}
	if params.Schema.IsDim(n.FieldName) {
		return fmt.Errorf("%w: %q", ErrDimensionSlabs, n.FieldName)
	}

	if s.Tile == nil {
		attr := params.Schema.Attribute(n.FieldName)
		if attr == nil {
			for i := range bm {
				combineMatch(bm, uint64(i), false, comb)
			}
			return nil
		}
		pred, err := compileLeaf(n, params.Schema)
		if err != nil {
			return err
		}
		// One comparison against the fill value covers the whole slab.
		cellNull := attr.Nullable && !attr.FillValueValidity
		match := pred.matchCell(attr.FillValue, cellNull)
		for i := range bm {
			combineMatch(bm, uint64(i), match, comb)
		}
		return nil
	}

	cellAt := func(i uint64) uint64 { return s.Start + i*stride }
	return leafOverTile(params, marker, s.Tile, n, bm, comb, cellAt)
}
