package condition

import (
	"encoding/binary"
	"fmt"

	"github.com/cubedb/cube/internal/tile"
)

// DenseCoords locates a dense cell slab in the global coordinate space:
// Start holds the coordinate of the slab's first cell per dimension, and
// SlabDim is the dimension the slab advances along.
type DenseCoords struct {
	Start   []int64
	SlabDim int
}

// ApplyDense evaluates the condition over a dense tile region and combines
// the outcome into the caller's bitmap under comb: AND multiplies, OR takes
// the maximum. Logical cell i of the region maps to physical cell
// srcCell + start + i*stride. coords may be nil when the condition
// references no dimension.
func ApplyDense(c *Condition, params Params, t *tile.Tile,
	start, length, srcCell, stride uint64, coords *DenseCoords,
	comb CombinationOp, bm []uint8) error {

	if comb != And && comb != Or {
		return fmt.Errorf("%w: got %s", ErrInvalidCombination, comb)
	}
	if uint64(len(bm)) < length {
		return fmt.Errorf("%w: bitmap holds %d cells, region holds %d",
			ErrMalformedTree, len(bm), length)
	}
	if stride == 0 {
		stride = 1
	}

	result := make([]uint8, length)
	fill(result, 1)
	if !c.Empty() {
		cellAt := func(i uint64) uint64 { return srcCell + start + i*stride }
		leaf := func(n *ASTNode, b []uint8, comb CombinationOp) error {
			if params.Schema.IsDim(n.FieldName) {
				return leafDenseDimension(params, n, b, comb, coords, stride)
			}
			return leafOverTile(params, c.marker, t, n, b, comb, cellAt)
		}
		if err := evalTree(c.tree, result, And, leaf); err != nil {
			return err
		}
	}

	if comb == And {
		mulInto(bm[:length], result)
	} else {
		maxInto(bm[:length], result)
	}
	return nil
}

// leafDenseDimension evaluates a clause on a dimension by synthesizing each
// cell's coordinate from the slab origin: the coordinate advances along the
// slab dimension and is constant on every other. Only integral dimensions
// are supported.
func leafDenseDimension(params Params, n *ASTNode, bm []uint8,
	comb CombinationOp, coords *DenseCoords, stride uint64) error {

	d := params.Schema.DimensionIndex(n.FieldName)
	if d < 0 || coords == nil || d >= len(coords.Start) {
		return fmt.Errorf("%w: %q", ErrDenseDimension, n.FieldName)
	}
	dim := params.Schema.Dimension(n.FieldName)
	width := dim.Type.ValueSize()
	if !dim.Type.IsIntegral() || width == 0 {
		return fmt.Errorf("%w: %q has type %s", ErrDenseDimension, n.FieldName, dim.Type)
	}
	pred, err := compileLeaf(n, params.Schema)
	if err != nil {
		return err
	}

	var scratch [8]byte
	for i := uint64(0); i < uint64(len(bm)); i++ {
		v := coords.Start[d]
		if d == coords.SlabDim {
			v += int64(i * stride)
		}
		binary.LittleEndian.PutUint64(scratch[:], uint64(v))
		combineMatch(bm, i, pred.matchValue(scratch[:width]), comb)
	}
	return nil
}
