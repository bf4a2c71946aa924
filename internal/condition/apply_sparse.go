package condition

import (
	"fmt"

	"github.com/cubedb/cube/internal/tile"
)

// ApplySparse evaluates the condition over every cell of a sparse tile,
// multiplying the result into bm. Weighted bitmaps keep their weights: a
// matching cell retains its count, a non-matching cell drops to zero. The
// returned count is the sum of the surviving weights.
//
// bm must hold one element per tile cell.
func ApplySparse[T BitmapType](c *Condition, params Params, t *tile.Tile, bm []T) (uint64, error) {
	if uint64(len(bm)) != t.CellCount() {
		return 0, fmt.Errorf("%w: bitmap holds %d cells, tile holds %d",
			ErrMalformedTree, len(bm), t.CellCount())
	}
	return ApplySparseRange(c, params, t, 0, bm)
}

// ApplySparseRange evaluates the condition over cells
// [start, start+len(bm)) of a sparse tile. Callers use it to bound the size
// of the temporary bitmaps the tree walk allocates by evaluating a large
// tile in batches; cells are independent, so batching does not change the
// outcome.
func ApplySparseRange[T BitmapType](c *Condition, params Params, t *tile.Tile, start uint64, bm []T) (uint64, error) {
	if start+uint64(len(bm)) > t.CellCount() {
		return 0, fmt.Errorf("%w: range [%d, %d) exceeds tile cell count %d",
			ErrMalformedTree, start, start+uint64(len(bm)), t.CellCount())
	}
	if !c.Empty() {
		cellAt := func(i uint64) uint64 { return start + i }
		leaf := func(n *ASTNode, b []T, comb CombinationOp) error {
			return leafOverTile(params, c.marker, t, n, b, comb, cellAt)
		}
		if err := evalTree(c.tree, bm, And, leaf); err != nil {
			return 0, err
		}
	}
	var count uint64
	for _, v := range bm {
		count += uint64(v)
	}
	return count, nil
}
