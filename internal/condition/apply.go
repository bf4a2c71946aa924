package condition

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cubedb/cube/internal/schema"
	"github.com/cubedb/cube/internal/tile"
)

// Params carries the evaluation context shared by every apply strategy.
// FragmentMeta may be nil when no delete condition bookkeeping applies.
type Params struct {
	Schema       *schema.Schema
	FragmentMeta *tile.FragmentMeta
}

// leafOverTile evaluates one value node over a region of a tile, folding each
// cell's outcome into bm. Logical position i within bm maps to physical cell
// cellAt(i).
//
// A field the tile never wrote matches no cell: the fragment predates the
// field, so under AND the region zeroes and under OR it is untouched.
func leafOverTile[T BitmapType](params Params, marker string, t *tile.Tile,
	n *ASTNode, bm []T, comb CombinationOp, cellAt func(uint64) uint64) error {

	if n.FieldName == DeleteTimestampsField {
		return leafDeleteTimestamps(params, marker, t, n, bm, comb, cellAt)
	}

	pred, err := compileLeaf(n, params.Schema)
	if err != nil {
		return err
	}
	tup := t.Tuple(n.FieldName)
	if tup == nil {
		for i := range bm {
			combineMatch(bm, uint64(i), false, comb)
		}
		return nil
	}
	for i := uint64(0); i < uint64(len(bm)); i++ {
		c := cellAt(i)
		match := pred.matchCell(tup.Cell(c), !tup.Valid(c))
		combineMatch(bm, i, match, comb)
	}
	return nil
}

// leafDeleteTimestamps evaluates a clause on the synthetic delete-timestamps
// field. A fragment that already folded this condition into its data matches
// every cell; cells with no recorded delete carry the maximum timestamp. The
// literal is superseded by the timestamp fragment metadata records for the
// condition's marker, if any.
func leafDeleteTimestamps[T BitmapType](params Params, marker string, t *tile.Tile,
	n *ASTNode, bm []T, comb CombinationOp, cellAt func(uint64) uint64) error {

	if params.FragmentMeta != nil && params.FragmentMeta.IsProcessed(marker) {
		for i := range bm {
			combineMatch(bm, uint64(i), true, comb)
		}
		return nil
	}

	if len(n.Value) < 8 {
		return fmt.Errorf("%w: %s wants a uint64 literal", ErrLiteralSize, DeleteTimestampsField)
	}
	lit := binary.LittleEndian.Uint64(n.Value)
	if params.FragmentMeta != nil {
		if ts, ok := params.FragmentMeta.ConditionTimestamp(marker); ok {
			lit = ts
		}
	}

	var column []uint64
	if t != nil {
		column = t.DeleteTimestamps()
	}
	for i := uint64(0); i < uint64(len(bm)); i++ {
		ts := uint64(math.MaxUint64)
		if column != nil {
			ts = column[cellAt(i)]
		}
		combineMatch(bm, i, compareUint64(n.Op, ts, lit), comb)
	}
	return nil
}

func compareUint64(op Op, a, b uint64) bool {
	switch op {
	case LT:
		return a < b
	case LE:
		return a <= b
	case GT:
		return a > b
	case GE:
		return a >= b
	case EQ:
		return a == b
	case NE:
		return a != b
	case AlwaysTrue:
		return true
	default:
		return false
	}
}
