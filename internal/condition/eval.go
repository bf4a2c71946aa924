package condition

import "fmt"

// BitmapType constrains the result-bitmap element: uint8 for plain
// membership, uint64 when duplicate-coordinate counts are carried as weights.
type BitmapType interface {
	~uint8 | ~uint64
}

// leafFn evaluates one value node over the region bm covers, combining each
// cell's outcome into bm under comb: multiplication for AND, maximum for OR.
type leafFn[T BitmapType] func(n *ASTNode, bm []T, comb CombinationOp) error

// evalTree walks the tree, pushing the caller's combination operator down to
// the leaves. A subtree whose operator matches the incoming one evaluates in
// place; on a mismatch a temporary bitmap is allocated at that node, seeded
// with the new operator's identity, and folded into the caller's bitmap with
// the incoming operator. Temporaries therefore appear only at alternations
// of AND and OR, not per node.
func evalTree[T BitmapType](n *ASTNode, bm []T, comb CombinationOp, leaf leafFn[T]) error {
	if n == nil {
		return fmt.Errorf("%w: nil node", ErrMalformedTree)
	}
	if !n.IsExpr() {
		return leaf(n, bm, comb)
	}

	switch n.Combination {
	case And:
		if comb == And {
			for _, child := range n.Children {
				if err := evalTree(child, bm, And, leaf); err != nil {
					return err
				}
			}
			return nil
		}
		tmp := make([]T, len(bm))
		fill(tmp, 1)
		for _, child := range n.Children {
			if err := evalTree(child, tmp, And, leaf); err != nil {
				return err
			}
		}
		maxInto(bm, tmp)
		return nil
	case Or:
		if comb == Or {
			for _, child := range n.Children {
				if err := evalTree(child, bm, Or, leaf); err != nil {
					return err
				}
			}
			return nil
		}
		tmp := make([]T, len(bm))
		for _, child := range n.Children {
			if err := evalTree(child, tmp, Or, leaf); err != nil {
				return err
			}
		}
		mulInto(bm, tmp)
		return nil
	case Not:
		return ErrUnevaluatedNot
	default:
		return fmt.Errorf("%w: combination op %s", ErrMalformedTree, n.Combination)
	}
}

func fill[T BitmapType](bm []T, v T) {
	for i := range bm {
		bm[i] = v
	}
}

func mulInto[T BitmapType](dst, src []T) {
	for i := range dst {
		dst[i] *= src[i]
	}
}

func maxInto[T BitmapType](dst, src []T) {
	for i := range dst {
		if src[i] > dst[i] {
			dst[i] = src[i]
		}
	}
}

// combineMatch folds one cell's predicate outcome into the bitmap.
func combineMatch[T BitmapType](bm []T, i uint64, match bool, comb CombinationOp) {
	if comb == And {
		if !match {
			bm[i] = 0
		}
		return
	}
	if match && bm[i] == 0 {
		bm[i] = 1
	}
}
