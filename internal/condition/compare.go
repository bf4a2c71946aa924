package condition

import (
	"fmt"

	"github.com/cubedb/cube/internal/datatype"
	"github.com/cubedb/cube/internal/schema"
)

// leafPred is the compiled form of one value node: the operator, the
// comparison representation of the field, and the literal or member set.
// Compiling once per leaf keeps the per-cell loop free of map lookups and
// type dispatch.
type leafPred struct {
	op   Op
	phys datatype.PhysicalType
	lit  []byte

	// members indexes the set literals of IN/NOT_IN by raw bytes.
	members map[string]struct{}

	nullTest bool
}

// compileLeaf resolves a value node against the schema. Null tests and the
// constant operators skip physical-type resolution since they never read
// cell values.
func compileLeaf(n *ASTNode, s *schema.Schema) (*leafPred, error) {
	p := &leafPred{op: n.Op, lit: n.Value, nullTest: n.IsNullTest()}
	if p.nullTest || n.Op.IsInternal() {
		return p, nil
	}
	phys, err := n.physicalType(s)
	if err != nil {
		return nil, fmt.Errorf("%w: field %q: %v", ErrComparison, n.FieldName, err)
	}
	p.phys = phys
	if n.Op.IsSetOp() {
		p.members = make(map[string]struct{}, len(n.Offsets))
		for _, m := range n.Members() {
			p.members[string(m)] = struct{}{}
		}
	}
	return p, nil
}

// matchValue evaluates the predicate against a cell value with no regard for
// null-ness. Used on paths where a validity pre-pass has already zeroed
// invalid cells.
func (p *leafPred) matchValue(cell []byte) bool {
	switch p.op {
	case AlwaysTrue:
		return true
	case AlwaysFalse:
		return false
	case In:
		_, ok := p.members[string(cell)]
		return ok
	case NotIn:
		_, ok := p.members[string(cell)]
		return !ok
	}
	cmp := p.phys.CompareValues(cell, p.lit)
	// An unordered comparison (a NaN operand) satisfies only NE.
	if cmp == datatype.CmpUnordered {
		return p.op == NE
	}
	switch p.op {
	case LT:
		return cmp < 0
	case LE:
		return cmp <= 0
	case GT:
		return cmp > 0
	case GE:
		return cmp >= 0
	case EQ:
		return cmp == 0
	default:
		return cmp != 0
	}
}

// matchCell evaluates the predicate against a cell that may be null. A null
// test matches on the cell's validity alone; every other operator treats a
// null cell as a non-match, including NE and NOT_IN.
func (p *leafPred) matchCell(cell []byte, cellNull bool) bool {
	if p.nullTest {
		if p.op == EQ {
			return cellNull
		}
		return !cellNull
	}
	switch p.op {
	case AlwaysTrue:
		return !cellNull
	case AlwaysFalse:
		return false
	}
	if cellNull {
		return false
	}
	return p.matchValue(cell)
}
