package condition

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cubedb/cube/internal/datatype"
	"github.com/cubedb/cube/internal/schema"
)

// nodeKind tags the two AST node variants.
type nodeKind uint8

const (
	valueNode nodeKind = iota
	exprNode
)

// ASTNode is one node of a condition tree: either a value node comparing a
// field against a literal (or a member set, or null), or an expression node
// combining at least two children under AND/OR.
type ASTNode struct {
	kind nodeKind

	// Value node fields.
	FieldName string
	Op        Op
	// Value holds the literal bytes. nil with EQ/NE encodes a null test.
	// For IN/NOT_IN it holds the concatenated member bytes split by Offsets.
	Value []byte
	// Offsets holds the start offset of each member within Value.
	Offsets []uint64
	// EnumerationLookup marks nodes produced by an enumeration rewrite;
	// such nodes compare dictionary indices, not user literals.
	EnumerationLookup bool

	// Expression node fields.
	Combination CombinationOp
	Children    []*ASTNode
}

// NewValueNode builds a value node for a relational operator. A nil value
// encodes a null test and is only legal with EQ or NE. The literal bytes are
// copied.
func NewValueNode(fieldName string, op Op, value []byte) (*ASTNode, error) {
	if op.IsInternal() {
		return nil, fmt.Errorf("%w: %s", ErrInternalOp, op)
	}
	if op.IsSetOp() {
		return nil, fmt.Errorf("use NewSetNode for %s", op)
	}
	if value == nil && op != EQ && op != NE {
		return nil, fmt.Errorf("%w: got %s", ErrNullOperator, op)
	}
	n := &ASTNode{kind: valueNode, FieldName: fieldName, Op: op}
	if value != nil {
		n.Value = append([]byte(nil), value...)
	}
	return n, nil
}

// NewSetNode builds a value node for IN or NOT_IN over the given member
// values. Member bytes are copied into one buffer split by offsets.
func NewSetNode(fieldName string, op Op, members [][]byte) (*ASTNode, error) {
	if !op.IsSetOp() {
		return nil, fmt.Errorf("NewSetNode requires IN or NOT_IN, got %s", op)
	}
	n := &ASTNode{kind: valueNode, FieldName: fieldName, Op: op, Value: []byte{}}
	for _, m := range members {
		n.Offsets = append(n.Offsets, uint64(len(n.Value)))
		n.Value = append(n.Value, m...)
	}
	return n, nil
}

// newConstantNode builds an internal ALWAYS_TRUE/ALWAYS_FALSE node. The field
// name is retained so validity folding still applies on nullable fields.
func newConstantNode(fieldName string, op Op) *ASTNode {
	return &ASTNode{kind: valueNode, FieldName: fieldName, Op: op, EnumerationLookup: true}
}

// IsExpr reports whether the node is an expression node.
func (n *ASTNode) IsExpr() bool { return n.kind == exprNode }

// IsNullTest reports whether the node tests field null-ness.
func (n *ASTNode) IsNullTest() bool {
	return n.kind == valueNode && n.Value == nil && !n.Op.IsSetOp() && !n.Op.IsInternal()
}

// Members returns the set members of an IN/NOT_IN node.
func (n *ASTNode) Members() [][]byte {
	members := make([][]byte, 0, len(n.Offsets))
	for i, off := range n.Offsets {
		end := uint64(len(n.Value))
		if i+1 < len(n.Offsets) {
			end = n.Offsets[i+1]
		}
		members = append(members, n.Value[off:end])
	}
	return members
}

// Clone returns a deep copy of the subtree.
func (n *ASTNode) Clone() *ASTNode {
	if n == nil {
		return nil
	}
	c := &ASTNode{
		kind:              n.kind,
		FieldName:         n.FieldName,
		Op:                n.Op,
		EnumerationLookup: n.EnumerationLookup,
		Combination:       n.Combination,
	}
	if n.Value != nil {
		c.Value = append([]byte(nil), n.Value...)
	}
	if n.Offsets != nil {
		c.Offsets = append([]uint64(nil), n.Offsets...)
	}
	for _, child := range n.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return c
}

// Negate returns a fully negated deep copy: the operator complement for value
// nodes, the De Morgan dual with recursively negated children for expression
// nodes. A transient NOT node negates to a copy of its child.
func (n *ASTNode) Negate() *ASTNode {
	if n == nil {
		return nil
	}
	if n.kind == valueNode {
		c := n.Clone()
		c.Op = c.Op.Negated()
		return c
	}
	if n.Combination == Not {
		if len(n.Children) == 1 {
			return n.Children[0].Clone()
		}
		return n.Clone()
	}
	neg := &ASTNode{kind: exprNode, Combination: n.Combination.Negated()}
	for _, child := range n.Children {
		neg.Children = append(neg.Children, child.Negate())
	}
	return neg
}

// combineAST joins two trees under AND or OR. When a side is already an
// expression node with the same combination operator its children are
// spliced in rather than nested, keeping commutative chains flat for simpler
// printing and evaluation.
func combineAST(lhs, rhs *ASTNode, op CombinationOp) *ASTNode {
	result := &ASTNode{kind: exprNode, Combination: op}
	for _, side := range []*ASTNode{lhs, rhs} {
		if side.IsExpr() && side.Combination == op {
			for _, child := range side.Children {
				result.Children = append(result.Children, child.Clone())
			}
		} else {
			result.Children = append(result.Children, side.Clone())
		}
	}
	return result
}

// fieldNames accumulates every field name referenced by the subtree.
func (n *ASTNode) fieldNames(out map[string]struct{}) {
	if n == nil {
		return
	}
	if n.kind == valueNode {
		out[n.FieldName] = struct{}{}
		return
	}
	for _, child := range n.Children {
		child.fieldNames(out)
	}
}

// check validates the subtree against the schema: field names must exist,
// fixed-size literals must match the cell size, and null tests must use
// EQ/NE. The synthetic delete-timestamps field is always valid.
func (n *ASTNode) check(s *schema.Schema) error {
	if n == nil {
		return fmt.Errorf("%w: nil node", ErrMalformedTree)
	}
	if n.kind == exprNode {
		if n.Combination == Not {
			if len(n.Children) != 1 {
				return fmt.Errorf("%w: NOT node must have exactly 1 child, has %d",
					ErrMalformedTree, len(n.Children))
			}
			return n.Children[0].check(s)
		}
		if len(n.Children) < 2 {
			return fmt.Errorf("%w: %s node must have at least 2 children, has %d",
				ErrMalformedTree, n.Combination, len(n.Children))
		}
		for _, child := range n.Children {
			if err := child.check(s); err != nil {
				return err
			}
		}
		return nil
	}

	if n.FieldName == DeleteTimestampsField {
		return nil
	}
	if !s.HasField(n.FieldName) {
		return fmt.Errorf("%w: %q", schema.ErrUnknownField, n.FieldName)
	}
	if n.Value == nil && !n.Op.IsSetOp() && !n.Op.IsInternal() {
		if n.Op != EQ && n.Op != NE {
			return fmt.Errorf("%w: field %q with %s", ErrNullOperator, n.FieldName, n.Op)
		}
		return nil
	}
	if n.Op.IsInternal() {
		return nil
	}

	// Var-size literals and enumeration indices are not size-checked here.
	if s.VarSize(n.FieldName) || n.EnumerationLookup {
		return nil
	}
	attr := s.Attribute(n.FieldName)
	cellSize := 0
	if attr != nil {
		cellSize = attr.CellSize()
	} else if d := s.Dimension(n.FieldName); d != nil {
		cellSize = d.Type.ValueSize()
	}
	if cellSize == 0 {
		return nil
	}
	if n.Op.IsSetOp() {
		for _, m := range n.Members() {
			if len(m) != cellSize {
				return fmt.Errorf("%w: field %q expects %d-byte members, got %d",
					ErrLiteralSize, n.FieldName, cellSize, len(m))
			}
		}
		return nil
	}
	if len(n.Value) != cellSize {
		return fmt.Errorf("%w: field %q expects %d bytes, got %d",
			ErrLiteralSize, n.FieldName, cellSize, len(n.Value))
	}
	return nil
}

// rewriteForSchema resolves value nodes on enumerated attributes into index
// comparisons against the dictionary, collapsing absent literals into
// constants. Other nodes are cloned unchanged.
func (n *ASTNode) rewriteForSchema(s *schema.Schema) (*ASTNode, error) {
	if n == nil {
		return nil, nil
	}
	if n.kind == exprNode {
		rewritten := &ASTNode{kind: exprNode, Combination: n.Combination}
		for _, child := range n.Children {
			rc, err := child.rewriteForSchema(s)
			if err != nil {
				return nil, err
			}
			rewritten.Children = append(rewritten.Children, rc)
		}
		return rewritten, nil
	}

	attr := s.Attribute(n.FieldName)
	if attr == nil || attr.EnumerationName == "" || n.EnumerationLookup || n.IsNullTest() {
		return n.Clone(), nil
	}
	enum, err := s.Enumeration(attr.EnumerationName)
	if err != nil {
		return nil, err
	}
	return rewriteEnumerationNode(n, attr, enum)
}

// rewriteEnumerationNode translates one literal node against the dictionary.
func rewriteEnumerationNode(n *ASTNode, attr *schema.Attribute, enum *schema.Enumeration) (*ASTNode, error) {
	width := attr.Type.ValueSize()
	if !attr.Type.IsIntegral() || width == 0 {
		return nil, fmt.Errorf("%w: enumeration attribute %q has non-integral type %s",
			ErrComparison, attr.Name, attr.Type)
	}

	index := func(i uint64) []byte { return encodeUintValue(i, width) }

	switch n.Op {
	case EQ, NE:
		i, ok := enum.IndexOf(n.Value)
		if !ok {
			if n.Op == EQ {
				return newConstantNode(n.FieldName, AlwaysFalse), nil
			}
			return newConstantNode(n.FieldName, AlwaysTrue), nil
		}
		rewritten := &ASTNode{kind: valueNode, FieldName: n.FieldName, Op: n.Op,
			Value: index(i), EnumerationLookup: true}
		return rewritten, nil
	case In, NotIn:
		var members [][]byte
		for _, m := range n.Members() {
			if i, ok := enum.IndexOf(m); ok {
				members = append(members, index(i))
			}
		}
		if len(members) == 0 {
			if n.Op == In {
				return newConstantNode(n.FieldName, AlwaysFalse), nil
			}
			return newConstantNode(n.FieldName, AlwaysTrue), nil
		}
		rewritten, err := NewSetNode(n.FieldName, n.Op, members)
		if err != nil {
			return nil, err
		}
		rewritten.EnumerationLookup = true
		return rewritten, nil
	case LT, LE, GT, GE:
		if !enum.Ordered() {
			return nil, fmt.Errorf("%w: %q", schema.ErrNotOrdered, enum.Name())
		}
		return rewriteOrderedRange(n, enum, index)
	default:
		return n.Clone(), nil
	}
}

// rewriteOrderedRange maps a range literal to a dictionary index boundary.
func rewriteOrderedRange(n *ASTNode, enum *schema.Enumeration, index func(uint64) []byte) (*ASTNode, error) {
	lookup := &ASTNode{kind: valueNode, FieldName: n.FieldName, EnumerationLookup: true}
	switch n.Op {
	case LT:
		// value < lit  <=>  idx < lowerBound(lit)
		lb, ok := enum.LowerBound(n.Value)
		if !ok {
			return newConstantNode(n.FieldName, AlwaysTrue), nil
		}
		if lb == 0 {
			return newConstantNode(n.FieldName, AlwaysFalse), nil
		}
		lookup.Op, lookup.Value = LT, index(lb)
	case LE:
		// value <= lit  <=>  idx < upperBound(lit)
		ub, ok := enum.UpperBound(n.Value)
		if !ok {
			return newConstantNode(n.FieldName, AlwaysTrue), nil
		}
		if ub == 0 {
			return newConstantNode(n.FieldName, AlwaysFalse), nil
		}
		lookup.Op, lookup.Value = LT, index(ub)
	case GT:
		// value > lit  <=>  idx >= upperBound(lit)
		ub, ok := enum.UpperBound(n.Value)
		if !ok {
			return newConstantNode(n.FieldName, AlwaysFalse), nil
		}
		lookup.Op, lookup.Value = GE, index(ub)
	case GE:
		// value >= lit  <=>  idx >= lowerBound(lit)
		lb, ok := enum.LowerBound(n.Value)
		if !ok {
			return newConstantNode(n.FieldName, AlwaysFalse), nil
		}
		lookup.Op, lookup.Value = GE, index(lb)
	}
	return lookup, nil
}

// encodeUintValue encodes v little-endian into width bytes.
func encodeUintValue(v uint64, width int) []byte {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], v)
	return append([]byte(nil), scratch[:width]...)
}

// String renders the subtree for diagnostics.
func (n *ASTNode) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.kind == valueNode {
		switch {
		case n.Op.IsInternal():
			return fmt.Sprintf("%s(%s)", n.Op, n.FieldName)
		case n.IsNullTest():
			if n.Op == EQ {
				return fmt.Sprintf("%s IS NULL", n.FieldName)
			}
			return fmt.Sprintf("%s IS NOT NULL", n.FieldName)
		case n.Op.IsSetOp():
			return fmt.Sprintf("%s %s <%d members>", n.FieldName, n.Op, len(n.Offsets))
		default:
			return fmt.Sprintf("%s %s 0x%x", n.FieldName, n.Op, n.Value)
		}
	}
	parts := make([]string, 0, len(n.Children))
	for _, child := range n.Children {
		parts = append(parts, child.String())
	}
	return "(" + strings.Join(parts, " "+n.Combination.String()+" ") + ")"
}

// physicalType resolves the comparison representation of the node's field.
func (n *ASTNode) physicalType(s *schema.Schema) (datatype.PhysicalType, error) {
	if n.FieldName == DeleteTimestampsField {
		return datatype.PhysUint64, nil
	}
	dt, err := s.Type(n.FieldName)
	if err != nil {
		return datatype.PhysInvalid, err
	}
	return datatype.Physical(dt, s.VarSize(n.FieldName))
}
