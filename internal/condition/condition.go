package condition

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/cubedb/cube/internal/schema"
)

// DeleteTimestampsField is the synthetic field name a delete condition may
// reference. It compares each cell's delete timestamp instead of attribute
// data and is resolved against fragment metadata at evaluation time.
const DeleteTimestampsField = "__delete_timestamps"

// Condition is a query condition: an expression tree over attribute and
// dimension values, plus the marker and ordinal that identify it when it is
// persisted as a delete condition.
type Condition struct {
	tree    *ASTNode
	marker  string
	ordinal uint64

	fieldsOnce sync.Once
	fields     []string
}

// New creates an empty condition with a fresh marker.
func New() *Condition {
	return &Condition{marker: uuid.NewString()}
}

// Init initializes the condition with a single relational clause. A nil value
// encodes a null test and requires EQ or NE.
func (c *Condition) Init(fieldName string, op Op, value []byte) error {
	if c.tree != nil {
		return ErrAlreadyInitialized
	}
	n, err := NewValueNode(fieldName, op, value)
	if err != nil {
		return err
	}
	c.tree = n
	return nil
}

// InitSet initializes the condition with a set-membership clause.
func (c *Condition) InitSet(fieldName string, op Op, members [][]byte) error {
	if c.tree != nil {
		return ErrAlreadyInitialized
	}
	n, err := NewSetNode(fieldName, op, members)
	if err != nil {
		return err
	}
	c.tree = n
	return nil
}

// Empty reports whether the condition has no clauses.
func (c *Condition) Empty() bool { return c == nil || c.tree == nil }

// AST returns the condition's root node.
func (c *Condition) AST() *ASTNode { return c.tree }

// SetAST installs a prebuilt tree. Used by deserialization and rewrites.
func (c *Condition) SetAST(n *ASTNode) { c.tree = n; c.resetFields() }

// Marker returns the identifier that ties a persisted delete condition to
// fragment metadata.
func (c *Condition) Marker() string { return c.marker }

// SetMarker overrides the marker. Used when loading a persisted condition.
func (c *Condition) SetMarker(m string) { c.marker = m }

// Ordinal returns the position of the condition among a fragment's delete
// conditions.
func (c *Condition) Ordinal() uint64 { return c.ordinal }

// SetOrdinal records the condition's position among a fragment's delete
// conditions.
func (c *Condition) SetOrdinal(o uint64) { c.ordinal = o }

// Clone returns a deep copy sharing no state with the receiver.
func (c *Condition) Clone() *Condition {
	if c == nil {
		return nil
	}
	return &Condition{tree: c.tree.Clone(), marker: c.marker, ordinal: c.ordinal}
}

// Combine joins two conditions under AND or OR, flattening chains of the same
// operator. Neither input is modified.
func (c *Condition) Combine(other *Condition, op CombinationOp) (*Condition, error) {
	if op != And && op != Or {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidCombination, op)
	}
	if c.Empty() || other.Empty() {
		return nil, fmt.Errorf("%w: cannot combine an empty condition", ErrMalformedTree)
	}
	return &Condition{
		tree:   combineAST(c.tree, other.tree, op),
		marker: uuid.NewString(),
	}, nil
}

// Negate returns the logical complement of the condition. Negation is applied
// eagerly: operators are complemented and AND/OR swapped, so the result never
// carries a NOT node.
func (c *Condition) Negate() *Condition {
	if c.Empty() {
		return c.Clone()
	}
	return &Condition{tree: c.tree.Negate(), marker: c.marker, ordinal: c.ordinal}
}

// Check validates the condition against the schema.
func (c *Condition) Check(s *schema.Schema) error {
	if c.Empty() {
		return nil
	}
	return c.tree.check(s)
}

// RewriteForSchema returns a copy with every clause on an enumerated
// attribute translated into a comparison over dictionary indices. Literals
// absent from the dictionary collapse to constants.
func (c *Condition) RewriteForSchema(s *schema.Schema) (*Condition, error) {
	if c.Empty() {
		return c.Clone(), nil
	}
	tree, err := c.tree.rewriteForSchema(s)
	if err != nil {
		return nil, err
	}
	return &Condition{tree: tree, marker: c.marker, ordinal: c.ordinal}, nil
}

// FieldNames returns the sorted set of field names the condition references.
// The result is computed once and cached.
func (c *Condition) FieldNames() []string {
	if c.Empty() {
		return nil
	}
	c.fieldsOnce.Do(func() {
		set := make(map[string]struct{})
		c.tree.fieldNames(set)
		c.fields = make([]string, 0, len(set))
		for name := range set {
			c.fields = append(c.fields, name)
		}
		sort.Strings(c.fields)
	})
	return c.fields
}

// UsesEnumeration reports whether any referenced attribute carries an
// enumeration in the schema.
func (c *Condition) UsesEnumeration(s *schema.Schema) bool {
	for _, name := range c.FieldNames() {
		if attr := s.Attribute(name); attr != nil && attr.EnumerationName != "" {
			return true
		}
	}
	return false
}

// Fingerprint returns a stable hash of the condition's tree, marker and
// ordinal, suitable for deduplicating persisted delete conditions.
func (c *Condition) Fingerprint() uint64 {
	return xxhash.Sum64(c.Encode())
}

// String renders the condition for diagnostics.
func (c *Condition) String() string {
	if c.Empty() {
		return "<empty>"
	}
	return c.tree.String()
}

func (c *Condition) resetFields() {
	c.fieldsOnce = sync.Once{}
	c.fields = nil
}
