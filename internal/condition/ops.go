// Package condition implements the query-condition evaluation engine: the
// expression tree over tile-resident columnar data, its negation and
// combination algebra, and the slab, dense, and sparse apply strategies.
package condition

import "fmt"

// Op is a relational or set operator carried by a value node.
//
// AlwaysTrue and AlwaysFalse are internal: they are produced by enumeration
// rewrites that resolve a literal to a constant and cannot be constructed
// through the public value-node API.
type Op uint8

const (
	LT Op = iota
	LE
	GT
	GE
	EQ
	NE
	In
	NotIn
	AlwaysTrue
	AlwaysFalse
)

var opNames = map[Op]string{
	LT:          "LT",
	LE:          "LE",
	GT:          "GT",
	GE:          "GE",
	EQ:          "EQ",
	NE:          "NE",
	In:          "IN",
	NotIn:       "NOT_IN",
	AlwaysTrue:  "ALWAYS_TRUE",
	AlwaysFalse: "ALWAYS_FALSE",
}

// String returns the canonical operator name.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("OP(%d)", uint8(o))
}

// IsValid returns true if the operator is a recognized value.
func (o Op) IsValid() bool {
	_, ok := opNames[o]
	return ok
}

// IsSetOp returns true for the set-membership operators.
func (o Op) IsSetOp() bool {
	return o == In || o == NotIn
}

// IsInternal returns true for operators that only the engine may construct.
func (o Op) IsInternal() bool {
	return o == AlwaysTrue || o == AlwaysFalse
}

// Negated returns the operator's logical complement.
func (o Op) Negated() Op {
	switch o {
	case LT:
		return GE
	case GE:
		return LT
	case LE:
		return GT
	case GT:
		return LE
	case EQ:
		return NE
	case NE:
		return EQ
	case In:
		return NotIn
	case NotIn:
		return In
	case AlwaysTrue:
		return AlwaysFalse
	default:
		return AlwaysTrue
	}
}

// CombinationOp combines subtrees in an expression node.
//
// NOT exists only transiently: negation rewrites trees eagerly, so a NOT node
// reaching evaluation is a programming error and is rejected.
type CombinationOp uint8

const (
	And CombinationOp = iota
	Or
	Not
)

var combinationNames = map[CombinationOp]string{
	And: "AND",
	Or:  "OR",
	Not: "NOT",
}

// String returns the canonical combination-operator name.
func (c CombinationOp) String() string {
	if name, ok := combinationNames[c]; ok {
		return name
	}
	return fmt.Sprintf("COMBINATION_OP(%d)", uint8(c))
}

// IsValid returns true if the combination operator is a recognized value.
func (c CombinationOp) IsValid() bool {
	_, ok := combinationNames[c]
	return ok
}

// Negated returns the De Morgan dual.
func (c CombinationOp) Negated() CombinationOp {
	switch c {
	case And:
		return Or
	case Or:
		return And
	default:
		return Not
	}
}
