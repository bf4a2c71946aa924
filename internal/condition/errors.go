package condition

import "errors"

var (
	// ErrAlreadyInitialized is returned when Init is called on a condition
	// that already owns a tree.
	ErrAlreadyInitialized = errors.New("cannot reinitialize query condition")

	// ErrInternalOp is returned when ALWAYS_TRUE or ALWAYS_FALSE is passed to
	// a public constructor.
	ErrInternalOp = errors.New("operator is internal to the engine")

	// ErrNullOperator is returned when a null literal is combined with an
	// operator other than EQ or NE.
	ErrNullOperator = errors.New("null value can only be used with equality operators")

	// ErrInvalidCombination is returned when conditions are combined with an
	// operator other than AND or OR.
	ErrInvalidCombination = errors.New("only the AND and OR combination ops can combine conditions")

	// ErrUnevaluatedNot is returned when a literal NOT node reaches
	// evaluation. Negation rewrites trees eagerly, so this is unreachable
	// through the public API.
	ErrUnevaluatedNot = errors.New("NOT node reached evaluation; negation must rewrite the tree")

	// ErrLiteralSize is returned by Check when a literal does not match the
	// cell size of a fixed-size field.
	ErrLiteralSize = errors.New("condition literal size mismatch")

	// ErrComparison is returned when evaluation reaches a field whose
	// datatype has no comparison representation.
	ErrComparison = errors.New("unsupported datatype for query comparison")

	// ErrMalformedTree is returned by Check for structurally invalid trees
	// (fewer than two children under AND/OR, nil nodes).
	ErrMalformedTree = errors.New("malformed condition tree")

	// ErrDimensionSlabs is returned when slab apply encounters a condition
	// on a dimension field, which has no physical tile backing on that path.
	ErrDimensionSlabs = errors.New("cell-slab apply does not support dimension fields")

	// ErrDenseDimension is returned when dense apply evaluates a dimension
	// whose type is not integral or whose coordinates were not supplied.
	ErrDenseDimension = errors.New("dense apply requires integral dimensions with coordinates")
)
