package schema

import "bytes"

// Enumeration is a dictionary mapping small integer indices to byte values.
// Condition literals against enumerated attributes are rewritten to index
// comparisons before evaluation.
type Enumeration struct {
	name    string
	ordered bool
	values  [][]byte
	index   map[string]uint64
}

// NewEnumeration builds an enumeration from its values in index order.
// An ordered enumeration declares that index order is also value order,
// which enables range comparisons against the dictionary.
func NewEnumeration(name string, ordered bool, values [][]byte) *Enumeration {
	idx := make(map[string]uint64, len(values))
	for i, v := range values {
		idx[string(v)] = uint64(i)
	}
	return &Enumeration{name: name, ordered: ordered, values: values, index: idx}
}

// Name returns the enumeration name.
func (e *Enumeration) Name() string { return e.name }

// Ordered reports whether index order matches value order.
func (e *Enumeration) Ordered() bool { return e.ordered }

// Len returns the number of dictionary values.
func (e *Enumeration) Len() int { return len(e.values) }

// IndexOf returns the index of the given value, if present.
func (e *Enumeration) IndexOf(value []byte) (uint64, bool) {
	i, ok := e.index[string(value)]
	return i, ok
}

// Value returns the dictionary value at the given index.
func (e *Enumeration) Value(i uint64) []byte {
	if i >= uint64(len(e.values)) {
		return nil
	}
	return e.values[i]
}

// LowerBound returns the first index whose value is >= the given value.
// Only meaningful for ordered enumerations; the second return is false when
// every dictionary value is smaller.
func (e *Enumeration) LowerBound(value []byte) (uint64, bool) {
	for i, v := range e.values {
		if bytes.Compare(v, value) >= 0 {
			return uint64(i), true
		}
	}
	return 0, false
}

// UpperBound returns the first index whose value is > the given value.
// The second return is false when no dictionary value is greater.
func (e *Enumeration) UpperBound(value []byte) (uint64, bool) {
	for i, v := range e.values {
		if bytes.Compare(v, value) > 0 {
			return uint64(i), true
		}
	}
	return 0, false
}
