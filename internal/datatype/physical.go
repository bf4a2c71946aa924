package datatype

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// PhysicalType is the comparison representation a datatype resolves to.
// Every apply strategy dispatches through this single mapping so the
// type-size switch exists in exactly one place.
type PhysicalType uint8

const (
	PhysInvalid PhysicalType = iota
	PhysInt8
	PhysInt16
	PhysInt32
	PhysInt64
	PhysUint8
	PhysUint16
	PhysUint32
	PhysUint64
	PhysFloat32
	PhysFloat64
	// PhysBytesFixed is a fixed-width character string compared bytewise.
	PhysBytesFixed
	// PhysBytes is a variable-length character string compared bytewise.
	PhysBytes
	// PhysRawBytes is an opaque byte string (UTF-8, blob) compared bytewise.
	PhysRawBytes
)

// ErrUnsupported is returned when a datatype has no comparison representation.
var ErrUnsupported = errors.New("datatype not supported for comparison")

// Physical maps a datatype and its var-sizedness to a comparison
// representation. Datatypes with no defined ordering (ANY, the wide string
// encodings, geometry) return ErrUnsupported; callers that only test for
// null-ness may bypass this mapping.
func Physical(d Datatype, varSize bool) (PhysicalType, error) {
	switch d {
	case Int8:
		return PhysInt8, nil
	case Int16:
		return PhysInt16, nil
	case Int32:
		return PhysInt32, nil
	case Int64:
		return PhysInt64, nil
	case Uint8, Bool:
		return PhysUint8, nil
	case Uint16:
		return PhysUint16, nil
	case Uint32:
		return PhysUint32, nil
	case Uint64:
		return PhysUint64, nil
	case Float32:
		return PhysFloat32, nil
	case Float64:
		return PhysFloat64, nil
	case DatetimeDay, DatetimeSec, DatetimeMS, DatetimeUS, DatetimeNS:
		return PhysInt64, nil
	case StringASCII:
		return PhysBytes, nil
	case Char:
		if varSize {
			return PhysBytes, nil
		}
		return PhysBytesFixed, nil
	case StringUTF8, Blob:
		return PhysRawBytes, nil
	default:
		return PhysInvalid, fmt.Errorf("%w: %s", ErrUnsupported, d)
	}
}

// IsBytes returns true for the bytewise-compared representations.
func (p PhysicalType) IsBytes() bool {
	switch p {
	case PhysBytesFixed, PhysBytes, PhysRawBytes:
		return true
	}
	return false
}

// CmpUnordered is returned by CompareValues when a float operand is NaN.
// NaN compares unordered against every value including itself, so no
// relational operator may treat it as equal, less, or greater.
const CmpUnordered = 2

// CompareValues compares two encoded values of this physical type.
// Returns -1, 0, or 1, or CmpUnordered for float comparisons involving NaN.
// Byte representations compare lexicographically over raw bytes with
// shorter-is-less tie breaking; numeric representations decode little-endian.
func (p PhysicalType) CompareValues(a, b []byte) int {
	switch p {
	case PhysInt8:
		return cmpOrdered(int8(a[0]), int8(b[0]))
	case PhysInt16:
		return cmpOrdered(int16(binary.LittleEndian.Uint16(a)), int16(binary.LittleEndian.Uint16(b)))
	case PhysInt32:
		return cmpOrdered(int32(binary.LittleEndian.Uint32(a)), int32(binary.LittleEndian.Uint32(b)))
	case PhysInt64:
		return cmpOrdered(int64(binary.LittleEndian.Uint64(a)), int64(binary.LittleEndian.Uint64(b)))
	case PhysUint8:
		return cmpOrdered(a[0], b[0])
	case PhysUint16:
		return cmpOrdered(binary.LittleEndian.Uint16(a), binary.LittleEndian.Uint16(b))
	case PhysUint32:
		return cmpOrdered(binary.LittleEndian.Uint32(a), binary.LittleEndian.Uint32(b))
	case PhysUint64:
		return cmpOrdered(binary.LittleEndian.Uint64(a), binary.LittleEndian.Uint64(b))
	case PhysFloat32:
		return cmpFloat(math.Float32frombits(binary.LittleEndian.Uint32(a)), math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case PhysFloat64:
		return cmpFloat(math.Float64frombits(binary.LittleEndian.Uint64(a)), math.Float64frombits(binary.LittleEndian.Uint64(b)))
	default:
		return cmpBytesLex(a, b)
	}
}

func cmpFloat[T float32 | float64](a, b T) int {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return CmpUnordered
	}
	return cmpOrdered(a, b)
}

func cmpOrdered[T int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// cmpBytesLex compares byte strings the way the byte-string comparators do:
// bytewise over the common prefix, then by length.
func cmpBytesLex(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
