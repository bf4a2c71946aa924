// Package datatype defines the physical datatypes stored in tiles and the
// mapping from datatypes to the comparison representations used by the
// condition engine.
package datatype

import "fmt"

// Datatype identifies the physical type of an attribute or dimension.
type Datatype uint8

const (
	Int8 Datatype = iota
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Char
	Bool
	StringASCII
	StringUTF8
	StringUTF16
	StringUTF32
	StringUCS2
	StringUCS4
	DatetimeDay
	DatetimeSec
	DatetimeMS
	DatetimeUS
	DatetimeNS
	Blob
	GeomWKB
	GeomWKT
	Any
)

var datatypeNames = map[Datatype]string{
	Int8:        "INT8",
	Int16:       "INT16",
	Int32:       "INT32",
	Int64:       "INT64",
	Uint8:       "UINT8",
	Uint16:      "UINT16",
	Uint32:      "UINT32",
	Uint64:      "UINT64",
	Float32:     "FLOAT32",
	Float64:     "FLOAT64",
	Char:        "CHAR",
	Bool:        "BOOL",
	StringASCII: "STRING_ASCII",
	StringUTF8:  "STRING_UTF8",
	StringUTF16: "STRING_UTF16",
	StringUTF32: "STRING_UTF32",
	StringUCS2:  "STRING_UCS2",
	StringUCS4:  "STRING_UCS4",
	DatetimeDay: "DATETIME_DAY",
	DatetimeSec: "DATETIME_SEC",
	DatetimeMS:  "DATETIME_MS",
	DatetimeUS:  "DATETIME_US",
	DatetimeNS:  "DATETIME_NS",
	Blob:        "BLOB",
	GeomWKB:     "GEOM_WKB",
	GeomWKT:     "GEOM_WKT",
	Any:         "ANY",
}

// String returns the canonical name of the datatype.
func (d Datatype) String() string {
	if name, ok := datatypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DATATYPE(%d)", uint8(d))
}

// IsValid returns true if the datatype is a recognized value.
func (d Datatype) IsValid() bool {
	_, ok := datatypeNames[d]
	return ok
}

// ValueSize returns the size in bytes of a single value of this datatype,
// or 0 for byte-string types whose cells are sized by offsets.
func (d Datatype) ValueSize() int {
	switch d {
	case Int8, Uint8, Char, Bool, StringASCII, StringUTF8, Blob:
		return 1
	case Int16, Uint16, StringUCS2, StringUTF16:
		return 2
	case Int32, Uint32, Float32, StringUTF32, StringUCS4:
		return 4
	case Int64, Uint64, Float64,
		DatetimeDay, DatetimeSec, DatetimeMS, DatetimeUS, DatetimeNS:
		return 8
	default:
		return 0
	}
}

// IsDatetime returns true for the datetime family.
func (d Datatype) IsDatetime() bool {
	switch d {
	case DatetimeDay, DatetimeSec, DatetimeMS, DatetimeUS, DatetimeNS:
		return true
	}
	return false
}

// IsIntegral returns true for types whose values are whole numbers. Only
// integral dimension types can be compared against synthetic coordinates.
func (d Datatype) IsIntegral() bool {
	switch d {
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64:
		return true
	}
	return d.IsDatetime()
}
