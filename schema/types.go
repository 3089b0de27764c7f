// Package schema resolves the semantic type of a dotted field path against an
// entity schema.
//
// Entity schemas are Arrow schemas built once at startup. Nested records are
// Arrow STRUCT fields and collections are LIST fields, so a path such as
// "author.fullName" resolves through the "author" struct to its "fullName" child.
package schema

import (
	"errors"

	"github.com/apache/arrow-go/v18/arrow"
)

// TypeTag is the semantic type family of a resolved field.
type TypeTag int

const (
	Unsupported TypeTag = iota
	Integer
	Long
	Double
	Boolean
	String
	Date
	DateTime
	// Collection is returned for multi-valued fields, including when a
	// collection appears in the middle of a path.
	Collection
	// Record is a nested struct field.
	Record
)

var tagNames = [...]string{
	Unsupported: "Unsupported",
	Integer:     "Integer",
	Long:        "Long",
	Double:      "Double",
	Boolean:     "Boolean",
	String:      "String",
	Date:        "Date",
	DateTime:    "DateTime",
	Collection:  "Collection",
	Record:      "Record",
}

func (t TypeTag) String() string {
	if t < 0 || int(t) >= len(tagNames) {
		return "Unsupported"
	}
	return tagNames[t]
}

// IsScalar reports whether values of the family are single comparable values.
func (t TypeTag) IsScalar() bool {
	switch t {
	case Integer, Long, Double, Boolean, String, Date, DateTime:
		return true
	}
	return false
}

// TagOf maps an Arrow data type to its type family.
func TagOf(dt arrow.DataType) TypeTag {
	if dt == nil {
		return Unsupported
	}

	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.UINT8, arrow.UINT16:
		return Integer
	case arrow.INT64, arrow.UINT32:
		return Long
	case arrow.FLOAT32, arrow.FLOAT64:
		return Double
	case arrow.BOOL:
		return Boolean
	case arrow.STRING, arrow.LARGE_STRING:
		return String
	case arrow.DATE32, arrow.DATE64:
		return Date
	case arrow.TIMESTAMP:
		return DateTime
	case arrow.LIST, arrow.LARGE_LIST, arrow.FIXED_SIZE_LIST:
		return Collection
	case arrow.STRUCT:
		return Record
	default:
		return Unsupported
	}
}

// ErrFieldNotFound indicates a path segment names a field absent from the schema.
var ErrFieldNotFound = errors.New("field not found")

// FieldError reports the path and the segment that could not be resolved.
type FieldError struct {
	Path    string
	Segment string
}

func (e *FieldError) Error() string {
	if e.Segment == e.Path {
		return ErrFieldNotFound.Error() + ": " + e.Path
	}
	return ErrFieldNotFound.Error() + ": " + e.Segment + " (in " + e.Path + ")"
}

func (e *FieldError) Unwrap() error { return ErrFieldNotFound }
