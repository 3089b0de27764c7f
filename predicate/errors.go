package predicate

import (
	"errors"
	"fmt"

	"github.com/hugr-lab/dynfilter/criteria"
	"github.com/hugr-lab/dynfilter/schema"
)

var (
	// ErrInvalidValue indicates a literal could not be parsed for the field's type family.
	ErrInvalidValue = errors.New("invalid filter value")
	// ErrUnsupportedOperation indicates an operator a strict type family rejects.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	errNoValues    = errors.New("no values")
	errRangeBounds = errors.New("range needs two values")
)

// ValueError reports a malformed numeric or date literal.
type ValueError struct {
	Path  string
	Value string
	Tag   schema.TypeTag
	Err   error
}

func (e *ValueError) Error() string {
	msg := fmt.Sprintf("%s: %s value %q for %s", ErrInvalidValue, e.Tag, e.Value, e.Path)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValueError) Unwrap() error { return ErrInvalidValue }

// OperationError reports an operator rejected by a type family.
type OperationError struct {
	Path     string
	Operator criteria.Operator
	Tag      schema.TypeTag
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s %q on %s", ErrUnsupportedOperation, e.Tag, e.Operator, e.Path)
}

func (e *OperationError) Unwrap() error { return ErrUnsupportedOperation }
