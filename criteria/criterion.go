// Package criteria parses the compact filter grammar used in listing requests.
//
// Each raw filter token has the form FIELD OP VALUE, for example:
//
//	age>18
//	status:active,pending
//	title-release
//	createdAt()2024-01-01,2024-01-31
//
// FIELD is a dotted field path ([\w.]+), OP is one of the operators below and
// VALUE is a raw literal ([\w\s(),.:-]+). Comma-separated values are
// multi-value literals; with the range operator the first two values bound an
// inclusive range.
package criteria

import "errors"

// Operator is a filter operator token.
type Operator string

const (
	OpEqual          Operator = ":"
	OpLess           Operator = "<"
	OpGreater        Operator = ">"
	OpLessOrEqual    Operator = "<="
	OpGreaterOrEqual Operator = ">="
	OpStartsWith     Operator = "%"
	OpContains       Operator = "-"
	OpRange          Operator = "()"

	// OpNotEqual cannot be written in the textual grammar. It is accepted by
	// the predicate compiler for programmatic criteria.
	OpNotEqual Operator = "!="
)

// Operators returns every operator known to the compiler, grammar operators first.
func Operators() []Operator {
	return []Operator{
		OpEqual, OpLess, OpGreater, OpLessOrEqual, OpGreaterOrEqual,
		OpStartsWith, OpContains, OpRange, OpNotEqual,
	}
}

// Criterion is one parsed filter instruction.
type Criterion struct {
	// Key is the dotted field path as written by the client (before remapping).
	Key string
	// Operator is the operator token.
	Operator Operator
	// Value is the raw literal, comma-separated for multi-value criteria.
	Value string
}

// String renders the criterion back into the textual grammar.
func (c Criterion) String() string {
	return c.Key + string(c.Operator) + c.Value
}

// ErrInvalidFormat indicates a raw filter token does not match the grammar.
var ErrInvalidFormat = errors.New("invalid filter format")

// FormatError reports the raw token that failed to parse.
type FormatError struct {
	Token string
}

func (e *FormatError) Error() string {
	return ErrInvalidFormat.Error() + ": " + quote(e.Token)
}

func (e *FormatError) Unwrap() error { return ErrInvalidFormat }

func quote(s string) string {
	return "'" + s + "'"
}
