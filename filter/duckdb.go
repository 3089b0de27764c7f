package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DuckDBEncoder encodes filter expressions to DuckDB SQL syntax.
// It holds no per-call state and is safe for concurrent use.
type DuckDBEncoder struct {
	opts *EncoderOptions
}

// NewDuckDBEncoder creates a new DuckDB SQL encoder.
// If opts is nil, default options are used.
func NewDuckDBEncoder(opts *EncoderOptions) *DuckDBEncoder {
	if opts == nil {
		opts = &EncoderOptions{}
	}
	return &DuckDBEncoder{opts: opts}
}

// EncodeFilters converts filters to a WHERE clause body.
// Returns the condition portion without "WHERE" keyword.
// Returns empty string if no filters can be encoded.
func (e *DuckDBEncoder) EncodeFilters(filters ...Expression) string {
	var parts []string
	for _, filter := range filters {
		encoded := e.Encode(filter)
		if encoded != "" {
			parts = append(parts, encoded)
		}
	}

	if len(parts) == 0 {
		return ""
	}

	if len(parts) == 1 {
		return parts[0]
	}

	return "(" + strings.Join(parts, ") AND (") + ")"
}

// Encode converts a single expression to SQL.
// Returns empty string if expression is unsupported.
func (e *DuckDBEncoder) Encode(expr Expression) string {
	if expr == nil {
		return ""
	}

	switch ex := expr.(type) {
	case *ComparisonExpression:
		return e.encodeComparison(ex)
	case *ConjunctionExpression:
		return e.encodeConjunction(ex)
	case *ConstantExpression:
		return e.formatValue(ex.Value)
	case *ColumnRefExpression:
		return e.encodeColumnRef(ex)
	case *FunctionExpression:
		return e.encodeFunction(ex)
	case *BetweenExpression:
		return e.encodeBetween(ex)
	case *OperatorExpression:
		return e.encodeOperator(ex)
	default:
		return ""
	}
}

func (e *DuckDBEncoder) encodeComparison(c *ComparisonExpression) string {
	left := e.Encode(c.Left)
	right := e.Encode(c.Right)

	if left == "" || right == "" {
		return ""
	}

	switch c.Type() {
	case TypeCompareEqual:
		return left + " = " + right
	case TypeCompareNotEqual:
		return left + " <> " + right
	case TypeCompareLessThan:
		return left + " < " + right
	case TypeCompareGreaterThan:
		return left + " > " + right
	case TypeCompareLessThanOrEqual:
		return left + " <= " + right
	case TypeCompareGreaterThanOrEqual:
		return left + " >= " + right
	default:
		return ""
	}
}

// EncodeStrict encodes expr only if every node of it can be rendered.
// Unlike Encode it never drops an AND child, so the SQL selects no more rows
// than expr does. ok is false when any part is unsupported.
func (e *DuckDBEncoder) EncodeStrict(expr Expression) (sql string, ok bool) {
	if !e.renderable(expr) {
		return "", false
	}
	sql = e.Encode(expr)
	return sql, sql != ""
}

func (e *DuckDBEncoder) renderable(expr Expression) bool {
	var children []Expression
	switch x := expr.(type) {
	case nil:
		return false
	case *ConjunctionExpression:
		if len(x.Children) == 0 {
			return false
		}
		children = x.Children
	case *OperatorExpression:
		children = x.Children
	}
	for _, child := range children {
		if !e.renderable(child) {
			return false
		}
	}
	return e.Encode(expr) != ""
}

// encodeConjunction encodes AND/OR conjunctions.
func (e *DuckDBEncoder) encodeConjunction(c *ConjunctionExpression) string {
	var parts []string
	for _, child := range c.Children {
		encoded := e.Encode(child)
		if encoded != "" {
			parts = append(parts, encoded)
		}
	}

	// Handle unsupported expression rules:
	// - For OR: if any child is unsupported, skip entire OR
	// - For AND: skip unsupported children, keep others
	if c.Type() == TypeConjunctionOr {
		if len(parts) != len(c.Children) {
			return ""
		}
	}

	if len(parts) == 0 {
		return ""
	}

	if len(parts) == 1 {
		return parts[0]
	}

	op := " AND "
	if c.Type() == TypeConjunctionOr {
		op = " OR "
	}

	return "(" + strings.Join(parts, op) + ")"
}

func (e *DuckDBEncoder) encodeColumnRef(c *ColumnRefExpression) string {
	if c.Path == "" {
		return ""
	}

	// Check for expression mapping first (takes precedence)
	if e.opts.ColumnExpressions != nil {
		if expr, ok := e.opts.ColumnExpressions[c.Path]; ok {
			return expr
		}
	}

	if e.opts.ColumnMapping != nil {
		if mapped, ok := e.opts.ColumnMapping[c.Path]; ok {
			return quoteIdentifier(mapped)
		}
	}

	return QuotePath(c.Path)
}

// encodeFunction encodes a function expression. Only functions the
// evaluator understands are rendered.
func (e *DuckDBEncoder) encodeFunction(f *FunctionExpression) string {
	arity := 0
	switch f.Name {
	case FuncLower:
		arity = 1
	case FuncContains, FuncStartsWith:
		arity = 2
	default:
		return ""
	}
	if len(f.Children) != arity {
		return ""
	}

	var args []string
	for _, child := range f.Children {
		// String functions have no meaning over LIST or STRUCT columns.
		if ref, ok := child.(*ColumnRefExpression); ok && ref.ReturnType.ID.IsComplex() {
			return ""
		}
		encoded := e.Encode(child)
		if encoded == "" {
			return ""
		}
		args = append(args, encoded)
	}

	return f.Name + "(" + strings.Join(args, ", ") + ")"
}

// encodeBetween encodes a BETWEEN expression.
func (e *DuckDBEncoder) encodeBetween(b *BetweenExpression) string {
	input := e.Encode(b.Input)
	lower := e.Encode(b.Lower)
	upper := e.Encode(b.Upper)

	if input == "" || lower == "" || upper == "" {
		return ""
	}

	// Standard BETWEEN is always inclusive
	if b.LowerInclusive && b.UpperInclusive {
		return input + " BETWEEN " + lower + " AND " + upper
	}

	// For non-standard bounds, use comparison operators
	var conditions []string
	if b.LowerInclusive {
		conditions = append(conditions, input+" >= "+lower)
	} else {
		conditions = append(conditions, input+" > "+lower)
	}
	if b.UpperInclusive {
		conditions = append(conditions, input+" <= "+upper)
	} else {
		conditions = append(conditions, input+" < "+upper)
	}

	return "(" + strings.Join(conditions, " AND ") + ")"
}

// encodeOperator encodes operator expressions (IS NULL, IS NOT NULL, NOT, IN, NOT IN).
func (e *DuckDBEncoder) encodeOperator(o *OperatorExpression) string {
	if len(o.Children) == 0 {
		return ""
	}

	switch o.Type() {
	case TypeOperatorIsNull:
		child := e.Encode(o.Children[0])
		if child == "" {
			return ""
		}
		return child + " IS NULL"

	case TypeOperatorIsNotNull:
		child := e.Encode(o.Children[0])
		if child == "" {
			return ""
		}
		return child + " IS NOT NULL"

	case TypeOperatorNot:
		child := e.Encode(o.Children[0])
		if child == "" {
			return ""
		}
		return "NOT (" + child + ")"

	case TypeCompareIn:
		return e.encodeInOperator(o, false)

	case TypeCompareNotIn:
		return e.encodeInOperator(o, true)

	default:
		return ""
	}
}

// encodeInOperator encodes IN/NOT IN operator expressions.
// Format: children[0] = column, children[1...n] = values
func (e *DuckDBEncoder) encodeInOperator(o *OperatorExpression, notIn bool) string {
	if len(o.Children) < 2 {
		return ""
	}

	left := e.Encode(o.Children[0])
	if left == "" {
		return ""
	}

	var values []string
	for i := 1; i < len(o.Children); i++ {
		encoded := e.Encode(o.Children[i])
		if encoded == "" {
			return ""
		}
		values = append(values, encoded)
	}

	op := " IN "
	if notIn {
		op = " NOT IN "
	}

	return left + op + "(" + strings.Join(values, ", ") + ")"
}

// formatValue formats a Value as a SQL literal.
func (e *DuckDBEncoder) formatValue(v Value) string {
	if v.IsNull {
		return "NULL"
	}

	switch v.Type.ID {
	case TypeIDBoolean:
		return formatBoolValue(v.Data)
	case TypeIDInteger, TypeIDBigInt:
		return formatIntValue(v.Data)
	case TypeIDDouble:
		return formatFloatValue(v.Data)
	case TypeIDVarchar:
		return formatStringValue(v.Data)
	case TypeIDDate:
		return formatDateValue(v.Data)
	case TypeIDTimestamp:
		return formatTimestampValue(v.Data)
	default:
		return ""
	}
}

func formatBoolValue(data any) string {
	if b, ok := data.(bool); ok {
		if b {
			return "TRUE"
		}
		return "FALSE"
	}
	return ""
}

func formatIntValue(data any) string {
	switch v := data.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// formatFloatValue renders a DOUBLE literal. Integral values keep a
// fractional part so DuckDB types them as DOUBLE rather than INTEGER.
func formatFloatValue(data any) string {
	v, ok := data.(float64)
	if !ok {
		return ""
	}
	switch {
	case math.IsNaN(v):
		return "'nan'::DOUBLE"
	case math.IsInf(v, 1):
		return "'inf'::DOUBLE"
	case math.IsInf(v, -1):
		return "'-inf'::DOUBLE"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func formatStringValue(data any) string {
	if v, ok := data.(string); ok {
		return quoteLiteral(v)
	}
	return ""
}

func formatDateValue(data any) string {
	if t, ok := data.(time.Time); ok {
		return "DATE '" + t.UTC().Format("2006-01-02") + "'"
	}
	return ""
}

// formatTimestampValue renders a TIMESTAMP literal at microsecond precision,
// the resolution of DuckDB's TIMESTAMP type. Sub-microsecond digits are truncated.
func formatTimestampValue(data any) string {
	t, ok := data.(time.Time)
	if !ok {
		return ""
	}
	t = t.UTC()

	formatted := t.Format("2006-01-02 15:04:05")
	if micro := t.Nanosecond() / 1000; micro != 0 {
		formatted = fmt.Sprintf("%s.%06d", formatted, micro)
	}
	return "TIMESTAMP '" + formatted + "'"
}
