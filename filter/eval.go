package filter

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	// ErrUnsupportedExpression is returned when an expression cannot be evaluated in memory.
	ErrUnsupportedExpression = errors.New("unsupported expression")
	// ErrNotComparable is returned when two values of unrelated types are compared.
	ErrNotComparable = errors.New("values are not comparable")
)

// Row gives the evaluator access to field values by dotted path.
type Row interface {
	// Lookup returns the value at path. A missing field and a nil value are both
	// treated as SQL NULL.
	Lookup(path string) (any, bool)
}

// MapRow is a Row backed by nested maps; "author.fullName" reads
// row["author"].(map[string]any)["fullName"].
type MapRow map[string]any

// Lookup implements Row.
func (r MapRow) Lookup(path string) (any, bool) {
	var cur any = map[string]any(r)
	for _, segment := range strings.Split(path, ".") {
		var m map[string]any
		switch v := cur.(type) {
		case map[string]any:
			m = v
		case MapRow:
			m = v
		default:
			return nil, false
		}
		var ok bool
		if cur, ok = m[segment]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// truth is a three-valued logic result.
type truth uint8

const (
	unknown truth = iota
	falsy
	truthy
)

func truthOf(b bool) truth {
	if b {
		return truthy
	}
	return falsy
}

// Evaluate reports whether row satisfies expr. Comparisons involving NULL are
// unknown and unknown is not a match, as in a SQL WHERE clause.
// A nil expression matches every row.
func Evaluate(expr Expression, row Row) (bool, error) {
	if expr == nil {
		return true, nil
	}
	t, err := evalTruth(expr, row)
	if err != nil {
		return false, err
	}
	return t == truthy, nil
}

func evalTruth(expr Expression, row Row) (truth, error) {
	switch ex := expr.(type) {
	case *ComparisonExpression:
		return evalComparison(ex, row)
	case *ConjunctionExpression:
		return evalConjunction(ex, row)
	case *BetweenExpression:
		return evalBetween(ex, row)
	case *OperatorExpression:
		return evalOperator(ex, row)
	case *ConstantExpression, *ColumnRefExpression, *FunctionExpression:
		v, err := evalValue(expr, row)
		if err != nil {
			return unknown, err
		}
		if v == nil {
			return unknown, nil
		}
		b, ok := v.(bool)
		if !ok {
			return unknown, fmt.Errorf("%w: %T used as a condition", ErrUnsupportedExpression, v)
		}
		return truthOf(b), nil
	default:
		return unknown, fmt.Errorf("%w: %T", ErrUnsupportedExpression, expr)
	}
}

func evalComparison(c *ComparisonExpression, row Row) (truth, error) {
	left, err := evalValue(c.Left, row)
	if err != nil {
		return unknown, err
	}
	right, err := evalValue(c.Right, row)
	if err != nil {
		return unknown, err
	}
	if left == nil || right == nil {
		return unknown, nil
	}

	n, err := CompareValues(left, right)
	if err != nil {
		return unknown, err
	}

	switch c.Type() {
	case TypeCompareEqual:
		return truthOf(n == 0), nil
	case TypeCompareNotEqual:
		return truthOf(n != 0), nil
	case TypeCompareLessThan:
		return truthOf(n < 0), nil
	case TypeCompareGreaterThan:
		return truthOf(n > 0), nil
	case TypeCompareLessThanOrEqual:
		return truthOf(n <= 0), nil
	case TypeCompareGreaterThanOrEqual:
		return truthOf(n >= 0), nil
	default:
		return unknown, fmt.Errorf("%w: comparison %s", ErrUnsupportedExpression, c.Type())
	}
}

func evalConjunction(c *ConjunctionExpression, row Row) (truth, error) {
	isOr := c.Type() == TypeConjunctionOr
	if !isOr && c.Type() != TypeConjunctionAnd {
		return unknown, fmt.Errorf("%w: conjunction %s", ErrUnsupportedExpression, c.Type())
	}

	// AND is decided by the first false child, OR by the first true one.
	decisive, result := falsy, truthy
	if isOr {
		decisive, result = truthy, falsy
	}
	for _, child := range c.Children {
		t, err := evalTruth(child, row)
		if err != nil {
			return unknown, err
		}
		if t == decisive {
			return decisive, nil
		}
		if t == unknown {
			result = unknown
		}
	}
	return result, nil
}

func evalBetween(b *BetweenExpression, row Row) (truth, error) {
	input, err := evalValue(b.Input, row)
	if err != nil {
		return unknown, err
	}
	lower, err := evalValue(b.Lower, row)
	if err != nil {
		return unknown, err
	}
	upper, err := evalValue(b.Upper, row)
	if err != nil {
		return unknown, err
	}
	if input == nil || lower == nil || upper == nil {
		return unknown, nil
	}

	lo, err := CompareValues(input, lower)
	if err != nil {
		return unknown, err
	}
	hi, err := CompareValues(input, upper)
	if err != nil {
		return unknown, err
	}

	aboveLower := lo > 0 || (b.LowerInclusive && lo == 0)
	belowUpper := hi < 0 || (b.UpperInclusive && hi == 0)
	return truthOf(aboveLower && belowUpper), nil
}

func evalOperator(o *OperatorExpression, row Row) (truth, error) {
	if len(o.Children) == 0 {
		return unknown, fmt.Errorf("%w: %s without operands", ErrUnsupportedExpression, o.Type())
	}

	switch o.Type() {
	case TypeOperatorIsNull, TypeOperatorIsNotNull:
		v, err := evalValue(o.Children[0], row)
		if err != nil {
			return unknown, err
		}
		return truthOf((v == nil) == (o.Type() == TypeOperatorIsNull)), nil

	case TypeOperatorNot:
		t, err := evalTruth(o.Children[0], row)
		if err != nil {
			return unknown, err
		}
		switch t {
		case truthy:
			return falsy, nil
		case falsy:
			return truthy, nil
		}
		return unknown, nil

	case TypeCompareIn, TypeCompareNotIn:
		found, err := evalIn(o, row)
		if err != nil || found == unknown {
			return unknown, err
		}
		if o.Type() == TypeCompareNotIn {
			return truthOf(found == falsy), nil
		}
		return found, nil

	default:
		return unknown, fmt.Errorf("%w: operator %s", ErrUnsupportedExpression, o.Type())
	}
}

// evalIn reports whether Children[0] equals any of the remaining children.
func evalIn(o *OperatorExpression, row Row) (truth, error) {
	input, err := evalValue(o.Children[0], row)
	if err != nil || input == nil {
		return unknown, err
	}

	sawNull := false
	for _, child := range o.Children[1:] {
		v, err := evalValue(child, row)
		if err != nil {
			return unknown, err
		}
		if v == nil {
			sawNull = true
			continue
		}
		n, err := CompareValues(input, v)
		if err != nil {
			return unknown, err
		}
		if n == 0 {
			return truthy, nil
		}
	}
	if sawNull {
		return unknown, nil
	}
	return falsy, nil
}

// evalValue computes the scalar value of expr. nil stands for NULL.
func evalValue(expr Expression, row Row) (any, error) {
	switch ex := expr.(type) {
	case *ConstantExpression:
		if ex.Value.IsNull {
			return nil, nil
		}
		return normalize(ex.Value.Data), nil

	case *ColumnRefExpression:
		if row == nil {
			return nil, nil
		}
		v, ok := row.Lookup(ex.Path)
		if !ok {
			return nil, nil
		}
		return normalize(v), nil

	case *FunctionExpression:
		return evalFunction(ex, row)

	default:
		t, err := evalTruth(expr, row)
		if err != nil || t == unknown {
			return nil, err
		}
		return t == truthy, nil
	}
}

func evalFunction(f *FunctionExpression, row Row) (any, error) {
	args := make([]string, 0, len(f.Children))
	for _, child := range f.Children {
		v, err := evalValue(child, row)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s(%T)", ErrUnsupportedExpression, f.Name, v)
		}
		args = append(args, s)
	}

	switch {
	case f.Name == FuncLower && len(args) == 1:
		return strings.ToLower(args[0]), nil
	case f.Name == FuncContains && len(args) == 2:
		return strings.Contains(args[0], args[1]), nil
	case f.Name == FuncStartsWith && len(args) == 2:
		return strings.HasPrefix(args[0], args[1]), nil
	default:
		return nil, fmt.Errorf("%w: function %s/%d", ErrUnsupportedExpression, f.Name, len(args))
	}
}

// normalize widens Go scalars to int64, float64, string, bool or time.Time.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint:
		if uint64(x) > math.MaxInt64 {
			return float64(x)
		}
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return float64(x)
		}
		return int64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}

// CompareValues orders two non-NULL values. Integers and floats compare
// numerically with each other; strings, booleans and times compare within
// their own kind. Any other pairing fails with ErrNotComparable.
func CompareValues(a, b any) (int, error) {
	a, b = normalize(a), normalize(b)

	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return cmp.Compare(x, y), nil
		case float64:
			return cmp.Compare(float64(x), y), nil
		}
	case float64:
		switch y := b.(type) {
		case float64:
			return cmp.Compare(x, y), nil
		case int64:
			return cmp.Compare(x, float64(y)), nil
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, nil
			case !x:
				return -1, nil
			default:
				return 1, nil
			}
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), nil
		}
	}
	return 0, fmt.Errorf("%w: %T and %T", ErrNotComparable, a, b)
}
