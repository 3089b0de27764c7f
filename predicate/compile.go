// Package predicate compiles parsed criteria into filter expressions.
//
// Compilation is type directed: the field's type family (see package schema)
// selects an operator table, and the table decides what expression the
// operator produces. Every table lists every operator. A nil entry is an
// explicit no-op: the criterion contributes nothing and no error is raised.
package predicate

import (
	"strconv"
	"strings"
	"time"

	"github.com/hugr-lab/dynfilter/criteria"
	"github.com/hugr-lab/dynfilter/filter"
	"github.com/hugr-lab/dynfilter/schema"
)

// literal is one parsed value of a criterion.
type literal struct {
	constant filter.Expression
	// number is set for numeric families; ranges bound on it as DOUBLE.
	number float64
	// day is midnight UTC of the parsed calendar date for Date and DateTime.
	day time.Time
}

type (
	singleOp func(p *site, v literal) (filter.Expression, error)
	multiOp  func(p *site, vs []literal) (filter.Expression, error)
)

// site is the field a criterion is compiled against.
type site struct {
	path   string
	raw    string
	op     criteria.Operator
	tag    schema.TypeTag
	column *filter.ColumnRefExpression
}

type family struct {
	column filter.LogicalTypeID
	parse  func(raw string) (literal, error)
	single map[criteria.Operator]singleOp
	multi  map[criteria.Operator]multiOp

	// unknown handles operators missing from single; nil makes them no-ops.
	unknown singleOp
}

var families = map[schema.TypeTag]family{
	schema.Integer: {
		column: filter.TypeIDInteger,
		parse:  parseInteger,
		single: map[criteria.Operator]singleOp{
			criteria.OpEqual:          compare(filter.TypeCompareEqual),
			criteria.OpLess:           compare(filter.TypeCompareLessThan),
			criteria.OpGreater:        compare(filter.TypeCompareGreaterThan),
			criteria.OpLessOrEqual:    compare(filter.TypeCompareLessThanOrEqual),
			criteria.OpGreaterOrEqual: compare(filter.TypeCompareGreaterThanOrEqual),
			criteria.OpStartsWith:     nil,
			criteria.OpContains:       nil,
			criteria.OpRange:          nil,
			criteria.OpNotEqual:       notInOne,
		},
		multi: numericMulti,
	},
	schema.Long: {
		column: filter.TypeIDBigInt,
		parse:  parseLong,
		single: map[criteria.Operator]singleOp{
			criteria.OpEqual:          compare(filter.TypeCompareEqual),
			criteria.OpLess:           compare(filter.TypeCompareLessThan),
			criteria.OpGreater:        compare(filter.TypeCompareGreaterThan),
			criteria.OpLessOrEqual:    compare(filter.TypeCompareLessThanOrEqual),
			criteria.OpGreaterOrEqual: compare(filter.TypeCompareGreaterThanOrEqual),
			criteria.OpStartsWith:     nil,
			criteria.OpContains:       nil,
			criteria.OpRange:          nil,
			// Long has no single-value not-equal.
			criteria.OpNotEqual: nil,
		},
		multi: numericMulti,
	},
	schema.Double: {
		column: filter.TypeIDDouble,
		parse:  parseDouble,
		single: map[criteria.Operator]singleOp{
			criteria.OpEqual:          compare(filter.TypeCompareEqual),
			criteria.OpLess:           compare(filter.TypeCompareLessThan),
			criteria.OpGreater:        compare(filter.TypeCompareGreaterThan),
			criteria.OpLessOrEqual:    compare(filter.TypeCompareLessThanOrEqual),
			criteria.OpGreaterOrEqual: compare(filter.TypeCompareGreaterThanOrEqual),
			criteria.OpStartsWith:     nil,
			criteria.OpContains:       nil,
			criteria.OpRange:          nil,
			criteria.OpNotEqual:       notInOne,
		},
		multi: numericMulti,
	},
	schema.Boolean: {
		column: filter.TypeIDBoolean,
		parse:  parseBoolean,
		single: map[criteria.Operator]singleOp{
			criteria.OpEqual:          compare(filter.TypeCompareEqual),
			criteria.OpLess:           rejectSingle,
			criteria.OpGreater:        rejectSingle,
			criteria.OpLessOrEqual:    rejectSingle,
			criteria.OpGreaterOrEqual: rejectSingle,
			criteria.OpStartsWith:     rejectSingle,
			criteria.OpContains:       rejectSingle,
			criteria.OpRange:          rejectSingle,
			criteria.OpNotEqual:       rejectSingle,
		},
		// A comma does not make a boolean multi-valued; the whole text is
		// parsed as one value.
		multi:   nil,
		unknown: rejectSingle,
	},
	schema.String: {
		column: filter.TypeIDVarchar,
		parse:  parseString,
		single: map[criteria.Operator]singleOp{
			criteria.OpEqual:          lowerCompare(filter.TypeCompareEqual),
			criteria.OpLess:           nil,
			criteria.OpGreater:        nil,
			criteria.OpLessOrEqual:    nil,
			criteria.OpGreaterOrEqual: nil,
			criteria.OpStartsWith:     lowerFunc(filter.FuncStartsWith),
			criteria.OpContains:       lowerFunc(filter.FuncContains),
			criteria.OpRange:          nil,
			criteria.OpNotEqual:       nil,
		},
		// Multi-value strings are an exact IN list whatever the operator.
		multi: map[criteria.Operator]multiOp{
			criteria.OpEqual:          in,
			criteria.OpLess:           in,
			criteria.OpGreater:        in,
			criteria.OpLessOrEqual:    in,
			criteria.OpGreaterOrEqual: in,
			criteria.OpStartsWith:     in,
			criteria.OpContains:       in,
			criteria.OpRange:          in,
			criteria.OpNotEqual:       in,
		},
	},
	schema.Date: {
		column: filter.TypeIDDate,
		parse:  parseDate,
		single: map[criteria.Operator]singleOp{
			criteria.OpEqual:          compare(filter.TypeCompareEqual),
			criteria.OpLess:           compare(filter.TypeCompareLessThan),
			criteria.OpGreater:        compare(filter.TypeCompareGreaterThan),
			criteria.OpLessOrEqual:    compare(filter.TypeCompareLessThanOrEqual),
			criteria.OpGreaterOrEqual: compare(filter.TypeCompareGreaterThanOrEqual),
			criteria.OpStartsWith:     nil,
			criteria.OpContains:       nil,
			criteria.OpRange:          nil,
			criteria.OpNotEqual:       nil,
		},
		multi: map[criteria.Operator]multiOp{
			criteria.OpEqual:          in,
			criteria.OpLess:           nil,
			criteria.OpGreater:        nil,
			criteria.OpLessOrEqual:    nil,
			criteria.OpGreaterOrEqual: nil,
			criteria.OpStartsWith:     nil,
			criteria.OpContains:       nil,
			criteria.OpRange:          dateRange,
			criteria.OpNotEqual:       nil,
		},
	},
	schema.DateTime: {
		column: filter.TypeIDTimestamp,
		parse:  parseDate,
		single: map[criteria.Operator]singleOp{
			criteria.OpEqual:          wholeDay,
			criteria.OpLess:           compareAt(filter.TypeCompareLessThan, startOfDay),
			criteria.OpGreater:        compareAt(filter.TypeCompareGreaterThan, endOfDay),
			criteria.OpLessOrEqual:    compareAt(filter.TypeCompareLessThanOrEqual, endOfDay),
			criteria.OpGreaterOrEqual: compareAt(filter.TypeCompareGreaterThanOrEqual, startOfDay),
			criteria.OpStartsWith:     nil,
			criteria.OpContains:       nil,
			criteria.OpRange:          nil,
			criteria.OpNotEqual:       nil,
		},
		multi: map[criteria.Operator]multiOp{
			criteria.OpEqual:          dayStarts,
			criteria.OpLess:           nil,
			criteria.OpGreater:        nil,
			criteria.OpLessOrEqual:    nil,
			criteria.OpGreaterOrEqual: nil,
			criteria.OpStartsWith:     nil,
			criteria.OpContains:       nil,
			criteria.OpRange:          dayRange,
			criteria.OpNotEqual:       nil,
		},
	},
}

var numericMulti = map[criteria.Operator]multiOp{
	criteria.OpEqual:          in,
	criteria.OpLess:           nil,
	criteria.OpGreater:        nil,
	criteria.OpLessOrEqual:    nil,
	criteria.OpGreaterOrEqual: nil,
	criteria.OpStartsWith:     nil,
	criteria.OpContains:       nil,
	criteria.OpRange:          numberRange,
	criteria.OpNotEqual:       notIn,
}

// Compile builds the expression for one criterion against the field at path
// whose type family is tag.
//
// A nil expression with a nil error means the combination of type family and
// operator contributes nothing. Malformed numeric and date literals return a
// *ValueError; operators rejected by the Boolean family return an *OperationError.
func Compile(path string, op criteria.Operator, raw string, tag schema.TypeTag) (filter.Expression, error) {
	fam, ok := families[tag]
	if !ok {
		return nil, nil
	}

	p := &site{
		path:   path,
		raw:    raw,
		op:     op,
		tag:    tag,
		column: filter.Column(path, fam.column),
	}

	if fam.multi != nil && strings.Contains(raw, ",") {
		values, err := p.parseAll(fam.parse, raw)
		if err != nil {
			return nil, err
		}
		h := fam.multi[op]
		if h == nil {
			return nil, nil
		}
		return h(p, values)
	}

	v, err := p.parse(fam.parse, raw)
	if err != nil {
		return nil, err
	}
	h, listed := fam.single[op]
	if !listed {
		h = fam.unknown
	}
	if h == nil {
		return nil, nil
	}
	return h(p, v)
}

func (p *site) parse(parse func(string) (literal, error), raw string) (literal, error) {
	v, err := parse(raw)
	if err != nil {
		return literal{}, &ValueError{Path: p.path, Value: raw, Tag: p.tag, Err: unwrapNum(err)}
	}
	return v, nil
}

func (p *site) parseAll(parse func(string) (literal, error), raw string) ([]literal, error) {
	parts := splitValues(raw)
	if len(parts) == 0 {
		return nil, &ValueError{Path: p.path, Value: raw, Tag: p.tag, Err: errNoValues}
	}

	values := make([]literal, 0, len(parts))
	for _, part := range parts {
		v, err := p.parse(parse, part)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// splitValues splits a multi-value literal on commas. Empty trailing elements
// are dropped, inner empty elements are kept so they fail to parse.
func splitValues(raw string) []string {
	parts := strings.Split(raw, ",")
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func unwrapNum(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}

func parseInteger(raw string) (literal, error) {
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return literal{}, err
	}
	return literal{constant: filter.Int(int32(n)), number: float64(n)}, nil
}

func parseLong(raw string) (literal, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return literal{}, err
	}
	return literal{constant: filter.BigInt(n), number: float64(n)}, nil
}

// parseDouble ignores surrounding whitespace, integers are accepted too.
func parseDouble(raw string) (literal, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return literal{}, err
	}
	return literal{constant: filter.Double(f), number: f}, nil
}

// parseBoolean never fails: "true" in any letter case is true, any other text is false.
func parseBoolean(raw string) (literal, error) {
	return literal{constant: filter.Bool(strings.EqualFold(raw, "true"))}, nil
}

func parseString(raw string) (literal, error) {
	return literal{constant: filter.String(raw)}, nil
}

// parseDate accepts ISO calendar dates (2024-01-15).
func parseDate(raw string) (literal, error) {
	day, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return literal{}, err
	}
	return literal{constant: filter.Date(day), day: day}, nil
}

func startOfDay(day time.Time) time.Time { return day }

// endOfDay is the last representable instant of the day.
func endOfDay(day time.Time) time.Time { return day.AddDate(0, 0, 1).Add(-time.Nanosecond) }

func compare(typ filter.ExpressionType) singleOp {
	return func(p *site, v literal) (filter.Expression, error) {
		return filter.Compare(typ, p.column, v.constant), nil
	}
}

func compareAt(typ filter.ExpressionType, at func(time.Time) time.Time) singleOp {
	return func(p *site, v literal) (filter.Expression, error) {
		return filter.Compare(typ, p.column, filter.Timestamp(at(v.day))), nil
	}
}

func lowerCompare(typ filter.ExpressionType) singleOp {
	return func(p *site, v literal) (filter.Expression, error) {
		return filter.Compare(typ, filter.Lower(p.column), filter.Lower(v.constant)), nil
	}
}

func lowerFunc(name string) singleOp {
	return func(p *site, v literal) (filter.Expression, error) {
		return filter.Func(name, filter.Lower(p.column), filter.Lower(v.constant)), nil
	}
}

func notInOne(p *site, v literal) (filter.Expression, error) {
	return filter.NotIn(p.column, v.constant), nil
}

func rejectSingle(p *site, _ literal) (filter.Expression, error) {
	return nil, &OperationError{Path: p.path, Operator: p.op, Tag: p.tag}
}

func wholeDay(p *site, v literal) (filter.Expression, error) {
	return filter.Between(p.column, filter.Timestamp(startOfDay(v.day)), filter.Timestamp(endOfDay(v.day))), nil
}

func in(p *site, vs []literal) (filter.Expression, error) {
	return filter.In(p.column, constants(vs)...), nil
}

func notIn(p *site, vs []literal) (filter.Expression, error) {
	return filter.NotIn(p.column, constants(vs)...), nil
}

func dayStarts(p *site, vs []literal) (filter.Expression, error) {
	values := make([]filter.Expression, len(vs))
	for i, v := range vs {
		values[i] = filter.Timestamp(startOfDay(v.day))
	}
	return filter.In(p.column, values...), nil
}

// numberRange bounds on the first two values as DOUBLE; extra values are ignored.
func numberRange(p *site, vs []literal) (filter.Expression, error) {
	if err := p.checkRange(vs); err != nil {
		return nil, err
	}
	return filter.Between(p.column, filter.Double(vs[0].number), filter.Double(vs[1].number)), nil
}

func dateRange(p *site, vs []literal) (filter.Expression, error) {
	if err := p.checkRange(vs); err != nil {
		return nil, err
	}
	return filter.Between(p.column, vs[0].constant, vs[1].constant), nil
}

func dayRange(p *site, vs []literal) (filter.Expression, error) {
	if err := p.checkRange(vs); err != nil {
		return nil, err
	}
	return filter.Between(p.column, filter.Timestamp(startOfDay(vs[0].day)), filter.Timestamp(endOfDay(vs[1].day))), nil
}

func (p *site) checkRange(vs []literal) error {
	if len(vs) < 2 {
		return &ValueError{Path: p.path, Value: p.raw, Tag: p.tag, Err: errRangeBounds}
	}
	return nil
}

func constants(vs []literal) []filter.Expression {
	out := make([]filter.Expression, len(vs))
	for i, v := range vs {
		out[i] = v.constant
	}
	return out
}
