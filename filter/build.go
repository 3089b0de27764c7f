package filter

import "time"

// Column returns a reference to the field at path.
func Column(path string, typ LogicalTypeID) *ColumnRefExpression {
	return &ColumnRefExpression{
		BaseExpression: BaseExpression{ExprClass: ClassBoundColumnRef, ExprType: TypeBoundColumnRef},
		Path:           path,
		ReturnType:     LogicalType{ID: typ},
	}
}

// Constant returns a literal of the given type. A nil data value yields a NULL constant.
func Constant(typ LogicalTypeID, data any) *ConstantExpression {
	return &ConstantExpression{
		BaseExpression: BaseExpression{ExprClass: ClassBoundConstant, ExprType: TypeValueConstant},
		Value: Value{
			Type:   LogicalType{ID: typ},
			IsNull: data == nil,
			Data:   data,
		},
	}
}

// Bool returns a BOOLEAN constant.
func Bool(v bool) *ConstantExpression { return Constant(TypeIDBoolean, v) }

// Int returns an INTEGER constant.
func Int(v int32) *ConstantExpression { return Constant(TypeIDInteger, v) }

// BigInt returns a BIGINT constant.
func BigInt(v int64) *ConstantExpression { return Constant(TypeIDBigInt, v) }

// Double returns a DOUBLE constant.
func Double(v float64) *ConstantExpression { return Constant(TypeIDDouble, v) }

// String returns a VARCHAR constant.
func String(v string) *ConstantExpression { return Constant(TypeIDVarchar, v) }

// Date returns a DATE constant for the calendar day of v in UTC.
func Date(v time.Time) *ConstantExpression {
	v = v.UTC()
	return Constant(TypeIDDate, time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC))
}

// Timestamp returns a TIMESTAMP constant.
func Timestamp(v time.Time) *ConstantExpression { return Constant(TypeIDTimestamp, v.UTC()) }

// True returns the always-true predicate.
func True() *ConstantExpression { return Bool(true) }

// IsTrue reports whether expr is the always-true predicate.
func IsTrue(expr Expression) bool {
	c, ok := expr.(*ConstantExpression)
	if !ok || c.Value.IsNull || c.Value.Type.ID != TypeIDBoolean {
		return false
	}
	b, _ := c.Value.Data.(bool)
	return b
}

// Compare returns a binary comparison of the given type.
func Compare(typ ExpressionType, left, right Expression) *ComparisonExpression {
	return &ComparisonExpression{
		BaseExpression: BaseExpression{ExprClass: ClassBoundComparison, ExprType: typ},
		Left:           left,
		Right:          right,
	}
}

// Eq returns left = right.
func Eq(left, right Expression) *ComparisonExpression {
	return Compare(TypeCompareEqual, left, right)
}

// In returns input IN (values...).
func In(input Expression, values ...Expression) *OperatorExpression {
	return operator(TypeCompareIn, append([]Expression{input}, values...))
}

// NotIn returns input NOT IN (values...).
func NotIn(input Expression, values ...Expression) *OperatorExpression {
	return operator(TypeCompareNotIn, append([]Expression{input}, values...))
}

// Between returns input BETWEEN lower AND upper, both bounds inclusive.
func Between(input, lower, upper Expression) *BetweenExpression {
	return &BetweenExpression{
		BaseExpression: BaseExpression{ExprClass: ClassBoundBetween, ExprType: TypeCompareBetween},
		Input:          input,
		Lower:          lower,
		Upper:          upper,
		LowerInclusive: true,
		UpperInclusive: true,
	}
}

// And returns the conjunction of children.
func And(children ...Expression) *ConjunctionExpression {
	return conjunction(TypeConjunctionAnd, children)
}

// Or returns the disjunction of children.
func Or(children ...Expression) *ConjunctionExpression {
	return conjunction(TypeConjunctionOr, children)
}

// Not returns the negation of child.
func Not(child Expression) *OperatorExpression {
	return operator(TypeOperatorNot, []Expression{child})
}

// IsNull returns child IS NULL.
func IsNull(child Expression) *OperatorExpression {
	return operator(TypeOperatorIsNull, []Expression{child})
}

// IsNotNull returns child IS NOT NULL.
func IsNotNull(child Expression) *OperatorExpression {
	return operator(TypeOperatorIsNotNull, []Expression{child})
}

// Lower returns lower(child).
func Lower(child Expression) *FunctionExpression {
	return Func(FuncLower, child)
}

// Func returns a call of the named function.
func Func(name string, children ...Expression) *FunctionExpression {
	return &FunctionExpression{
		BaseExpression: BaseExpression{ExprClass: ClassBoundFunction, ExprType: TypeBoundFunction},
		Name:           name,
		Children:       children,
	}
}

func conjunction(typ ExpressionType, children []Expression) *ConjunctionExpression {
	return &ConjunctionExpression{
		BaseExpression: BaseExpression{ExprClass: ClassBoundConjunction, ExprType: typ},
		Children:       children,
	}
}

func operator(typ ExpressionType, children []Expression) *OperatorExpression {
	return &OperatorExpression{
		BaseExpression: BaseExpression{ExprClass: ClassBoundOperator, ExprType: typ},
		Children:       children,
	}
}
