// Package filter provides the predicate expression tree produced by the
// filter compiler, plus two ways to execute it: SQL encoding for DuckDB and
// in-memory evaluation against rows.
//
// # Building Expressions
//
// Expressions are built with constructor functions:
//
//	expr := filter.And(
//	    filter.Compare(filter.TypeCompareGreaterThan,
//	        filter.Column("views", filter.TypeIDBigInt), filter.BigInt(100)),
//	    filter.Func(filter.FuncContains,
//	        filter.Lower(filter.Column("author.fullName", filter.TypeIDVarchar)),
//	        filter.Lower(filter.String("doe"))),
//	)
//
// Columns are referenced by dotted entity paths. filter.True() is the
// always-true predicate used when there is nothing to filter on.
//
// # SQL Encoding
//
//	enc := filter.NewDuckDBEncoder(nil)
//	whereClause := enc.EncodeFilters(expr)
//
//	if whereClause != "" {
//	    query := "SELECT * FROM posts WHERE " + whereClause
//	}
//
// Dotted paths render as struct field access ("author"."fullName" when quoting
// is needed). Use EncoderOptions to point paths at other storage columns:
//
//	enc := filter.NewDuckDBEncoder(&filter.EncoderOptions{
//	    ColumnMapping: map[string]string{
//	        "author.fullName": "author_name",
//	    },
//	    ColumnExpressions: map[string]string{
//	        "postType.id": "post_type_id",
//	    },
//	})
//
// # Unsupported Expression Handling
//
// The encoder gracefully handles unsupported expressions:
//   - For AND: Skips unsupported children, keeps others
//   - For OR: If any child is unsupported, skips entire OR expression
//   - Returns empty string if all expressions are unsupported
//
// Callers that cannot re-check rows afterwards should treat an empty result for
// a non-empty predicate as an error.
//
// # In-Memory Evaluation
//
//	ok, err := filter.Evaluate(expr, filter.MapRow{
//	    "views":  int64(250),
//	    "author": map[string]any{"fullName": "Jane Doe"},
//	})
//
// Evaluation follows SQL NULL semantics: a comparison with a missing or nil
// field is unknown, and unknown rows do not match.
//
// # Expression Types
//
//   - ComparisonExpression: Binary comparisons (=, <>, <, >, <=, >=)
//   - ConjunctionExpression: AND/OR with multiple children
//   - ConstantExpression: Literal values with type information
//   - ColumnRefExpression: References to entity fields by dotted path
//   - FunctionExpression: lower, contains, starts_with
//   - BetweenExpression: BETWEEN lower AND upper
//   - OperatorExpression: IN, NOT IN, NOT, IS NULL, IS NOT NULL
package filter
