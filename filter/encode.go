package filter

import "strings"

// Encoder converts filter expressions to SQL strings.
// Implementations handle dialect-specific syntax (DuckDB, PostgreSQL, etc.).
type Encoder interface {
	// Encode converts a single expression to SQL.
	// Returns empty string if expression is unsupported.
	Encode(expr Expression) string

	// EncodeFilters converts filters to a WHERE clause body, AND-ing them together.
	// Returns the condition portion without "WHERE" keyword.
	// Returns empty string if no filters can be encoded.
	EncodeFilters(filters ...Expression) string
}

// EncoderOptions configures encoding behavior.
type EncoderOptions struct {
	// ColumnMapping maps entity field paths to storage column names.
	// Paths not in the map are rendered segment by segment.
	ColumnMapping map[string]string

	// ColumnExpressions maps entity field paths to SQL expressions.
	// Takes precedence over ColumnMapping.
	// Use for computed columns or complex transformations.
	ColumnExpressions map[string]string
}

// quoteLiteral returns a SQL string literal with single quotes doubled.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuotePath renders a dotted field path as a DuckDB column or struct field access,
// quoting each segment as needed.
func QuotePath(path string) string {
	segments := strings.Split(path, ".")
	for i, s := range segments {
		segments[i] = quoteIdentifier(s)
	}
	return strings.Join(segments, ".")
}

// quoteIdentifier returns a quoted identifier if needed.
// DuckDB uses double quotes for identifiers.
func quoteIdentifier(name string) string {
	if needsQuoting(name) {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return name
}

// reservedWords are keywords that cannot appear as bare identifiers.
var reservedWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`SELECT FROM WHERE AND OR NOT NULL TRUE FALSE
		INSERT UPDATE DELETE CREATE DROP ALTER TABLE INDEX JOIN LEFT RIGHT INNER OUTER
		ON AS IN IS LIKE ILIKE BETWEEN EXISTS CASE WHEN THEN ELSE END ORDER BY GROUP
		HAVING LIMIT OFFSET UNION EXCEPT INTERSECT ALL DISTINCT VALUES SET INTO
		PRIMARY KEY FOREIGN REFERENCES CONSTRAINT DEFAULT CHECK UNIQUE ASC DESC
		NULLS FIRST LAST CAST INTERVAL DATE TIME TIMESTAMP STRUCT LIST`) {
		reservedWords[w] = struct{}{}
	}
}

// needsQuoting reports whether name is not a plain identifier: empty, not
// [A-Za-z_][A-Za-z0-9_]*, or reserved.
func needsQuoting(name string) bool {
	if name == "" {
		return true
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && '0' <= c && c <= '9':
		default:
			return true
		}
	}
	_, reserved := reservedWords[strings.ToUpper(name)]
	return reserved
}
