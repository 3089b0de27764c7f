package predicate

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hugr-lab/dynfilter/criteria"
	"github.com/hugr-lab/dynfilter/filter"
	"github.com/hugr-lab/dynfilter/schema"
)

func encode(t *testing.T, expr filter.Expression) string {
	t.Helper()
	if expr == nil {
		return ""
	}
	sql := filter.NewDuckDBEncoder(nil).Encode(expr)
	if sql == "" {
		t.Fatalf("expression %T could not be encoded", expr)
	}
	return sql
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name string
		path string
		op   criteria.Operator
		raw  string
		tag  schema.TypeTag
		want string
	}{
		// Integer
		{"int eq", "age", criteria.OpEqual, "18", schema.Integer, "age = 18"},
		{"int gt", "age", criteria.OpGreater, "18", schema.Integer, "age > 18"},
		{"int lt", "age", criteria.OpLess, "-3", schema.Integer, "age < -3"},
		{"int ge", "age", criteria.OpGreaterOrEqual, "18", schema.Integer, "age >= 18"},
		{"int le", "age", criteria.OpLessOrEqual, "18", schema.Integer, "age <= 18"},
		{"int not equal", "age", criteria.OpNotEqual, "5", schema.Integer, "age NOT IN (5)"},
		{"int in", "age", criteria.OpEqual, "1,2,3", schema.Integer, "age IN (1, 2, 3)"},
		{"int range", "age", criteria.OpRange, "1,10", schema.Integer, "age BETWEEN 1.0 AND 10.0"},
		{"int range ignores extras", "age", criteria.OpRange, "1,10,99", schema.Integer, "age BETWEEN 1.0 AND 10.0"},
		{"int not in", "age", criteria.OpNotEqual, "1,2", schema.Integer, "age NOT IN (1, 2)"},
		{"int trailing comma", "age", criteria.OpEqual, "7,", schema.Integer, "age IN (7)"},
		{"int multi gt", "age", criteria.OpGreater, "1,2", schema.Integer, ""},
		{"int single range", "age", criteria.OpRange, "5", schema.Integer, ""},
		{"int contains", "age", criteria.OpContains, "5", schema.Integer, ""},

		// Long
		{"long eq", "views", criteria.OpEqual, "9000000000", schema.Long, "views = 9000000000"},
		{"long not equal", "views", criteria.OpNotEqual, "5", schema.Long, ""},
		{"long not in", "views", criteria.OpNotEqual, "5,6", schema.Long, "views NOT IN (5, 6)"},
		{"long range", "views", criteria.OpRange, "10,20", schema.Long, "views BETWEEN 10.0 AND 20.0"},

		// Double
		{"double ge", "rating", criteria.OpGreaterOrEqual, "4.5", schema.Double, "rating >= 4.5"},
		{"double integral", "rating", criteria.OpEqual, " 3 ", schema.Double, "rating = 3.0"},
		{"double not equal", "rating", criteria.OpNotEqual, "1.5", schema.Double, "rating NOT IN (1.5)"},
		{"double in", "rating", criteria.OpEqual, "1.5,2", schema.Double, "rating IN (1.5, 2.0)"},
		{"double range", "rating", criteria.OpRange, "1.5,2.5", schema.Double, "rating BETWEEN 1.5 AND 2.5"},

		// Boolean
		{"bool true", "published", criteria.OpEqual, "true", schema.Boolean, "published = TRUE"},
		{"bool true any case", "published", criteria.OpEqual, "TRUE", schema.Boolean, "published = TRUE"},
		{"bool other text", "published", criteria.OpEqual, "yes", schema.Boolean, "published = FALSE"},
		{"bool comma is one value", "published", criteria.OpEqual, "true,false", schema.Boolean, "published = FALSE"},

		// String
		{"string eq", "title", criteria.OpEqual, "Hello", schema.String, "lower(title) = lower('Hello')"},
		{"string prefix", "title", criteria.OpStartsWith, "go", schema.String, "starts_with(lower(title), lower('go'))"},
		{"string contains", "title", criteria.OpContains, "go lang", schema.String, "contains(lower(title), lower('go lang'))"},
		{"string gt", "title", criteria.OpGreater, "a", schema.String, ""},
		{"string in", "status", criteria.OpEqual, "active,pending", schema.String, "status IN ('active', 'pending')"},
		{"string in any operator", "status", criteria.OpContains, "a,b", schema.String, "status IN ('a', 'b')"},

		// Date
		{"date eq", "publishOn", criteria.OpEqual, "2024-01-15", schema.Date, "publishOn = DATE '2024-01-15'"},
		{"date gt", "publishOn", criteria.OpGreater, "2024-01-15", schema.Date, "publishOn > DATE '2024-01-15'"},
		{"date in", "publishOn", criteria.OpEqual, "2024-01-15,2024-01-16", schema.Date,
			"publishOn IN (DATE '2024-01-15', DATE '2024-01-16')"},
		{"date range", "publishOn", criteria.OpRange, "2024-01-01,2024-01-31", schema.Date,
			"publishOn BETWEEN DATE '2024-01-01' AND DATE '2024-01-31'"},
		{"date multi gt", "publishOn", criteria.OpGreater, "2024-01-01,2024-01-31", schema.Date, ""},
		{"date single range", "publishOn", criteria.OpRange, "2024-01-01", schema.Date, ""},

		// DateTime
		{"datetime eq", "createdAt", criteria.OpEqual, "2024-01-15", schema.DateTime,
			"createdAt BETWEEN TIMESTAMP '2024-01-15 00:00:00' AND TIMESTAMP '2024-01-15 23:59:59.999999'"},
		{"datetime gt", "createdAt", criteria.OpGreater, "2024-01-15", schema.DateTime,
			"createdAt > TIMESTAMP '2024-01-15 23:59:59.999999'"},
		{"datetime lt", "createdAt", criteria.OpLess, "2024-01-15", schema.DateTime,
			"createdAt < TIMESTAMP '2024-01-15 00:00:00'"},
		{"datetime ge", "createdAt", criteria.OpGreaterOrEqual, "2024-01-15", schema.DateTime,
			"createdAt >= TIMESTAMP '2024-01-15 00:00:00'"},
		{"datetime le", "createdAt", criteria.OpLessOrEqual, "2024-01-15", schema.DateTime,
			"createdAt <= TIMESTAMP '2024-01-15 23:59:59.999999'"},
		{"datetime in", "createdAt", criteria.OpEqual, "2024-01-15,2024-01-16", schema.DateTime,
			"createdAt IN (TIMESTAMP '2024-01-15 00:00:00', TIMESTAMP '2024-01-16 00:00:00')"},
		{"datetime range", "createdAt", criteria.OpRange, "2024-01-01,2024-01-31", schema.DateTime,
			"createdAt BETWEEN TIMESTAMP '2024-01-01 00:00:00' AND TIMESTAMP '2024-01-31 23:59:59.999999'"},
		{"datetime contains", "createdAt", criteria.OpContains, "2024-01-15", schema.DateTime, ""},

		// Families without an operator table
		{"collection", "tags", criteria.OpEqual, "go", schema.Collection, ""},
		{"record", "author", criteria.OpEqual, "x", schema.Record, ""},
		{"unsupported", "payload", criteria.OpEqual, "x", schema.Unsupported, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Compile(tt.path, tt.op, tt.raw, tt.tag)
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			if got := encode(t, expr); got != tt.want {
				t.Errorf("expected '%s', got '%s'", tt.want, got)
			}
		})
	}
}

func TestCompileInvalidValue(t *testing.T) {
	tests := []struct {
		name string
		op   criteria.Operator
		raw  string
		tag  schema.TypeTag
	}{
		{"int text", criteria.OpEqual, "abc", schema.Integer},
		{"int overflow", criteria.OpEqual, "9000000000", schema.Integer},
		{"int decimal", criteria.OpEqual, "1.5", schema.Integer},
		{"int whitespace", criteria.OpEqual, " 1", schema.Integer},
		{"int parsed before no-op operator", criteria.OpContains, "abc", schema.Integer},
		{"long text", criteria.OpNotEqual, "abc", schema.Long},
		{"long in list", criteria.OpEqual, "1,x", schema.Long},
		{"empty inner value", criteria.OpEqual, "1,,2", schema.Integer},
		{"only commas", criteria.OpEqual, ",", schema.Integer},
		{"range with one value", criteria.OpRange, "5,", schema.Integer},
		{"double text", criteria.OpGreater, "high", schema.Double},
		{"date format", criteria.OpEqual, "15-01-2024", schema.Date},
		{"date month", criteria.OpEqual, "2024-13-01", schema.Date},
		{"datetime with time", criteria.OpEqual, "2024-01-15T10:00", schema.DateTime},
		{"datetime list", criteria.OpEqual, "2024-01-15,tomorrow", schema.DateTime},
		{"datetime range with one value", criteria.OpRange, "2024-01-15,", schema.DateTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Compile("field", tt.op, tt.raw, tt.tag)
			if !errors.Is(err, ErrInvalidValue) {
				t.Fatalf("expected ErrInvalidValue, got %v", err)
			}
			var ve *ValueError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValueError, got %T", err)
			}
			if ve.Path != "field" || ve.Tag != tt.tag {
				t.Errorf("unexpected error detail: %+v", ve)
			}
			if expr != nil {
				t.Errorf("expected no expression on error, got %T", expr)
			}
		})
	}
}

func TestCompileBooleanRejectsOperators(t *testing.T) {
	ops := append(criteria.Operators(), criteria.Operator("=="), criteria.Operator("~"))
	for _, op := range ops {
		if op == criteria.OpEqual {
			continue
		}
		t.Run(string(op), func(t *testing.T) {
			_, err := Compile("published", op, "true", schema.Boolean)
			if !errors.Is(err, ErrUnsupportedOperation) {
				t.Fatalf("expected ErrUnsupportedOperation, got %v", err)
			}
			var oe *OperationError
			if !errors.As(err, &oe) || oe.Operator != op {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestOperatorTablesAreComplete(t *testing.T) {
	for tag, fam := range families {
		for _, op := range criteria.Operators() {
			if _, ok := fam.single[op]; !ok {
				t.Errorf("%s: single-value table does not list %q", tag, op)
			}
			if fam.multi == nil {
				continue
			}
			if _, ok := fam.multi[op]; !ok {
				t.Errorf("%s: multi-value table does not list %q", tag, op)
			}
		}
	}
}

func TestCompileUnknownOperatorIsNoop(t *testing.T) {
	tests := []struct {
		path string
		raw  string
		tag  schema.TypeTag
	}{
		{"age", "5", schema.Integer},
		{"views", "10", schema.Long},
		{"title", "go", schema.String},
		{"updatedAt", "2024-05-01", schema.DateTime},
	}

	for _, tt := range tests {
		for _, op := range []criteria.Operator{"~", "=="} {
			expr, err := Compile(tt.path, op, tt.raw, tt.tag)
			if err != nil || expr != nil {
				t.Errorf("%s %q: expected silent no-op, got %v, %v", tt.tag, op, expr, err)
			}
		}
	}
}

func TestCompileNumericComparisonsMatchScalar(t *testing.T) {
	ops := []struct {
		op  criteria.Operator
		cmp func(a, b int64) bool
	}{
		{criteria.OpEqual, func(a, b int64) bool { return a == b }},
		{criteria.OpGreater, func(a, b int64) bool { return a > b }},
		{criteria.OpLess, func(a, b int64) bool { return a < b }},
		{criteria.OpGreaterOrEqual, func(a, b int64) bool { return a >= b }},
		{criteria.OpLessOrEqual, func(a, b int64) bool { return a <= b }},
	}
	values := []int64{-10, -1, 0, 1, 7, 42}

	for _, tag := range []schema.TypeTag{schema.Integer, schema.Long, schema.Double} {
		for _, o := range ops {
			for _, lit := range values {
				expr, err := Compile("n", o.op, fmt.Sprint(lit), tag)
				if err != nil {
					t.Fatalf("%s %s %d: %v", tag, o.op, lit, err)
				}
				for _, field := range values {
					got, err := filter.Evaluate(expr, filter.MapRow{"n": field})
					if err != nil {
						t.Fatalf("Evaluate failed: %v", err)
					}
					if want := o.cmp(field, lit); got != want {
						t.Errorf("%s: %d %s %d = %v, want %v", tag, field, o.op, lit, got, want)
					}
				}
			}
		}
	}
}

func TestCompileRangeUsesFirstTwoValues(t *testing.T) {
	expr, err := Compile("n", criteria.OpRange, "10,20,1,1000", schema.Integer)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	for n, want := range map[int32]bool{5: false, 10: true, 15: true, 20: true, 21: false, 1000: false} {
		got, err := filter.Evaluate(expr, filter.MapRow{"n": n})
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		if got != want {
			t.Errorf("n=%d: expected %v, got %v", n, want, got)
		}
	}
}

func TestCompileDateTimeCoversWholeDay(t *testing.T) {
	expr, err := Compile("createdAt", criteria.OpEqual, "2024-01-15", schema.DateTime)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	tests := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2024, 1, 14, 23, 59, 59, 999999999, time.UTC), false},
		{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC), true},
		{time.Date(2024, 1, 15, 23, 59, 59, 999999999, time.UTC), true},
		{time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		got, err := filter.Evaluate(expr, filter.MapRow{"createdAt": tt.at})
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		if got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.at, tt.want, got)
		}
	}
}

func TestCompileDateTimeGreaterStartsNextDay(t *testing.T) {
	expr, err := Compile("createdAt", criteria.OpGreater, "2024-01-15", schema.DateTime)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	late, _ := filter.Evaluate(expr, filter.MapRow{"createdAt": time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)})
	next, _ := filter.Evaluate(expr, filter.MapRow{"createdAt": time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)})
	if late || !next {
		t.Errorf("expected only the next day to match, got late=%v next=%v", late, next)
	}
}
