package predicate

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/dynfilter/criteria"
	"github.com/hugr-lab/dynfilter/filter"
	"github.com/hugr-lab/dynfilter/schema"
)

// SearchTerm is a reserved criterion key that searches several string fields
// at once. A criterion with this key compiles to an OR of case-insensitive
// contains matches over Paths, bypassing remapping and type resolution.
type SearchTerm struct {
	Key   string
	Paths []string
}

// Expression returns the OR group for a search value.
func (t SearchTerm) Expression(value string) filter.Expression {
	children := make([]filter.Expression, 0, len(t.Paths))
	for _, path := range t.Paths {
		children = append(children, filter.Func(filter.FuncContains,
			filter.Lower(filter.Column(path, filter.TypeIDVarchar)),
			filter.Lower(filter.String(value)),
		))
	}
	return filter.Or(children...)
}

// Compiler compiles criteria against one entity schema.
type Compiler struct {
	schema *arrow.Schema
}

// NewCompiler returns a compiler for s.
func NewCompiler(s *arrow.Schema) *Compiler {
	return &Compiler{schema: s}
}

// Criterion remaps the criterion key, resolves the field type and compiles it.
// Unknown fields fail with an error wrapping schema.ErrFieldNotFound.
func (c *Compiler) Criterion(cr criteria.Criterion, remap schema.Remap) (filter.Expression, error) {
	path := remap.Resolve(cr.Key)
	tag, err := schema.Resolve(c.schema, path)
	if err != nil {
		return nil, err
	}
	return Compile(path, cr.Operator, cr.Value, tag)
}

type options struct {
	remap schema.Remap
	terms map[string]SearchTerm
}

// Option configures Build.
type Option func(*options)

// WithRemap sets the table translating criterion keys to schema paths.
func WithRemap(remap schema.Remap) Option {
	return func(o *options) { o.remap = remap }
}

// WithSearchTerm registers a reserved search key. A later term with the same
// key replaces an earlier one.
func WithSearchTerm(term SearchTerm) Option {
	return func(o *options) {
		if o.terms == nil {
			o.terms = make(map[string]SearchTerm)
		}
		o.terms[term.Key] = term
	}
}

// Build compiles criteria against s and returns their conjunction.
//
// Criteria that compile to nothing are dropped. With nothing left the result
// is filter.True(); a single expression is returned as is. The first error
// aborts the build and no partial expression is returned.
func Build(s *arrow.Schema, cs []criteria.Criterion, opts ...Option) (filter.Expression, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	compiler := NewCompiler(s)
	parts := make([]filter.Expression, 0, len(cs))
	for _, c := range cs {
		if term, ok := o.terms[c.Key]; ok {
			parts = append(parts, term.Expression(c.Value))
			continue
		}

		expr, err := compiler.Criterion(c, o.remap)
		if err != nil {
			return nil, err
		}
		if expr != nil {
			parts = append(parts, expr)
		}
	}

	switch len(parts) {
	case 0:
		return filter.True(), nil
	case 1:
		return parts[0], nil
	default:
		return filter.And(parts...), nil
	}
}

// Builder accumulates criteria for one entity and compiles them on Build.
// A Builder is not safe for concurrent use; create one per request.
type Builder struct {
	schema   *arrow.Schema
	opts     []Option
	criteria []criteria.Criterion
}

// NewBuilder creates a builder for entities described by s.
func NewBuilder(s *arrow.Schema) *Builder {
	return &Builder{schema: s}
}

// Remap sets the key remap table.
func (b *Builder) Remap(remap schema.Remap) *Builder {
	b.opts = append(b.opts, WithRemap(remap))
	return b
}

// SearchTerm registers a reserved search key.
func (b *Builder) SearchTerm(term SearchTerm) *Builder {
	b.opts = append(b.opts, WithSearchTerm(term))
	return b
}

// And adds a criterion to the conjunction.
func (b *Builder) And(c criteria.Criterion) *Builder {
	b.criteria = append(b.criteria, c)
	return b
}

// AndAll adds criteria to the conjunction.
func (b *Builder) AndAll(cs []criteria.Criterion) *Builder {
	b.criteria = append(b.criteria, cs...)
	return b
}

// Build compiles the accumulated criteria.
func (b *Builder) Build() (filter.Expression, error) {
	return Build(b.schema, b.criteria, b.opts...)
}
