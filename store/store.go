// Package store executes compiled predicates against stored records and
// returns one page of the matching rows.
package store

import (
	"context"
	"errors"

	"github.com/hugr-lab/dynfilter/filter"
	"github.com/hugr-lab/dynfilter/paging"
)

// Record is one row keyed by field name. Nested records are map[string]any.
type Record = map[string]any

// Query selects one page of an entity's records.
type Query struct {
	// Entity is the logical entity name.
	Entity string

	// Where filters the records. Nil or an always-true constant selects every record.
	Where filter.Expression

	// Pageable selects the page and its order. Sort properties are field paths.
	Pageable paging.Pageable
}

// Executor runs queries against a backing store.
// Implementations MUST be goroutine-safe.
type Executor interface {
	// Find returns the requested page of records matching q.Where together
	// with the total number of matching records.
	Find(ctx context.Context, q Query) (paging.Page[Record], error)
}

var (
	// ErrUnknownEntity is returned when the store has no data for an entity.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrUnsupportedPredicate is returned when a store cannot execute a predicate.
	// Stores never widen a result by dropping a filter they cannot run.
	ErrUnsupportedPredicate = errors.New("unsupported predicate")
)
