// Package listing serves filtered, sorted and paged listings of registered
// entities.
//
// A listing request carries raw filter tokens ("age>18", "status:a,b") and a
// page request. The service parses the tokens, compiles them against the
// entity schema, remaps the sort keys and runs the query on the entity's store:
//
//	svc, _ := listing.NewService(listing.Config{Registry: registry})
//	resp, err := svc.List(ctx, listing.Request{
//	    Entity: "posts",
//	    Filter: []string{"authorName-doe", "postType:2"},
//	    Pageable: paging.Pageable{Size: 20},
//	})
//	if listing.IsClientError(err) {
//	    // reject the request
//	}
package listing

import (
	"errors"
	"fmt"
	"slices"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/dynfilter/paging"
	"github.com/hugr-lab/dynfilter/predicate"
	"github.com/hugr-lab/dynfilter/schema"
	"github.com/hugr-lab/dynfilter/store"
)

// Entity describes one listable record type.
type Entity struct {
	// Name identifies the entity in requests.
	// REQUIRED.
	Name string

	// Schema describes the stored record. Filters and sort keys resolve against it.
	// REQUIRED.
	Schema *arrow.Schema

	// Remap translates logical filter and sort keys to field paths.
	// OPTIONAL.
	Remap schema.Remap

	// SearchTerms are reserved filter keys searching several fields at once.
	// OPTIONAL.
	SearchTerms []predicate.SearchTerm

	// DefaultSort applies when a request has no sort keys.
	// OPTIONAL.
	DefaultSort paging.Sort

	// Store executes queries for this entity.
	// REQUIRED.
	Store store.Executor

	// Project reshapes each stored record before it is returned.
	// OPTIONAL: records are returned as stored when nil.
	Project func(store.Record) store.Record

	// ResultSchema describes the records returned to clients.
	// OPTIONAL: defaults to Schema. Set it together with Project.
	ResultSchema *arrow.Schema
}

// OutputSchema returns the schema of the records a listing returns.
func (e *Entity) OutputSchema() *arrow.Schema {
	if e.ResultSchema != nil {
		return e.ResultSchema
	}
	return e.Schema
}

func (e *Entity) validate() error {
	switch {
	case e.Name == "":
		return errors.New("entity name is required")
	case e.Schema == nil:
		return fmt.Errorf("entity %s: schema is required", e.Name)
	case e.Store == nil:
		return fmt.Errorf("entity %s: store is required", e.Name)
	}
	for _, term := range e.SearchTerms {
		if term.Key == "" || len(term.Paths) == 0 {
			return fmt.Errorf("entity %s: search term needs a key and at least one path", e.Name)
		}
		if slices.Contains(term.Paths, "") {
			return fmt.Errorf("entity %s: search term %s has an empty path", e.Name, term.Key)
		}
	}
	return nil
}

var (
	// ErrEntityNotFound is returned when a request names an unregistered entity.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrDuplicateEntity is returned when two entities share a name.
	ErrDuplicateEntity = errors.New("duplicate entity")
)

// Registry is a static, read-only set of entities.
type Registry struct {
	entities map[string]*Entity
	names    []string
}

// NewRegistry validates entities and indexes them by name.
func NewRegistry(entities ...*Entity) (*Registry, error) {
	r := &Registry{entities: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		if e == nil {
			return nil, errors.New("entity cannot be nil")
		}
		if err := e.validate(); err != nil {
			return nil, err
		}
		if _, ok := r.entities[e.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, e.Name)
		}
		r.entities[e.Name] = e
		r.names = append(r.names, e.Name)
	}
	slices.Sort(r.names)
	return r, nil
}

// Entity returns the entity registered under name.
func (r *Registry) Entity(name string) (*Entity, bool) {
	e, ok := r.entities[name]
	return e, ok
}

// Entities returns all entities ordered by name.
func (r *Registry) Entities() []*Entity {
	out := make([]*Entity, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.entities[name])
	}
	return out
}
