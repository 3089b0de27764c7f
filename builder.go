package dynfilter

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/dynfilter/listing"
	"github.com/hugr-lab/dynfilter/paging"
	"github.com/hugr-lab/dynfilter/predicate"
	"github.com/hugr-lab/dynfilter/schema"
	"github.com/hugr-lab/dynfilter/store"
)

// RegistryBuilder builds entity registries using fluent API.
// Not thread-safe - use only during initialization.
type RegistryBuilder struct {
	entities []*listing.Entity
	built    bool
}

// NewRegistryBuilder creates a new fluent registry builder.
//
// Example:
//
//	registry, err := dynfilter.NewRegistryBuilder().
//	    Entity("posts").
//	        Schema(postSchema).
//	        Remap("authorName", "author.fullName").
//	        SearchTerm("author_term", "author.userName", "author.email", "author.fullName").
//	        DefaultSort(paging.By("updatedAt").WithDirection(paging.Desc)).
//	        Store(postStore).
//	    Build()
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{}
}

// Entity starts defining a new entity.
// Entity name MUST be non-empty and unique within the registry.
func (rb *RegistryBuilder) Entity(name string) *EntityBuilder {
	e := &listing.Entity{Name: name}
	rb.entities = append(rb.entities, e)
	return &EntityBuilder{entity: e, registry: rb}
}

// Build finalizes the registry.
// Can only be called once. Returns error if an entity is invalid.
func (rb *RegistryBuilder) Build() (*listing.Registry, error) {
	if rb.built {
		return nil, fmt.Errorf("registry already built")
	}
	rb.built = true
	return listing.NewRegistry(rb.entities...)
}

// EntityBuilder configures one entity of a registry.
type EntityBuilder struct {
	entity   *listing.Entity
	registry *RegistryBuilder
}

// Schema sets the stored record schema.
func (eb *EntityBuilder) Schema(s *arrow.Schema) *EntityBuilder {
	eb.entity.Schema = s
	return eb
}

// Remap translates the logical key to a field path in filters and sort keys.
func (eb *EntityBuilder) Remap(key, path string) *EntityBuilder {
	if eb.entity.Remap == nil {
		eb.entity.Remap = schema.Remap{}
	}
	eb.entity.Remap[key] = path
	return eb
}

// SearchTerm reserves key for a case-insensitive search over paths.
func (eb *EntityBuilder) SearchTerm(key string, paths ...string) *EntityBuilder {
	eb.entity.SearchTerms = append(eb.entity.SearchTerms, predicate.SearchTerm{Key: key, Paths: paths})
	return eb
}

// DefaultSort sets the order used when a request has no sort keys.
func (eb *EntityBuilder) DefaultSort(orders ...paging.Order) *EntityBuilder {
	eb.entity.DefaultSort = paging.Sort(orders)
	return eb
}

// Store sets the executor for this entity's queries.
func (eb *EntityBuilder) Store(ex store.Executor) *EntityBuilder {
	eb.entity.Store = ex
	return eb
}

// Project reshapes returned records; result describes the reshaped records.
func (eb *EntityBuilder) Project(fn func(store.Record) store.Record, result *arrow.Schema) *EntityBuilder {
	eb.entity.Project = fn
	eb.entity.ResultSchema = result
	return eb
}

// Entity starts a new entity definition (returns to RegistryBuilder).
func (eb *EntityBuilder) Entity(name string) *EntityBuilder {
	return eb.registry.Entity(name)
}

// Build finalizes the registry (returns to RegistryBuilder).
func (eb *EntityBuilder) Build() (*listing.Registry, error) {
	return eb.registry.Build()
}
