package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hugr-lab/dynfilter/criteria"
	"github.com/hugr-lab/dynfilter/paging"
	"github.com/hugr-lab/dynfilter/predicate"
	"github.com/hugr-lab/dynfilter/schema"
	"github.com/hugr-lab/dynfilter/store"
)

// Config configures a Service.
type Config struct {
	// Registry holds the listable entities.
	// REQUIRED: MUST NOT be nil.
	Registry *Registry

	// Logger for request logging.
	// OPTIONAL: Uses slog.Default() if nil.
	Logger *slog.Logger
}

// Service runs listing requests.
type Service struct {
	registry *Registry
	logger   *slog.Logger
}

// NewService creates a listing service.
func NewService(config Config) (*Service, error) {
	if config.Registry == nil {
		return nil, errors.New("listing: registry is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{registry: config.Registry, logger: logger}, nil
}

// Registry returns the service's entity registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Request is one listing request.
type Request struct {
	// Entity names the registered entity to list.
	Entity string

	// Filter holds raw criterion tokens, AND-ed together.
	Filter []string

	// Pageable is the page request. Sort properties are logical keys.
	Pageable paging.Pageable
}

// List returns one page of the entity's records matching the request filter.
func (s *Service) List(ctx context.Context, req Request) (*paging.Response, error) {
	e, ok := s.registry.Entity(req.Entity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, req.Entity)
	}

	cs, err := criteria.Parse(req.Filter)
	if err != nil {
		return nil, err
	}

	opts := []predicate.Option{predicate.WithRemap(e.Remap)}
	for _, term := range e.SearchTerms {
		opts = append(opts, predicate.WithSearchTerm(term))
	}
	where, err := predicate.Build(e.Schema, cs, opts...)
	if err != nil {
		return nil, err
	}

	pageable := paging.Remap(req.Pageable.Normalize(e.DefaultSort), e.Remap)
	if err := validateSort(e, pageable.Sort); err != nil {
		return nil, err
	}

	s.logger.Debug("Listing entity",
		"entity", e.Name,
		"criteria", len(cs),
		"page", pageable.Page,
		"size", pageable.Size,
		"sort", pageable.Sort,
	)

	page, err := e.Store.Find(ctx, store.Query{
		Entity:   e.Name,
		Where:    where,
		Pageable: pageable,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", e.Name, err)
	}

	if e.Project != nil {
		for i, record := range page.Content {
			page.Content[i] = e.Project(record)
		}
	}

	s.logger.Debug("Listing completed",
		"entity", e.Name,
		"rows", len(page.Content),
		"total", page.TotalElements,
	)

	return paging.NewResponse(page), nil
}

// validateSort checks that every sort property names a scalar field of the entity.
func validateSort(e *Entity, sort paging.Sort) error {
	for _, o := range sort {
		tag, err := schema.Resolve(e.Schema, o.Property)
		if err != nil {
			return fmt.Errorf("%w: %w", paging.ErrInvalidSort, err)
		}
		if !tag.IsScalar() {
			return fmt.Errorf("%w: %s field %s cannot be sorted", paging.ErrInvalidSort, tag, o.Property)
		}
	}
	return nil
}

// IsClientError reports whether err was caused by a malformed request rather
// than a store failure.
func IsClientError(err error) bool {
	for _, target := range []error{
		criteria.ErrInvalidFormat,
		schema.ErrFieldNotFound,
		predicate.ErrInvalidValue,
		predicate.ErrUnsupportedOperation,
		paging.ErrInvalidSort,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
