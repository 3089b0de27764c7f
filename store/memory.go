package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/hugr-lab/dynfilter/filter"
	"github.com/hugr-lab/dynfilter/paging"
)

// MemoryStore keeps records in memory and evaluates predicates row by row.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string][]Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string][]Record)}
}

// Insert appends rows to entity, creating it if needed.
func (s *MemoryStore) Insert(entity string, rows ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[entity] = append(s.rows[entity], rows...)
}

// Find implements Executor.
// NULLs under NullsNative sort as the smallest value.
func (s *MemoryStore) Find(ctx context.Context, q Query) (paging.Page[Record], error) {
	if err := ctx.Err(); err != nil {
		return paging.Page[Record]{}, err
	}

	s.mu.RLock()
	rows, ok := s.rows[q.Entity]
	if !ok {
		s.mu.RUnlock()
		return paging.Page[Record]{}, fmt.Errorf("%w: %s", ErrUnknownEntity, q.Entity)
	}

	var matched []Record
	for _, row := range rows {
		ok, err := filter.Evaluate(q.Where, filter.MapRow(row))
		if err != nil {
			s.mu.RUnlock()
			return paging.Page[Record]{}, fmt.Errorf("%w: %v", ErrUnsupportedPredicate, err)
		}
		if ok {
			matched = append(matched, row)
		}
	}
	s.mu.RUnlock()

	if err := sortRecords(matched, q.Pageable.Sort); err != nil {
		return paging.Page[Record]{}, err
	}

	total := int64(len(matched))
	return paging.NewPage(pageOf(matched, q.Pageable), q.Pageable, total), nil
}

// sortRecords stable-sorts rows by the given order keys.
func sortRecords(rows []Record, sort paging.Sort) error {
	if len(sort) == 0 {
		return nil
	}

	var sortErr error
	slices.SortStableFunc(rows, func(a, b Record) int {
		for _, o := range sort {
			c, err := compareField(filter.MapRow(a), filter.MapRow(b), o)
			if err != nil {
				if sortErr == nil {
					sortErr = fmt.Errorf("sort by %s: %w", o.Property, err)
				}
				return 0
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return sortErr
}

func compareField(a, b filter.MapRow, o paging.Order) (int, error) {
	av, _ := a.Lookup(o.Property)
	bv, _ := b.Lookup(o.Property)

	switch {
	case av == nil && bv == nil:
		return 0, nil
	case av == nil || bv == nil:
		c := 1
		if av == nil {
			c = -1
		}
		switch o.Nulls {
		case paging.NullsFirst:
			return c, nil
		case paging.NullsLast:
			return -c, nil
		}
		if o.Direction == paging.Desc {
			c = -c
		}
		return c, nil
	}

	c, err := filter.CompareValues(av, bv)
	if err != nil {
		return 0, err
	}
	if o.Direction == paging.Desc {
		c = -c
	}
	return c, nil
}

// pageOf slices the rows of page p. A non-positive size returns every row.
func pageOf(rows []Record, p paging.Pageable) []Record {
	if p.Size <= 0 {
		return rows
	}
	offset := p.Offset()
	if offset < 0 || offset >= int64(len(rows)) {
		return []Record{}
	}
	start := int(offset)
	end := min(start+p.Size, len(rows))
	return rows[start:end]
}
