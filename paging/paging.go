// Package paging describes page requests, their sort order and the page
// envelope returned to clients.
package paging

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hugr-lab/dynfilter/schema"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// NullHandling controls where NULL values sort.
type NullHandling string

const (
	// NullsNative leaves NULL placement to the store.
	NullsNative NullHandling = "NATIVE"
	NullsFirst  NullHandling = "NULLS_FIRST"
	NullsLast   NullHandling = "NULLS_LAST"
)

// Order is one sort key.
type Order struct {
	Property  string
	Direction Direction
	Nulls     NullHandling
}

// By returns an ascending order on property with native null handling.
func By(property string) Order {
	return Order{Property: property, Direction: Asc, Nulls: NullsNative}
}

// WithDirection returns a copy of o sorted in direction d.
func (o Order) WithDirection(d Direction) Order {
	o.Direction = d
	return o
}

// WithNulls returns a copy of o with null handling n.
func (o Order) WithNulls(n NullHandling) Order {
	o.Nulls = n
	return o
}

func (o Order) String() string {
	s := o.Property + ": " + string(o.Direction)
	if o.Nulls != "" && o.Nulls != NullsNative {
		s += " " + string(o.Nulls)
	}
	return s
}

// Sort is an ordered list of sort keys; the first key is the most significant.
type Sort []Order

// Pageable is a page request. Page is 0-based.
type Pageable struct {
	Page int
	Size int
	Sort Sort
}

// Offset returns the index of the first element of the page. It saturates at
// math.MaxInt64 instead of wrapping, so a huge page number is simply past the end.
func (p Pageable) Offset() int64 {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	page, size := int64(p.Page), int64(p.Size)
	if page > math.MaxInt64/size {
		return math.MaxInt64
	}
	return page * size
}

// Defaults for page requests.
const (
	DefaultSize = 20
	MaxSize     = 2000
)

// Normalize clamps page and size into range and applies defaultSort when the
// request has no sort keys.
func (p Pageable) Normalize(defaultSort Sort) Pageable {
	if p.Page < 0 {
		p.Page = 0
	}
	switch {
	case p.Size <= 0:
		p.Size = DefaultSize
	case p.Size > MaxSize:
		p.Size = MaxSize
	}
	if len(p.Sort) == 0 && len(defaultSort) > 0 {
		p.Sort = append(Sort(nil), defaultSort...)
	}
	return p
}

// Remap translates every sort property through remap, keeps the direction and
// forces NULLS_LAST. Page and size are unchanged and p is not modified.
func Remap(p Pageable, remap schema.Remap) Pageable {
	var sort Sort
	if p.Sort != nil {
		sort = make(Sort, len(p.Sort))
	}
	for i, o := range p.Sort {
		sort[i] = Order{
			Property:  remap.Resolve(o.Property),
			Direction: o.Direction,
			Nulls:     NullsLast,
		}
	}
	return Pageable{Page: p.Page, Size: p.Size, Sort: sort}
}

// ErrInvalidSort indicates a malformed sort parameter.
var ErrInvalidSort = errors.New("invalid sort")

// ParseSort parses sort parameters of the form "property[,asc|desc]".
// The direction is case-insensitive and defaults to ascending.
func ParseSort(params []string) (Sort, error) {
	var sort Sort
	for _, param := range params {
		property, dir, hasDir := strings.Cut(param, ",")
		property = strings.TrimSpace(property)
		if property == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSort, param)
		}

		o := By(property)
		if hasDir {
			switch strings.ToUpper(strings.TrimSpace(dir)) {
			case "ASC", "":
			case "DESC":
				o.Direction = Desc
			default:
				return nil, fmt.Errorf("%w: direction %q", ErrInvalidSort, dir)
			}
		}
		sort = append(sort, o)
	}
	return sort, nil
}
