package flight

import (
	"errors"
	"fmt"

	"github.com/hugr-lab/dynfilter/internal/msgpack"
	"github.com/hugr-lab/dynfilter/listing"
	"github.com/hugr-lab/dynfilter/paging"
)

// ErrInvalidTicket indicates a ticket that cannot be decoded into a listing request.
var ErrInvalidTicket = errors.New("invalid ticket")

// TicketData is the decoded content of a DoGet ticket: one listing request.
type TicketData struct {
	// Entity is the registered entity name.
	Entity string `msgpack:"entity"`

	// Filter holds raw criterion tokens such as "age>18".
	Filter []string `msgpack:"filter,omitempty"`

	// Page is the 0-based page number.
	Page int `msgpack:"page,omitempty"`

	// Size is the page size. Zero selects the default size.
	Size int `msgpack:"size,omitempty"`

	// Sort holds sort parameters of the form "property[,asc|desc]".
	Sort []string `msgpack:"sort,omitempty"`
}

// EncodeTicket serializes a listing request into an opaque ticket.
func EncodeTicket(td TicketData) ([]byte, error) {
	if td.Entity == "" {
		return nil, fmt.Errorf("%w: entity name cannot be empty", ErrInvalidTicket)
	}
	return msgpack.Encode(td)
}

// DecodeTicket parses a ticket produced by EncodeTicket.
func DecodeTicket(ticket []byte) (*TicketData, error) {
	var td TicketData
	if err := msgpack.Decode(ticket, &td); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}

	switch {
	case td.Entity == "":
		return nil, fmt.Errorf("%w: decoded ticket has empty entity name", ErrInvalidTicket)
	case td.Page < 0:
		return nil, fmt.Errorf("%w: page must be non-negative, got %d", ErrInvalidTicket, td.Page)
	case td.Size < 0:
		return nil, fmt.Errorf("%w: size must be non-negative, got %d", ErrInvalidTicket, td.Size)
	}
	return &td, nil
}

// Request converts the ticket into a listing request.
func (td *TicketData) Request() (listing.Request, error) {
	sort, err := paging.ParseSort(td.Sort)
	if err != nil {
		return listing.Request{}, err
	}
	return listing.Request{
		Entity: td.Entity,
		Filter: td.Filter,
		Pageable: paging.Pageable{
			Page: td.Page,
			Size: td.Size,
			Sort: sort,
		},
	}, nil
}
