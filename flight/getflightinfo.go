package flight

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GetFlightInfo returns the output schema and a DoGet ticket for a listing.
//
// A PATH descriptor names the entity ([entity_name]) and yields a ticket for
// its first page with default paging. A CMD descriptor carries an encoded
// ticket, which is validated and echoed back as the endpoint ticket.
func (s *Server) GetFlightInfo(ctx context.Context, desc *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	s.logger.Debug("GetFlightInfo called",
		"type", desc.GetType(),
		"path_length", len(desc.GetPath()),
	)

	var ticket []byte
	var entityName string

	switch desc.GetType() {
	case flight.DescriptorPATH:
		path := desc.GetPath()
		if len(path) != 1 {
			return nil, status.Error(codes.InvalidArgument, "path must contain exactly 1 element: [entity_name]")
		}
		entityName = path[0]

		encoded, err := EncodeTicket(TicketData{Entity: entityName})
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid entity: %v", err)
		}
		ticket = encoded

	case flight.DescriptorCMD:
		td, err := DecodeTicket(desc.GetCmd())
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid command: %v", err)
		}
		if _, err := td.Request(); err != nil {
			return nil, statusFromError(err)
		}
		entityName = td.Entity
		ticket = desc.GetCmd()

	default:
		return nil, status.Error(codes.InvalidArgument, "descriptor must be PATH or CMD type")
	}

	entity, ok := s.service.Registry().Entity(entityName)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "entity not found: %s", entityName)
	}
	schema := entity.OutputSchema()

	flightInfo := &flight.FlightInfo{
		Schema:           flight.SerializeSchema(schema, s.allocator),
		FlightDescriptor: desc,
		Endpoint: []*flight.FlightEndpoint{
			{
				Ticket: &flight.Ticket{
					Ticket: ticket,
				},
			},
		},
		TotalRecords: -1, // Unknown until the listing runs
		TotalBytes:   -1,
	}

	s.logger.Debug("GetFlightInfo successful",
		"entity", entityName,
		"num_fields", schema.NumFields(),
	)

	return flightInfo, nil
}
