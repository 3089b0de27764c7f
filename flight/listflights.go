package flight

import (
	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/dynfilter/internal/serialize"
)

// ListFlights returns the entity registry.
// This RPC allows clients to discover entities and their filterable fields
// without running a listing.
//
// The response is a single FlightInfo whose ticket holds the registry
// serialized as Arrow IPC (entity_name, field_path, type_family, nullable)
// and compressed with ZStandard.
//
// Criteria parameter is currently ignored (returns all entities).
func (s *Server) ListFlights(criteria *flight.Criteria, stream flight.FlightService_ListFlightsServer) error {
	s.logger.Debug("ListFlights called")

	registryData, err := serialize.SerializeRegistry(s.service.Registry(), s.allocator)
	if err != nil {
		s.logger.Error("Failed to serialize registry", "error", err)
		return status.Errorf(codes.Internal, "failed to serialize registry: %v", err)
	}

	compressed, err := serialize.Compress(registryData)
	if err != nil {
		s.logger.Error("Failed to compress registry", "error", err)
		return status.Errorf(codes.Internal, "failed to compress registry: %v", err)
	}

	s.logger.Debug("Registry compressed",
		"uncompressed_bytes", len(registryData),
		"compressed_bytes", len(compressed),
	)

	flightInfo := &flight.FlightInfo{
		FlightDescriptor: &flight.FlightDescriptor{
			Type: flight.DescriptorCMD,
			Cmd:  []byte("ListFlights"),
		},
		Endpoint: []*flight.FlightEndpoint{
			{
				Ticket: &flight.Ticket{
					Ticket: compressed,
				},
			},
		},
		TotalRecords: int64(len(s.service.Registry().Entities())),
		TotalBytes:   int64(len(compressed)),
	}

	if err := stream.Send(flightInfo); err != nil {
		s.logger.Error("Failed to send FlightInfo", "error", err)
		return status.Errorf(codes.Internal, "failed to send flight info: %v", err)
	}

	return nil
}
