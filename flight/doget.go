package flight

import (
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/dynfilter/internal/msgpack"
	"github.com/hugr-lab/dynfilter/internal/recovery"
	"github.com/hugr-lab/dynfilter/paging"
	"github.com/hugr-lab/dynfilter/store"
)

// DoGet streams one page of an entity listing.
//
// The ticket must be encoded using EncodeTicket. The handler:
//  1. Decodes the ticket into a listing request
//  2. Runs the listing, recovering from panics in the entity store
//  3. Converts the page content into a record batch of the entity's output schema
//  4. Streams the batch with the page envelope as MessagePack app metadata
//
// Invalid filters and sort keys are reported as InvalidArgument, unknown
// entities as NotFound.
func (s *Server) DoGet(ticket *flight.Ticket, stream flight.FlightService_DoGetServer) error {
	ctx := EnrichContextMetadata(stream.Context())

	s.logger.Debug("DoGet called",
		"ticket_size", len(ticket.GetTicket()),
		"trace_id", TraceIDFromContext(ctx),
	)

	ticketData, err := DecodeTicket(ticket.GetTicket())
	if err != nil {
		s.logger.Error("Failed to decode ticket", "error", err)
		return status.Errorf(codes.InvalidArgument, "invalid ticket: %v", err)
	}

	req, err := ticketData.Request()
	if err != nil {
		return statusFromError(err)
	}

	entity, ok := s.service.Registry().Entity(req.Entity)
	if !ok {
		return status.Errorf(codes.NotFound, "entity not found: %s", req.Entity)
	}

	s.logger.Debug("DoGet request",
		"entity", req.Entity,
		"filter", req.Filter,
		"page", req.Pageable.Page,
		"size", req.Pageable.Size,
	)

	resp, err := recovery.RecoverToValue(s.logger, "List", func() (*paging.Response, error) {
		return s.service.List(ctx, req)
	})
	if err != nil {
		s.logger.Debug("Listing failed", "entity", req.Entity, "error", err)
		return statusFromError(err)
	}

	records, ok := resp.Results.([]store.Record)
	if !ok {
		return status.Errorf(codes.Internal, "unexpected listing results %T", resp.Results)
	}

	schema := entity.OutputSchema()
	batch, err := BuildRecordBatch(s.allocator, schema, records)
	if err != nil {
		s.logger.Error("Failed to build record batch",
			"entity", req.Entity,
			"error", err,
		)
		return status.Errorf(codes.Internal, "failed to build record batch: %v", err)
	}
	defer batch.Release()

	meta, err := msgpack.Encode(resp)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to encode page metadata: %v", err)
	}

	writer := flight.NewRecordWriter(stream, ipc.WithSchema(schema), ipc.WithAllocator(s.allocator))
	defer writer.Close()

	if err := writer.WriteWithAppMetadata(batch, meta); err != nil {
		s.logger.Error("Failed to write record batch",
			"entity", req.Entity,
			"error", err,
		)
		return status.Errorf(codes.Internal, "failed to write batch: %v", err)
	}

	s.logger.Debug("DoGet completed successfully",
		"entity", req.Entity,
		"rows", batch.NumRows(),
		"total_elements", resp.TotalElements,
		"current_page", resp.CurrentPage,
		"total_pages", resp.TotalPages,
	)

	return nil
}
