package flight

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/dynfilter/listing"
	"github.com/hugr-lab/dynfilter/store"
)

// statusFromError maps a listing error to a gRPC status.
// Errors that already carry a status are returned unchanged.
func statusFromError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	code := codes.Internal
	switch {
	case listing.IsClientError(err), errors.Is(err, ErrInvalidTicket):
		code = codes.InvalidArgument
	case errors.Is(err, listing.ErrEntityNotFound):
		code = codes.NotFound
	case errors.Is(err, store.ErrUnsupportedPredicate):
		code = codes.Unimplemented
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	}
	return status.Error(code, err.Error())
}
