package dynfilter

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/hugr-lab/dynfilter/flight"
	"github.com/hugr-lab/dynfilter/listing"
)

// NewServer registers the listing Flight service handlers on the provided gRPC server.
// This is the main entry point for the dynfilter package.
//
// The function:
//  1. Validates the ServerConfig
//  2. Creates the listing service and Flight service implementation
//  3. Registers it on grpcServer
//
// Returns error if config is invalid (e.g., nil Registry).
// Does NOT start the gRPC server - user controls lifecycle via grpcServer.Serve().
//
// Example:
//
//	config := dynfilter.ServerConfig{Registry: registry}
//	grpcServer := grpc.NewServer(dynfilter.ServerOptions(config)...)
//	if err := dynfilter.NewServer(grpcServer, config); err != nil {
//	    log.Fatal(err)
//	}
//	lis, _ := net.Listen("tcp", ":50051")
//	grpcServer.Serve(lis)
func NewServer(grpcServer *grpc.Server, config ServerConfig) error {
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	allocator := config.Allocator
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}
	logger := loggerFor(config)

	service, err := listing.NewService(listing.Config{
		Registry: config.Registry,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	flight.RegisterFlightServer(grpcServer, flight.NewServer(service, allocator, logger))

	logger.Info("Listing Flight server registered",
		"entities", len(config.Registry.Entities()),
		"max_message_size", config.MaxMessageSize,
	)

	return nil
}

// validateConfig checks that required ServerConfig fields are valid.
func validateConfig(config ServerConfig) error {
	if config.Registry == nil {
		return fmt.Errorf("registry is required")
	}
	if config.MaxMessageSize < 0 {
		return fmt.Errorf("max message size must be non-negative, got %d", config.MaxMessageSize)
	}
	return nil
}

// loggerFor returns the configured logger, creating one at LogLevel when only
// a level is given.
func loggerFor(config ServerConfig) *slog.Logger {
	if config.Logger != nil {
		return config.Logger
	}
	if config.LogLevel != nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: *config.LogLevel}))
	}
	return slog.Default()
}

// ServerOptions returns gRPC server options derived from config.
// Use this when creating the gRPC server passed to NewServer.
func ServerOptions(config ServerConfig) []grpc.ServerOption {
	var opts []grpc.ServerOption

	if config.MaxMessageSize > 0 {
		opts = append(opts,
			grpc.MaxRecvMsgSize(config.MaxMessageSize),
			grpc.MaxSendMsgSize(config.MaxMessageSize),
		)
	}

	return opts
}
