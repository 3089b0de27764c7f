// Package dynfilter provides a high-level API for serving filtered, sorted and
// paged entity listings over Apache Arrow Flight.
//
// Clients describe what they want with compact criteria strings such as
// "views>100", "title:arrow" or "updatedAt:2024-05-01". Each entity declares an
// Arrow schema; criteria are checked against it, compiled into type-aware
// predicates and executed by the entity's store.
//
// The dynfilter package:
//   - Registers Flight service handlers on an existing grpc.Server
//   - Provides a fluent registry builder API for defining entities
//   - Supports key remapping and OR search terms over several fields
//   - Remaps sort keys and orders nulls last
//   - Streams each page as an Arrow record batch with page metadata
//
// # Quick Start
//
//	package main
//
//	import (
//	    "log"
//	    "net"
//
//	    "github.com/apache/arrow-go/v18/arrow"
//	    "google.golang.org/grpc"
//
//	    "github.com/hugr-lab/dynfilter"
//	    "github.com/hugr-lab/dynfilter/paging"
//	    "github.com/hugr-lab/dynfilter/store"
//	)
//
//	func main() {
//	    postSchema := arrow.NewSchema([]arrow.Field{
//	        {Name: "id", Type: arrow.PrimitiveTypes.Int64},
//	        {Name: "title", Type: arrow.BinaryTypes.String},
//	    }, nil)
//
//	    posts := store.NewMemoryStore()
//	    posts.Insert("posts", store.Record{"id": int64(1), "title": "Hello"})
//
//	    registry, err := dynfilter.NewRegistryBuilder().
//	        Entity("posts").
//	            Schema(postSchema).
//	            DefaultSort(paging.By("id")).
//	            Store(posts).
//	        Build()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    config := dynfilter.ServerConfig{Registry: registry}
//	    grpcServer := grpc.NewServer(dynfilter.ServerOptions(config)...)
//	    if err := dynfilter.NewServer(grpcServer, config); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    lis, _ := net.Listen("tcp", ":50051")
//	    log.Fatal(grpcServer.Serve(lis))
//	}
//
// # Requests
//
// A DoGet ticket is a msgpack document naming the entity together with its
// criteria, page, size and sort keys ("property[,asc|desc]"). Sort keys are
// remapped like filter keys and always place nulls last.
// The page metadata (current page, total pages, total elements) travels as
// the app metadata of the returned batch.
//
// # Packages
//
//   - criteria: criteria string parsing
//   - schema: field path type resolution
//   - predicate: type-directed predicate compilation
//   - filter: predicate expressions, DuckDB encoding and in-memory evaluation
//   - paging: sort keys, page requests and page envelopes
//   - store: query executors (in-memory and DuckDB)
//   - listing: entity registry and the list operation
//   - flight: Arrow Flight transport
package dynfilter
