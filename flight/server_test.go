package flight

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/dynfilter/internal/msgpack"
	"github.com/hugr-lab/dynfilter/internal/serialize"
	"github.com/hugr-lab/dynfilter/listing"
	"github.com/hugr-lab/dynfilter/paging"
	"github.com/hugr-lab/dynfilter/predicate"
	"github.com/hugr-lab/dynfilter/schema"
	"github.com/hugr-lab/dynfilter/store"
)

var postSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int32},
	{Name: "title", Type: arrow.BinaryTypes.String},
	{Name: "author", Type: arrow.StructOf(
		arrow.Field{Name: "userName", Type: arrow.BinaryTypes.String},
		arrow.Field{Name: "fullName", Type: arrow.BinaryTypes.String, Nullable: true},
	)},
}, nil)

type panickingStore struct{}

func (panickingStore) Find(context.Context, store.Query) (paging.Page[store.Record], error) {
	panic("store exploded")
}

func testService(t *testing.T) *listing.Service {
	t.Helper()

	posts := store.NewMemoryStore()
	posts.Insert("posts",
		store.Record{"id": int32(1), "title": "Go generics", "author": map[string]any{"userName": "jdoe", "fullName": "Jane Doe"}},
		store.Record{"id": int32(2), "title": "Arrow IPC", "author": map[string]any{"userName": "anon", "fullName": nil}},
		store.Record{"id": int32(3), "title": "DuckDB", "author": map[string]any{"userName": "alee", "fullName": "Ann Lee"}},
	)

	registry, err := listing.NewRegistry(
		&listing.Entity{
			Name:        "posts",
			Schema:      postSchema,
			Remap:       schema.Remap{"authorName": "author.fullName"},
			SearchTerms: []predicate.SearchTerm{{Key: "author_term", Paths: []string{"author.userName", "author.fullName"}}},
			DefaultSort: paging.Sort{paging.By("id")},
			Store:       posts,
		},
		&listing.Entity{Name: "broken", Schema: postSchema, Store: panickingStore{}},
	)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	svc, err := listing.NewService(listing.Config{Registry: registry})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

// newTestClient serves svc on a random local port and returns a connected client.
func newTestClient(t *testing.T, svc *listing.Service) flight.FlightServiceClient {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	grpcServer := grpc.NewServer()
	RegisterFlightServer(grpcServer, NewServer(svc, memory.DefaultAllocator, logger))
	go func() {
		_ = grpcServer.Serve(lis)
	}()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return flight.NewFlightServiceClient(conn)
}

func doGet(t *testing.T, client flight.FlightServiceClient, td TicketData) ([]int32, paging.Response) {
	t.Helper()

	ticket, err := EncodeTicket(td)
	if err != nil {
		t.Fatalf("EncodeTicket failed: %v", err)
	}
	stream, err := client.DoGet(context.Background(), &flight.Ticket{Ticket: ticket})
	if err != nil {
		t.Fatalf("DoGet failed: %v", err)
	}

	reader, err := flight.NewRecordReader(stream)
	if err != nil {
		t.Fatalf("failed to create record reader: %v", err)
	}
	defer reader.Release()

	if !reader.Schema().Equal(postSchema) {
		t.Errorf("unexpected schema %s", reader.Schema())
	}

	var ids []int32
	var meta paging.Response
	for reader.Next() {
		rec := reader.RecordBatch()
		col := rec.Column(0).(*array.Int32)
		for i := 0; i < col.Len(); i++ {
			ids = append(ids, col.Value(i))
		}
		if err := msgpack.Decode(reader.LatestAppMetadata(), &meta); err != nil {
			t.Fatalf("failed to decode page metadata: %v", err)
		}
	}
	if err := reader.Err(); err != nil && err != io.EOF {
		t.Fatalf("reader error: %v", err)
	}
	return ids, meta
}

func TestDoGet(t *testing.T) {
	client := newTestClient(t, testService(t))

	tests := []struct {
		name      string
		td        TicketData
		wantIDs   []int32
		wantTotal int64
	}{
		{"default", TicketData{Entity: "posts"}, []int32{1, 2, 3}, 3},
		{"remapped filter", TicketData{Entity: "posts", Filter: []string{"authorName-lee"}}, []int32{3}, 1},
		{"search term", TicketData{Entity: "posts", Filter: []string{"author_term:anon"}}, []int32{2}, 1},
		{"sorted", TicketData{Entity: "posts", Sort: []string{"authorName,desc"}}, []int32{1, 3, 2}, 3},
		{"paged", TicketData{Entity: "posts", Page: 1, Size: 2}, []int32{3}, 3},
		{"empty", TicketData{Entity: "posts", Filter: []string{"title:none"}}, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, meta := doGet(t, client, tt.td)
			if len(ids) != len(tt.wantIDs) {
				t.Fatalf("expected ids %v, got %v", tt.wantIDs, ids)
			}
			for i := range ids {
				if ids[i] != tt.wantIDs[i] {
					t.Errorf("expected ids %v, got %v", tt.wantIDs, ids)
					break
				}
			}
			if meta.TotalElements != tt.wantTotal {
				t.Errorf("expected %d elements, got %d", tt.wantTotal, meta.TotalElements)
			}
			if meta.CurrentPage != tt.td.Page+1 {
				t.Errorf("expected current page %d, got %d", tt.td.Page+1, meta.CurrentPage)
			}
		})
	}
}

func TestDoGetErrors(t *testing.T) {
	client := newTestClient(t, testService(t))

	tests := []struct {
		name   string
		ticket []byte
		want   codes.Code
	}{
		{"bad ticket", []byte("not a ticket"), codes.InvalidArgument},
		{"unknown entity", mustTicket(t, TicketData{Entity: "comments"}), codes.NotFound},
		{"bad filter", mustTicket(t, TicketData{Entity: "posts", Filter: []string{"title"}}), codes.InvalidArgument},
		{"unknown field", mustTicket(t, TicketData{Entity: "posts", Filter: []string{"rank>1"}}), codes.InvalidArgument},
		{"bad sort", mustTicket(t, TicketData{Entity: "posts", Sort: []string{"title,sideways"}}), codes.InvalidArgument},
		{"store panic", mustTicket(t, TicketData{Entity: "broken"}), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream, err := client.DoGet(context.Background(), &flight.Ticket{Ticket: tt.ticket})
			if err == nil {
				_, err = stream.Recv()
			}
			if status.Code(err) != tt.want {
				t.Errorf("expected %s, got %v", tt.want, err)
			}
		})
	}
}

func mustTicket(t *testing.T, td TicketData) []byte {
	t.Helper()
	ticket, err := EncodeTicket(td)
	if err != nil {
		t.Fatalf("EncodeTicket failed: %v", err)
	}
	return ticket
}

func TestGetFlightInfo(t *testing.T) {
	client := newTestClient(t, testService(t))
	ctx := context.Background()

	info, err := client.GetFlightInfo(ctx, &flight.FlightDescriptor{Type: flight.DescriptorPATH, Path: []string{"posts"}})
	if err != nil {
		t.Fatalf("GetFlightInfo failed: %v", err)
	}
	got, err := flight.DeserializeSchema(info.GetSchema(), memory.DefaultAllocator)
	if err != nil {
		t.Fatalf("failed to deserialize schema: %v", err)
	}
	if !got.Equal(postSchema) {
		t.Errorf("unexpected schema %s", got)
	}

	td, err := DecodeTicket(info.GetEndpoint()[0].GetTicket().GetTicket())
	if err != nil || td.Entity != "posts" {
		t.Errorf("unexpected ticket %+v, %v", td, err)
	}

	cmd := mustTicket(t, TicketData{Entity: "posts", Filter: []string{"id>1"}})
	info, err = client.GetFlightInfo(ctx, &flight.FlightDescriptor{Type: flight.DescriptorCMD, Cmd: cmd})
	if err != nil {
		t.Fatalf("GetFlightInfo(CMD) failed: %v", err)
	}
	if string(info.GetEndpoint()[0].GetTicket().GetTicket()) != string(cmd) {
		t.Error("expected the command to be returned as ticket")
	}

	errorCases := []struct {
		desc *flight.FlightDescriptor
		want codes.Code
	}{
		{&flight.FlightDescriptor{Type: flight.DescriptorPATH, Path: []string{"main", "posts"}}, codes.InvalidArgument},
		{&flight.FlightDescriptor{Type: flight.DescriptorPATH, Path: []string{"comments"}}, codes.NotFound},
		{&flight.FlightDescriptor{Type: flight.DescriptorCMD, Cmd: []byte("x")}, codes.InvalidArgument},
	}
	for _, tc := range errorCases {
		if _, err := client.GetFlightInfo(ctx, tc.desc); status.Code(err) != tc.want {
			t.Errorf("%v: expected %s, got %v", tc.desc, tc.want, err)
		}
	}
}

func TestListFlights(t *testing.T) {
	client := newTestClient(t, testService(t))

	stream, err := client.ListFlights(context.Background(), &flight.Criteria{})
	if err != nil {
		t.Fatalf("ListFlights failed: %v", err)
	}

	info, err := stream.Recv()
	if err != nil {
		t.Fatalf("stream.Recv() failed: %v", err)
	}
	if info.GetTotalRecords() != 2 {
		t.Errorf("expected 2 entities, got %d", info.GetTotalRecords())
	}

	data, err := serialize.Decompress(info.GetEndpoint()[0].GetTicket().GetTicket())
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	reader, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to read registry: %v", err)
	}
	defer reader.Release()

	entities := map[string]int{}
	for reader.Next() {
		rec := reader.RecordBatch()
		names := rec.Column(0).(*array.String)
		for i := 0; i < names.Len(); i++ {
			entities[names.Value(i)]++
		}
	}
	// posts: 4 fields, 1 alias, 1 search term; broken: 4 fields.
	if entities["posts"] != 6 || entities["broken"] != 4 {
		t.Errorf("unexpected registry rows %v", entities)
	}

	if _, err := stream.Recv(); err != io.EOF {
		t.Errorf("expected EOF after result, got %v", err)
	}
}
