// Package serialize provides registry serialization to Arrow IPC format.
// Used by ListFlights RPC to serialize and compress entity metadata.
package serialize

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/dynfilter/listing"
	"github.com/hugr-lab/dynfilter/schema"
)

// Kinds of registry rows.
const (
	KindField  = "field"
	KindAlias  = "alias"
	KindSearch = "search"
)

// RegistrySchema is the Arrow schema of a serialized registry.
// One row describes a filterable key of an entity:
//   - field: a leaf field path with its type family
//   - alias: a remapped key, target is the field path it resolves to
//   - search: a search-term key, target lists the searched paths
var RegistrySchema = arrow.NewSchema([]arrow.Field{
	{Name: "entity_name", Type: arrow.BinaryTypes.String},
	{Name: "key", Type: arrow.BinaryTypes.String},
	{Name: "kind", Type: arrow.BinaryTypes.String},
	{Name: "type_family", Type: arrow.BinaryTypes.String},
	{Name: "nullable", Type: arrow.FixedWidthTypes.Boolean},
	{Name: "target", Type: arrow.BinaryTypes.String, Nullable: true},
}, nil)

// SerializeRegistry writes every entity of reg as Arrow IPC stream bytes.
func SerializeRegistry(reg *listing.Registry, allocator memory.Allocator) ([]byte, error) {
	builder := array.NewRecordBuilder(allocator, RegistrySchema)
	defer builder.Release()

	entityBuilder := builder.Field(0).(*array.StringBuilder)
	keyBuilder := builder.Field(1).(*array.StringBuilder)
	kindBuilder := builder.Field(2).(*array.StringBuilder)
	typeBuilder := builder.Field(3).(*array.StringBuilder)
	nullableBuilder := builder.Field(4).(*array.BooleanBuilder)
	targetBuilder := builder.Field(5).(*array.StringBuilder)

	appendRow := func(entity, key, kind string, tag schema.TypeTag, nullable bool, target string) {
		entityBuilder.Append(entity)
		keyBuilder.Append(key)
		kindBuilder.Append(kind)
		typeBuilder.Append(tag.String())
		nullableBuilder.Append(nullable)
		if target == "" {
			targetBuilder.AppendNull()
		} else {
			targetBuilder.Append(target)
		}
	}

	for _, e := range reg.Entities() {
		for _, path := range schema.Paths(e.Schema) {
			tag, err := schema.Resolve(e.Schema, path)
			if err != nil {
				return nil, fmt.Errorf("entity %s: %w", e.Name, err)
			}
			field, _ := schema.Field(e.Schema, path)
			appendRow(e.Name, path, KindField, tag, field.Nullable, "")
		}

		aliases := make([]string, 0, len(e.Remap))
		for key := range e.Remap {
			aliases = append(aliases, key)
		}
		slices.Sort(aliases)
		for _, key := range aliases {
			target := e.Remap.Resolve(key)
			tag, err := schema.Resolve(e.Schema, target)
			if err != nil {
				return nil, fmt.Errorf("entity %s alias %s: %w", e.Name, key, err)
			}
			field, _ := schema.Field(e.Schema, target)
			appendRow(e.Name, key, KindAlias, tag, field.Nullable, target)
		}

		for _, term := range e.SearchTerms {
			appendRow(e.Name, term.Key, KindSearch, schema.String, false, strings.Join(term.Paths, ","))
		}
	}

	record := builder.NewRecordBatch()
	defer record.Release()

	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(RegistrySchema), ipc.WithAllocator(allocator))

	if err := writer.Write(record); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write IPC record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close IPC writer: %w", err)
	}

	return buf.Bytes(), nil
}
