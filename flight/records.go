package flight

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/dynfilter/store"
)

// BuildRecordBatch converts records into one Arrow record batch of schema.
// Fields missing from a record are appended as NULL.
func BuildRecordBatch(allocator memory.Allocator, schema *arrow.Schema, records []store.Record) (arrow.RecordBatch, error) {
	builder := array.NewRecordBuilder(allocator, schema)
	defer builder.Release()

	for i, field := range schema.Fields() {
		fb := builder.Field(i)
		for row, record := range records {
			if err := appendValue(fb, field.Type, record[field.Name]); err != nil {
				return nil, fmt.Errorf("row %d field %s: %w", row, field.Name, err)
			}
		}
	}

	return builder.NewRecordBatch(), nil
}

// appendValue appends a Go value to an Arrow builder of type dt.
func appendValue(b array.Builder, dt arrow.DataType, value any) error {
	if value == nil {
		b.AppendNull()
		return nil
	}

	switch b := b.(type) {
	case *array.BooleanBuilder:
		v, ok := value.(bool)
		if !ok {
			return mismatch(dt, value)
		}
		b.Append(v)
	case *array.Int8Builder:
		v, ok := narrow[int8](value)
		if !ok {
			return mismatch(dt, value)
		}
		b.Append(v)
	case *array.Int16Builder:
		v, ok := narrow[int16](value)
		if !ok {
			return mismatch(dt, value)
		}
		b.Append(v)
	case *array.Int32Builder:
		v, ok := narrow[int32](value)
		if !ok {
			return mismatch(dt, value)
		}
		b.Append(v)
	case *array.Int64Builder:
		v, ok := toInt64(value)
		if !ok {
			return mismatch(dt, value)
		}
		b.Append(v)
	case *array.Uint8Builder:
		v, ok := narrow[uint8](value)
		if !ok {
			return mismatch(dt, value)
		}
		b.Append(v)
	case *array.Uint16Builder:
		v, ok := narrow[uint16](value)
		if !ok {
			return mismatch(dt, value)
		}
		b.Append(v)
	case *array.Uint32Builder:
		v, ok := narrow[uint32](value)
		if !ok {
			return mismatch(dt, value)
		}
		b.Append(v)
	case *array.Float32Builder:
		v, ok := toFloat64(value)
		if !ok {
			return mismatch(dt, value)
		}
		b.Append(float32(v))
	case *array.Float64Builder:
		v, ok := toFloat64(value)
		if !ok {
			return mismatch(dt, value)
		}
		b.Append(v)
	case *array.StringBuilder:
		v, ok := value.(string)
		if !ok {
			return mismatch(dt, value)
		}
		b.Append(v)
	case *array.LargeStringBuilder:
		v, ok := value.(string)
		if !ok {
			return mismatch(dt, value)
		}
		b.Append(v)
	case *array.BinaryBuilder:
		switch v := value.(type) {
		case []byte:
			b.Append(v)
		case string:
			b.Append([]byte(v))
		default:
			return mismatch(dt, value)
		}
	case *array.Date32Builder:
		v, ok := value.(time.Time)
		if !ok {
			return mismatch(dt, value)
		}
		b.Append(arrow.Date32FromTime(v))
	case *array.Date64Builder:
		v, ok := value.(time.Time)
		if !ok {
			return mismatch(dt, value)
		}
		b.Append(arrow.Date64FromTime(v))
	case *array.TimestampBuilder:
		v, ok := value.(time.Time)
		if !ok {
			return mismatch(dt, value)
		}
		ts, err := arrow.TimestampFromTime(v, dt.(*arrow.TimestampType).Unit)
		if err != nil {
			return fmt.Errorf("failed to convert time: %w", err)
		}
		b.Append(ts)
	case *array.StructBuilder:
		return appendStruct(b, dt.(*arrow.StructType), value)
	case *array.ListBuilder:
		return appendList(b, dt.(*arrow.ListType).Elem(), value)
	default:
		return fmt.Errorf("unsupported Arrow type %s", dt)
	}
	return nil
}

func appendStruct(b *array.StructBuilder, st *arrow.StructType, value any) error {
	m, ok := value.(map[string]any)
	if !ok {
		return mismatch(st, value)
	}
	b.Append(true)
	for i, f := range st.Fields() {
		if err := appendValue(b.FieldBuilder(i), f.Type, m[f.Name]); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return nil
}

func appendList(b *array.ListBuilder, elem arrow.DataType, value any) error {
	var items []any
	switch v := value.(type) {
	case []any:
		items = v
	case []string:
		items = make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
	default:
		return mismatch(arrow.ListOf(elem), value)
	}

	b.Append(true)
	vb := b.ValueBuilder()
	for _, item := range items {
		if err := appendValue(vb, elem, item); err != nil {
			return err
		}
	}
	return nil
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	default:
		return 0, false
	}
}

// narrow converts an integer value to T, failing when it does not fit.
func narrow[T int8 | int16 | int32 | uint8 | uint16 | uint32](value any) (T, bool) {
	v, ok := toInt64(value)
	if !ok || int64(T(v)) != v {
		return 0, false
	}
	return T(v), true
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	if i, ok := toInt64(value); ok {
		return float64(i), true
	}
	return 0, false
}

func mismatch(dt arrow.DataType, value any) error {
	return fmt.Errorf("cannot append %T to %s", value, dt)
}
