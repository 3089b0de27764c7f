package schema

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Resolve returns the type family of the field named by a dotted path.
//
// Intermediate segments must be struct fields; resolution descends into them.
// If an intermediate segment is a collection, resolution stops there and
// Collection is returned without looking at the element type. Any missing
// segment, or a segment below a scalar field, yields a *FieldError.
func Resolve(s *arrow.Schema, path string) (TypeTag, error) {
	if s == nil || path == "" {
		return Unsupported, &FieldError{Path: path, Segment: path}
	}

	segments := strings.Split(path, ".")

	field, ok := topLevelField(s, segments[0])
	if !ok {
		return Unsupported, &FieldError{Path: path, Segment: segments[0]}
	}

	for _, segment := range segments[1:] {
		switch dt := field.Type.(type) {
		case *arrow.StructType:
			child, ok := dt.FieldByName(segment)
			if !ok {
				return Unsupported, &FieldError{Path: path, Segment: segment}
			}
			field = child
		case arrow.ListLikeType:
			return Collection, nil
		default:
			return Unsupported, &FieldError{Path: path, Segment: segment}
		}
	}

	return TagOf(field.Type), nil
}

// Field returns the Arrow field at a dotted path, descending through structs only.
func Field(s *arrow.Schema, path string) (arrow.Field, bool) {
	if s == nil || path == "" {
		return arrow.Field{}, false
	}

	segments := strings.Split(path, ".")
	field, ok := topLevelField(s, segments[0])
	if !ok {
		return arrow.Field{}, false
	}

	for _, segment := range segments[1:] {
		st, isStruct := field.Type.(*arrow.StructType)
		if !isStruct {
			return arrow.Field{}, false
		}
		if field, ok = st.FieldByName(segment); !ok {
			return arrow.Field{}, false
		}
	}
	return field, true
}

// Paths lists every leaf path of the schema in field order. Struct fields are
// expanded, collections are listed as a single path.
func Paths(s *arrow.Schema) []string {
	if s == nil {
		return nil
	}

	var paths []string
	for _, f := range s.Fields() {
		paths = appendPaths(paths, "", f)
	}
	return paths
}

func appendPaths(paths []string, prefix string, f arrow.Field) []string {
	name := f.Name
	if prefix != "" {
		name = prefix + "." + f.Name
	}

	st, ok := f.Type.(*arrow.StructType)
	if !ok {
		return append(paths, name)
	}
	for _, child := range st.Fields() {
		paths = appendPaths(paths, name, child)
	}
	return paths
}

func topLevelField(s *arrow.Schema, name string) (arrow.Field, bool) {
	indices := s.FieldIndices(name)
	if len(indices) == 0 {
		return arrow.Field{}, false
	}
	return s.Field(indices[0]), true
}
