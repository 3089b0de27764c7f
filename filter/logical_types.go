package filter

// LogicalTypeID identifies the SQL type of a column or constant.
type LogicalTypeID string

const (
	TypeIDSQLNull   LogicalTypeID = "SQLNULL"
	TypeIDBoolean   LogicalTypeID = "BOOLEAN"
	TypeIDInteger   LogicalTypeID = "INTEGER"
	TypeIDBigInt    LogicalTypeID = "BIGINT"
	TypeIDDouble    LogicalTypeID = "DOUBLE"
	TypeIDVarchar   LogicalTypeID = "VARCHAR"
	TypeIDDate      LogicalTypeID = "DATE"
	TypeIDTimestamp LogicalTypeID = "TIMESTAMP"
	TypeIDList      LogicalTypeID = "LIST"
	TypeIDStruct    LogicalTypeID = "STRUCT"
)

// LogicalType describes the type of a column reference or constant.
type LogicalType struct {
	ID LogicalTypeID
}

// Value represents a typed constant value.
//
// Data holds bool for BOOLEAN, int32 for INTEGER, int64 for BIGINT,
// float64 for DOUBLE, string for VARCHAR and time.Time for DATE and TIMESTAMP.
// DATE values are midnight UTC.
type Value struct {
	Type   LogicalType
	IsNull bool
	Data   any
}

// IsComplex returns true if the type is a complex/nested type.
func (t LogicalTypeID) IsComplex() bool {
	switch t {
	case TypeIDList, TypeIDStruct:
		return true
	}
	return false
}
