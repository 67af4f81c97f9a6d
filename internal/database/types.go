package database

import "time"

// CanonicalType is the engine-independent classification of a column type.
type CanonicalType string

const (
	TypeString  CanonicalType = "string"
	TypeNumber  CanonicalType = "number"
	TypeDate    CanonicalType = "date"
	TypeBoolean CanonicalType = "boolean"
	TypeBinary  CanonicalType = "binary"
	TypeUnknown CanonicalType = "unknown"
)

// TableType is the closed set of relation kinds exposed to consumers.
type TableType string

const (
	TableTypeTable   TableType = "table"
	TableTypeView    TableType = "view"
	TableTypeSystem  TableType = "system table"
	TableTypeSynonym TableType = "synonym"
	TableTypeForeign TableType = "foreign table"
)

// TableInfo describes a table or view. Columns are ordered by
// OrdinalPosition and unique by name.
type TableInfo struct {
	Schema    string           `json:"schema"`
	Name      string           `json:"name"`
	Type      TableType        `json:"type"`
	Columns   []ColumnMetadata `json:"columns"`
	RowCount  *int64           `json:"rowCount,omitempty"`
	SizeBytes *int64           `json:"sizeBytes,omitempty"`
	Comment   *string          `json:"comment,omitempty"`
}

// Column returns the column with the given name.
func (t *TableInfo) Column(name string) (ColumnMetadata, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnMetadata{}, false
}

// ColumnMetadata describes a single column in a table
type ColumnMetadata struct {
	Name            string        `json:"name"`
	Type            CanonicalType `json:"type"`
	NativeType      string        `json:"nativeType"`
	CanonicalString string        `json:"canonicalType"`
	Nullable        bool          `json:"nullable"`
	Length          *int          `json:"length,omitempty"`
	Precision       *int          `json:"precision,omitempty"`
	Scale           *int          `json:"scale,omitempty"`
	Default         *string       `json:"defaultValue,omitempty"`
	IsPrimaryKey    bool          `json:"isPrimaryKey"`
	IsForeignKey    bool          `json:"isForeignKey"`
	RefTable        string        `json:"referencedTable,omitempty"`
	RefColumn       string        `json:"referencedColumn,omitempty"`
	OrdinalPosition int           `json:"ordinalPosition"`
}

// ConstraintKind is the kind of a table constraint.
type ConstraintKind string

const (
	ConstraintPrimaryKey ConstraintKind = "PRIMARY KEY"
	ConstraintForeignKey ConstraintKind = "FOREIGN KEY"
	ConstraintUnique     ConstraintKind = "UNIQUE"
	ConstraintCheck      ConstraintKind = "CHECK"
)

// ConstraintInfo describes one column's participation in a constraint.
type ConstraintInfo struct {
	Name      string         `json:"name"`
	Kind      ConstraintKind `json:"type"`
	Table     string         `json:"tableName"`
	Column    string         `json:"columnName"`
	RefTable  string         `json:"referencedTable,omitempty"`
	RefColumn string         `json:"referencedColumn,omitempty"`
}

// DatabaseInfo is the result of a database info probe.
type DatabaseInfo struct {
	Version   string  `json:"version"`
	Name      string  `json:"name"`
	Encoding  *string `json:"encoding,omitempty"`
	Collation *string `json:"collation,omitempty"`
}

// ConnectionTestResult reports a short-lived connection probe.
type ConnectionTestResult struct {
	Success bool   `json:"success"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TableOptions narrows GetTables.
type TableOptions struct {
	// Schema overrides the configured schema.
	Schema string
	// AllSchemas lists tables of every non-system schema.
	AllSchemas bool
	// ExcludeViews drops views from the result.
	ExcludeViews bool
}

// QueryOptions tunes ExecuteQuery.
type QueryOptions struct {
	// MaxRows limits SELECT statements through the engine's limiting clause.
	MaxRows int
	// Timeout bounds execution; on expiry the session is discarded.
	Timeout time.Duration
	// Args are bound positionally.
	Args []any
}
