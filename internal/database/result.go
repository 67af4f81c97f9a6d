package database

// Field is one (column, canonical type, value) triple of a result row.
type Field struct {
	Name  string        `json:"name"`
	Type  CanonicalType `json:"type"`
	Value any           `json:"value"`
}

// Row is an ordered result row. Every adapter produces the same shape
// regardless of driver.
type Row []Field

// Get returns the value of the named column.
func (r Row) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Map returns the row as a name to value mapping.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r))
	for _, f := range r {
		m[f.Name] = f.Value
	}
	return m
}

// ColumnDescriptor describes a result column.
type ColumnDescriptor struct {
	Name       string        `json:"name"`
	Type       CanonicalType `json:"type"`
	NativeType string        `json:"nativeType"`
}

// QueryResult is the structured outcome of a statement. When Success is
// false Rows is empty and Error is set; when true Error is empty.
type QueryResult struct {
	Success         bool               `json:"success"`
	Rows            []Row              `json:"rows"`
	RowCount        int                `json:"rowCount"`
	Columns         []ColumnDescriptor `json:"columns"`
	ExecutionTimeMs int64              `json:"executionTime"`
	Error           string             `json:"error,omitempty"`

	// Statement is the SQL actually sent after dialect rewriting.
	Statement string `json:"statement,omitempty"`
	// Err is the classified error behind Error.
	Err error `json:"-"`
}

// Failed builds a failed result from err.
func Failed(statement string, err error, elapsedMs int64) *QueryResult {
	return &QueryResult{
		Success:         false,
		Rows:            []Row{},
		Columns:         []ColumnDescriptor{},
		ExecutionTimeMs: elapsedMs,
		Error:           err.Error(),
		Statement:       statement,
		Err:             err,
	}
}

// ResultColumn is a column as reported by a native session.
type ResultColumn struct {
	Name       string
	NativeType string
}

// ResultSet is the raw, fully buffered output of Session.Exec.
type ResultSet struct {
	Columns      []ResultColumn
	Rows         [][]any
	RowsAffected int64
}

// Scanner is the cursor shape shared by database/sql and pgx result sets.
type Scanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// ScanRows reads all remaining rows of width columns into fresh slices.
// The returned slice is always non-nil. Callers close the cursor.
func ScanRows(rows Scanner, width int) ([][]any, error) {
	result := make([][]any, 0)

	for rows.Next() {
		// Allocate scan targets as *any so the driver can write any type.
		dest := make([]any, width)
		destPtrs := make([]any, width)
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return nil, err
		}
		result = append(result, dest)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
