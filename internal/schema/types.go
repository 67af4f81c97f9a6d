package schema

import "github.com/koustreak/dbinspect/internal/database"

// RawTable is one row of a Tables catalog query.
type RawTable struct {
	Schema    string
	Name      string
	Type      string
	RowCount  *int64
	SizeBytes *int64
	Comment   *string
}

// RawColumn is one row of a Columns catalog query. Nil fields were NULL or
// missing in the source row.
type RawColumn struct {
	Name      string
	Type      *string
	Length    *int
	Precision *int
	Scale     *int
	Nullable  *bool
	Default   *string
	Ordinal   *int
}

// RawConstraint is one row of a Constraints catalog query.
type RawConstraint struct {
	Name      string
	Kind      string
	Table     string
	Column    string
	RefTable  string
	RefColumn string
}

// DecodeTables reads a Tables result set.
func DecodeTables(rs *database.ResultSet) []RawTable {
	out := make([]RawTable, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		out = append(out, RawTable{
			Schema:    textOr(at(row, 0)),
			Name:      textOr(at(row, 1)),
			Type:      textOr(at(row, 2)),
			RowCount:  optInt64(at(row, 3)),
			SizeBytes: optInt64(at(row, 4)),
			Comment:   optText(at(row, 5)),
		})
	}
	return out
}

// DecodeColumns reads a Columns result set.
func DecodeColumns(rs *database.ResultSet) []RawColumn {
	out := make([]RawColumn, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		out = append(out, RawColumn{
			Name:      textOr(at(row, 0)),
			Type:      optText(at(row, 1)),
			Length:    optInt(at(row, 2)),
			Precision: optInt(at(row, 3)),
			Scale:     optInt(at(row, 4)),
			Nullable:  optBool(at(row, 5)),
			Default:   optText(at(row, 6)),
			Ordinal:   optInt(at(row, 7)),
		})
	}
	return out
}

// DecodeConstraints reads a Constraints result set.
func DecodeConstraints(rs *database.ResultSet) []RawConstraint {
	out := make([]RawConstraint, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		out = append(out, RawConstraint{
			Name:      textOr(at(row, 0)),
			Kind:      textOr(at(row, 1)),
			Table:     textOr(at(row, 2)),
			Column:    textOr(at(row, 3)),
			RefTable:  textOr(at(row, 4)),
			RefColumn: textOr(at(row, 5)),
		})
	}
	return out
}

// DecodeStrings reads the first column of every row, skipping NULLs.
func DecodeStrings(rs *database.ResultSet) []string {
	out := make([]string, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		if s, ok := text(at(row, 0)); ok {
			out = append(out, s)
		}
	}
	return out
}

// DecodeDatabaseInfo reads the first row of a DatabaseInfo result set.
// Version is filled in separately from the dialect's version probe.
func DecodeDatabaseInfo(rs *database.ResultSet) database.DatabaseInfo {
	if len(rs.Rows) == 0 {
		return database.DatabaseInfo{}
	}
	row := rs.Rows[0]
	return database.DatabaseInfo{
		Name:      textOr(at(row, 0)),
		Encoding:  optText(at(row, 1)),
		Collation: optText(at(row, 2)),
	}
}
