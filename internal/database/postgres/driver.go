package postgres

import (
	"context"
	"database/sql/driver"
	"net/netip"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/errs"
)

// session is one pgx connection. It is not safe for concurrent use; the
// pool hands it to one caller at a time.
type session struct {
	conn *pgx.Conn
}

// Exec runs query and buffers every row. Statements without a result set
// report the affected row count from the command tag.
func (s *session) Exec(ctx context.Context, query string, args ...any) (*database.ResultSet, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		if s.conn.IsClosed() && ctx.Err() == nil {
			return nil, errs.Wrap(errs.ErrKindConnectionFailed, "connection lost", err)
		}
		return nil, mapError(err, "query failed")
	}
	defer rows.Close()

	descs := rows.FieldDescriptions()
	cols := make([]database.ResultColumn, len(descs))
	for i, d := range descs {
		cols[i] = database.ResultColumn{Name: d.Name, NativeType: s.typeName(d)}
	}

	data := make([][]any, 0)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, mapError(err, "failed to decode row")
		}
		for i, v := range vals {
			vals[i] = normalizeValue(v)
		}
		data = append(data, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating rows")
	}

	return &database.ResultSet{
		Columns:      cols,
		Rows:         data,
		RowsAffected: rows.CommandTag().RowsAffected(),
	}, nil
}

// Close terminates the connection.
func (s *session) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// typeName resolves a result column's type OID to its catalog name, falling
// back to the numeric OID for types the connection has not loaded.
func (s *session) typeName(d pgconn.FieldDescription) string {
	if t, ok := s.conn.TypeMap().TypeForOID(d.DataTypeOID); ok {
		return t.Name
	}
	return strconv.FormatUint(uint64(d.DataTypeOID), 10)
}

// normalizeValue turns pgtype wrappers into plain Go values.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil, time.Time:
		return v
	case [16]byte:
		return uuid.UUID(x).String()
	case netip.Prefix:
		return x.String()
	case driver.Valuer:
		out, err := x.Value()
		if err != nil {
			return v
		}
		return out
	}
	return v
}
