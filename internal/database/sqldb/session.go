package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/errs"
)

// queryer is the statement surface shared by *sqlx.Conn and *sqlx.Tx.
type queryer interface {
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type session struct {
	db       *sqlx.DB
	conn     *sqlx.Conn
	tx       *sqlx.Tx
	classify Classifier
}

// Exec runs query on the open transaction, if any, else on the connection.
func (s *session) Exec(ctx context.Context, query string, args ...any) (*database.ResultSet, error) {
	var q queryer = s.conn
	if s.tx != nil {
		q = s.tx
	}

	if !returnsRows(query) {
		res, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, s.mapError(err, "statement failed")
		}
		// not every driver reports a count
		n, _ := res.RowsAffected()
		return &database.ResultSet{Rows: [][]any{}, RowsAffected: n}, nil
	}

	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, s.mapError(err, "query failed")
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, s.mapError(err, "failed to read columns")
	}
	cols := make([]database.ResultColumn, len(types))
	for i, ct := range types {
		cols[i] = database.ResultColumn{Name: ct.Name(), NativeType: ct.DatabaseTypeName()}
	}

	data, err := database.ScanRows(rows, len(cols))
	if err != nil {
		return nil, s.mapError(err, "error iterating rows")
	}
	return &database.ResultSet{Columns: cols, Rows: data}, nil
}

// Begin implements database.Transactor.
func (s *session) Begin(ctx context.Context) error {
	if s.tx != nil {
		return errs.New(errs.ErrKindTransactionAborted, "a transaction is already open")
	}
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return s.mapError(err, "begin transaction")
	}
	s.tx = tx
	return nil
}

// Commit implements database.Transactor.
func (s *session) Commit(context.Context) error {
	tx, err := s.takeTx()
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return s.mapError(err, "commit transaction")
	}
	return nil
}

// Rollback implements database.Transactor.
func (s *session) Rollback(context.Context) error {
	tx, err := s.takeTx()
	if err != nil {
		return err
	}
	if err := tx.Rollback(); err != nil {
		return s.mapError(err, "rollback transaction")
	}
	return nil
}

func (s *session) takeTx() (*sqlx.Tx, error) {
	if s.tx == nil {
		return nil, errs.New(errs.ErrKindTransactionAborted, "no transaction is open")
	}
	tx := s.tx
	s.tx = nil
	return tx, nil
}

// Close rolls back any open transaction and releases the connection.
func (s *session) Close(context.Context) error {
	var rbErr error
	if s.tx != nil {
		rbErr = s.tx.Rollback()
		s.tx = nil
		if errors.Is(rbErr, sql.ErrTxDone) {
			rbErr = nil
		}
	}
	return errors.Join(rbErr, s.conn.Close(), s.db.Close())
}

func (s *session) mapError(err error, msg string) error {
	return mapError(err, msg, errs.ErrKindQueryFailed, s.classify)
}

// rowKeywords start statements that produce a result set.
var rowKeywords = map[string]bool{
	"SELECT":   true,
	"WITH":     true,
	"VALUES":   true,
	"SHOW":     true,
	"EXPLAIN":  true,
	"DESCRIBE": true,
	"DESC":     true,
	"PRAGMA":   true,
	"TABLE":    true,
	"CALL":     true,
	"EXEC":     true,
	"EXECUTE":  true,
	"SP_HELP":  true,
}

// dmlKeywords start statements that produce a result set only through a
// RETURNING (PostgreSQL, Firebird, HANA) or OUTPUT (SQL Server) clause.
var dmlKeywords = map[string]bool{
	"INSERT": true,
	"UPDATE": true,
	"DELETE": true,
	"MERGE":  true,
}

// returnsRows reports whether query should run through QueryContext, judged
// by its first keyword after leading comments and parentheses, or for DML by
// a RETURNING or OUTPUT clause outside quoted text.
func returnsRows(query string) bool {
	kw := leadingKeyword(query)
	if rowKeywords[kw] {
		return true
	}
	if !dmlKeywords[kw] {
		return false
	}
	for _, w := range words(query) {
		if w == "RETURNING" || w == "OUTPUT" {
			return true
		}
	}
	return false
}

// words returns the upper-cased bare words of query, skipping comments,
// string literals and quoted identifiers.
func words(query string) []string {
	var out []string
	skipTo := func(i int, closer string) int {
		j := strings.Index(query[i:], closer)
		if j < 0 {
			return len(query)
		}
		return i + j + len(closer)
	}
	for i := 0; i < len(query); {
		c := query[i]
		switch {
		case strings.HasPrefix(query[i:], "--"):
			i = skipTo(i, "\n")
		case strings.HasPrefix(query[i:], "/*"):
			i = skipTo(i+2, "*/")
		case c == '\'' || c == '"' || c == '`':
			i = skipTo(i+1, string(c))
		case c == '[':
			i = skipTo(i+1, "]")
		case isWordByte(c):
			j := i
			for j < len(query) && isWordByte(query[j]) {
				j++
			}
			out = append(out, strings.ToUpper(query[i:j]))
			i = j
		default:
			i++
		}
	}
	return out
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func leadingKeyword(query string) string {
	s := query
	for {
		s = strings.TrimLeft(s, " \t\r\n(")
		switch {
		case strings.HasPrefix(s, "--"):
			i := strings.IndexByte(s, '\n')
			if i < 0 {
				return ""
			}
			s = s[i+1:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s, "*/")
			if i < 0 {
				return ""
			}
			s = s[i+2:]
		default:
			end := strings.IndexFunc(s, func(r rune) bool {
				return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
			})
			if end < 0 {
				end = len(s)
			}
			return strings.ToUpper(s[:end])
		}
	}
}
