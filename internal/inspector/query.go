package inspector

import (
	"context"
	"errors"
	"time"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/koustreak/dbinspect/internal/pool"
	"github.com/spf13/cast"
)

// ExecuteQuery runs one statement and never returns an error: every failure
// is captured in the result. With opts.MaxRows set, a SELECT gets the
// engine's row-limiting clause. A statement that times out leaves its
// session suspect, and the session is discarded instead of reused.
func (a *Adapter) ExecuteQuery(ctx context.Context, c *Connection, sql string, opts *database.QueryOptions) *database.QueryResult {
	if opts == nil {
		opts = &database.QueryOptions{}
	}
	start := time.Now()

	statement := sql
	if opts.MaxRows > 0 {
		statement = a.dialect.ApplyRowLimit(sql, opts.MaxRows)
	}

	lease, err := c.acquire(ctx)
	if err != nil {
		return database.Failed(statement, err, elapsedMs(start))
	}
	defer lease.Release()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.cfg.QueryTimeout
	}
	rs, err := a.exec(ctx, lease, timeout, statement, opts.Args...)
	if err != nil {
		a.log.DebugWith("query failed", map[string]any{"statement": statement, "error": err.Error()})
		return database.Failed(statement, err, elapsedMs(start))
	}

	res := a.buildResult(rs)
	res.Statement = statement
	res.ExecutionTimeMs = elapsedMs(start)
	return res
}

// ExecuteTransaction runs statements in order inside one transaction on one
// session. At the first failure it rolls back, skips the remaining
// statements and returns the results so far (the failed one last) together
// with an *errs.TransactionError carrying the 0-based index of the failing
// statement. A failed rollback is logged; the statement's error is the one
// returned.
func (a *Adapter) ExecuteTransaction(ctx context.Context, c *Connection, statements []string) ([]*database.QueryResult, error) {
	lease, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	s := lease.Session()
	tx, useDriver := s.(database.Transactor)
	useDriver = useDriver && a.dialect.BeginStatement() == ""

	if useDriver {
		err = tx.Begin(ctx)
	} else if begin := a.dialect.BeginStatement(); begin != "" {
		_, err = s.Exec(ctx, begin)
	}
	if err != nil {
		lease.MarkSuspect()
		return nil, errs.Wrap(errs.ErrKindTransactionAborted, "begin transaction", err)
	}

	results := make([]*database.QueryResult, 0, len(statements))
	for i, stmt := range statements {
		start := time.Now()
		rs, err := a.exec(ctx, lease, c.cfg.QueryTimeout, stmt)
		if err != nil {
			results = append(results, database.Failed(stmt, err, elapsedMs(start)))
			a.rollback(lease, tx, useDriver, i)
			return results, &errs.TransactionError{Index: i, Cause: err}
		}
		res := a.buildResult(rs)
		res.Statement = stmt
		res.ExecutionTimeMs = elapsedMs(start)
		results = append(results, res)
	}

	if useDriver {
		err = tx.Commit(ctx)
	} else {
		_, err = s.Exec(ctx, a.dialect.CommitStatement())
	}
	if err != nil {
		a.rollback(lease, tx, useDriver, len(statements))
		return results, errs.Wrap(errs.ErrKindTransactionAborted, "commit transaction", err)
	}
	return results, nil
}

// rollback undoes the open transaction. Its failure leaves the session in
// an unknown state, so the session is discarded.
func (a *Adapter) rollback(lease *pool.Lease, tx database.Transactor, useDriver bool, index int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	if useDriver {
		err = tx.Rollback(ctx)
	} else {
		_, err = lease.Session().Exec(ctx, a.dialect.RollbackStatement())
	}
	if err != nil {
		lease.MarkSuspect()
		a.log.WarnWith("rollback failed", err, map[string]any{"index": index})
	}
}

// PreviewTable returns up to limit rows of schema.table. An empty schema
// means the connection's default schema.
func (a *Adapter) PreviewTable(ctx context.Context, c *Connection, schemaName, table string, limit int) *database.QueryResult {
	if schemaName == "" {
		schemaName = c.DefaultSchema()
	}
	sql, args, err := a.dialect.Select(schemaName, table).Limit(limit).Build()
	if err != nil {
		return database.Failed(sql, err, 0)
	}
	return a.ExecuteQuery(ctx, c, sql, &database.QueryOptions{Args: args})
}

// exec runs one statement bounded by timeout. On expiry the lease is marked
// suspect and the error is ErrKindTimeout.
func (a *Adapter) exec(ctx context.Context, lease *pool.Lease, timeout time.Duration, stmt string, args ...any) (*database.ResultSet, error) {
	qctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	rs, err := lease.Session().Exec(qctx, stmt, args...)
	if err == nil {
		return rs, nil
	}
	if qctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		lease.MarkSuspect()
		return nil, errs.Wrap(errs.ErrKindTimeout, "statement timed out", err)
	}
	markIfBroken(lease, err)
	return nil, errs.Annotate(errs.ErrKindQueryFailed, "execute statement", err)
}

// buildResult turns a raw result set into tagged rows. Byte slices become
// strings unless the column is binary.
func (a *Adapter) buildResult(rs *database.ResultSet) *database.QueryResult {
	cols := make([]database.ColumnDescriptor, len(rs.Columns))
	for i, rc := range rs.Columns {
		cols[i] = database.ColumnDescriptor{
			Name:       rc.Name,
			NativeType: rc.NativeType,
			Type:       a.types.Normalize(rc.NativeType, nil, nil, nil),
		}
	}

	rows := make([]database.Row, len(rs.Rows))
	for r, raw := range rs.Rows {
		row := make(database.Row, len(cols))
		for i, col := range cols {
			var v any
			if i < len(raw) {
				v = raw[i]
			}
			if b, ok := v.([]byte); ok && col.Type != database.TypeBinary {
				v = string(b)
			}
			row[i] = database.Field{Name: col.Name, Type: col.Type, Value: v}
		}
		rows[r] = row
	}

	count := len(rows)
	if len(cols) == 0 {
		count = int(rs.RowsAffected)
	}
	return &database.QueryResult{
		Success:  true,
		Rows:     rows,
		RowCount: count,
		Columns:  cols,
	}
}

func firstCell(rs *database.ResultSet) string {
	if rs == nil || len(rs.Rows) == 0 || len(rs.Rows[0]) == 0 {
		return ""
	}
	v := rs.Rows[0][0]
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return cast.ToString(v)
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
