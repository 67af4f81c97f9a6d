package inspector

import (
	"context"
	"errors"
	"slices"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/koustreak/dbinspect/internal/pool"
)

// GetTables lists the tables and views of the configured schema (or the
// one opts selects) with their columns fully populated. A failing table
// listing aborts the call; a failing column lookup only empties that
// table's columns.
func (a *Adapter) GetTables(ctx context.Context, c *Connection, opts *database.TableOptions) ([]database.TableInfo, error) {
	if opts == nil {
		opts = &database.TableOptions{}
	}

	var schemas []string
	switch {
	case opts.AllSchemas:
		all, err := a.GetSchemas(ctx, c)
		if err != nil {
			return nil, err
		}
		schemas = all
	case opts.Schema != "":
		schemas = []string{opts.Schema}
	default:
		schemas = []string{c.DefaultSchema()}
	}

	lease, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	tables := make([]database.TableInfo, 0)
	for _, name := range schemas {
		found, err := a.reader.ListTables(ctx, lease.Session(), name)
		if err != nil {
			markIfBroken(lease, err)
			lease.Release()
			return nil, err
		}
		tables = append(tables, found...)
	}
	lease.Release()

	if opts.ExcludeViews {
		tables = slices.DeleteFunc(tables, func(t database.TableInfo) bool {
			return t.Type == database.TableTypeView
		})
	}
	return a.GetTableColumns(ctx, c, tables)
}

// GetTableColumns fills in the columns of every table in place and returns
// the same slice. A table whose lookup fails gets an empty column list and
// a logged warning; the rest of the batch continues. When a broken session
// cannot be replaced, the tables not yet visited get empty column lists.
func (a *Adapter) GetTableColumns(ctx context.Context, c *Connection, tables []database.TableInfo) ([]database.TableInfo, error) {
	var lease *pool.Lease
	defer func() {
		if lease != nil {
			lease.Release()
		}
	}()

	for i := range tables {
		if lease == nil {
			var err error
			if lease, err = c.acquire(ctx); err != nil {
				if i == 0 {
					return nil, err
				}
				// a broken session was dropped and no replacement is available
				a.log.WarnWith("column lookup aborted", err, map[string]any{"remaining": len(tables) - i})
				for j := i; j < len(tables); j++ {
					tables[j].Columns = []database.ColumnMetadata{}
				}
				return tables, nil
			}
		}
		t := &tables[i]
		schemaName := t.Schema
		if schemaName == "" {
			schemaName = c.schema
		}

		cols, err := a.reader.Columns(ctx, lease.Session(), schemaName, t.Name)
		if err != nil {
			a.log.WarnWith("column lookup failed", err, map[string]any{"schema": schemaName, "table": t.Name})
			t.Columns = []database.ColumnMetadata{}
			if markIfBroken(lease, err) {
				lease.Release()
				lease = nil
			}
			continue
		}
		t.Columns = cols
	}
	return tables, nil
}

// GetDatabaseInfo reports the server version and database name, encoding
// and collation.
func (a *Adapter) GetDatabaseInfo(ctx context.Context, c *Connection) (*database.DatabaseInfo, error) {
	lease, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	rs, err := lease.Session().Exec(ctx, a.dialect.VersionQuery())
	if err != nil {
		markIfBroken(lease, err)
		return nil, errs.Annotate(errs.ErrKindMetadataFailed, "probe server version", err)
	}
	info, err := a.reader.DatabaseInfo(ctx, lease.Session())
	if err != nil {
		markIfBroken(lease, err)
		return nil, err
	}
	info.Version = firstCell(rs)
	if info.Name == "" {
		info.Name = c.cfg.Database
	}
	return &info, nil
}

// GetTableConstraints lists the constraints of table, one entry per column.
// An empty schema means the connection's default schema.
func (a *Adapter) GetTableConstraints(ctx context.Context, c *Connection, schemaName, table string) ([]database.ConstraintInfo, error) {
	if table == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "table name is required")
	}
	if schemaName == "" {
		schemaName = c.DefaultSchema()
	}
	lease, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	cons, err := a.reader.Constraints(ctx, lease.Session(), schemaName, table)
	if err != nil {
		markIfBroken(lease, err)
		return nil, err
	}
	return cons, nil
}

// GetSchemas lists the non-system schemas. It never returns an empty list:
// when the catalog query fails or finds nothing the connection's default
// schema is returned alone. The only error is ErrKindNotConnected.
func (a *Adapter) GetSchemas(ctx context.Context, c *Connection) ([]string, error) {
	fallback := []string{c.DefaultSchema()}

	lease, err := c.acquire(ctx)
	if err != nil {
		if errs.IsNotConnected(err) {
			return nil, err
		}
		a.log.WarnWith("schema listing unavailable, using default schema", err, map[string]any{"schema": c.DefaultSchema()})
		return fallback, nil
	}
	defer lease.Release()

	names, err := a.reader.Schemas(ctx, lease.Session())
	if err != nil {
		markIfBroken(lease, err)
		a.log.WarnWith("schema listing failed, using default schema", err, map[string]any{"schema": c.DefaultSchema()})
		return fallback, nil
	}
	names = slices.DeleteFunc(names, a.dialect.IsSystemSchema)
	if len(names) == 0 {
		return fallback, nil
	}
	return names, nil
}

// markIfBroken flags the lease's session for discard when err suggests the
// session is no longer in a clean state. It reports whether it did.
func markIfBroken(lease *pool.Lease, err error) bool {
	switch errs.KindOf(err) {
	case errs.ErrKindTimeout, errs.ErrKindConnectionFailed:
		lease.MarkSuspect()
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		lease.MarkSuspect()
		return true
	}
	return false
}
