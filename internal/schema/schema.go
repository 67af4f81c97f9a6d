// Package schema reads system catalogs and assembles canonical metadata.
//
// Every engine contributes a Catalog of queries with a fixed column order;
// Reader runs them on a session and hands the raw rows to the Assembler,
// which enforces ordering, uniqueness and type normalization.
package schema

import (
	"context"
	"fmt"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/koustreak/dbinspect/internal/logger"
)

// Reader introspects one engine's catalog.
type Reader struct {
	catalog   *Catalog
	assembler *Assembler
	log       *logger.Logger
}

// NewReader creates a reader for engine.
func NewReader(engine database.Engine, log *logger.Logger) (*Reader, error) {
	c, err := CatalogFor(engine)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.L()
	}
	return &Reader{
		catalog:   c,
		assembler: NewAssembler(engine, log),
		log:       log.Component("schema"),
	}, nil
}

// Catalog returns the queries the reader runs.
func (r *Reader) Catalog() *Catalog { return r.catalog }

// ListTables returns the tables and views of schema, without columns.
func (r *Reader) ListTables(ctx context.Context, s database.Session, schema string) ([]database.TableInfo, error) {
	q := r.catalog.Tables
	rs, err := s.Exec(ctx, q.SQL, q.Args(schema, "")...)
	if err != nil {
		return nil, errs.Annotate(errs.ErrKindMetadataFailed, fmt.Sprintf("list tables in schema %q", schema), err)
	}
	tables := r.assembler.Tables(DecodeTables(rs))
	// Engines without schemas report an empty owner.
	for i := range tables {
		if tables[i].Schema == "" {
			tables[i].Schema = schema
		}
	}
	return tables, nil
}

// Columns returns the ordered columns of schema.table with key flags set.
// A failing constraint lookup only costs the key flags.
func (r *Reader) Columns(ctx context.Context, s database.Session, schema, table string) ([]database.ColumnMetadata, error) {
	q := r.catalog.Columns
	rs, err := s.Exec(ctx, q.SQL, q.Args(schema, table)...)
	if err != nil {
		return nil, errs.Annotate(errs.ErrKindMetadataFailed, fmt.Sprintf("inspect table %s.%s", schema, table), err)
	}
	cols := r.assembler.Columns(table, DecodeColumns(rs))
	if len(cols) == 0 {
		return nil, errs.New(errs.ErrKindNotFound, fmt.Sprintf("table %s.%s not found or has no columns", schema, table))
	}

	cons, err := r.Constraints(ctx, s, schema, table)
	if err != nil {
		r.log.WarnWith("key lookup failed", err, map[string]any{"schema": schema, "table": table})
		return cols, nil
	}
	ApplyKeys(cols, cons)
	return cols, nil
}

// Constraints returns the constraints of schema.table, one entry per column.
func (r *Reader) Constraints(ctx context.Context, s database.Session, schema, table string) ([]database.ConstraintInfo, error) {
	q := r.catalog.Constraints
	if q.Empty() {
		return []database.ConstraintInfo{}, nil
	}
	rs, err := s.Exec(ctx, q.SQL, q.Args(schema, table)...)
	if err != nil {
		return nil, errs.Annotate(errs.ErrKindMetadataFailed, fmt.Sprintf("list constraints of %s.%s", schema, table), err)
	}
	return r.assembler.Constraints(DecodeConstraints(rs)), nil
}

// Schemas returns every schema name the catalog reports. Engines without
// schemas return nil.
func (r *Reader) Schemas(ctx context.Context, s database.Session) ([]string, error) {
	q := r.catalog.Schemas
	if q.Empty() {
		return nil, nil
	}
	rs, err := s.Exec(ctx, q.SQL, q.Args("", "")...)
	if err != nil {
		return nil, errs.Annotate(errs.ErrKindMetadataFailed, "list schemas", err)
	}
	return DecodeStrings(rs), nil
}

// DatabaseInfo returns the database name, encoding and collation.
func (r *Reader) DatabaseInfo(ctx context.Context, s database.Session) (database.DatabaseInfo, error) {
	q := r.catalog.DatabaseInfo
	if q.Empty() {
		return database.DatabaseInfo{}, nil
	}
	rs, err := s.Exec(ctx, q.SQL, q.Args("", "")...)
	if err != nil {
		return database.DatabaseInfo{}, errs.Annotate(errs.ErrKindMetadataFailed, "read database info", err)
	}
	return DecodeDatabaseInfo(rs), nil
}
