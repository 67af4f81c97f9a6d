// Package dialect holds the per-engine SQL differences the inspector has to
// respect: row limiting, transaction statements, identifier quoting,
// placeholder style, probe queries and default/system schemas.
//
// Engine behaviour is data: every engine is one Dialect value in the
// dialects table, and all methods are shared.
package dialect

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/errs"
)

// LimitStyle selects how a row limit is injected into a SELECT.
type LimitStyle int

const (
	// LimitSuffix appends "LIMIT n".
	LimitSuffix LimitStyle = iota
	// TopPrefix inserts "TOP n" after SELECT (and DISTINCT/ALL).
	TopPrefix
	// FirstPrefix inserts "FIRST n" directly after SELECT.
	FirstPrefix
	// FetchFirstSuffix appends "FETCH FIRST n ROWS ONLY".
	FetchFirstSuffix
)

// SchemaSource tells where an engine's default schema comes from.
type SchemaSource int

const (
	SchemaFixed    SchemaSource = iota // a constant name such as public or dbo
	SchemaUser                         // the login name, folded to upper case
	SchemaDatabase                     // the database name
)

// Dialect describes one engine's SQL conventions.
type Dialect struct {
	Engine database.Engine
	Limit  LimitStyle

	begin    string // empty when the engine opens transactions implicitly
	commit   string
	rollback string

	quoteOpen  string
	quoteClose string

	validation string
	version    string

	schemaSource  SchemaSource
	defaultSchema string
	systemSchemas []string
	systemPrefix  []string

	bindType    int
	dollarQuote bool
}

// For returns the dialect of engine.
func For(engine database.Engine) (*Dialect, error) {
	d, ok := dialects[engine]
	if !ok {
		return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("no dialect for engine %q", engine))
	}
	return d, nil
}

// MustFor is For for engines known at compile time.
func MustFor(engine database.Engine) *Dialect {
	d, err := For(engine)
	if err != nil {
		panic(err)
	}
	return d
}

// BeginStatement returns the statement that opens a transaction. It is
// empty for engines where the first statement implicitly starts one.
func (d *Dialect) BeginStatement() string { return d.begin }

// CommitStatement returns the statement that commits a transaction.
func (d *Dialect) CommitStatement() string { return d.commit }

// RollbackStatement returns the statement that aborts a transaction.
func (d *Dialect) RollbackStatement() string { return d.rollback }

// QuoteIdentifier wraps name in the engine's identifier quotes, doubling any
// embedded closing quote. Generated SQL never contains a raw identifier.
func (d *Dialect) QuoteIdentifier(name string) string {
	return d.quoteOpen + strings.ReplaceAll(name, d.quoteClose, d.quoteClose+d.quoteClose) + d.quoteClose
}

// QualifiedName quotes schema.table, omitting an empty schema.
func (d *Dialect) QualifiedName(schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table)
}

// Rebind rewrites "?" placeholders into the engine's bind style.
func (d *Dialect) Rebind(query string) string {
	return sqlx.Rebind(d.bindType, query)
}

// ValidationQuery is the cheapest round trip the engine accepts.
func (d *Dialect) ValidationQuery() string { return d.validation }

// VersionQuery returns a single row whose first column is the server version.
func (d *Dialect) VersionQuery() string { return d.version }

// DefaultSchema resolves the schema metadata calls use when none is given.
// cfg.Schema wins when set.
func (d *Dialect) DefaultSchema(cfg *database.Config) string {
	if cfg != nil && cfg.Schema != "" {
		return cfg.Schema
	}
	switch d.schemaSource {
	case SchemaUser:
		if cfg != nil && cfg.User != "" {
			return strings.ToUpper(cfg.User)
		}
	case SchemaDatabase:
		if cfg != nil {
			return cfg.Database
		}
	}
	return d.defaultSchema
}

// SystemSchemas returns the engine's own schemas, hidden from listings.
func (d *Dialect) SystemSchemas() []string {
	return append([]string(nil), d.systemSchemas...)
}

// IsSystemSchema reports whether name belongs to the engine itself.
func (d *Dialect) IsSystemSchema(name string) bool {
	for _, s := range d.systemSchemas {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	lower := strings.ToLower(name)
	for _, p := range d.systemPrefix {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
