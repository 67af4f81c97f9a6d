// Package postgres opens PostgreSQL sessions on pgx. Setting the "driver"
// option to "pq" routes the target through lib/pq and database/sql instead.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/database/sqldb"
	"github.com/koustreak/dbinspect/internal/errs"
)

// Connector implements database.Connector for PostgreSQL.
type Connector struct {
	fallback database.Connector
}

// New returns a PostgreSQL connector.
func New() *Connector {
	return &Connector{fallback: sqldb.New(database.EnginePostgres)}
}

// Open dials one dedicated connection. The pool above decides how many of
// these live at once.
func (c *Connector) Open(ctx context.Context, cfg *database.Config) (database.Session, error) {
	if cfg.Option("driver") == "pq" {
		return c.fallback.Open(ctx, cfg)
	}

	connCfg, err := connConfig(cfg)
	if err != nil {
		return nil, err
	}
	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("connect to %s", connCfg.Host))
	}
	return &session{conn: conn}, nil
}

// connConfig builds the pgx configuration for cfg. A "dsn" option is parsed
// verbatim; otherwise a keyword/value string is assembled from the fields.
func connConfig(cfg *database.Config) (*pgx.ConnConfig, error) {
	dsn := cfg.Option("dsn")
	if dsn == "" {
		dsn = buildDSN(cfg)
	}
	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid postgres connection settings", err)
	}
	if cfg.ConnectTimeout > 0 {
		connCfg.ConnectTimeout = cfg.ConnectTimeout
	}
	if _, ok := connCfg.RuntimeParams["application_name"]; !ok {
		connCfg.RuntimeParams["application_name"] = "dbinspect"
	}
	return connCfg, nil
}

// buildDSN constructs the postgres keyword/value connection string.
func buildDSN(cfg *database.Config) string {
	sslMode := cfg.Option("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}
	port := cfg.Port
	if port == 0 {
		port = database.EnginePostgres.DefaultPort()
	}

	parts := []string{
		"host=" + quote(cfg.Host),
		fmt.Sprintf("port=%d", port),
		"sslmode=" + quote(sslMode),
	}
	if cfg.User != "" {
		parts = append(parts, "user="+quote(cfg.User))
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+quote(cfg.Password))
	}
	if cfg.Database != "" {
		parts = append(parts, "dbname="+quote(cfg.Database))
	}
	if name := cfg.Option("application_name"); name != "" {
		parts = append(parts, "application_name="+quote(name))
	}
	return strings.Join(parts, " ")
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quote(v string) string {
	return "'" + dsnEscaper.Replace(v) + "'"
}
