// Package sqldb opens sessions through database/sql drivers using sqlx.
//
// Every session owns a dedicated *sqlx.Conn so that statements such as
// BEGIN and COMMIT land on the same physical connection. Pooling happens
// one layer up, in internal/pool.
package sqldb

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/errs"
)

// DSNFunc builds a data source name from a target.
type DSNFunc func(cfg *database.Config) (string, error)

// Classifier maps a driver-specific error to a kind. It reports false for
// errors it does not recognise.
type Classifier func(err error) (errs.ErrKind, bool)

// Driver binds an engine to a registered database/sql driver.
type Driver struct {
	Name     string
	DSN      DSNFunc
	Classify Classifier
}

// driverAliases lets the "driver" option use familiar package names.
var driverAliases = map[string]string{
	"pq":       "postgres",
	"mssql":    "sqlserver",
	"hana":     "hdb",
	"firebird": "firebirdsql",
	"oracle":   "godror",
	"db2":      "go_ibm_db",
}

// Connector implements database.Connector on database/sql.
type Connector struct {
	engine database.Engine
	driver Driver
}

// New returns a connector using the built-in driver binding for engine.
// Engines without one (Sybase, Netezza, Informix) need the "driver" and
// "dsn" options on every target.
func New(engine database.Engine) *Connector {
	return &Connector{engine: engine, driver: drivers[engine]}
}

// NewWithDriver returns a connector with an explicit driver binding.
func NewWithDriver(engine database.Engine, d Driver) *Connector {
	return &Connector{engine: engine, driver: d}
}

// Open connects one dedicated session.
func (c *Connector) Open(ctx context.Context, cfg *database.Config) (database.Session, error) {
	name, dsn, err := c.resolve(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(name, dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("open %s driver", name), err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Connx(ctx)
	if err != nil {
		_ = db.Close()
		return nil, mapError(err, fmt.Sprintf("connect via %s", name), errs.ErrKindConnectionFailed, c.driver.Classify)
	}
	return &session{db: db, conn: conn, classify: c.driver.Classify}, nil
}

// resolve picks the driver name and data source name for cfg. The "driver"
// and "dsn" options win over the built-in binding.
func (c *Connector) resolve(cfg *database.Config) (string, string, error) {
	name := cfg.Option("driver")
	if alias, ok := driverAliases[name]; ok {
		name = alias
	}
	if name == "" {
		name = c.driver.Name
	}
	if name == "" {
		return "", "", errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("no database/sql driver is bound to %s; set the driver and dsn options", c.engine))
	}

	if dsn := cfg.Option("dsn"); dsn != "" {
		return name, dsn, nil
	}
	if c.driver.DSN == nil {
		return "", "", errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("the dsn option is required for %s", c.engine))
	}
	dsn, err := c.driver.DSN(cfg)
	if err != nil {
		return "", "", err
	}
	return name, dsn, nil
}
