package sqldb

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/errs"
)

// drivers holds the built-in bindings. MySQL is bound by its own package;
// Sybase, Netezza and Informix have no pure-Go driver and are configured
// per target through the driver and dsn options.
var drivers = map[database.Engine]Driver{
	database.EnginePostgres:  {Name: "postgres", DSN: postgresDSN, Classify: classifyPQ},
	database.EngineSQLServer: {Name: "sqlserver", DSN: sqlServerDSN, Classify: classifyMSSQL},
	database.EngineHANA:      {Name: "hdb", DSN: hanaDSN, Classify: classifyHANA},
	database.EngineFirebird:  {Name: "firebirdsql", DSN: firebirdDSN},
	database.EngineOracle:    {Name: "godror", DSN: oracleDSN},
	database.EngineDB2:       {Name: "go_ibm_db", DSN: db2DSN},
}

func hostPort(cfg *database.Config) string {
	port := cfg.Port
	if port == 0 {
		port = cfg.Engine.DefaultPort()
	}
	return net.JoinHostPort(cfg.Host, strconv.Itoa(port))
}

func seconds(cfg *database.Config) string {
	return strconv.Itoa(int(cfg.ConnectTimeout.Seconds()))
}

// postgresDSN is the lib/pq keyword/value form.
func postgresDSN(cfg *database.Config) (string, error) {
	sslMode := cfg.Option("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}
	port := cfg.Port
	if port == 0 {
		port = database.EnginePostgres.DefaultPort()
	}
	q := func(v string) string {
		return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		q(cfg.Host), port, q(cfg.User), q(cfg.Password), q(cfg.Database), sslMode)
	if cfg.ConnectTimeout > 0 {
		dsn += " connect_timeout=" + seconds(cfg)
	}
	return dsn, nil
}

// sqlServerDSN is the go-mssqldb URL form.
func sqlServerDSN(cfg *database.Config) (string, error) {
	q := url.Values{}
	if cfg.Database != "" {
		q.Set("database", cfg.Database)
	}
	encrypt := cfg.Option("encrypt")
	if encrypt == "" {
		encrypt = "disable"
	}
	q.Set("encrypt", encrypt)
	if cfg.ConnectTimeout > 0 {
		q.Set("dial timeout", seconds(cfg))
	}
	q.Set("app name", "dbinspect")
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     hostPort(cfg),
		RawQuery: q.Encode(),
	}
	if instance := cfg.Option("instance"); instance != "" {
		u.Host = cfg.Host
		u.Path = instance
	}
	return u.String(), nil
}

// hanaDSN is the go-hdb URL form. Database selects a tenant of a
// multi-tenant system.
func hanaDSN(cfg *database.Config) (string, error) {
	q := url.Values{}
	if cfg.Database != "" {
		q.Set("databaseName", cfg.Database)
	}
	if cfg.ConnectTimeout > 0 {
		q.Set("timeout", seconds(cfg))
	}
	u := url.URL{
		Scheme:   "hdb",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     hostPort(cfg),
		RawQuery: q.Encode(),
	}
	return u.String(), nil
}

// firebirdDSN is user:password@host:port/path. Database is the alias or the
// server-side path of the database file.
func firebirdDSN(cfg *database.Config) (string, error) {
	if cfg.Database == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "firebird needs the database path or alias")
	}
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	target := *cfg
	target.Host = host
	creds := url.UserPassword(cfg.User, cfg.Password).String()
	return fmt.Sprintf("%s@%s/%s", creds, hostPort(&target), cfg.Database), nil
}

// oracleDSN is the easy-connect form user/password@host:port/service.
func oracleDSN(cfg *database.Config) (string, error) {
	service := cfg.Option("service_name")
	if service == "" {
		service = cfg.Database
	}
	if service == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "oracle needs a service name")
	}
	return fmt.Sprintf("%s/%s@%s/%s", cfg.User, cfg.Password, hostPort(cfg), service), nil
}

// db2DSN is the CLI keyword form.
func db2DSN(cfg *database.Config) (string, error) {
	port := cfg.Port
	if port == 0 {
		port = database.EngineDB2.DefaultPort()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "HOSTNAME=%s;DATABASE=%s;PORT=%d;UID=%s;PWD=%s;",
		cfg.Host, cfg.Database, port, cfg.User, cfg.Password)
	if cfg.Option("security") != "" {
		fmt.Fprintf(&b, "Security=%s;", cfg.Option("security"))
	}
	if cfg.ConnectTimeout > 0 {
		fmt.Fprintf(&b, "ConnectTimeout=%s;", seconds(cfg))
	}
	return b.String(), nil
}
