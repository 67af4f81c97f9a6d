// Package mysql binds MySQL and MariaDB targets to go-sql-driver/mysql.
package mysql

import (
	"net"
	"strconv"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/database/sqldb"
)

const driverName = "mysql"

// New returns a MySQL connector.
func New() *sqldb.Connector {
	return sqldb.NewWithDriver(database.EngineMySQL, sqldb.Driver{
		Name:     driverName,
		DSN:      buildDSN,
		Classify: classify,
	})
}

// buildDSN constructs the MySQL DSN string.
// format: user:pass@tcp(host:port)/dbname?parseTime=true
func buildDSN(cfg *database.Config) (string, error) {
	port := cfg.Port
	if port == 0 {
		port = database.EngineMySQL.DefaultPort()
	}

	c := gomysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	c.DBName = cfg.Database
	c.ParseTime = true
	c.Timeout = cfg.ConnectTimeout
	if tls := cfg.Option("tls"); tls != "" {
		c.TLSConfig = tls
	}
	if cs := cfg.Option("charset"); cs != "" {
		c.Params = map[string]string{"charset": cs}
	}
	return c.FormatDSN(), nil
}
