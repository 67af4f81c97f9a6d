package database

import (
	"strings"

	"github.com/koustreak/dbinspect/internal/errs"
)

// Engine identifies the database engine behind a target.
type Engine string

const (
	EnginePostgres  Engine = "postgresql"
	EngineMySQL     Engine = "mysql"
	EngineOracle    Engine = "oracle"
	EngineSQLServer Engine = "sqlserver"
	EngineDB2       Engine = "db2"
	EngineHANA      Engine = "hana"
	EngineSybase    Engine = "sybase"
	EngineNetezza   Engine = "netezza"
	EngineInformix  Engine = "informix"
	EngineFirebird  Engine = "firebird"
)

// Engines lists every supported engine in a stable order.
var Engines = []Engine{
	EnginePostgres,
	EngineMySQL,
	EngineOracle,
	EngineSQLServer,
	EngineDB2,
	EngineHANA,
	EngineSybase,
	EngineNetezza,
	EngineInformix,
	EngineFirebird,
}

var engineAliases = map[string]Engine{
	"postgresql": EnginePostgres,
	"postgres":   EnginePostgres,
	"pg":         EnginePostgres,
	"mysql":      EngineMySQL,
	"mariadb":    EngineMySQL,
	"oracle":     EngineOracle,
	"sqlserver":  EngineSQLServer,
	"mssql":      EngineSQLServer,
	"db2":        EngineDB2,
	"hana":       EngineHANA,
	"saphana":    EngineHANA,
	"sap_hana":   EngineHANA,
	"sybase":     EngineSybase,
	"ase":        EngineSybase,
	"netezza":    EngineNetezza,
	"informix":   EngineInformix,
	"firebird":   EngineFirebird,
}

// ParseEngine resolves an engine tag or one of its aliases, case-insensitively.
func ParseEngine(tag string) (Engine, error) {
	e, ok := engineAliases[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return "", errs.New(errs.ErrKindInvalidInput, "unsupported engine: "+tag)
	}
	return e, nil
}

// DefaultPort returns the conventional listener port for the engine.
func (e Engine) DefaultPort() int {
	switch e {
	case EnginePostgres:
		return 5432
	case EngineMySQL:
		return 3306
	case EngineOracle:
		return 1521
	case EngineSQLServer:
		return 1433
	case EngineDB2:
		return 50000
	case EngineHANA:
		return 39015
	case EngineSybase:
		return 5000
	case EngineNetezza:
		return 5480
	case EngineInformix:
		return 9088
	case EngineFirebird:
		return 3050
	default:
		return 0
	}
}

func (e Engine) String() string { return string(e) }
