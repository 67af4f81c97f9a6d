package dialect

import (
	"github.com/jmoiron/sqlx"
	"github.com/koustreak/dbinspect/internal/database"
)

var dialects = map[database.Engine]*Dialect{
	database.EnginePostgres: {
		Engine:        database.EnginePostgres,
		Limit:         LimitSuffix,
		begin:         "BEGIN",
		commit:        "COMMIT",
		rollback:      "ROLLBACK",
		quoteOpen:     `"`,
		quoteClose:    `"`,
		validation:    "SELECT 1",
		version:       "SELECT version()",
		schemaSource:  SchemaFixed,
		defaultSchema: "public",
		systemSchemas: []string{"information_schema", "pg_catalog", "pg_toast"},
		systemPrefix:  []string{"pg_temp_", "pg_toast_temp_"},
		bindType:      sqlx.DOLLAR,
		dollarQuote:   true,
	},
	database.EngineMySQL: {
		Engine:        database.EngineMySQL,
		Limit:         LimitSuffix,
		begin:         "START TRANSACTION",
		commit:        "COMMIT",
		rollback:      "ROLLBACK",
		quoteOpen:     "`",
		quoteClose:    "`",
		validation:    "SELECT 1",
		version:       "SELECT VERSION()",
		schemaSource:  SchemaDatabase,
		systemSchemas: []string{"information_schema", "mysql", "performance_schema", "sys"},
		bindType:      sqlx.QUESTION,
	},
	database.EngineOracle: {
		Engine:       database.EngineOracle,
		Limit:        FetchFirstSuffix,
		begin:        "SET TRANSACTION READ WRITE",
		commit:       "COMMIT",
		rollback:     "ROLLBACK",
		quoteOpen:    `"`,
		quoteClose:   `"`,
		validation:   "SELECT 1 FROM DUAL",
		version:      "SELECT banner FROM v$version WHERE ROWNUM = 1",
		schemaSource: SchemaUser,
		systemSchemas: []string{
			"SYS", "SYSTEM", "OUTLN", "DBSNMP", "XDB", "CTXSYS", "MDSYS", "ORDSYS",
			"ORDDATA", "WMSYS", "APPQOSSYS", "AUDSYS", "GSMADMIN_INTERNAL", "OJVMSYS",
			"LBACSYS", "DVSYS", "OLAPSYS", "DBSFWUSER", "REMOTE_SCHEDULER_AGENT",
		},
		bindType: sqlx.NAMED,
	},
	database.EngineSQLServer: {
		Engine:        database.EngineSQLServer,
		Limit:         TopPrefix,
		begin:         "BEGIN TRANSACTION",
		commit:        "COMMIT TRANSACTION",
		rollback:      "ROLLBACK TRANSACTION",
		quoteOpen:     "[",
		quoteClose:    "]",
		validation:    "SELECT 1",
		version:       "SELECT @@VERSION",
		schemaSource:  SchemaFixed,
		defaultSchema: "dbo",
		systemSchemas: []string{
			"sys", "INFORMATION_SCHEMA", "guest", "db_owner", "db_accessadmin",
			"db_securityadmin", "db_ddladmin", "db_backupoperator", "db_datareader",
			"db_datawriter", "db_denydatareader", "db_denydatawriter",
		},
		bindType: sqlx.AT,
	},
	database.EngineSybase: {
		Engine:        database.EngineSybase,
		Limit:         TopPrefix,
		begin:         "BEGIN TRANSACTION",
		commit:        "COMMIT TRANSACTION",
		rollback:      "ROLLBACK TRANSACTION",
		quoteOpen:     "[",
		quoteClose:    "]",
		validation:    "SELECT 1",
		version:       "SELECT @@version",
		schemaSource:  SchemaFixed,
		defaultSchema: "dbo",
		systemSchemas: []string{"sys", "guest"},
		bindType:      sqlx.QUESTION,
	},
	database.EngineDB2: {
		Engine:       database.EngineDB2,
		Limit:        FetchFirstSuffix,
		commit:       "COMMIT",
		rollback:     "ROLLBACK",
		quoteOpen:    `"`,
		quoteClose:   `"`,
		validation:   "SELECT 1 FROM SYSIBM.SYSDUMMY1",
		version:      "SELECT service_level FROM SYSIBMADM.ENV_INST_INFO",
		schemaSource: SchemaUser,
		systemSchemas: []string{
			"SYSIBM", "SYSCAT", "SYSSTAT", "SYSTOOLS", "SYSPROC", "SYSIBMADM",
			"SYSFUN", "SYSPUBLIC", "NULLID", "SQLJ", "SYSIBMINTERNAL", "SYSIBMTS",
		},
		bindType: sqlx.QUESTION,
	},
	database.EngineHANA: {
		Engine:        database.EngineHANA,
		Limit:         LimitSuffix,
		commit:        "COMMIT",
		rollback:      "ROLLBACK",
		quoteOpen:     `"`,
		quoteClose:    `"`,
		validation:    "SELECT 1 FROM DUMMY",
		version:       "SELECT VERSION FROM SYS.M_DATABASE",
		schemaSource:  SchemaUser,
		systemSchemas: []string{"SYS", "SYSTEM", "UIS", "HANA_XS_BASE"},
		systemPrefix:  []string{"_sys_"},
		bindType:      sqlx.QUESTION,
	},
	database.EngineNetezza: {
		Engine:        database.EngineNetezza,
		Limit:         LimitSuffix,
		begin:         "BEGIN",
		commit:        "COMMIT",
		rollback:      "ROLLBACK",
		quoteOpen:     `"`,
		quoteClose:    `"`,
		validation:    "SELECT 1",
		version:       "SELECT VERSION()",
		schemaSource:  SchemaFixed,
		defaultSchema: "ADMIN",
		systemSchemas: []string{"DEFINITION_SCHEMA", "INFORMATION_SCHEMA"},
		bindType:      sqlx.QUESTION,
	},
	database.EngineInformix: {
		Engine:        database.EngineInformix,
		Limit:         FirstPrefix,
		begin:         "BEGIN WORK",
		commit:        "COMMIT WORK",
		rollback:      "ROLLBACK WORK",
		quoteOpen:     `"`,
		quoteClose:    `"`,
		validation:    "SELECT 1 FROM systables WHERE tabid = 1",
		version:       "SELECT DBINFO('version', 'full') FROM systables WHERE tabid = 1",
		schemaSource:  SchemaFixed,
		defaultSchema: "informix",
		bindType:      sqlx.QUESTION,
	},
	database.EngineFirebird: {
		Engine:        database.EngineFirebird,
		Limit:         FirstPrefix,
		begin:         "SET TRANSACTION",
		commit:        "COMMIT",
		rollback:      "ROLLBACK",
		quoteOpen:     `"`,
		quoteClose:    `"`,
		validation:    "SELECT 1 FROM RDB$DATABASE",
		version:       "SELECT rdb$get_context('SYSTEM', 'ENGINE_VERSION') FROM RDB$DATABASE",
		schemaSource:  SchemaFixed,
		defaultSchema: "",
		bindType:      sqlx.QUESTION,
	},
}
