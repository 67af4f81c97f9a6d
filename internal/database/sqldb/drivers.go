package sqldb

import (
	// database/sql drivers for the built-in bindings
	_ "github.com/SAP/go-hdb/driver"
	_ "github.com/microsoft/go-mssqldb"
	_ "github.com/nakagami/firebirdsql"
)
