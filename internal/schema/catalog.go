package schema

import (
	"fmt"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/dialect"
	"github.com/koustreak/dbinspect/internal/errs"
)

// Param names a value bound into a catalog query.
type Param int

const (
	ParamSchema Param = iota
	ParamTable
)

// Query is one catalog statement written with '?' placeholders. Params lists
// the value bound to each placeholder in order.
type Query struct {
	SQL    string
	Params []Param
}

// Empty reports whether the engine has no such catalog query.
func (q Query) Empty() bool { return q.SQL == "" }

// Args returns the positional arguments for schema and table.
func (q Query) Args(schema, table string) []any {
	if len(q.Params) == 0 {
		return nil
	}
	args := make([]any, len(q.Params))
	for i, p := range q.Params {
		switch p {
		case ParamSchema:
			args[i] = schema
		case ParamTable:
			args[i] = table
		}
	}
	return args
}

// Catalog is the set of system catalog queries for one engine. Every query
// returns a fixed column order:
//
//	Tables:       schema, name, type, row count, size in bytes, comment
//	Columns:      name, type, length, precision, scale, nullable, default, ordinal
//	Constraints:  name, kind, table, column, referenced table, referenced column
//	Schemas:      name
//	DatabaseInfo: name, encoding, collation
type Catalog struct {
	Engine       database.Engine
	Tables       Query
	Columns      Query
	Constraints  Query
	Schemas      Query
	DatabaseInfo Query
}

// CatalogFor returns engine's catalog with placeholders rebound to the
// engine's bind style.
func CatalogFor(engine database.Engine) (*Catalog, error) {
	c, ok := catalogs[engine]
	if !ok {
		return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("no catalog for engine %q", engine))
	}
	d, err := dialect.For(engine)
	if err != nil {
		return nil, err
	}
	out := c
	out.Engine = engine
	out.Tables = rebind(d, c.Tables)
	out.Columns = rebind(d, c.Columns)
	out.Constraints = rebind(d, c.Constraints)
	out.Schemas = rebind(d, c.Schemas)
	out.DatabaseInfo = rebind(d, c.DatabaseInfo)
	return &out, nil
}

func rebind(d *dialect.Dialect, q Query) Query {
	if q.Empty() {
		return q
	}
	return Query{SQL: d.Rebind(q.SQL), Params: q.Params}
}

var (
	schemaOnly     = []Param{ParamSchema}
	schemaAndTable = []Param{ParamSchema, ParamTable}
)

// informationSchemaConstraints works on every engine exposing the standard
// referential_constraints view.
const informationSchemaConstraints = `
		SELECT tc.constraint_name, tc.constraint_type, tc.table_name,
		       kcu.column_name, rku.table_name, rku.column_name
		FROM information_schema.table_constraints tc
		LEFT JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_schema = tc.constraint_schema
			AND kcu.constraint_name = tc.constraint_name
			AND kcu.table_name = tc.table_name
		LEFT JOIN information_schema.referential_constraints rc
			ON rc.constraint_schema = tc.constraint_schema
			AND rc.constraint_name = tc.constraint_name
		LEFT JOIN information_schema.key_column_usage rku
			ON rku.constraint_schema = rc.unique_constraint_schema
			AND rku.constraint_name = rc.unique_constraint_name
			AND rku.ordinal_position = kcu.ordinal_position
		WHERE tc.table_schema = ?
		  AND tc.table_name   = ?
		ORDER BY tc.constraint_name, kcu.ordinal_position`

const informationSchemaColumns = `
		SELECT column_name, data_type, character_maximum_length,
		       numeric_precision, numeric_scale, is_nullable,
		       column_default, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = ?
		  AND table_name   = ?
		ORDER BY ordinal_position`

var catalogs = map[database.Engine]Catalog{
	database.EnginePostgres: {
		Tables: Query{SQL: `
		SELECT n.nspname, c.relname,
		       CASE c.relkind
		           WHEN 'v' THEN 'view'
		           WHEN 'm' THEN 'view'
		           WHEN 'f' THEN 'foreign table'
		           ELSE 'table'
		       END,
		       c.reltuples::bigint,
		       pg_total_relation_size(c.oid),
		       obj_description(c.oid, 'pg_class')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind IN ('r', 'p', 'v', 'm', 'f')
		  AND n.nspname = ?
		ORDER BY c.relname`, Params: schemaOnly},
		Columns: Query{SQL: `
		SELECT column_name,
		       CASE WHEN data_type IN ('USER-DEFINED', 'ARRAY') THEN udt_name ELSE data_type END,
		       character_maximum_length, numeric_precision, numeric_scale,
		       is_nullable, column_default, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = ?
		  AND table_name   = ?
		ORDER BY ordinal_position`, Params: schemaAndTable},
		Constraints: Query{SQL: informationSchemaConstraints, Params: schemaAndTable},
		Schemas:     Query{SQL: `SELECT schema_name FROM information_schema.schemata ORDER BY schema_name`},
		DatabaseInfo: Query{SQL: `
		SELECT current_database(), pg_encoding_to_char(encoding), datcollate
		FROM pg_database
		WHERE datname = current_database()`},
	},
	database.EngineMySQL: {
		Tables: Query{SQL: `
		SELECT table_schema, table_name, table_type, table_rows,
		       data_length + index_length, table_comment
		FROM information_schema.tables
		WHERE table_schema = ?
		ORDER BY table_name`, Params: schemaOnly},
		Columns: Query{SQL: informationSchemaColumns, Params: schemaAndTable},
		Constraints: Query{SQL: `
		SELECT tc.constraint_name, tc.constraint_type, tc.table_name,
		       kcu.column_name, kcu.referenced_table_name, kcu.referenced_column_name
		FROM information_schema.table_constraints tc
		LEFT JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_schema = tc.constraint_schema
			AND kcu.constraint_name = tc.constraint_name
			AND kcu.table_name = tc.table_name
		WHERE tc.table_schema = ?
		  AND tc.table_name   = ?
		ORDER BY tc.constraint_name, kcu.ordinal_position`, Params: schemaAndTable},
		Schemas:      Query{SQL: `SELECT schema_name FROM information_schema.schemata ORDER BY schema_name`},
		DatabaseInfo: Query{SQL: `SELECT DATABASE(), @@character_set_database, @@collation_database`},
	},
	database.EngineOracle: {
		Tables: Query{SQL: `
		SELECT t.owner, t.table_name, 'TABLE', t.num_rows, CAST(NULL AS NUMBER), c.comments
		FROM all_tables t
		LEFT JOIN all_tab_comments c ON c.owner = t.owner AND c.table_name = t.table_name
		WHERE t.owner = ?
		UNION ALL
		SELECT v.owner, v.view_name, 'VIEW', CAST(NULL AS NUMBER), CAST(NULL AS NUMBER), CAST(NULL AS VARCHAR2(4000))
		FROM all_views v
		WHERE v.owner = ?
		UNION ALL
		SELECT s.owner, s.synonym_name, 'SYNONYM', CAST(NULL AS NUMBER), CAST(NULL AS NUMBER), CAST(NULL AS VARCHAR2(4000))
		FROM all_synonyms s
		WHERE s.owner = ?
		ORDER BY 2`, Params: []Param{ParamSchema, ParamSchema, ParamSchema}},
		Columns: Query{SQL: `
		SELECT column_name, data_type, char_length, data_precision, data_scale,
		       nullable, data_default, column_id
		FROM all_tab_columns
		WHERE owner = ?
		  AND table_name = ?
		ORDER BY column_id`, Params: schemaAndTable},
		Constraints: Query{SQL: `
		SELECT c.constraint_name, c.constraint_type, c.table_name,
		       cc.column_name, rc.table_name, rcc.column_name
		FROM all_constraints c
		JOIN all_cons_columns cc
			ON cc.owner = c.owner AND cc.constraint_name = c.constraint_name
		LEFT JOIN all_constraints rc
			ON rc.owner = c.r_owner AND rc.constraint_name = c.r_constraint_name
		LEFT JOIN all_cons_columns rcc
			ON rcc.owner = rc.owner AND rcc.constraint_name = rc.constraint_name
			AND rcc.position = cc.position
		WHERE c.owner = ?
		  AND c.table_name = ?
		  AND c.constraint_type IN ('P', 'R', 'U', 'C')
		ORDER BY c.constraint_name, cc.position`, Params: schemaAndTable},
		Schemas: Query{SQL: `SELECT username FROM all_users ORDER BY username`},
		DatabaseInfo: Query{SQL: `
		SELECT SYS_CONTEXT('USERENV', 'DB_NAME'),
		       (SELECT value FROM nls_database_parameters WHERE parameter = 'NLS_CHARACTERSET'),
		       (SELECT value FROM nls_database_parameters WHERE parameter = 'NLS_SORT')
		FROM DUAL`},
	},
	database.EngineSQLServer: {
		Tables: Query{SQL: `
		SELECT s.name, o.name, o.type, p.row_count, NULL,
		       CAST(ep.value AS NVARCHAR(4000))
		FROM sys.objects o
		JOIN sys.schemas s ON s.schema_id = o.schema_id
		LEFT JOIN (
			SELECT object_id, SUM(rows) AS row_count
			FROM sys.partitions
			WHERE index_id IN (0, 1)
			GROUP BY object_id
		) p ON p.object_id = o.object_id
		LEFT JOIN sys.extended_properties ep
			ON ep.major_id = o.object_id AND ep.minor_id = 0 AND ep.name = 'MS_Description'
		WHERE o.type IN ('U', 'V', 'SN', 'S', 'ET')
		  AND s.name = ?
		ORDER BY o.name`, Params: schemaOnly},
		Columns:      Query{SQL: informationSchemaColumns, Params: schemaAndTable},
		Constraints:  Query{SQL: informationSchemaConstraints, Params: schemaAndTable},
		Schemas:      Query{SQL: `SELECT name FROM sys.schemas ORDER BY name`},
		DatabaseInfo: Query{SQL: `SELECT DB_NAME(), NULL, CAST(DATABASEPROPERTYEX(DB_NAME(), 'Collation') AS NVARCHAR(128))`},
	},
	database.EngineSybase: {
		Tables: Query{SQL: `
		SELECT u.name, o.name, o.type, row_count(db_id(), o.id), NULL, NULL
		FROM sysobjects o
		JOIN sysusers u ON u.uid = o.uid
		WHERE o.type IN ('U', 'V', 'S')
		  AND u.name = ?
		ORDER BY o.name`, Params: schemaOnly},
		Columns: Query{SQL: `
		SELECT c.name, t.name, c.length, c.prec, c.scale,
		       CASE WHEN c.status & 8 = 8 THEN 1 ELSE 0 END,
		       NULL, c.colid
		FROM syscolumns c
		JOIN sysobjects o ON o.id = c.id
		JOIN sysusers u ON u.uid = o.uid
		JOIN systypes t ON t.usertype = c.usertype
		WHERE u.name = ?
		  AND o.name = ?
		ORDER BY c.colid`, Params: schemaAndTable},
		Constraints: Query{SQL: `
		SELECT object_name(r.constrid), 'FOREIGN KEY', o.name,
		       col_name(r.tableid, r.fokey1), object_name(r.reftabid), col_name(r.reftabid, r.refkey1)
		FROM sysreferences r
		JOIN sysobjects o ON o.id = r.tableid
		JOIN sysusers u ON u.uid = o.uid
		WHERE u.name = ?
		  AND o.name = ?
		UNION ALL
		SELECT i.name, 'PRIMARY KEY', o.name, index_col(o.name, i.indid, 1, o.uid), NULL, NULL
		FROM sysindexes i
		JOIN sysobjects o ON o.id = i.id
		JOIN sysusers u ON u.uid = o.uid
		WHERE i.status & 2048 = 2048
		  AND u.name = ?
		  AND o.name = ?`, Params: []Param{ParamSchema, ParamTable, ParamSchema, ParamTable}},
		Schemas:      Query{SQL: `SELECT name FROM sysusers WHERE uid < 16384 ORDER BY name`},
		DatabaseInfo: Query{SQL: `SELECT db_name(), @@client_csname, NULL`},
	},
	database.EngineDB2: {
		Tables: Query{SQL: `
		SELECT TRIM(TABSCHEMA), TABNAME, TYPE, CARD, NULL, REMARKS
		FROM SYSCAT.TABLES
		WHERE TABSCHEMA = ?
		ORDER BY TABNAME`, Params: schemaOnly},
		Columns: Query{SQL: `
		SELECT COLNAME, TYPENAME, LENGTH, LENGTH, SCALE, NULLS, DEFAULT, COLNO + 1
		FROM SYSCAT.COLUMNS
		WHERE TABSCHEMA = ?
		  AND TABNAME   = ?
		ORDER BY COLNO`, Params: schemaAndTable},
		Constraints: Query{SQL: `
		SELECT k.CONSTNAME, c.TYPE, k.TABNAME, k.COLNAME, r.REFTABNAME, rk.COLNAME
		FROM SYSCAT.KEYCOLUSE k
		JOIN SYSCAT.TABCONST c
			ON c.CONSTNAME = k.CONSTNAME AND c.TABSCHEMA = k.TABSCHEMA AND c.TABNAME = k.TABNAME
		LEFT JOIN SYSCAT.REFERENCES r
			ON r.CONSTNAME = k.CONSTNAME AND r.TABSCHEMA = k.TABSCHEMA AND r.TABNAME = k.TABNAME
		LEFT JOIN SYSCAT.KEYCOLUSE rk
			ON rk.CONSTNAME = r.REFKEYNAME AND rk.TABSCHEMA = r.REFTABSCHEMA AND rk.COLSEQ = k.COLSEQ
		WHERE k.TABSCHEMA = ?
		  AND k.TABNAME   = ?
		ORDER BY k.CONSTNAME, k.COLSEQ`, Params: schemaAndTable},
		Schemas:      Query{SQL: `SELECT TRIM(SCHEMANAME) FROM SYSCAT.SCHEMATA ORDER BY SCHEMANAME`},
		DatabaseInfo: Query{SQL: `SELECT CURRENT SERVER, NULL, NULL FROM SYSIBM.SYSDUMMY1`},
	},
	database.EngineHANA: {
		Tables: Query{SQL: `
		SELECT SCHEMA_NAME, TABLE_NAME, CASE WHEN IS_SYSTEM_TABLE = 'TRUE' THEN 'SYSTEM TABLE' ELSE 'TABLE' END,
		       RECORD_COUNT, TABLE_SIZE, COMMENTS
		FROM SYS.TABLES
		WHERE SCHEMA_NAME = ?
		UNION ALL
		SELECT SCHEMA_NAME, VIEW_NAME, 'VIEW', NULL, NULL, COMMENTS
		FROM SYS.VIEWS
		WHERE SCHEMA_NAME = ?
		UNION ALL
		SELECT SCHEMA_NAME, SYNONYM_NAME, 'SYNONYM', NULL, NULL, NULL
		FROM SYS.SYNONYMS
		WHERE SCHEMA_NAME = ?
		ORDER BY 2`, Params: []Param{ParamSchema, ParamSchema, ParamSchema}},
		Columns: Query{SQL: `
		SELECT COLUMN_NAME, DATA_TYPE_NAME, LENGTH, LENGTH, SCALE, IS_NULLABLE, DEFAULT_VALUE, POSITION
		FROM SYS.TABLE_COLUMNS
		WHERE SCHEMA_NAME = ?
		  AND TABLE_NAME  = ?
		UNION ALL
		SELECT COLUMN_NAME, DATA_TYPE_NAME, LENGTH, LENGTH, SCALE, IS_NULLABLE, DEFAULT_VALUE, POSITION
		FROM SYS.VIEW_COLUMNS
		WHERE SCHEMA_NAME = ?
		  AND VIEW_NAME   = ?
		ORDER BY 8`, Params: []Param{ParamSchema, ParamTable, ParamSchema, ParamTable}},
		Constraints: Query{SQL: `
		SELECT CONSTRAINT_NAME,
		       CASE WHEN IS_PRIMARY_KEY = 'TRUE' THEN 'P'
		            WHEN CHECK_CONDITION IS NOT NULL THEN 'C'
		            ELSE 'U' END,
		       TABLE_NAME, COLUMN_NAME, NULL, NULL
		FROM SYS.CONSTRAINTS
		WHERE SCHEMA_NAME = ?
		  AND TABLE_NAME  = ?
		UNION ALL
		SELECT CONSTRAINT_NAME, 'R', TABLE_NAME, COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM SYS.REFERENTIAL_CONSTRAINTS
		WHERE SCHEMA_NAME = ?
		  AND TABLE_NAME  = ?`, Params: []Param{ParamSchema, ParamTable, ParamSchema, ParamTable}},
		Schemas:      Query{SQL: `SELECT SCHEMA_NAME FROM SYS.SCHEMAS ORDER BY SCHEMA_NAME`},
		DatabaseInfo: Query{SQL: `SELECT DATABASE_NAME, NULL, NULL FROM SYS.M_DATABASE`},
	},
	database.EngineNetezza: {
		Tables: Query{SQL: `
		SELECT SCHEMA, TABLENAME, 'TABLE', RELTUPLES, NULL, DESCRIPTION
		FROM _V_TABLE
		WHERE SCHEMA = ?
		UNION ALL
		SELECT SCHEMA, VIEWNAME, 'VIEW', NULL, NULL, DESCRIPTION
		FROM _V_VIEW
		WHERE SCHEMA = ?
		UNION ALL
		SELECT SCHEMA, SYNONYM_NAME, 'SYNONYM', NULL, NULL, NULL
		FROM _V_SYNONYM
		WHERE SCHEMA = ?
		ORDER BY 2`, Params: []Param{ParamSchema, ParamSchema, ParamSchema}},
		Columns: Query{SQL: `
		SELECT ATTNAME, FORMAT_TYPE, NULL, NULL, NULL,
		       CASE WHEN ATTNOTNULL THEN 0 ELSE 1 END,
		       COLDEFAULT, ATTNUM
		FROM _V_RELATION_COLUMN
		WHERE SCHEMA = ?
		  AND NAME   = ?
		ORDER BY ATTNUM`, Params: schemaAndTable},
		Constraints: Query{SQL: `
		SELECT CONSTRAINTNAME, CONTYPE, RELATION, ATTNAME, PKRELATION, PKATTNAME
		FROM _V_RELATION_KEYDATA
		WHERE SCHEMA   = ?
		  AND RELATION = ?
		ORDER BY CONSTRAINTNAME, CONSEQ`, Params: schemaAndTable},
		Schemas:      Query{SQL: `SELECT SCHEMA FROM _V_SCHEMA ORDER BY SCHEMA`},
		DatabaseInfo: Query{SQL: `SELECT CURRENT_CATALOG, NULL, NULL`},
	},
	database.EngineInformix: {
		Tables: Query{SQL: `
		SELECT t.owner, t.tabname, t.tabtype, t.nrows, NULL, NULL
		FROM systables t
		WHERE t.owner = ?
		  AND t.tabid >= 100
		ORDER BY t.tabname`, Params: schemaOnly},
		Columns: Query{SQL: `
		SELECT c.colname, c.coltype,
		       CASE WHEN MOD(c.coltype, 256) IN (13, 16) THEN MOD(c.collength, 256)
		            WHEN MOD(c.coltype, 256) IN (5, 8) THEN NULL
		            ELSE c.collength END,
		       CASE WHEN MOD(c.coltype, 256) IN (5, 8) THEN TRUNC(c.collength / 256) END,
		       CASE WHEN MOD(c.coltype, 256) IN (5, 8) THEN MOD(c.collength, 256) END,
		       CASE WHEN c.coltype >= 256 THEN 0 ELSE 1 END,
		       NULL, c.colno
		FROM syscolumns c
		JOIN systables t ON t.tabid = c.tabid
		WHERE t.owner   = ?
		  AND t.tabname = ?
		ORDER BY c.colno`, Params: schemaAndTable},
		Constraints: Query{SQL: `
		SELECT c.constrname, c.constrtype, t.tabname, col.colname, pt.tabname, NULL
		FROM sysconstraints c
		JOIN systables t ON t.tabid = c.tabid
		LEFT JOIN sysindexes i ON i.idxname = c.idxname
		LEFT JOIN syscolumns col ON col.tabid = t.tabid AND col.colno = i.part1
		LEFT JOIN sysreferences r ON r.constrid = c.constrid
		LEFT JOIN systables pt ON pt.tabid = r.ptabid
		WHERE t.owner   = ?
		  AND t.tabname = ?
		ORDER BY c.constrname`, Params: schemaAndTable},
		Schemas:      Query{SQL: `SELECT DISTINCT owner FROM systables WHERE tabid >= 100 ORDER BY owner`},
		DatabaseInfo: Query{SQL: `SELECT DBINFO('dbname'), NULL, NULL FROM systables WHERE tabid = 1`},
	},
	// Firebird has no schemas before 6.0; relations are addressed by name only.
	database.EngineFirebird: {
		Tables: Query{SQL: `
		SELECT '', TRIM(r.RDB$RELATION_NAME),
		       CASE WHEN r.RDB$VIEW_BLR IS NOT NULL THEN 'VIEW'
		            WHEN r.RDB$EXTERNAL_FILE IS NOT NULL THEN 'EXTERNAL TABLE'
		            ELSE 'TABLE' END,
		       NULL, NULL, r.RDB$DESCRIPTION
		FROM RDB$RELATIONS r
		WHERE COALESCE(r.RDB$SYSTEM_FLAG, 0) = 0
		ORDER BY r.RDB$RELATION_NAME`},
		Columns: Query{SQL: `
		SELECT TRIM(rf.RDB$FIELD_NAME),
		       CASE WHEN f.RDB$FIELD_TYPE = 261 AND f.RDB$FIELD_SUB_TYPE = 1 THEN 'BLOB SUB_TYPE TEXT'
		            ELSE CAST(f.RDB$FIELD_TYPE AS VARCHAR(10)) END,
		       f.RDB$CHARACTER_LENGTH, f.RDB$FIELD_PRECISION, f.RDB$FIELD_SCALE,
		       CASE WHEN COALESCE(rf.RDB$NULL_FLAG, 0) = 1 THEN 0 ELSE 1 END,
		       rf.RDB$DEFAULT_SOURCE, rf.RDB$FIELD_POSITION + 1
		FROM RDB$RELATION_FIELDS rf
		JOIN RDB$FIELDS f ON f.RDB$FIELD_NAME = rf.RDB$FIELD_SOURCE
		WHERE rf.RDB$RELATION_NAME = ?
		ORDER BY rf.RDB$FIELD_POSITION`, Params: []Param{ParamTable}},
		Constraints: Query{SQL: `
		SELECT TRIM(rc.RDB$CONSTRAINT_NAME), TRIM(rc.RDB$CONSTRAINT_TYPE), TRIM(rc.RDB$RELATION_NAME),
		       TRIM(s.RDB$FIELD_NAME), TRIM(refc.RDB$RELATION_NAME), TRIM(refs.RDB$FIELD_NAME)
		FROM RDB$RELATION_CONSTRAINTS rc
		LEFT JOIN RDB$INDEX_SEGMENTS s ON s.RDB$INDEX_NAME = rc.RDB$INDEX_NAME
		LEFT JOIN RDB$REF_CONSTRAINTS ref ON ref.RDB$CONSTRAINT_NAME = rc.RDB$CONSTRAINT_NAME
		LEFT JOIN RDB$RELATION_CONSTRAINTS refc ON refc.RDB$CONSTRAINT_NAME = ref.RDB$CONST_NAME_UQ
		LEFT JOIN RDB$INDEX_SEGMENTS refs
			ON refs.RDB$INDEX_NAME = refc.RDB$INDEX_NAME AND refs.RDB$FIELD_POSITION = s.RDB$FIELD_POSITION
		WHERE rc.RDB$RELATION_NAME = ?
		  AND rc.RDB$CONSTRAINT_TYPE IN ('PRIMARY KEY', 'FOREIGN KEY', 'UNIQUE', 'CHECK')
		ORDER BY rc.RDB$CONSTRAINT_NAME, s.RDB$FIELD_POSITION`, Params: []Param{ParamTable}},
		DatabaseInfo: Query{SQL: `
		SELECT rdb$get_context('SYSTEM', 'DB_NAME'), d.RDB$CHARACTER_SET_NAME, NULL
		FROM RDB$DATABASE d`},
	},
}
