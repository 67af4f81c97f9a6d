package typemap

import "github.com/koustreak/dbinspect/internal/database"

var (
	fixedChar = entry{fam: famFixedChar, canon: "char"}
	varChar   = entry{fam: famVarChar, canon: "varchar"}
	text      = entry{fam: famText, canon: "text"}
	smallInt  = entry{fam: famInt, canon: "smallint"}
	integer   = entry{fam: famInt, canon: "integer"}
	bigInt    = entry{fam: famInt, canon: "bigint"}
	decimal   = entry{fam: famDecimal, canon: "numeric"}
	money     = entry{fam: famMoney, canon: "numeric(19,4)"}
	smallMny  = entry{fam: famMoney, canon: "numeric(10,4)"}
	float4    = entry{fam: famFloat, canon: "real"}
	float8    = entry{fam: famFloat, canon: "double precision"}
	date      = entry{fam: famTemporal, canon: "date"}
	timeOfDay = entry{fam: famTemporal, canon: "time"}
	timeTZ    = entry{fam: famTemporal, canon: "time with time zone"}
	timestamp = entry{fam: famTemporal, canon: "timestamp"}
	tsTZ      = entry{fam: famTemporal, canon: "timestamp with time zone"}
	interval  = entry{fam: famTemporal, canon: "interval"}
	boolean   = entry{fam: famBool, canon: "boolean"}
	binary    = entry{fam: famBinary, canon: "varbinary"}
	blob      = entry{fam: famBlob, canon: "blob"}
)

func named(canon string) entry { return entry{fam: famNamedString, canon: canon} }

// commonTypes covers the ANSI names and the spellings most engines share.
var commonTypes = map[string]entry{
	"char":                            fixedChar,
	"character":                       fixedChar,
	"nchar":                           fixedChar,
	"national char":                   fixedChar,
	"national character":              fixedChar,
	"varchar":                         varChar,
	"character varying":               varChar,
	"char varying":                    varChar,
	"nvarchar":                        varChar,
	"national character varying":      varChar,
	"national char varying":           varChar,
	"text":                            text,
	"clob":                            text,
	"nclob":                           text,
	"ntext":                           text,
	"character large object":          text,
	"national character large object": text,
	"long varchar":                    text,
	"uuid":                            named("uuid"),
	"json":                            named("json"),
	"xml":                             named("xml"),
	"smallint":                        smallInt,
	"tinyint":                         smallInt,
	"int":                             integer,
	"integer":                         integer,
	"mediumint":                       integer,
	"bigint":                          bigInt,
	"decimal":                         decimal,
	"dec":                             decimal,
	"numeric":                         decimal,
	"number":                          decimal,
	"money":                           money,
	"smallmoney":                      smallMny,
	"real":                            float4,
	"float":                           float8,
	"double":                          float8,
	"double precision":                float8,
	"decfloat":                        float8,
	"date":                            date,
	"time":                            timeOfDay,
	"time without time zone":          timeOfDay,
	"time with time zone":             timeTZ,
	"timestamp":                       timestamp,
	"timestamp without time zone":     timestamp,
	"timestamp with time zone":        tsTZ,
	"timestamp with local time zone":  tsTZ,
	"datetime":                        timestamp,
	"interval":                        interval,
	"boolean":                         boolean,
	"bool":                            boolean,
	"binary":                          binary,
	"varbinary":                       binary,
	"binary varying":                  binary,
	"blob":                            blob,
	"binary large object":             blob,
	"image":                           blob,
}

// engineTypes holds the engine-specific spellings; they take precedence
// over commonTypes.
var engineTypes = map[database.Engine]map[string]entry{
	database.EnginePostgres: {
		"bpchar":      fixedChar,
		"name":        varChar,
		"citext":      text,
		"jsonb":       named("jsonb"),
		"inet":        named("inet"),
		"cidr":        named("cidr"),
		"macaddr":     named("macaddr"),
		"int2":        smallInt,
		"int4":        integer,
		"int8":        bigInt,
		"serial":      integer,
		"serial4":     integer,
		"smallserial": smallInt,
		"serial2":     smallInt,
		"bigserial":   bigInt,
		"serial8":     bigInt,
		"oid":         bigInt,
		"float4":      float4,
		"float8":      float8,
		"float":       float8,
		"timestamptz": tsTZ,
		"timetz":      timeTZ,
		"bytea":       blob,
		"bit":         binary,
		"bit varying": binary,
		"varbit":      binary,
	},
	database.EngineMySQL: {
		"tinytext":   text,
		"mediumtext": text,
		"longtext":   text,
		"enum":       varChar,
		"set":        varChar,
		"year":       date,
		"float":      float4,
		"bit":        boolean,
		"tinyblob":   blob,
		"mediumblob": blob,
		"longblob":   blob,
	},
	database.EngineOracle: {
		"varchar2":                       varChar,
		"nvarchar2":                      varChar,
		"long":                           text,
		"rowid":                          varChar,
		"urowid":                         varChar,
		"binary_float":                   float4,
		"binary_double":                  float8,
		"float":                          float8,
		"date":                           timestamp,
		"timestamp with local time zone": tsTZ,
		"raw":                            binary,
		"long raw":                       blob,
		"bfile":                          blob,
	},
	database.EngineSQLServer: {
		"sysname":          varChar,
		"uniqueidentifier": named("uuid"),
		"bit":              boolean,
		"datetime2":        timestamp,
		"smalldatetime":    timestamp,
		"datetimeoffset":   tsTZ,
		"float":            float8,
		// SQL Server's timestamp is the row version counter, not a date.
		"timestamp":  binary,
		"rowversion": binary,
	},
	database.EngineSybase: {
		"sysname":       varChar,
		"unichar":       fixedChar,
		"univarchar":    varChar,
		"unitext":       text,
		"bit":           boolean,
		"smalldatetime": timestamp,
		"bigdatetime":   timestamp,
		"bigtime":       timeOfDay,
		"timestamp":     binary,
	},
	database.EngineDB2: {
		"graphic":                   fixedChar,
		"vargraphic":                varChar,
		"long vargraphic":           text,
		"dbclob":                    text,
		"timestmp":                  timestamp,
		"char for bit data":         binary,
		"varchar for bit data":      binary,
		"character for bit data":    binary,
		"long varchar for bit data": blob,
	},
	database.EngineHANA: {
		"alphanum":     varChar,
		"shorttext":    varChar,
		"bintext":      text,
		"smalldecimal": decimal,
		"seconddate":   timestamp,
		"float":        float8,
	},
	database.EngineNetezza: {
		"byteint":          smallInt,
		"int1":             smallInt,
		"int2":             smallInt,
		"int4":             integer,
		"int8":             bigInt,
		"float4":           float4,
		"float8":           float8,
		"bool":             boolean,
		"st_geometry":      binary,
		"varbinary":        binary,
		"national varchar": varChar,
	},
	database.EngineInformix: {
		"serial":     integer,
		"serial8":    bigInt,
		"bigserial":  bigInt,
		"int8":       bigInt,
		"smallfloat": float4,
		"lvarchar":   varChar,
		"byte":       blob,
		"text":       text,
	},
	database.EngineFirebird: {
		"varying":            varChar,
		"cstring":            varChar,
		"short":              smallInt,
		"long":               integer,
		"int64":              bigInt,
		"float":              float4,
		"int128":             entry{fam: famInt, canon: "int128"},
		"blob sub_type text": text,
		"blob sub_type 1":    text,
	},
}

// firebirdCodes maps RDB$FIELDS.RDB$FIELD_TYPE values to type names.
var firebirdCodes = map[int]string{
	7:   "smallint",
	8:   "integer",
	10:  "float",
	12:  "date",
	13:  "time",
	14:  "char",
	16:  "bigint",
	23:  "boolean",
	26:  "int128",
	27:  "double precision",
	28:  "time with time zone",
	29:  "timestamp with time zone",
	35:  "timestamp",
	37:  "varchar",
	40:  "cstring",
	261: "blob",
}

// informixCodes maps syscolumns.coltype (modulo the NOT NULL flag) to type names.
var informixCodes = map[int]string{
	0:  "char",
	1:  "smallint",
	2:  "integer",
	3:  "float",
	4:  "smallfloat",
	5:  "decimal",
	6:  "serial",
	7:  "date",
	8:  "money",
	10: "datetime",
	11: "byte",
	12: "text",
	13: "varchar",
	14: "interval",
	15: "nchar",
	16: "nvarchar",
	17: "int8",
	18: "serial8",
	43: "lvarchar",
	45: "boolean",
	52: "bigint",
	53: "bigserial",
}

// canonicalExtras lets Parse read back the named literals that only appear
// in engine tables.
var canonicalExtras = map[string]entry{
	"jsonb":   named("jsonb"),
	"inet":    named("inet"),
	"cidr":    named("cidr"),
	"macaddr": named("macaddr"),
	"int128":  {fam: famInt, canon: "int128"},
}
