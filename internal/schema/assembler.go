package schema

import (
	"slices"
	"strings"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/logger"
	"github.com/koustreak/dbinspect/internal/typemap"
)

// Assembler turns raw catalog rows into canonical metadata. It never trusts
// the source ordering or uniqueness: ordinals are renumbered when they are
// missing or not contiguous, and a repeated column name is dropped.
type Assembler struct {
	engine database.Engine
	types  *typemap.Normalizer
	log    *logger.Logger
}

// NewAssembler creates an assembler for engine. A nil logger uses the global one.
func NewAssembler(engine database.Engine, log *logger.Logger) *Assembler {
	if log == nil {
		log = logger.L()
	}
	return &Assembler{
		engine: engine,
		types:  typemap.For(engine),
		log:    log.Component("assembler"),
	}
}

// Tables builds table descriptors without columns.
func (a *Assembler) Tables(raw []RawTable) []database.TableInfo {
	out := make([]database.TableInfo, 0, len(raw))
	for _, r := range raw {
		if r.Name == "" {
			a.log.WarnWith("skipping catalog row without a table name", nil, map[string]any{"schema": r.Schema})
			continue
		}
		t := database.TableInfo{
			Schema:   r.Schema,
			Name:     r.Name,
			Type:     a.TableType(r.Type),
			Columns:  []database.ColumnMetadata{},
			RowCount: r.RowCount,
			Comment:  r.Comment,
		}
		// Engines report -1 when statistics were never gathered.
		if t.RowCount != nil && *t.RowCount < 0 {
			t.RowCount = nil
		}
		if r.SizeBytes != nil && *r.SizeBytes >= 0 {
			t.SizeBytes = r.SizeBytes
		}
		if t.Comment != nil && *t.Comment == "" {
			t.Comment = nil
		}
		out = append(out, t)
	}
	return out
}

// Columns builds the ordered column list of table.
func (a *Assembler) Columns(table string, raw []RawColumn) []database.ColumnMetadata {
	seen := make(map[string]struct{}, len(raw))
	kept := make([]RawColumn, 0, len(raw))
	for _, r := range raw {
		if r.Name == "" {
			a.log.WarnWith("dropping column without a name", nil, map[string]any{"table": table})
			continue
		}
		if _, dup := seen[r.Name]; dup {
			a.log.WarnWith("dropping duplicate column", nil, map[string]any{"table": table, "column": r.Name})
			continue
		}
		seen[r.Name] = struct{}{}
		kept = append(kept, r)
	}

	if contiguous(kept) {
		slices.SortStableFunc(kept, func(x, y RawColumn) int { return *x.Ordinal - *y.Ordinal })
	}

	cols := make([]database.ColumnMetadata, len(kept))
	for i, r := range kept {
		cols[i] = a.column(r)
		cols[i].OrdinalPosition = i + 1
	}
	return cols
}

func (a *Assembler) column(r RawColumn) database.ColumnMetadata {
	c := database.ColumnMetadata{
		Name:     r.Name,
		Type:     database.TypeUnknown,
		Nullable: true,
		Default:  r.Default,
	}
	if r.Nullable != nil {
		c.Nullable = *r.Nullable
	}
	if r.Type == nil || strings.TrimSpace(*r.Type) == "" {
		c.Length, c.Precision, c.Scale = r.Length, r.Precision, r.Scale
		return c
	}
	c.NativeType = strings.TrimSpace(*r.Type)
	d := a.types.Describe(c.NativeType, r.Length, r.Precision, r.Scale)
	c.Type = d.Type
	c.CanonicalString = d.Canonical
	c.Length, c.Precision, c.Scale = d.Length, d.Precision, d.Scale
	return c
}

// contiguous reports whether every ordinal is present and the set is 1..n.
func contiguous(cols []RawColumn) bool {
	seen := make([]bool, len(cols)+1)
	for _, c := range cols {
		if c.Ordinal == nil || *c.Ordinal < 1 || *c.Ordinal > len(cols) || seen[*c.Ordinal] {
			return false
		}
		seen[*c.Ordinal] = true
	}
	return true
}

// Constraints builds constraint descriptors. Rows of an unknown kind are dropped.
func (a *Assembler) Constraints(raw []RawConstraint) []database.ConstraintInfo {
	out := make([]database.ConstraintInfo, 0, len(raw))
	for _, r := range raw {
		kind, ok := constraintKinds[strings.ToLower(strings.TrimSpace(r.Kind))]
		if !ok {
			a.log.DebugWith("ignoring constraint", map[string]any{"name": r.Name, "kind": r.Kind})
			continue
		}
		c := database.ConstraintInfo{
			Name:   r.Name,
			Kind:   kind,
			Table:  r.Table,
			Column: r.Column,
		}
		if kind == database.ConstraintForeignKey {
			c.RefTable, c.RefColumn = r.RefTable, r.RefColumn
		}
		out = append(out, c)
	}
	return out
}

// ApplyKeys marks primary and foreign key columns from the table's constraints.
func ApplyKeys(cols []database.ColumnMetadata, cons []database.ConstraintInfo) {
	for _, k := range cons {
		for i := range cols {
			if cols[i].Name != k.Column {
				continue
			}
			switch k.Kind {
			case database.ConstraintPrimaryKey:
				cols[i].IsPrimaryKey = true
			case database.ConstraintForeignKey:
				cols[i].IsForeignKey = true
				cols[i].RefTable = k.RefTable
				cols[i].RefColumn = k.RefColumn
			}
		}
	}
}

// TableType maps a catalog type tag into the closed TableType set. Anything
// unrecognised is a table.
func (a *Assembler) TableType(tag string) database.TableType {
	key := strings.ToLower(strings.TrimSpace(tag))
	if t, ok := engineTableCodes[a.engine][key]; ok {
		return t
	}
	if t, ok := tableTypes[key]; ok {
		return t
	}
	return database.TableTypeTable
}

var tableTypes = map[string]database.TableType{
	"table":             database.TableTypeTable,
	"base table":        database.TableTypeTable,
	"local temporary":   database.TableTypeTable,
	"global temporary":  database.TableTypeTable,
	"temporary table":   database.TableTypeTable,
	"view":              database.TableTypeView,
	"materialized view": database.TableTypeView,
	"system table":      database.TableTypeSystem,
	"system view":       database.TableTypeSystem,
	"synonym":           database.TableTypeSynonym,
	"alias":             database.TableTypeSynonym,
	"foreign table":     database.TableTypeForeign,
	"external table":    database.TableTypeForeign,
	"external":          database.TableTypeForeign,
	"nickname":          database.TableTypeForeign,
	"virtual":           database.TableTypeForeign,
}

// engineTableCodes holds single-letter catalog codes, which clash between engines.
var engineTableCodes = map[database.Engine]map[string]database.TableType{
	database.EnginePostgres: {
		"r": database.TableTypeTable,
		"p": database.TableTypeTable,
		"v": database.TableTypeView,
		"m": database.TableTypeView,
		"f": database.TableTypeForeign,
	},
	database.EngineSQLServer: {
		"u":  database.TableTypeTable,
		"v":  database.TableTypeView,
		"s":  database.TableTypeSystem,
		"sn": database.TableTypeSynonym,
		"et": database.TableTypeForeign,
	},
	database.EngineSybase: {
		"u": database.TableTypeTable,
		"v": database.TableTypeView,
		"s": database.TableTypeSystem,
	},
	database.EngineDB2: {
		"t": database.TableTypeTable,
		"s": database.TableTypeTable,
		"g": database.TableTypeTable,
		"v": database.TableTypeView,
		"a": database.TableTypeSynonym,
		"n": database.TableTypeForeign,
	},
	database.EngineInformix: {
		"t": database.TableTypeTable,
		"v": database.TableTypeView,
		"s": database.TableTypeSynonym,
		"p": database.TableTypeSynonym,
		"e": database.TableTypeForeign,
	},
}

var constraintKinds = map[string]database.ConstraintKind{
	"p":           database.ConstraintPrimaryKey,
	"pk":          database.ConstraintPrimaryKey,
	"primary key": database.ConstraintPrimaryKey,
	"r":           database.ConstraintForeignKey,
	"f":           database.ConstraintForeignKey,
	"fk":          database.ConstraintForeignKey,
	"foreign key": database.ConstraintForeignKey,
	"u":           database.ConstraintUnique,
	"uq":          database.ConstraintUnique,
	"unique":      database.ConstraintUnique,
	"c":           database.ConstraintCheck,
	"ck":          database.ConstraintCheck,
	"k":           database.ConstraintCheck,
	"check":       database.ConstraintCheck,
}
