// Package typemap normalizes engine-native column types into the canonical
// classification {string, number, date, boolean, binary, unknown} and into a
// reconstructable canonical type literal such as varchar(255) or numeric(10,2).
//
// Lookups never fail: a type the tables do not know maps to unknown and its
// canonical literal is the lower-cased native name.
package typemap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/koustreak/dbinspect/internal/database"
)

type family int

const (
	famFixedChar   family = iota // char(n)
	famVarChar                   // varchar(n)
	famText                      // unbounded character data
	famNamedString               // string-like types that keep their own name (uuid, json, …)
	famInt
	famDecimal
	famMoney
	famFloat
	famTemporal
	famBool
	famBinary // bounded binary
	famBlob   // unbounded binary
)

func (f family) canonical() database.CanonicalType {
	switch f {
	case famFixedChar, famVarChar, famText, famNamedString:
		return database.TypeString
	case famInt, famDecimal, famMoney, famFloat:
		return database.TypeNumber
	case famTemporal:
		return database.TypeDate
	case famBool:
		return database.TypeBoolean
	case famBinary, famBlob:
		return database.TypeBinary
	default:
		return database.TypeUnknown
	}
}

type entry struct {
	fam   family
	canon string
}

// Descriptor is the normalized form of one native column type.
type Descriptor struct {
	Type      database.CanonicalType
	Canonical string
	Length    *int
	Precision *int
	Scale     *int
}

// Normalizer maps one engine's native types.
type Normalizer struct {
	engine      database.Engine
	names       map[string]entry
	codes       map[int]string
	codeMod     int
	signedScale bool
}

// For returns the normalizer for engine. Unknown engines get the common table only.
func For(engine database.Engine) *Normalizer {
	n := &Normalizer{engine: engine, names: engineTypes[engine]}
	switch engine {
	case database.EngineFirebird:
		n.codes = firebirdCodes
		n.signedScale = true
	case database.EngineInformix:
		n.codes = informixCodes
		n.codeMod = 256
	}
	return n
}

// Engine reports the engine this normalizer serves.
func (n *Normalizer) Engine() database.Engine { return n.engine }

// Normalize returns the canonical classification of a native type.
func (n *Normalizer) Normalize(native string, length, precision, scale *int) database.CanonicalType {
	return n.Describe(native, length, precision, scale).Type
}

// CanonicalString returns the reconstructable canonical type literal.
func (n *Normalizer) CanonicalString(native string, length, precision, scale *int) string {
	return n.Describe(native, length, precision, scale).Canonical
}

// Describe normalizes a native type name (or catalog type code) together
// with its catalog length, precision and scale. Arguments written inline in
// the name, as in "varchar(40)", fill in whichever of those are nil.
func (n *Normalizer) Describe(native string, length, precision, scale *int) Descriptor {
	s := clean(native)
	if s == "" {
		return Descriptor{Type: database.TypeUnknown}
	}
	if n.codes != nil {
		if code, err := strconv.Atoi(s); err == nil {
			if n.codeMod > 0 {
				code %= n.codeMod
			}
			if name, ok := n.codes[code]; ok {
				s = name
			}
		}
	}

	base, args := splitArgs(s)
	base = stripModifiers(base)

	e, ok := n.lookup(base)
	if !ok {
		return Descriptor{
			Type:      database.TypeUnknown,
			Canonical: strings.ToLower(strings.TrimSpace(native)),
			Length:    length,
			Precision: precision,
			Scale:     scale,
		}
	}

	switch e.fam {
	case famFixedChar, famVarChar, famText, famBinary, famBlob:
		if length == nil && len(args) > 0 {
			length = intPtr(args[0])
		}
	case famDecimal:
		if precision == nil && len(args) > 0 {
			precision = intPtr(args[0])
		}
		if scale == nil && len(args) > 1 {
			scale = intPtr(args[1])
		}
	}

	if n.signedScale && scale != nil && *scale < 0 {
		abs := -*scale
		scale = &abs
		if e.fam == famInt {
			p := widthPrecision(e.canon)
			if precision != nil && *precision > 0 {
				p = *precision
			}
			precision = &p
			e = entry{fam: famDecimal, canon: "numeric"}
		}
	}

	d := Descriptor{
		Type:      e.fam.canonical(),
		Length:    length,
		Precision: precision,
		Scale:     scale,
	}
	d.Canonical = render(e, &d)
	return d
}

func (n *Normalizer) lookup(base string) (entry, bool) {
	if e, ok := n.names[base]; ok {
		return e, true
	}
	if e, ok := commonTypes[base]; ok {
		return e, true
	}
	// "datetime year to fraction", "interval day to second", "bit varying"
	if i := strings.IndexByte(base, ' '); i > 0 {
		return n.lookup(base[:i])
	}
	return entry{}, false
}

func render(e entry, d *Descriptor) string {
	bounded := d.Length != nil && *d.Length > 0
	switch e.fam {
	case famFixedChar:
		if bounded {
			return fmt.Sprintf("char(%d)", *d.Length)
		}
		d.Length = nil
		return "text"
	case famVarChar:
		if bounded {
			return fmt.Sprintf("varchar(%d)", *d.Length)
		}
		d.Length = nil
		return "text"
	case famText:
		return "text"
	case famDecimal:
		switch {
		case d.Precision != nil && *d.Precision > 0 && d.Scale != nil:
			return fmt.Sprintf("numeric(%d,%d)", *d.Precision, *d.Scale)
		case d.Precision != nil && *d.Precision > 0:
			return fmt.Sprintf("numeric(%d)", *d.Precision)
		default:
			return "numeric"
		}
	case famBinary:
		if bounded {
			return fmt.Sprintf("varbinary(%d)", *d.Length)
		}
		d.Length = nil
		return "blob"
	case famBlob:
		return "blob"
	default:
		return e.canon
	}
}

// widthPrecision is the decimal precision an integer of the given width can hold.
func widthPrecision(canon string) int {
	switch canon {
	case "smallint":
		return 4
	case "integer":
		return 9
	case "int128":
		return 38
	default:
		return 18
	}
}

// clean lower-cases, trims and collapses internal whitespace.
func clean(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// splitArgs separates "numeric(10, 2) with x" into "numeric with x" and [10 2].
// Non-numeric arguments (enum labels, "max") are dropped.
func splitArgs(s string) (string, []int) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, nil
	}
	end := strings.IndexByte(s[open:], ')')
	if end < 0 {
		return strings.TrimSpace(s[:open]), nil
	}
	end += open

	var args []int
	for _, part := range strings.Split(s[open+1:end], ",") {
		if v, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			args = append(args, v)
		}
	}
	base := strings.TrimSpace(s[:open] + " " + strings.TrimSpace(s[end+1:]))
	return clean(base), args
}

func stripModifiers(base string) string {
	words := strings.Fields(base)
	out := words[:0]
	for _, w := range words {
		switch w {
		case "unsigned", "signed", "zerofill":
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

func intPtr(v int) *int { return &v }

// Normalize classifies a native type of engine.
func Normalize(engine database.Engine, native string, length, precision, scale *int) database.CanonicalType {
	return For(engine).Normalize(native, length, precision, scale)
}

// CanonicalString renders the canonical type literal for a native type of engine.
func CanonicalString(engine database.Engine, native string, length, precision, scale *int) string {
	return For(engine).CanonicalString(native, length, precision, scale)
}
