package typemap

import "github.com/koustreak/dbinspect/internal/database"

// Parsed is a canonical type literal read back into its parts.
type Parsed struct {
	Type      database.CanonicalType
	Base      string
	Length    *int
	Precision *int
	Scale     *int
}

var reverse = &Normalizer{names: canonicalExtras}

// Parse reverses CanonicalString: "numeric(10,2)" yields TypeNumber with
// precision 10 and scale 2, "varchar(255)" yields TypeString with length 255.
func Parse(canonical string) Parsed {
	base, _ := splitArgs(clean(canonical))
	d := reverse.Describe(canonical, nil, nil, nil)
	return Parsed{
		Type:      d.Type,
		Base:      base,
		Length:    d.Length,
		Precision: d.Precision,
		Scale:     d.Scale,
	}
}
