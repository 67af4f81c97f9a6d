package schema

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Catalog values arrive in whatever Go type the driver picked: []byte from
// text protocols, int32/int64/float64 for numbers, named string types for
// Oracle NUMBER, space-padded CHAR columns from Informix and Firebird. These
// helpers fold them into plain values.

func plain(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	}
	return v
}

func text(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s, err := cast.ToStringE(plain(v))
	if err != nil {
		return "", false
	}
	return strings.TrimRight(s, " "), true
}

func textOr(v any) string {
	s, _ := text(v)
	return s
}

func optText(v any) *string {
	s, ok := text(v)
	if !ok {
		return nil
	}
	return &s
}

func optInt(v any) *int {
	if v == nil {
		return nil
	}
	if s, ok := plain(v).(string); ok {
		v = strings.TrimSpace(s)
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return nil
	}
	return &n
}

func optInt64(v any) *int64 {
	if v == nil {
		return nil
	}
	if s, ok := plain(v).(string); ok {
		v = strings.TrimSpace(s)
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return nil
	}
	return &n
}

func optBool(v any) *bool {
	if v == nil {
		return nil
	}
	if s, ok := text(v); ok {
		switch strings.ToUpper(strings.TrimSpace(s)) {
		case "YES", "Y", "TRUE", "T", "1":
			return ptr(true)
		case "NO", "N", "FALSE", "F", "0":
			return ptr(false)
		}
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return nil
	}
	return &b
}

func ptr[T any](v T) *T { return &v }

// at returns row[i], or nil when the row is shorter than expected.
func at(row []any, i int) any {
	if i < len(row) {
		return row[i]
	}
	return nil
}
