package dialect

import (
	"strconv"
	"strings"
)

// ApplyRowLimit limits a SELECT to maxRows using the engine's limiting
// clause. Anything that is not a SELECT, already carries a limiting clause,
// or is called with maxRows <= 0 is returned unchanged, so applying the
// limit twice gives the same statement as applying it once.
//
// Trailing semicolons and trailing comments are dropped from a rewritten
// statement.
func (d *Dialect) ApplyRowLimit(sql string, maxRows int) string {
	if maxRows <= 0 {
		return sql
	}
	body := strings.TrimSpace(sql)
	if !startsWithSelect(body) {
		return sql
	}

	masked, comment := d.scan(body)
	words := tokenize(masked)
	if d.hasLimit(words) {
		return sql
	}

	n := strconv.Itoa(maxRows)
	switch d.Limit {
	case TopPrefix:
		at := words[0].end
		if len(words) > 1 && (words[1].text == "DISTINCT" || words[1].text == "ALL") {
			at = words[1].end
		}
		return body[:at] + " TOP " + n + body[at:]
	case FirstPrefix:
		at := words[0].end
		return body[:at] + " FIRST " + n + body[at:]
	}

	core := body[:statementEnd(body, comment)]
	if d.Limit == FetchFirstSuffix {
		return core + " FETCH FIRST " + n + " ROWS ONLY"
	}
	return core + " LIMIT " + n
}

// statementEnd returns the length of body without its trailing whitespace,
// semicolons and comments. Quoted text at the end is kept.
func statementEnd(body string, comment []bool) int {
	end := len(body)
	for end > 0 {
		switch c := body[end-1]; {
		case comment[end-1], c == ' ', c == '\t', c == '\r', c == '\n', c == ';':
			end--
		default:
			return end
		}
	}
	return end
}

func startsWithSelect(s string) bool {
	if len(s) < 6 || !strings.EqualFold(s[:6], "SELECT") {
		return false
	}
	return len(s) == 6 || !isWordByte(s[6])
}

// hasLimit reports whether the statement already restricts its row count in
// a form this engine understands.
func (d *Dialect) hasLimit(words []word) bool {
	// prefix forms are only meaningful right after SELECT [DISTINCT|ALL]
	lead := func(kw ...string) bool {
		for i := 1; i < len(words) && i <= 2; i++ {
			for _, k := range kw {
				if words[i].text == k {
					return true
				}
			}
			if words[i].text != "DISTINCT" && words[i].text != "ALL" && words[i].text != "UNIQUE" {
				return false
			}
		}
		return false
	}

	fetch := false
	for i, w := range words {
		if w.text == "FETCH" && i+1 < len(words) && (words[i+1].text == "FIRST" || words[i+1].text == "NEXT") {
			fetch = true
			break
		}
	}

	switch d.Limit {
	case TopPrefix:
		return lead("TOP")
	case FirstPrefix:
		return lead("FIRST", "SKIP", "LIMIT") || fetch || rowsClause(words)
	case FetchFirstSuffix:
		return fetch || contains(words, "ROWNUM")
	default:
		return fetch || contains(words, "LIMIT")
	}
}

func contains(words []word, kw string) bool {
	for _, w := range words {
		if w.text == kw {
			return true
		}
	}
	return false
}

// rowsClause finds Firebird's "ROWS n", ignoring window frames such as
// "ROWS BETWEEN".
func rowsClause(words []word) bool {
	for i, w := range words {
		if w.text == "ROWS" && i+1 < len(words) {
			if _, err := strconv.Atoi(words[i+1].text); err == nil {
				return true
			}
		}
	}
	return false
}

type word struct {
	text       string // upper-cased
	start, end int
}

func tokenize(s string) []word {
	var words []word
	for i := 0; i < len(s); {
		if !isWordByte(s[i]) {
			i++
			continue
		}
		j := i
		for j < len(s) && isWordByte(s[j]) {
			j++
		}
		words = append(words, word{text: strings.ToUpper(s[i:j]), start: i, end: j})
		i = j
	}
	return words
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c == '#' || c == '@' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// scan blanks out comments, string literals and quoted identifiers so that
// keyword detection only sees SQL structure, and reports which bytes belong
// to a comment. The masked text has the same length as sql, which keeps
// offsets valid in the original text.
func (d *Dialect) scan(sql string) (string, []bool) {
	b := []byte(sql)
	n := len(b)
	comment := make([]bool, n)
	blank := func(from, to int) {
		for k := from; k < to && k < n; k++ {
			if b[k] != '\n' {
				b[k] = ' '
			}
		}
	}
	blankComment := func(from, to int) {
		blank(from, to)
		for k := from; k < to && k < n; k++ {
			comment[k] = true
		}
	}
	// closing returns the index after the delimiter that ends a quoted run
	// opened at i, treating a doubled delimiter as an escape.
	closing := func(i int, delim byte) int {
		j := i + 1
		for j < n {
			if b[j] == delim {
				if j+1 < n && b[j+1] == delim {
					j += 2
					continue
				}
				return j + 1
			}
			j++
		}
		return n
	}

	for i := 0; i < n; {
		switch {
		case b[i] == '-' && i+1 < n && b[i+1] == '-':
			j := i
			for j < n && b[j] != '\n' {
				j++
			}
			blankComment(i, j)
			i = j
		case b[i] == '/' && i+1 < n && b[i+1] == '*':
			j := strings.Index(sql[i+2:], "*/")
			end := n
			if j >= 0 {
				end = i + 2 + j + 2
			}
			blankComment(i, end)
			i = end
		case b[i] == '\'':
			end := closing(i, '\'')
			blank(i, end)
			i = end
		case b[i] == '"' || b[i] == '`':
			end := closing(i, b[i])
			blank(i, end)
			i = end
		case b[i] == '[' && d.quoteOpen == "[":
			end := closing(i, ']')
			blank(i, end)
			i = end
		case b[i] == '$' && d.dollarQuote && (i == 0 || !isWordByte(b[i-1])):
			end := dollarEnd(sql, i)
			if end < 0 {
				i++
				continue
			}
			blank(i, end)
			i = end
		default:
			i++
		}
	}
	return string(b), comment
}

// dollarEnd finds the end of a $tag$...$tag$ string starting at i, or -1.
func dollarEnd(sql string, i int) int {
	tagEnd := strings.IndexByte(sql[i+1:], '$')
	if tagEnd < 0 {
		return -1
	}
	tag := sql[i : i+tagEnd+2]
	for _, c := range []byte(tag[1 : len(tag)-1]) {
		if !isWordByte(c) || c == '$' {
			return -1
		}
	}
	closeIdx := strings.Index(sql[i+len(tag):], tag)
	if closeIdx < 0 {
		return -1
	}
	return i + len(tag) + closeIdx + len(tag)
}
