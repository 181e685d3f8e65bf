package dialect

import (
	"errors"
	"strings"
)

// ErrNulInLiteral is returned by SQLite.QuoteLiteral: SQLite string literals
// end at the first NUL byte.
var ErrNulInLiteral = errors.New("sqlite: string literal cannot contain NUL")

// SQLite renders SQL for SQLite 3.39+.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) QuoteIdentifier(segment string) string {
	return `"` + strings.ReplaceAll(segment, `"`, `""`) + `"`
}

func (SQLite) QuoteLiteral(raw string) (string, error) {
	if strings.ContainsRune(raw, 0) {
		return "", ErrNulInLiteral
	}
	return "'" + strings.ReplaceAll(raw, "'", "''") + "'", nil
}

func (SQLite) DecodeLiteral(body string) string {
	return strings.ReplaceAll(body, "''", "'")
}

func (SQLite) If(cond, then, otherwise string) string {
	return "CASE WHEN " + cond + " THEN " + then + " ELSE " + otherwise + " END"
}

func (SQLite) Length(expr string) string {
	return "LENGTH(" + expr + ")"
}

// Equal uses NOCASE; the default BINARY collation would be case-sensitive.
func (SQLite) Equal(left, right string) string {
	return left + " = " + right + " COLLATE NOCASE"
}

// Like renders LIKE with an explicit escape character; SQLite has none by
// default.
func (SQLite) Like(expr string, p Pattern) string {
	var b strings.Builder
	b.WriteString(expr)
	b.WriteString(" LIKE '")
	for _, t := range p {
		if t.Wildcard {
			b.WriteByte('%')
			continue
		}
		for _, r := range t.Text {
			switch r {
			case '%', '_', '\\':
				b.WriteByte('\\')
				b.WriteRune(r)
			case '\'':
				b.WriteString("''")
			default:
				b.WriteRune(r)
			}
		}
	}
	b.WriteString(`' ESCAPE '\'`)
	return b.String()
}

// LikeCaseSensitive uses GLOB, which is case-sensitive and escapes its
// metacharacters with single-character classes.
func (SQLite) LikeCaseSensitive(expr string, p Pattern) string {
	var b strings.Builder
	b.WriteString(expr)
	b.WriteString(" GLOB '")
	for _, t := range p {
		if t.Wildcard {
			b.WriteByte('*')
			continue
		}
		for _, r := range t.Text {
			switch r {
			case '*', '?', '[':
				b.WriteByte('[')
				b.WriteRune(r)
				b.WriteByte(']')
			case '\'':
				b.WriteString("''")
			default:
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// Divide forces real division; SQLite truncates integer/integer.
// Fold is ASCII only: NOCASE, LIKE and LOWER leave other letters alone
// unless the ICU extension is loaded.
func (SQLite) Fold(r rune) rune {
	if 'A' <= r && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

func (SQLite) Divide(numerator, denominator string) string {
	return "CAST(" + numerator + " AS REAL) / " + denominator
}

func (SQLite) HavingOnAlias() bool { return false }
