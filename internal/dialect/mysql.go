package dialect

import (
	"strings"
	"unicode"
)

// MySQL renders SQL for MySQL and MariaDB.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdentifier(segment string) string {
	return "`" + strings.ReplaceAll(segment, "`", "``") + "`"
}

// QuoteLiteral escapes the same characters as mysql_real_escape_string.
func (MySQL) QuoteLiteral(raw string) (string, error) {
	var b strings.Builder
	b.Grow(len(raw) + 2)
	b.WriteByte('\'')
	for _, r := range raw {
		b.WriteString(mysqlEscapeRune(r))
	}
	b.WriteByte('\'')
	return b.String(), nil
}

func (MySQL) DecodeLiteral(body string) string {
	if !strings.ContainsAny(body, `\'`) {
		return body
	}
	var b strings.Builder
	b.Grow(len(body))
	runes := []rune(body)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes):
			i++
			switch next := runes[i]; next {
			case '0':
				b.WriteRune(0)
			case 'n':
				b.WriteRune('\n')
			case 'r':
				b.WriteRune('\r')
			case 't':
				b.WriteRune('\t')
			case 'b':
				b.WriteRune('\b')
			case 'Z':
				b.WriteRune(0x1a)
			case '%', '_':
				// MySQL keeps the backslash for these outside LIKE
				b.WriteRune('\\')
				b.WriteRune(next)
			default:
				b.WriteRune(next)
			}
		case r == '\'' && i+1 < len(runes) && runes[i+1] == '\'':
			i++
			b.WriteRune('\'')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (MySQL) If(cond, then, otherwise string) string {
	return "IF(" + cond + ", " + then + ", " + otherwise + ")"
}

func (MySQL) Length(expr string) string {
	return "CHAR_LENGTH(" + expr + ")"
}

// Equal relies on the column collation, which is case-insensitive by default.
func (MySQL) Equal(left, right string) string {
	return left + " = " + right
}

func (MySQL) Like(expr string, p Pattern) string {
	return expr + " LIKE " + mysqlLikeLiteral(p)
}

func (MySQL) LikeCaseSensitive(expr string, p Pattern) string {
	return "CAST(" + expr + " AS BINARY) LIKE " + mysqlLikeLiteral(p)
}

// Fold follows the case-insensitive utf8mb4 collations, which fold every
// cased letter.
func (MySQL) Fold(r rune) rune {
	return unicode.ToLower(r)
}

func (MySQL) Divide(numerator, denominator string) string {
	return numerator + " / " + denominator
}

func (MySQL) HavingOnAlias() bool { return true }

func mysqlLikeLiteral(p Pattern) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, t := range p {
		if t.Wildcard {
			b.WriteByte('%')
			continue
		}
		for _, r := range t.Text {
			switch r {
			case '%':
				b.WriteString(`\%`)
			case '_':
				b.WriteString(`\_`)
			case '\\':
				// literal \\ -> string \\ -> LIKE matches one backslash
				b.WriteString(`\\\\`)
			default:
				b.WriteString(mysqlEscapeRune(r))
			}
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func mysqlEscapeRune(r rune) string {
	switch r {
	case 0:
		return `\0`
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case '\\':
		return `\\`
	case '\'':
		return `\'`
	case '"':
		return `\"`
	case 0x1a:
		return `\Z`
	default:
		return string(r)
	}
}
