// Package dialect describes the SQL surface the fuzzy matchers rely on.
//
// Matchers never write engine-specific SQL directly. They ask a Dialect for
// identifier quoting, conditionals, string length, case-insensitive equality
// and LIKE patterns, which keeps the portability contract in one place:
//
//   - MySQL (default): backtick identifiers, IF(), CHAR_LENGTH(), LIKE with
//     backslash escapes, CAST(x AS BINARY) LIKE for case-sensitive patterns,
//     HAVING on select-list aliases.
//   - SQLite: double-quoted identifiers, CASE WHEN, LENGTH(), LIKE with an
//     explicit ESCAPE clause, GLOB for case-sensitive patterns, COLLATE NOCASE
//     equality, real division, alias filters through an outer WHERE.
//
// Porting to another engine means implementing Dialect; nothing in the
// matcher package changes.
package dialect

import (
	"strings"

	fuzzyerrors "github.com/standardbeagle/fuzzysql/internal/errors"
)

// Dialect renders the SQL building blocks used by the matchers.
type Dialect interface {
	// Name returns the canonical dialect name ("mysql", "sqlite").
	Name() string

	// QuoteIdentifier quotes a single identifier segment.
	QuoteIdentifier(segment string) string

	// QuoteLiteral is the default escaping primitive: it returns raw as a
	// quoted string literal, including the surrounding quotes.
	QuoteLiteral(raw string) (string, error)

	// DecodeLiteral turns the body of a quoted literal (without the
	// surrounding quotes) back into the characters it denotes.
	DecodeLiteral(body string) string

	If(cond, then, otherwise string) string
	Length(expr string) string

	// Equal compares two string expressions case-insensitively.
	Equal(left, right string) string

	// Like renders a case-insensitive pattern match of expr against p.
	Like(expr string, p Pattern) string

	// LikeCaseSensitive renders a case-sensitive pattern match.
	LikeCaseSensitive(expr string, p Pattern) string

	// Fold maps a rune to the form the engine compares in Equal, Like and
	// LOWER, so in-process scoring agrees with the database.
	Fold(r rune) rune

	// Divide renders a non-integer division.
	Divide(numerator, denominator string) string

	// HavingOnAlias reports whether a select-list alias can be filtered with
	// HAVING on a query without GROUP BY.
	HavingOnAlias() bool
}

// Default returns the dialect used when none is configured.
func Default() Dialect {
	return MySQL{}
}

// Lookup resolves a dialect by name.
func Lookup(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mysql", "mariadb":
		return MySQL{}, nil
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	default:
		return nil, fuzzyerrors.NewConfigurationError("dialect", name, fuzzyerrors.ErrUnknownDialect)
	}
}

// Names lists the canonical dialect names.
func Names() []string {
	return []string{"mysql", "sqlite"}
}

// FoldString folds every rune of s the way d does.
func FoldString(d Dialect, s string) string {
	return strings.Map(d.Fold, s)
}

// QuoteQualified quotes every segment of a qualified name and joins them with
// dots, e.g. user.name -> `user`.`name`.
func QuoteQualified(d Dialect, segments []string) string {
	quoted := make([]string, len(segments))
	for i, s := range segments {
		quoted[i] = d.QuoteIdentifier(s)
	}
	return strings.Join(quoted, ".")
}
