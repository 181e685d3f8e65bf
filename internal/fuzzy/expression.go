package fuzzy

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/fuzzysql/internal/matcher"
)

// AliasPrefix starts every relevance alias.
const AliasPrefix = "fuzzy_relevance_"

// Term is one matcher's contribution to the relevance sum.
type Term struct {
	Kind   matcher.Kind `json:"kind"`
	Weight int          `json:"weight"`
	SQL    string       `json:"sql"`
}

// Expression is a built relevance expression.
type Expression struct {
	// Field is the normalized field name (segments joined with dots).
	Field string
	// Alias is fuzzy_relevance_ + Field with dots replaced by underscores.
	Alias string
	// Column is the COALESCE-wrapped quoted column all terms read from.
	Column string
	// Value is the escaped literal body of the search term.
	Value string
	Terms []Term
	// SQL is the terms joined with " + ".
	SQL string
}

// Select returns the expression as a select-list item.
func (e *Expression) Select() string {
	return e.SQL + " AS " + e.Alias
}

// Fingerprint hashes the select item. Equal inputs on an equally configured
// builder always produce the same fingerprint, so it can key statement caches.
func (e *Expression) Fingerprint() uint64 {
	return xxhash.Sum64String(e.Select())
}

// AliasFor derives the relevance alias of a normalized field.
func AliasFor(field string) string {
	return AliasPrefix + strings.ReplaceAll(field, ".", "_")
}

func joinTerms(terms []Term) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.SQL
	}
	return strings.Join(parts, " + ")
}
