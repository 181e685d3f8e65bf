package matcher

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/fuzzysql/internal/dialect"
)

// ExactMatcher fires when the column equals the value (case-insensitive).
type ExactMatcher struct{ base }

func (m *ExactMatcher) BuildQueryString(column, value string) string {
	if value == "" {
		return zero
	}
	return m.d.If(m.d.Equal(column, literal(value)), m.weightSQL(), zero)
}

func (m *ExactMatcher) Score(subject, value string) float64 {
	term := m.term(value)
	if term == "" || dialect.FoldString(m.d, subject) != dialect.FoldString(m.d, term) {
		return 0
	}
	return float64(m.weight)
}

// StartOfStringMatcher fires when the column starts with the value.
type StartOfStringMatcher struct{ base }

func (m *StartOfStringMatcher) pattern(value string) dialect.Pattern {
	return dialect.Pattern{}.Lit(m.term(value)).Any()
}

func (m *StartOfStringMatcher) BuildQueryString(column, value string) string {
	p := m.pattern(value)
	if !p.HasLiteral() {
		return zero
	}
	return m.d.If(m.d.Like(column, p), m.weightSQL(), zero)
}

func (m *StartOfStringMatcher) Score(subject, value string) float64 {
	p := m.pattern(value)
	if !p.HasLiteral() || !p.Match(subject, m.d.Fold) {
		return 0
	}
	return float64(m.weight)
}

// AcronymMatcher fires when the initials of the space-separated words in the
// column are exactly the letters and digits of the value: "jd" matches
// "John Doe" but neither "John" nor "John Doe Smith".
type AcronymMatcher struct{ base }

func (m *AcronymMatcher) initials(value string) ([]rune, dialect.Pattern) {
	letters := alnum(m.term(value))
	var p dialect.Pattern
	for i, r := range letters {
		if i == 0 {
			p = p.Lit(string(r)).Any()
			continue
		}
		p = p.Lit(" " + string(r)).Any()
	}
	return letters, p
}

func (m *AcronymMatcher) BuildQueryString(column, value string) string {
	letters, p := m.initials(value)
	if len(letters) == 0 {
		return zero
	}
	t := trimmed(column)
	wordGaps := fmt.Sprintf("%s - %s = %d", m.d.Length(t), m.d.Length(withoutSpaces(t)), len(letters)-1)
	return m.d.If(wordGaps+" AND "+m.d.Like(t, p), m.weightSQL(), zero)
}

func (m *AcronymMatcher) Score(subject, value string) float64 {
	letters, p := m.initials(value)
	if len(letters) == 0 {
		return 0
	}
	t := strings.Trim(subject, " ")
	if strings.Count(t, " ") != len(letters)-1 || !p.Match(t, m.d.Fold) {
		return 0
	}
	return float64(m.weight)
}

// ConsecutiveCharactersMatcher fires when every character of the value
// appears in the column in order, ignoring spaces. The score is the share of
// the column's characters covered by the value, so it stays within
// [0, weight]: "jon" scores 1.0 against "Jon" and 0.375 against "Jonathan".
type ConsecutiveCharactersMatcher struct{ base }

func (m *ConsecutiveCharactersMatcher) chars(value string) []rune {
	return []rune(strings.ReplaceAll(m.term(value), " ", ""))
}

func (m *ConsecutiveCharactersMatcher) BuildQueryString(column, value string) string {
	chars := m.chars(value)
	if len(chars) == 0 {
		return zero
	}
	p := dialect.Pattern{}.Any()
	for _, r := range chars {
		p = p.Lit(string(r)).Any()
	}
	stripped := withoutSpaces(column)
	score := m.d.Divide(fmt.Sprintf("%d * %d", m.weight, len(chars)), m.d.Length(stripped))
	return m.d.If(m.d.Like(stripped, p), score, zero)
}

func (m *ConsecutiveCharactersMatcher) Score(subject, value string) float64 {
	chars := m.chars(value)
	if len(chars) == 0 {
		return 0
	}
	stripped := strings.ReplaceAll(subject, " ", "")
	needle := dialect.FoldString(m.d, string(chars))

	// in order and complete: the longest common subsequence is the needle
	if edlib.LCS(needle, dialect.FoldString(m.d, stripped)) != utf8.RuneCountInString(needle) {
		return 0
	}
	return float64(m.weight*len(chars)) / float64(utf8.RuneCountInString(stripped))
}

// StartOfWordsMatcher fires when any word of the column starts with the value.
type StartOfWordsMatcher struct{ base }

func (m *StartOfWordsMatcher) patterns(value string) (dialect.Pattern, dialect.Pattern) {
	term := m.term(value)
	return dialect.Pattern{}.Lit(term).Any(), dialect.Pattern{}.Any().Lit(" " + term).Any()
}

func (m *StartOfWordsMatcher) BuildQueryString(column, value string) string {
	first, later := m.patterns(value)
	if !first.HasLiteral() {
		return zero
	}
	return m.d.If(m.d.Like(column, first)+" OR "+m.d.Like(column, later), m.weightSQL(), zero)
}

func (m *StartOfWordsMatcher) Score(subject, value string) float64 {
	first, later := m.patterns(value)
	if !first.HasLiteral() {
		return 0
	}
	if first.Match(subject, m.d.Fold) || later.Match(subject, m.d.Fold) {
		return float64(m.weight)
	}
	return 0
}

// StudlyCaseMatcher fires when the column is a single StudlyCase token whose
// capitals abbreviate the value: "fb" and "FB" match "FooBar" and
// "FooBarBaz", not "Foobar" or "Foo Bar".
type StudlyCaseMatcher struct{ base }

func (m *StudlyCaseMatcher) capitals(value string) ([]rune, dialect.Pattern) {
	letters := alnum(m.term(value))
	var p dialect.Pattern
	for i, r := range letters {
		letters[i] = unicode.ToUpper(r)
		p = p.Lit(string(letters[i])).Any()
	}
	return letters, p
}

func (m *StudlyCaseMatcher) BuildQueryString(column, value string) string {
	letters, p := m.capitals(value)
	if len(letters) == 0 {
		return zero
	}
	t := trimmed(column)
	singleToken := m.d.Length(t) + " = " + m.d.Length(withoutSpaces(t))
	return m.d.If(singleToken+" AND "+m.d.LikeCaseSensitive(t, p), m.weightSQL(), zero)
}

func (m *StudlyCaseMatcher) Score(subject, value string) float64 {
	letters, p := m.capitals(value)
	if len(letters) == 0 {
		return 0
	}
	t := strings.Trim(subject, " ")
	if strings.Contains(t, " ") || !p.Match(t, nil) {
		return 0
	}
	return float64(m.weight)
}

// InStringMatcher fires when the value occurs anywhere in the column.
type InStringMatcher struct{ base }

func (m *InStringMatcher) pattern(value string) dialect.Pattern {
	return dialect.Pattern{}.Any().Lit(m.term(value)).Any()
}

func (m *InStringMatcher) BuildQueryString(column, value string) string {
	p := m.pattern(value)
	if !p.HasLiteral() {
		return zero
	}
	return m.d.If(m.d.Like(column, p), m.weightSQL(), zero)
}

func (m *InStringMatcher) Score(subject, value string) float64 {
	p := m.pattern(value)
	if !p.HasLiteral() || !p.Match(subject, m.d.Fold) {
		return 0
	}
	return float64(m.weight)
}

// TimesInStringMatcher scores weight x the number of non-overlapping,
// case-insensitive occurrences of the value. It is the only unbounded matcher.
type TimesInStringMatcher struct{ base }

func (m *TimesInStringMatcher) BuildQueryString(column, value string) string {
	n := utf8.RuneCountInString(m.term(value))
	if n == 0 {
		return zero
	}
	lowered := "LOWER(" + column + ")"
	removed := m.d.Length(lowered) + " - " + m.d.Length("REPLACE("+lowered+", LOWER("+literal(value)+"), '')")
	return fmt.Sprintf("%d * ((%s) / %d)", m.weight, removed, n)
}

func (m *TimesInStringMatcher) Score(subject, value string) float64 {
	term := m.term(value)
	if term == "" {
		return 0
	}
	return float64(m.weight * strings.Count(dialect.FoldString(m.d, subject), dialect.FoldString(m.d, term)))
}
