package matcher

import (
	"strconv"
	"unicode"

	"github.com/standardbeagle/fuzzysql/internal/dialect"
	fuzzyerrors "github.com/standardbeagle/fuzzysql/internal/errors"
)

// Matcher scores how well a search value fuzzily matches a column.
//
// column is a normalized column expression (already wrapped in COALESCE) and
// value is the escaped literal body of the search term, without surrounding
// quotes. BuildQueryString returns a SQL fragment evaluating to
// weight x score; Score computes the same number in process for one row value.
type Matcher interface {
	Kind() Kind
	Weight() int
	BuildQueryString(column, value string) string
	Score(subject, value string) float64
}

// New constructs the matcher for spec, rendering SQL with d.
func New(spec Spec, d dialect.Dialect) (Matcher, error) {
	if d == nil {
		d = dialect.Default()
	}
	b := base{kind: spec.Kind, weight: spec.Weight, d: d}

	switch spec.Kind {
	case Exact:
		return &ExactMatcher{b}, nil
	case StartOfString:
		return &StartOfStringMatcher{b}, nil
	case Acronym:
		return &AcronymMatcher{b}, nil
	case ConsecutiveCharacters:
		return &ConsecutiveCharactersMatcher{b}, nil
	case StartOfWords:
		return &StartOfWordsMatcher{b}, nil
	case StudlyCase:
		return &StudlyCaseMatcher{b}, nil
	case InString:
		return &InStringMatcher{b}, nil
	case TimesInString:
		return &TimesInStringMatcher{b}, nil
	default:
		return nil, fuzzyerrors.NewConfigurationError("matcher", strconv.Itoa(int(spec.Kind)), fuzzyerrors.ErrUnknownMatcher)
	}
}

// zero is the fragment emitted when a matcher has nothing to look for.
const zero = "0"

type base struct {
	kind   Kind
	weight int
	d      dialect.Dialect
}

func (b base) Kind() Kind  { return b.kind }
func (b base) Weight() int { return b.weight }

func (b base) weightSQL() string {
	return strconv.Itoa(b.weight)
}

// term decodes the escaped literal back into the characters it denotes.
func (b base) term(value string) string {
	return b.d.DecodeLiteral(value)
}

func literal(value string) string {
	return "'" + value + "'"
}

func trimmed(column string) string {
	return "TRIM(" + column + ")"
}

func withoutSpaces(expr string) string {
	return "REPLACE(" + expr + ", ' ', '')"
}

// alnum keeps letters and digits only.
func alnum(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	return out
}
