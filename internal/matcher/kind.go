package matcher

import (
	"strings"

	fuzzyerrors "github.com/standardbeagle/fuzzysql/internal/errors"
)

// Kind identifies one of the closed set of matcher strategies.
type Kind uint8

const (
	KindUnknown Kind = iota
	Exact
	StartOfString
	Acronym
	ConsecutiveCharacters
	StartOfWords
	StudlyCase
	InString
	TimesInString
)

var kindNames = map[Kind]string{
	Exact:                 "exact",
	StartOfString:         "start_of_string",
	Acronym:               "acronym",
	ConsecutiveCharacters: "consecutive_characters",
	StartOfWords:          "start_of_words",
	StudlyCase:            "studly_case",
	InString:              "in_string",
	TimesInString:         "times_in_string",
}

// Kinds returns every known kind in default weight order.
func Kinds() []Kind {
	return []Kind{Exact, StartOfString, Acronym, ConsecutiveCharacters, StartOfWords, StudlyCase, InString, TimesInString}
}

// String returns the config name of the kind (snake_case).
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind resolves a kind from its config name. Separators, case and a
// trailing "Matcher" are ignored, so "start_of_string", "StartOfString" and
// "StartOfStringMatcher" are equivalent.
func ParseKind(name string) (Kind, error) {
	key := normalizeKindName(name)
	for k, n := range kindNames {
		if normalizeKindName(n) == key {
			return k, nil
		}
	}
	return KindUnknown, fuzzyerrors.NewConfigurationError("matcher", name, fuzzyerrors.ErrUnknownMatcher)
}

func normalizeKindName(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	return strings.TrimSuffix(key, "matcher")
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
