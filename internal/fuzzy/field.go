package fuzzy

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"

	fuzzyerrors "github.com/standardbeagle/fuzzysql/internal/errors"
)

// splitField trims backticks and spaces, splits on dots and checks every
// segment can be quoted safely. Segments may hold letters, digits, _ and $.
func splitField(raw string) ([]string, error) {
	trimmed := strings.Trim(raw, "` ")
	if trimmed == "" {
		return nil, fuzzyerrors.NewInvalidFieldError(raw, "", fuzzyerrors.ErrEmptyField)
	}

	segments := strings.Split(trimmed, ".")
	for i, seg := range segments {
		seg = strings.Trim(seg, "` ")
		if seg == "" {
			return nil, fuzzyerrors.NewInvalidFieldError(raw, fmt.Sprintf("segment %d is empty", i+1), fuzzyerrors.ErrEmptyField)
		}
		for _, r := range seg {
			if !identifierRune(r) {
				return nil, fuzzyerrors.NewInvalidFieldError(raw, fmt.Sprintf("segment %q contains %q", seg, r), fuzzyerrors.ErrUnsafeIdentifier)
			}
		}
		segments[i] = seg
	}
	return segments, nil
}

func identifierRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// fieldAllowlist matches normalized fields against glob patterns. Dots act
// as path separators, so "users.*" allows users.name but not users.a.b, and
// "**" crosses segments.
type fieldAllowlist struct {
	patterns []string
}

func newFieldAllowlist(patterns []string) (*fieldAllowlist, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	var errs []error
	converted := make([]string, 0, len(patterns))
	for _, p := range patterns {
		glob := fieldPath(p)
		if glob == "" || !doublestar.ValidatePattern(glob) {
			errs = append(errs, fuzzyerrors.NewConfigurationError("fields.allow", p, fuzzyerrors.ErrBadFieldPattern))
			continue
		}
		converted = append(converted, glob)
	}
	if err := fuzzyerrors.NewMultiError(errs).ErrorOrNil(); err != nil {
		return nil, err
	}
	return &fieldAllowlist{patterns: converted}, nil
}

// allows reports whether the field matches any pattern. A nil list allows
// everything.
func (a *fieldAllowlist) allows(field string) bool {
	if a == nil {
		return true
	}
	path := fieldPath(field)
	for _, p := range a.patterns {
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return true
		}
	}
	return false
}

func fieldPath(field string) string {
	return strings.ToLower(strings.ReplaceAll(strings.Trim(field, "` "), ".", "/"))
}
