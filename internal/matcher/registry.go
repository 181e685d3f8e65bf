package matcher

import (
	"fmt"
	"strconv"

	"github.com/standardbeagle/fuzzysql/internal/dialect"
	fuzzyerrors "github.com/standardbeagle/fuzzysql/internal/errors"
)

// Spec pairs a matcher kind with its weight.
type Spec struct {
	Kind   Kind
	Weight int
}

func (s Spec) String() string {
	return fmt.Sprintf("%s(%d)", s.Kind, s.Weight)
}

// Registry is the ordered matcher table. Core matchers always apply,
// Extended ones only when an extended build is requested. Order is the order
// of the emitted terms.
type Registry struct {
	Core     []Spec
	Extended []Spec
}

// DefaultRegistry returns the stock weight table.
func DefaultRegistry() Registry {
	return Registry{
		Core: []Spec{
			{Kind: Exact, Weight: 100},
			{Kind: StartOfString, Weight: 50},
			{Kind: Acronym, Weight: 42},
			{Kind: ConsecutiveCharacters, Weight: 40},
		},
		Extended: []Spec{
			{Kind: StartOfWords, Weight: 35},
			{Kind: StudlyCase, Weight: 32},
			{Kind: InString, Weight: 30},
			{Kind: TimesInString, Weight: 8},
		},
	}
}

// Specs returns the active sequence: Core, followed by Extended when
// extended is set. The result is a fresh slice.
func (r Registry) Specs(extended bool) []Spec {
	n := len(r.Core)
	if extended {
		n += len(r.Extended)
	}
	out := make([]Spec, 0, n)
	out = append(out, r.Core...)
	if extended {
		out = append(out, r.Extended...)
	}
	return out
}

// Validate checks every kind is known and listed once, every weight is
// positive, and weights strictly decrease across Core then Extended.
// All problems are reported together.
func (r Registry) Validate() error {
	var errs []error
	seen := make(map[Kind]bool)
	all := r.Specs(true)

	for i, s := range all {
		if _, ok := kindNames[s.Kind]; !ok {
			errs = append(errs, fuzzyerrors.NewConfigurationError("matcher", strconv.Itoa(int(s.Kind)), fuzzyerrors.ErrUnknownMatcher))
			continue
		}
		if seen[s.Kind] {
			errs = append(errs, fuzzyerrors.NewConfigurationError("matcher", s.Kind.String(), fuzzyerrors.ErrDuplicateMatcher))
		}
		seen[s.Kind] = true

		if s.Weight <= 0 {
			errs = append(errs, fuzzyerrors.NewConfigurationError("matchers."+s.Kind.String(), strconv.Itoa(s.Weight), fuzzyerrors.ErrInvalidWeight))
			continue
		}
		if i > 0 && all[i-1].Weight > 0 && s.Weight >= all[i-1].Weight {
			errs = append(errs, fuzzyerrors.NewConfigurationError("matchers."+s.Kind.String(), strconv.Itoa(s.Weight),
				fmt.Errorf("%w: %s follows %s", fuzzyerrors.ErrWeightOrder, s, all[i-1])))
		}
	}

	return fuzzyerrors.NewMultiError(errs).ErrorOrNil()
}

// Violation is a matcher whose weight does not exceed the sum of the weights
// ranked below it, so a row hitting several lower tiers can outrank a row
// hitting only this one.
type Violation struct {
	Kind     Kind
	Weight   int
	LowerSum int
}

func (v Violation) String() string {
	return fmt.Sprintf("%s weight %d <= %d (sum of lower tiers)", v.Kind, v.Weight, v.LowerSum)
}

// Dominance reports every violation of weight(k) > sum(weight(k+1..n)) over
// the active sequence. Bounded matchers are assumed to score at most their
// weight once; TimesInString is unbounded and only counted once here.
func (r Registry) Dominance(extended bool) []Violation {
	specs := r.Specs(extended)
	var violations []Violation
	lower := 0
	for i := len(specs) - 1; i >= 0; i-- {
		if i < len(specs)-1 && specs[i].Weight <= lower {
			violations = append(violations, Violation{Kind: specs[i].Kind, Weight: specs[i].Weight, LowerSum: lower})
		}
		lower += specs[i].Weight
	}
	// report in registry order
	for i, j := 0, len(violations)-1; i < j; i, j = i+1, j-1 {
		violations[i], violations[j] = violations[j], violations[i]
	}
	return violations
}

// ValidateStrict is Validate plus the dominance rule over the full table.
func (r Registry) ValidateStrict() error {
	var errs []error
	if err := r.Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, v := range r.Dominance(true) {
		errs = append(errs, fuzzyerrors.NewConfigurationError("matchers."+v.Kind.String(), strconv.Itoa(v.Weight),
			fmt.Errorf("%w: %s", fuzzyerrors.ErrWeightDominance, v)))
	}
	return fuzzyerrors.NewMultiError(errs).ErrorOrNil()
}

// Build instantiates the active matchers for d in registry order.
func (r Registry) Build(d dialect.Dialect, extended bool) ([]Matcher, error) {
	specs := r.Specs(extended)
	matchers := make([]Matcher, 0, len(specs))
	for _, s := range specs {
		m, err := New(s, d)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}
	return matchers, nil
}
