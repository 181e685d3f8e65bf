package matcher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/fuzzysql/internal/dialect"
	fuzzyerrors "github.com/standardbeagle/fuzzysql/internal/errors"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	require.NoError(t, r.Validate())

	assert.Len(t, r.Specs(false), 4)
	assert.Len(t, r.Specs(true), 8)
	assert.Equal(t, []Kind{Exact, StartOfString, Acronym, ConsecutiveCharacters, StartOfWords, StudlyCase, InString, TimesInString},
		kindsOf(r.Specs(true)))
}

func TestSpecsReturnsCopy(t *testing.T) {
	r := DefaultRegistry()
	specs := r.Specs(false)
	specs[0].Weight = 1
	assert.Equal(t, 100, r.Core[0].Weight)
}

func TestExactBeatsAnySingleLowerTier(t *testing.T) {
	specs := DefaultRegistry().Specs(true)
	for _, s := range specs[1:] {
		assert.Greater(t, specs[0].Weight, s.Weight, s.Kind.String())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		registry Registry
		sentinel error
	}{
		{
			name:     "unknown kind",
			registry: Registry{Core: []Spec{{Kind: Kind(42), Weight: 10}}},
			sentinel: fuzzyerrors.ErrUnknownMatcher,
		},
		{
			name:     "zero weight",
			registry: Registry{Core: []Spec{{Kind: Exact, Weight: 0}}},
			sentinel: fuzzyerrors.ErrInvalidWeight,
		},
		{
			name:     "duplicate",
			registry: Registry{Core: []Spec{{Kind: Exact, Weight: 10}}, Extended: []Spec{{Kind: Exact, Weight: 5}}},
			sentinel: fuzzyerrors.ErrDuplicateMatcher,
		},
		{
			name:     "equal weights",
			registry: Registry{Core: []Spec{{Kind: Exact, Weight: 10}, {Kind: InString, Weight: 10}}},
			sentinel: fuzzyerrors.ErrWeightOrder,
		},
		{
			name:     "extended outweighs core",
			registry: Registry{Core: []Spec{{Kind: Exact, Weight: 10}}, Extended: []Spec{{Kind: InString, Weight: 20}}},
			sentinel: fuzzyerrors.ErrWeightOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.registry.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), err.Error())

			var cfgErr *fuzzyerrors.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr))
		})
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	r := Registry{Core: []Spec{
		{Kind: Exact, Weight: -1},
		{Kind: Kind(77), Weight: 5},
	}}
	err := r.Validate()
	require.Error(t, err)

	var multi *fuzzyerrors.MultiError
	require.True(t, errors.As(err, &multi))
	assert.Len(t, multi.Errors, 2)
	assert.True(t, errors.Is(err, fuzzyerrors.ErrInvalidWeight))
	assert.True(t, errors.Is(err, fuzzyerrors.ErrUnknownMatcher))
}

func TestDominance(t *testing.T) {
	r := DefaultRegistry()

	core := r.Dominance(false)
	assert.Equal(t, []Violation{
		{Kind: Exact, Weight: 100, LowerSum: 132},
		{Kind: StartOfString, Weight: 50, LowerSum: 82},
	}, core)

	extended := r.Dominance(true)
	assert.Equal(t, []Kind{Exact, StartOfString, Acronym, ConsecutiveCharacters, StartOfWords, StudlyCase},
		kindsOfViolations(extended))

	powers := Registry{Core: []Spec{{Kind: Exact, Weight: 8}, {Kind: StartOfString, Weight: 4}, {Kind: Acronym, Weight: 2}, {Kind: InString, Weight: 1}}}
	assert.Empty(t, powers.Dominance(true))
	assert.NoError(t, powers.ValidateStrict())
}

func TestValidateStrict(t *testing.T) {
	err := DefaultRegistry().ValidateStrict()
	require.Error(t, err)
	assert.True(t, errors.Is(err, fuzzyerrors.ErrWeightDominance))
	assert.False(t, errors.Is(err, fuzzyerrors.ErrWeightOrder))
}

func TestRegistryBuild(t *testing.T) {
	r := DefaultRegistry()

	matchers, err := r.Build(dialect.SQLite{}, true)
	require.NoError(t, err)
	require.Len(t, matchers, 8)
	for i, s := range r.Specs(true) {
		assert.Equal(t, s.Kind, matchers[i].Kind())
		assert.Equal(t, s.Weight, matchers[i].Weight())
	}

	_, err = Registry{Core: []Spec{{Kind: KindUnknown, Weight: 1}}}.Build(nil, false)
	assert.True(t, errors.Is(err, fuzzyerrors.ErrUnknownMatcher))
}

func TestJonScenario(t *testing.T) {
	matchers, err := DefaultRegistry().Build(nil, false)
	require.NoError(t, err)

	total := func(subject string) float64 {
		var sum float64
		for _, m := range matchers {
			sum += m.Score(subject, "Jon")
		}
		return sum
	}

	assert.InDelta(t, 190, total("Jon"), 1e-9)
	assert.InDelta(t, 65, total("Jonathan"), 1e-9)
	assert.Zero(t, total("Mary"))
}

func kindsOf(specs []Spec) []Kind {
	out := make([]Kind, len(specs))
	for i, s := range specs {
		out[i] = s.Kind
	}
	return out
}

func kindsOfViolations(vs []Violation) []Kind {
	out := make([]Kind, len(vs))
	for i, v := range vs {
		out[i] = v.Kind
	}
	return out
}
