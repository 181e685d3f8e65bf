package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatternBuilding(t *testing.T) {
	p := Pattern{}.Any().Any().Lit("").Lit("a").Any()
	assert.Equal(t, Pattern{{Wildcard: true}, {Text: "a"}, {Wildcard: true}}, p)
	assert.True(t, p.HasLiteral())
	assert.False(t, Pattern{}.Any().HasLiteral())

	// builders never mutate the receiver
	base := Pattern{}.Lit("x")
	_ = base.Lit("y")
	assert.Len(t, base, 1)
}

func TestPatternMatch(t *testing.T) {
	tests := []struct {
		name     string
		pattern  Pattern
		subject  string
		fold     func(rune) rune
		expected bool
	}{
		{"prefix", Pattern{}.Lit("Jon").Any(), "Jonathan", MySQL{}.Fold, true},
		{"prefix case folded", Pattern{}.Lit("jon").Any(), "Jonathan", MySQL{}.Fold, true},
		{"prefix case sensitive", Pattern{}.Lit("jon").Any(), "Jonathan", nil, false},
		{"prefix miss", Pattern{}.Lit("Jon").Any(), "Ajon", MySQL{}.Fold, false},
		{"whole string", Pattern{}.Lit("Jon"), "Jon", MySQL{}.Fold, true},
		{"whole string longer subject", Pattern{}.Lit("Jon"), "Jons", MySQL{}.Fold, false},
		{"contains", Pattern{}.Any().Lit("nat").Any(), "Jonathan", MySQL{}.Fold, true},
		{"subsequence", Pattern{}.Any().Lit("J").Any().Lit("t").Any().Lit("n").Any(), "Jonathan", MySQL{}.Fold, true},
		{"subsequence out of order", Pattern{}.Any().Lit("n").Any().Lit("J").Any(), "Jonathan", MySQL{}.Fold, false},
		{"initials", Pattern{}.Lit("J").Any().Lit(" D").Any(), "John Doe", MySQL{}.Fold, true},
		{"backtracking", Pattern{}.Any().Lit("ab").Any().Lit("ab"), "xabyabab", MySQL{}.Fold, true},
		{"empty subject", Pattern{}.Any(), "", MySQL{}.Fold, true},
		{"empty subject literal", Pattern{}.Lit("a"), "", MySQL{}.Fold, false},
		{"literal percent", Pattern{}.Lit("100%"), "100%", MySQL{}.Fold, true},
		{"literal percent is not wildcard", Pattern{}.Lit("1%"), "100", MySQL{}.Fold, false},
		{"unicode fold", Pattern{}.Lit("ÉCOLE"), "école", MySQL{}.Fold, true},
		{"ascii fold", Pattern{}.Lit("JON").Any(), "jonathan", SQLite{}.Fold, true},
		{"ascii fold leaves unicode", Pattern{}.Lit("ÉCOLE"), "école", SQLite{}.Fold, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.pattern.Match(tt.subject, tt.fold))
		})
	}
}
