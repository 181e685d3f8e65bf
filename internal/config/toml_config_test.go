package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTOML_FullConfig(t *testing.T) {
	content := `
dialect = "sqlite"
extended = true

[[matchers]]
kind = "exact"
weight = 64

[[matchers]]
kind = "start_of_string"
weight = 32

[[extended_matchers]]
kind = "in_string"
weight = 4

[fields]
allow = ["users.*"]

[search]
limit = 5
min_relevance = 0
`
	cfg, err := parseTOML([]byte(content))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Dialect)
	assert.True(t, cfg.Extended)
	assert.False(t, cfg.isExplicit("strict_weights"))
	assert.True(t, cfg.isExplicit("search.min_relevance"))
	assert.Equal(t, []MatcherWeight{{Kind: "exact", Weight: 64}, {Kind: "start_of_string", Weight: 32}}, cfg.Matchers)
	assert.Equal(t, []MatcherWeight{{Kind: "in_string", Weight: 4}}, cfg.ExtendedMatchers)
	assert.Equal(t, []string{"users.*"}, cfg.Fields.Allow)
	assert.Equal(t, 5, cfg.Search.Limit)
}

func TestParseTOML_UnknownKey(t *testing.T) {
	_, err := parseTOML([]byte("dialekt = \"mysql\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys")
}

func TestParseTOML_Malformed(t *testing.T) {
	_, err := parseTOML([]byte("dialect = \n"))
	assert.Error(t, err)
}
