package testhelpers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/fuzzysql/internal/config"
)

// TestConfigBuilder provides a fluent API for building test configs.
// Usage:
//
//	cfg := testhelpers.NewTestConfigBuilder().
//		WithDialect("sqlite").
//		WithAllowedFields("people.*").
//		Build()
type TestConfigBuilder struct {
	cfg config.Config
}

// NewTestConfigBuilder starts from the stock settings
func NewTestConfigBuilder() *TestConfigBuilder {
	return &TestConfigBuilder{cfg: config.Config{
		Version: 1,
		Dialect: config.DefaultDialect,
		Search:  config.Search{Limit: config.DefaultSearchLimit},
	}}
}

func (b *TestConfigBuilder) WithDialect(name string) *TestConfigBuilder {
	b.cfg.Dialect = name
	return b
}

func (b *TestConfigBuilder) WithExtended(extended bool) *TestConfigBuilder {
	b.cfg.Extended = extended
	return b
}

func (b *TestConfigBuilder) WithStrictWeights(strict bool) *TestConfigBuilder {
	b.cfg.StrictWeights = strict
	return b
}

// WithMatcher appends a row to the core weight table
func (b *TestConfigBuilder) WithMatcher(kind string, weight int) *TestConfigBuilder {
	b.cfg.Matchers = append(b.cfg.Matchers, config.MatcherWeight{Kind: kind, Weight: weight})
	return b
}

// WithExtendedMatcher appends a row to the extended weight table
func (b *TestConfigBuilder) WithExtendedMatcher(kind string, weight int) *TestConfigBuilder {
	b.cfg.ExtendedMatchers = append(b.cfg.ExtendedMatchers, config.MatcherWeight{Kind: kind, Weight: weight})
	return b
}

func (b *TestConfigBuilder) WithAllowedFields(patterns ...string) *TestConfigBuilder {
	b.cfg.Fields.Allow = append(b.cfg.Fields.Allow, patterns...)
	return b
}

func (b *TestConfigBuilder) WithSearchLimit(limit int) *TestConfigBuilder {
	b.cfg.Search.Limit = limit
	return b
}

// Build returns a copy of the config
func (b *TestConfigBuilder) Build() *config.Config {
	cfg := b.cfg
	cfg.Matchers = append([]config.MatcherWeight(nil), b.cfg.Matchers...)
	cfg.ExtendedMatchers = append([]config.MatcherWeight(nil), b.cfg.ExtendedMatchers...)
	cfg.Fields.Allow = append([]string(nil), b.cfg.Fields.Allow...)
	return &cfg
}

// KDL renders the config in the .fuzzysql.kdl format
func (b *TestConfigBuilder) KDL() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "dialect %q\n", b.cfg.Dialect)
	fmt.Fprintf(&sb, "extended %t\n", b.cfg.Extended)
	fmt.Fprintf(&sb, "strict_weights %t\n", b.cfg.StrictWeights)
	writeWeights(&sb, "matchers", b.cfg.Matchers)
	writeWeights(&sb, "extended_matchers", b.cfg.ExtendedMatchers)
	if len(b.cfg.Fields.Allow) > 0 {
		sb.WriteString("fields {\n    allow")
		for _, p := range b.cfg.Fields.Allow {
			fmt.Fprintf(&sb, " %q", p)
		}
		sb.WriteString("\n}\n")
	}
	fmt.Fprintf(&sb, "search {\n    limit %d\n}\n", b.cfg.Search.Limit)
	return sb.String()
}

// WriteKDL writes the config as dir/.fuzzysql.kdl and returns the path
func (b *TestConfigBuilder) WriteKDL(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, config.KDLFileName)
	require.NoError(t, os.WriteFile(path, []byte(b.KDL()), 0644))
	return path
}

func writeWeights(sb *strings.Builder, block string, weights []config.MatcherWeight) {
	if len(weights) == 0 {
		return
	}
	sb.WriteString(block + " {\n")
	for _, w := range weights {
		fmt.Fprintf(sb, "    %s %d\n", w.Kind, w.Weight)
	}
	sb.WriteString("}\n")
}
