// Package fuzzy builds fuzzy-match relevance expressions.
//
// A relevance expression is one SQL expression summing the weighted terms of
// every active matcher for a column and a search value:
//
//	IF(COALESCE(`name`, '') = 'Jon', 100, 0) + IF(... LIKE 'Jon%', 50, 0) + ...
//	    AS fuzzy_relevance_name
//
// A row matches when its relevance is above zero. The Builder validates its
// configuration once in New; after that it holds no mutable state and may be
// shared between goroutines.
package fuzzy

import (
	"errors"
	"strings"

	"github.com/standardbeagle/fuzzysql/internal/config"
	"github.com/standardbeagle/fuzzysql/internal/debug"
	"github.com/standardbeagle/fuzzysql/internal/dialect"
	fuzzyerrors "github.com/standardbeagle/fuzzysql/internal/errors"
	"github.com/standardbeagle/fuzzysql/internal/matcher"
)

// ErrNilQuery is returned when a nil query object is passed to an attach call.
var ErrNilQuery = errors.New("fuzzy: query is nil")

// valueStripper removes the characters that are never searched for.
var valueStripper = strings.NewReplacer(`"`, "", "'", "", "`", "")

// Builder turns (field, value) pairs into relevance expressions.
type Builder struct {
	dialect   dialect.Dialect
	quoter    Quoter
	registry  matcher.Registry
	allowed   []string
	allowlist *fieldAllowlist
	strict    bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithDialect sets the SQL dialect. The default is MySQL.
func WithDialect(d dialect.Dialect) Option {
	return func(b *Builder) {
		b.dialect = d
	}
}

// WithQuoter sets the escaping primitive, typically the database driver's.
// The default is the dialect's QuoteLiteral.
func WithQuoter(q Quoter) Option {
	return func(b *Builder) {
		b.quoter = q
	}
}

// WithRegistry replaces the matcher weight table.
func WithRegistry(r matcher.Registry) Option {
	return func(b *Builder) {
		b.registry = matcher.Registry{
			Core:     append([]matcher.Spec(nil), r.Core...),
			Extended: append([]matcher.Spec(nil), r.Extended...),
		}
	}
}

// WithAllowedFields restricts fields to those matching one of the glob
// patterns ("users.*", "**.name").
func WithAllowedFields(patterns ...string) Option {
	return func(b *Builder) {
		b.allowed = append(b.allowed, patterns...)
	}
}

// WithStrictWeights additionally requires every weight to exceed the sum of
// the weights ranked below it.
func WithStrictWeights(strict bool) Option {
	return func(b *Builder) {
		b.strict = strict
	}
}

// New creates a Builder. Registry and allowlist problems are reported here as
// configuration errors, never per query.
func New(opts ...Option) (*Builder, error) {
	b := &Builder{registry: matcher.DefaultRegistry()}
	for _, opt := range opts {
		opt(b)
	}
	if b.dialect == nil {
		b.dialect = dialect.Default()
	}
	if b.quoter == nil {
		b.quoter = b.dialect.QuoteLiteral
	}

	validate := b.registry.Validate
	if b.strict {
		validate = b.registry.ValidateStrict
	}
	if err := validate(); err != nil {
		return nil, err
	}

	allowlist, err := newFieldAllowlist(b.allowed)
	if err != nil {
		return nil, err
	}
	b.allowlist = allowlist

	debug.LogBuild("builder ready: dialect=%s core=%v extended=%v allow=%v strict=%v\n",
		b.dialect.Name(), b.registry.Core, b.registry.Extended, b.allowed, b.strict)
	return b, nil
}

// FromConfig creates a Builder from loaded configuration.
func FromConfig(cfg *config.Config) (*Builder, error) {
	if cfg == nil {
		return New()
	}
	d, err := dialect.Lookup(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	return New(
		WithDialect(d),
		WithRegistry(registry),
		WithAllowedFields(cfg.Fields.Allow...),
		WithStrictWeights(cfg.StrictWeights),
	)
}

// Dialect returns the dialect expressions are rendered for.
func (b *Builder) Dialect() dialect.Dialect {
	return b.dialect
}

// Registry returns a copy of the matcher weight table.
func (b *Builder) Registry() matcher.Registry {
	return matcher.Registry{
		Core:     append([]matcher.Spec(nil), b.registry.Core...),
		Extended: append([]matcher.Spec(nil), b.registry.Extended...),
	}
}

// Build creates the relevance expression for field and value. extended adds
// the extended matchers after the core ones.
func (b *Builder) Build(field, value string, extended bool) (*Expression, error) {
	segments, err := splitField(field)
	if err != nil {
		return nil, err
	}
	normalized := strings.Join(segments, ".")
	if !b.allowlist.allows(normalized) {
		return nil, fuzzyerrors.NewInvalidFieldError(field, "", fuzzyerrors.ErrFieldNotAllowed)
	}

	escaped, err := b.escape(value)
	if err != nil {
		return nil, err
	}

	matchers, err := b.registry.Build(b.dialect, extended)
	if err != nil {
		return nil, err
	}

	column := "COALESCE(" + dialect.QuoteQualified(b.dialect, segments) + ", '')"
	terms := make([]Term, len(matchers))
	for i, m := range matchers {
		terms[i] = Term{Kind: m.Kind(), Weight: m.Weight(), SQL: m.BuildQueryString(column, escaped)}
	}

	expr := &Expression{
		Field:  normalized,
		Alias:  AliasFor(normalized),
		Column: column,
		Value:  escaped,
		Terms:  terms,
		SQL:    joinTerms(terms),
	}
	debug.LogBuild("built %s over %s with %d terms\n", expr.Alias, column, len(terms))
	return expr, nil
}

// BuildValue is Build for values of unknown type. Only strings are accepted;
// nothing is coerced.
func (b *Builder) BuildValue(field string, value any, extended bool) (*Expression, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fuzzyerrors.NewInvalidValueError(field, value, fuzzyerrors.ErrNonStringValue)
	}
	return b.Build(field, s, extended)
}

// AttachAnd adds the relevance expression to q's select list and requires
// it to be positive with an AND-combined HAVING. A query without columns
// first gets "*" so the base row stays selected.
func (b *Builder) AttachAnd(q Query, field, value string, extended bool) (Query, error) {
	if q == nil {
		return nil, ErrNilQuery
	}
	return b.attach(q, field, value, extended, q.Having)
}

// AttachOr is AttachAnd with an OR-combined HAVING.
func (b *Builder) AttachOr(q Query, field, value string, extended bool) (Query, error) {
	if q == nil {
		return nil, ErrNilQuery
	}
	return b.attach(q, field, value, extended, q.OrHaving)
}

func (b *Builder) attach(q Query, field, value string, extended bool, having func(column, operator string, value any)) (Query, error) {
	expr, err := b.Build(field, value, extended)
	if err != nil {
		return q, err
	}
	if len(q.Columns()) == 0 {
		q.SetColumns([]string{"*"})
	}
	q.AddSelect(expr.Select())
	having(expr.Alias, ">", 0)
	return q, nil
}

// escape strips quote characters, runs the quoter and drops the surrounding
// quotes it added.
func (b *Builder) escape(value string) (string, error) {
	quoted, err := b.quoter(valueStripper.Replace(value))
	if err != nil {
		return "", err
	}
	if len(quoted) >= 2 {
		quoted = quoted[1 : len(quoted)-1]
	}
	return quoted, nil
}
