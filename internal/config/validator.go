package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/fuzzysql/internal/dialect"
	fuzzyerrors "github.com/standardbeagle/fuzzysql/internal/errors"
)

// Validator validates configuration and sets defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies defaults.
// Every problem found is reported, wrapped in ConfigurationErrors.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	v.setDefaults(cfg)

	var errs []error
	errs = append(errs, v.validateDialect(cfg))
	errs = append(errs, v.validateMatchers(cfg))
	errs = append(errs, v.validateFields(&cfg.Fields)...)
	errs = append(errs, v.validateSearch(&cfg.Search)...)

	return fuzzyerrors.NewMultiError(errs).ErrorOrNil()
}

func (v *Validator) setDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Dialect == "" {
		cfg.Dialect = DefaultDialect
	}
	cfg.Dialect = strings.ToLower(strings.TrimSpace(cfg.Dialect))
	if cfg.Search.Limit == 0 {
		cfg.Search.Limit = DefaultSearchLimit
	}
}

func (v *Validator) validateDialect(cfg *Config) error {
	_, err := dialect.Lookup(cfg.Dialect)
	return err
}

// validateMatchers builds the registry the config describes so weight
// problems surface at load time rather than on the first query.
func (v *Validator) validateMatchers(cfg *Config) error {
	r, err := cfg.Registry()
	if err != nil {
		return err
	}
	if cfg.StrictWeights {
		return r.ValidateStrict()
	}
	return r.Validate()
}

func (v *Validator) validateFields(fields *Fields) []error {
	var errs []error
	for _, p := range fields.Allow {
		glob := strings.ReplaceAll(strings.TrimSpace(p), ".", "/")
		if glob == "" || !doublestar.ValidatePattern(glob) {
			errs = append(errs, fuzzyerrors.NewConfigurationError("fields.allow", p, fuzzyerrors.ErrBadFieldPattern))
		}
	}
	return errs
}

func (v *Validator) validateSearch(search *Search) []error {
	var errs []error
	if search.Limit < 0 {
		errs = append(errs, fuzzyerrors.NewConfigurationError("search.limit", strconv.Itoa(search.Limit),
			fmt.Errorf("limit cannot be negative")))
	}
	if search.MinRelevance < 0 {
		errs = append(errs, fuzzyerrors.NewConfigurationError("search.min_relevance", strconv.FormatFloat(search.MinRelevance, 'g', -1, 64),
			fmt.Errorf("min_relevance cannot be negative")))
	}
	return errs
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
