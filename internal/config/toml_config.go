package config

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// tomlFile mirrors the KDL layout:
//
//	dialect = "sqlite"
//	extended = true
//
//	[[matchers]]
//	kind = "exact"
//	weight = 100
//
//	[fields]
//	allow = ["users.*"]
//
//	[search]
//	limit = 20
//
// Pointers distinguish "unset" from zero values for merging.
type tomlFile struct {
	Version          *int            `toml:"version"`
	Dialect          *string         `toml:"dialect"`
	Extended         *bool           `toml:"extended"`
	StrictWeights    *bool           `toml:"strict_weights"`
	Matchers         []MatcherWeight `toml:"matchers"`
	ExtendedMatchers []MatcherWeight `toml:"extended_matchers"`
	Fields           struct {
		Allow []string `toml:"allow"`
	} `toml:"fields"`
	Search struct {
		Limit        *int     `toml:"limit"`
		MinRelevance *float64 `toml:"min_relevance"`
	} `toml:"search"`
}

func parseTOML(content []byte) (*Config, error) {
	var raw tomlFile
	dec := toml.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("unknown keys in TOML config:\n%s", strict.String())
		}
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	cfg := &Config{Version: 1}
	if raw.Version != nil {
		cfg.Version = *raw.Version
	}
	if raw.Dialect != nil {
		cfg.Dialect = *raw.Dialect
		cfg.markExplicit("dialect")
	}
	if raw.Extended != nil {
		cfg.Extended = *raw.Extended
		cfg.markExplicit("extended")
	}
	if raw.StrictWeights != nil {
		cfg.StrictWeights = *raw.StrictWeights
		cfg.markExplicit("strict_weights")
	}
	cfg.Matchers = raw.Matchers
	cfg.ExtendedMatchers = raw.ExtendedMatchers
	cfg.Fields.Allow = raw.Fields.Allow
	if raw.Search.Limit != nil {
		cfg.Search.Limit = *raw.Search.Limit
	}
	if raw.Search.MinRelevance != nil {
		cfg.Search.MinRelevance = *raw.Search.MinRelevance
		cfg.markExplicit("search.min_relevance")
	}
	return cfg, nil
}
