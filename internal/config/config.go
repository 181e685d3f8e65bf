package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/fuzzysql/internal/debug"
	fuzzyerrors "github.com/standardbeagle/fuzzysql/internal/errors"
	"github.com/standardbeagle/fuzzysql/internal/matcher"
)

// File names looked up in the project directory and the home directory.
const (
	KDLFileName  = ".fuzzysql.kdl"
	TOMLFileName = ".fuzzysql.toml"
)

const (
	DefaultDialect     = "mysql"
	DefaultSearchLimit = 50
)

type Config struct {
	Version          int
	Project          Project
	Dialect          string
	Extended         bool
	StrictWeights    bool
	Matchers         []MatcherWeight // core table; empty means the stock weights
	ExtendedMatchers []MatcherWeight // extended table; empty means the stock weights
	Fields           Fields
	Search           Search

	// keys present in the file, so a project file can switch a base
	// setting back off
	explicit map[string]bool
}

type Project struct {
	Root string
	// File is the config file the values came from, empty for defaults.
	File string
}

// MatcherWeight is one row of a weight table as written in a config file.
type MatcherWeight struct {
	Kind   string `toml:"kind"`
	Weight int    `toml:"weight"`
}

type Fields struct {
	Allow []string // glob patterns over dotted field names
}

// Search holds defaults for the CLI search command and the MCP query tool.
type Search struct {
	Limit        int
	MinRelevance float64
}

func (c *Config) markExplicit(key string) {
	if c.explicit == nil {
		c.explicit = make(map[string]bool)
	}
	c.explicit[key] = true
}

func (c *Config) isExplicit(key string) bool {
	return c.explicit[key]
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &Config{
		Version: 1,
		Project: Project{Root: cwd},
		Dialect: DefaultDialect,
		Search:  Search{Limit: DefaultSearchLimit},
	}
}

// Registry converts the weight tables into a matcher registry. Empty tables
// fall back to the stock weights. When only the core table is set, the stock
// extended table keeps just the entries that fit under it: kinds not already
// in the core table, weighted below its lowest weight.
func (c *Config) Registry() (matcher.Registry, error) {
	r := matcher.DefaultRegistry()
	var errs []error

	if len(c.Matchers) > 0 {
		specs, err := toSpecs("matchers", c.Matchers)
		errs = append(errs, err)
		r.Core = specs
	}
	if len(c.ExtendedMatchers) > 0 {
		specs, err := toSpecs("extended_matchers", c.ExtendedMatchers)
		errs = append(errs, err)
		r.Extended = specs
	} else if len(c.Matchers) > 0 {
		r.Extended = inheritExtended(r.Core, r.Extended)
	}

	if err := fuzzyerrors.NewMultiError(errs).ErrorOrNil(); err != nil {
		return matcher.Registry{}, err
	}
	return r, nil
}

func inheritExtended(core, stock []matcher.Spec) []matcher.Spec {
	if len(core) == 0 {
		return stock
	}
	inCore := make(map[matcher.Kind]bool, len(core))
	lowest := core[0].Weight
	for _, s := range core {
		inCore[s.Kind] = true
		if s.Weight < lowest {
			lowest = s.Weight
		}
	}

	kept := make([]matcher.Spec, 0, len(stock))
	for _, s := range stock {
		if inCore[s.Kind] || s.Weight >= lowest {
			debug.LogConfig("dropping stock extended matcher %s under custom core table\n", s)
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

func toSpecs(section string, weights []MatcherWeight) ([]matcher.Spec, error) {
	specs := make([]matcher.Spec, 0, len(weights))
	var errs []error
	for _, w := range weights {
		kind, err := matcher.ParseKind(w.Kind)
		if err != nil {
			errs = append(errs, fuzzyerrors.NewConfigurationError(section, w.Kind, fuzzyerrors.ErrUnknownMatcher))
			continue
		}
		specs = append(specs, matcher.Spec{Kind: kind, Weight: w.Weight})
	}
	return specs, fuzzyerrors.NewMultiError(errs).ErrorOrNil()
}

// Load reads an explicit config file (.kdl or .toml) when path is set, and
// otherwise looks for project and global config files from the current
// directory.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadWithRoot("")
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := NewValidator().ValidateAndSetDefaults(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile parses one config file, choosing the format by extension.
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg *Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		cfg, err = parseTOML(content)
	} else {
		cfg, err = parseKDL(string(content))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	abs, absErr := filepath.Abs(path)
	if absErr != nil {
		abs = path
	}
	cfg.Project = Project{Root: filepath.Dir(abs), File: abs}
	debug.LogConfig("loaded %s\n", abs)
	return cfg, nil
}

// LoadWithRoot merges the project config in rootDir (default ".") over the
// global config in the home directory, then validates the result.
func LoadWithRoot(rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}

	// Step 1: global base config (optional, a broken one is reported)
	var baseConfig *Config
	if homeDir, err := os.UserHomeDir(); err == nil {
		cfg, err := loadFromDir(homeDir)
		if err != nil {
			return nil, err
		}
		baseConfig = cfg
	}

	// Step 2: project config
	projectConfig, err := loadFromDir(searchDir)
	if err != nil {
		return nil, err
	}

	// Step 3: project overrides base
	var cfg *Config
	switch {
	case baseConfig != nil && projectConfig != nil:
		cfg = mergeConfigs(baseConfig, projectConfig)
	case projectConfig != nil:
		cfg = projectConfig
	case baseConfig != nil:
		cfg = baseConfig
	default:
		cfg = Default()
	}

	if err := NewValidator().ValidateAndSetDefaults(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromDir returns nil without error when dir holds no config file. The
// KDL file wins when both exist.
func loadFromDir(dir string) (*Config, error) {
	for _, name := range []string{KDLFileName, TOMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadFile(path)
	}
	return nil, nil
}

// mergeConfigs merges a base config with a project config. Scalars set in
// the project win, weight tables are replaced as a whole, and allowed field
// patterns are combined.
func mergeConfigs(base, project *Config) *Config {
	merged := *project
	merged.explicit = make(map[string]bool)
	for k := range base.explicit {
		merged.explicit[k] = true
	}
	for k := range project.explicit {
		merged.explicit[k] = true
	}

	if merged.Dialect == "" {
		merged.Dialect = base.Dialect
	}
	if !project.isExplicit("extended") {
		merged.Extended = base.Extended
	}
	if !project.isExplicit("strict_weights") {
		merged.StrictWeights = base.StrictWeights
	}
	if len(project.Matchers) == 0 {
		merged.Matchers = base.Matchers
	}
	if len(project.ExtendedMatchers) == 0 {
		merged.ExtendedMatchers = base.ExtendedMatchers
	}
	if merged.Search.Limit == 0 {
		merged.Search.Limit = base.Search.Limit
	}
	if !project.isExplicit("search.min_relevance") {
		merged.Search.MinRelevance = base.Search.MinRelevance
	}

	if len(base.Fields.Allow) > 0 {
		seen := make(map[string]bool)
		allow := make([]string, 0, len(base.Fields.Allow)+len(project.Fields.Allow))
		for _, list := range [][]string{base.Fields.Allow, project.Fields.Allow} {
			for _, pattern := range list {
				if !seen[pattern] {
					seen[pattern] = true
					allow = append(allow, pattern)
				}
			}
		}
		merged.Fields.Allow = allow
	}

	return &merged
}
