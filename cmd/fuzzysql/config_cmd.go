package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/fuzzysql/internal/config"
	"github.com/standardbeagle/fuzzysql/internal/matcher"
)

func configInitCommand(c *cli.Context) error {
	output := c.String("output")
	if !c.Bool("force") {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", output)
		}
	}

	content, err := configToKDL(config.Default())
	if err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}
	if err := os.WriteFile(output, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Configuration file created: %s\n", output)
	return nil
}

func configShowCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, cfg)
	}
	content, err := configToKDL(cfg)
	if err != nil {
		return fmt.Errorf("failed to convert to KDL: %w", err)
	}
	fmt.Fprint(c.App.Writer, content)
	return nil
}

func configValidateCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		fmt.Fprintf(c.App.Writer, "Configuration validation failed: %v\n", err)
		return err
	}

	source := cfg.Project.File
	if source == "" {
		source = "defaults"
	}
	fmt.Fprintf(c.App.Writer, "Configuration is valid (%s)\n", source)

	registry, err := cfg.Registry()
	if err != nil {
		return err
	}
	if violations := registry.Dominance(true); len(violations) > 0 && !cfg.StrictWeights {
		fmt.Fprintf(c.App.Writer, "Warning: %d matcher tier(s) do not outweigh the tiers below them; run 'fuzzysql weights -x' for details\n", len(violations))
	}
	return nil
}

// configToKDL renders cfg in the .fuzzysql.kdl format with the weight
// tables written out in full.
func configToKDL(cfg *config.Config) (string, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("// fuzzysql configuration\n\n")
	fmt.Fprintf(&sb, "version %d\n", cfg.Version)
	fmt.Fprintf(&sb, "dialect %s\n", strconv.Quote(cfg.Dialect))
	fmt.Fprintf(&sb, "extended %t\n", cfg.Extended)
	fmt.Fprintf(&sb, "strict_weights %t\n", cfg.StrictWeights)

	writeWeights(&sb, "matchers", registry.Core)
	writeWeights(&sb, "extended_matchers", registry.Extended)

	if len(cfg.Fields.Allow) > 0 {
		quoted := make([]string, len(cfg.Fields.Allow))
		for i, p := range cfg.Fields.Allow {
			quoted[i] = strconv.Quote(p)
		}
		fmt.Fprintf(&sb, "\nfields {\n    allow %s\n}\n", strings.Join(quoted, " "))
	}

	fmt.Fprintf(&sb, "\nsearch {\n    limit %d\n    min_relevance %s\n}\n",
		cfg.Search.Limit, strconv.FormatFloat(cfg.Search.MinRelevance, 'f', -1, 64))
	return sb.String(), nil
}

func writeWeights(sb *strings.Builder, section string, specs []matcher.Spec) {
	fmt.Fprintf(sb, "\n%s {\n", section)
	for _, s := range specs {
		fmt.Fprintf(sb, "    %s %d\n", s.Kind, s.Weight)
	}
	sb.WriteString("}\n")
}
